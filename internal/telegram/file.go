package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxFileSize caps user uploads. A file of exactly this size is accepted.
const MaxFileSize = 2 * 1024 * 1024

// IncomingFile describes a document or photo attached to a message.
type IncomingFile struct {
	ID   string
	Name string
	Mime string
	Size int64
}

// ExtractFile picks the attachment out of a message: a document as-is, or
// the highest-resolution variant of a photo. Nil when the message carries
// neither.
func ExtractFile(msg *tgbotapi.Message) *IncomingFile {
	if msg.Document != nil {
		doc := msg.Document
		file := &IncomingFile{
			ID:   doc.FileID,
			Name: doc.FileName,
			Mime: doc.MimeType,
			Size: int64(doc.FileSize),
		}
		if file.Name == "" {
			file.Name = "file"
		}
		if file.Mime == "" {
			file.Mime = "application/octet-stream"
		}
		return file
	}

	if len(msg.Photo) > 0 {
		best := msg.Photo[len(msg.Photo)-1]
		return &IncomingFile{
			ID:   best.FileID,
			Name: "photo.jpg",
			Mime: "image/jpeg",
			Size: int64(best.FileSize),
		}
	}

	return nil
}
