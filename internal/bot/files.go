package bot

import (
	"context"
	"strconv"
	"time"

	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ingestFile pulls the attachment out of a message, enforces the size cap
// and downloads the bytes. On any failure the user has been told what to do
// and the current step stays pending.
func (b *Bot) ingestFile(ctx context.Context, chatID int64, msg *tgbotapi.Message) (*session.Attachment, bool) {
	file := telegram.ExtractFile(msg)
	if file == nil {
		b.send(chatID, "⚠️ Please attach a document or a photo.")
		return nil, false
	}

	if file.Size > telegram.MaxFileSize {
		b.send(chatID, "⚠️ File too large, the limit is 2 MB. Please send a smaller file.")
		return nil, false
	}

	data, err := b.files.Download(ctx, file.ID)
	if err != nil {
		logger.Warning("File download failed for chat", chatID, err)
		b.send(chatID, "❌ Could not download your file. Please send it again.")
		return nil, false
	}

	att := &session.Attachment{
		Filename: file.Name,
		Mime:     file.Mime,
		Size:     file.Size,
		Data:     data,
	}

	b.rec.Attachment(ctx, chatID, att, strconv.Itoa(msg.MessageID), time.Unix(int64(msg.Date), 0))

	return att, true
}
