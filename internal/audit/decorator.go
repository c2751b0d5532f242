package audit

import (
	"context"

	"afripay-text-bot/internal/telegram"
)

// SendRecorder decorates a transport Sender so every delivered message is
// mirrored to the audit log. Composed at construction time; flow handlers
// never know whether they hold the bare transport or the decorated one.
type SendRecorder struct {
	telegram.Sender
	rec *Recorder
}

func NewSendRecorder(s telegram.Sender, rec *Recorder) *SendRecorder {
	return &SendRecorder{Sender: s, rec: rec}
}

func (d *SendRecorder) Send(chatID int64, text string, kb *telegram.Keyboard) (int, error) {
	id, err := d.Sender.Send(chatID, text, kb)
	if err == nil {
		d.rec.Outgoing(context.Background(), chatID, text)
	}
	return id, err
}

func (d *SendRecorder) SendHTML(chatID int64, text string, kb *telegram.Keyboard) (int, error) {
	id, err := d.Sender.SendHTML(chatID, text, kb)
	if err == nil {
		d.rec.Outgoing(context.Background(), chatID, text)
	}
	return id, err
}
