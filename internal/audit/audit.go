package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
)

// Recorder mirrors the conversation into the backend's bot-log endpoints.
// Everything here is best-effort: a failed audit call is logged and
// swallowed, it never affects the user-facing outcome.
type Recorder struct {
	api     backend.API
	store   *session.Store
	channel string
}

func New(api backend.API, store *session.Store) *Recorder {
	return &Recorder{api: api, store: store, channel: "telegram"}
}

// UpsertConversation makes sure a conversation record exists for the chat
// and binds the backend user when the session knows one.
func (r *Recorder) UpsertConversation(ctx context.Context, chatID int64, title string) {
	sess := r.store.Get(chatID)
	body := map[string]interface{}{
		"channel":          r.channel,
		"external_chat_id": fmt.Sprint(chatID),
		"title":            title,
	}
	if sess.Auth.User != nil {
		body["user_id"] = sess.Auth.User.ID
	}

	if _, err := r.api.Invoke(ctx, http.MethodPost, "/bot/conversations/upsert", chatID, sess.Auth.AccessToken, body); err != nil {
		logger.Warning("Audit conversation upsert failed:", err)
	}
}

func (r *Recorder) Incoming(ctx context.Context, chatID int64, content, messageType, externalID string, sentAt time.Time) {
	r.storeMessage(ctx, chatID, "incoming", messageType, content, nil, externalID, sentAt)
}

func (r *Recorder) Outgoing(ctx context.Context, chatID int64, content string) {
	r.storeMessage(ctx, chatID, "outgoing", "text", content, nil, "", time.Time{})
}

// System records an internal event (flow transitions, failures) that has no
// user-facing message of its own.
func (r *Recorder) System(ctx context.Context, chatID int64, content string, payload map[string]interface{}) {
	r.storeMessage(ctx, chatID, "outgoing", "system", content, payload, "", time.Time{})
}

// Attachment stores a file message and links the uploaded bytes to it.
func (r *Recorder) Attachment(ctx context.Context, chatID int64, file *session.Attachment, externalID string, sentAt time.Time) {
	sess := r.store.Get(chatID)

	env, err := r.api.Invoke(ctx, http.MethodPost, "/bot/messages", chatID, sess.Auth.AccessToken, r.messageBody(sess, chatID, "incoming", "file", file.Filename, map[string]interface{}{
		"mime": file.Mime,
		"size": file.Size,
	}, externalID, sentAt))
	if err != nil {
		logger.Warning("Audit file message store failed:", err)
		return
	}

	messageID, ok := env.Float("message_id")
	if !ok {
		logger.Debug("Audit response carries no message_id, attachment not linked")
		return
	}

	path := fmt.Sprintf("/bot/messages/%d/attachments", int64(messageID))
	_, err = r.api.Upload(ctx, path, chatID, sess.Auth.AccessToken, nil, []backend.FilePart{{
		Field:    "file",
		Filename: file.Filename,
		Mime:     file.Mime,
		Data:     file.Data,
	}})
	if err != nil {
		logger.Warning("Audit attachment upload failed:", err)
	}
}

func (r *Recorder) storeMessage(ctx context.Context, chatID int64, direction, messageType, content string, payload map[string]interface{}, externalID string, sentAt time.Time) {
	sess := r.store.Get(chatID)

	if _, err := r.api.Invoke(ctx, http.MethodPost, "/bot/messages", chatID, sess.Auth.AccessToken, r.messageBody(sess, chatID, direction, messageType, content, payload, externalID, sentAt)); err != nil {
		logger.Warning("Audit message store failed:", err)
	}
}

func (r *Recorder) messageBody(sess session.Session, chatID int64, direction, messageType, content string, payload map[string]interface{}, externalID string, sentAt time.Time) map[string]interface{} {
	body := map[string]interface{}{
		"channel":          r.channel,
		"external_chat_id": fmt.Sprint(chatID),
		"direction":        direction,
		"message_type":     messageType,
		"content":          content,
	}
	if payload != nil {
		body["payload"] = payload
	}
	if externalID != "" {
		body["external_message_id"] = externalID
	}
	if !sentAt.IsZero() {
		body["sent_at"] = sentAt.UTC().Format(time.RFC3339)
	}
	if sess.Auth.User != nil {
		body["user_id"] = sess.Auth.User.ID
	}
	return body
}
