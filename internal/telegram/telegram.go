package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"afripay-text-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type (
	// Keyboard is a reply keyboard to attach to an outgoing message.
	// Contact makes every button request the user's contact card.
	Keyboard struct {
		Rows    [][]string
		OneTime bool
		Contact bool
	}

	// Sender is the outbound side of the messaging transport. The audit
	// decorator wraps this interface, flow handlers only ever see it.
	Sender interface {
		Send(chatID int64, text string, kb *Keyboard) (messageID int, err error)
		SendHTML(chatID int64, text string, kb *Keyboard) (int, error)
		Typing(chatID int64)
		Edit(chatID int64, messageID int, text string) error
		Delete(chatID int64, messageID int)
	}

	// FileResolver turns a transport file identifier into the file bytes.
	FileResolver interface {
		Download(ctx context.Context, fileID string) ([]byte, error)
	}

	Client interface {
		Sender
		FileResolver
	}
)

// Bot is the real Telegram transport.
type Bot struct {
	api *tgbotapi.BotAPI
	dl  *http.Client
}

const (
	downloadTimeout  = 20 * time.Second
	downloadAttempts = 3
	downloadBackoff  = 500 * time.Millisecond
)

func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false

	logger.Info("Authorized on account", api.Self.UserName)

	return &Bot{
		api: api,
		dl:  &http.Client{Timeout: downloadTimeout},
	}, nil
}

// Updates opens the long-polling update channel.
func (b *Bot) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return b.api.GetUpdatesChan(u)
}

func (b *Bot) StopPolling() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) Send(chatID int64, text string, kb *Keyboard) (int, error) {
	return b.send(chatID, text, kb, "")
}

func (b *Bot) SendHTML(chatID int64, text string, kb *Keyboard) (int, error) {
	return b.send(chatID, text, kb, tgbotapi.ModeHTML)
}

func (b *Bot) send(chatID int64, text string, kb *Keyboard, parseMode string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if kb != nil {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				if kb.Contact {
					buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(label))
				} else {
					buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
				}
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.OneTimeKeyboard = kb.OneTime
		msg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		logger.Warning("Failed to send message to chat", chatID, err)
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) Typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("Typing indicator failed", err)
	}
}

func (b *Bot) Edit(chatID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (b *Bot) Delete(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		logger.Debug("Delete message failed", err)
	}
}

// Download resolves a file identifier and fetches its content with up to
// three attempts and linear backoff between them.
func (b *Bot) Download(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		data, err := b.fetch(ctx, fileURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		logger.Warning("File download retry", attempt, err)

		select {
		case <-time.After(downloadBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (b *Bot) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.dl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
