package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Single-shot commands. None of them touches the active flow: asking for a
// balance in the middle of a deposit answers and leaves the deposit pending.

func menuKeyboard() *telegram.Keyboard {
	return &telegram.Keyboard{
		Rows: [][]string{
			{"💰 Deposit", "🔁 Exchange"},
			{"📤 Send", "🏧 Withdraw"},
		},
	}
}

func (b *Bot) showMenu(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}
	b.sendKb(chatID, b.texts.Get().MenuHeader, menuKeyboard())
}

func (b *Bot) showComingSoon(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	b.send(chatID, b.texts.Get().ComingSoon)
}

func (b *Bot) showBalance(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}

	b.tg.Typing(chatID)

	env, err := b.api.Invoke(ctx, http.MethodPost, "/user/balance", chatID, sess.Auth.AccessToken, nil)
	if err != nil {
		b.send(chatID, "❌ "+err.Error())
		return
	}

	balance := env.Text("balance")
	if balance == "" {
		balance = "N/A"
	}
	b.send(chatID, fmt.Sprintf("💳 Your current balance is %s.", balance))
}

type historyItem struct {
	Date   string `mapstructure:"created_at"`
	Type   string `mapstructure:"type"`
	Amount string `mapstructure:"amount"`
}

func (b *Bot) showHistory(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}

	b.tg.Typing(chatID)

	env, err := b.api.Invoke(ctx, http.MethodPost, "/user/transactions", chatID, sess.Auth.AccessToken, nil)
	if err != nil {
		b.send(chatID, "❌ "+err.Error())
		return
	}

	var items []historyItem
	env.Decode("transactions", &items)
	if len(items) == 0 {
		b.send(chatID, "No transactions found.")
		return
	}

	if len(items) > 5 {
		items = items[:5]
	}

	var sb strings.Builder
	sb.WriteString("🧾 Your last transactions:\n")
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("▫️ %s: %s of %s\n", shortDate(it.Date), it.Type, it.Amount))
	}
	b.send(chatID, sb.String())
}

// shortDate keeps the calendar part of an ISO timestamp.
func shortDate(ts string) string {
	if idx := strings.IndexByte(ts, 'T'); idx > 0 {
		return ts[:idx]
	}
	return ts
}
