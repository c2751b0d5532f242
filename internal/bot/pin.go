package bot

import (
	"context"
	"fmt"
	"strings"

	"afripay-text-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxPinAttempts caps consecutive PIN failures within one flow. The counter
// lives in the flow record, so a new flow always starts with a clean slate.
const maxPinAttempts = 3

type pinOutcome int

const (
	pinVerified pinOutcome = iota
	pinRetry
	pinExhausted
)

// checkPin runs one round of the PIN sub-protocol shared by every sensitive
// submission. Format failures and backend rejections both consume an
// attempt. On pinRetry the user has already been re-prompted and the session
// saved; on pinExhausted the caller terminates the flow.
func (b *Bot) checkPin(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) pinOutcome {
	flow := sess.Flow
	pin := strings.TrimSpace(msg.Text)

	fail := func(reason string) pinOutcome {
		flow.PinAttempts++
		if flow.PinAttempts >= maxPinAttempts {
			return pinExhausted
		}
		remaining := maxPinAttempts - flow.PinAttempts
		b.send(chatID, fmt.Sprintf("❌ %s\nAttempts remaining: %d. Enter your 6-digit PIN:", reason, remaining))
		b.save(chatID, sess)
		return pinRetry
	}

	if !validPin(pin) {
		return fail("Invalid PIN format, 6 digits expected.")
	}

	if err := b.auth.VerifyPin(ctx, chatID, sess.Auth.Email, pin); err != nil {
		return fail(err.Error())
	}

	flow.PinAttempts = 0
	sess.Auth.PinVerified = true
	return pinVerified
}
