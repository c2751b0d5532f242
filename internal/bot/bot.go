package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"afripay-text-bot/internal/audit"
	"afripay-text-bot/internal/auth"
	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"
	"afripay-text-bot/internal/texts"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Bot routes inbound messages and drives the per-chat flows. A chat's
// pending step is stored in its session: free text resumes that step,
// slash commands take priority and abandon whatever was in progress.
type Bot struct {
	tg    telegram.Sender
	files telegram.FileResolver
	api   backend.API
	auth  *auth.Gateway
	rec   *audit.Recorder
	store *session.Store
	texts *texts.Texts
}

func New(tg telegram.Sender, files telegram.FileResolver, api backend.API, gateway *auth.Gateway, rec *audit.Recorder, store *session.Store, txt *texts.Texts) *Bot {
	return &Bot{
		tg:    tg,
		files: files,
		api:   api,
		auth:  gateway,
		rec:   rec,
		store: store,
		texts: txt,
	}
}

// Run consumes the update channel until it closes or the context ends.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			go b.HandleMessage(ctx, update.Message)
		}
	}
}

// HandleMessage is the dispatcher. It holds the chat's critical section for
// the whole handling of one message, so a chat's session is only ever
// mutated by one step at a time.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	b.auditIncoming(ctx, msg)

	unlock := b.store.LockChat(chatID)
	defer unlock()

	sess := b.store.Get(chatID)
	text := strings.TrimSpace(msg.Text)

	// Slash commands always win; they may abandon an active flow, and
	// beginFlow records that transition.
	if handler, ok := b.matchSlashCommand(text); ok {
		handler(ctx, chatID, msg, &sess)
		return
	}

	// With a step pending, everything else is that step's input.
	if sess.Flow != nil && sess.Flow.Step != "" {
		b.resumeFlow(ctx, chatID, msg, &sess)
		return
	}

	if handler, ok := b.matchButton(text); ok {
		handler(ctx, chatID, msg, &sess)
		return
	}

	logger.Debug("Unroutable message from chat", chatID)
}

type commandHandler func(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session)

func (b *Bot) matchSlashCommand(text string) (commandHandler, bool) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil, false
	}

	switch fields[0] {
	case "/start":
		return b.startOnboarding, true
	case "/login":
		return b.beginLogin, true
	case "/menu":
		return b.showMenu, true
	case "/deposit":
		return b.startDeposit, true
	case "/exchange":
		return b.startExchange, true
	case "/transfer":
		return b.startTransfer, true
	case "/solde":
		return b.showBalance, true
	case "/historique":
		return b.showHistory, true
	}
	return nil, false
}

// matchButton maps reply-keyboard labels and their plain-text variants.
// Only consulted when no flow step is pending.
func (b *Bot) matchButton(text string) (commandHandler, bool) {
	switch strings.ToLower(text) {
	case "💰 deposit", "deposit":
		return b.startDeposit, true
	case "🔁 exchange", "exchange":
		return b.startExchange, true
	case "📤 send", "send":
		return b.startTransfer, true
	case "🏧 withdraw", "withdraw":
		return b.showComingSoon, true
	case "🆕 i'm new", "i'm new", "im new":
		return b.beginRegistration, true
	case "✅ i have an account", "i have an account":
		return b.beginLogin, true
	}
	return nil, false
}

func (b *Bot) resumeFlow(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	switch sess.Flow.Kind {
	case session.FlowOnboarding:
		b.onboardingStep(ctx, chatID, msg, sess)
	case session.FlowDeposit:
		b.depositStep(ctx, chatID, msg, sess)
	case session.FlowExchange:
		b.exchangeStep(ctx, chatID, msg, sess)
	case session.FlowTransfer:
		b.transferStep(ctx, chatID, msg, sess)
	default:
		logger.Warning("Unknown flow kind in session:", sess.Flow.Kind)
		sess.Flow = nil
		b.save(chatID, sess)
	}
}

// beginFlow replaces any active flow with a fresh one. The overwrite of an
// incomplete flow is deliberate and recorded, never a silent loss.
func (b *Bot) beginFlow(ctx context.Context, chatID int64, sess *session.Session, kind session.FlowKind, step session.Step) {
	if sess.Flow != nil {
		logger.Event("Chat", chatID, "abandons", sess.Flow.Kind, "flow at step", sess.Flow.Step)
		b.rec.System(ctx, chatID, "flow_abandoned", map[string]interface{}{
			"flow_id": sess.Flow.ID,
			"flow":    string(sess.Flow.Kind),
			"step":    string(sess.Flow.Step),
		})
	}

	sess.Flow = &session.Flow{
		ID:   uuid.NewString(),
		Kind: kind,
		Step: step,
	}
}

// endFlow terminates the active flow and persists the session.
func (b *Bot) endFlow(ctx context.Context, chatID int64, sess *session.Session, outcome string) {
	if sess.Flow == nil {
		return
	}

	logger.Event("Chat", chatID, "flow", sess.Flow.Kind, "ended:", outcome)
	b.rec.System(ctx, chatID, "flow_"+outcome, map[string]interface{}{
		"flow_id": sess.Flow.ID,
		"flow":    string(sess.Flow.Kind),
	})

	sess.Flow = nil
	b.save(chatID, sess)
}

func (b *Bot) save(chatID int64, sess *session.Session) {
	if err := b.store.Set(chatID, *sess); err != nil {
		logger.Warning("Failed to persist session for chat", chatID, err)
	}
}

func (b *Bot) send(chatID int64, text string) {
	_, err := b.tg.Send(chatID, text, nil)
	if err != nil {
		logger.Warning("Send failed for chat", chatID, err)
	}
}

func (b *Bot) sendKb(chatID int64, text string, kb *telegram.Keyboard) {
	_, err := b.tg.Send(chatID, text, kb)
	if err != nil {
		logger.Warning("Send failed for chat", chatID, err)
	}
}

func confirmKeyboard() *telegram.Keyboard {
	return &telegram.Keyboard{
		Rows:    [][]string{{"✅ Confirm"}, {"❌ Cancel"}},
		OneTime: true,
	}
}

func (b *Bot) auditIncoming(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	externalID := strconv.Itoa(msg.MessageID)
	sentAt := time.Unix(int64(msg.Date), 0)

	if file := telegram.ExtractFile(msg); file != nil {
		b.rec.Incoming(ctx, chatID, file.Name, "file", externalID, sentAt)
		return
	}
	b.rec.Incoming(ctx, chatID, msg.Text, "text", externalID, sentAt)
}
