package bot

import (
	"context"
	"fmt"
	"strings"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Onboarding covers /start, login and account registration. Login and
// registration are two branches of the same flow, picked at the path step.

func (b *Bot) startOnboarding(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	b.rec.UpsertConversation(ctx, chatID, chatTitle(msg))

	b.beginFlow(ctx, chatID, sess, session.FlowOnboarding, session.StepOnboardingPath)
	sess.Flow.Onboarding = &session.OnboardingState{}

	kb := &telegram.Keyboard{
		Rows:    [][]string{{"✅ I have an account"}, {"🆕 I'm new"}},
		OneTime: true,
	}
	b.sendKb(chatID, fmt.Sprintf(b.texts.Get().Welcome, name), kb)
	b.save(chatID, sess)
}

func (b *Bot) beginLogin(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	b.beginFlow(ctx, chatID, sess, session.FlowOnboarding, session.StepLoginEmail)
	sess.Flow.Onboarding = &session.OnboardingState{}

	b.send(chatID, "📧 Please enter your email address:")
	b.save(chatID, sess)
}

func (b *Bot) beginRegistration(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	b.beginFlow(ctx, chatID, sess, session.FlowOnboarding, session.StepOnboardingContact)
	sess.Flow.Onboarding = &session.OnboardingState{Registering: true}

	b.promptContact(chatID)
	b.save(chatID, sess)
}

func (b *Bot) promptContact(chatID int64) {
	kb := &telegram.Keyboard{
		Rows:    [][]string{{"📱 Share my contact"}},
		OneTime: true,
		Contact: true,
	}
	b.sendKb(chatID, "📱 Share your contact with the button below, or type your phone number in international format (e.g. +237650000000):", kb)
}

func (b *Bot) onboardingStep(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	st := sess.Flow.Onboarding
	if st == nil {
		st = &session.OnboardingState{}
		sess.Flow.Onboarding = st
	}

	text := strings.TrimSpace(msg.Text)

	switch sess.Flow.Step {
	case session.StepOnboardingPath:
		lowered := strings.ToLower(text)
		switch {
		case strings.Contains(lowered, "new"):
			st.Registering = true
			sess.Flow.Step = session.StepOnboardingContact
			b.promptContact(chatID)
		case strings.Contains(lowered, "account"), strings.Contains(lowered, "login"):
			sess.Flow.Step = session.StepLoginEmail
			b.send(chatID, "📧 Please enter your email address:")
		default:
			kb := &telegram.Keyboard{
				Rows:    [][]string{{"✅ I have an account"}, {"🆕 I'm new"}},
				OneTime: true,
			}
			b.sendKb(chatID, "Please pick one of the options below.", kb)
		}
		b.save(chatID, sess)

	case session.StepOnboardingContact:
		phone := text
		if msg.Contact != nil {
			phone = msg.Contact.PhoneNumber
			st.FirstName = msg.Contact.FirstName
			st.LastName = msg.Contact.LastName
		}
		if st.FirstName == "" && msg.From != nil {
			st.FirstName = msg.From.FirstName
			st.LastName = msg.From.LastName
		}

		phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
		if !validPhone(phone) {
			b.send(chatID, "⚠️ That does not look like a phone number. Use international format, e.g. +237650000000:")
			return
		}
		st.Phone = phone
		sess.Flow.Step = session.StepOnboardingConsent

		kb := &telegram.Keyboard{
			Rows:    [][]string{{"✅ I agree"}, {"❌ Cancel"}},
			OneTime: true,
		}
		b.sendKb(chatID, "📄 To open an account, Afripay processes your personal data according to its privacy policy. Do you agree?", kb)
		b.save(chatID, sess)

	case session.StepOnboardingConsent:
		if !isApproval(text) {
			b.send(chatID, "❌ Registration cancelled. You can restart anytime with /start.")
			b.endFlow(ctx, chatID, sess, "cancelled")
			return
		}
		sess.Flow.Step = session.StepOnboardingEmail
		b.send(chatID, "📧 Enter your email address:")
		b.save(chatID, sess)

	case session.StepOnboardingEmail:
		if !validEmail(text) {
			b.send(chatID, "⚠️ Invalid email address. Please try again:")
			return
		}
		st.Email = strings.ToLower(text)
		sess.Flow.Step = session.StepOnboardingPass
		b.send(chatID, "🔑 Choose a password (at least 6 characters):")
		b.save(chatID, sess)

	case session.StepOnboardingPass:
		if len(text) < 6 {
			b.send(chatID, "⚠️ Password too short, at least 6 characters. Please try again:")
			return
		}
		st.Password = text
		sess.Flow.Step = session.StepOnboardingConfirm

		recap := fmt.Sprintf("🧾 Account summary:\nName: %s %s\nPhone: %s\nEmail: %s\n\nCreate this account?",
			st.FirstName, st.LastName, st.Phone, st.Email)
		b.sendKb(chatID, recap, confirmKeyboard())
		b.save(chatID, sess)

	case session.StepOnboardingConfirm:
		if !isConfirmation(text) {
			b.send(chatID, "❌ Registration cancelled. You can restart anytime with /start.")
			b.endFlow(ctx, chatID, sess, "cancelled")
			return
		}
		b.submitRegistration(ctx, chatID, sess)

	case session.StepLoginEmail:
		if !validEmail(text) {
			b.send(chatID, "⚠️ Invalid email address. Please try again:")
			return
		}
		st.Email = strings.ToLower(text)
		sess.Flow.Step = session.StepLoginPass
		b.send(chatID, "🔑 Enter your password:")
		b.save(chatID, sess)

	case session.StepLoginPass:
		if text == "" {
			b.send(chatID, "⚠️ Password cannot be empty. Please try again:")
			return
		}
		b.submitLogin(ctx, chatID, sess, st.Email, text)

	default:
		b.endFlow(ctx, chatID, sess, "failed")
	}
}

func (b *Bot) submitRegistration(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Onboarding

	payload := map[string]interface{}{
		"name":       strings.TrimSpace(st.FirstName + " " + st.LastName),
		"first_name": st.FirstName,
		"last_name":  st.LastName,
		"phone":      st.Phone,
		"email":      st.Email,
		"password":   st.Password,
	}

	env, err := telegram.WithLoader(b.tg, chatID, "Creating your account...", func() (backend.Envelope, error) {
		return b.auth.Register(ctx, chatID, payload)
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	// Register may have adopted a token into the stored session; pick it up
	// before deciding what to tell the user. Clearing the flow also drops
	// the password held in the registration state.
	refreshed := b.store.Get(chatID)
	sess.Auth = refreshed.Auth
	b.endFlow(ctx, chatID, sess, "completed")

	if sess.Auth.IsAuthed {
		b.send(chatID, fmt.Sprintf("✅ Account created. You are logged in as %s.\nType /menu to see services.", sess.Auth.Email))
		return
	}

	msg := env.String("message")
	if msg == "" {
		msg = "✅ Registration submitted. You can now /login."
	}
	b.send(chatID, msg)
}

func (b *Bot) submitLogin(ctx context.Context, chatID int64, sess *session.Session, email, password string) {
	_, err := telegram.WithLoader(b.tg, chatID, "Logging you in...", func() (struct{}, error) {
		return struct{}{}, b.auth.Login(ctx, chatID, email, password)
	})
	if err != nil {
		b.send(chatID, "❌ Login failed. Try again with /login.")
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	refreshed := b.store.Get(chatID)
	sess.Auth = refreshed.Auth
	b.endFlow(ctx, chatID, sess, "completed")

	name := sess.Auth.Email
	if sess.Auth.User != nil && sess.Auth.User.Name != "" {
		name = sess.Auth.User.Name
	}
	b.send(chatID, fmt.Sprintf("✅ Logged in as %s.", name))
	b.sendKb(chatID, b.texts.Get().MenuHeader, menuKeyboard())
}

func chatTitle(msg *tgbotapi.Message) string {
	if msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	if msg.From != nil {
		return strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}
	return ""
}
