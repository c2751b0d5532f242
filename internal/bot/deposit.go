package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Deposit flow: amount, wallet, payment method, then either a mobile-money
// phone number or an uploaded receipt for manual methods, confirmation and
// PIN. Only XAF wallets accept deposits for now.

const depositCurrency = "XAF"

func (b *Bot) startDeposit(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}

	env, err := telegram.WithLoader(b.tg, chatID, "Loading the deposit form...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodGet, "/user/deposit", chatID, sess.Auth.AccessToken, nil)
	})
	if err != nil {
		return
	}

	form := backend.DecodeDepositForm(env)
	if len(form.Wallets) == 0 {
		b.send(chatID, "❌ No wallets available for deposit.")
		return
	}

	b.beginFlow(ctx, chatID, sess, session.FlowDeposit, session.StepDepositAmount)
	sess.Flow.Deposit = &session.DepositState{Wallets: form.Wallets}

	var sb strings.Builder
	if len(form.Recent) > 0 {
		sb.WriteString("🧾 Your last deposits:\n")
		recent := form.Recent
		if len(recent) > 3 {
			recent = recent[:3]
		}
		for _, d := range recent {
			sb.WriteString(fmt.Sprintf("• %s | method: %s | %s | %s\n", d.Amount, d.Method, d.Status, shortDate(d.CreatedAt)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("💵 Enter the amount to deposit:")

	b.send(chatID, sb.String())
	b.save(chatID, sess)
}

func (b *Bot) depositStep(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	st := sess.Flow.Deposit
	if st == nil {
		b.send(chatID, b.texts.Get().GenericError)
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch sess.Flow.Step {
	case session.StepDepositAmount:
		amount, ok := parseAmount(text)
		if !ok {
			b.send(chatID, "⚠️ Invalid amount. Please enter a positive number:")
			return
		}
		st.Amount = amount
		sess.Flow.Step = session.StepDepositWallet
		b.send(chatID, walletList(st.Wallets))
		b.save(chatID, sess)

	case session.StepDepositWallet:
		idx, ok := parseIndex(text, len(st.Wallets))
		if !ok {
			b.send(chatID, walletList(st.Wallets))
			return
		}
		wallet := st.Wallets[idx]
		if !strings.EqualFold(wallet.Code, depositCurrency) {
			b.send(chatID, "❌ Deposits are currently available for XAF wallets only.")
			b.endFlow(ctx, chatID, sess, "rejected")
			return
		}
		st.Wallet = &wallet
		b.loadGatewayMethods(ctx, chatID, sess)

	case session.StepDepositGateway:
		idx, ok := parseIndex(text, len(st.Methods))
		if !ok {
			b.send(chatID, methodList(st.Methods))
			return
		}
		method := st.Methods[idx]
		st.Gateway = &method

		if strings.EqualFold(method.Type, "manual") {
			sess.Flow.Step = session.StepDepositReceipt
			b.send(chatID, "📎 Please upload your payment receipt (photo or document, max 2 MB).")
		} else {
			sess.Flow.Step = session.StepDepositPhone
			b.send(chatID, "📞 Enter the mobile money phone number to debit (e.g. +237650000000):")
		}
		b.save(chatID, sess)

	case session.StepDepositReceipt:
		att, ok := b.ingestFile(ctx, chatID, msg)
		if !ok {
			return
		}
		st.Receipt = att
		sess.Flow.Step = session.StepDepositConfirm
		b.sendKb(chatID, b.depositRecap(st), confirmKeyboard())
		b.save(chatID, sess)

	case session.StepDepositPhone:
		if !validPhone(text) {
			b.send(chatID, "⚠️ Invalid phone number. Use international format, e.g. +237650000000:")
			return
		}
		st.Phone = strings.ReplaceAll(text, " ", "")
		sess.Flow.Step = session.StepDepositConfirm
		b.sendKb(chatID, b.depositRecap(st), confirmKeyboard())
		b.save(chatID, sess)

	case session.StepDepositConfirm:
		if !isConfirmation(text) {
			b.send(chatID, "❌ Deposit cancelled. Type /menu to see services.")
			b.endFlow(ctx, chatID, sess, "cancelled")
			return
		}
		sess.Flow.Step = session.StepDepositPin
		sess.Flow.PinAttempts = 0
		b.send(chatID, "🔐 Enter your 6-digit PIN to confirm:")
		b.save(chatID, sess)

	case session.StepDepositPin:
		switch b.checkPin(ctx, chatID, msg, sess) {
		case pinRetry:
			return
		case pinExhausted:
			b.send(chatID, "❌ Too many failed attempts. Deposit cancelled.")
			b.endFlow(ctx, chatID, sess, "pin_exhausted")
			return
		}
		b.submitDeposit(ctx, chatID, sess)

	default:
		b.endFlow(ctx, chatID, sess, "failed")
	}
}

func (b *Bot) loadGatewayMethods(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Deposit

	env, err := telegram.WithLoader(b.tg, chatID, "Loading payment methods...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodGet, "/user/gateway-methods", chatID, sess.Auth.AccessToken, map[string]interface{}{
			"currency_id": st.Wallet.ID,
		})
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	methods := backend.DecodeGatewayMethods(env)
	if len(methods) == 0 {
		b.send(chatID, "❌ No payment methods available for this wallet.")
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	st.Methods = methods
	sess.Flow.Step = session.StepDepositGateway
	b.send(chatID, methodList(methods))
	b.save(chatID, sess)
}

func (b *Bot) submitDeposit(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Deposit
	token := sess.Auth.AccessToken

	env, err := telegram.WithLoader(b.tg, chatID, "Submitting your deposit...", func() (backend.Envelope, error) {
		if st.Receipt != nil {
			fields := map[string]string{
				"amount":     formatAmount(st.Amount),
				"curr_code":  st.Wallet.Code,
				"gateway_id": fmt.Sprint(st.Gateway.ID),
			}
			return b.api.Upload(ctx, "/user/deposit/submit", chatID, token, fields, []backend.FilePart{{
				Field:    "receipt",
				Filename: st.Receipt.Filename,
				Mime:     st.Receipt.Mime,
				Data:     st.Receipt.Data,
			}})
		}
		return b.api.Invoke(ctx, http.MethodPost, "/user/deposit/submit", chatID, token, map[string]interface{}{
			"amount":       st.Amount,
			"curr_code":    st.Wallet.Code,
			"gateway_id":   st.Gateway.ID,
			"phone_number": st.Phone,
		})
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	result := backend.DecodeSubmitResult(env)
	switch {
	case result.WebviewURL != "":
		b.send(chatID, "💳 Complete your payment here:\n"+result.WebviewURL)
	case env.String("message") != "":
		b.send(chatID, env.String("message"))
	default:
		b.send(chatID, "✅ Deposit request received.")
	}

	b.endFlow(ctx, chatID, sess, "completed")
}

func (b *Bot) depositRecap(st *session.DepositState) string {
	var sb strings.Builder
	sb.WriteString("🧾 Deposit summary:\n")
	sb.WriteString(fmt.Sprintf("Amount: %s %s\n", formatAmount(st.Amount), st.Wallet.Code))
	sb.WriteString(fmt.Sprintf("Method: %s\n", st.Gateway.Name))
	if st.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone: %s\n", st.Phone))
	}
	if st.Receipt != nil {
		sb.WriteString(fmt.Sprintf("Receipt: %s\n", st.Receipt.Filename))
	}
	sb.WriteString("\nProceed?")
	return sb.String()
}

func walletList(wallets []session.Wallet) string {
	var sb strings.Builder
	sb.WriteString("👛 Pick a wallet, reply with its number:\n")
	for i, w := range wallets {
		sb.WriteString(fmt.Sprintf("%d) %s (%s)\n", i+1, w.Code, w.CurrName))
	}
	return sb.String()
}

func methodList(methods []session.GatewayMethod) string {
	var sb strings.Builder
	sb.WriteString("💳 Pick a payment method, reply with its number:\n")
	for i, m := range methods {
		sb.WriteString(fmt.Sprintf("%d) %s\n", i+1, m.Name))
	}
	return sb.String()
}
