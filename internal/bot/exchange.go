package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
	"afripay-text-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Exchange flow: amount, source wallet, target currency, simulated quote,
// PIN. The rate simulator is consulted anonymously; when it is unreachable
// or returns an unusable payload the quote falls back to the local formula
// built from the form's rates and charge schedule.

func (b *Bot) startExchange(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	if !sess.Auth.IsAuthed {
		b.send(chatID, b.texts.Get().LoginRequired)
		return
	}

	env, err := telegram.WithLoader(b.tg, chatID, "Loading the exchange form...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodGet, "/user/util-bot/echange-form", chatID, sess.Auth.AccessToken, nil)
	})
	if err != nil {
		return
	}

	form := backend.DecodeExchangeForm(env)
	if len(form.Wallets) == 0 {
		b.send(chatID, "❌ No wallets available for exchange.")
		return
	}

	b.beginFlow(ctx, chatID, sess, session.FlowExchange, session.StepExchangeAmount)
	sess.Flow.Exchange = &session.ExchangeState{
		Wallets:    form.Wallets,
		Currencies: form.Currencies,
		Charge:     form.Charge,
	}

	var sb strings.Builder
	if len(form.Recent) > 0 {
		sb.WriteString("♻️ Your recent exchanges:\n")
		recent := form.Recent
		if len(recent) > 3 {
			recent = recent[:3]
		}
		for _, r := range recent {
			sb.WriteString(fmt.Sprintf("• %s %s → %s %s (%s)\n",
				formatAmount(r.FromAmount), r.FromCode, formatAmount(r.ToAmount), r.ToCode, shortDate(r.CreatedAt)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("💱 Enter the amount to exchange:")

	b.send(chatID, sb.String())
	b.save(chatID, sess)
}

func (b *Bot) exchangeStep(ctx context.Context, chatID int64, msg *tgbotapi.Message, sess *session.Session) {
	st := sess.Flow.Exchange
	if st == nil {
		b.send(chatID, b.texts.Get().GenericError)
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch sess.Flow.Step {
	case session.StepExchangeAmount:
		amount, ok := parseAmount(text)
		if !ok {
			b.send(chatID, "⚠️ Invalid amount. Please enter a positive number:")
			return
		}
		st.Amount = amount
		sess.Flow.Step = session.StepExchangeFrom
		b.send(chatID, exchangeWalletList(st.Wallets))
		b.save(chatID, sess)

	case session.StepExchangeFrom:
		idx, ok := parseIndex(text, len(st.Wallets))
		if !ok {
			b.send(chatID, exchangeWalletList(st.Wallets))
			return
		}
		wallet := st.Wallets[idx]
		st.From = &wallet

		candidates := exchangeCandidates(st)
		if len(candidates) == 0 {
			b.send(chatID, "❌ No target currency available for this wallet.")
			b.endFlow(ctx, chatID, sess, "failed")
			return
		}

		sess.Flow.Step = session.StepExchangeTo
		b.send(chatID, currencyList(candidates))
		b.save(chatID, sess)

	case session.StepExchangeTo:
		candidates := exchangeCandidates(st)
		idx, ok := parseIndex(text, len(candidates))
		if !ok {
			b.send(chatID, currencyList(candidates))
			return
		}
		currency := candidates[idx]
		st.To = &currency
		b.simulateExchange(ctx, chatID, sess)

	case session.StepExchangePin:
		switch b.checkPin(ctx, chatID, msg, sess) {
		case pinRetry:
			return
		case pinExhausted:
			b.send(chatID, "❌ Too many failed attempts. Exchange cancelled.")
			b.endFlow(ctx, chatID, sess, "pin_exhausted")
			return
		}
		b.submitExchange(ctx, chatID, sess)

	default:
		b.endFlow(ctx, chatID, sess, "failed")
	}
}

// simulateExchange builds the quote recap and moves the flow to the PIN
// step. The simulator rejects authorized requests, hence InvokeAnonymous.
func (b *Bot) simulateExchange(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Exchange

	b.tg.Typing(chatID)

	var (
		receive, fees float64
		rateText      string
	)

	env, err := b.api.InvokeAnonymous(ctx, http.MethodPost, "/simulator", chatID, map[string]interface{}{
		"amount":      st.Amount,
		"currency":    st.From.Code,
		"to_currency": st.To.Code,
	})
	if err == nil {
		var sim backend.Simulation
		if sim, err = backend.DecodeSimulation(env); err == nil {
			receive = sim.ReceiveAmount
			fees = sim.Fees + sim.Tva
			rateText = sim.RateText
		}
	}
	if err != nil {
		logger.Info("Simulator unavailable for chat", chatID, ", using local quote:", err)
		b.rec.System(ctx, chatID, "exchange_simulator_fallback", map[string]interface{}{
			"flow_id": sess.Flow.ID,
			"reason":  err.Error(),
		})
		receive, fees = fallbackQuote(st.Amount, st.From.Rate, st.To.Rate, st.Charge.FixedCharge, st.Charge.PercentCharge)
	}

	var sb strings.Builder
	sb.WriteString("🔁 Exchange summary:\n")
	sb.WriteString(fmt.Sprintf("You give: %s %s\n", formatAmount(st.Amount), st.From.Code))
	sb.WriteString(fmt.Sprintf("You receive: ≈ %s %s\n", formatAmount(receive), st.To.Code))
	sb.WriteString(fmt.Sprintf("Fees: %s %s\n", formatAmount(fees), st.From.Code))
	if rateText != "" {
		sb.WriteString(rateText + "\n")
	}
	st.Resume = sb.String()

	sess.Flow.Step = session.StepExchangePin
	sess.Flow.PinAttempts = 0
	b.send(chatID, st.Resume+"\n🔐 Enter your 6-digit PIN to confirm:")
	b.save(chatID, sess)
}

func (b *Bot) submitExchange(ctx context.Context, chatID int64, sess *session.Session) {
	st := sess.Flow.Exchange

	env, err := telegram.WithLoader(b.tg, chatID, "Submitting your exchange...", func() (backend.Envelope, error) {
		return b.api.Invoke(ctx, http.MethodPost, "/user/exchange-money", chatID, sess.Auth.AccessToken, map[string]interface{}{
			"amount":         st.Amount,
			"from_wallet_id": st.From.ID,
			"to_currency_id": st.To.ID,
		})
	})
	if err != nil {
		b.endFlow(ctx, chatID, sess, "failed")
		return
	}

	msg := env.String("message")
	if msg == "" {
		msg = "✅ Exchange completed successfully."
	}
	b.send(chatID, msg)
	b.endFlow(ctx, chatID, sess, "completed")
}

// exchangeCandidates lists the currencies the selected wallet can convert
// into, i.e. everything except its own currency.
func exchangeCandidates(st *session.ExchangeState) []session.Currency {
	if st.From == nil {
		return st.Currencies
	}
	var out []session.Currency
	for _, c := range st.Currencies {
		if c.ID != st.From.CurrID {
			out = append(out, c)
		}
	}
	return out
}

func exchangeWalletList(wallets []session.ExchangeWallet) string {
	var sb strings.Builder
	sb.WriteString("👛 Pick the wallet to exchange from, reply with its number:\n")
	for i, w := range wallets {
		sb.WriteString(fmt.Sprintf("%d) %s — balance %s\n", i+1, w.Code, formatAmount(w.Balance)))
	}
	return sb.String()
}

func currencyList(currencies []session.Currency) string {
	var sb strings.Builder
	sb.WriteString("🎯 Pick the target currency, reply with its number:\n")
	for i, c := range currencies {
		sb.WriteString(fmt.Sprintf("%d) %s\n", i+1, c.Code))
	}
	return sb.String()
}
