package backend

import (
	"errors"

	"afripay-text-bot/internal/session"
)

// Typed views over the duck-shaped backend payloads. Every form the flows
// consume is decoded here so the step handlers only ever see clean structs.

type (
	DepositForm struct {
		Wallets []session.Wallet
		Recent  []DepositHistoryItem
	}

	DepositHistoryItem struct {
		Amount    string `mapstructure:"amount"`
		Method    string `mapstructure:"method"`
		Status    string `mapstructure:"status"`
		CreatedAt string `mapstructure:"created_at"`
	}

	ExchangeForm struct {
		Wallets    []session.ExchangeWallet
		Currencies []session.Currency
		Charge     session.ChargeSchedule
		Recent     []RecentExchange
	}

	RecentExchange struct {
		FromCode   string
		ToCode     string
		FromAmount float64
		ToAmount   float64
		CreatedAt  string
	}

	Simulation struct {
		Fees          float64
		Tva           float64
		ReceiveAmount float64
		RateText      string
	}

	// SubmitResult is the terminal outcome of a deposit submission.
	SubmitResult struct {
		WebviewURL string
		Success    bool
	}
)

var ErrSimulationIncomplete = errors.New("simulator payload missing fields")

func DecodeDepositForm(env Envelope) DepositForm {
	form := DepositForm{}
	env.Decode("wallets", &form.Wallets)
	env.Decode("recent_deposits", &form.Recent)
	return form
}

func DecodeGatewayMethods(env Envelope) []session.GatewayMethod {
	var methods []session.GatewayMethod
	env.Decode("methods", &methods)
	return methods
}

// raw shapes of the exchange form, before flattening
type (
	rawFormWallet struct {
		ID       int64       `mapstructure:"id"`
		Balance  float64     `mapstructure:"balance"`
		Currency rawCurrency `mapstructure:"currency"`
	}

	rawCurrency struct {
		ID   int64   `mapstructure:"id"`
		Code string  `mapstructure:"code"`
		Rate float64 `mapstructure:"rate"`
		Type string  `mapstructure:"type"`
	}

	rawRecentExchange struct {
		FromAmount float64     `mapstructure:"from_amount"`
		ToAmount   float64     `mapstructure:"to_amount"`
		FromCurr   rawCurrency `mapstructure:"fromCurr"`
		ToCurr     rawCurrency `mapstructure:"toCurr"`
		FromID     int64       `mapstructure:"from_currency"`
		ToID       int64       `mapstructure:"to_currency"`
		CreatedAt  string      `mapstructure:"created_at"`
	}
)

func DecodeExchangeForm(env Envelope) ExchangeForm {
	form := ExchangeForm{}

	var rawWallets []rawFormWallet
	env.Decode("wallets", &rawWallets)
	for _, w := range rawWallets {
		form.Wallets = append(form.Wallets, session.ExchangeWallet{
			ID:      w.ID,
			Code:    w.Currency.Code,
			CurrID:  w.Currency.ID,
			Rate:    rateOrOne(w.Currency.Rate),
			Balance: w.Balance,
			Type:    w.Currency.Type,
		})
	}

	var rawCurrencies []rawCurrency
	env.Decode("currencies", &rawCurrencies)
	for _, c := range rawCurrencies {
		form.Currencies = append(form.Currencies, session.Currency{
			ID:   c.ID,
			Code: c.Code,
			Rate: rateOrOne(c.Rate),
			Type: c.Type,
		})
	}

	env.Decode("charge", &form.Charge)

	var rawRecent []rawRecentExchange
	env.Decode("recent_exchanges", &rawRecent)
	for _, r := range rawRecent {
		item := RecentExchange{
			FromCode:   r.FromCurr.Code,
			ToCode:     r.ToCurr.Code,
			FromAmount: r.FromAmount,
			ToAmount:   r.ToAmount,
			CreatedAt:  r.CreatedAt,
		}
		if item.FromCode == "" {
			item.FromCode = currencyCode(form.Currencies, r.FromID)
		}
		if item.ToCode == "" {
			item.ToCode = currencyCode(form.Currencies, r.ToID)
		}
		form.Recent = append(form.Recent, item)
	}

	return form
}

// DecodeSimulation extracts the simulator quote. Fees and the receive
// amount are mandatory: without them the caller must use the local fallback
// formula instead.
func DecodeSimulation(env Envelope) (Simulation, error) {
	sim := Simulation{RateText: env.String("dollarText")}

	var ok bool
	if sim.Fees, ok = env.Float("fees"); !ok {
		return sim, ErrSimulationIncomplete
	}
	if sim.ReceiveAmount, ok = env.Float("receiveAmount"); !ok {
		return sim, ErrSimulationIncomplete
	}
	sim.Tva, _ = env.Float("tva")

	return sim, nil
}

func DecodeTransferWallets(env Envelope) []session.TransferWallet {
	var raw []rawFormWallet
	env.Decode("response", &raw)

	var wallets []session.TransferWallet
	for _, w := range raw {
		wallets = append(wallets, session.TransferWallet{
			ID:      w.ID,
			Code:    w.Currency.Code,
			Balance: w.Balance,
		})
	}
	return wallets
}

func DecodeBanks(env Envelope) []session.Bank {
	var banks []session.Bank
	env.Decode("response", &banks)
	return banks
}

func DecodeTransferDetails(env Envelope) (session.TransferDetails, bool) {
	details := session.TransferDetails{}

	decoded := false
	if fees := env.Text("fees"); fees != "" {
		details.Fees = fees
		decoded = true
	}
	if tva := env.Text("tva"); tva != "" {
		details.Tva = tva
		decoded = true
	}
	if final := env.Text("finalAmount"); final != "" {
		details.FinalAmount = final
		decoded = true
	}
	return details, decoded
}

// DecodeAuthGrant extracts the token and user a login or registration
// response carries. Token may arrive as token or access_token, nested or
// not.
func DecodeAuthGrant(env Envelope) (token string, user *session.User) {
	token = env.String("token")
	if token == "" {
		token = env.String("access_token")
	}

	decoded := session.User{}
	if env.Decode("user", &decoded) {
		user = &decoded
	}
	return token, user
}

func DecodeSubmitResult(env Envelope) SubmitResult {
	return SubmitResult{
		WebviewURL: env.String("webview_url"),
		Success:    env.Bool("success"),
	}
}

func rateOrOne(rate float64) float64 {
	if rate == 0 {
		return 1
	}
	return rate
}

func currencyCode(currencies []session.Currency, id int64) string {
	for _, c := range currencies {
		if c.ID == id {
			return c.Code
		}
	}
	return "?"
}
