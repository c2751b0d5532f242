package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExchangeFormFlattening(t *testing.T) {
	env := Envelope{
		"wallets": []interface{}{
			map[string]interface{}{
				"id":      float64(5),
				"balance": float64(1000),
				"currency": map[string]interface{}{
					"id":   float64(1),
					"code": "XAF",
					"rate": float64(0), // missing rate defaults to 1
				},
			},
		},
		"currencies": []interface{}{
			map[string]interface{}{"id": float64(1), "code": "XAF", "rate": float64(1)},
			map[string]interface{}{"id": float64(2), "code": "USD", "rate": float64(2)},
		},
		"charge": map[string]interface{}{
			"fixed_charge":   float64(5),
			"percent_charge": float64(1),
		},
	}

	form := DecodeExchangeForm(env)

	require.Len(t, form.Wallets, 1)
	assert.Equal(t, int64(5), form.Wallets[0].ID)
	assert.Equal(t, "XAF", form.Wallets[0].Code)
	assert.Equal(t, int64(1), form.Wallets[0].CurrID)
	assert.Equal(t, 1.0, form.Wallets[0].Rate)
	assert.Equal(t, 1000.0, form.Wallets[0].Balance)

	require.Len(t, form.Currencies, 2)
	assert.Equal(t, 5.0, form.Charge.FixedCharge)
	assert.Equal(t, 1.0, form.Charge.PercentCharge)
}

func TestDecodeExchangeFormRecentCodeFallback(t *testing.T) {
	env := Envelope{
		"currencies": []interface{}{
			map[string]interface{}{"id": float64(1), "code": "XAF", "rate": float64(1)},
			map[string]interface{}{"id": float64(2), "code": "USD", "rate": float64(2)},
		},
		"recent_exchanges": []interface{}{
			map[string]interface{}{
				"from_amount":   float64(100),
				"to_amount":     float64(0.16),
				"from_currency": float64(1),
				"to_currency":   float64(2),
				"created_at":    "2026-01-15T10:00:00Z",
			},
		},
	}

	form := DecodeExchangeForm(env)

	require.Len(t, form.Recent, 1)
	assert.Equal(t, "XAF", form.Recent[0].FromCode)
	assert.Equal(t, "USD", form.Recent[0].ToCode)
}

func TestDecodeSimulation(t *testing.T) {
	sim, err := DecodeSimulation(Envelope{
		"fees":          "12.5",
		"tva":           float64(2),
		"receiveAmount": float64(400),
		"dollarText":    "1 USD = 600 XAF",
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, sim.Fees)
	assert.Equal(t, 2.0, sim.Tva)
	assert.Equal(t, 400.0, sim.ReceiveAmount)
	assert.Equal(t, "1 USD = 600 XAF", sim.RateText)
}

func TestDecodeSimulationIncomplete(t *testing.T) {
	_, err := DecodeSimulation(Envelope{"fees": float64(1)})
	assert.ErrorIs(t, err, ErrSimulationIncomplete)

	_, err = DecodeSimulation(Envelope{"receiveAmount": float64(1)})
	assert.ErrorIs(t, err, ErrSimulationIncomplete)
}

func TestDecodeAuthGrant(t *testing.T) {
	token, user := DecodeAuthGrant(Envelope{
		"token": "t1",
		"user":  map[string]interface{}{"id": float64(7), "name": "Jo", "email": "jo@x.y"},
	})
	assert.Equal(t, "t1", token)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)

	token, _ = DecodeAuthGrant(Envelope{"access_token": "t2"})
	assert.Equal(t, "t2", token)

	token, user = DecodeAuthGrant(Envelope{})
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestDecodeTransferDetails(t *testing.T) {
	details, ok := DecodeTransferDetails(Envelope{
		"fees":        float64(10),
		"tva":         "2",
		"finalAmount": float64(512),
	})
	require.True(t, ok)
	assert.Equal(t, "10", details.Fees)
	assert.Equal(t, "2", details.Tva)
	assert.Equal(t, "512", details.FinalAmount)

	_, ok = DecodeTransferDetails(Envelope{})
	assert.False(t, ok)
}

func TestDecodeBanksFromWrappedArray(t *testing.T) {
	env := ParseEnvelope([]byte(`[{"title":"Afriland"},{"title":"UBA"}]`))

	banks := DecodeBanks(env)
	require.Len(t, banks, 2)
	assert.Equal(t, "Afriland", banks[0].Title)
}

func TestDecodeSubmitResult(t *testing.T) {
	res := DecodeSubmitResult(Envelope{"webview_url": "https://pay.example/wv/1", "success": true})
	assert.Equal(t, "https://pay.example/wv/1", res.WebviewURL)
	assert.True(t, res.Success)
}
