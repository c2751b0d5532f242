package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelopeObject(t *testing.T) {
	env := ParseEnvelope([]byte(`{"message":"ok","data":{"balance":"120.5"}}`))

	assert.Equal(t, "ok", env.String("message"))

	balance, ok := env.Float("balance")
	require.True(t, ok)
	assert.Equal(t, 120.5, balance)
}

func TestParseEnvelopeArrayWrapped(t *testing.T) {
	env := ParseEnvelope([]byte(`[{"title":"UBA"}]`))

	v, ok := env.Lookup("response")
	require.True(t, ok)
	assert.Len(t, v, 1)
}

func TestParseEnvelopeGarbage(t *testing.T) {
	env := ParseEnvelope([]byte(`not json at all`))
	assert.Empty(t, env)
}

func TestLookupOrder(t *testing.T) {
	env := Envelope{
		"status": "top",
		"response": map[string]interface{}{
			"status": "response",
		},
		"data": map[string]interface{}{
			"status": "data",
		},
	}

	// response wins over data, data wins over top level
	v, ok := env.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, "response", v)

	delete(env["response"].(map[string]interface{}), "status")
	v, _ = env.Lookup("status")
	assert.Equal(t, "data", v)

	delete(env["data"].(map[string]interface{}), "status")
	v, _ = env.Lookup("status")
	assert.Equal(t, "top", v)
}

func TestLookupNestedWrappers(t *testing.T) {
	env := Envelope{
		"response": map[string]interface{}{
			"data": map[string]interface{}{
				"token": "abc",
			},
		},
	}

	assert.Equal(t, "abc", env.String("token"))
}

func TestFloatAcceptsNumericString(t *testing.T) {
	env := Envelope{"fees": "12.75"}

	f, ok := env.Float("fees")
	require.True(t, ok)
	assert.Equal(t, 12.75, f)

	_, ok = Envelope{"fees": "abc"}.Float("fees")
	assert.False(t, ok)
}

func TestTextHandlesNumbers(t *testing.T) {
	assert.Equal(t, "512", Envelope{"finalAmount": float64(512)}.Text("finalAmount"))
	assert.Equal(t, "512", Envelope{"finalAmount": "512"}.Text("finalAmount"))
	assert.Equal(t, "", Envelope{}.Text("finalAmount"))
}

func TestDecodeWeaklyTyped(t *testing.T) {
	env := Envelope{
		"charge": map[string]interface{}{
			"fixed_charge":   "5",
			"percent_charge": float64(1),
		},
	}

	var out struct {
		Fixed   float64 `mapstructure:"fixed_charge"`
		Percent float64 `mapstructure:"percent_charge"`
	}
	require.True(t, env.Decode("charge", &out))
	assert.Equal(t, 5.0, out.Fixed)
	assert.Equal(t, 1.0, out.Percent)
}

func TestNilEnvelope(t *testing.T) {
	var env Envelope
	_, ok := env.Lookup("anything")
	assert.False(t, ok)
	assert.Equal(t, "", env.String("anything"))
	assert.False(t, env.Bool("anything"))
}
