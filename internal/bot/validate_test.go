package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{" 250.75 ", 250.75, true},
		{"10,5", 10.5, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1e309", 0, false},
		{"NaN", 0, false},
	}

	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestParseIndex(t *testing.T) {
	idx, ok := parseIndex("1", 3)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = parseIndex(" 3 ", 3)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = parseIndex("0", 3)
	assert.False(t, ok)
	_, ok = parseIndex("4", 3)
	assert.False(t, ok)
	_, ok = parseIndex("x", 3)
	assert.False(t, ok)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, validPhone("+237650000000"))
	assert.True(t, validPhone("237650000000"))
	assert.True(t, validPhone("+237 650 000 000"))
	assert.False(t, validPhone("12345"))
	assert.False(t, validPhone("+1234567890123456"))
	assert.False(t, validPhone("six-five-zero"))
}

func TestValidPin(t *testing.T) {
	assert.True(t, validPin("123456"))
	assert.True(t, validPin(" 123456 "))
	assert.False(t, validPin("12345"))
	assert.False(t, validPin("1234567"))
	assert.False(t, validPin("12345a"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("user@example.com"))
	assert.False(t, validEmail("user@example"))
	assert.False(t, validEmail("not an email"))
}

func TestIsConfirmation(t *testing.T) {
	assert.True(t, isConfirmation("✅ Confirm"))
	assert.True(t, isConfirmation("confirm"))
	assert.True(t, isConfirmation("yes, CONFIRM it"))
	assert.False(t, isConfirmation("cancel"))
	assert.False(t, isConfirmation("no"))
}

func TestFallbackQuote(t *testing.T) {
	receive, charge := fallbackQuote(200, 1, 2, 5, 1)
	assert.Equal(t, 400.0, receive)
	assert.Equal(t, 7.0, charge)

	// zero rates are treated as 1 so a broken form cannot divide by zero
	receive, _ = fallbackQuote(100, 0, 0, 0, 0)
	assert.Equal(t, 100.0, receive)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "250", formatAmount(250))
	assert.Equal(t, "10.5", formatAmount(10.5))
}
