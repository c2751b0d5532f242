package bot

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	phoneRe = regexp.MustCompile(`^\+?\d{8,15}$`)
	pinRe   = regexp.MustCompile(`^\d{6}$`)
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// parseAmount reads a user-typed monetary amount. Decimal commas are
// accepted, everything non-finite or non-positive is rejected.
func parseAmount(text string) (float64, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// parseIndex reads a 1-based menu selection and returns the 0-based index.
func parseIndex(text string, size int) (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || idx < 1 || idx > size {
		return 0, false
	}
	return idx - 1, true
}

func validPhone(text string) bool {
	return phoneRe.MatchString(strings.ReplaceAll(strings.TrimSpace(text), " ", ""))
}

func validPin(text string) bool {
	return pinRe.MatchString(strings.TrimSpace(text))
}

func validEmail(text string) bool {
	return emailRe.MatchString(strings.TrimSpace(text))
}

// isConfirmation accepts any reply containing "confirm", so both the
// keyboard label and typed variants pass.
func isConfirmation(text string) bool {
	return strings.Contains(strings.ToLower(text), "confirm")
}

func isApproval(text string) bool {
	lowered := strings.ToLower(text)
	return strings.Contains(lowered, "agree") || strings.Contains(lowered, "yes")
}

// fallbackQuote is the local exchange estimate used when the rate
// simulator is unreachable or returns an unusable response. Rates are
// relative to the platform's base currency.
func fallbackQuote(amount, fromRate, toRate, fixedCharge, percentCharge float64) (receive, charge float64) {
	if fromRate <= 0 {
		fromRate = 1
	}
	if toRate <= 0 {
		toRate = 1
	}
	receive = (amount / fromRate) * toRate
	charge = fixedCharge*fromRate + amount*(percentCharge/100)
	return receive, charge
}

// formatAmount trims trailing zeros so recaps read like "250" and "10.5"
// rather than "250.000000".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
