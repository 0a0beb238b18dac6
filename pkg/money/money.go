package money

import "fmt"

// All amounts in this codebase are int64 minor units (cents). Floats only
// appear at the formatting edge.

// ApplyBps applies a basis-point rate (100 bps = 1%) to an amount with
// half-up rounding. Used per line, never on float-rounded aggregates.
func ApplyBps(amountCents int64, bps int64) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return (amountCents*bps + 5000) / 10000
}

// Percent applies a whole-percent rate with half-up rounding.
func Percent(amountCents int64, pct int64) int64 {
	return ApplyBps(amountCents, pct*100)
}

// Format renders cents with a currency symbol for logs and emails.
func Format(currency string, cents int64) string {
	major := float64(cents) / 100.0
	switch currency {
	case "EUR":
		return fmt.Sprintf("€%.2f", major)
	case "TRY":
		return fmt.Sprintf("₺%.2f", major)
	case "USD":
		return fmt.Sprintf("$%.2f", major)
	case "GBP":
		return fmt.Sprintf("£%.2f", major)
	default:
		return fmt.Sprintf("%.2f %s", major, currency)
	}
}
