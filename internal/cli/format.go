// Package cli formats numbers, money, and tables for command output.
package cli

import (
	"fmt"
	"math"
	"strconv"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney formats a monetary amount with magnitude-based precision.
// Known currencies get a symbol prefix, anything else a code suffix.
// e.g., (1234.5, "USD") -> "$1,235", (42.128, "SEK") -> "42.13 SEK"
func FormatMoney(v float64, currency string) string {
	if v < 0 {
		return "-" + FormatMoney(-v, currency)
	}

	sym, known := currencySymbols[currency]
	suffix := !known && currency != ""

	var amount string
	switch {
	case v >= 1000:
		amount = FormatNumber(int64(math.Round(v)))
	case suffix:
		amount = fmt.Sprintf("%.2f", v)
	case v >= 100:
		amount = fmt.Sprintf("%.0f", v)
	case v >= 10:
		amount = fmt.Sprintf("%.1f", v)
	default:
		amount = fmt.Sprintf("%.2f", v)
	}

	if suffix {
		return amount + " " + currency
	}

	if known {
		return sym + amount
	}
	return amount
}

// FormatSignedMoney formats a monetary delta with an explicit sign.
func FormatSignedMoney(v float64, currency string) string {
	if v < 0 {
		return "-" + FormatMoney(-v, currency)
	}
	return "+" + FormatMoney(v, currency)
}

// FormatPercent renders a 0..1 ratio as a percentage, e.g. "42.0%".
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatSignedPercent formats a 0-1 delta as a signed percentage string.
func FormatSignedPercent(f float64) string {
	if f < 0 {
		return fmt.Sprintf("-%.1f%%", -f*100)
	}
	return fmt.Sprintf("+%.1f%%", f*100)
}

// FormatDuration renders a second count as "1h 2m", "2m", or "45s",
// keeping only the two most significant units.
func FormatDuration(secs int64) string {
	switch {
	case secs <= 0:
		return "0s"
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm", secs/60)
	}
	return fmt.Sprintf("%dh %dm", secs/3600, secs%3600/60)
}

// FormatNumber writes an integer with thousands separators.
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}

	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return string(out)
}

// FormatDayOfWeek returns the 3-letter abbreviation for a weekday number,
// Sunday being 0.
func FormatDayOfWeek(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "???"
	}
	return [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}[weekday]
}
