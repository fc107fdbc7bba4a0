// Package currency formats and parses localized IDR amounts.
//
// Format and Parse are exact inverses for whole-unit amounts: for every
// integer n >= 0, Parse(Format(n)) == n. Display strings use the Indonesian
// convention ("Rp 1.000.000", dot-grouped thousands).
package currency

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol is the currency prefix used for display
const Symbol = "Rp"

var printer = message.NewPrinter(language.Indonesian)

// Format renders a whole-unit amount with the IDR symbol and Indonesian
// thousands grouping. Negative amounts are not expected from the estimate
// path but still render deterministically: sign first, magnitude grouped.
func Format(amount int64) string {
	if amount < 0 {
		return "-" + Symbol + " " + printer.Sprintf("%d", -amount)
	}
	return Symbol + " " + printer.Sprintf("%d", amount)
}

// FormatDecimal rounds an amount half-up to whole currency units and
// renders it like Format.
func FormatDecimal(d decimal.Decimal) string {
	return Format(d.Round(0).IntPart())
}

// Parse extracts the whole-unit amount from a display string by stripping
// every non-digit rune. A minus sign ahead of the first digit is honored.
// Empty or fully non-numeric input parses to zero.
func Parse(s string) int64 {
	var digits strings.Builder
	negative := false

	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if r == '-' && digits.Len() == 0 {
			negative = true
		}
	}

	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		// Out of int64 range; the UI input range never reaches here
		return 0
	}

	if negative {
		return -n
	}
	return n
}

// Canonical reformats any locale-formatted amount string into the
// canonical display form: Canonical("1000000") == "Rp 1.000.000".
func Canonical(s string) string {
	return Format(Parse(s))
}
