// Package money formats minor-unit amounts for display.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var locales = map[string]language.Tag{
	"IDR": language.Indonesian,
	"MYR": language.Malay,
	"SGD": language.English,
	"USD": language.AmericanEnglish,
}

// Format renders amount with the currency symbol and grouping of the
// currency's home locale, without fraction digits. Unknown codes fall back to
// "<CODE> <amount>".
func Format(amount int64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %d", code, amount)
	}
	tag, ok := locales[code]
	if !ok {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol.Kind(currency.Cash)(unit.Amount(amount)))
}

// Parse reads a displayed amount back into minor units. Grouping dots,
// symbols and spaces are ignored and a comma is the decimal separator.
func Parse(s string) (int64, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("parse amount %q: no digits", s)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return int64(math.Round(f)), nil
}
