package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Format renders the amount for display using the locale's digit grouping
// and decimal separator, always with exactly two fraction digits. Formatting
// is the last step of any flow; computed totals never pass back through it.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", number.Decimal(float64(m.Amount)/100, number.Scale(2)))
}

// FormatWithCode prefixes the formatted amount with the currency code, e.g.
// "USD 1,234.50" in an English locale.
func (m Money) FormatWithCode(tag language.Tag) string {
	if m.Currency == "" {
		return m.Format(tag)
	}
	return m.Currency + " " + m.Format(tag)
}
