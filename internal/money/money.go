// Package money parses and formats the monetary and numeric wire values used
// by extractions: "<decimal>:<currency>" prices, integer quantities and
// percentages.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency can be derived from the data.
const DefaultCurrency = "EUR"

// MinQuantityInput is the smallest quantity accepted from free-text user input
// that cannot be read as a number.
const MinQuantityInput = 1

var errEmptyPrice = errors.New("empty price")

// Hundred is the percentage base.
var Hundred = decimal.NewFromInt(100)

// ParsePrice splits a "<amount>:<currency>" wire value. The currency part is
// optional on input.
func ParsePrice(raw string) (decimal.Decimal, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, "", errEmptyPrice
	}
	amountPart, currency := raw, ""
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		amountPart, currency = raw[:i], strings.ToUpper(strings.TrimSpace(raw[i+1:]))
	}
	amount, err := ParseAmount(amountPart)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("parsing price %q: %w", raw, err)
	}
	return amount, currency, nil
}

// PriceOrZero returns the amount and currency of a wire price, or zero and ""
// when it cannot be parsed.
func PriceOrZero(raw string) (decimal.Decimal, string) {
	amount, currency, err := ParsePrice(raw)
	if err != nil {
		return decimal.Zero, ""
	}
	return amount, currency
}

// FormatPrice renders amount as a "<amount>:<currency>" wire value with two
// decimals, rounded half-up.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return amount.StringFixed(2) + ":" + currency
}

// ParseAmount reads a plain decimal and ignores currency symbols and spaces.
// When both "." and "," appear the later one is the decimal separator and the
// other groups thousands ("1.234,50" and "1,234.50" are both 1234.50); a lone
// comma is a decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("€", "", "$", "", "£", "", " ", "", " ", "").Replace(s)
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" || s == "-" {
		return decimal.Zero, errEmptyPrice
	}
	return decimal.NewFromString(s)
}

// ParsePercentage reads a percentage such as "3", "3.00" or "3 %".
func ParsePercentage(s string) (decimal.Decimal, error) {
	return ParseAmount(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// FormatPercentage renders a percentage with two decimals.
func FormatPercentage(p decimal.Decimal) string {
	return p.StringFixed(2)
}

// ParseQuantity reads an extracted quantity. Decimal strings are truncated to
// whole units; anything unreadable or negative becomes 0.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	d, err := ParseAmount(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}

// ParseQuantityInput reads a quantity typed by the user. Numbers are kept as
// entered (negatives become 0); text that is not a number falls back to
// MinQuantityInput.
func ParseQuantityInput(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		d, derr := ParseAmount(s)
		if derr != nil {
			return MinQuantityInput
		}
		n = int(d.IntPart())
	}
	return max(n, 0)
}

// FormatQuantity renders a quantity as a decimal integer string.
func FormatQuantity(q int) string {
	return strconv.Itoa(q)
}

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
