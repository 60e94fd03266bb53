package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	moneyScale   = 2
	percentScale = 4
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// FormatMoney serializes a monetary amount as a fixed-precision decimal
// string. Monetary fields are never serialized as floating point.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyScale)
}

// FormatPercent serializes a percentage with four fixed decimal places.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(percentScale)
}

// FormatDate serializes a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SafeParse parses a decimal string, returning zero for empty or invalid input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RatioGuard converts a part/whole pair into a percentage, deciding what a
// zero denominator means for the user. The division-by-zero policy belongs to
// the rounding subsystem, so callers inject one of these.
type RatioGuard func(part, whole decimal.Decimal) *decimal.Decimal

// GuardedPercent is the default RatioGuard: part/whole*100 rounded to the
// percent scale, nil when the denominator is zero.
func GuardedPercent(part, whole decimal.Decimal) *decimal.Decimal {
	if whole.IsZero() {
		return nil
	}
	p := part.Div(whole).Mul(decimal.NewFromInt(100)).Round(percentScale)
	return &p
}
