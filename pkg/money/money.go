// Package money provides the fixed-precision amount type used by every
// balance movement in the ledger. Amounts are stored and computed with
// two decimal places; binary floats never touch monetary values.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by every amount.
const Scale = 2

// Money is an immutable fixed-precision amount.
type Money struct {
	dec decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

// FromInt builds an amount from whole units.
func FromInt(value int64) Money {
	return Money{dec: decimal.NewFromInt(value)}
}

// FromDecimal builds an amount from a raw decimal, rounding to the ledger scale.
func FromDecimal(d decimal.Decimal) Money {
	return Money{dec: d.Round(Scale)}
}

// FromString parses a decimal string such as "50000" or "47500.50".
func FromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.Exponent() < -Scale {
		return Money{}, fmt.Errorf("amount %q has more than %d decimal places", value, Scale)
	}
	return Money{dec: d}, nil
}

// MustParse parses a decimal string and panics on failure. Test helper.
func MustParse(value string) Money {
	m, err := FromString(value)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{dec: m.dec.Add(other.dec)}
}

func (m Money) Sub(other Money) Money {
	return Money{dec: m.dec.Sub(other.dec)}
}

// Percent returns value% of the amount, rounded half-up to the ledger scale.
func (m Money) Percent(value decimal.Decimal) Money {
	return Money{dec: m.dec.Mul(value).Div(decimal.NewFromInt(100)).Round(Scale)}
}

// Min returns the smaller of the two amounts.
func (m Money) Min(other Money) Money {
	if m.dec.LessThan(other.dec) {
		return m
	}
	return other
}

func (m Money) Cmp(other Money) int {
	return m.dec.Cmp(other.dec)
}

func (m Money) Equal(other Money) bool {
	return m.dec.Equal(other.dec)
}

func (m Money) LessThan(other Money) bool {
	return m.dec.LessThan(other.dec)
}

func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// String renders the amount with the fixed ledger scale, e.g. "47500.00".
func (m Money) String() string {
	return m.dec.StringFixed(Scale)
}

// Value implements driver.Valuer; amounts travel as decimal strings so the
// database column stays NUMERIC.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
		return nil
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	case int64:
		*m = FromInt(v)
		return nil
	case float64:
		// SQLite reports NUMERIC affinity columns as float64.
		*m = Money{dec: decimal.NewFromFloat(v).Round(Scale)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}

func (m *Money) scanString(value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("scan amount %q: %w", value, err)
	}
	*m = Money{dec: d.Round(Scale)}
	return nil
}

// MarshalJSON renders the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal representations.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
