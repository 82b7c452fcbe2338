package hours

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for hour quantities.
const Scale = 2

// MaxQuantity matches the NUMERIC(4,2) column.
var MaxQuantity = decimal.RequireFromString("99.99")

// Rounding rescales the coefficient by 10^|exp|, so inputs are bounded in
// length and exponent before any arithmetic happens.
const (
	maxQuantityLen = 24
	minExponent    = -12
	maxExponent    = 2
)

// Quantity is a fixed-point hour amount. It never passes through a binary float.
type Quantity struct {
	d decimal.Decimal
}

// ParseQuantity rounds to two places (half away from zero) and rejects
// non-positive or out of range values.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxQuantityLen {
		return Quantity{}, ErrInvalidQuantity
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, ErrInvalidQuantity
	}

	return NewQuantity(d)
}

func NewQuantity(d decimal.Decimal) (Quantity, error) {
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return Quantity{}, ErrInvalidQuantity
	}

	d = d.Round(Scale)

	if !d.IsPositive() || d.GreaterThan(MaxQuantity) {
		return Quantity{}, ErrInvalidQuantity
	}

	return Quantity{d: d}, nil
}

// MustQuantity is for literals in tests and seed data.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) IsZero() bool {
	return q.d.IsZero()
}

func (q Quantity) Equal(other Quantity) bool {
	return q.d.Equal(other.d)
}

// String always renders two fractional digits, e.g. "3.50".
func (q Quantity) String() string {
	return q.d.StringFixed(Scale)
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON accepts "3.50" as well as 3.5. A JSON null leaves the zero
// value so that request validation can report the field as missing.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))

	if raw == "null" {
		*q = Quantity{}
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidQuantity
		}
		raw = s
	}

	parsed, err := ParseQuantity(raw)
	if err != nil {
		return err
	}

	*q = parsed
	return nil
}

// Total sums entry quantities in decimal arithmetic.
func Total(entries []Entry) decimal.Decimal {
	sum := decimal.Zero

	for _, e := range entries {
		sum = sum.Add(e.Hours.d)
	}

	return sum
}
