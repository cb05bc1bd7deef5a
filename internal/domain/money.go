package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the ISO 4217 code of every amount in the storefront.
const Currency = "BRL"

// Cents is an amount of Brazilian Real in centavos.
type Cents int64

// ErrAmountOutOfRange is returned for amounts that do not fit in Cents.
var ErrAmountOutOfRange = errors.New("amount out of range")

var (
	brlPrinter = message.NewPrinter(language.BrazilianPortuguese)

	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// CentsFromDecimal converts an amount in reais to centavos, rounding half
// away from zero at the second fractional digit.
func CentsFromDecimal(d decimal.Decimal) (Cents, error) {
	c := d.Round(2).Shift(2)
	if c.GreaterThan(maxCents) || c.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	return Cents(c.IntPart()), nil
}

// ParseCents parses a decimal string such as "89.90".
func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return CentsFromDecimal(d)
}

// Decimal returns the amount in reais.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Mul multiplies the amount by a quantity, saturating at the Cents range.
func (c Cents) Mul(qty int) Cents {
	if c == 0 || qty == 0 {
		return 0
	}
	q := Cents(qty)
	r := c * q
	if r/q != c || (c == -1 && q == math.MinInt64) || (q == -1 && c == math.MinInt64) {
		if (c < 0) != (q < 0) {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return r
}

// Add sums two amounts, saturating at the Cents range.
func (c Cents) Add(o Cents) Cents {
	switch {
	case o > 0 && c > math.MaxInt64-o:
		return math.MaxInt64
	case o < 0 && c < math.MinInt64-o:
		return math.MinInt64
	}
	return c + o
}

// String renders the amount with two fractional digits, e.g. "89.90".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// FormatBRL renders the amount the way pt-BR displays currency, e.g. "R$\u00a01.234,56"
// with a no-break space after the symbol.
func (c Cents) FormatBRL() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sR$\u00a0%s,%02d", sign, brlPrinter.Sprintf("%d", v/100), v%100)
}

// MarshalJSON writes the amount as a decimal number in reais.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a decimal number or a quoted decimal string in reais.
func (c *Cents) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	v, err := CentsFromDecimal(d)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*c = v
	return nil
}
