// ABOUTME: Integer minor-unit money type used for every financial amount
// ABOUTME: Encodes as a major-unit JSON number via shopspring/decimal
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Cents is an amount in minor currency units.
type Cents int64

// FromMajor converts whole currency units to Cents.
func FromMajor(units int64) Cents {
	return Cents(units * 100)
}

// FromFloat converts a major-unit float, rounding to the nearest cent.
func FromFloat(units float64) Cents {
	return Cents(decimal.NewFromFloat(units).Shift(2).Round(0).IntPart())
}

// ParseCents parses a major-unit decimal string such as "7500.50".
func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Cents(d.Shift(2).Round(0).IntPart()), nil
}

// Percent returns pct percent of c rounded half away from zero to the nearest cent.
func (c Cents) Percent(pct int64) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(0).IntPart())
}

// RoundUnits rounds c to the nearest whole currency unit.
func (c Cents) RoundUnits() Cents {
	return Cents(decimal.New(int64(c), -2).Round(0).IntPart() * 100)
}

// Float returns the amount in major units for display-only encodings.
func (c Cents) Float() float64 {
	return c.Decimal().InexactFloat64()
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount as dollars, e.g. "$15,000.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / 100
	frac := v % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped []byte
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, digits[i])
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped, frac)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().StringFixed(2)), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*c = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		if s == "" {
			*c = 0
			return nil
		}
	}
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalYAML writes the amount in major units.
func (c Cents) MarshalYAML() (interface{}, error) {
	return c.Decimal().InexactFloat64(), nil
}

// UnmarshalYAML accepts a major-unit number such as 7500 or 7500.50.
func (c *Cents) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("amount must be a scalar, line %d", value.Line)
	}
	v, err := ParseCents(value.Value)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
