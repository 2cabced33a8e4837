package db

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC. They are written as text with an explicit
// ::numeric cast and read back with ::text so no float conversion happens.

// DecimalArg renders an optional decimal as a query argument.
func DecimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseDecimal converts a scanned ::text column back into a decimal.
func ParseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}
