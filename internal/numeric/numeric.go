// Package numeric describes the NUMERIC columns decimals are stored in, so
// values can be rejected before Postgres rounds or refuses them.
package numeric

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Column is a NUMERIC(Precision, Scale) column.
type Column struct {
	Precision int32
	Scale     int32
}

var (
	// Quantity holds stock quantities, item quantities and weights.
	Quantity = Column{Precision: 14, Scale: 3}
	// Money holds unit prices, subtotals and order totals.
	Money = Column{Precision: 14, Scale: 2}
	// Density holds the optional inventory density.
	Density = Column{Precision: 10, Scale: 4}
)

// Limit is the smallest magnitude the column cannot hold.
func (c Column) Limit() decimal.Decimal {
	return decimal.New(1, c.Precision-c.Scale)
}

// Check reports whether d is stored exactly: no more fractional digits than
// Scale and a magnitude below Limit.
func (c Column) Check(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(c.Scale)) {
		return fmt.Errorf("at most %d decimal places allowed", c.Scale)
	}
	if d.Abs().GreaterThanOrEqual(c.Limit()) {
		return fmt.Errorf("must be less than %s", c.Limit())
	}
	return nil
}
