package order

import "github.com/shopspring/decimal"

// Subtotal prices by weight when a non-zero weight is given, otherwise by
// quantity, rounded to two places.
func Subtotal(quantity, unitPrice decimal.Decimal, weight decimal.NullDecimal) decimal.Decimal {
	base := quantity
	if weight.Valid && !weight.Decimal.IsZero() {
		base = weight.Decimal
	}
	return base.Mul(unitPrice).Round(2)
}

func Total(items []*Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total.Round(2)
}
