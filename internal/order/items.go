package order

import (
	"errors"
	"fmt"
	"strings"

	"warehouse-be/internal/numeric"

	"github.com/shopspring/decimal"
)

// buildItems validates client items and prices them. Ids are kept only when
// keepIDs is set; a create never references existing rows.
func buildItems(in []ItemInput, keepIDs bool) ([]*Item, error) {
	if len(in) == 0 {
		return nil, ErrNoItems
	}

	items := make([]*Item, 0, len(in))
	for i, raw := range in {
		it, err := buildItem(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: items[%d]: %s", ErrInvalidItem, i, err.Error())
		}
		if keepIDs && raw.ID != nil {
			it.ID = *raw.ID
		}
		items = append(items, it)
	}
	if err := numeric.Money.Check(Total(items)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTotalOutOfRange, err)
	}
	return items, nil
}

// buildItem rejects values the item columns cannot store exactly, so the
// persisted subtotal always recomputes from the persisted inputs.
func buildItem(in ItemInput) (*Item, error) {
	material := strings.TrimSpace(in.Material)
	spec := strings.TrimSpace(in.Specification)

	switch {
	case material == "":
		return nil, errors.New("material is required")
	case spec == "":
		return nil, errors.New("specification is required")
	case in.Quantity == nil:
		return nil, errors.New("quantity is required")
	case in.Quantity.IsNegative():
		return nil, errors.New("quantity must not be negative")
	case in.UnitPrice == nil:
		return nil, errors.New("unit_price is required")
	case in.UnitPrice.IsNegative():
		return nil, errors.New("unit_price must not be negative")
	case in.Weight != nil && in.Weight.IsNegative():
		return nil, errors.New("weight must not be negative")
	}

	if err := numeric.Quantity.Check(*in.Quantity); err != nil {
		return nil, fmt.Errorf("quantity: %s", err)
	}
	if err := numeric.Money.Check(*in.UnitPrice); err != nil {
		return nil, fmt.Errorf("unit_price: %s", err)
	}
	if in.Weight != nil {
		if err := numeric.Quantity.Check(*in.Weight); err != nil {
			return nil, fmt.Errorf("weight: %s", err)
		}
	}

	it := &Item{
		Material:      material,
		Specification: spec,
		Quantity:      *in.Quantity,
		Unit:          strings.TrimSpace(in.Unit),
		UnitPrice:     *in.UnitPrice,
		Remark:        in.Remark,
	}
	if in.Weight != nil {
		it.Weight = decimal.NewNullDecimal(*in.Weight)
	}
	it.Subtotal = Subtotal(it.Quantity, it.UnitPrice, it.Weight)
	if err := numeric.Money.Check(it.Subtotal); err != nil {
		return nil, fmt.Errorf("subtotal: %s", err)
	}
	return it, nil
}
