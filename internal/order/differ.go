package order

import (
	"fmt"
	"sort"

	"warehouse-be/internal/inventory"

	"github.com/shopspring/decimal"
)

// Deltas is the net stock movement per key. Positive restores stock,
// negative consumes it.
type Deltas map[inventory.Key]decimal.Decimal

func (d Deltas) add(key inventory.Key, v decimal.Decimal) {
	d[key] = d[key].Add(v)
}

func (d Deltas) compact() Deltas {
	for k, v := range d {
		if v.IsZero() {
			delete(d, k)
		}
	}
	return d
}

// Keys returns the keys with a non-zero net in lock order.
func (d Deltas) Keys() []inventory.Key {
	keys := make([]inventory.Key, 0, len(d))
	for k, v := range d {
		if !v.IsZero() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ItemDiff is the reconciliation of an order's stored items against a
// proposed replacement list.
type ItemDiff struct {
	Deltas   Deltas
	ToCreate []*Item
	ToUpdate []*Item
	ToDelete []*Item
}

func (d *ItemDiff) DeleteIDs() []uint {
	ids := make([]uint, len(d.ToDelete))
	for i, it := range d.ToDelete {
		ids[i] = it.ID
	}
	return ids
}

// Diff matches proposed items to original ones by id. A matched item returns
// its original quantity to the original key and takes its new quantity from
// the new key, so a material or specification change moves stock between
// keys. Unmatched proposed items are new, unmatched originals are removed.
// Only SALES orders carry stock deltas.
func Diff(orderType Type, original, proposed []*Item) (*ItemDiff, error) {
	byID := make(map[uint]*Item, len(original))
	for _, it := range original {
		byID[it.ID] = it
	}

	diff := &ItemDiff{Deltas: Deltas{}}
	seen := make(map[uint]bool, len(proposed))

	for i, p := range proposed {
		if p.ID == 0 {
			diff.ToCreate = append(diff.ToCreate, p)
			diff.Deltas.add(p.Key(), p.Quantity.Neg())
			continue
		}

		orig, ok := byID[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: items[%d] has id %d", ErrUnknownItem, i, p.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: items[%d] has id %d", ErrDuplicateItem, i, p.ID)
		}
		seen[p.ID] = true

		p.OrderID = orig.OrderID
		diff.ToUpdate = append(diff.ToUpdate, p)
		diff.Deltas.add(orig.Key(), orig.Quantity)
		diff.Deltas.add(p.Key(), p.Quantity.Neg())
	}

	for _, orig := range original {
		if !seen[orig.ID] {
			diff.ToDelete = append(diff.ToDelete, orig)
			diff.Deltas.add(orig.Key(), orig.Quantity)
		}
	}

	if !orderType.AffectsStock() {
		diff.Deltas = Deltas{}
	}
	diff.Deltas.compact()
	return diff, nil
}

// ConsumptionDeltas is the stock a new SALES order with these items takes.
func ConsumptionDeltas(items []*Item) Deltas {
	d := Deltas{}
	for _, it := range items {
		d.add(it.Key(), it.Quantity.Neg())
	}
	return d.compact()
}

// RestorationDeltas is the stock deleting a SALES order with these items
// gives back.
func RestorationDeltas(items []*Item) Deltas {
	d := Deltas{}
	for _, it := range items {
		d.add(it.Key(), it.Quantity)
	}
	return d.compact()
}
