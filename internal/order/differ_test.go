package order

import (
	"math/rand"
	"testing"

	"warehouse-be/internal/inventory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(material, spec string) inventory.Key {
	return inventory.Key{Material: material, Specification: spec}
}

func item(id uint, material, spec, qty string) *Item {
	return &Item{ID: id, OrderID: 1, Material: material, Specification: spec, Quantity: dec(qty)}
}

func assertDeltas(t *testing.T, want map[inventory.Key]string, got Deltas) {
	t.Helper()
	require.Len(t, got, len(want), "deltas: %v", got)
	for k, v := range want {
		assert.True(t, got[k].Equal(dec(v)), "%s: got %s want %s", k, got[k], v)
	}
}

func TestDiff_QuantityChange(t *testing.T) {
	original := []*Item{item(1, "steel", "10mm", "30")}
	proposed := []*Item{item(1, "steel", "10mm", "50")}

	diff, err := Diff(TypeSales, original, proposed)
	require.NoError(t, err)

	assertDeltas(t, map[inventory.Key]string{key("steel", "10mm"): "-20"}, diff.Deltas)
	assert.Len(t, diff.ToUpdate, 1)
	assert.Empty(t, diff.ToCreate)
	assert.Empty(t, diff.ToDelete)
}

func TestDiff_SpecificationChangeMovesStock(t *testing.T) {
	original := []*Item{item(1, "steel", "10mm", "30")}
	proposed := []*Item{item(1, "steel", "12mm", "20")}

	diff, err := Diff(TypeSales, original, proposed)
	require.NoError(t, err)

	assertDeltas(t, map[inventory.Key]string{
		key("steel", "10mm"): "30",
		key("steel", "12mm"): "-20",
	}, diff.Deltas)
}

func TestDiff_CreateUpdateDelete(t *testing.T) {
	original := []*Item{
		item(1, "steel", "10mm", "30"),
		item(2, "copper", "2mm", "5"),
	}
	proposed := []*Item{
		item(1, "steel", "10mm", "30"),
		item(0, "steel", "10mm", "4"),
		item(0, "zinc", "sheet", "1.5"),
	}

	diff, err := Diff(TypeSales, original, proposed)
	require.NoError(t, err)

	assertDeltas(t, map[inventory.Key]string{
		key("steel", "10mm"): "-4",
		key("copper", "2mm"): "5",
		key("zinc", "sheet"): "-1.5",
	}, diff.Deltas)
	assert.Len(t, diff.ToCreate, 2)
	assert.Len(t, diff.ToUpdate, 1)
	assert.Equal(t, []uint{2}, diff.DeleteIDs())
}

func TestDiff_NetZeroDropped(t *testing.T) {
	original := []*Item{item(1, "steel", "10mm", "30")}
	proposed := []*Item{item(1, "steel", "10mm", "30")}

	diff, err := Diff(TypeSales, original, proposed)
	require.NoError(t, err)
	assert.Empty(t, diff.Deltas)
	assert.Empty(t, diff.Deltas.Keys())
}

func TestDiff_QuoteHasNoDeltas(t *testing.T) {
	original := []*Item{item(1, "steel", "10mm", "30")}
	proposed := []*Item{item(0, "steel", "10mm", "99")}

	diff, err := Diff(TypeQuote, original, proposed)
	require.NoError(t, err)
	assert.Empty(t, diff.Deltas)
	assert.Len(t, diff.ToCreate, 1)
	assert.Len(t, diff.ToDelete, 1)
}

func TestDiff_UnknownItem(t *testing.T) {
	_, err := Diff(TypeSales, []*Item{item(1, "steel", "10mm", "1")}, []*Item{item(9, "steel", "10mm", "1")})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestDiff_DuplicateItem(t *testing.T) {
	original := []*Item{item(1, "steel", "10mm", "1")}
	proposed := []*Item{item(1, "steel", "10mm", "1"), item(1, "steel", "10mm", "2")}

	_, err := Diff(TypeSales, original, proposed)
	assert.ErrorIs(t, err, ErrDuplicateItem)
}

func TestDiff_MatchedItemTakesOrderID(t *testing.T) {
	original := []*Item{{ID: 4, OrderID: 77, Material: "steel", Specification: "10mm", Quantity: dec("1")}}
	proposed := []*Item{{ID: 4, Material: "steel", Specification: "10mm", Quantity: dec("2")}}

	diff, err := Diff(TypeSales, original, proposed)
	require.NoError(t, err)
	assert.Equal(t, uint(77), diff.ToUpdate[0].OrderID)
}

func TestDeltas_KeysSorted(t *testing.T) {
	d := Deltas{
		key("zinc", "a"):   dec("1"),
		key("copper", "b"): dec("-1"),
		key("copper", "a"): dec("2"),
		key("iron", "x"):   decimal.Zero,
	}
	assert.Equal(t, []inventory.Key{
		key("copper", "a"),
		key("copper", "b"),
		key("zinc", "a"),
	}, d.Keys())
}

func TestConsumptionAndRestorationDeltas(t *testing.T) {
	items := []*Item{
		item(1, "steel", "10mm", "30"),
		item(2, "steel", "10mm", "5"),
		item(3, "copper", "2mm", "1"),
	}

	assertDeltas(t, map[inventory.Key]string{
		key("steel", "10mm"): "-35",
		key("copper", "2mm"): "-1",
	}, ConsumptionDeltas(items))

	assertDeltas(t, map[inventory.Key]string{
		key("steel", "10mm"): "35",
		key("copper", "2mm"): "1",
	}, RestorationDeltas(items))
}

// Editing an order must move stock exactly as deleting it and creating the
// proposed one would.
func TestDiff_MatchesDeleteThenCreate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	keys := []inventory.Key{key("steel", "10mm"), key("steel", "12mm"), key("copper", "2mm"), key("zinc", "sheet")}

	randomItem := func(id uint) *Item {
		k := keys[rng.Intn(len(keys))]
		return item(id, k.Material, k.Specification, decimal.NewFromInt(int64(rng.Intn(50)+1)).String())
	}

	for round := 0; round < 200; round++ {
		var original []*Item
		for i := 0; i < rng.Intn(5); i++ {
			original = append(original, randomItem(uint(i+1)))
		}

		var proposed []*Item
		for _, o := range original {
			if rng.Intn(3) == 0 {
				continue
			}
			proposed = append(proposed, randomItem(o.ID))
		}
		for i := 0; i < rng.Intn(3); i++ {
			proposed = append(proposed, randomItem(0))
		}

		diff, err := Diff(TypeSales, original, proposed)
		require.NoError(t, err)

		want := Deltas{}
		for k, v := range RestorationDeltas(original) {
			want.add(k, v)
		}
		for k, v := range ConsumptionDeltas(proposed) {
			want.add(k, v)
		}
		want.compact()

		require.Len(t, diff.Deltas, len(want), "round %d", round)
		for k, v := range want {
			require.True(t, diff.Deltas[k].Equal(v), "round %d key %s: got %s want %s", round, k, diff.Deltas[k], v)
		}
	}
}
