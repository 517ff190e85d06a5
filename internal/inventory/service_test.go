package inventory

import (
	"context"
	"testing"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	boss     = auth.Caller{UserID: 1, Role: auth.RoleBoss}
	employee = auth.Caller{UserID: 2, Role: auth.RoleEmployee}
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success trims key", func(t *testing.T) {
		store := NewMemoryStore()
		svc := NewService(store, db.NewMemoryTransactor())

		rec := &Record{Material: " steel ", Specification: "10mm ", Quantity: d("100")}
		require.NoError(t, svc.Create(ctx, boss, rec))

		got, err := svc.Get(ctx, steel10)
		require.NoError(t, err)
		assert.True(t, got.Quantity.Equal(d("100")))
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), db.NewMemoryTransactor())
		err := svc.Create(ctx, employee, &Record{Material: "steel", Specification: "10mm"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Validation", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), db.NewMemoryTransactor())

		assert.ErrorIs(t, svc.Create(ctx, boss, &Record{Material: "steel"}), ErrInvalidKey)
		assert.ErrorIs(t, svc.Create(ctx, boss, &Record{
			Material: "steel", Specification: "10mm", Quantity: d("-1"),
		}), ErrNegativeQuantity)
	})

	t.Run("ColumnRange", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), db.NewMemoryTransactor())

		tests := []struct {
			name string
			rec  *Record
			want error
		}{
			{"QuantityTooPrecise", &Record{Material: "steel", Specification: "10mm", Quantity: d("1.0004")}, ErrInvalidQuantity},
			{"QuantityTooLarge", &Record{Material: "steel", Specification: "10mm", Quantity: d("100000000000")}, ErrInvalidQuantity},
			{"DensityTooPrecise", &Record{Material: "steel", Specification: "10mm", Density: decimal.NewNullDecimal(d("7.85001"))}, ErrInvalidDensity},
			{"DensityTooLarge", &Record{Material: "steel", Specification: "10mm", Density: decimal.NewNullDecimal(d("1000000"))}, ErrInvalidDensity},
			{"DensityNegative", &Record{Material: "steel", Specification: "10mm", Density: decimal.NewNullDecimal(d("-1"))}, ErrInvalidDensity},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, svc.Create(ctx, boss, tt.rec), tt.want)
			})
		}

		_, err := svc.Get(ctx, steel10)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		rec := &Record{Material: "steel", Specification: "10mm", Quantity: d("1.5"), Density: decimal.NewNullDecimal(d("7.85"))}
		assert.NoError(t, svc.Create(ctx, boss, rec))
	})
}

func TestService_Adjust(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Record{Material: "steel", Specification: "10mm", Quantity: d("100")})
	svc := NewService(store, db.NewMemoryTransactor())

	t.Run("StockIn", func(t *testing.T) {
		got, err := svc.Adjust(ctx, boss, steel10, d("25"))
		assert.NoError(t, err)
		assert.True(t, got.Equal(d("125")))
	})

	t.Run("StockOutBeyondAvailable", func(t *testing.T) {
		_, err := svc.Adjust(ctx, boss, steel10, d("-500"))
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("ZeroDelta", func(t *testing.T) {
		_, err := svc.Adjust(ctx, boss, steel10, d("0"))
		assert.ErrorIs(t, err, ErrZeroDelta)
	})

	t.Run("Forbidden", func(t *testing.T) {
		_, err := svc.Adjust(ctx, employee, steel10, d("1"))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("DeltaOutOfRange", func(t *testing.T) {
		_, err := svc.Adjust(ctx, boss, steel10, d("0.0004"))
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.Adjust(ctx, boss, steel10, d("100000000000"))
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		got, err := store.Read(ctx, steel10)
		require.NoError(t, err)
		assert.True(t, got.Equal(d("125")), got.String())
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := svc.Adjust(ctx, boss, Key{Material: "tin", Specification: "1mm"}, d("-1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy("SKIP")
	assert.NoError(t, err)
	assert.Equal(t, MissingSkip, p)

	p, err = ParseMissingPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, MissingFail, p)

	_, err = ParseMissingPolicy("ignore")
	assert.Error(t, err)
}
