package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger owns one quantity per Key.
//
// Adjust must run inside a db.Transactor unit of work. It locks the key until
// that unit ends, never lets a quantity drop below zero, and creates the
// record on a positive delta against a missing key.
type Ledger interface {
	Adjust(ctx context.Context, key Key, delta decimal.Decimal, policy MissingPolicy) (decimal.Decimal, error)
	Read(ctx context.Context, key Key) (decimal.Decimal, error)
}

// Store is the ledger plus the administrative record surface.
type Store interface {
	Ledger
	Get(ctx context.Context, key Key) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Create(ctx context.Context, rec *Record) error
}
