package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Key identifies one stock ledger row.
type Key struct {
	Material      string
	Specification string
}

func (k Key) String() string {
	return k.Material + "/" + k.Specification
}

// Less orders keys so multi-key adjustments always lock in the same order.
func (k Key) Less(o Key) bool {
	if k.Material != o.Material {
		return k.Material < o.Material
	}
	return k.Specification < o.Specification
}

type Record struct {
	ID            uint
	Material      string
	Specification string
	Quantity      decimal.Decimal
	Density       decimal.NullDecimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r Record) Key() Key {
	return Key{Material: r.Material, Specification: r.Specification}
}

type Filter struct {
	Material      string
	Specification string
}

// MissingPolicy decides what a negative adjustment does when the key has no
// record yet.
type MissingPolicy int

const (
	// MissingFail rejects the adjustment with ErrRecordNotFound.
	MissingFail MissingPolicy = iota
	// MissingSkip logs and ignores it. Orders created before stock was
	// tracked rely on this.
	MissingSkip
)

func (p MissingPolicy) String() string {
	if p == MissingSkip {
		return "skip"
	}
	return "fail"
}

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return MissingFail, nil
	case "skip":
		return MissingSkip, nil
	default:
		return MissingFail, fmt.Errorf("unknown inventory missing policy %q", s)
	}
}
