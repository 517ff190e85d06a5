package order

import (
	"time"

	"warehouse-be/internal/inventory"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeSales Type = "SALES"
	TypeQuote Type = "QUOTE"
)

func (t Type) Valid() bool {
	return t == TypeSales || t == TypeQuote
}

// AffectsStock reports whether orders of this type consume inventory.
func (t Type) AffectsStock() bool {
	return t == TypeSales
}

type Order struct {
	ID          uint
	OrderNumber string
	Type        Type
	CustomerID  uint
	UserID      uint
	IsPaid      bool
	IsCompleted bool
	Remark      string
	TotalPrice  decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []*Item

	// Resolved on reads for presentation.
	CustomerName string
	UserName     string
}

type Item struct {
	ID            uint
	OrderID       uint
	Material      string
	Specification string
	Quantity      decimal.Decimal
	Unit          string
	Weight        decimal.NullDecimal
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	Remark        string
}

func (i *Item) Key() inventory.Key {
	return inventory.Key{Material: i.Material, Specification: i.Specification}
}

// ItemInput is an item as submitted by a client. Pointer fields distinguish
// "missing" from zero.
type ItemInput struct {
	ID            *uint
	Material      string
	Specification string
	Quantity      *decimal.Decimal
	Unit          string
	Weight        *decimal.Decimal
	UnitPrice     *decimal.Decimal
	Remark        string
}

type CreateInput struct {
	Type       Type
	CustomerID uint
	UserID     uint
	Items      []ItemInput
	Remark     string
}

type CreateResult struct {
	OrderID     uint
	OrderNumber string
}

type EditInput struct {
	CustomerID uint
	Items      []ItemInput
	Remark     string
}

// FlagsInput updates only the fields that are set.
type FlagsInput struct {
	IsPaid      *bool
	IsCompleted *bool
	Remark      *string
}

type Filter struct {
	Type         *Type
	IsPaid       *bool
	IsCompleted  *bool
	CustomerName string
}
