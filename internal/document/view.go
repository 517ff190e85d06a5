package document

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderView is everything a printed order needs, already resolved.
type OrderView struct {
	OrderNumber  string          `json:"order_number"`
	OrderType    string          `json:"order_type"`
	CustomerName string          `json:"customer_name"`
	UserName     string          `json:"user_name"`
	IsPaid       bool            `json:"is_paid"`
	IsCompleted  bool            `json:"is_completed"`
	Remark       string          `json:"remark"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []ItemView      `json:"items"`
}

type ItemView struct {
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Unit          string           `json:"unit"`
	Weight        *decimal.Decimal `json:"weight,omitempty"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Remark        string           `json:"remark"`
}
