package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated Type = "order.created"
	OrderEdited  Type = "order.edited"
	OrderDeleted Type = "order.deleted"
)

type StockDelta struct {
	Material      string          `json:"material"`
	Specification string          `json:"specification"`
	Delta         decimal.Decimal `json:"delta"`
}

// OrderEvent describes a committed order mutation and the stock it moved.
type OrderEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	Type        Type            `json:"type"`
	OrderID     uint            `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   string          `json:"order_type"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	StockDeltas []StockDelta    `json:"stock_deltas"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderEvent(t Type, orderID uint, orderNumber, orderType string, total decimal.Decimal, deltas []StockDelta) OrderEvent {
	if deltas == nil {
		deltas = []StockDelta{}
	}
	return OrderEvent{
		EventID:     uuid.New(),
		Type:        t,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		OrderType:   orderType,
		TotalPrice:  total,
		StockDeltas: deltas,
		OccurredAt:  time.Now().UTC(),
	}
}
