package httpapi

import (
	"time"

	"warehouse-be/internal/inventory"
	"warehouse-be/internal/order"

	"github.com/shopspring/decimal"
)

type itemRequest struct {
	ID            *uint            `json:"id,omitempty"`
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Unit          string           `json:"unit"`
	Weight        *decimal.Decimal `json:"weight"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Subtotal      *decimal.Decimal `json:"subtotal,omitempty"`
	Remark        string           `json:"remark"`
}

type createOrderRequest struct {
	OrderType  string        `json:"order_type"`
	CustomerID uint          `json:"customer_id"`
	UserID     uint          `json:"user_id"`
	Items      []itemRequest `json:"items"`
	Remark     string        `json:"remark"`
}

type createOrderResponse struct {
	Success     bool   `json:"success"`
	OrderID     uint   `json:"orderId"`
	OrderNumber string `json:"order_number"`
}

type editOrderRequest struct {
	CustomerID uint          `json:"customerId"`
	Items      []itemRequest `json:"items"`
	Remark     string        `json:"remark"`
}

type flagsRequest struct {
	IsPaid      *bool   `json:"is_paid"`
	IsCompleted *bool   `json:"is_completed"`
	Remark      *string `json:"remark"`
}

type itemResponse struct {
	ID            uint             `json:"id"`
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Unit          string           `json:"unit"`
	Weight        *decimal.Decimal `json:"weight"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Remark        string           `json:"remark"`
}

type orderResponse struct {
	ID           uint            `json:"id"`
	OrderNumber  string          `json:"order_number"`
	OrderType    string          `json:"order_type"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	UserID       uint            `json:"user_id"`
	UserName     string          `json:"user_name"`
	IsPaid       bool            `json:"is_paid"`
	IsCompleted  bool            `json:"is_completed"`
	Remark       string          `json:"remark"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Items        []itemResponse  `json:"items"`
}

type inventoryRequest struct {
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Density       *decimal.Decimal `json:"density"`
}

type adjustRequest struct {
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Delta         *decimal.Decimal `json:"delta"`
}

type inventoryResponse struct {
	ID            uint             `json:"id"`
	Material      string           `json:"material"`
	Specification string           `json:"specification"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Density       *decimal.Decimal `json:"density"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toItemInputs(in []itemRequest) []order.ItemInput {
	out := make([]order.ItemInput, len(in))
	for i, it := range in {
		out[i] = order.ItemInput{
			ID:            it.ID,
			Material:      it.Material,
			Specification: it.Specification,
			Quantity:      it.Quantity,
			Unit:          it.Unit,
			Weight:        it.Weight,
			UnitPrice:     it.UnitPrice,
			Remark:        it.Remark,
		}
	}
	return out
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		OrderType:    string(o.Type),
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		UserID:       o.UserID,
		UserName:     o.UserName,
		IsPaid:       o.IsPaid,
		IsCompleted:  o.IsCompleted,
		Remark:       o.Remark,
		TotalPrice:   o.TotalPrice,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        make([]itemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		ir := itemResponse{
			ID:            it.ID,
			Material:      it.Material,
			Specification: it.Specification,
			Quantity:      it.Quantity,
			Unit:          it.Unit,
			UnitPrice:     it.UnitPrice,
			Subtotal:      it.Subtotal,
			Remark:        it.Remark,
		}
		if it.Weight.Valid {
			w := it.Weight.Decimal
			ir.Weight = &w
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func toInventoryResponse(rec *inventory.Record) inventoryResponse {
	resp := inventoryResponse{
		ID:            rec.ID,
		Material:      rec.Material,
		Specification: rec.Specification,
		Quantity:      rec.Quantity,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.Density.Valid {
		d := rec.Density.Decimal
		resp.Density = &d
	}
	return resp
}
