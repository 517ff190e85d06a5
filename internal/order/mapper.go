package order

import (
	"warehouse-be/internal/document"
	"warehouse-be/internal/events"
)

func ToDocumentView(o *Order) document.OrderView {
	view := document.OrderView{
		OrderNumber:  o.OrderNumber,
		OrderType:    string(o.Type),
		CustomerName: o.CustomerName,
		UserName:     o.UserName,
		IsPaid:       o.IsPaid,
		IsCompleted:  o.IsCompleted,
		Remark:       o.Remark,
		TotalPrice:   o.TotalPrice,
		CreatedAt:    o.CreatedAt,
		Items:        make([]document.ItemView, 0, len(o.Items)),
	}

	for _, it := range o.Items {
		iv := document.ItemView{
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
			iv.Weight = &w
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

func toStockDeltas(d Deltas) []events.StockDelta {
	out := make([]events.StockDelta, 0, len(d))
	for _, key := range d.Keys() {
		out = append(out, events.StockDelta{
			Material:      key.Material,
			Specification: key.Specification,
			Delta:         d[key],
		})
	}
	return out
}

func toEvent(t events.Type, o *Order, d Deltas) events.OrderEvent {
	return events.NewOrderEvent(t, o.ID, o.OrderNumber, string(o.Type), o.TotalPrice, toStockDeltas(d))
}
