package httpapi

import (
	"net/http"
	"strings"

	"warehouse-be/internal/apperror"
	"warehouse-be/internal/inventory"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	records, err := h.inventory.List(r.Context(), inventory.Filter{
		Material:      strings.TrimSpace(r.URL.Query().Get("material")),
		Specification: strings.TrimSpace(r.URL.Query().Get("specification")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]inventoryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toInventoryResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "records": out})
}

func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventory.Get(r.Context(), inventory.Key{
		Material:      chi.URLParam(r, "material"),
		Specification: chi.URLParam(r, "specification"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "record": toInventoryResponse(rec)})
}

func (h *Handler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec := &inventory.Record{
		Material:      req.Material,
		Specification: req.Specification,
		Quantity:      req.Quantity,
	}
	if req.Density != nil {
		rec.Density = decimal.NewNullDecimal(*req.Density)
	}

	if err := h.inventory.Create(r.Context(), caller(r), rec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "record": toInventoryResponse(rec)})
}

var errDeltaRequired = apperror.Validation("delta is required")

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Delta == nil {
		writeError(w, r, errDeltaRequired)
		return
	}

	qty, err := h.inventory.Adjust(r.Context(), caller(r), inventory.Key{
		Material:      req.Material,
		Specification: req.Specification,
	}, *req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "quantity": qty})
}
