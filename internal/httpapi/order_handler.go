package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"warehouse-be/internal/apperror"
	"warehouse-be/internal/auth"
	"warehouse-be/internal/idempotency"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/order"

	"go.uber.org/zap"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// idempotencyScope keys replays per caller, so two users sending the same
// header value never see each other's orders.
func idempotencyScope(c auth.Caller, key string) string {
	return "user:" + strconv.FormatUint(uint64(c.UserID), 10) + ":" + key
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	by := caller(r)
	userID := req.UserID
	if userID == 0 {
		userID = by.UserID
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if idemKey != "" && h.idem != nil {
		idemKey = idempotencyScope(by, idemKey)
		prior, reserved, err := h.idem.Reserve(r.Context(), idemKey)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "msg": err.Error()})
			return
		case err != nil:
			// store outage: serve the request without replay protection
			logger.FromCtx(r.Context()).Warn("idempotency store unavailable", zap.Error(err))
			idemKey = ""
		case !reserved:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replay", "true")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(prior)
			return
		}
	} else {
		idemKey = ""
	}

	res, err := h.orders.Create(r.Context(), order.CreateInput{
		Type:       order.Type(strings.ToUpper(strings.TrimSpace(req.OrderType))),
		CustomerID: req.CustomerID,
		UserID:     userID,
		Items:      toItemInputs(req.Items),
		Remark:     req.Remark,
	})
	if err != nil {
		if idemKey != "" {
			if relErr := h.idem.Release(r.Context(), idemKey); relErr != nil {
				logger.FromCtx(r.Context()).Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		writeError(w, r, err)
		return
	}

	body, _ := json.Marshal(createOrderResponse{
		Success:     true,
		OrderID:     res.OrderID,
		OrderNumber: res.OrderNumber,
	})
	if idemKey != "" {
		if err := h.idem.Complete(r.Context(), idemKey, body); err != nil {
			// a pending marker left behind would answer every retry with 409
			logger.FromCtx(r.Context()).Warn("failed to store idempotent response", zap.Error(err))
			if relErr := h.idem.Release(r.Context(), idemKey); relErr != nil {
				logger.FromCtx(r.Context()).Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func parseBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation(name + " must be true or false")
	}
	return &v, nil
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.Filter
	var err error

	if t := strings.TrimSpace(r.URL.Query().Get("type")); t != "" {
		typ := order.Type(strings.ToUpper(t))
		filter.Type = &typ
	}
	if filter.IsPaid, err = parseBool(r, "paid"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.IsCompleted, err = parseBool(r, "completed"); err != nil {
		writeError(w, r, err)
		return
	}
	filter.CustomerName = strings.TrimSpace(r.URL.Query().Get("customerName"))

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": out})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderResponse(o)})
}

func (h *Handler) UpdateOrderFlags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req flagsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err = h.orders.UpdateFlags(r.Context(), id, order.FlagsInput{
		IsPaid:      req.IsPaid,
		IsCompleted: req.IsCompleted,
		Remark:      req.Remark,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "msg": "order updated"})
}

func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req editOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.Edit(r.Context(), caller(r), id, order.EditInput{
		CustomerID: req.CustomerID,
		Items:      toItemInputs(req.Items),
		Remark:     req.Remark,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderResponse(o)})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.orders.Delete(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "msg": "order deleted"})
}

func (h *Handler) OrderDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pdf, err := h.orders.Document(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\"order-"+strconv.FormatUint(uint64(id), 10)+".pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
