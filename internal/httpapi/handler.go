package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"warehouse-be/internal/apperror"
	"warehouse-be/internal/auth"
	"warehouse-be/internal/idempotency"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/order"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	orders    order.Service
	inventory inventory.Service
	idem      idempotency.Store
	metrics   *metrics.Registry
}

// NewHandler wires the services. idem may be nil, which disables
// Idempotency-Key handling.
func NewHandler(orders order.Service, inv inventory.Service, idem idempotency.Store, reg *metrics.Registry) *Handler {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Handler{orders: orders, inventory: inv, idem: idem, metrics: reg}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"metrics": h.metrics.Snapshot(),
	})
}

var errBadID = apperror.Validation("id must be a positive integer")

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

func caller(r *http.Request) auth.Caller {
	c, _ := auth.CallerFrom(r.Context())
	return c
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status. Internal details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]any{"success": false, "msg": msg})
}
