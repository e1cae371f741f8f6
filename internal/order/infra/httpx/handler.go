// Package httpx exposes the order lifecycle engine over HTTP.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zestora/zestora-orders/internal/order/domain"
	"github.com/zestora/zestora-orders/internal/order/engine"
	"github.com/zestora/zestora-orders/internal/order/infra/httpx/middlewares"
)

// Handler handles incoming HTTP requests for the order lifecycle.
type Handler struct {
	engine *engine.Engine
	log    *slog.Logger
}

// NewHandler initializes the handler around the injected engine.
func NewHandler(eng *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, log: logger}
}

// PlaceOrder validates the checkout payload and creates the order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "items are required")
		return
	}
	for _, it := range req.Items {
		if it.Name == "" || it.Quantity <= 0 || it.Price < 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "name, quantity, and price must be valid")
			return
		}
	}

	items, paymentMethod, address := req.toDomain()
	placed, err := h.engine.PlaceOrder(r.Context(), engine.PlaceRequest{
		Items:          items,
		PaymentMethod:  paymentMethod,
		Address:        address,
		IdempotencyKey: middlewares.IdempotencyKey(r.Context()),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "place_order_failed", err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "order placed",
		"request_id", middlewares.RequestID(r.Context()), "order_id", placed.ID)
	writeJSON(w, http.StatusCreated, placed)
}

// ListOrders returns the collection, most recent first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OrderListResponse{Orders: h.engine.Orders()})
}

// GetOrder returns a single order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.engine.Order(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// CancelOrder handles a customer cancellation request.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}

	cancelled, err := h.engine.CancelOrder(r.Context(), chi.URLParam(r, "id"), domain.CancellationRequest{
		Reason:           req.Reason,
		Details:          req.Details,
		RefundPreference: req.RefundPreference,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

// UpdateStatus applies a simulation/admin transition through the state
// machine; illegal transitions are rejected, never silently applied.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	updated, err := h.engine.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.Status(req.Status))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// GetTracking returns the live-tracking snapshot for an order.
func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Tracking(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
