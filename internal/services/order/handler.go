package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/web"
)

// Handler exposes the order ledger and state machine over HTTP. Role checks
// (customers may only cancel a placed order, staff drive the forward path)
// happen in the gateway; here the caller is trusted.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates an order handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes attaches order routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", web.WithLogging(h.logger, h.listOrders))
	mux.HandleFunc("GET /orders/{order_id}", web.WithLogging(h.logger, h.getOrder))
	mux.HandleFunc("PATCH /orders/{order_id}/status", web.WithLogging(h.logger, h.updateStatus))
}

type statusUpdateRequest struct {
	Status    string  `json:"status"`
	ChangedBy string  `json:"changed_by"`
	Notes     *string `json:"notes,omitempty"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.service.GetOrder(ctx, r.PathValue("order_id"))
	if err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	web.WriteJSON(w, http.StatusOK, o)
}

// listOrders serves both projections: ?status= for staff polling actionable
// orders, otherwise the caller's own orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if rawStatus := r.URL.Query().Get("status"); rawStatus != "" {
		status, err := models.ParseOrderStatus(rawStatus)
		if err != nil {
			web.WriteMessage(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		orders, err := h.service.ListByStatus(ctx, status, limit, offset)
		if err != nil {
			web.WriteError(w, err, requestID)
			return
		}
		web.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
		return
	}

	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	orders, err := h.service.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req statusUpdateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		web.WriteMessage(w, http.StatusBadRequest, "invalid JSON format", requestID)
		return
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		web.WriteMessage(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = web.UserID(r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.service.Transition(ctx, r.PathValue("order_id"), target, changedBy, req.Notes)
	if err != nil {
		h.logger.Error("transition_failed", "Order status transition failed", requestID, err, map[string]interface{}{
			"order_id": r.PathValue("order_id"),
			"target":   req.Status,
		})
		web.WriteError(w, err, requestID)
		return
	}
	web.WriteJSON(w, http.StatusOK, o)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
