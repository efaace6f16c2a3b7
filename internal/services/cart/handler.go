package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/web"
)

// Handler exposes the cart manager over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a cart handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes attaches cart routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cart", web.WithLogging(h.logger, h.getCart))
	mux.HandleFunc("POST /cart/items", web.WithLogging(h.logger, h.addItem))
	mux.HandleFunc("PUT /cart/items/{line_id}", web.WithLogging(h.logger, h.updateItem))
	mux.HandleFunc("DELETE /cart/items/{line_id}", web.WithLogging(h.logger, h.removeItem))
	mux.HandleFunc("DELETE /cart", web.WithLogging(h.logger, h.clearCart))
}

type addItemRequest struct {
	ItemID   string            `json:"item_id"`
	Quantity int               `json:"quantity"`
	Options  map[string]string `json:"options,omitempty"`
	Note     string            `json:"note,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	c, err := h.service.Get(ctx, userID)
	if err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	web.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	var req addItemRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		web.WriteMessage(w, http.StatusBadRequest, "invalid JSON format", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	line, err := h.service.Add(ctx, userID, req.ItemID, req.Quantity, req.Options, req.Note)
	if err != nil {
		h.logger.Error("cart_add_failed", "Failed to add item to cart", requestID, err, map[string]interface{}{
			"user_id": userID,
			"item_id": req.ItemID,
		})
		web.WriteError(w, err, requestID)
		return
	}
	web.WriteJSON(w, http.StatusCreated, line)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteMessage(w, http.StatusBadRequest, "invalid JSON format", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.service.UpdateQuantity(ctx, userID, r.PathValue("line_id"), req.Quantity); err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.service.Remove(ctx, userID, r.PathValue("line_id")); err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.service.Clear(ctx, userID); err != nil {
		web.WriteError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}
