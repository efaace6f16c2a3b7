package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/web"
)

// Handler exposes the checkout coordinator over HTTP.
type Handler struct {
	coordinator *Coordinator
	logger      *logger.Logger
}

// NewHandler creates a checkout handler.
func NewHandler(coordinator *Coordinator, log *logger.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: log}
}

// RegisterRoutes attaches the checkout route to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout", web.WithLogging(h.logger, h.checkout))
}

type checkoutRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	userID := web.UserID(r)
	if userID == "" {
		web.WriteMessage(w, http.StatusUnauthorized, "missing user identity", requestID)
		return
	}

	var req checkoutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteMessage(w, http.StatusBadRequest, "invalid JSON format", requestID)
			return
		}
	}

	// Duplicate-submit protection is opt-in: clients pass the same token on
	// retry to get the original order back.
	token := r.Header.Get("Idempotency-Key")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.coordinator.Checkout(ctx, userID, req.Notes, token)
	if err != nil {
		h.logger.Error("checkout_failed", "Checkout failed", requestID, err, map[string]interface{}{
			"user_id": userID,
		})
		web.WriteError(w, err, requestID)
		return
	}

	h.logger.Info("checkout_completed", "Checkout completed", requestID, map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total,
	})
	web.WriteJSON(w, http.StatusCreated, order)
}
