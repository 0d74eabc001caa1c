package order

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/web"
)

// Handler handles HTTP requests for the order service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes mounts the handler under /orders
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateOrder)
	r.Get("/", h.ListOrders)
	r.Get("/{id}", h.GetOrder)
	r.Put("/{id}", h.ReplaceOrder)
	r.Patch("/{id}", h.PatchOrder)
	r.Delete("/{id}", h.DeleteOrder)
}

// CreateOrder handles POST /orders/
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	var req models.OrderCreate
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Debug("validation_failed", "Order payload rejected", requestID, map[string]interface{}{
			"error": err.Error(),
		})
		web.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req, requestID)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, order)
}

// ListOrders handles GET /orders/
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := web.NewQuery(r)
	filter := models.OrderFilter{
		Status:   q.String("status"),
		MinTotal: q.Float("min_total"),
		MaxTotal: q.Float("max_total"),
		Page:     q.Page(),
	}
	if err := q.Err(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	page, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, page)
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, order)
}

// ReplaceOrder handles PUT /orders/{id}
func (h *Handler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	var req models.OrderCreate
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.ReplaceOrder(r.Context(), id, &req, web.RequestID(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, order)
}

// PatchOrder handles PATCH /orders/{id}
func (h *Handler) PatchOrder(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	var req models.OrderUpdate
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.PatchOrder(r.Context(), id, &req, web.RequestID(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/{id}
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id, web.RequestID(r)); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, web.MessageResponse{
		Message: fmt.Sprintf("Order %d deleted successfully", id),
	})
}
