package menu

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/web"
)

// Handler serves the /menu resource
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new menu handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes mounts the handler under /menu
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateMenuItem)
	r.Get("/", h.ListMenuItems)
	r.Get("/{id}", h.GetMenuItem)
	r.Put("/{id}", h.UpdateMenuItem)
	r.Delete("/{id}", h.DeleteMenuItem)
}

// CreateMenuItem handles POST /menu/
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req models.MenuItemCreate
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	item, err := h.service.CreateMenuItem(r.Context(), &req, web.RequestID(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, item)
}

// ListMenuItems handles GET /menu/
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	q := web.NewQuery(r)
	filter := models.MenuFilter{
		Category: q.String("category"),
		MinPrice: q.Float("min_price"),
		MaxPrice: q.Float("max_price"),
		Search:   q.String("search"),
		Page:     q.Page(),
	}
	if err := q.Err(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	page, err := h.service.ListMenuItems(r.Context(), filter, web.RequestID(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, page)
}

// GetMenuItem handles GET /menu/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	item, err := h.service.GetMenuItem(r.Context(), id)
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, item)
}

// UpdateMenuItem handles PUT /menu/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	var req models.MenuItemUpdate
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	item, err := h.service.UpdateMenuItem(r.Context(), id, &req, web.RequestID(r))
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, item)
}

// DeleteMenuItem handles DELETE /menu/{id}
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteMenuItem(r.Context(), id, web.RequestID(r)); err != nil {
		web.WriteError(w, r, h.logger, err)
		return
	}
	web.WriteJSON(w, r, h.logger, http.StatusOK, web.MessageResponse{
		Message: fmt.Sprintf("Menu item %d deleted successfully", id),
	})
}
