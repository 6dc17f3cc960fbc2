package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/common"
)

// Handler exposes the booking endpoints.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{service: cfg.Service, validator: v}
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return false
	}
	return true
}

// Create handles POST /api/v1/items/{id}/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, err := catalog.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	var in CreateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.Validate(h.validator, &in); err != nil {
		common.WriteError(w, r, err)
		return
	}
	view, err := h.service.Create(r.Context(), itemID, in)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// List handles GET /api/v1/items/{id}/bookings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, err := catalog.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter, err := h.service.ParseListFilter(q.Get("status"), q.Get("from"), q.Get("to"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	views, err := h.service.List(r.Context(), itemID, filter)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Cancel handles POST /api/v1/bookings/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := catalog.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	view, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// AvailableSlots handles GET /api/v1/items/{id}/available-slots.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, err := catalog.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		common.WriteError(w, r, common.BadRequest("BAD_REQUEST", "date is required", nil).
			WithDetails(map[string]any{"field": "date"}))
		return
	}
	slots, err := h.service.AvailableSlots(r.Context(), itemID, date)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": slots})
}
