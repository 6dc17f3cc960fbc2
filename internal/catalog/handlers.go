package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-menu/internal/common"
)

// Handler exposes the catalog and pricing endpoints.
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
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

// bind decodes and validates a request body.
func (h *Handler) bind(r *http.Request, dst any) error {
	if err := decode(r, dst); err != nil {
		return err
	}
	return common.Validate(h.validator, dst)
}

func pathID(r *http.Request, key string) (string, string) {
	return chi.URLParam(r, key), key
}

func writeList[T any](w http.ResponseWriter, result ListResult[T]) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.NewPagination(result.Page, result.Limit, result.Total),
	})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CategoryInput
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query(), CategorySortFields...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.service.ListCategories(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, result)
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// UpdateCategory handles PATCH /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in CategoryPatch
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.UpdateCategory(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSubcategory handles POST /api/v1/subcategories.
func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in SubcategoryInput
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.CreateSubcategory(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// ListSubcategories handles GET /api/v1/subcategories.
func (h *Handler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query(), CategorySortFields...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.service.ListSubcategories(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, result)
}

// GetSubcategory handles GET /api/v1/subcategories/{id}.
func (h *Handler) GetSubcategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.service.GetSubcategory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// UpdateSubcategory handles PATCH /api/v1/subcategories/{id}.
func (h *Handler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in SubcategoryPatch
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.UpdateSubcategory(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// DeleteSubcategory handles DELETE /api/v1/subcategories/{id}.
func (h *Handler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteSubcategory(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateItem handles POST /api/v1/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in ItemInput
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// ListItems handles GET /api/v1/items with filters, sorting, and pagination.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query(), ItemSortFields...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.service.ListItems(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, result)
}

// GetItem handles GET /api/v1/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// UpdateItem handles PATCH /api/v1/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in ItemPatch
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.UpdateItem(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// DeleteItem handles DELETE /api/v1/items/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Price handles GET /api/v1/items/{id}/price.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.service.ParseQuoteRequest(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quote, err := h.service.Quote(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// BulkPriceConfig handles PATCH /api/v1/items/bulk/price-config.
func (h *Handler) BulkPriceConfig(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in BulkPriceConfigInput
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.service.BulkUpdatePriceConfig(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// CreateAddon handles POST /api/v1/items/{id}/addons.
func (h *Handler) CreateAddon(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in AddonInput
	if err := h.bind(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.service.CreateAddon(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// ListAddons handles GET /api/v1/items/{id}/addons.
func (h *Handler) ListAddons(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	activeOnly, err := common.ParseOptionalBool(r.URL.Query().Get("activeOnly"))
	if err != nil {
		h.writeError(w, r, badRequest("activeOnly", "activeOnly must be true or false", err))
		return
	}
	rows, err := h.service.ListAddons(r.Context(), id, activeOnly == nil || *activeOnly)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// DeleteAddon handles DELETE /api/v1/items/{id}/addons/{addonId}.
func (h *Handler) DeleteAddon(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, err := ParseID(pathID(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	addonID, err := ParseID(pathID(r, "addonId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeactivateAddon(r.Context(), itemID, addonID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps domain errors and adds the byte offset of JSON syntax errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = toAppError(err)
	if appErr, ok := common.AsAppError(err); ok && appErr.Details == nil && appErr.Err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(appErr.Err, &syntaxErr) {
			err = appErr.WithDetails(map[string]any{"offset": syntaxErr.Offset})
		}
	}
	common.WriteError(w, r, err)
}
