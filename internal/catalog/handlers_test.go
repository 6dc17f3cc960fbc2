package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/catalog"
)

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type categoriesResponse struct {
	Data       []catalog.CategoryView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

func withParams(req *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCategoryHandlers(t *testing.T) {
	f := newFixture(t)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: f.svc})

	t.Run("create and list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"Breakfast","tax_percentage":"7.5"}`))
		rec := httptest.NewRecorder()
		handler.CreateCategory(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/categories?limit=5", nil)
		rec = httptest.NewRecorder()
		handler.ListCategories(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
		var body categoriesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		require.True(t, body.Data[0].TaxApplicable)
		require.Equal(t, "7.50", body.Data[0].TaxPercentage.String())
		require.Equal(t, 5, body.Pagination.PerPage)
	})

	t.Run("validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"description":"no name"}`))
		rec := httptest.NewRecorder()
		handler.CreateCategory(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Error.Code)
	})

	t.Run("numeric input", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"X","tax_percentage":"lots"}`))
		rec := httptest.NewRecorder()
		handler.CreateCategory(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_NUMERIC_INPUT", decodeError(t, rec).Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":`))
		rec := httptest.NewRecorder()
		handler.CreateCategory(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_JSON", decodeError(t, rec).Error.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/categories/nope", nil), "id", "nope")
		rec := httptest.NewRecorder()
		handler.GetCategory(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestItemHandlers(t *testing.T) {
	f := newFixture(t)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: f.svc})
	cat := f.category(t, "Lunch", amount("10"))

	body := `{"category_id":"` + cat.ID.String() + `","name":"Bowl","base_price":20,"pricing_type":"D","pricing_config":{"val":"5","is_perc":false}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.CreateItem(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID.String()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id+"/addons", strings.NewReader(`{"name":"Egg","price":1.5}`))
	rec = httptest.NewRecorder()
	handler.CreateAddon(rec, withParams(req, "id", id))
	require.Equal(t, http.StatusCreated, rec.Code)
	var addon struct {
		Data catalog.AddonView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addon))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/"+id+"/price?addonIds="+addon.Data.ID.String(), nil)
	rec = httptest.NewRecorder()
	handler.Price(rec, withParams(req, "id", id))
	require.Equal(t, http.StatusOK, rec.Code)
	var price struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &price))
	require.EqualValues(t, 20, price.Data["basePrice"])
	require.EqualValues(t, 5, price.Data["discount"])
	require.EqualValues(t, 1.5, price.Data["taxAmount"])
	require.EqualValues(t, 18, price.Data["grandTotal"])
	require.Equal(t, []any{"Egg"}, price.Data["addonsName"])
	require.Equal(t, true, price.Data["is_active"])

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/items/bulk/price-config", strings.NewReader(`{"category_id":"`+cat.ID.String()+`","pricing_type":"D","pricing_config":{"val":200,"is_perc":true}}`))
	rec = httptest.NewRecorder()
	handler.BulkPriceConfig(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "INVALID_CONFIG", resp.Error.Code)
	require.Equal(t, "DISCOUNTED", resp.Error.Details["pricing_type"])

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+id, nil)
	rec = httptest.NewRecorder()
	handler.DeleteItem(rec, withParams(req, "id", id))
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/"+id+"/price", nil)
	rec = httptest.NewRecorder()
	handler.Price(rec, withParams(req, "id", id))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
