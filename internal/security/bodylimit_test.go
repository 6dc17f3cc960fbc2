package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T, got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*got = string(data)
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitPassesJSONWithinLimit(t *testing.T) {
	var got string
	h := BodyLimit{Max: 32}.Middleware(echoBody(t, &got))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"Drinks"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"name":"Drinks"}`, got)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	var got string
	h := BodyLimit{Max: 5}.Middleware(echoBody(t, &got))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/items/bulk/price-config", strings.NewReader(`{"items":[]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")

	// chunked body with no declared length
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/items/bulk/price-config", strings.NewReader(`{"items":[]}`))
	req.ContentLength = -1
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Empty(t, got)
}

func TestBodyLimitRejectsNonJSON(t *testing.T) {
	var got string
	h := BodyLimit{Max: 1024}.Middleware(echoBody(t, &got))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader("name=Espresso"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	require.Contains(t, rr.Body.String(), "UNSUPPORTED_MEDIA_TYPE")
}

func TestBodyLimitIgnoresEmptyBodies(t *testing.T) {
	var got string
	h := BodyLimit{Max: 1}.Middleware(echoBody(t, &got))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/1/cancel", nil)
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
