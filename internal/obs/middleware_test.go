package obs_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("menu", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("missing") != "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	for _, target := range []string{"/api/v1/items/1", "/api/v1/items/2", "/api/v1/items/3?missing=1"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/items/{id}"))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/items/{id}", "2xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/items/{id}", "4xx")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.NotZero(t, testutil.CollectAndCount(metrics.RespBytes))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestRequestLoggerAttachesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var seen bool
	handler := middleware.RequestID(obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs.LoggerFrom(r.Context()).Info().Msg("inside")
		seen = true
		w.WriteHeader(http.StatusCreated)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/items", nil))

	require.True(t, seen)
	out := buf.String()
	require.Contains(t, out, `"message":"inside"`)
	require.Contains(t, out, `"message":"http_request"`)
	require.Contains(t, out, `"status":201`)
	require.Contains(t, out, `"request_id"`)
	require.Contains(t, out, `"route":"/api/v1/items"`)
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Idempotent-Replay", "true")
		w.WriteHeader(http.StatusConflict)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/items/1/bookings?x=1", nil))

	out := buf.String()
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, `"idempotent_replay":true`)
	require.Contains(t, out, `"query":"x=1"`)
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", obs.StatusClass(http.StatusCreated))
	require.Equal(t, "4xx", obs.StatusClass(http.StatusConflict))
	require.Equal(t, "5xx", obs.StatusClass(http.StatusServiceUnavailable))
	require.Equal(t, "unknown", obs.StatusClass(0))
}

func TestQueryName(t *testing.T) {
	name, op := obs.QueryName("-- name: FindOverlappingBooking :one\nSELECT id FROM bookings WHERE item_id = $1")
	require.Equal(t, "FindOverlappingBooking", name)
	require.Equal(t, "SELECT", op)

	name, op = obs.QueryName("  update items set is_active = false")
	require.Equal(t, "UPDATE", name)
	require.Equal(t, "UPDATE", op)

	name, op = obs.QueryName("")
	require.Equal(t, "query", name)
	require.Empty(t, op)
}

func TestDomainMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("menu_test", registry)

	obs.ObservePriceQuote("TIERED", true)
	obs.ObservePriceQuote("TIERED", true)
	obs.ObserveBooking("conflict")
	obs.ObserveBulkPriceConfig("STATIC", 3)
	obs.ObserveCascade("item", 0)

	require.Equal(t, float64(2), testutil.ToFloat64(obs.PriceQuotesTotal.WithLabelValues("TIERED", "true")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.BookingsTotal.WithLabelValues("conflict")))
	require.Equal(t, float64(3), testutil.ToFloat64(obs.BulkPriceConfigItemsTotal.WithLabelValues("STATIC")))
	require.Equal(t, 0, testutil.CollectAndCount(obs.DeactivationCascadeRowsTotal))
}
