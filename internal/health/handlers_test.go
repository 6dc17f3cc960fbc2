package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/health"
)

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func ready(t *testing.T, h health.Handler) (int, readiness) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body readiness
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func ok(context.Context) error { return nil }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReadyAllProbesPass(t *testing.T) {
	code, body := ready(t, health.Handler{Probes: map[string]health.Probe{"postgres": ok, "redis": ok, "schema": ok}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body.Status)
	require.Len(t, body.Checks, 3)
}

func TestReadyReportsFailingProbe(t *testing.T) {
	code, body := ready(t, health.Handler{Probes: map[string]health.Probe{
		"postgres": func(context.Context) error { return errors.New("db down") },
		"redis":    ok,
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "db down", body.Checks["postgres"])
	require.Equal(t, "ok", body.Checks["redis"])
}

func TestReadyAppliesTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, body := ready(t, health.Handler{Timeout: 20 * time.Millisecond, Probes: map[string]health.Probe{"redis": slow}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), body.Checks["redis"])
}

func TestRedisAndPostgresProbes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, health.Redis(client)(context.Background()))
	require.Error(t, health.Redis(nil)(context.Background()))
	require.Error(t, health.Postgres(nil)(context.Background()))
	require.Error(t, health.Schema(nil, 1)(context.Background()))
}
