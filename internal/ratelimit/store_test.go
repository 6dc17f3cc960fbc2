package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func TestStoreLimiterAllow(t *testing.T) {
	l := NewStoreLimiter(memory.NewStore())
	ctx := context.Background()

	allowed, remaining, _, err := l.Allow(ctx, "ip:1", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, remaining)

	allowed, _, _, err = l.Allow(ctx, "ip:1", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, remaining, reset, err := l.Allow(ctx, "ip:1", time.Minute, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.True(t, reset.After(time.Now()))

	allowed, _, _, err = l.Allow(ctx, "ip:2", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMiddlewareWithStoreLimiter(t *testing.T) {
	handler := Handler{
		Limiter: NewStoreLimiter(memory.NewStore()),
		Config:  Config{Key: ClientKey, Window: time.Minute, Max: 1},
	}
	h := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "RATE_LIMITED")
}
