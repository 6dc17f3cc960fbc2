// Package health serves the liveness and readiness probes of the menu API.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-menu/internal/common"
)

var draining atomic.Bool

// SetReady flips readiness. The api clears it before draining connections.
func SetReady(v bool) { draining.Store(!v) }

// Probe reports whether one dependency is usable.
type Probe func(ctx context.Context) error

// Postgres pings the pool.
func Postgres(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error {
		if pool == nil {
			return errors.New("not configured")
		}
		return pool.Ping(ctx)
	}
}

// Redis pings the client.
func Redis(client *redis.Client) Probe {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("not configured")
		}
		return client.Ping(ctx).Err()
	}
}

// Schema fails until golang-migrate has applied version want cleanly.
func Schema(pool *pgxpool.Pool, want uint) Probe {
	return func(ctx context.Context) error {
		if pool == nil {
			return errors.New("not configured")
		}
		var (
			version int64
			dirty   bool
		)
		err := pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("no migrations applied")
		}
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("migration %d is dirty", version)
		}
		if version < int64(want) {
			return fmt.Errorf("schema at version %d, want %d", version, want)
		}
		return nil
	}
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready runs every probe concurrently under one deadline and answers 503 if any fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			status := "ok"
			if err := probe(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, h.Probes[name])
	}
	wg.Wait()

	code, overall := http.StatusOK, "ok"
	for _, name := range names {
		if results[name] != "ok" {
			code, overall = http.StatusServiceUnavailable, "degraded"
			break
		}
	}
	common.JSON(w, code, map[string]any{"status": overall, "checks": results})
}
