package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ReplayHeader marks a response served from the idempotency store.
const ReplayHeader = "Idempotent-Replay"

// Idem replays the first successful response for a repeated Idempotency-Key.
// Keys are scoped to method and path, and bound to the request body: reusing a
// key with a different body is rejected.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// idemRecord is what the store holds per key. Status is zero while the first
// request is still running.
type idemRecord struct {
	Fingerprint string `json:"fp"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"ct,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func idemKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + key))
	return "menu:idem:" + hex.EncodeToString(sum[:])
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Middleware claims the key before the handler runs. Failed responses release
// the claim so a corrected request can reuse the key.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, r, BadRequest("INVALID_BODY", "request body could not be read", err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))
		sum := sha256.Sum256(payload)
		fp := hex.EncodeToString(sum[:])

		ctx := r.Context()
		key := idemKey(r, header)
		pending, _ := json.Marshal(idemRecord{Fingerprint: fp})
		claimed, err := i.R.SetNX(ctx, key, pending, i.TTL).Result()
		if err != nil {
			WriteError(w, r, Internal(fmt.Errorf("idempotency store: %w", err)))
			return
		}
		if !claimed {
			i.replay(w, r, key, fp)
			return
		}

		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			bg := context.Background()
			if rec := recover(); rec != nil {
				_ = i.R.Del(bg, key).Err()
				panic(rec)
			}
			if cw.status >= http.StatusBadRequest {
				_ = i.R.Del(bg, key).Err()
				return
			}
			done, _ := json.Marshal(idemRecord{
				Fingerprint: fp,
				Status:      cw.status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
			})
			_ = i.R.Set(bg, key, done, i.TTL).Err()
		}()
		next.ServeHTTP(cw, r)
	})
}

func (i Idem) replay(w http.ResponseWriter, r *http.Request, key, fp string) {
	raw, err := i.R.Get(r.Context(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		WriteError(w, r, Conflict("IDEMPOTENCY_IN_PROGRESS", "a request with this idempotency key just finished, retry", nil))
		return
	}
	if err != nil {
		WriteError(w, r, Internal(fmt.Errorf("idempotency store: %w", err)))
		return
	}
	var rec idemRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		WriteError(w, r, Internal(fmt.Errorf("decode idempotency record: %w", err)))
		return
	}
	if rec.Fingerprint != fp {
		WriteError(w, r, Unprocessable("IDEMPOTENCY_KEY_REUSED", "idempotency key was used with a different request body", nil))
		return
	}
	if rec.Status == 0 {
		WriteError(w, r, Conflict("IDEMPOTENCY_IN_PROGRESS", "a request with this idempotency key is still running", nil))
		return
	}
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
