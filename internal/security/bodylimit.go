package security

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/noah-isme/backend-menu/internal/common"
)

// BodyLimit caps request bodies and, for requests that carry one, requires a
// JSON content type. The body is buffered so handlers and the idempotency
// middleware can both read it.
type BodyLimit struct {
	Max int64
}

func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}
		if b.Max > 0 && r.ContentLength > b.Max {
			common.WriteError(w, r, tooLarge(b.Max))
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
				common.WriteError(w, r, common.NewAppError("UNSUPPORTED_MEDIA_TYPE",
					"request body must be application/json", http.StatusUnsupportedMediaType, err))
				return
			}
		}

		var body io.Reader = r.Body
		if b.Max > 0 {
			body = http.MaxBytesReader(w, r.Body, b.Max)
		}
		buf, err := io.ReadAll(body)
		_ = r.Body.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				common.WriteError(w, r, tooLarge(b.Max))
				return
			}
			common.WriteError(w, r, common.BadRequest("INVALID_BODY", "request body could not be read", err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(max int64) *common.AppError {
	return common.NewAppError("PAYLOAD_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, nil).
		WithDetails(map[string]int64{"max_bytes": max})
}
