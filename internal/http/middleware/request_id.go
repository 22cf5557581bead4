package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds a client supplied id; longer ones are replaced.
const maxRequestIDLen = 128

// RequestID gives every request an id, keeping the client's X-Request-ID
// when it sent a usable one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.ContextWithRequestID(r.Context(), id)))
	})
}

// GetRequestID returns the id RequestID stored in ctx.
func GetRequestID(ctx context.Context) string {
	return observability.RequestIDFromContext(ctx)
}
