package security

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CorrelationIDHeader carries the request correlation id end to end.
const CorrelationIDHeader = "X-Correlation-ID"

type correlationIDKey struct{}

// CorrelationID assigns each request a correlation id, honoring one the
// caller already supplied, and echoes it on the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" {
			cid = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), correlationIDKey{}, cid)
		w.Header().Set(CorrelationIDHeader, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CorrelationIDFromContext returns the request's correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return s
	}
	return ""
}
