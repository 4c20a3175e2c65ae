// Package requestlog tags each request with a UUID request ID and wraps it in
// waffle's access log and panic recovery.
package requestlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/logging"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderName carries the request ID in both directions.
const HeaderName = "X-Request-ID"

// ID returns the request ID stored by AssignID, or "".
func ID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// AssignID stores a request ID under chi's request-ID key, reusing a
// well-formed inbound X-Request-ID, and echoes it on the response.
func AssignID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderName)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderName, reqID)
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Middleware returns the outer request stack, outermost first: request ID,
// access log, then panic recovery (a panic becomes a logged 500).
func Middleware(logger *zap.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		AssignID,
		logging.RequestLogger(logger),
		logging.Recoverer(logger),
	}
}
