package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"slurmspawn/internal/logger"
)

// RequestID attaches a correlation id to every request. An incoming
// X-Request-ID is honored so ids survive proxy hops; otherwise one is
// generated. The id flows through the context into the logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := logger.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
