// Package middleware holds the HTTP middleware chain: request identity,
// panic recovery, access logging, client metadata extraction and bearer-token
// authentication.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"fundvault/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID and pins the request time on the
// context. An inbound X-Request-ID is honored so upstream gateways can trace
// through.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
