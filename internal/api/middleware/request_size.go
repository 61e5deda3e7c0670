package middleware

import (
	"net/http"
)

// DefaultMaxBodySize bounds JSON request bodies. Every VolunTier payload is
// a handful of short fields.
const DefaultMaxBodySize int64 = 64 << 10

// RequestSize wraps the request body with http.MaxBytesReader. Handlers see
// a *http.MaxBytesError when a client sends more than maxBytes.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
