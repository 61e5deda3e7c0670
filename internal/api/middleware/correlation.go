package middleware

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

type requestIDKey struct{}

// CorrelationID tags each request with an ID, echoes it in X-Request-ID and
// stores a logger carrying it in the request context. Every later log line
// for the request, including the access line, goes through that logger.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if !validRequestID(requestID) {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			ctx = reqLogger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validRequestID accepts upstream IDs made of URL-safe characters only, so
// a client cannot inject quotes or newlines into log lines.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == ':':
		default:
			return false
		}
	}
	return true
}

// GetRequestID returns the ID assigned by CorrelationID, or "".
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// annotateCaller adds the authenticated caller to the request logger in
// place, so the access line written after the handler returns names them.
func annotateCaller(ctx context.Context, principal *auth.Principal) {
	if principal == nil {
		return
	}
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Int64("user_id", principal.UserID).Bool("is_admin", principal.IsAdmin)
	})
}
