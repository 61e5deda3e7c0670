package middleware

import (
	"net/http"

	"github.com/Togather-Foundation/voluntier/internal/api/problem"
	"github.com/Togather-Foundation/voluntier/internal/auth"
)

// Authenticate requires a valid bearer token and stores the caller's
// Principal in the request context. Missing and invalid tokens both get
// 401.
func Authenticate(tokens *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				problem.FromError(w, r, auth.ErrInvalidToken, env)
				return
			}

			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.FromError(w, r, err, env)
				return
			}

			principal, err := tokens.Authenticate(token)
			if err != nil {
				problem.FromError(w, r, err, env)
				return
			}

			annotateCaller(r.Context(), principal)
			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers that are not administrators with 403. It
// must run after Authenticate.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := auth.PrincipalFromContext(r.Context())
			if err := auth.RequireAdmin(principal); err != nil {
				problem.FromError(w, r, err, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
