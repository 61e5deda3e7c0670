package auth

import (
	"context"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

var (
	ErrNotAuthenticated = failure.New(failure.KindUnauthenticated, "authentication required")
	ErrAdminRequired    = failure.New(failure.KindForbidden, "admin access required")
)

// RequireUser fails with ErrNotAuthenticated for a nil principal.
func RequireUser(p *Principal) error {
	if p == nil || p.UserID <= 0 {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin fails unless p is an authenticated administrator.
func RequireAdmin(p *Principal) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
