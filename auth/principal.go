package auth

import (
	"context"

	"github.com/jrsteele09/bookstore-auth/users"
)

// Principal is the verified caller behind an access token
type Principal struct {
	UserID string     `json:"id"`
	Email  string     `json:"email"`
	Name   string     `json:"name,omitempty"`
	Role   users.Role `json:"role"`
}

// HasRole reports whether the principal holds any of roles
func (p Principal) HasRole(roles ...users.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// RequireRole returns ErrForbidden unless p holds one of roles
func RequireRole(p Principal, roles ...users.Role) error {
	if !p.HasRole(roles...) {
		return ErrForbidden
	}
	return nil
}

type principalKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
