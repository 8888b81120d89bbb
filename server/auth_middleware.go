package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/bookstore-auth/auth"
	"github.com/jrsteele09/bookstore-auth/users"
)

// RequireAuth is middleware that validates a Bearer access token and puts the
// resolved auth.Principal on the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Extract Bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Invalid Authorization header format")
				return
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Empty token")
				return
			}

			principal, err := s.auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired access token")
					return
				}
				s.writeServiceError(w, r, err)
				return
			}

			next(w, r.WithContext(auth.NewContext(r.Context(), *principal)))
		}
	}
}

// RequireRole rejects callers whose role is not in roles. It must run after
// RequireAuth.
func (s *Server) RequireRole(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
				return
			}
			if err := auth.RequireRole(principal, roles...); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			next(w, r)
		}
	}
}
