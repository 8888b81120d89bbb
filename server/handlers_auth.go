package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/bookstore-auth/auth"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// LoginHandler handles POST /api/v1/auth/login
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "Malformed JSON body")
			return
		}
		if err := req.Validate(); err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		resp, err := s.auth.Login(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, "Login successful", resp)
	}
}

// RegisterHandler handles POST /api/v1/auth/register
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "Malformed JSON body")
			return
		}

		resp, err := s.auth.Register(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeSuccess(w, http.StatusCreated, "Registration successful", resp)
	}
}

// RefreshHandler handles POST /api/v1/auth/refresh
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken, ok := s.readRefreshToken(w, r)
		if !ok {
			return
		}

		resp, err := s.auth.Refresh(r.Context(), refreshToken)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, "Token refreshed", resp)
	}
}

// LogoutHandler handles POST /api/v1/auth/logout
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken, ok := s.readRefreshToken(w, r)
		if !ok {
			return
		}

		if err := s.auth.Logout(r.Context(), refreshToken); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, "Logout successful", nil)
	}
}

// MeHandler returns the caller behind the access token
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			s.writeServiceError(w, r, auth.ErrUnauthenticated)
			return
		}
		s.writeSuccess(w, http.StatusOK, "", principal)
	}
}

// StaffPingHandler lets staff clients check their credentials reach staff routes
func (s *Server) StaffPingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		s.writeSuccess(w, http.StatusOK, "pong", map[string]string{"role": string(principal.Role)})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeSuccess(w, http.StatusOK, "ok", nil)
	}
}

// readRefreshToken takes the token from the refreshToken query parameter or
// the JSON body, preferring the query.
func (s *Server) readRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if tok := r.URL.Query().Get(refreshTokenParam); tok != "" {
		return tok, true
	}
	var req auth.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "Malformed JSON body")
		return "", false
	}
	if req.RefreshToken == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Error:   codeValidationFailed,
			Message: auth.ErrValidation.Error(),
			Fields:  map[string]string{refreshTokenParam: "cannot be blank"},
			Path:    r.URL.Path,
		})
		return "", false
	}
	return req.RefreshToken, true
}
