package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/bookstore-auth/auth"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Error codes returned in ErrorResponse.Error
const (
	codeBadRequest          = "BAD_REQUEST"
	codeValidationFailed    = "VALIDATION_FAILED"
	codeInvalidCredentials  = "INVALID_CREDENTIALS"
	codeAlreadyExists       = "ALREADY_EXISTS"
	codeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	codeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	codeUnauthorized        = "UNAUTHORIZED"
	codeForbidden           = "FORBIDDEN"
	codeInternalError       = "INTERNAL_ERROR"
)

// APIResponse wraps every successful payload
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Path      string            `json:"path"`
	Timestamp time.Time         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, APIResponse{Success: true, Message: message, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeErrorResponse(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Path:    r.URL.Path,
	})
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, status int, resp ErrorResponse) {
	resp.Success = false
	resp.Timestamp = s.nowTime().UTC()
	writeJSON(w, status, resp)
}

// writeServiceError maps auth outcomes to HTTP statuses. Anything unknown is
// an infrastructure fault and its detail is logged, not returned.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{
			Error:   codeValidationFailed,
			Message: auth.ErrValidation.Error(),
			Fields:  ve.Fields,
			Path:    r.URL.Path,
		})
	case errors.Is(err, auth.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, r, http.StatusUnauthorized, codeInvalidCredentials, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		s.writeError(w, r, http.StatusConflict, codeAlreadyExists, auth.ErrAlreadyExists.Error())
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		s.writeError(w, r, http.StatusUnauthorized, codeInvalidRefreshToken, auth.ErrInvalidRefreshToken.Error())
	case errors.Is(err, auth.ErrRefreshTokenExpired):
		s.writeError(w, r, http.StatusUnauthorized, codeRefreshTokenExpired, auth.ErrRefreshTokenExpired.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, auth.ErrUnauthenticated.Error())
	case errors.Is(err, auth.ErrForbidden):
		s.writeError(w, r, http.StatusForbidden, codeForbidden, auth.ErrForbidden.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		s.writeError(w, r, http.StatusInternalServerError, codeInternalError, "An unexpected error occurred")
	}
}
