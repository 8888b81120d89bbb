package auth

import (
	"errors"
	"sort"
	"strings"
)

// Expected outcomes of the auth flows. Callers branch on them with errors.Is;
// anything else returned by the service is an infrastructure fault.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAlreadyExists       = errors.New("email is already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired, please sign in again")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("access denied")
)

// ValidationError lists the offending request fields keyed by their JSON name.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
