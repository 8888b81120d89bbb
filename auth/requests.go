package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jrsteele09/bookstore-auth/users"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(users.MinPasswordLength, 0)),
	))
}

// RegisterRequest creates a customer account. Phone and Address are optional.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(users.MinPasswordLength, 72)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
		validation.Field(&r.Address, validation.Length(0, 255)),
	))
}

// RefreshRequest carries the refresh token for /refresh and /logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for field, fe := range fieldErrs {
		ve.Fields[field] = fe.Error()
	}
	return ve
}
