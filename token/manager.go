package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid access token")

// Verification is the outcome of checking an access token. Valid is false
// for anything that is not a well formed, correctly signed, unexpired token;
// the other fields are only set when Valid is true.
type Verification struct {
	Valid     bool
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and checks stateless access tokens. Tokens carry the
// subject (the user's email) and nothing about roles; authorization data is
// looked up when the token is used.
type Manager struct {
	signer            Signer
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer: signer,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// AccessTokenExpiry is the lifetime given to newly issued tokens
func (c *Manager) AccessTokenExpiry() time.Duration {
	return c.accessTokenExpiry
}

// Issue signs a new access token for subject
func (c *Manager) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("Manager.Issue empty subject")
	}

	now := c.nowFunc()
	claims := jwt.MapClaims{
		"sub": subject,                             // The subject, the user's email
		"iat": now.Unix(),                          // Issued At
		"exp": now.Add(c.accessTokenExpiry).Unix(), // Expiry
		"jti": uuid.New().String(),                 // Unique token ID
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.Issue Sign")
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. It never returns an error:
// every failure is reported as an invalid token.
func (c *Manager) Verify(rawToken string) Verification {
	if strings.TrimSpace(rawToken) == "" {
		return Verification{}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.Parse(rawToken, c.signer.GetVerificationKey)
	if err != nil || !token.Valid {
		return Verification{}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Verification{}
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Verification{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Verification{}
	}

	v := Verification{
		Valid:     true,
		Subject:   sub,
		ExpiresAt: exp.Time,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		v.IssuedAt = iat.Time
	}
	if jti, ok := claims["jti"].(string); ok {
		v.ID = jti
	}
	return v
}

// SubjectOf validates rawToken and returns its subject
func (c *Manager) SubjectOf(rawToken string) (string, error) {
	v := c.Verify(rawToken)
	if !v.Valid {
		return "", ErrInvalidToken
	}
	return v.Subject, nil
}
