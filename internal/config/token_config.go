package config

import (
	"errors"
	"time"
)

const (
	jwtSecretEnvVar       = "JWT_SECRET"
	accessTokenTTLEnvVar  = "ACCESS_TOKEN_TTL"
	refreshTokenTTLEnvVar = "REFRESH_TOKEN_TTL"
	sweepIntervalEnvVar   = "SWEEP_INTERVAL"

	// MinSecretLength is the smallest accepted HS256 secret, 256 bits.
	MinSecretLength = 32
)

var (
	ErrWeakSecret        = errors.New("jwt secret must be at least 32 bytes")
	ErrInvalidAccessTTL  = errors.New("access token ttl must be positive")
	ErrInvalidSweepCycle = errors.New("sweep interval must be positive")
)

type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetSweepInterval() time.Duration
}

type Tokens struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

var _ TokenConfig = Tokens{}

func defaultTokens() Tokens {
	return Tokens{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		SweepInterval:   time.Hour,
	}
}

func (t *Tokens) applyEnv() error {
	var err error
	t.JWTSecret = GetEnv(jwtSecretEnvVar, t.JWTSecret)
	if t.AccessTokenTTL, err = getEnvDuration(accessTokenTTLEnvVar, t.AccessTokenTTL); err != nil {
		return err
	}
	if t.RefreshTokenTTL, err = getEnvDuration(refreshTokenTTLEnvVar, t.RefreshTokenTTL); err != nil {
		return err
	}
	if t.SweepInterval, err = getEnvDuration(sweepIntervalEnvVar, t.SweepInterval); err != nil {
		return err
	}
	return nil
}

// A negative refresh ttl is accepted: it issues tokens that are already expired.
func (t Tokens) validate() error {
	if len(t.JWTSecret) < MinSecretLength {
		return ErrWeakSecret
	}
	if t.AccessTokenTTL <= 0 {
		return ErrInvalidAccessTTL
	}
	if t.SweepInterval <= 0 {
		return ErrInvalidSweepCycle
	}
	return nil
}

func (t Tokens) GetJWTSecret() string {
	return t.JWTSecret
}

func (t Tokens) GetAccessTokenTTL() time.Duration {
	return t.AccessTokenTTL
}

func (t Tokens) GetRefreshTokenTTL() time.Duration {
	return t.RefreshTokenTTL
}

func (t Tokens) GetSweepInterval() time.Duration {
	return t.SweepInterval
}
