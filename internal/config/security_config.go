package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCostEnvVar    = "BCRYPT_COST"
	adminEmailEnvVar    = "ADMIN_EMAIL"
	adminPasswordEnvVar = "ADMIN_PASSWORD"
)

type SecurityConfig interface {
	GetBcryptCost() int
	GetAdminEmail() string
	GetAdminPassword() string
}

type Security struct {
	BcryptCost    int    `yaml:"bcrypt_cost"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

var _ SecurityConfig = Security{}

func defaultSecurity() Security {
	return Security{BcryptCost: bcrypt.DefaultCost}
}

func (s *Security) applyEnv() error {
	var err error
	if s.BcryptCost, err = getEnvInt(bcryptCostEnvVar, s.BcryptCost); err != nil {
		return err
	}
	s.AdminEmail = GetEnv(adminEmailEnvVar, s.AdminEmail)
	s.AdminPassword = GetEnv(adminPasswordEnvVar, s.AdminPassword)
	return nil
}

func (s Security) validate() error {
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d outside [%d, %d]", s.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (s Security) GetBcryptCost() int {
	return s.BcryptCost
}

func (s Security) GetAdminEmail() string {
	return s.AdminEmail
}

func (s Security) GetAdminPassword() string {
	return s.AdminPassword
}
