package users

import (
	"strings"
	"time"
)

// Role is the closed set of principal kinds the store knows about
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff is true for employees, admins included
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// CustomerProfile holds the fields only customers carry
type CustomerProfile struct {
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// StaffProfile holds the fields only employees carry
type StaffProfile struct {
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
}

type User struct {
	ID           string     `json:"id,omitempty"`         // Unique identifier for the user
	Email        string     `json:"email,omitempty"`      // Login name, stored lower case
	PasswordHash string     `json:"-"`                    // Never serialize
	Name         string     `json:"name,omitempty"`       // Display name
	Role         Role       `json:"role,omitempty"`       // CUSTOMER, STAFF or ADMIN
	Blocked      bool       `json:"blocked,omitempty"`    // Blocked from logging in
	CreatedAt    time.Time  `json:"created_at,omitempty"` // Registration time
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"` // Soft deletion marker

	Customer *CustomerProfile `json:"customer,omitempty"`
	Staff    *StaffProfile    `json:"staff,omitempty"`
}

// IsUsable reports whether the account may authenticate: not blocked and not
// soft-deleted.
func (u *User) IsUsable() bool {
	return u != nil && !u.Blocked && u.DeletedAt == nil
}

// NormaliseEmail is the canonical form used for storage and lookups
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
