package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleOwner UserRole = "owner"
	RoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool { return r == RoleOwner || r == RoleAdmin }

// NormalizeEmail lower-cases and trims an email used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRoleData is a stored role assignment keyed by email.
type UserRoleData struct {
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// StaffUser is a login account of a studio staff member.
type StaffUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
