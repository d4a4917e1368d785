package models

import (
	"time"
)

// Role represents a user role in the marketplace.
type Role string

const (
	RoleCreator Role = "creator"
	RoleStudent Role = "student"
)

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	return s == string(RoleCreator) || s == string(RoleStudent)
}

// User is the identity snapshot the platform API returns. Role is immutable for a
// given user id.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
