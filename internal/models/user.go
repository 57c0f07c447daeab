package models

import (
	"slices"
	"time"
)

// Role tags assigned to user accounts. Every persisted user carries
// RoleUser as a baseline; RoleAdmin is granted and revoked by admins.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents a user account in the system.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	PasswordHash      string    `json:"-"` // Never expose this to the client
	Roles             []string  `json:"roles"`
	IsActive          bool      `json:"isActive"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// HasRole reports whether the user carries the given role tag.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// FullName returns the display name used in views.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
