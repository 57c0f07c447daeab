package models

import "time"

// Session represents a server-side login session. The browser only
// holds a signed token referencing the session id; the row is the
// source of truth for expiry and revocation.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}
