package models

import "time"

// Event represents an auditable action in the system, e.g. a comment
// approval or an account toggle. Events feed the admin moderation feed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "comment.approved", "user.deactivated"
	Level     string    `json:"level"` // e.g. "info", "warn"
	Message   string    `json:"message"`
	ActorID   *string   `json:"actorId,omitempty"`  // Nullable for system events
	EntityID  *string   `json:"entityId,omitempty"` // The comment/user acted upon
	CreatedAt time.Time `json:"createdAt"`
}
