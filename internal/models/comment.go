package models

import "time"

// Comment moderation states. A comment is born pending and can only be
// promoted to approved by an admin; there is no reject state, deletion
// is the only negative outcome.
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
)

// Comment represents a reader comment awaiting or past moderation.
type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	PostID     string    `json:"postId"`
	PostTitle  string    `json:"postTitle,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}
