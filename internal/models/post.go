package models

import "time"

// Post represents a published blog article. Posts are immutable once
// published; AuthorID is nullable because authored posts outlive a
// deleted account.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    *string   `json:"authorId,omitempty"`
	AuthorName  string    `json:"authorName,omitempty"`
	CategoryID  string    `json:"categoryId"`
	PublishedAt time.Time `json:"publishedAt"`
	PictureURL  string    `json:"pictureUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Category groups posts; it carries no workflow logic.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
