package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plumeworks/plume-be/internal/models"
)

// CommentServiceProvider defines the interface for the comment
// moderation workflow.
type CommentServiceProvider interface {
	SubmitComment(postID string, author models.User, content string) (models.Comment, error)
	GetCommentByID(id string) (models.Comment, error)
	GetPendingComments() ([]models.Comment, error)
	GetApprovedCommentsByPost(postID string) ([]models.Comment, error)
	ApproveComment(id string) (models.Comment, error)
	DeleteComment(id string) error
}

// CommentService provides business logic for comment moderation.
type CommentService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, events EventServiceProvider) *CommentService {
	return &CommentService{db: db, events: events}
}

const commentColumns = `c.id, c.content, c.author_id, u.first_name || ' ' || u.last_name,
	c.post_id, p.title, c.status, c.created_at`

const commentJoins = `FROM comments c
	JOIN users u ON u.id = c.author_id
	JOIN posts p ON p.id = c.post_id`

// scanComment is a helper to scan a comment joined with its author and post.
func scanComment(scanner interface{ Scan(...any) error }) (models.Comment, error) {
	var comment models.Comment
	err := scanner.Scan(
		&comment.ID, &comment.Content, &comment.AuthorID, &comment.AuthorName,
		&comment.PostID, &comment.PostTitle, &comment.Status, &comment.CreatedAt,
	)
	return comment, err
}

// SubmitComment creates a new comment in the pending state, awaiting
// admin review. The author must carry the baseline user role and the
// post must exist.
func (s *CommentService) SubmitComment(postID string, author models.User, content string) (models.Comment, error) {
	if !author.HasRole(models.RoleUser) {
		return models.Comment{}, fmt.Errorf("submit comment: %w", ErrForbidden)
	}
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, fmt.Errorf("comment content is required: %w", ErrValidation)
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM posts WHERE id = ?", postID).Scan(&exists); err != nil {
		return models.Comment{}, err
	}
	if exists == 0 {
		return models.Comment{}, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	comment := models.Comment{
		ID:        uuid.New().String(),
		Content:   strings.TrimSpace(content),
		AuthorID:  author.ID,
		PostID:    postID,
		Status:    models.CommentPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO comments (id, content, author_id, post_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		comment.ID, comment.Content, comment.AuthorID, comment.PostID, comment.Status, comment.CreatedAt,
	)
	if err != nil {
		return models.Comment{}, err
	}

	s.events.Record("comment.submitted", "info",
		fmt.Sprintf("%s commented, awaiting review", author.Email), &author.ID, &comment.ID)
	return comment, nil
}

// GetCommentByID retrieves a single comment.
func (s *CommentService) GetCommentByID(id string) (models.Comment, error) {
	row := s.db.QueryRow("SELECT "+commentColumns+" "+commentJoins+" WHERE c.id = ?", id)
	comment, err := scanComment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Comment{}, fmt.Errorf("comment %s: %w", id, ErrNotFound)
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// GetPendingComments retrieves the moderation queue, most recent first.
func (s *CommentService) GetPendingComments() ([]models.Comment, error) {
	return s.queryComments("SELECT "+commentColumns+" "+commentJoins+
		" WHERE c.status = ? ORDER BY c.created_at DESC", models.CommentPending)
}

// GetApprovedCommentsByPost retrieves the publicly visible comments of
// a post, most recent first.
func (s *CommentService) GetApprovedCommentsByPost(postID string) ([]models.Comment, error) {
	return s.queryComments("SELECT "+commentColumns+" "+commentJoins+
		" WHERE c.post_id = ? AND c.status = ? ORDER BY c.created_at DESC", postID, models.CommentApproved)
}

// ApproveComment promotes a pending comment to approved. Approving an
// already approved comment is a harmless repeat.
func (s *CommentService) ApproveComment(id string) (models.Comment, error) {
	comment, err := s.GetCommentByID(id)
	if err != nil {
		return models.Comment{}, err
	}

	if _, err := s.db.Exec("UPDATE comments SET status = ? WHERE id = ?", models.CommentApproved, id); err != nil {
		return models.Comment{}, err
	}
	comment.Status = models.CommentApproved

	s.events.Record("comment.approved", "info",
		fmt.Sprintf("Comment on %q approved", comment.PostTitle), nil, &comment.ID)
	return comment, nil
}

// DeleteComment removes a comment at any moderation state.
func (s *CommentService) DeleteComment(id string) error {
	comment, err := s.GetCommentByID(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM comments WHERE id = ?", id); err != nil {
		return err
	}

	s.events.Record("comment.deleted", "info",
		fmt.Sprintf("Comment on %q deleted", comment.PostTitle), nil, &id)
	return nil
}

func (s *CommentService) queryComments(query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
