package services

import (
	"database/sql"
	"fmt"

	"github.com/plumeworks/plume-be/internal/models"
)

// PostServiceProvider defines the read interface over published posts
// and their categories. Posts are immutable; there is no edit flow.
type PostServiceProvider interface {
	GetLatestPosts(limit int) ([]models.Post, error)
	GetPostsByCategory(categoryID string) ([]models.Post, error)
	GetPostByID(id string) (models.Post, error)
	GetAllCategories() ([]models.Category, error)
	GetCategoryByID(id string) (models.Category, error)
}

// PostService provides queries over posts and categories.
type PostService struct {
	db *sql.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

const postColumns = `p.id, p.title, p.content, p.author_id,
	COALESCE(u.first_name || ' ' || u.last_name, ''),
	p.category_id, p.published_at, p.picture_url, p.created_at`

// LEFT JOIN: a post keeps rendering after its author's account is deleted.
const postJoins = `FROM posts p LEFT JOIN users u ON u.id = p.author_id`

func scanPost(scanner interface{ Scan(...any) error }) (models.Post, error) {
	var post models.Post
	var picture sql.NullString
	err := scanner.Scan(
		&post.ID, &post.Title, &post.Content, &post.AuthorID, &post.AuthorName,
		&post.CategoryID, &post.PublishedAt, &picture, &post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}
	post.PictureURL = picture.String
	return post, nil
}

// GetLatestPosts retrieves the most recently published posts.
func (s *PostService) GetLatestPosts(limit int) ([]models.Post, error) {
	return s.queryPosts("SELECT "+postColumns+" "+postJoins+
		" ORDER BY p.published_at DESC LIMIT ?", limit)
}

// GetPostsByCategory retrieves the posts of one category, latest first.
func (s *PostService) GetPostsByCategory(categoryID string) ([]models.Post, error) {
	return s.queryPosts("SELECT "+postColumns+" "+postJoins+
		" WHERE p.category_id = ? ORDER BY p.published_at DESC", categoryID)
}

// GetPostByID retrieves a single post.
func (s *PostService) GetPostByID(id string) (models.Post, error) {
	row := s.db.QueryRow("SELECT "+postColumns+" "+postJoins+" WHERE p.id = ?", id)
	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return models.Post{}, err
	}
	return post, nil
}

// GetAllCategories retrieves every category, ordered by name.
func (s *PostService) GetAllCategories() ([]models.Category, error) {
	rows, err := s.db.Query("SELECT id, name, COALESCE(description, '') FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryByID retrieves a single category.
func (s *PostService) GetCategoryByID(id string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRow("SELECT id, name, COALESCE(description, '') FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return models.Category{}, err
	}
	return c, nil
}

func (s *PostService) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
