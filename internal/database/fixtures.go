package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plumeworks/plume-be/internal/models"
)

// Seed loads the demo data set: one admin, one regular user, five
// categories, ten posts and two approved comments per post. It is a
// no-op when a user row already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin, err := seedUser(db, "admin@example.com", "Admin", "User", "admin123", []string{models.RoleUser, models.RoleAdmin})
	if err != nil {
		return err
	}
	user, err := seedUser(db, "user@example.com", "John", "Doe", "user123", []string{models.RoleUser})
	if err != nil {
		return err
	}

	categoryNames := []string{"Technology", "Lifestyle", "Programming", "Web Development", "Design"}
	categoryIDs := make([]string, 0, len(categoryNames))
	for _, name := range categoryNames {
		id := uuid.New().String()
		_, err := db.Exec("INSERT INTO categories (id, name, description) VALUES (?, ?, ?)",
			id, name, fmt.Sprintf("Articles about %s", name))
		if err != nil {
			return err
		}
		categoryIDs = append(categoryIDs, id)
	}

	postTitles := []string{
		"Getting Started with Go Web Services",
		"Bootstrap 5 Best Practices",
		"Understanding MVC Architecture",
		"Database Design Principles",
		"Frontend vs Backend Development",
		"Security Best Practices in Web Development",
		"Introduction to Docker",
		"API Design Patterns",
		"Testing Web Applications",
		"Performance Optimization Tips",
	}
	postContents := []string{
		"Go makes it straightforward to build small, reliable web services. In this article we walk through a first project.",
		"Bootstrap 5 is a popular CSS framework that makes responsive design easier. Learn about its new features.",
		"The MVC architecture is a fundamental pattern in web development. Let's dive into how it works and why it matters.",
		"Good database design is crucial for application performance. We discuss key principles and best practices.",
		"Frontend and backend development are both crucial parts of web development. Let's explore the differences.",
		"Security should be a top priority in any web application. Learn about common vulnerabilities and how to defend.",
		"Docker is a containerization platform that makes deployment easier. Get started with containerizing applications.",
		"A well-designed API is essential for modern web applications. Learn about REST principles and versioning.",
		"Testing is crucial for maintaining code quality. Discover approaches for writing effective tests.",
		"Performance optimization can significantly impact user experience. Learn about profiling and caching.",
	}

	now := time.Now().UTC()
	for i := range postTitles {
		postID := uuid.New().String()
		_, err := db.Exec(
			"INSERT INTO posts (id, title, content, author_id, category_id, published_at, picture_url) VALUES (?, ?, ?, ?, ?, ?, ?)",
			postID, postTitles[i], postContents[i], admin,
			categoryIDs[i%len(categoryIDs)],
			now.AddDate(0, 0, -i),
			"https://via.placeholder.com/500x300?text="+url.QueryEscape(postTitles[i]),
		)
		if err != nil {
			return err
		}

		for j := 0; j < 2; j++ {
			authorID := admin
			if j%2 == 1 {
				authorID = user
			}
			_, err := db.Exec(
				"INSERT INTO comments (id, content, author_id, post_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
				uuid.New().String(),
				"Great article! I really enjoyed reading this and learned a lot.",
				authorID, postID, models.CommentApproved,
				now.Add(-time.Duration(i+j)*time.Hour),
			)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func seedUser(db *sql.DB, email, firstName, lastName, password string, roles []string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = db.Exec(
		"INSERT INTO users (id, email, first_name, last_name, password_hash, roles_json, is_active) VALUES (?, ?, ?, ?, ?, ?, 1)",
		id, email, firstName, lastName, string(hash), string(rolesJSON),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}
