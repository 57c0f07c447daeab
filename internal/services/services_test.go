package services

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/plumeworks/plume-be/internal/database"
	"github.com/plumeworks/plume-be/internal/models"
)

// newTestDB opens a migrated sqlite database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func insertUser(t *testing.T, db *sql.DB, email string, roles []string, active bool) models.User {
	t.Helper()
	rolesJSON, err := json.Marshal(roles)
	require.NoError(t, err)

	user := models.User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Roles:     roles,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	isActive := 0
	if active {
		isActive = 1
	}
	_, err = db.Exec(
		"INSERT INTO users (id, email, first_name, last_name, password_hash, roles_json, is_active, created_at) VALUES (?, ?, ?, ?, 'x', ?, ?, ?)",
		user.ID, user.Email, user.FirstName, user.LastName, string(rolesJSON), isActive, user.CreatedAt,
	)
	require.NoError(t, err)
	return user
}

func insertCategory(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec("INSERT INTO categories (id, name, description) VALUES (?, ?, '')", id, name)
	require.NoError(t, err)
	return id
}

func insertPost(t *testing.T, db *sql.DB, authorID, categoryID, title string, publishedAt time.Time) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(
		"INSERT INTO posts (id, title, content, author_id, category_id, published_at, created_at) VALUES (?, ?, 'body', ?, ?, ?, ?)",
		id, title, authorID, categoryID, publishedAt, publishedAt,
	)
	require.NoError(t, err)
	return id
}
