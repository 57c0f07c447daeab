package api

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeworks/plume-be/internal/auth"
	"github.com/plumeworks/plume-be/internal/database"
	"github.com/plumeworks/plume-be/internal/services"
	"github.com/plumeworks/plume-be/internal/web"
	ws "github.com/plumeworks/plume-be/internal/websocket"
)

type testApp struct {
	db     *sql.DB
	router http.Handler
	csrf   *auth.CSRFManager

	adminID string
	userID  string
	postID  string
}

const (
	adminEmail = "admin@example.com"
	userEmail  = "user@example.com"
	password   = "secret123"
)

// newTestApp wires the full application over a temp database with one
// admin, one regular user and one published post.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	events := services.NewEventService(db, nil)
	users := services.NewUserService(db, events)
	posts := services.NewPostService(db)
	comments := services.NewCommentService(db, events)
	sessions := auth.NewSessionManager(db, users, "test-secret", false)
	csrf := auth.NewCSRFManager(db)

	render, err := web.NewRenderer()
	require.NoError(t, err)

	app := &testApp{
		db:     db,
		router: NewRouter(render, sessions, csrf, users, posts, comments, events, ws.NewHub()),
		csrf:   csrf,
	}

	admin, err := users.CreateUser(adminEmail, "Admin", "User", password)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE users SET roles_json = '["ROLE_USER","ROLE_ADMIN"]' WHERE id = ?`, admin.ID)
	require.NoError(t, err)
	app.adminID = admin.ID

	user, err := users.CreateUser(userEmail, "John", "Doe", password)
	require.NoError(t, err)
	app.userID = user.ID

	categoryID := uuid.New().String()
	_, err = db.Exec("INSERT INTO categories (id, name, description) VALUES (?, 'Tech', '')", categoryID)
	require.NoError(t, err)

	app.postID = uuid.New().String()
	_, err = db.Exec(
		"INSERT INTO posts (id, title, content, author_id, category_id, published_at, created_at) VALUES (?, 'First post', 'body', ?, ?, ?, ?)",
		app.postID, user.ID, categoryID, time.Now().UTC(), time.Now().UTC(),
	)
	require.NoError(t, err)

	return app
}

func (app *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// login authenticates through the real endpoint and returns the cookie.
func (app *testApp) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := app.postForm("/login", url.Values{"email": {email}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

// sessionID looks up the session opened for the given account.
func (app *testApp) sessionID(t *testing.T, email string) string {
	t.Helper()
	var id string
	err := app.db.QueryRow(
		"SELECT s.id FROM sessions s JOIN users u ON u.id = s.user_id WHERE u.email = ? AND s.revoked_at IS NULL ORDER BY s.created_at DESC LIMIT 1",
		email,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// token issues a form token under the account's live session, the same
// way a rendered view would.
func (app *testApp) token(t *testing.T, email, action, entityID string) string {
	t.Helper()
	token, err := app.csrf.Issue(app.sessionID(t, email), action, entityID)
	require.NoError(t, err)
	return token
}

func (app *testApp) commentStatus(t *testing.T, id string) string {
	t.Helper()
	var status string
	require.NoError(t, app.db.QueryRow("SELECT status FROM comments WHERE id = ?", id).Scan(&status))
	return status
}

func (app *testApp) submitComment(t *testing.T, cookie *http.Cookie, content string) string {
	t.Helper()
	w := app.postForm("/comments/post/"+app.postID+"/new", url.Values{"content": {content}}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	var id string
	require.NoError(t, app.db.QueryRow("SELECT id FROM comments WHERE content = ?", content).Scan(&id))
	return id
}

func TestHomePage(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Latest posts")
	assert.Contains(t, w.Body.String(), "First post")
}

func TestPostPageNotFound(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/posts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentSubmissionFlow(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)

	// Anonymous visitors are sent to the login page.
	w := app.get("/comments/post/"+app.postID+"/new", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// The form renders for a logged-in user.
	w = app.get("/comments/post/"+app.postID+"/new", userCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// An empty comment re-renders the form with a field error.
	w = app.postForm("/comments/post/"+app.postID+"/new", url.Values{"content": {"  "}}, userCookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "cannot be empty")

	// A valid submission lands pending and redirects to the post.
	commentID := app.submitComment(t, userCookie, "waiting for review")
	assert.Equal(t, "pending", app.commentStatus(t, commentID))

	// Pending comments are not publicly visible.
	w = app.get("/posts/"+app.postID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "waiting for review")

	// Submitting against an unknown post is a 404.
	w = app.postForm("/comments/post/missing/new", url.Values{"content": {"x"}}, userCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationQueueAccess(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/comments/admin", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	userCookie := app.login(t, userEmail)
	w = app.get("/comments/admin", userCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminCookie := app.login(t, adminEmail)
	w = app.get("/comments/admin", adminCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pending comments")
}

func TestApproveRequiresValidToken(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)
	adminCookie := app.login(t, adminEmail)
	commentID := app.submitComment(t, userCookie, "approve me")

	// Invalid token: the redirect still happens but nothing changes.
	w := app.postForm("/comments/"+commentID+"/approve", url.Values{"_token": {"bogus"}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/comments/admin", w.Header().Get("Location"))
	assert.Equal(t, "pending", app.commentStatus(t, commentID))

	// Missing token: same silent shape.
	w = app.postForm("/comments/"+commentID+"/approve", url.Values{}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "pending", app.commentStatus(t, commentID))

	// Valid token approves.
	token := app.token(t, adminEmail, auth.ActionApprove, commentID)
	w = app.postForm("/comments/"+commentID+"/approve", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "approved", app.commentStatus(t, commentID))

	// Repeating the call with a fresh token is idempotent.
	token = app.token(t, adminEmail, auth.ActionApprove, commentID)
	w = app.postForm("/comments/"+commentID+"/approve", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "approved", app.commentStatus(t, commentID))

	// The approved comment is publicly visible now.
	w = app.get("/posts/"+app.postID, nil)
	assert.Contains(t, w.Body.String(), "approve me")

	// Approving an unknown comment is a 404.
	w = app.postForm("/comments/missing/approve", url.Values{"_token": {"x"}}, adminCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCommentTokenDiscipline(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)
	adminCookie := app.login(t, adminEmail)
	commentID := app.submitComment(t, userCookie, "delete me")

	// A token minted for approve must not authorize delete.
	wrongAction := app.token(t, adminEmail, auth.ActionApprove, commentID)
	w := app.postForm("/comments/"+commentID, url.Values{"_token": {wrongAction}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/posts/"+app.postID, w.Header().Get("Location"))
	assert.Equal(t, "pending", app.commentStatus(t, commentID))

	token := app.token(t, adminEmail, auth.ActionDelete, commentID)
	w = app.postForm("/comments/"+commentID, url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	var count int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM comments WHERE id = ?", commentID).Scan(&count))
	assert.Zero(t, count)
}

func TestAdminUserWorkflow(t *testing.T) {
	app := newTestApp(t)
	adminCookie := app.login(t, adminEmail)

	// The list renders with the seeded accounts.
	w := app.get("/admin/users", adminCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userEmail)

	w = app.get("/admin/users/"+app.userID, adminCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "John Doe")

	// Toggling the admin role twice returns the roles to the original set.
	token := app.token(t, adminEmail, auth.ActionToggle, app.userID)
	w = app.postForm("/admin/users/"+app.userID+"/toggle-admin", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/users", w.Header().Get("Location"))

	var rolesJSON string
	require.NoError(t, app.db.QueryRow("SELECT roles_json FROM users WHERE id = ?", app.userID).Scan(&rolesJSON))
	assert.Contains(t, rolesJSON, "ROLE_ADMIN")

	token = app.token(t, adminEmail, auth.ActionToggle, app.userID)
	w = app.postForm("/admin/users/"+app.userID+"/toggle-admin", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NoError(t, app.db.QueryRow("SELECT roles_json FROM users WHERE id = ?", app.userID).Scan(&rolesJSON))
	assert.NotContains(t, rolesJSON, "ROLE_ADMIN")

	// An invalid token changes nothing.
	w = app.postForm("/admin/users/"+app.userID+"/toggle-admin", url.Values{"_token": {"bogus"}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NoError(t, app.db.QueryRow("SELECT roles_json FROM users WHERE id = ?", app.userID).Scan(&rolesJSON))
	assert.NotContains(t, rolesJSON, "ROLE_ADMIN")

	// Unknown account ids are a 404.
	w = app.postForm("/admin/users/missing/toggle-admin", url.Values{"_token": {"x"}}, adminCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNonAdminCannotToggle(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)

	w := app.postForm("/admin/users/"+app.adminID+"/toggle-admin", url.Values{"_token": {"x"}}, userCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var rolesJSON string
	require.NoError(t, app.db.QueryRow("SELECT roles_json FROM users WHERE id = ?", app.adminID).Scan(&rolesJSON))
	assert.Contains(t, rolesJSON, "ROLE_ADMIN")
}

func TestDeactivationLocksOutMidSession(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)
	adminCookie := app.login(t, adminEmail)

	// The user can reach the comment form while active.
	w := app.get("/comments/post/"+app.postID+"/new", userCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	token := app.token(t, adminEmail, auth.ActionToggleActive, app.userID)
	w = app.postForm("/admin/users/"+app.userID+"/toggle-active", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	// The still-valid cookie no longer authenticates.
	w = app.get("/comments/post/"+app.postID+"/new", userCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestDeleteUserWithAuthoredContent(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)
	adminCookie := app.login(t, adminEmail)
	commentID := app.submitComment(t, userCookie, "soon orphaned")

	token := app.token(t, adminEmail, auth.ActionDelete, app.userID)
	w := app.postForm("/admin/users/"+app.userID+"/delete", url.Values{"_token": {token}}, adminCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	var count int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", app.userID).Scan(&count))
	assert.Zero(t, count, "account removed")

	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM comments WHERE id = ?", commentID).Scan(&count))
	assert.Zero(t, count, "authored comments removed")

	var authorID sql.NullString
	require.NoError(t, app.db.QueryRow("SELECT author_id FROM posts WHERE id = ?", app.postID).Scan(&authorID))
	assert.False(t, authorID.Valid, "authored posts survive without an author")

	// The post still renders publicly.
	w = app.get("/posts/"+app.postID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First post")
}

func TestRegistrationFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/register", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	form := url.Values{
		"email":     {"fresh@example.com"},
		"firstName": {"Fresh"},
		"lastName":  {"Face"},
		"password":  {password},
	}
	w = app.postForm("/register", form, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// Duplicate email re-renders the form.
	w = app.postForm("/register", form, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// The new account can log in.
	w = app.postForm("/login", url.Values{"email": {"fresh@example.com"}, "password": {password}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	userCookie := app.login(t, userEmail)

	w := app.postForm("/logout", url.Values{}, userCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	// The old cookie no longer authenticates.
	w = app.get("/comments/post/"+app.postID+"/new", userCookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}
