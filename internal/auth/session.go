package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plumeworks/plume-be/internal/models"
)

// CookieName is the name of the session cookie.
const CookieName = "plume_session"

const sessionTTL = 24 * time.Hour

// UserFinder is the slice of the identity store the guard needs to
// refresh the principal on every request.
type UserFinder interface {
	GetUserByID(id string) (models.User, error)
}

// Principal is the authenticated identity of the current request,
// freshly loaded from the identity store.
type Principal struct {
	User      models.User
	SessionID string
}

// HasRole reports whether the principal carries the given role tag.
func (p *Principal) HasRole(role string) bool {
	return p != nil && p.User.HasRole(role)
}

type contextKey string

const principalKey = contextKey("principal")

// PrincipalFrom extracts the authenticated principal from a request
// context. ok is false for anonymous requests.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Claims defines the JWT claims carried by the session cookie. The
// cookie only references the server-side session row; expiry and
// revocation live in the database.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionManager issues, validates and revokes login sessions.
type SessionManager struct {
	db     *sql.DB
	users  UserFinder
	secret []byte
	secure bool
}

// NewSessionManager creates a new SessionManager. secure controls the
// cookie's Secure flag and should be on in production.
func NewSessionManager(db *sql.DB, users UserFinder, secret string, secure bool) *SessionManager {
	return &SessionManager{db: db, users: users, secret: []byte(secret), secure: secure}
}

// Login creates a session row for the user and sets the signed session
// cookie on the response.
func (m *SessionManager) Login(w http.ResponseWriter, userID string) error {
	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(sessionTTL),
	}
	_, err := m.db.Exec(
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return err
	}

	claims := &Claims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	return nil
}

// Logout revokes the request's session row and clears the cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := PrincipalFrom(r.Context()); ok {
		if _, err := m.db.Exec("UPDATE sessions SET revoked_at = ? WHERE id = ?", time.Now().UTC(), p.SessionID); err != nil {
			log.Error().Err(err).Str("session_id", p.SessionID).Msg("Failed to revoke session")
		}
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Path: "/", MaxAge: -1})
}

// resolve turns the request's cookie into a live principal. The user
// row is re-read on every request so role and activation changes take
// effect immediately, mid-session.
func (m *SessionManager) resolve(r *http.Request) (*Principal, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	var session models.Session
	row := m.db.QueryRow("SELECT id, user_id, expires_at, revoked_at FROM sessions WHERE id = ?", claims.SessionID)
	if err := row.Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.RevokedAt); err != nil {
		return nil, err
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		return nil, fmt.Errorf("session expired or revoked")
	}

	user, err := m.users.GetUserByID(session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account deactivated")
	}

	user.PasswordHash = ""
	return &Principal{User: user, SessionID: session.ID}, nil
}

// Middleware attaches the principal to the request context when the
// session resolves. Anonymous and stale sessions pass through without
// one; route guards decide what that means per route.
func (m *SessionManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := m.resolve(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route subtree: anonymous requests are redirected
// to the login page, authenticated requests without the role get 403.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !principal.HasRole(role) {
				log.Warn().Str("user_id", principal.User.ID).Str("role", role).
					Str("path", r.URL.Path).Msg("Role check failed")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
