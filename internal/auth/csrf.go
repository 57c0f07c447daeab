package auth

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const csrfTTL = time.Hour

// Token actions. The intention persisted with a token is the action
// name concatenated with the target entity id.
const (
	ActionApprove      = "approve"
	ActionDelete       = "delete"
	ActionToggle       = "toggle"
	ActionToggleActive = "toggle_active"
)

// CSRFManager issues and verifies per-action, per-entity form tokens.
// A token is bound to the session that rendered the form and to an
// intention string such as "approve" + commentID, and is single-use.
type CSRFManager struct {
	db *sql.DB
}

// NewCSRFManager creates a new CSRFManager.
func NewCSRFManager(db *sql.DB) *CSRFManager {
	return &CSRFManager{db: db}
}

// Issue mints a token for the given action on the given entity, scoped
// to the rendering session. Called at view render time.
func (m *CSRFManager) Issue(sessionID, action, entityID string) (string, error) {
	token := uuid.New().String()
	_, err := m.db.Exec(
		"INSERT INTO csrf_tokens (token, session_id, intention, expires_at) VALUES (?, ?, ?, ?)",
		token, sessionID, action+entityID, time.Now().UTC().Add(csrfTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Verify checks a submitted token against the session and intention it
// was issued for, consuming it on success. Any mismatch, reuse or
// expiry yields false; the caller decides what a failed check means
// (mutation handlers treat it as a silent no-op).
func (m *CSRFManager) Verify(sessionID, action, entityID, token string) bool {
	if token == "" {
		return false
	}
	res, err := m.db.Exec(
		"DELETE FROM csrf_tokens WHERE token = ? AND session_id = ? AND intention = ? AND expires_at > ?",
		token, sessionID, action+entityID, time.Now().UTC(),
	)
	if err != nil {
		log.Error().Err(err).Msg("CSRF verification query failed")
		return false
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false
	}
	return affected == 1
}

// PurgeExpired removes tokens past their expiry; called by the janitor.
func (m *CSRFManager) PurgeExpired() (int64, error) {
	res, err := m.db.Exec("DELETE FROM csrf_tokens WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
