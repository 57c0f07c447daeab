package monitoring

import (
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Janitor periodically purges expired or revoked sessions and expired
// CSRF tokens on a cron schedule.
type Janitor struct {
	db       *sql.DB
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
}

// NewJanitor creates a janitor from a standard cron expression.
func NewJanitor(db *sql.DB, cronExpr string) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Janitor{
		db:       db,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Msg("Starting session/token janitor...")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	// Run once immediately on start
	j.purge()
	next := j.schedule.Next(time.Now())

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping session/token janitor.")
			return
		case now := <-j.ticker.C:
			if now.After(next) {
				j.purge()
				next = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

// purge deletes rows that can no longer authenticate anything.
func (j *Janitor) purge() {
	now := time.Now().UTC()

	sessions, err := j.db.Exec("DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL", now)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge sessions")
		return
	}
	tokens, err := j.db.Exec("DELETE FROM csrf_tokens WHERE expires_at <= ?", now)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge CSRF tokens")
		return
	}

	sessionCount, _ := sessions.RowsAffected()
	tokenCount, _ := tokens.RowsAffected()
	if sessionCount > 0 || tokenCount > 0 {
		log.Debug().Int64("sessions", sessionCount).Int64("tokens", tokenCount).Msg("Janitor purged stale rows")
	}
}
