package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plumeworks/plume-be/internal/models"
)

// Broadcaster pushes an event to connected moderation dashboards. The
// websocket hub implements it; tests pass nil.
type Broadcaster interface {
	BroadcastEvent(event models.Event)
}

// EventServiceProvider defines the interface for the audit trail.
type EventServiceProvider interface {
	Record(eventType, level, message string, actorID, entityID *string) error
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records audit events and fans them out to the
// moderation feed.
type EventService struct {
	db  *sql.DB
	hub Broadcaster
}

// NewEventService creates a new EventService. hub may be nil when no
// live feed is wanted.
func NewEventService(db *sql.DB, hub Broadcaster) *EventService {
	return &EventService{db: db, hub: hub}
}

// Record persists a new audit event and broadcasts it. A failed audit
// write is logged but never fails the workflow that caused it.
func (s *EventService) Record(eventType, level, message string, actorID, entityID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ActorID:   actorID,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO events (id, type, level, message, actor_id, entity_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.ActorID, event.EntityID, event.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record audit event")
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent audit events.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, actor_id, entity_id, created_at FROM events ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ActorID, &event.EntityID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
