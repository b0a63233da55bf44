package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
)

// Event is one row of the audit trail: every Lifecycle Engine
// transition records what happened, to what, by whom, and when.
type Event struct {
	EventID    int64
	EntityType string
	EntityID   int64
	EventType  string
	Actor      string
	At         time.Time
	Detail     string
}

// EventStore is the Entity Manager for the audit trail.
type EventStore struct {
	b *broker.Broker
}

func NewEventStore(b *broker.Broker) *EventStore { return &EventStore{b: b} }

// RecordTx appends an audit event, participating in tx. The Lifecycle
// Engine calls this as the last write of every transactional operation,
// so a recorded event is proof the whole operation committed.
func RecordTx(ctx context.Context, tx *sql.Tx, entityType string, entityID int64, eventType, actor, detail string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (entity_type, entity_id, event_type, actor, detail)
		VALUES (?, ?, ?, ?, ?)
	`, entityType, entityID, eventType, actor, detail)
	if err != nil {
		return plmerr.Storage("record event", err)
	}
	return nil
}

func (s *EventStore) ListForEntity(ctx context.Context, entityType string, entityID int64) ([]Event, error) {
	var out []Event
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT event_id, entity_type, entity_id, event_type, actor, at, detail
			FROM events WHERE entity_type = ? AND entity_id = ? ORDER BY event_id
		`, entityType, entityID)
		if err != nil {
			return plmerr.Storage("list events", err)
		}
		defer rows.Close()
		for rows.Next() {
			var e Event
			if err := rows.Scan(&e.EventID, &e.EntityType, &e.EntityID, &e.EventType, &e.Actor, &e.At, &e.Detail); err != nil {
				return plmerr.Storage("scan event", err)
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}
