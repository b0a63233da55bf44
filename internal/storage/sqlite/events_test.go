package sqlite

import (
	"context"
	"database/sql"
	"testing"
)

func TestRecordTxAndListForEntity(t *testing.T) {
	b := newTestBroker(t)
	events := NewEventStore(b)
	ctx := context.Background()

	err := b.Transaction(ctx, func(tx *sql.Tx) error {
		if err := RecordTx(ctx, tx, "part", 10000, "created", "alice", "EL-RES-10000"); err != nil {
			return err
		}
		return RecordTx(ctx, tx, "part", 10000, "submitted_for_review", "alice", "")
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	list, err := events.ListForEntity(ctx, "part", 10000)
	if err != nil {
		t.Fatalf("ListForEntity: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(list), list)
	}
	if list[0].EventType != "created" || list[1].EventType != "submitted_for_review" {
		t.Fatalf("expected events in insertion order, got %+v", list)
	}
	if list[0].Actor != "alice" {
		t.Fatalf("expected actor alice, got %q", list[0].Actor)
	}
}

func TestRecordTxScopesEventsByEntity(t *testing.T) {
	b := newTestBroker(t)
	events := NewEventStore(b)
	ctx := context.Background()

	err := b.Transaction(ctx, func(tx *sql.Tx) error {
		if err := RecordTx(ctx, tx, "part", 10000, "created", "alice", ""); err != nil {
			return err
		}
		return RecordTx(ctx, tx, "part", 10001, "created", "bob", "")
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	list, err := events.ListForEntity(ctx, "part", 10001)
	if err != nil {
		t.Fatalf("ListForEntity: %v", err)
	}
	if len(list) != 1 || list[0].Actor != "bob" {
		t.Fatalf("expected only part 10001's event, got %+v", list)
	}
}
