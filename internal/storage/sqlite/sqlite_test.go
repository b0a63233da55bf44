package sqlite

import (
	"context"
	"testing"

	"github.com/implexa/implexa/internal/storage/broker"
)

// newTestBroker returns an initialized in-memory broker for entity
// manager tests, mirroring lifecycle_test.go's newTestEngine setup.
func newTestBroker(t *testing.T) *broker.Broker {
	t.Helper()
	b, err := broker.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if err := Initialize(b.DB()); err != nil {
		t.Fatalf("Initialize schema: %v", err)
	}
	return b
}

func TestInitializeSeedsDefaults(t *testing.T) {
	b := newTestBroker(t)
	cats := NewCategoryStore(b)
	ctx := context.Background()

	list, err := cats.List(ctx)
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}
	if len(list) == 0 {
		t.Fatalf("expected seeded categories")
	}
	el, err := cats.ByCode(ctx, "EL")
	if err != nil {
		t.Fatalf("ByCode EL: %v", err)
	}
	subs, err := cats.SubcategoriesOf(ctx, el.Code)
	if err != nil {
		t.Fatalf("SubcategoriesOf EL: %v", err)
	}
	found := false
	for _, s := range subs {
		if s.Code == "RES" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RES subcategory seeded under EL, got %+v", subs)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	b := newTestBroker(t)
	// Re-running Initialize against the same handle must not duplicate
	// schema_version rows or seeded rows.
	if err := Initialize(b.DB()); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	var count int
	if err := b.DB().QueryRow(`SELECT COUNT(*) FROM schema_version WHERE version = 1`).Scan(&count); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one schema_version row for version 1, got %d", count)
	}
}

func TestPartSequenceStartsAt10000(t *testing.T) {
	b := newTestBroker(t)
	seq := NewPartNumberStore(b)
	ctx := context.Background()

	first, err := seq.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if first != 10000 {
		t.Fatalf("expected first allocated part_id to be 10000, got %d", first)
	}
	second, err := seq.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if second != 10001 {
		t.Fatalf("expected second allocated part_id to be 10001, got %d", second)
	}
}
