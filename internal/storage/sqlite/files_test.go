package sqlite

import (
	"context"
	"testing"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/types"
)

func TestFileAttachRejectsBothOrNeitherOwner(t *testing.T) {
	b := newTestBroker(t)
	files := NewFileStore(b)
	ctx := context.Background()

	_, err := files.Attach(ctx, types.File{Path: "parts/EL-RES-10000/design/part.kicad_sch"})
	if plmerr.KindOf(err) != plmerr.KindInvalidInput {
		t.Fatalf("expected InvalidInput when neither owner is set, got %v", err)
	}

	partID := int64(1)
	revisionID := int64(1)
	_, err = files.Attach(ctx, types.File{PartID: &partID, RevisionID: &revisionID, Path: "x"})
	if plmerr.KindOf(err) != plmerr.KindInvalidInput {
		t.Fatalf("expected InvalidInput when both owners are set, got %v", err)
	}
}

func TestFileAttachListAndDetach(t *testing.T) {
	b := newTestBroker(t)
	parts := NewPartStore(b)
	files := NewFileStore(b)
	ctx := context.Background()

	partID := createTestPart(t, parts, "10k resistor")
	id, err := files.Attach(ctx, types.File{PartID: &partID, Path: "parts/EL-RES-10000/design/part.kicad_sch", Type: "schematic"})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	list, err := files.ListForPart(ctx, partID)
	if err != nil {
		t.Fatalf("ListForPart: %v", err)
	}
	if len(list) != 1 || list[0].FileID != id {
		t.Fatalf("unexpected file list: %+v", list)
	}

	if err := files.Detach(ctx, id); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	list, err = files.ListForPart(ctx, partID)
	if err != nil {
		t.Fatalf("ListForPart after detach: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no files after detach, got %+v", list)
	}

	if err := files.Detach(ctx, id); plmerr.KindOf(err) != plmerr.KindNotFound {
		t.Fatalf("expected NotFound detaching an already-detached file, got %v", err)
	}
}
