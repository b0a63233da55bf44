package command

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/registry"
	"github.com/implexa/implexa/internal/types"
)

func newTestBoundary(t *testing.T) *Boundary {
	t.Helper()
	r, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return New(r)
}

func openRepo(t *testing.T, b *Boundary) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo")
	if err := b.CreateRepository(context.Background(), path, "minimal"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
}

func TestOperationsRequireOpenRepository(t *testing.T) {
	b := newTestBoundary(t)
	ctx := context.Background()
	user := types.User{Username: "alice", Role: types.RoleDesigner}

	if _, _, err := b.CreatePart(ctx, user, "EL", "RES", "x", ""); plmerr.KindOf(err) != plmerr.KindState {
		t.Fatalf("expected State error before any repository is open, got %v", err)
	}
}

func TestToErrorPayloadMapsKindAndMessage(t *testing.T) {
	payload := ToErrorPayload(plmerr.NotFound("part", "123"))
	if payload.Code != string(plmerr.KindNotFound) {
		t.Fatalf("expected code %q, got %q", plmerr.KindNotFound, payload.Code)
	}
	if payload.Message == "" {
		t.Fatalf("expected a non-empty message")
	}
}

func TestToErrorPayloadOnNilIsZeroValue(t *testing.T) {
	payload := ToErrorPayload(nil)
	if payload.Code != "" || payload.Message != "" {
		t.Fatalf("expected a zero-value payload for a nil error, got %+v", payload)
	}
}

func TestCreateRelationshipRejectsObsoleteChild(t *testing.T) {
	b := newTestBoundary(t)
	openRepo(t, b)
	ctx := context.Background()
	alice := types.User{Username: "alice", Role: types.RoleDesigner}
	admin := types.User{Username: "root", Role: types.RoleAdmin}

	parent, _, err := b.CreatePart(ctx, alice, "EL", "RES", "board", "")
	if err != nil {
		t.Fatalf("CreatePart parent: %v", err)
	}
	child, childRev, err := b.CreatePart(ctx, alice, "EL", "RES", "obsolete-part", "")
	if err != nil {
		t.Fatalf("CreatePart child: %v", err)
	}

	if err := b.SubmitForReview(ctx, alice, childRev.RevisionID, []string{"carol"}); err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if err := b.Approve(ctx, types.User{Username: "carol", Role: types.RoleDesigner}, childRev.RevisionID, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := b.ReleaseRevision(ctx, alice, childRev.RevisionID); err != nil {
		t.Fatalf("ReleaseRevision: %v", err)
	}
	if err := b.MarkObsolete(ctx, admin, child.PartID); err != nil {
		t.Fatalf("MarkObsolete: %v", err)
	}

	_, err = b.CreateRelationship(ctx, types.Relationship{ParentPartID: parent.PartID, ChildPartID: child.PartID, Type: types.RelationshipBOM, Quantity: 1})
	if plmerr.KindOf(err) != plmerr.KindState {
		t.Fatalf("expected State error adding an obsolete part as a child, got %v", err)
	}
}

func TestListPropertiesRequiresAnOwner(t *testing.T) {
	b := newTestBoundary(t)
	openRepo(t, b)

	_, err := b.ListProperties(context.Background(), nil, nil)
	if plmerr.KindOf(err) != plmerr.KindInvalidInput {
		t.Fatalf("expected InvalidInput when neither owner is given, got %v", err)
	}
}

func TestAttachFileRejectsPathTraversal(t *testing.T) {
	b := newTestBoundary(t)
	openRepo(t, b)
	ctx := context.Background()
	alice := types.User{Username: "alice", Role: types.RoleDesigner}

	part, _, err := b.CreatePart(ctx, alice, "EL", "RES", "board", "")
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}

	cases := []string{
		"../outside.txt",
		"docs/../../outside.txt",
		"/etc/passwd",
	}
	for _, path := range cases {
		_, err := b.AttachFile(ctx, types.File{PartID: &part.PartID, Path: path})
		if plmerr.KindOf(err) != plmerr.KindInvalidInput {
			t.Fatalf("AttachFile(%q): expected InvalidInput, got %v", path, err)
		}
	}

	if _, err := b.AttachFile(ctx, types.File{PartID: &part.PartID, Path: "datasheets/board.pdf"}); err != nil {
		t.Fatalf("AttachFile with a repo-relative path: %v", err)
	}
}
