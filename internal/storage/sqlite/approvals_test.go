package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/implexa/implexa/internal/types"
)

func createTestRevision(t *testing.T, b interface {
	Transaction(context.Context, func(*sql.Tx) error) error
}, partID int64, version, createdBy string) int64 {
	t.Helper()
	var revisionID int64
	err := b.Transaction(context.Background(), func(tx *sql.Tx) error {
		id, err := CreateRevisionTx(context.Background(), tx, partID, version, createdBy)
		revisionID = id
		return err
	})
	if err != nil {
		t.Fatalf("createTestRevision: %v", err)
	}
	return revisionID
}

func TestApprovalRequestAndRecordVerdict(t *testing.T) {
	b := newTestBroker(t)
	parts := NewPartStore(b)
	approvals := NewApprovalStore(b)
	ctx := context.Background()

	partID := createTestPart(t, parts, "10k resistor")
	revisionID := createTestRevision(t, b, partID, "1", "alice")

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := RequestApprovalTx(ctx, tx, revisionID, "carol")
		return err
	}); err != nil {
		t.Fatalf("RequestApprovalTx: %v", err)
	}

	list, err := approvals.ListForRevision(ctx, revisionID)
	if err != nil {
		t.Fatalf("ListForRevision: %v", err)
	}
	if len(list) != 1 || list[0].Status != types.ApprovalPending {
		t.Fatalf("expected one Pending approval, got %+v", list)
	}

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		return RecordVerdictTx(ctx, tx, revisionID, "carol", types.ApprovalApproved, "looks good")
	}); err != nil {
		t.Fatalf("RecordVerdictTx: %v", err)
	}
	list, err = approvals.ListForRevision(ctx, revisionID)
	if err != nil {
		t.Fatalf("ListForRevision after verdict: %v", err)
	}
	if len(list) != 1 || list[0].Status != types.ApprovalApproved || list[0].Comments != "looks good" {
		t.Fatalf("expected exactly one Approved row with the latest comments, got %+v", list)
	}
}

func TestApprovalRecordVerdictTwiceStaysOneRow(t *testing.T) {
	b := newTestBroker(t)
	parts := NewPartStore(b)
	approvals := NewApprovalStore(b)
	ctx := context.Background()

	partID := createTestPart(t, parts, "10k resistor")
	revisionID := createTestRevision(t, b, partID, "1", "alice")

	for i := 0; i < 2; i++ {
		if err := b.Transaction(ctx, func(tx *sql.Tx) error {
			if _, err := RequestApprovalTx(ctx, tx, revisionID, "carol"); err != nil {
				return err
			}
			return RecordVerdictTx(ctx, tx, revisionID, "carol", types.ApprovalApproved, "ok")
		}); err != nil {
			t.Fatalf("approve round %d: %v", i, err)
		}
	}
	list, err := approvals.ListForRevision(ctx, revisionID)
	if err != nil {
		t.Fatalf("ListForRevision: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one Approval row for (revision, approver) after repeated approval, got %+v", list)
	}
}

func TestApprovalRecordVerdictWithoutPriorRequest(t *testing.T) {
	b := newTestBroker(t)
	parts := NewPartStore(b)
	approvals := NewApprovalStore(b)
	ctx := context.Background()

	partID := createTestPart(t, parts, "10k resistor")
	revisionID := createTestRevision(t, b, partID, "1", "alice")

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		return RecordVerdictTx(ctx, tx, revisionID, "erin", types.ApprovalApproved, "approving without a prior request")
	}); err != nil {
		t.Fatalf("RecordVerdictTx with no prior RequestApprovalTx: %v", err)
	}

	list, err := approvals.ListForRevision(ctx, revisionID)
	if err != nil {
		t.Fatalf("ListForRevision: %v", err)
	}
	if len(list) != 1 || list[0].Approver != "erin" || list[0].Status != types.ApprovalApproved {
		t.Fatalf("expected one Approved row for erin, got %+v", list)
	}
}

func TestApprovalAllApprovedAndAnyRejected(t *testing.T) {
	b := newTestBroker(t)
	parts := NewPartStore(b)
	ctx := context.Background()

	partID := createTestPart(t, parts, "10k resistor")
	revisionID := createTestRevision(t, b, partID, "1", "alice")

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := RequestApprovalTx(ctx, tx, revisionID, "carol"); err != nil {
			return err
		}
		if _, err := RequestApprovalTx(ctx, tx, revisionID, "dave"); err != nil {
			return err
		}
		return nil
	}); err != nil {
		t.Fatalf("request approvals: %v", err)
	}

	var allApproved, anyRejected bool
	check := func() {
		t.Helper()
		if err := b.Transaction(ctx, func(tx *sql.Tx) error {
			var err error
			allApproved, err = AllApprovedTx(ctx, tx, revisionID)
			if err != nil {
				return err
			}
			anyRejected, err = AnyRejectedTx(ctx, tx, revisionID)
			return err
		}); err != nil {
			t.Fatalf("check: %v", err)
		}
	}

	check()
	if allApproved || anyRejected {
		t.Fatalf("expected neither condition with two Pending approvals, got allApproved=%v anyRejected=%v", allApproved, anyRejected)
	}

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		return RecordVerdictTx(ctx, tx, revisionID, "carol", types.ApprovalApproved, "")
	}); err != nil {
		t.Fatalf("approve carol: %v", err)
	}
	check()
	if allApproved {
		t.Fatalf("expected allApproved=false while dave is still Pending")
	}

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		return RecordVerdictTx(ctx, tx, revisionID, "dave", types.ApprovalRejected, "needs rework")
	}); err != nil {
		t.Fatalf("reject dave: %v", err)
	}
	check()
	if !anyRejected {
		t.Fatalf("expected anyRejected=true after dave rejects")
	}
}
