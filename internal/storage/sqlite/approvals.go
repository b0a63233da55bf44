package sqlite

import (
	"context"
	"database/sql"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// ApprovalStore is the Entity Manager for reviewer verdicts on a
// Revision. Recording a verdict is exposed only in tx-participating
// form: the Lifecycle Engine's approve/reject operations record it in
// the same transaction as their InReview check and, for a rejection,
// the move of the Revision back to Draft. An approval does not itself
// change the Revision's status.
type ApprovalStore struct {
	b *broker.Broker
}

func NewApprovalStore(b *broker.Broker) *ApprovalStore { return &ApprovalStore{b: b} }

func (s *ApprovalStore) ListForRevision(ctx context.Context, revisionID int64) ([]types.Approval, error) {
	var out []types.Approval
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT approval_id, revision_id, approver, status, date, comments
			FROM approvals WHERE revision_id = ? ORDER BY approval_id
		`, revisionID)
		if err != nil {
			return plmerr.Storage("list approvals", err)
		}
		defer rows.Close()
		for rows.Next() {
			var a types.Approval
			if err := rows.Scan(&a.ApprovalID, &a.RevisionID, &a.Approver, &a.Status, &a.Date, &a.Comments); err != nil {
				return plmerr.Storage("scan approval", err)
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

// RequestApprovalTx records a Pending approval request for approver,
// participating in tx. Called by submit_for_review once per required
// reviewer.
func RequestApprovalTx(ctx context.Context, tx *sql.Tx, revisionID int64, approver string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO approvals (revision_id, approver, status) VALUES (?, ?, 'Pending')
		ON CONFLICT (revision_id, approver) DO UPDATE SET status = 'Pending', date = NULL, comments = ''
	`, revisionID, approver)
	if err != nil {
		return 0, plmerr.Storage("insert approval request", err)
	}
	return res.LastInsertId()
}

// RecordVerdictTx upserts an approver's verdict (Approved or Rejected)
// and comments, participating in tx. Any approver may record a verdict
// on a revision whether or not they were named at submit_for_review
// time, so this writes a new approval row if one doesn't already
// exist rather than requiring a prior Pending request.
func RecordVerdictTx(ctx context.Context, tx *sql.Tx, revisionID int64, approver string, status types.ApprovalStatus, comments string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO approvals (revision_id, approver, status, date, comments)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT (revision_id, approver) DO UPDATE SET status = excluded.status, date = excluded.date, comments = excluded.comments
	`, revisionID, approver, status, comments)
	if err != nil {
		return plmerr.Storage("record approval verdict", err)
	}
	return nil
}

// AllApprovedTx reports whether every approval on a revision is Approved
// and at least one exists, participating in tx. release_revision does
// not use it; its approval check is AnyApprovedTx.
func AllApprovedTx(ctx context.Context, tx *sql.Tx, revisionID int64) (bool, error) {
	var total, approved int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM approvals WHERE revision_id = ?`, revisionID).Scan(&total)
	if err != nil {
		return false, plmerr.Storage("count approvals", err)
	}
	if total == 0 {
		return false, nil
	}
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM approvals WHERE revision_id = ? AND status = 'Approved'
	`, revisionID).Scan(&approved)
	if err != nil {
		return false, plmerr.Storage("count approved approvals", err)
	}
	return approved == total, nil
}

// AnyApprovedTx reports whether at least one approval on a revision is
// Approved, participating in tx. release_revision requires one approving
// verdict; since an author can never record a verdict on their own
// revision, any Approved row is necessarily from a non-author.
func AnyApprovedTx(ctx context.Context, tx *sql.Tx, revisionID int64) (bool, error) {
	var approved int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM approvals WHERE revision_id = ? AND status = 'Approved'
	`, revisionID).Scan(&approved)
	if err != nil {
		return false, plmerr.Storage("count approved approvals", err)
	}
	return approved > 0, nil
}

// AnyRejectedTx reports whether any approval on a revision is Rejected,
// participating in tx.
func AnyRejectedTx(ctx context.Context, tx *sql.Tx, revisionID int64) (bool, error) {
	var rejected int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM approvals WHERE revision_id = ? AND status = 'Rejected'
	`, revisionID).Scan(&rejected)
	if err != nil {
		return false, plmerr.Storage("count rejected approvals", err)
	}
	return rejected > 0, nil
}
