package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// RevisionStore is the Entity Manager for revisions. Mutating methods
// are exposed only in tx-participating form: a Revision never changes
// status without a paired Git branch/commit operation, so the Lifecycle
// Engine always drives these through its own Broker.Transaction scope
// rather than letting RevisionStore open its own.
type RevisionStore struct {
	b *broker.Broker
}

func NewRevisionStore(b *broker.Broker) *RevisionStore { return &RevisionStore{b: b} }

func (s *RevisionStore) Get(ctx context.Context, revisionID int64) (types.Revision, error) {
	var out types.Revision
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var getErr error
		out, getErr = getRevisionTx(ctx, conn, revisionID)
		return getErr
	})
	return out, err
}

func getRevisionTx(ctx context.Context, q querier, revisionID int64) (types.Revision, error) {
	var r types.Revision
	var commitHash sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT revision_id, part_id, version, status, created_date, created_by, commit_hash
		FROM revisions WHERE revision_id = ?
	`, revisionID).Scan(&r.RevisionID, &r.PartID, &r.Version, &r.Status, &r.CreatedDate, &r.CreatedBy, &commitHash)
	if err == sql.ErrNoRows {
		return types.Revision{}, plmerr.NotFound("revision", strconv.FormatInt(revisionID, 10))
	}
	if err != nil {
		return types.Revision{}, plmerr.Storage("query revision", err)
	}
	r.CommitHash = commitHash.String
	return r, nil
}

func (s *RevisionStore) ListForPart(ctx context.Context, partID int64) ([]types.Revision, error) {
	var out []types.Revision
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT revision_id, part_id, version, status, created_date, created_by, commit_hash
			FROM revisions WHERE part_id = ? ORDER BY revision_id
		`, partID)
		if err != nil {
			return plmerr.Storage("list revisions", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.Revision
			var commitHash sql.NullString
			if err := rows.Scan(&r.RevisionID, &r.PartID, &r.Version, &r.Status, &r.CreatedDate, &r.CreatedBy, &commitHash); err != nil {
				return plmerr.Storage("scan revision", err)
			}
			r.CommitHash = commitHash.String
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// CreateRevisionTx inserts a new Draft revision, participating in tx.
// Returns the new revision_id. The Lifecycle Engine calls this before
// creating the corresponding Git draft branch, inside the same
// transaction, so a branch failure rolls the insert back.
func CreateRevisionTx(ctx context.Context, tx *sql.Tx, partID int64, version string, createdBy string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (part_id, version, status, created_by)
		VALUES (?, ?, 'Draft', ?)
	`, partID, version, createdBy)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, plmerr.InvalidInput("version", "this part already has a revision with this version")
		}
		return 0, plmerr.Storage("insert revision", err)
	}
	return res.LastInsertId()
}

// SetStatusTx updates a revision's status and, when non-empty, its
// commit_hash, participating in tx.
func SetStatusTx(ctx context.Context, tx *sql.Tx, revisionID int64, status types.RevisionStatus, commitHash string) error {
	if commitHash == "" {
		_, err := tx.ExecContext(ctx, `UPDATE revisions SET status = ? WHERE revision_id = ?`, status, revisionID)
		if err != nil {
			return plmerr.Storage("update revision status", err)
		}
		return nil
	}
	_, err := tx.ExecContext(ctx, `UPDATE revisions SET status = ?, commit_hash = ? WHERE revision_id = ?`, status, commitHash, revisionID)
	if err != nil {
		return plmerr.Storage("update revision status and commit", err)
	}
	return nil
}

// GetRevisionInTx is the tx-participating counterpart to
// RevisionStore.Get, used by the Lifecycle Engine to read back a
// revision it just mutated inside its own transaction.
func GetRevisionInTx(ctx context.Context, tx *sql.Tx, revisionID int64) (types.Revision, error) {
	return getRevisionTx(ctx, tx, revisionID)
}

// LatestRevisionForPartTx returns the full row of the highest-version
// revision of a part, participating in tx. create_revision and
// mark_obsolete both need this row (not just its version string) to
// check status before transitioning.
func LatestRevisionForPartTx(ctx context.Context, tx *sql.Tx, partID int64) (types.Revision, error) {
	var r types.Revision
	var commitHash sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT revision_id, part_id, version, status, created_date, created_by, commit_hash
		FROM revisions WHERE part_id = ? ORDER BY CAST(version AS INTEGER) DESC LIMIT 1
	`, partID).Scan(&r.RevisionID, &r.PartID, &r.Version, &r.Status, &r.CreatedDate, &r.CreatedBy, &commitHash)
	if err == sql.ErrNoRows {
		return types.Revision{}, plmerr.NotFound("revision for part", strconv.FormatInt(partID, 10))
	}
	if err != nil {
		return types.Revision{}, plmerr.Storage("query latest revision", err)
	}
	r.CommitHash = commitHash.String
	return r, nil
}

// LatestVersionTx returns the highest existing version string for a
// part, or "" if the part has no revisions yet, participating in tx.
// Versions are monotonically allocated integers-as-strings, so ordering is by
// cast-to-integer, not lexicographic.
func LatestVersionTx(ctx context.Context, tx *sql.Tx, partID int64) (string, error) {
	var version sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT version FROM revisions WHERE part_id = ? ORDER BY CAST(version AS INTEGER) DESC LIMIT 1
	`, partID).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", plmerr.Storage("query latest revision version", err)
	}
	return version.String, nil
}
