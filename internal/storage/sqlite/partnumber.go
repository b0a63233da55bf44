package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
)

// PartNumberStore derives the human-facing display identifier and
// allocates the PartSequence counter that backs Part.part_id.
type PartNumberStore struct {
	b *broker.Broker
}

func NewPartNumberStore(b *broker.Broker) *PartNumberStore { return &PartNumberStore{b: b} }

// NextID allocates and returns the next part_id, in a self-contained
// transaction. Scoped form, for callers outside the Lifecycle Engine's
// own transaction.
func (s *PartNumberStore) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.b.Transaction(ctx, func(tx *sql.Tx) error {
		var allocErr error
		id, allocErr = NextPartIDTx(ctx, tx)
		return allocErr
	})
	return id, err
}

// NextPartIDTx reads PartSequence.next_value, increments it, and returns
// the pre-increment value, participating in tx. This must always run
// inside a transaction: it is a read-then-increment under the Broker's
// write lock, and create_part calls it as the first step
// of its own transaction so the allocation and the Part insert commit
// or roll back together.
func NextPartIDTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var next int64
	err := tx.QueryRowContext(ctx, `SELECT next_value FROM part_sequence WHERE id = 1`).Scan(&next)
	if err != nil {
		return 0, plmerr.Storage("read part_sequence", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE part_sequence SET next_value = ? WHERE id = 1`, next+1); err != nil {
		return 0, plmerr.Storage("advance part_sequence", err)
	}
	return next, nil
}

// DisplayNumber computes {category.code}-{subcategory.code}-{part_id}
// for a part identified by ID, by joining to the part's *current*
// category/subcategory rows, never from a stored field. Participating
// tx form, used by the Lifecycle Engine when a display number is needed
// for a branch name inside its own transaction.
func DisplayNumberTx(ctx context.Context, q querier, partID int64) (string, error) {
	var category, subcategory string
	err := q.QueryRowContext(ctx, `
		SELECT c.code, sc.code
		FROM parts p
		JOIN categories c ON c.category_id = p.category_id
		JOIN subcategories sc ON sc.subcategory_id = p.subcategory_id
		WHERE p.part_id = ?
	`, partID).Scan(&category, &subcategory)
	if err == sql.ErrNoRows {
		return "", plmerr.NotFound("part", strconv.FormatInt(partID, 10))
	}
	if err != nil {
		return "", plmerr.Storage("query part for display number", err)
	}
	return category + "-" + subcategory + "-" + strconv.FormatInt(partID, 10), nil
}

func (s *PartNumberStore) DisplayNumber(ctx context.Context, partID int64) (string, error) {
	var out string
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var derr error
		out, derr = DisplayNumberTx(ctx, conn, partID)
		return derr
	})
	return out, err
}
