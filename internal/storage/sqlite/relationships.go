package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// RelationshipStore is the Entity Manager for BOM/reference/alternate
// edges between parts.
type RelationshipStore struct {
	b *broker.Broker
}

func NewRelationshipStore(b *broker.Broker) *RelationshipStore { return &RelationshipStore{b: b} }

func (s *RelationshipStore) Add(ctx context.Context, r types.Relationship) (int64, error) {
	var id int64
	err := s.b.Write(ctx, func(conn *sql.Conn) error {
		if r.ParentPartID == r.ChildPartID {
			return plmerr.InvalidInput("child_part_id", "a part cannot reference itself")
		}
		var createErr error
		id, createErr = addRelationshipTx(ctx, conn, r)
		return createErr
	})
	return id, err
}

func addRelationshipTx(ctx context.Context, q querier, r types.Relationship) (int64, error) {
	if r.Type == "" {
		r.Type = types.RelationshipBOM
	}
	if r.Quantity < 1 {
		r.Quantity = 1
	}

	// An obsolete part stays visible but is blocked from new downstream
	// use: reject it as a child here, in the same write scope as the
	// insert, so no status change can slip between check and insert.
	var status sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT status FROM revisions WHERE part_id = ? ORDER BY CAST(version AS INTEGER) DESC LIMIT 1
	`, r.ChildPartID).Scan(&status)
	if err != nil && err != sql.ErrNoRows {
		return 0, plmerr.Storage("check child part status", err)
	}
	if status.String == string(types.StatusObsolete) {
		return 0, plmerr.State("part " + strconv.FormatInt(r.ChildPartID, 10) + " is obsolete and cannot be added to a new relationship")
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO relationships (parent_part_id, child_part_id, type, quantity)
		VALUES (?, ?, ?, ?)
	`, r.ParentPartID, r.ChildPartID, r.Type, r.Quantity)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, plmerr.InvalidInput("relationship", "this parent/child/type relationship already exists")
		}
		return 0, plmerr.Storage("insert relationship", err)
	}
	return res.LastInsertId()
}

// BOMOf returns the direct (single-level) BOM children of a part.
// Recursive expansion into a full tree is a Command Boundary concern
// layered on top of repeated single-level calls, keeping cycle
// detection centralized there rather than duplicated in storage.
func (s *RelationshipStore) BOMOf(ctx context.Context, parentPartID int64) ([]types.Relationship, error) {
	var out []types.Relationship
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT relationship_id, parent_part_id, child_part_id, type, quantity
			FROM relationships WHERE parent_part_id = ? ORDER BY relationship_id
		`, parentPartID)
		if err != nil {
			return plmerr.Storage("list relationships", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.Relationship
			if err := rows.Scan(&r.RelationshipID, &r.ParentPartID, &r.ChildPartID, &r.Type, &r.Quantity); err != nil {
				return plmerr.Storage("scan relationship", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

func (s *RelationshipStore) Remove(ctx context.Context, relationshipID int64) error {
	return s.b.Write(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `DELETE FROM relationships WHERE relationship_id = ?`, relationshipID)
		if err != nil {
			return plmerr.Storage("delete relationship", err)
		}
		return nil
	})
}
