package sqlite

import (
	"context"
	"database/sql"

	"github.com/implexa/implexa/internal/dateparse"
	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// PropertyStore is the Entity Manager for key/value Properties attached
// to a Part or a Revision.
type PropertyStore struct {
	b *broker.Broker
}

func NewPropertyStore(b *broker.Broker) *PropertyStore { return &PropertyStore{b: b} }

// Set upserts a property by (owner, key), normalizing date-typed values
// through internal/dateparse so callers can pass natural-language dates.
func (s *PropertyStore) Set(ctx context.Context, p types.Property) (int64, error) {
	if p.Type == types.PropertyDate && p.Value != "" {
		normalized, err := dateparse.Normalize(p.Value)
		if err != nil {
			return 0, plmerr.InvalidInput("value", "could not parse date: "+err.Error())
		}
		p.Value = normalized
	}
	var id int64
	err := s.b.Write(ctx, func(conn *sql.Conn) error {
		if (p.PartID == nil) == (p.RevisionID == nil) {
			return plmerr.InvalidInput("owner", "a property must belong to exactly one of part or revision")
		}
		var err error
		if p.PartID != nil {
			_, err = conn.ExecContext(ctx, `
				INSERT INTO properties (part_id, key, value, type)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (part_id, key) WHERE part_id IS NOT NULL
				DO UPDATE SET value = excluded.value, type = excluded.type
			`, *p.PartID, p.Key, p.Value, p.Type)
		} else {
			_, err = conn.ExecContext(ctx, `
				INSERT INTO properties (revision_id, key, value, type)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (revision_id, key) WHERE revision_id IS NOT NULL
				DO UPDATE SET value = excluded.value, type = excluded.type
			`, *p.RevisionID, p.Key, p.Value, p.Type)
		}
		if err != nil {
			return plmerr.Storage("upsert property", err)
		}
		// The upsert's update path does not advance last_insert_rowid, so
		// resolve the row ID by its owner and key.
		var row *sql.Row
		if p.PartID != nil {
			row = conn.QueryRowContext(ctx, `SELECT property_id FROM properties WHERE part_id = ? AND key = ?`, *p.PartID, p.Key)
		} else {
			row = conn.QueryRowContext(ctx, `SELECT property_id FROM properties WHERE revision_id = ? AND key = ?`, *p.RevisionID, p.Key)
		}
		if err := row.Scan(&id); err != nil {
			return plmerr.Storage("resolve property id", err)
		}
		return nil
	})
	return id, err
}

func (s *PropertyStore) ListForPart(ctx context.Context, partID int64) ([]types.Property, error) {
	return s.list(ctx, `part_id = ?`, partID)
}

func (s *PropertyStore) ListForRevision(ctx context.Context, revisionID int64) ([]types.Property, error) {
	return s.list(ctx, `revision_id = ?`, revisionID)
}

func (s *PropertyStore) list(ctx context.Context, where string, arg int64) ([]types.Property, error) {
	var out []types.Property
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT property_id, part_id, revision_id, key, value, type FROM properties WHERE `+where+` ORDER BY key
		`, arg)
		if err != nil {
			return plmerr.Storage("list properties", err)
		}
		defer rows.Close()
		for rows.Next() {
			var p types.Property
			if err := rows.Scan(&p.PropertyID, &p.PartID, &p.RevisionID, &p.Key, &p.Value, &p.Type); err != nil {
				return plmerr.Storage("scan property", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes a property by its owner and key.
func (s *PropertyStore) Delete(ctx context.Context, partID, revisionID *int64, key string) error {
	return s.b.Write(ctx, func(conn *sql.Conn) error {
		var res sql.Result
		var err error
		switch {
		case partID != nil:
			res, err = conn.ExecContext(ctx, `DELETE FROM properties WHERE part_id = ? AND key = ?`, *partID, key)
		case revisionID != nil:
			res, err = conn.ExecContext(ctx, `DELETE FROM properties WHERE revision_id = ? AND key = ?`, *revisionID, key)
		default:
			return plmerr.InvalidInput("owner", "delete_property requires a part_id or revision_id")
		}
		if err != nil {
			return plmerr.Storage("delete property", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return plmerr.Storage("delete property", err)
		}
		if n == 0 {
			return plmerr.NotFound("property", key)
		}
		return nil
	})
}

// CopyRevisionPropertiesTx copies every Property attached to fromRevisionID
// onto toRevisionID, participating in tx. Used by create_revision, which
// copies revision Properties only: ManufacturerParts and part-scoped
// Properties belong to the Part and stay attached to it, and Files are
// not copied.
func CopyRevisionPropertiesTx(ctx context.Context, tx *sql.Tx, fromRevisionID, toRevisionID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO properties (revision_id, key, value, type)
		SELECT ?, key, value, type FROM properties WHERE revision_id = ?
	`, toRevisionID, fromRevisionID)
	if err != nil {
		return plmerr.Storage("copy revision properties", err)
	}
	return nil
}
