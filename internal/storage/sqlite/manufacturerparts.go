package sqlite

import (
	"context"
	"database/sql"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
	"github.com/implexa/implexa/internal/utils"
)

// ManufacturerPartStore is the Entity Manager for manufacturer
// cross-references.
type ManufacturerPartStore struct {
	b *broker.Broker
}

func NewManufacturerPartStore(b *broker.Broker) *ManufacturerPartStore {
	return &ManufacturerPartStore{b: b}
}

// Upsert inserts a cross-reference or, when the (manufacturer, mpn)
// pair already exists, updates its part binding, description, and
// status in place.
func (s *ManufacturerPartStore) Upsert(ctx context.Context, mp types.ManufacturerPart) (int64, error) {
	var id int64
	err := s.b.Write(ctx, func(conn *sql.Conn) error {
		var addErr error
		id, addErr = upsertManufacturerPartTx(ctx, conn, mp)
		return addErr
	})
	return id, err
}

func upsertManufacturerPartTx(ctx context.Context, q querier, mp types.ManufacturerPart) (int64, error) {
	if mp.Status == "" {
		mp.Status = types.MPNActive
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO manufacturer_parts (part_id, manufacturer, mpn, description, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (manufacturer, mpn)
		DO UPDATE SET part_id = excluded.part_id, description = excluded.description, status = excluded.status
	`, mp.PartID, mp.Manufacturer, mp.MPN, mp.Description, mp.Status)
	if err != nil {
		return 0, plmerr.Storage("upsert manufacturer part", err)
	}
	var id int64
	err = q.QueryRowContext(ctx, `
		SELECT mpn_id FROM manufacturer_parts WHERE manufacturer = ? AND mpn = ?
	`, mp.Manufacturer, mp.MPN).Scan(&id)
	if err != nil {
		return 0, plmerr.Storage("resolve manufacturer part id", err)
	}
	return id, nil
}

func (s *ManufacturerPartStore) ListForPart(ctx context.Context, partID int64) ([]types.ManufacturerPart, error) {
	var out []types.ManufacturerPart
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT mpn_id, part_id, manufacturer, mpn, description, status
			FROM manufacturer_parts WHERE part_id = ? ORDER BY mpn_id
		`, partID)
		if err != nil {
			return plmerr.Storage("list manufacturer parts", err)
		}
		defer rows.Close()
		for rows.Next() {
			var mp types.ManufacturerPart
			if err := rows.Scan(&mp.MPNID, &mp.PartID, &mp.Manufacturer, &mp.MPN, &mp.Description, &mp.Status); err != nil {
				return plmerr.Storage("scan manufacturer part", err)
			}
			out = append(out, mp)
		}
		return rows.Err()
	})
	return out, err
}

// Search filters across every manufacturer part's MPN and manufacturer
// name by a free-text fuzzy match; results keep mpn_id order and are not
// ranked by relevance.
func (s *ManufacturerPartStore) Search(ctx context.Context, term string) ([]types.ManufacturerPart, error) {
	var all []types.ManufacturerPart
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT mpn_id, part_id, manufacturer, mpn, description, status FROM manufacturer_parts ORDER BY mpn_id
		`)
		if err != nil {
			return plmerr.Storage("search manufacturer parts", err)
		}
		defer rows.Close()
		for rows.Next() {
			var mp types.ManufacturerPart
			if err := rows.Scan(&mp.MPNID, &mp.PartID, &mp.Manufacturer, &mp.MPN, &mp.Description, &mp.Status); err != nil {
				return plmerr.Storage("scan manufacturer part", err)
			}
			all = append(all, mp)
		}
		return rows.Err()
	})
	if err != nil || term == "" {
		return all, err
	}
	out := make([]types.ManufacturerPart, 0, len(all))
	for _, mp := range all {
		if utils.MatchesFuzzy(term, mp.MPN) || utils.MatchesFuzzy(term, mp.Manufacturer) {
			out = append(out, mp)
		}
	}
	return out, nil
}
