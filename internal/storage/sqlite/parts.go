package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
	"github.com/implexa/implexa/internal/utils"
)

// PartStore is the Entity Manager for parts.
type PartStore struct {
	b *broker.Broker
}

func NewPartStore(b *broker.Broker) *PartStore { return &PartStore{b: b} }

// Create allocates a new Part row. The caller is expected to have
// already verified category/subcategory existence and permission
// (the Lifecycle Engine owns that sequencing); Create itself only
// enforces the storage-level name-uniqueness constraint.
func (s *PartStore) Create(ctx context.Context, p types.Part) (int64, error) {
	var id int64
	err := s.b.Write(ctx, func(conn *sql.Conn) error {
		var createErr error
		id, createErr = createPartTx(ctx, conn, p)
		return createErr
	})
	return id, err
}

func createPartTx(ctx context.Context, q querier, p types.Part) (int64, error) {
	categoryID, subcategoryID := p.CategoryID, p.SubcategoryID
	if categoryID == 0 || subcategoryID == 0 {
		sub, err := subcategoryByCodeTx(ctx, q, p.Category, p.Subcategory)
		if err != nil {
			return 0, err
		}
		categoryID, subcategoryID = sub.CategoryID, sub.SubcategoryID
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO parts (category_id, subcategory_id, name, description)
		VALUES (?, ?, ?, ?)
	`, categoryID, subcategoryID, p.Name, p.Description)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, plmerr.InvalidInput("name", "a part with this category/subcategory/name already exists")
		}
		return 0, plmerr.Storage("insert part", err)
	}
	return res.LastInsertId()
}

// partSelectJoin projects a parts row against the *current* category and
// subcategory codes: parts stores category_id/subcategory_id, never
// the code itself, so a category or subcategory rename is reflected the
// next time any part under it is read.
const partSelectJoin = `
	SELECT p.part_id, c.code, sc.code, p.name, p.description,
	       p.created_date, p.modified_date, p.deleted_at, p.deleted_by,
	       p.category_id, p.subcategory_id
	FROM parts p
	JOIN categories c ON c.category_id = p.category_id
	JOIN subcategories sc ON sc.subcategory_id = p.subcategory_id
`

func scanPart(row interface {
	Scan(dest ...any) error
}) (types.Part, error) {
	var p types.Part
	err := row.Scan(&p.PartID, &p.Category, &p.Subcategory, &p.Name, &p.Description,
		&p.CreatedDate, &p.ModifiedDate, &p.DeletedAt, &p.DeletedBy,
		&p.CategoryID, &p.SubcategoryID)
	return p, err
}

func (s *PartStore) Get(ctx context.Context, partID int64) (types.Part, error) {
	var out types.Part
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var getErr error
		out, getErr = getPartTx(ctx, conn, partID)
		return getErr
	})
	return out, err
}

func getPartTx(ctx context.Context, q querier, partID int64) (types.Part, error) {
	p, err := scanPart(q.QueryRowContext(ctx, partSelectJoin+` WHERE p.part_id = ?`, partID))
	if err == sql.ErrNoRows {
		return types.Part{}, plmerr.NotFound("part", strconv.FormatInt(partID, 10))
	}
	if err != nil {
		return types.Part{}, plmerr.Storage("query part", err)
	}
	return p, nil
}

// List returns non-deleted parts, optionally filtered by category and/or
// a free-text term matched fuzzily against name.
func (s *PartStore) List(ctx context.Context, category, term string) ([]types.Part, error) {
	var out []types.Part
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		query := partSelectJoin + ` WHERE p.deleted_at IS NULL`
		args := []any{}
		if category != "" {
			query += ` AND c.code = ?`
			args = append(args, category)
		}
		query += ` ORDER BY p.part_id`
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return plmerr.Storage("list parts", err)
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanPart(rows)
			if err != nil {
				return plmerr.Storage("scan part", err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil || term == "" {
		return out, err
	}
	names := make([]string, len(out))
	byName := make(map[string][]types.Part, len(out))
	for i, p := range out {
		names[i] = p.Name
		byName[p.Name] = append(byName[p.Name], p)
	}
	ranked := utils.RankByFuzzyMatch(term, names)
	filtered := make([]types.Part, 0, len(ranked))
	for _, n := range ranked {
		parts := byName[n]
		if len(parts) == 0 {
			continue
		}
		filtered = append(filtered, parts[0])
		byName[n] = parts[1:]
	}
	return filtered, nil
}

// SoftDelete marks a part deleted without removing history. Deleted
// parts are excluded from List but remain resolvable by ID (Get,
// DisplayNumber) for audit trails.
func (s *PartStore) SoftDelete(ctx context.Context, partID int64, by string) error {
	return s.b.Write(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			UPDATE parts SET deleted_at = CURRENT_TIMESTAMP, deleted_by = ? WHERE part_id = ?
		`, by, partID)
		if err != nil {
			return plmerr.Storage("soft delete part", err)
		}
		return nil
	})
}

func (s *PartStore) touchModified(ctx context.Context, q querier, partID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE parts SET modified_date = CURRENT_TIMESTAMP WHERE part_id = ?`, partID)
	if err != nil {
		return plmerr.Storage("touch part modified_date", err)
	}
	return nil
}

// GetPartInTx is the tx-participating counterpart to PartStore.Get, used
// by the Lifecycle Engine when a freshly committed Part must be read
// back inside the same transaction that created it.
func GetPartInTx(ctx context.Context, tx *sql.Tx, partID int64) (types.Part, error) {
	return getPartTx(ctx, tx, partID)
}

// TouchPartModifiedTx updates a part's modified_date, participating in
// tx. release_revision calls this after a successful merge.
func TouchPartModifiedTx(ctx context.Context, tx *sql.Tx, partID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE parts SET modified_date = CURRENT_TIMESTAMP WHERE part_id = ?`, partID)
	if err != nil {
		return plmerr.Storage("touch part modified_date", err)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
