package sqlite

import (
	"context"
	"database/sql"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// CategoryStore is the Entity Manager for categories and subcategories.
// ByCode and SubcategoryByCode come in a scoped form, which
// self-acquires a broker scope, and the unexported tx-form it wraps,
// which participates in a caller-supplied transaction (used by the
// Lifecycle Engine when a category lookup must share atomicity with a
// Git mutation). List and SubcategoriesOf have the scoped form only.
type CategoryStore struct {
	b *broker.Broker
}

func NewCategoryStore(b *broker.Broker) *CategoryStore { return &CategoryStore{b: b} }

func (s *CategoryStore) ByCode(ctx context.Context, code string) (types.Category, error) {
	var out types.Category
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var getErr error
		out, getErr = categoryByCodeTx(ctx, conn, code)
		return getErr
	})
	return out, err
}

func categoryByCodeTx(ctx context.Context, q querier, code string) (types.Category, error) {
	var c types.Category
	err := q.QueryRowContext(ctx, `SELECT category_id, name, code, description FROM categories WHERE code = ?`, code).
		Scan(&c.CategoryID, &c.Name, &c.Code, &c.Description)
	if err == sql.ErrNoRows {
		return types.Category{}, plmerr.NotFound("category", code)
	}
	if err != nil {
		return types.Category{}, plmerr.Storage("query category", err)
	}
	return c, nil
}

func (s *CategoryStore) List(ctx context.Context) ([]types.Category, error) {
	var out []types.Category
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT category_id, name, code, description FROM categories ORDER BY code`)
		if err != nil {
			return plmerr.Storage("list categories", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c types.Category
			if err := rows.Scan(&c.CategoryID, &c.Name, &c.Code, &c.Description); err != nil {
				return plmerr.Storage("scan category", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

func (s *CategoryStore) SubcategoryByCode(ctx context.Context, categoryCode, subcategoryCode string) (types.Subcategory, error) {
	var out types.Subcategory
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		var getErr error
		out, getErr = subcategoryByCodeTx(ctx, conn, categoryCode, subcategoryCode)
		return getErr
	})
	return out, err
}

func subcategoryByCodeTx(ctx context.Context, q querier, categoryCode, subcategoryCode string) (types.Subcategory, error) {
	var s types.Subcategory
	err := q.QueryRowContext(ctx, `
		SELECT sc.subcategory_id, sc.category_id, sc.name, sc.code, sc.description
		FROM subcategories sc JOIN categories c ON c.category_id = sc.category_id
		WHERE c.code = ? AND sc.code = ?
	`, categoryCode, subcategoryCode).Scan(&s.SubcategoryID, &s.CategoryID, &s.Name, &s.Code, &s.Description)
	if err == sql.ErrNoRows {
		return types.Subcategory{}, plmerr.NotFound("subcategory", categoryCode+"/"+subcategoryCode)
	}
	if err != nil {
		return types.Subcategory{}, plmerr.Storage("query subcategory", err)
	}
	return s, nil
}

func (s *CategoryStore) SubcategoriesOf(ctx context.Context, categoryCode string) ([]types.Subcategory, error) {
	var out []types.Subcategory
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT sc.subcategory_id, sc.category_id, sc.name, sc.code, sc.description
			FROM subcategories sc JOIN categories c ON c.category_id = sc.category_id
			WHERE c.code = ? ORDER BY sc.code
		`, categoryCode)
		if err != nil {
			return plmerr.Storage("list subcategories", err)
		}
		defer rows.Close()
		for rows.Next() {
			var sc types.Subcategory
			if err := rows.Scan(&sc.SubcategoryID, &sc.CategoryID, &sc.Name, &sc.Code, &sc.Description); err != nil {
				return plmerr.Storage("scan subcategory", err)
			}
			out = append(out, sc)
		}
		return rows.Err()
	})
	return out, err
}

// CategoryByCodeInTx is the tx-participating counterpart to
// CategoryStore.ByCode, used by the Lifecycle Engine so a category
// lookup shares atomicity with the Part insert it gates.
func CategoryByCodeInTx(ctx context.Context, tx *sql.Tx, code string) (types.Category, error) {
	return categoryByCodeTx(ctx, tx, code)
}

// SubcategoryByCodeInTx is the tx-participating counterpart to
// CategoryStore.SubcategoryByCode.
func SubcategoryByCodeInTx(ctx context.Context, tx *sql.Tx, categoryCode, subcategoryCode string) (types.Subcategory, error) {
	return subcategoryByCodeTx(ctx, tx, categoryCode, subcategoryCode)
}

// querier abstracts over *sql.Conn and *sql.Tx so tx-form helpers can run
// against either a scoped connection or a caller-supplied transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
