package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/types"
)

// FileStore is the Entity Manager for file attachments, each of which
// records a repo-relative path alongside the Git commit that actually
// carries the bytes. The metadata store never holds file content.
type FileStore struct {
	b *broker.Broker
}

func NewFileStore(b *broker.Broker) *FileStore { return &FileStore{b: b} }

func (s *FileStore) Attach(ctx context.Context, f types.File) (int64, error) {
	var id int64
	err := s.b.Write(ctx, func(conn *sql.Conn) error {
		if (f.PartID == nil) == (f.RevisionID == nil) {
			return plmerr.InvalidInput("owner", "a file must belong to exactly one of part or revision")
		}
		res, err := conn.ExecContext(ctx, `
			INSERT INTO files (part_id, revision_id, path, type, description)
			VALUES (?, ?, ?, ?, ?)
		`, f.PartID, f.RevisionID, f.Path, f.Type, f.Description)
		if err != nil {
			return plmerr.Storage("insert file", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *FileStore) ListForRevision(ctx context.Context, revisionID int64) ([]types.File, error) {
	var out []types.File
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT file_id, part_id, revision_id, path, type, description
			FROM files WHERE revision_id = ? ORDER BY file_id
		`, revisionID)
		if err != nil {
			return plmerr.Storage("list files", err)
		}
		defer rows.Close()
		for rows.Next() {
			var f types.File
			if err := rows.Scan(&f.FileID, &f.PartID, &f.RevisionID, &f.Path, &f.Type, &f.Description); err != nil {
				return plmerr.Storage("scan file", err)
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}

// Detach removes a file attachment's metadata row. The underlying
// repository content, if any, is left for a later Git commit to remove
// explicitly; detaching a record is not itself a repository mutation.
func (s *FileStore) Detach(ctx context.Context, fileID int64) error {
	return s.b.Write(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM files WHERE file_id = ?`, fileID)
		if err != nil {
			return plmerr.Storage("detach file", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return plmerr.Storage("detach file", err)
		}
		if n == 0 {
			return plmerr.NotFound("file", strconv.FormatInt(fileID, 10))
		}
		return nil
	})
}

func (s *FileStore) ListForPart(ctx context.Context, partID int64) ([]types.File, error) {
	var out []types.File
	err := s.b.Read(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT file_id, part_id, revision_id, path, type, description
			FROM files WHERE part_id = ? ORDER BY file_id
		`, partID)
		if err != nil {
			return plmerr.Storage("list files", err)
		}
		defer rows.Close()
		for rows.Next() {
			var f types.File
			if err := rows.Scan(&f.FileID, &f.PartID, &f.RevisionID, &f.Path, &f.Type, &f.Description); err != nil {
				return plmerr.Storage("scan file", err)
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	return out, err
}
