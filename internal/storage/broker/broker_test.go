package broker

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenMemoryUsable(t *testing.T) {
	b, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer b.Close()
	if b.Path() != "" {
		t.Fatalf("expected an empty Path for the in-memory broker, got %q", b.Path())
	}

	err = b.Write(context.Background(), func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
		return execErr
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestOpenFileCreatesPersistentDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "implexa.db")
	b, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer b.Close()
	if b.Path() != path {
		t.Fatalf("expected Path() == %q, got %q", path, b.Path())
	}
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	b, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	if err := b.Write(ctx, func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
		return execErr
	}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	if err := b.Transaction(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES ('hello')`)
		return execErr
	}); err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	var count int
	if err := b.Read(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count)
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the committed row to be visible, got count=%d", count)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	b, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	if err := b.Write(ctx, func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
		return execErr
	}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	sentinel := errors.New("boom")
	err = b.Transaction(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES ('hello')`); execErr != nil {
			return execErr
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the sentinel error to propagate, got %v", err)
	}

	var count int
	if err := b.Read(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count)
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected the transaction's insert to be rolled back, got count=%d", count)
	}
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	b, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	if err := b.Write(ctx, func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
		return execErr
	}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err = b.Transaction(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES ('hello')`); execErr != nil {
			return execErr
		}
		panic("unexpected failure mid-transaction")
	})
	if err == nil {
		t.Fatalf("expected Transaction to convert the panic into an error")
	}

	var count int
	if err := b.Read(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&count)
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected a panic mid-transaction to roll back, got count=%d", count)
	}
}

func TestCloneSharesUnderlyingConnection(t *testing.T) {
	b, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer b.Close()
	clone := b.Clone()

	if err := b.Write(context.Background(), func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
		return execErr
	}); err != nil {
		t.Fatalf("create table via original: %v", err)
	}

	err = clone.Write(context.Background(), func(conn *sql.Conn) error {
		_, execErr := conn.ExecContext(context.Background(), `INSERT INTO t DEFAULT VALUES`)
		return execErr
	})
	if err != nil {
		t.Fatalf("expected the clone to see tables created via the original broker: %v", err)
	}
}
