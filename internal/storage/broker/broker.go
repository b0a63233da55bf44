// Package broker owns the single relational connection used by a
// repository's metadata store and serializes access to it. Entity
// Managers never hold a handle across calls; they borrow one for the
// duration of a read, write, or transaction scope.
package broker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/implexa/implexa/internal/plmerr"
)

const lockRetryInterval = 20 * time.Millisecond

// Broker owns one *sql.DB and the locking discipline around it. It is
// cheaply duplicable: Clone returns a Broker sharing the same underlying
// connection and locks, so the Lifecycle Engine and multiple Entity
// Managers can hold one simultaneously.
type Broker struct {
	db   *sql.DB
	mu   *sync.RWMutex
	file *flock.Flock // nil for the in-memory bootstrap broker
	path string
}

// OpenFile opens (creating if absent) a file-backed broker at path. This
// is the constructor used by open_repository/create_repository once a
// repository's <repo>/config/implexa.db is known.
func OpenFile(path string) (*Broker, error) {
	db, err := open("file:" + path + "?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	return &Broker{
		db:   db,
		mu:   &sync.RWMutex{},
		file: flock.New(path + ".lock"),
		path: path,
	}, nil
}

// OpenMemory opens an in-memory broker. The Repository State Registry
// uses this before any repository has been opened, so that early command
// traffic has a valid, schema-initialized store without creating stray
// files on disk.
func OpenMemory() (*Broker, error) {
	db, err := open("file::memory:?cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	return &Broker{db: db, mu: &sync.RWMutex{}}, nil
}

// compileOnce points the embedded SQLite module's wazero runtime at a
// persistent compilation cache, so repeat process startups skip
// recompiling the wasm binary. Best-effort: on failure the driver
// compiles in memory as usual.
var compileOnce sync.Once

func configureCompilationCache() {
	compileOnce.Do(func() {
		dir, err := os.UserCacheDir()
		if err != nil {
			return
		}
		cache, err := wazero.NewCompilationCacheWithDir(filepath.Join(dir, "implexa", "wazero"))
		if err != nil {
			return
		}
		sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
	})
}

func open(dsn string) (*sql.DB, error) {
	configureCompilationCache()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, plmerr.Storage("open", err)
	}
	db.SetMaxOpenConns(1) // a single connection per process; Read scopes also take turns on it
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, plmerr.Storage("set WAL mode", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, plmerr.Storage("enable foreign keys", err)
	}
	return db, nil
}

// Clone returns a Broker sharing this Broker's connection and locks.
func (b *Broker) Clone() *Broker {
	return &Broker{db: b.db, mu: b.mu, file: b.file, path: b.path}
}

// DB exposes the underlying handle for components (migrations, schema
// setup) that must run outside the read/write/transaction discipline,
// such as during initial bootstrap before any scope is meaningful.
func (b *Broker) DB() *sql.DB { return b.db }

// Path returns the filesystem path of a file-backed broker, or "" for
// the in-memory bootstrap broker.
func (b *Broker) Path() string { return b.path }

// Close releases the underlying connection.
func (b *Broker) Close() error {
	return b.db.Close()
}

// Read invokes f with a connection usable for read-only queries. Reads
// hold RLock, so they never overlap a Write/Transaction scope; with the
// pool capped at one connection, concurrent Read scopes still run one
// at a time.
func (b *Broker) Read(ctx context.Context, f func(*sql.Conn) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conn, err := b.db.Conn(ctx)
	if err != nil {
		return plmerr.Storage("acquire read connection", err)
	}
	defer func() { _ = conn.Close() }()

	if err := f(conn); err != nil {
		return err
	}
	return nil
}

// Write invokes f with a connection usable for mutation, serialized
// against all other writes and transactions via both the in-process
// RWMutex and, for file-backed brokers, an on-disk advisory lock that
// serializes across OS processes.
func (b *Broker) Write(ctx context.Context, f func(*sql.Conn) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file != nil {
		locked, err := b.file.TryLockContext(ctx, lockRetryInterval)
		if err != nil {
			return plmerr.Storage("acquire file lock", err)
		}
		if !locked {
			return plmerr.Storage("acquire file lock", fmt.Errorf("another implexa process is writing to %s", b.path))
		}
		defer func() { _ = b.file.Unlock() }()
	}

	conn, err := b.db.Conn(ctx)
	if err != nil {
		return plmerr.Storage("acquire write connection", err)
	}
	defer func() { _ = conn.Close() }()

	return f(conn)
}

// Transaction begins a transaction, invokes f with the transaction
// handle, commits on nil return, and rolls back on any error or panic
// unwind. Nested transactions are not supported; callers must not
// re-enter Transaction from within f.
func (b *Broker) Transaction(ctx context.Context, f func(*sql.Tx) error) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file != nil {
		locked, lockErr := b.file.TryLockContext(ctx, lockRetryInterval)
		if lockErr != nil {
			return plmerr.Storage("acquire file lock", lockErr)
		}
		if !locked {
			return plmerr.Storage("acquire file lock", fmt.Errorf("another implexa process is writing to %s", b.path))
		}
		defer func() { _ = b.file.Unlock() }()
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return plmerr.Storage("begin transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if r := func() (callErr error) {
		defer func() {
			if p := recover(); p != nil {
				callErr = fmt.Errorf("panic in transaction: %v", p)
			}
		}()
		return f(tx)
	}(); r != nil {
		return r
	}

	if err := tx.Commit(); err != nil {
		return plmerr.Storage("commit transaction", err)
	}
	committed = true
	return nil
}
