// Package registry implements the repository state registry: the
// single process-wide slot holding, at most, one open repository's
// Broker and Git Backend, replaced atomically by open_repository,
// create_repository and close_repository.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/implexa/implexa/internal/diagnostics"
	"github.com/implexa/implexa/internal/gitbackend"
	"github.com/implexa/implexa/internal/lifecycle"
	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/storage/broker"
	"github.com/implexa/implexa/internal/storage/sqlite"
	"github.com/implexa/implexa/internal/watch"
)

// dbRelPath is the canonical location of a repository's metadata store,
// relative to the repository root.
const dbRelPath = "config/implexa.db"

// Registry holds the currently active repository, if any. On startup it
// is given an in-memory Broker so metadata-only commands (e.g. listing
// categories) work before any repository has been opened.
type Registry struct {
	mu sync.Mutex

	path    string // "" when only the in-memory bootstrap broker is active
	broker  *broker.Broker
	git     *gitbackend.Backend
	engine  *lifecycle.Engine
	watcher *watch.Watcher
}

// New constructs a Registry with the in-memory bootstrap broker already
// open and schema-initialized.
func New() (*Registry, error) {
	b, err := broker.OpenMemory()
	if err != nil {
		return nil, err
	}
	if err := sqlite.Initialize(b.DB()); err != nil {
		return nil, plmerr.Storage("initialize in-memory schema", err)
	}
	return &Registry{broker: b, engine: lifecycle.New(b, nil)}, nil
}

// Engine returns the active Lifecycle Engine. Its Git field is nil when
// no repository is open; callers attempting a repository-backed
// operation in that state get a clear State error rather than a nil
// pointer dereference (guarded in the Command Boundary).
func (r *Registry) Engine() *lifecycle.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine
}

// IsOpen reports whether a file-backed repository is currently active.
func (r *Registry) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path != ""
}

// Path returns the active repository's root, or "" if none is open.
func (r *Registry) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// CreateRepository initializes a new repository at path using the named
// directory template, then activates it.
func (r *Registry) CreateRepository(ctx context.Context, path, template string) error {
	git, err := gitbackend.Init(path, template)
	if err != nil {
		return err
	}
	return r.activate(ctx, path, git)
}

// OpenRepository activates an existing repository at path.
func (r *Registry) OpenRepository(ctx context.Context, path string) error {
	git, err := gitbackend.Open(path)
	if err != nil {
		return err
	}
	return r.activate(ctx, path, git)
}

func (r *Registry) activate(ctx context.Context, path string, git *gitbackend.Backend) error {
	dbPath := filepath.Join(path, dbRelPath)
	b, err := broker.OpenFile(dbPath)
	if err != nil {
		return err
	}
	if err := sqlite.Initialize(b.DB()); err != nil {
		_ = b.Close()
		return plmerr.Storage("initialize repository schema", err)
	}

	local := readLocalConfig(path)
	logPath := local.DiagnosticsLog
	if logPath == "" {
		logPath = filepath.Join(path, "config", "implexa-diagnostics.log")
	}
	diagnostics.Configure(logPath)

	if err := exportSeedConfig(path, b.DB()); err != nil {
		// Best-effort mirror of the catalog into config/ JSON; the
		// database remains authoritative either way.
		diagnostics.Record("config", "failed to export catalog to config/", err.Error())
	}

	var w *watch.Watcher
	if !local.WatchDisabled {
		w, err = watch.New(path, func(changed string) {
			diagnostics.Record("watch", "external change detected underneath open repository", changed)
		})
		if err != nil {
			// Best-effort: a watcher failing to start (e.g. inotify limits)
			// should not block opening the repository.
			diagnostics.Record("watch", "failed to start external-change watcher", err.Error())
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeActiveLocked()
	r.path = path
	r.broker = b
	r.git = git
	r.watcher = w
	r.engine = lifecycle.New(b, git)
	return nil
}

// CloseRepository reverts the Registry to a fresh in-memory Broker.
func (r *Registry) CloseRepository() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeActiveLocked()

	b, err := broker.OpenMemory()
	if err != nil {
		return err
	}
	if err := sqlite.Initialize(b.DB()); err != nil {
		return plmerr.Storage("initialize in-memory schema", err)
	}
	r.path = ""
	r.broker = b
	r.git = nil
	r.engine = lifecycle.New(b, nil)
	return nil
}

// closeActiveLocked releases the currently active file-backed broker and
// watcher, if any. Callers must hold r.mu.
func (r *Registry) closeActiveLocked() {
	if r.watcher != nil {
		_ = r.watcher.Close()
		r.watcher = nil
	}
	if r.path != "" && r.broker != nil {
		_ = r.broker.Close()
		_ = diagnostics.Close()
	}
}

// withConn exposes the active broker's underlying *sql.DB for
// diagnostic or maintenance call sites that must bypass the Broker's
// scoped-access discipline (e.g. health checks). Unexported: internal
// command-boundary helpers only.
func (r *Registry) withConn(f func(*sql.DB) error) error {
	r.mu.Lock()
	b := r.broker
	r.mu.Unlock()
	return f(b.DB())
}

// Doctor runs read-only cross-store consistency checks against the
// active stores and returns one finding per violated invariant. An
// empty slice means the stores agree. Findings are also appended to the
// diagnostic log, since the pre-commit hook discards stdout.
func (r *Registry) Doctor(ctx context.Context) ([]string, error) {
	var findings []string
	err := r.withConn(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT revision_id, status FROM revisions
			WHERE status IN ('Released','Obsolete') AND (commit_hash IS NULL OR commit_hash = '')
		`)
		if err != nil {
			return plmerr.Storage("doctor: query revisions", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			var status string
			if err := rows.Scan(&id, &status); err != nil {
				return plmerr.Storage("doctor: scan revision", err)
			}
			findings = append(findings,
				fmt.Sprintf("revision %d is %s but has no commit hash", id, status))
		}
		if err := rows.Err(); err != nil {
			return plmerr.Storage("doctor: iterate revisions", err)
		}

		var orphaned int
		if err := db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM parts p WHERE NOT EXISTS (SELECT 1 FROM revisions r WHERE r.part_id = p.part_id)
		`).Scan(&orphaned); err != nil {
			return plmerr.Storage("doctor: count revisionless parts", err)
		}
		if orphaned > 0 {
			findings = append(findings, fmt.Sprintf("%d part(s) have no revision at all", orphaned))
		}

		var next int64
		if err := db.QueryRowContext(ctx, `SELECT next_value FROM part_sequence WHERE id = 1`).Scan(&next); err != nil {
			return plmerr.Storage("doctor: read part_sequence", err)
		}
		if next < 10000 {
			findings = append(findings, fmt.Sprintf("part_sequence next_value is %d, below the 10000 floor", next))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, f := range findings {
		diagnostics.Record("integrity", "doctor", f)
	}
	return findings, nil
}
