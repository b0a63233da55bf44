// Package gitbackend implements the Git backend as
// consumed by the Lifecycle Engine: repository lifecycle, branch/
// commit/merge operations, LFS pattern tracking, and the hook/auth
// surfaces the engine needs. It wraps go-git/v5, the pure-Go Git
// implementation.
package gitbackend

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/implexa/implexa/internal/hooks"
	"github.com/implexa/implexa/internal/plmerr"
	"github.com/implexa/implexa/internal/template"
)

// MainBranch is the branch holding all released and obsolete content.
const MainBranch = "main"

// lfsPatterns are mirrored into .gitattributes on init.
var lfsPatterns = []string{"*.pdf", "*.png", "*.jpg", "*.step", "*.stl", "*.zip", "*.bin"}

// ConflictStrategy selects how MergeBranch resolves a path that differs
// on both sides of a merge.
type ConflictStrategy int

const (
	// Manual surfaces conflicts to the caller as a Conflict error. Used
	// by the Lifecycle Engine for every user-facing release merge.
	Manual ConflictStrategy = iota
	// Ours keeps the target branch's version of a conflicting path.
	// Used only by the engine's own metadata remerges, never on user
	// content.
	Ours
	// Theirs keeps the source branch's version of a conflicting path.
	Theirs
)

// MergeOutcome is the tagged result of MergeBranch.
type MergeOutcome int

const (
	FastForwarded MergeOutcome = iota
	NormalMerge
	ConflictsDetected
)

// MergeResult reports what MergeBranch did.
type MergeResult struct {
	Outcome       MergeOutcome
	CommitHash    string   // set for FastForwarded and NormalMerge
	ConflictPaths []string // set for ConflictsDetected
}

// Signature identifies the author/committer of commits this backend
// makes on the caller's behalf.
type Signature struct {
	Name  string
	Email string
}

// Backend is a handle on one open repository.
type Backend struct {
	repo *git.Repository
	path string
	sig  Signature
}

// committer returns the go-git signature to attach to commits this
// backend authors. A zero-value Signature falls back to a generic
// Implexa identity so Init/hook-install commits are always attributable.
func (b *Backend) committer() *object.Signature {
	name, email := b.sig.Name, b.sig.Email
	if name == "" {
		name = "implexa"
	}
	if email == "" {
		email = "implexa@localhost"
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// WithSignature returns a copy of b that attributes future commits to sig.
func (b *Backend) WithSignature(sig Signature) *Backend {
	clone := *b
	clone.sig = sig
	return &clone
}

// Path returns the repository's working-tree root.
func (b *Backend) Path() string { return b.path }

// Init creates a repository at path, materializes the chosen directory
// template, creates an initial commit, points HEAD at main, configures
// LFS patterns, and installs the default PLM hooks.
func Init(path, templateName string) (*Backend, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, plmerr.Backend(plmerr.BackendRepository, "init", path, err)
	}
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, plmerr.Backend(plmerr.BackendRepository, "init", path, err)
	}

	b := &Backend{repo: repo, path: path}

	if err := template.MaterializeRepo(path, templateName); err != nil {
		return nil, plmerr.Backend(plmerr.BackendRepository, "materialize template", path, err)
	}
	if err := b.configureLFS(); err != nil {
		return nil, err
	}
	if err := hooks.InstallDefault(path); err != nil {
		return nil, plmerr.Backend(plmerr.BackendHook, "install_default_plm_hooks", path, err)
	}

	if _, err := b.Commit("implexa: initial repository layout", nil); err != nil {
		return nil, err
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, plmerr.Backend(plmerr.BackendRepository, "resolve HEAD after init", path, err)
	}
	if headRef.Name().Short() != MainBranch {
		mainRef := plumbing.NewHashReference(plumbing.NewBranchReferenceName(MainBranch), headRef.Hash())
		if err := repo.Storer.SetReference(mainRef); err != nil {
			return nil, plmerr.Backend(plmerr.BackendBranch, "create main", path, err)
		}
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, mainRef.Name())); err != nil {
			return nil, plmerr.Backend(plmerr.BackendRepository, "point HEAD at main", path, err)
		}
	}

	return b, nil
}

// Open opens an existing repository and verifies it has LFS
// configuration.
func Open(path string) (*Backend, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, plmerr.Backend(plmerr.BackendRepository, "open", path, err)
	}
	b := &Backend{repo: repo, path: path}
	if _, err := os.Stat(filepath.Join(path, ".gitattributes")); err != nil {
		return nil, plmerr.Backend(plmerr.BackendLFS, "verify LFS attributes", path, err)
	}
	return b, nil
}

func (b *Backend) configureLFS() error {
	var sb []byte
	for _, pattern := range lfsPatterns {
		sb = append(sb, []byte(fmt.Sprintf("%s filter=lfs diff=lfs merge=lfs -text\n", pattern))...)
	}
	path := filepath.Join(b.path, ".gitattributes")
	if err := os.WriteFile(path, sb, 0o644); err != nil {
		return plmerr.Backend(plmerr.BackendLFS, "configure LFS", b.path, err)
	}
	return nil
}
