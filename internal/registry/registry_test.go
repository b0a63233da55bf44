package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/implexa/implexa/internal/types"
)

func testUser() types.User { return types.User{Username: "alice", Role: types.RoleDesigner} }

func TestNewStartsWithInMemoryBroker(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.IsOpen() {
		t.Fatalf("expected no repository to be open at startup")
	}
	if r.Path() != "" {
		t.Fatalf("expected an empty Path before any repository is opened")
	}
	if r.Engine() == nil {
		t.Fatalf("expected the bootstrap Engine to be usable for metadata-only queries")
	}
}

func TestCreateRepositoryCreatesOnlyExpectedFiles(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	repoPath := filepath.Join(dir, "repo")

	if err := r.CreateRepository(context.Background(), repoPath, "standard"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
	if !r.IsOpen() {
		t.Fatalf("expected the registry to be open after create_repository")
	}
	if r.Path() != repoPath {
		t.Fatalf("expected Path() == %q, got %q", repoPath, r.Path())
	}
	if _, err := os.Stat(filepath.Join(repoPath, "config", "implexa.db")); err != nil {
		t.Fatalf("expected config/implexa.db to exist: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 1 || entries[0].Name() != "repo" {
		t.Fatalf("expected only repo/ beside the new repository, got %v", entries)
	}
}

func TestCloseRepositoryRevertsToInMemoryBroker(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repoPath := filepath.Join(t.TempDir(), "repo")
	if err := r.CreateRepository(context.Background(), repoPath, "minimal"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}
	if err := r.CloseRepository(); err != nil {
		t.Fatalf("CloseRepository: %v", err)
	}
	if r.IsOpen() {
		t.Fatalf("expected no repository open after close_repository")
	}
	if r.Path() != "" {
		t.Fatalf("expected an empty Path after close_repository")
	}
	if r.Engine() == nil {
		t.Fatalf("expected a usable in-memory Engine after close_repository")
	}
}

func TestOpenRepositoryReopensExistingRepository(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repoPath := filepath.Join(t.TempDir(), "repo")
	ctx := context.Background()
	if err := r.CreateRepository(ctx, repoPath, "minimal"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}

	part, _, err := r.Engine().CreatePart(ctx, testUser(), "EL", "RES", "10k resistor", "")
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if err := r.CloseRepository(); err != nil {
		t.Fatalf("CloseRepository: %v", err)
	}
	if err := r.OpenRepository(ctx, repoPath); err != nil {
		t.Fatalf("OpenRepository: %v", err)
	}

	got, err := r.Engine().Parts.Get(ctx, part.PartID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Name != part.Name {
		t.Fatalf("expected the same part to be readable after reopening, got %+v", got)
	}
}

func TestCreateRepositoryWritesConfigTree(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repoPath := filepath.Join(t.TempDir(), "repo")
	if err := r.CreateRepository(context.Background(), repoPath, "standard"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}

	for _, rel := range []string{
		filepath.Join("config", "categories", "categories.json"),
		filepath.Join("config", "categories", "subcategories.json"),
		filepath.Join("config", "workflows", "default.json"),
		filepath.Join("config", "directory-templates", "standard.json"),
		filepath.Join("config", "settings", "app.json"),
		".gitignore",
	} {
		if _, err := os.Stat(filepath.Join(repoPath, rel)); err != nil {
			t.Fatalf("expected %s to exist after create_repository: %v", rel, err)
		}
	}
}

func TestDoctorReportsMissingCommitHash(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repoPath := filepath.Join(t.TempDir(), "repo")
	ctx := context.Background()
	if err := r.CreateRepository(ctx, repoPath, "minimal"); err != nil {
		t.Fatalf("CreateRepository: %v", err)
	}

	findings, err := r.Doctor(ctx)
	if err != nil {
		t.Fatalf("Doctor on a fresh repository: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings on a fresh repository, got %v", findings)
	}

	_, rev, err := r.Engine().CreatePart(ctx, testUser(), "EL", "RES", "10k resistor", "")
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	// Force the cross-store invariant violation doctor exists to catch:
	// a Released revision with no commit hash.
	if _, err := r.Engine().Broker.DB().Exec(
		`UPDATE revisions SET status = 'Released' WHERE revision_id = ?`, rev.RevisionID); err != nil {
		t.Fatalf("corrupt revision: %v", err)
	}

	findings, err = r.Doctor(ctx)
	if err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected exactly one finding, got %v", findings)
	}
}

func TestReadLocalConfig(t *testing.T) {
	root := t.TempDir()
	if cfg := readLocalConfig(root); cfg.DiagnosticsLog != "" || cfg.WatchDisabled {
		t.Fatalf("expected zero values with no .implexa/config.yaml, got %+v", cfg)
	}

	if err := os.MkdirAll(filepath.Join(root, ".implexa"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "diagnostics-log: /tmp/implexa.log\nwatch-disabled: true\n"
	if err := os.WriteFile(filepath.Join(root, ".implexa", "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := readLocalConfig(root)
	if cfg.DiagnosticsLog != "/tmp/implexa.log" || !cfg.WatchDisabled {
		t.Fatalf("unexpected local config: %+v", cfg)
	}
}
