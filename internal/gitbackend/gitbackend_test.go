package gitbackend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitMaterializesTemplateAndLFS(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitattributes")); err != nil {
		t.Fatalf("expected .gitattributes to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "design")); err != nil {
		t.Fatalf("expected the minimal template's design/ directory: %v", err)
	}
	branch, err := b.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != MainBranch {
		t.Fatalf("expected HEAD to point at %q after init, got %q", MainBranch, branch)
	}
}

func TestOpenVerifiesLFSConfiguration(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir, "minimal"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := Open(dir); err != nil {
		t.Fatalf("Open: %v", err)
	}

	empty := t.TempDir()
	if _, err := Open(empty); err == nil {
		t.Fatalf("expected Open to fail against a non-repository directory")
	}
}

func TestCreateBranchAndCheckout(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := b.CreateBranch("part/EL-RES-10000/v1/draft", MainBranch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if !b.BranchExists("part/EL-RES-10000/v1/draft") {
		t.Fatalf("expected the new branch to exist")
	}
	if err := b.CheckoutBranch("part/EL-RES-10000/v1/draft"); err != nil {
		t.Fatalf("CheckoutBranch: %v", err)
	}
	got, err := b.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if got != "part/EL-RES-10000/v1/draft" {
		t.Fatalf("expected to be checked out on the draft branch, got %q", got)
	}
}

func TestCommitIsNoopWhenWorktreeClean(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	head, err := b.BranchHead(MainBranch)
	if err != nil {
		t.Fatalf("BranchHead: %v", err)
	}
	hash, err := b.Commit("no-op commit", nil)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash != head {
		t.Fatalf("expected a clean-worktree commit to return the existing HEAD, got %q want %q", hash, head)
	}
}

func TestCommitWritesAndReturnsNewHash(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	head, err := b.BranchHead(MainBranch)
	if err != nil {
		t.Fatalf("BranchHead: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "design", "note.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	hash, err := b.Commit("add note", nil)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash == head {
		t.Fatalf("expected a new commit hash after writing a file")
	}
}

func TestMergeBranchFastForwards(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := b.CreateBranch("part/EL-RES-10000/v1/draft", MainBranch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := b.CheckoutBranch("part/EL-RES-10000/v1/draft"); err != nil {
		t.Fatalf("CheckoutBranch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "design", "part.txt"), []byte("spec"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := b.Commit("add part file", nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	result, err := b.MergeBranch("part/EL-RES-10000/v1/draft", MainBranch, "merge draft", Manual)
	if err != nil {
		t.Fatalf("MergeBranch: %v", err)
	}
	if result.Outcome != FastForwarded {
		t.Fatalf("expected a fast-forward merge, got %v", result.Outcome)
	}
	if result.CommitHash == "" {
		t.Fatalf("expected a commit hash on the merge result")
	}
}

func TestMergeBranchDetectsConflicts(t *testing.T) {
	dir := t.TempDir()
	b, err := Init(dir, "minimal")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := b.CreateBranch("branch-a", MainBranch); err != nil {
		t.Fatalf("CreateBranch a: %v", err)
	}
	if err := b.CreateBranch("branch-b", MainBranch); err != nil {
		t.Fatalf("CreateBranch b: %v", err)
	}

	if err := b.CheckoutBranch("branch-a"); err != nil {
		t.Fatalf("checkout a: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "design", "shared.txt"), []byte("from-a"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if _, err := b.Commit("a changes shared.txt", nil); err != nil {
		t.Fatalf("commit a: %v", err)
	}

	if err := b.CheckoutBranch("branch-b"); err != nil {
		t.Fatalf("checkout b: %v", err)
	}
	// Leaving branch-a removed design/shared.txt and, with it, the empty design/ directory.
	if err := os.MkdirAll(filepath.Join(dir, "design"), 0o755); err != nil {
		t.Fatalf("recreate design/: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "design", "shared.txt"), []byte("from-b"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if _, err := b.Commit("b changes shared.txt", nil); err != nil {
		t.Fatalf("commit b: %v", err)
	}

	if err := b.CheckoutBranch(MainBranch); err != nil {
		t.Fatalf("checkout main: %v", err)
	}
	if _, err := b.MergeBranch("branch-a", MainBranch, "merge a", Manual); err != nil {
		t.Fatalf("merge a into main: %v", err)
	}

	result, err := b.MergeBranch("branch-b", MainBranch, "merge b", Manual)
	if err != nil {
		t.Fatalf("MergeBranch b: %v", err)
	}
	if result.Outcome != ConflictsDetected {
		t.Fatalf("expected a conflict merging branch-b into main, got %v", result.Outcome)
	}
	found := false
	for _, p := range result.ConflictPaths {
		if p == "design/shared.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected design/shared.txt among conflict paths, got %v", result.ConflictPaths)
	}
}
