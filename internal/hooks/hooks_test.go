package hooks

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestInstallDefault(t *testing.T) {
	repo := t.TempDir()
	if err := InstallDefault(repo); err != nil {
		t.Fatalf("InstallDefault: %v", err)
	}

	for _, name := range []string{"pre-commit", "post-commit"} {
		path := filepath.Join(repo, ".git", "hooks", name)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if runtime.GOOS != "windows" && info.Mode()&0111 == 0 {
			t.Errorf("%s is not executable", name)
		}
	}
}

func TestInstallDefault_Idempotent(t *testing.T) {
	repo := t.TempDir()
	if err := InstallDefault(repo); err != nil {
		t.Fatalf("first InstallDefault: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(repo, ".git", "hooks", "pre-commit"))
	if err != nil {
		t.Fatal(err)
	}
	if err := InstallDefault(repo); err != nil {
		t.Fatalf("second InstallDefault: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(repo, ".git", "hooks", "pre-commit"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("reinstalling changed the hook contents")
	}
}

func TestInstallDefault_DoesNotClobberForeignHook(t *testing.T) {
	repo := t.TempDir()
	dir := filepath.Join(repo, ".git", "hooks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	foreign := "#!/bin/sh\necho someone else's hook\n"
	if err := os.WriteFile(filepath.Join(dir, "pre-commit"), []byte(foreign), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := InstallDefault(repo); err != nil {
		t.Fatalf("InstallDefault: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "pre-commit"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != foreign {
		t.Error("InstallDefault overwrote a pre-existing foreign hook")
	}
}

func TestRunner_HookExists(t *testing.T) {
	repo := t.TempDir()
	r := NewRunner(repo)
	if r.HookExists(EventPreRelease) {
		t.Error("HookExists true before hook is installed")
	}

	hookDir := filepath.Join(repo, "config", "hooks")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(filepath.Join(hookDir, EventPreRelease), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	if !r.HookExists(EventPreRelease) {
		t.Error("HookExists false after hook is installed")
	}
}

func TestRunner_RunSync_NoHook(t *testing.T) {
	r := NewRunner(t.TempDir())
	if err := r.RunSync(EventPreRelease, "/irrelevant"); err != nil {
		t.Errorf("RunSync with no hook registered should be a no-op, got %v", err)
	}
}

func TestRunner_RunSync_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script hooks assume a POSIX shell")
	}
	repo := t.TempDir()
	hookDir := filepath.Join(repo, "config", "hooks")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, EventPreRelease), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(repo)
	if err := r.RunSync(EventPreRelease, repo); err != nil {
		t.Errorf("RunSync: %v", err)
	}
}

func TestRunner_RunSync_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script hooks assume a POSIX shell")
	}
	repo := t.TempDir()
	hookDir := filepath.Join(repo, "config", "hooks")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, EventPreRelease), []byte("#!/bin/sh\nsleep 5\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(repo)
	r.timeout = 100 * time.Millisecond

	start := time.Now()
	err := r.RunSync(EventPreRelease, repo)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("RunSync took %v, expected it to return shortly after the timeout", elapsed)
	}
}
