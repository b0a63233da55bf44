package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/implexa/implexa/internal/config"
	"github.com/implexa/implexa/internal/types"
)

// currentUser resolves the actor behind the current invocation: --user/
// --role flags first, then git config user.name, then $USER, then the
// configured default role.
func currentUser() types.User {
	name := userFlag
	if name == "" {
		name = gitConfigValue("user.name")
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "unknown"
	}

	role := types.Role(roleFlag)
	if role == "" {
		role = types.Role(config.GetString("default-role"))
	}
	switch role {
	case types.RoleDesigner, types.RoleViewer, types.RoleAdmin:
	default:
		role = types.RoleDesigner
	}

	return types.User{Username: name, Role: role}
}

// resolveRepository picks the repository root for this invocation:
// --repo flag, then IMPLEXA_REPO, then the nearest ancestor of the
// working directory containing config/implexa.db. Returns "" when no
// repository is found, leaving the in-memory bootstrap store active.
func resolveRepository() string {
	if repoFlag != "" {
		return repoFlag
	}
	if env := os.Getenv("IMPLEXA_REPO"); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "config", "implexa.db")); err == nil {
			return dir
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

// gitConfigValue shells out to git for a config key, delegating
// identity resolution to git rather than reimplementing its
// config-file precedence.
func gitConfigValue(key string) string {
	out, err := exec.Command("git", "config", "--get", key).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// printResult renders v as JSON when --json is set, otherwise delegates
// to render for a human-readable table/summary.
func printResult(v any, render func()) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	render()
}

func parseInt64(s, field string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", field, err)
	}
	return n, nil
}

// parseOptionalInt64 returns nil for an empty flag value, the parsed
// int64 otherwise. Used for owner flags (--part-id/--revision-id) that
// are mutually exclusive.
func parseOptionalInt64(raw string) *int64 {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
