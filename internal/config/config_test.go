package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitializeAppliesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if GetString("output") != "table" {
		t.Fatalf("expected default output %q, got %q", "table", GetString("output"))
	}
	if GetString("default-template") != "standard" {
		t.Fatalf("expected default-template %q, got %q", "standard", GetString("default-template"))
	}
	if GetBool("confirm-before-release") != true {
		t.Fatalf("expected confirm-before-release default true")
	}
	if SourceOf("output") != SourceDefault {
		t.Fatalf("expected output to come from defaults, got %v", SourceOf("output"))
	}
}

func TestInitializeEnvVarOverridesDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("IMPLEXA_OUTPUT", "json")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if GetString("output") != "json" {
		t.Fatalf("expected env var to override default, got %q", GetString("output"))
	}
	if SourceOf("output") != SourceEnvVar {
		t.Fatalf("expected output to report SourceEnvVar, got %v", SourceOf("output"))
	}
}

func TestInitializeLocatesConfigFileInHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := os.MkdirAll(filepath.Join(home, ".implexa"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	configPath := filepath.Join(home, ".implexa", "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: json\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(oldwd)
	if err := os.Chdir(home); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if ConfigFileUsed() != configPath {
		t.Fatalf("expected ConfigFileUsed %q, got %q", configPath, ConfigFileUsed())
	}
	if GetString("output") != "json" {
		t.Fatalf("expected output from config file, got %q", GetString("output"))
	}
}
