package config

import "testing"

func TestLoadCLIPrefsReturnsDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	prefs, err := LoadCLIPrefs()
	if err != nil {
		t.Fatalf("LoadCLIPrefs: %v", err)
	}
	if prefs.ColorMode != "auto" {
		t.Fatalf("expected default color mode %q, got %q", "auto", prefs.ColorMode)
	}
	if !prefs.ConfirmBeforeRelease {
		t.Fatalf("expected ConfirmBeforeRelease to default true")
	}
}

func TestSaveCLIPrefsRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	want := CLIPrefs{Editor: "vim", ColorMode: "always", ConfirmBeforeRelease: false}
	if err := SaveCLIPrefs(want); err != nil {
		t.Fatalf("SaveCLIPrefs: %v", err)
	}
	got, err := LoadCLIPrefs()
	if err != nil {
		t.Fatalf("LoadCLIPrefs: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
