package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CLIPrefs holds interactive-CLI preferences that are more naturally
// hand-edited than piped through viper's layered sources: editor,
// color mode, and a confirmation gate in front of release_revision.
// Persisted at ~/.config/implexa/cli.toml.
type CLIPrefs struct {
	Editor               string `toml:"editor"`
	ColorMode            string `toml:"color_mode"` // "auto" | "always" | "never"
	ConfirmBeforeRelease bool   `toml:"confirm_before_release"`
}

func cliPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "implexa", "cli.toml"), nil
}

// LoadCLIPrefs reads ~/.config/implexa/cli.toml, returning sane defaults
// if the file does not exist yet.
func LoadCLIPrefs() (CLIPrefs, error) {
	prefs := CLIPrefs{ColorMode: "auto", ConfirmBeforeRelease: true}
	path, err := cliPrefsPath()
	if err != nil {
		return prefs, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return prefs, nil
	}
	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// SaveCLIPrefs writes prefs to ~/.config/implexa/cli.toml, creating the
// directory if needed.
func SaveCLIPrefs(prefs CLIPrefs) error {
	path, err := cliPrefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(prefs)
}
