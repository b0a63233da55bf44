// Package config holds process-level configuration for the implexa CLI:
// output style, default directory template, editor, and similar
// preferences that apply across whatever repository is currently open.
// This is distinct from a repository's own config/settings/*.json
// tree, which is metadata read and written by the Git Backend, not
// process configuration.
//
// Layering and env-var binding use viper, with an IMPLEXA_ prefix and
// values under .implexa/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Should be
// called once at process startup, before any Get* call.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := locateConfigFile(v)

	// Environment variables take precedence over the config file.
	// IMPLEXA_OUTPUT, IMPLEXA_NO_COLOR, IMPLEXA_DEFAULT_TEMPLATE, ...
	v.SetEnvPrefix("IMPLEXA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// locateConfigFile walks up from cwd looking for .implexa/config.yaml,
// then falls back to the user config dir, then the home directory.
func locateConfigFile(v *viper.Viper) bool {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			path := filepath.Join(dir, ".implexa", "config.yaml")
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				return true
			}
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(configDir, "implexa", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			return true
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".implexa", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "table") // table | json
	v.SetDefault("no-color", false)
	v.SetDefault("default-template", "standard")
	v.SetDefault("default-role", "Designer")
	v.SetDefault("editor", os.Getenv("EDITOR"))
	v.SetDefault("confirm-before-release", true)
	v.SetDefault("lock-timeout", "30s")

	// Git author override for commits implexa makes on the user's
	// behalf when no repo-local identity is configured.
	v.SetDefault("git.author", "")
	v.SetDefault("git.ssh-key", "")
	v.SetDefault("git.known-hosts", "")
}

func ensureInitialized() {
	if v == nil {
		_ = Initialize()
	}
}

func GetString(key string) string {
	ensureInitialized()
	return v.GetString(key)
}

func GetBool(key string) bool {
	ensureInitialized()
	return v.GetBool(key)
}

func GetInt(key string) int {
	ensureInitialized()
	return v.GetInt(key)
}

// ConfigSource identifies where an effective configuration value came
// from, so the CLI can explain overrides to the user.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
)

// SourceOf reports where key's effective value came from. Priority
// (highest to lowest): env var > config file > default.
func SourceOf(key string) ConfigSource {
	ensureInitialized()
	envKey := "IMPLEXA_" + strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), ".", "_"))
	if os.Getenv(envKey) != "" {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

// ConfigFileUsed returns the path of the config file that was loaded,
// or "" if none was found.
func ConfigFileUsed() string {
	ensureInitialized()
	return v.ConfigFileUsed()
}
