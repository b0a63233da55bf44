package registry

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// localConfig is the subset of a repository's .implexa/config.yaml the
// registry consults at activation time. Read directly rather than
// through the process-wide viper stack: these keys are repository-local
// and must not leak into other repositories opened later in the same
// process.
type localConfig struct {
	DiagnosticsLog string `yaml:"diagnostics-log"`
	WatchDisabled  bool   `yaml:"watch-disabled"`
}

// readLocalConfig returns the repository-local overrides, or zero values
// when the file is absent or unparsable.
func readLocalConfig(repoRoot string) localConfig {
	var cfg localConfig
	data, err := os.ReadFile(filepath.Join(repoRoot, ".implexa", "config.yaml"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return localConfig{}
	}
	return cfg
}
