// Package config loads the optional .shuttlerc.yaml settings file from the
// workspace root.
//
// Grounded on AleutianLocal's cmd/aleutian/config/loader.go: read-file-then
// yaml.Unmarshal-into-struct, with a typed default returned when the file
// is absent rather than an error (command-line flags remain the primary
// configuration surface; this file only supplies defaults for them).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = ".shuttlerc.yaml"

// Config holds the settings a workspace may override via .shuttlerc.yaml.
// Concurrency is overridden by --concurrency when that flag is above zero;
// PackageManager replaces the detected package manager for builds;
// IgnoreGlobs are added to watch's ignore list. Neither of the latter two
// has a flag. LogLevel is parsed but does not set the logger's level, which
// comes only from --log-level or SHUTTLE_LOG_LEVEL.
type Config struct {
	Concurrency    int      `yaml:"concurrency,omitempty"`
	PackageManager string   `yaml:"packageManager,omitempty"`
	IgnoreGlobs    []string `yaml:"ignoreGlobs,omitempty"`
	LogLevel       string   `yaml:"logLevel,omitempty"`
}

// Default returns the configuration used when no .shuttlerc.yaml is present.
func Default() Config {
	return Config{
		Concurrency: 4,
		LogLevel:    "info",
	}
}

// Load reads .shuttlerc.yaml from root, if present, merging it over Default.
// A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", fileName, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", fileName, err)
	}

	return cfg, nil
}
