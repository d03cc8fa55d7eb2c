// Package project provides utilities for locating the directory whose
// reqmeta.yaml applies to the current working directory.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/vadimpiven/reqmeta/pkg/config"
)

// ErrNoConfig is returned when no reqmeta.yaml can be found by walking up
// the directory tree.
var ErrNoConfig = errors.New("no " + config.ConfigFileName + " found in any parent directory")

// findRootFrom walks up the directory tree from dir until it finds a
// directory containing reqmeta.yaml, then returns that directory. Returns
// ErrNoConfig if not found.
func findRootFrom(dir string) (string, error) {
	current := filepath.Clean(dir)
	for {
		candidate := config.ConfigPath(current)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached the filesystem root without finding reqmeta.yaml.
			return "", ErrNoConfig
		}
		current = parent
	}
}

// LoadConfig loads the configuration that applies to dir: the nearest
// reqmeta.yaml at or above dir, or the defaults when there is none.
// REQMETA_* environment variables (and a .env file in dir) override it.
func LoadConfig(dir string) (config.Config, error) {
	cfg := config.Default()
	root, err := findRootFrom(dir)
	switch {
	case err == nil:
		cfg, err = config.Load(root)
		if err != nil {
			return config.Config{}, err
		}
	case !errors.Is(err, ErrNoConfig):
		return config.Config{}, err
	}

	if err := config.ApplyEnv(&cfg, dir); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
