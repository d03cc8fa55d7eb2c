// Package config provides types and functions for loading, saving, and
// applying defaults to the reqmeta.yaml project configuration file, plus
// REQMETA_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = "reqmeta.yaml"

// Manifest synchronization strategies.
const (
	StrategyDirect   = "direct"
	StrategyDelegate = "delegate"
)

// ManifestConfig controls which manifest is synchronized and how.
type ManifestConfig struct {
	// Path is the manifest location relative to the working directory.
	Path string `yaml:"path"`
	// Strategy is StrategyDirect (rewrite the file) or StrategyDelegate
	// (run Tool's version command).
	Strategy string `yaml:"strategy"`
	Tool     string `yaml:"tool"`
}

// ProductConfig holds the static strings written into the Windows version
// resource.
type ProductConfig struct {
	Name        string `yaml:"name"`
	Company     string `yaml:"company"`
	Description string `yaml:"description,omitempty"`
	// InternalName overrides $GOPACKAGE.
	InternalName string `yaml:"internal_name,omitempty"`
	Filename     string `yaml:"filename"`
}

// RuntimeConfig tunes the Go runtime's allocation behaviour. Zero values
// leave the runtime defaults in place.
type RuntimeConfig struct {
	GCPercent   int    `yaml:"gc_percent,omitempty"`
	MemoryLimit string `yaml:"memory_limit,omitempty"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the contents of reqmeta.yaml.
type Config struct {
	Manifest ManifestConfig `yaml:"manifest"`
	Product  ProductConfig  `yaml:"product"`
	Runtime  RuntimeConfig  `yaml:"runtime,omitempty"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a Config populated with the defaults for the Node
// Reqwest addon.
func Default() Config {
	return Config{
		Manifest: ManifestConfig{
			Path:     "package.json",
			Strategy: StrategyDirect,
			Tool:     "npm",
		},
		Product: ProductConfig{
			Name:     "Node Reqwest",
			Company:  "Vadim Piven <vadim@piven.tech> (https://piven.tech)",
			Filename: "node_reqwest.node",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigPath returns the path to reqmeta.yaml given the project root.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigFileName)
}

// Load reads and parses reqmeta.yaml from the given project root.
// If the file does not exist, it returns a default Config and no error.
// Missing fields are filled with defaults after parsing.
func Load(projectRoot string) (Config, error) {
	path := ConfigPath(projectRoot)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save serialises cfg and writes it to reqmeta.yaml under the given
// project root.
func Save(projectRoot string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(projectRoot), data, 0o644)
}

// Validate reports settings that cannot be acted on.
func (c Config) Validate() error {
	switch c.Manifest.Strategy {
	case StrategyDirect, StrategyDelegate:
	default:
		return fmt.Errorf("manifest.strategy %q: want %q or %q",
			c.Manifest.Strategy, StrategyDirect, StrategyDelegate)
	}
	if c.Runtime.MemoryLimit != "" {
		if _, err := ParseBytes(c.Runtime.MemoryLimit); err != nil {
			return fmt.Errorf("runtime.memory_limit: %w", err)
		}
	}
	return nil
}

// Environment variables consulted by ApplyEnv.
const (
	EnvManifest  = "REQMETA_MANIFEST"
	EnvStrategy  = "REQMETA_STRATEGY"
	EnvTool      = "REQMETA_TOOL"
	EnvProduct   = "REQMETA_PRODUCT"
	EnvCompany   = "REQMETA_COMPANY"
	EnvFilename  = "REQMETA_FILENAME"
	EnvLogLevel  = "REQMETA_LOG_LEVEL"
	EnvLogFormat = "REQMETA_LOG_FORMAT"
)

// ApplyEnv loads .env from dir when present (existing variables win) and
// then overrides cfg with any REQMETA_* variables that are set.
func ApplyEnv(cfg *Config, dir string) error {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	overrides := []struct {
		name string
		dst  *string
	}{
		{EnvManifest, &cfg.Manifest.Path},
		{EnvStrategy, &cfg.Manifest.Strategy},
		{EnvTool, &cfg.Manifest.Tool},
		{EnvProduct, &cfg.Product.Name},
		{EnvCompany, &cfg.Product.Company},
		{EnvFilename, &cfg.Product.Filename},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.dst = v
		}
	}
	return cfg.Validate()
}

// applyDefaults fills in zero-value fields with defaults.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Manifest.Path == "" {
		cfg.Manifest.Path = def.Manifest.Path
	}
	if cfg.Manifest.Strategy == "" {
		cfg.Manifest.Strategy = def.Manifest.Strategy
	}
	if cfg.Manifest.Tool == "" {
		cfg.Manifest.Tool = def.Manifest.Tool
	}
	if cfg.Product.Name == "" {
		cfg.Product.Name = def.Product.Name
	}
	if cfg.Product.Company == "" {
		cfg.Product.Company = def.Product.Company
	}
	if cfg.Product.Filename == "" {
		cfg.Product.Filename = def.Product.Filename
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

// ParseBytes parses a size such as "512MiB", "2GB" or "1048576". Sizes
// that do not fit in an int64 are rejected.
func ParseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q exceeds %d bytes", s, int64(math.MaxInt64))
	}
	return int64(n), nil
}
