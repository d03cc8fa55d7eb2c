// Package cmd implements the reqmeta CLI commands using the cobra framework.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadimpiven/reqmeta/internal/gitutil"
	"github.com/vadimpiven/reqmeta/internal/logging"
	"github.com/vadimpiven/reqmeta/internal/project"
	"github.com/vadimpiven/reqmeta/internal/resolver"
	"github.com/vadimpiven/reqmeta/internal/runtimecfg"
	"github.com/vadimpiven/reqmeta/pkg/config"
	"github.com/vadimpiven/reqmeta/pkg/manifest"
	"github.com/vadimpiven/reqmeta/pkg/semver"
	"github.com/vadimpiven/reqmeta/pkg/version"
)

// Persistent flags.
var (
	verbose   bool
	logFormat string
	fromGit   bool
)

// Root command flags.
var (
	manifestPath string
	strategy     string
	stage        bool
)

// State prepared by setup for every command.
var (
	cfg    config.Config
	logger = zap.NewNop()
	cwd    string
)

var rootCmd = &cobra.Command{
	Use:   "reqmeta",
	Short: "Stamp the git-derived release version into package.json",
	Long: `reqmeta derives the release version from git (the nearest tag, else the
short commit hash, else "undefined") and writes it into the package.json in
the current directory. Only the "version" member changes; every other member
and the member order are kept.

By default the version is the one this binary was built from. Use --from-git
to resolve it from the current checkout instead. A version that is not a
vMAJOR.MINOR.PATCH tag is written as 0.0.0.

Settings are read from the nearest reqmeta.yaml, then REQMETA_* environment
variables (and .env), then flags.`,
	Args:              noArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSync,
}

// Execute runs the root command and returns the first fatal error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log every resolution step")
	pf.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	pf.BoolVar(&fromGit, "from-git", false, "Resolve the version from the current checkout instead of the built-in one")

	f := rootCmd.Flags()
	f.StringVar(&manifestPath, "manifest", "", "Manifest to update (default from config: package.json)")
	f.StringVar(&strategy, "strategy", "", "How to update the manifest: direct or delegate")
	f.BoolVar(&stage, "stage", false, "git add the manifest after updating it")
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

// setup loads configuration, builds the logger and applies the runtime
// policy before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("%w: working directory: %w", errConfig, err)
	}
	cwd = dir

	loaded, err := project.LoadConfig(cwd)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	if manifestPath != "" {
		loaded.Manifest.Path = manifestPath
	}
	if strategy != "" {
		loaded.Manifest.Strategy = strategy
	}
	if logFormat != "" {
		loaded.Log.Format = logFormat
	}
	if verbose {
		loaded.Log.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	logger, err = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	applied, err := runtimecfg.Apply(cfg.Runtime)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	if applied != (runtimecfg.Applied{}) {
		logger.Debug("applied runtime policy",
			zap.Int("gc_percent", applied.GCPercent),
			zap.Int64("memory_limit", applied.MemoryLimit))
	}
	return nil
}

// currentVersion returns the raw version and its parsed form, or 0.0.0
// when the raw version is not a release tag.
func currentVersion(cmd *cobra.Command) (string, semver.Version, error) {
	raw := version.Raw()
	if fromGit {
		resolved, err := resolver.Resolve(cmd.Context(), cwd, resolver.Options{Logger: logger})
		if err != nil {
			return "", semver.Version{}, fmt.Errorf("resolve version: %w", err)
		}
		raw = resolved
	}

	v, ok := semver.Parse(raw)
	if !ok {
		logger.Warn("version is not a release tag, using 0.0.0", zap.String("raw", raw))
	}
	return raw, v, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	raw, v, err := currentVersion(cmd)
	if err != nil {
		return err
	}

	path := manifestFile()

	var sync manifest.Synchronizer
	switch cfg.Manifest.Strategy {
	case config.StrategyDelegate:
		sync = &manifest.Delegate{
			Tool:   cfg.Manifest.Tool,
			Dir:    filepath.Dir(path),
			Stdout: cmd.ErrOrStderr(),
		}
	default:
		sync = manifest.NewDirect(path)
	}

	logger.Debug("synchronizing manifest",
		zap.String("path", path),
		zap.String("strategy", cfg.Manifest.Strategy),
		zap.String("raw", raw),
		zap.Stringer("version", v))
	if err := sync.Sync(cmd.Context(), v); err != nil {
		return fmt.Errorf("synchronize manifest: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: version %s\n", cfg.Manifest.Path, v)

	if stage {
		if err := gitutil.Add(cwd, path); err != nil {
			logger.Warn("git add failed, stage the manifest manually", zap.Error(err))
		}
	}
	return nil
}

// manifestFile returns the configured manifest path resolved against the
// working directory.
func manifestFile() string {
	if filepath.IsAbs(cfg.Manifest.Path) {
		return cfg.Manifest.Path
	}
	return filepath.Join(cwd, cfg.Manifest.Path)
}

// usageError marks errors caused by invalid arguments or flags.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// errConfig is wrapped by configuration failures.
var errConfig = errors.New("invalid configuration")
