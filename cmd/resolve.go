package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadimpiven/reqmeta/internal/fsutil"
	"github.com/vadimpiven/reqmeta/internal/resolver"
	"github.com/vadimpiven/reqmeta/pkg/semver"
)

var (
	resolveOutput string
	resolveStamp  string
	resolveSemver bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the version of the current checkout",
	Long: `Resolve the version of the git checkout in the current directory: the
nearest tag reachable from HEAD, else the short commit hash, else "undefined".

With --output the version is written to a file (only when it changed), which is
how go generate refreshes pkg/version/version.txt. With --stamp the files whose
change should trigger regeneration are listed, one "rerun-if-changed=<path>"
line each.`,
	Args: noArgs,
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringVarP(&resolveOutput, "output", "o", "", "Write the version to this file instead of stdout")
	f.StringVar(&resolveStamp, "stamp", "", "Write rebuild triggers to this file")
	f.BoolVar(&resolveSemver, "semver", false, "Print the parsed MAJOR.MINOR.PATCH (0.0.0 when not a release tag)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	opts := resolver.Options{Logger: logger}

	var stamp bytes.Buffer
	if resolveStamp != "" {
		opts.Tracker = resolver.NewStampWriter(&stamp)
	}

	raw, err := resolver.Resolve(cmd.Context(), cwd, opts)
	if err != nil {
		return fmt.Errorf("resolve version: %w", err)
	}

	if resolveStamp != "" {
		if err := fsutil.WriteFileAtomic(resolveStamp, stamp.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write rebuild triggers: %w", err)
		}
	}

	out := raw
	if resolveSemver {
		v, ok := semver.Parse(raw)
		if !ok {
			logger.Warn("version is not a release tag, using 0.0.0", zap.String("raw", raw))
		}
		out = v.String()
	}

	if resolveOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	changed, err := writeIfChanged(resolveOutput, out+"\n")
	if err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	logger.Debug("resolved version",
		zap.String("version", out),
		zap.String("output", resolveOutput),
		zap.Bool("changed", changed))
	return nil
}

// writeIfChanged writes content to path unless the file already holds
// exactly that content, so that generated files keep their mtime.
func writeIfChanged(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if string(existing) == content {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
