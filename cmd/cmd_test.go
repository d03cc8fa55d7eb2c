package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vadimpiven/reqmeta/internal/gitutil/gittest"
	"github.com/vadimpiven/reqmeta/pkg/config"
)

// resetFlags restores every flag variable to its default so that
// consecutive Execute calls in one test binary do not leak state.
func resetFlags() {
	verbose, logFormat, fromGit = false, "", false
	manifestPath, strategy, stage = "", "", false
	initForce = false
	resolveOutput, resolveStamp, resolveSemver = "", "", false
	embedGOOS, embedGOARCH, embedDir, embedInternalName = "", "", ".", ""

	// pflag keeps parsed values between runs; --help would stick.
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
}

// clearEnv unsets every REQMETA_* override and restores the original
// environment when the test ends, including variables loaded from .env.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvManifest, config.EnvStrategy, config.EnvTool,
		config.EnvProduct, config.EnvCompany, config.EnvFilename,
		config.EnvLogLevel, config.EnvLogFormat,
	} {
		orig, ok := os.LookupEnv(name)
		require.NoError(t, os.Unsetenv(name))
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(name, orig)
			} else {
				_ = os.Unsetenv(name)
			}
		})
	}
}

// execute runs the root command in dir with args and returns what it
// wrote to stdout and stderr.
func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)
	gittest.Chdir(t, dir)
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// taggedRepo returns a repository whose HEAD carries tag.
func taggedRepo(t *testing.T, tag string) string {
	t.Helper()
	gittest.RequireGit(t)
	dir := gittest.Init(t)
	gittest.Commit(t, dir, "initial")
	gittest.Tag(t, dir, tag)
	return dir
}
