package cmd

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) {
	t.Helper()
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func TestEmbed_NonWindowsIsNoop(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, dir, "embed", "--goos", "linux", "--goarch", "amd64")
	require.NoError(t, err)
	assert.Empty(t, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmbed_Windows(t *testing.T) {
	fixedNow(t)
	dir := taggedRepo(t, "v1.0.82")

	out, _, err := execute(t, dir, "embed", "--from-git",
		"--goos", "windows", "--goarch", "amd64", "--internal-name", "node_reqwest")
	require.NoError(t, err)

	path := filepath.Join(".", "rsrc_windows_amd64.syso")
	assert.Equal(t, path+": version 1.0.82.0\n", out)

	object := readFile(t, filepath.Join(dir, "rsrc_windows_amd64.syso"))
	require.GreaterOrEqual(t, len(object), 2)
	assert.Equal(t, uint16(0x8664), binary.LittleEndian.Uint16([]byte(object[:2])))
}

func TestEmbed_TargetFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOOS", "windows")
	t.Setenv("GOARCH", "arm64")
	t.Setenv("GOPACKAGE", "addon")

	_, _, err := execute(t, dir, "embed")
	require.NoError(t, err)

	object := readFile(t, filepath.Join(dir, "rsrc_windows_arm64.syso"))
	assert.Equal(t, uint16(0xAA64), binary.LittleEndian.Uint16([]byte(object[:2])))
}

func TestEmbed_DirFlag(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "addon")
	require.NoError(t, os.Mkdir(out, 0o755))

	_, _, err := execute(t, dir, "embed",
		"--goos", "windows", "--goarch", "386", "--internal-name", "addon", "--dir", out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "rsrc_windows_386.syso"))
}

func TestEmbed_NoInternalName(t *testing.T) {
	t.Setenv("GOPACKAGE", "")

	_, _, err := execute(t, t.TempDir(), "embed", "--goos", "windows", "--goarch", "amd64")
	require.Error(t, err)
	assert.Equal(t, ExitResourceError, ExitCode(err))
}

func TestEmbed_UnsupportedArch(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, dir, "embed",
		"--goos", "windows", "--goarch", "riscv64", "--internal-name", "addon")
	require.Error(t, err)
	assert.Equal(t, ExitResourceError, ExitCode(err))
	assert.NoFileExists(t, filepath.Join(dir, "rsrc_windows_riscv64.syso"))
}
