package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/vadimpiven/reqmeta/pkg/semver"
)

// ErrDelegate is wrapped by errors from the delegated version tool.
var ErrDelegate = errors.New("delegated version tool failed")

// DefaultTool is the package manager invoked by Delegate.
const DefaultTool = "npm"

// Delegate sets the manifest version by running the package manager's
// "version" command in Dir:
//
//	npm version 1.2.3 --no-git-tag-version --allow-same-version --workspaces-update=false
//
// The command line goes through the platform shell (cmd /C on Windows,
// sh -c elsewhere) so that npm.cmd and shims on PATH resolve the same way
// they do for a user typing the command.
type Delegate struct {
	// Tool is the executable to run. Defaults to DefaultTool.
	Tool string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// GOOS selects the shell. Defaults to runtime.GOOS.
	GOOS string
	// Stdout receives the tool's standard output. Nil discards it.
	Stdout io.Writer
}

// Shell returns the shell argv prefix used for goos.
func Shell(goos string) []string {
	if goos == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// CommandLine returns the tool invocation that sets the version to v.
func (d *Delegate) CommandLine(v semver.Version) string {
	tool := d.Tool
	if tool == "" {
		tool = DefaultTool
	}
	return strings.Join([]string{
		tool, "version", v.String(),
		"--no-git-tag-version",
		"--allow-same-version",
		"--workspaces-update=false",
	}, " ")
}

// Argv returns the full argv, shell included, that sets the version to v.
func (d *Delegate) Argv(v semver.Version) []string {
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return append(Shell(goos), d.CommandLine(v))
}

// Sync implements Synchronizer. A non-zero exit is reported together with
// the command line, the version, and the tool's stderr.
func (d *Delegate) Sync(ctx context.Context, v semver.Version) error {
	argv := d.Argv(v)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = d.Dir
	var errOut bytes.Buffer
	cmd.Stdout = d.Stdout
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %q (applying version %s): %w\n%s",
			ErrDelegate, strings.Join(argv, " "), v, err, strings.TrimSpace(errOut.String()))
	}
	return nil
}
