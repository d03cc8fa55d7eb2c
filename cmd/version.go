package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/vadimpiven/reqmeta/pkg/manifest"
	"github.com/vadimpiven/reqmeta/pkg/semver"
	"github.com/vadimpiven/reqmeta/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of reqmeta",
	Long: `Print the version of reqmeta and compare it with the version recorded in the
manifest of the current directory, when there is one.`,
	Args: noArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, version.String())

	built, release := version.Semver()
	if !release {
		fmt.Fprintln(out, "not a release build, manifests are stamped 0.0.0")
	}

	path := manifestFile()
	current, ok, err := manifest.ReadVersion(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case !ok:
		fmt.Fprintf(out, "%s: no version\n", cfg.Manifest.Path)
		return nil
	}

	recorded, parsed := semver.Parse("v" + current)
	if !parsed {
		fmt.Fprintf(out, "%s: version %q is not MAJOR.MINOR.PATCH\n", cfg.Manifest.Path, current)
		return nil
	}

	var state string
	switch recorded.Compare(built) {
	case 0:
		state = "up to date"
	case -1:
		state = "behind this build"
	default:
		state = "ahead of this build"
	}
	fmt.Fprintf(out, "%s: version %s (%s)\n", cfg.Manifest.Path, recorded, state)
	return nil
}
