package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimpiven/reqmeta/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write reqmeta.yaml in the current directory",
	Long: `Write reqmeta.yaml in the current directory with the settings currently in
effect: the nearest parent reqmeta.yaml (or the defaults), REQMETA_* environment
variables, and the --manifest and --strategy flags.
Exits with an error if reqmeta.yaml already exists, unless --force is given.`,
	Args: noArgs,
	RunE: runInit,
}

func init() {
	f := initCmd.Flags()
	f.BoolVar(&initForce, "force", false, "Overwrite an existing reqmeta.yaml")
	f.StringVar(&manifestPath, "manifest", "", "Manifest path to record")
	f.StringVar(&strategy, "strategy", "", "Strategy to record: direct or delegate")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := config.ConfigPath(cwd)
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.New("already initialized: " + config.ConfigFileName + " already exists (use --force to overwrite)")
	}

	if err := config.Save(cwd, cfg); err != nil {
		return fmt.Errorf("write %s: %w", config.ConfigFileName, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
