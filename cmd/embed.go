package cmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadimpiven/reqmeta/pkg/resource"
)

var (
	embedGOOS         string
	embedGOARCH       string
	embedDir          string
	embedInternalName string
)

// now is replaced in tests.
var now = time.Now

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Write the Windows version resource for the package being built",
	Long: `Write a rsrc_windows_<arch>.syso object holding the version resource
(file and product version, company, copyright, product name and file names)
into the package directory. The Go linker picks it up only when building for
that target.

Intended for go generate:

	//go:generate go run github.com/vadimpiven/reqmeta embed

Targets other than Windows have no such resource; the command then does nothing.`,
	Args: noArgs,
	RunE: runEmbed,
}

func init() {
	f := embedCmd.Flags()
	f.StringVar(&embedGOOS, "goos", "", "Target OS (default $GOOS, else the host OS)")
	f.StringVar(&embedGOARCH, "goarch", "", "Target architecture (default $GOARCH, else the host architecture)")
	f.StringVar(&embedDir, "dir", ".", "Directory to write the object into")
	f.StringVar(&embedInternalName, "internal-name", "", "InternalName string (default product.internal_name, else $GOPACKAGE)")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	target := resource.Target{
		GOOS:   firstNonEmpty(embedGOOS, os.Getenv("GOOS"), runtime.GOOS),
		GOARCH: firstNonEmpty(embedGOARCH, os.Getenv("GOARCH"), runtime.GOARCH),
	}
	if !resource.CanEmbed(target) {
		logger.Debug("no version resource for target", zap.Stringer("target", target))
		return nil
	}

	_, v, err := currentVersion(cmd)
	if err != nil {
		return err
	}

	product := resource.Product{
		Name:         cfg.Product.Name,
		Company:      cfg.Product.Company,
		Description:  cfg.Product.Description,
		InternalName: firstNonEmpty(embedInternalName, cfg.Product.InternalName),
		Filename:     cfg.Product.Filename,
	}
	meta, err := resource.NewMetadata(product, v, now())
	if err != nil {
		return err
	}

	e := &resource.Embedder{Dir: embedDir, Target: target, Logger: logger}
	path, err := e.Embed(meta)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: version %s\n", path, resource.FourPart(v))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
