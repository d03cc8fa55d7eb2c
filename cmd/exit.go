package cmd

import (
	"errors"

	"github.com/vadimpiven/reqmeta/internal/resolver"
	"github.com/vadimpiven/reqmeta/pkg/manifest"
	"github.com/vadimpiven/reqmeta/pkg/resource"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitPanic         = 3
	ExitConfigError   = 10
	ExitVCSError      = 11
	ExitManifestError = 12
	ExitResourceError = 13
)

// ExitCode returns the process exit code for an error returned by Execute.
// Returns ExitSuccess for nil and ExitGeneralError for unclassified errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage usageError
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, resolver.ErrDecode):
		return ExitVCSError
	case errors.Is(err, manifest.ErrRead),
		errors.Is(err, manifest.ErrParse),
		errors.Is(err, manifest.ErrWrite),
		errors.Is(err, manifest.ErrDelegate):
		return ExitManifestError
	case errors.Is(err, resource.ErrCompile),
		errors.Is(err, resource.ErrNoInternalName):
		return ExitResourceError
	}
	return ExitGeneralError
}
