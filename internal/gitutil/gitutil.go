// Package gitutil provides the read-only git queries used to derive a
// release version: repository detection, tag description, short commit
// hashes and the current branch. Queries run through the system git
// binary so that worktrees, safe.directory and other local configuration
// are honoured; repository discovery and staging use go-git.
package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNoResult is returned by a query that exited non-zero, could not be
// started, or printed nothing. Callers treat it as "try the next source".
var ErrNoResult = errors.New("git query returned no result")

// ErrInvalidOutput is returned when git printed something that is not
// valid UTF-8 text.
var ErrInvalidOutput = errors.New("git output is not valid UTF-8")

// IsRepo reports whether dir is inside a usable git checkout, i.e. whether
// git status succeeds there.
func IsRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "status")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// Query runs git with args in dir and returns its trimmed stdout.
//
// A non-zero exit, a failure to start git, or empty output yields an error
// wrapping ErrNoResult. Output that is not valid UTF-8 yields an error
// wrapping ErrInvalidOutput.
func Query(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	var errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (%v: %s)",
			strings.Join(args, " "), ErrNoResult, err, strings.TrimSpace(errOut.String()))
	}

	if !utf8.Valid(out.Bytes()) {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), ErrInvalidOutput)
	}

	result := strings.TrimSpace(out.String())
	if result == "" {
		return "", fmt.Errorf("git %s: %w (empty output)", strings.Join(args, " "), ErrNoResult)
	}
	return result, nil
}

// DescribeTags returns the nearest reachable tag as printed by
// git describe --tags, e.g. "v1.0.81" or "v1.0.81-2-ge6a4f89".
func DescribeTags(ctx context.Context, dir string) (string, error) {
	return Query(ctx, dir, "describe", "--tags")
}

// ShortCommit returns the abbreviated hash of the commit HEAD points to.
func ShortCommit(ctx context.Context, dir string) (string, error) {
	return Query(ctx, dir, "rev-parse", "--short", "HEAD^{commit}")
}

// CurrentBranch returns the name of the checked-out branch. A detached
// HEAD yields an error wrapping ErrNoResult.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	return Query(ctx, dir, "branch", "--show-current")
}

// GitDir returns the absolute path of the git directory (normally
// <root>/.git) of the repository containing dir.
func GitDir(dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("open git repository: %w", err)
	}

	if storage, ok := repo.Storer.(*filesystem.Storage); ok {
		return filepath.Abs(storage.Filesystem().Root())
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}
	return filepath.Join(worktree.Filesystem.Root(), ".git"), nil
}

// Add stages the file at filePath in the git repository that contains
// projectRoot. filePath must be an absolute path; it is converted to a
// path relative to the repository worktree root before staging.
//
// Staging is best-effort: callers report a non-nil error as a warning and
// still consider the file update successful.
func Add(projectRoot, filePath string) error {
	repo, err := gogit.PlainOpenWithOptions(projectRoot, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return fmt.Errorf("open git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	repoRoot := worktree.Filesystem.Root()
	rel, err := filepath.Rel(repoRoot, filePath)
	if err != nil {
		return fmt.Errorf("compute relative path: %w", err)
	}

	if _, err := worktree.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("git add %s: %w", rel, err)
	}

	return nil
}
