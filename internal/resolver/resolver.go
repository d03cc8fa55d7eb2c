// Package resolver derives the raw release version of a checkout: the
// nearest git tag, else the short commit hash, else the sentinel
// "undefined". Every lookup failure falls through to the next source;
// only undecodable git output and failures to record rebuild triggers are
// errors.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vadimpiven/reqmeta/internal/gitutil"
)

// Sentinel is the raw version reported when no usable git context exists.
const Sentinel = "undefined"

// ErrDecode is returned when a git query printed output that is not valid
// text.
var ErrDecode = gitutil.ErrInvalidOutput

// Tracker records repository paths whose modification should cause the
// version to be resolved again (HEAD moved, branch advanced, tag added).
type Tracker interface {
	Track(path string) error
}

// TrackerFunc adapts a function to the Tracker interface.
type TrackerFunc func(path string) error

// Track calls f(path).
func (f TrackerFunc) Track(path string) error { return f(path) }

// StampWriter is a Tracker that writes one "rerun-if-changed=<path>" line
// per tracked path, for consumption by make or a build wrapper.
type StampWriter struct {
	w io.Writer
}

// NewStampWriter returns a StampWriter writing to w.
func NewStampWriter(w io.Writer) *StampWriter {
	return &StampWriter{w: w}
}

// Track writes the trigger line for path.
func (s *StampWriter) Track(path string) error {
	_, err := fmt.Fprintf(s.w, "rerun-if-changed=%s\n", path)
	return err
}

// Options configures a resolution.
type Options struct {
	// Tracker receives rebuild triggers. Nil disables the bookkeeping.
	Tracker Tracker
	// Logger receives debug output for each rung of the ladder. Nil
	// means no logging.
	Logger *zap.Logger
}

// Resolve returns the raw version for the checkout containing dir.
//
// The ladder is:
//  1. not inside a usable repository: Sentinel
//  2. git describe --tags succeeds: its output, which may carry a
//     "-N-gHASH" distance suffix when HEAD is past the tag
//  3. git rev-parse --short succeeds: the short hash
//  4. otherwise: Sentinel
//
// Before querying, the repository's HEAD, current branch ref and tags
// directory are reported to opts.Tracker when they exist.
func Resolve(ctx context.Context, dir string, opts Options) (string, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if !gitutil.IsRepo(ctx, dir) {
		log.Debug("not a git repository, using sentinel", zap.String("dir", dir))
		return Sentinel, nil
	}

	if opts.Tracker != nil {
		if err := trackRefs(ctx, dir, opts.Tracker, log); err != nil {
			return "", err
		}
	}

	tag, err := gitutil.DescribeTags(ctx, dir)
	switch {
	case err == nil:
		log.Debug("resolved version from tag", zap.String("tag", tag))
		return tag, nil
	case errors.Is(err, ErrDecode):
		return "", fmt.Errorf("describe tags in %s: %w", dir, err)
	default:
		log.Debug("no tag found", zap.Error(err))
	}

	hash, err := gitutil.ShortCommit(ctx, dir)
	switch {
	case err == nil:
		log.Debug("resolved version from commit hash", zap.String("hash", hash))
		return hash, nil
	case errors.Is(err, ErrDecode):
		return "", fmt.Errorf("short commit hash in %s: %w", dir, err)
	default:
		log.Debug("no commit found, using sentinel", zap.Error(err))
	}

	return Sentinel, nil
}

// Triggers returns the rebuild trigger paths for the checkout containing
// dir without resolving a version. It returns nil outside a repository.
func Triggers(ctx context.Context, dir string) ([]string, error) {
	if !gitutil.IsRepo(ctx, dir) {
		return nil, nil
	}
	var paths []string
	err := trackRefs(ctx, dir, TrackerFunc(func(path string) error {
		paths = append(paths, path)
		return nil
	}), zap.NewNop())
	return paths, err
}

// trackRefs reports HEAD, refs/heads/<branch> and refs/tags under the git
// directory. Paths that do not exist, or a git directory that cannot be
// located, are skipped; tracker write failures are returned.
func trackRefs(ctx context.Context, dir string, tracker Tracker, log *zap.Logger) error {
	gitDir, err := gitutil.GitDir(dir)
	if err != nil {
		log.Debug("git directory not found, skipping rebuild triggers", zap.Error(err))
		return nil
	}

	candidates := []string{filepath.Join(gitDir, "HEAD")}

	branch, err := gitutil.CurrentBranch(ctx, dir)
	switch {
	case err == nil:
		candidates = append(candidates, filepath.Join(gitDir, "refs", "heads", filepath.FromSlash(branch)))
	case errors.Is(err, ErrDecode):
		return fmt.Errorf("current branch in %s: %w", dir, err)
	default:
		log.Debug("no current branch", zap.Error(err))
	}

	candidates = append(candidates, filepath.Join(gitDir, "refs", "tags"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := tracker.Track(path); err != nil {
			return fmt.Errorf("record rebuild trigger %s: %w", path, err)
		}
	}
	return nil
}
