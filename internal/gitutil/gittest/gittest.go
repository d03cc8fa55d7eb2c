// Package gittest builds throwaway git repositories for tests. Repositories
// are created with go-git so fixtures do not depend on the user's git
// configuration; tests of code that shells out to git should still call
// RequireGit first.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RequireGit skips the test when no git binary is on PATH.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// Init creates an empty repository in a fresh temp directory and returns
// the directory.
func Init(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, false); err != nil {
		t.Fatalf("git init %s: %v", dir, err)
	}
	return dir
}

// Commit writes a file in dir, stages it, and commits it with message.
// It returns the new commit hash.
func Commit(t *testing.T, dir, message string) plumbing.Hash {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatalf("open %s: %v", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	name := "CHANGELOG"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	if _, err := f.WriteString(message + "\n"); err != nil {
		f.Close()
		t.Fatalf("write %s: %v", name, err)
	}
	f.Close()

	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("git add %s: %v", name, err)
	}
	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}
	return hash
}

// Tag creates a lightweight tag pointing at HEAD.
func Tag(t *testing.T, dir, name string) {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatalf("open %s: %v", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("resolve HEAD: %v", err)
	}
	if _, err := repo.CreateTag(name, head.Hash(), nil); err != nil {
		t.Fatalf("git tag %s: %v", name, err)
	}
}

// Chdir changes the working directory to dir for the rest of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// RawTag writes a loose tag ref named name pointing at hash, bypassing
// go-git's ref name validation. It skips the test when the filesystem
// rejects the name, as it does for invalid UTF-8 on macOS.
func RawTag(t *testing.T, dir, name string, hash plumbing.Hash) {
	t.Helper()
	tags := filepath.Join(dir, ".git", "refs", "tags")
	if err := os.MkdirAll(tags, 0o755); err != nil {
		t.Fatalf("create %s: %v", tags, err)
	}
	if err := os.WriteFile(filepath.Join(tags, name), []byte(hash.String()+"\n"), 0o644); err != nil {
		t.Skipf("filesystem rejects tag name %q: %v", name, err)
	}
}
