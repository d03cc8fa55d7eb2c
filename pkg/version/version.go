// Package version exposes the release version of this module as
// process-wide values.
//
// The raw string comes from version.txt, which go generate refreshes from
// git (tag, else short commit hash, else "undefined"):
//
//	go generate ./pkg/version
//
// A release build may instead inject it via -ldflags:
//
//	go build -ldflags "-X github.com/vadimpiven/reqmeta/pkg/version.raw=v1.0.82" .
//
// Both values are computed once, on first use, and never change.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/vadimpiven/reqmeta/internal/resolver"
	"github.com/vadimpiven/reqmeta/pkg/semver"
)

//go:generate go run github.com/vadimpiven/reqmeta resolve --output version.txt

//go:embed version.txt
var embedded string

// raw is set at build time via -ldflags. Empty means use version.txt.
var raw string

// Raw returns the git tag or commit hash this binary was built from, or
// "undefined" when it was built outside a git checkout.
var Raw = sync.OnceValue(func() string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	if v := strings.TrimSpace(embedded); v != "" {
		return v
	}
	return resolver.Sentinel
})

// Semver returns Raw parsed as a release tag. The boolean is false for
// commit hashes, describe output past a tag, and "undefined".
var Semver = sync.OnceValues(func() (semver.Version, bool) {
	return semver.Parse(Raw())
})

// Or returns the parsed release version, or 0.0.0 when Raw is not a
// release tag.
func Or() semver.Version {
	v, _ := Semver()
	return v
}

// IsRelease reports whether this binary was built from a release tag.
func IsRelease() bool {
	_, ok := Semver()
	return ok
}

// String returns a human-readable version line including OS and
// architecture. Example: "reqmeta v1.0.82 (linux/amd64)"
func String() string {
	return fmt.Sprintf("reqmeta %s (%s/%s)", Raw(), runtime.GOOS, runtime.GOARCH)
}
