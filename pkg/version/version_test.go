package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/vadimpiven/reqmeta/pkg/semver"
)

func TestRaw_NotEmpty(t *testing.T) {
	if Raw() == "" {
		t.Error("Raw should never be empty")
	}
}

func TestRaw_Stable(t *testing.T) {
	if Raw() != Raw() {
		t.Error("Raw changed between calls")
	}
}

func TestSemver_MatchesRaw(t *testing.T) {
	v, ok := Semver()
	want, wantOK := semver.Parse(Raw())
	if ok != wantOK || v != want {
		t.Errorf("Semver() = (%v, %v), want (%v, %v)", v, ok, want, wantOK)
	}
	if IsRelease() != ok {
		t.Errorf("IsRelease() = %v, want %v", IsRelease(), ok)
	}
}

func TestOr_DefaultsToZero(t *testing.T) {
	if _, ok := Semver(); ok {
		t.Skip("built from a release tag")
	}
	if Or() != (semver.Version{}) {
		t.Errorf("Or() = %v, want 0.0.0", Or())
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "reqmeta "+Raw()) {
		t.Errorf("String() = %q, want prefix %q", s, "reqmeta "+Raw())
	}
	if !strings.Contains(s, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("String() = %q, missing platform", s)
	}
}
