// Package resource stamps Windows builds with a VERSIONINFO resource so
// that Explorer's file properties show the product, company and version.
//
// Embed writes the resource as a COFF object named
// rsrc_windows_<arch>.syso into a package directory. The Go linker picks
// up .syso files automatically, and the _windows_<arch> suffix limits it
// to that target, so a single go generate step serves every platform:
//
//	//go:generate go run github.com/vadimpiven/reqmeta embed
//
// For every other target Embed does nothing and reports success.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tc-hib/winres"
	"go.uber.org/zap"

	"github.com/vadimpiven/reqmeta/internal/fsutil"
)

// ErrCompile is wrapped by every failure to produce the resource object on
// a target that supports it.
var ErrCompile = errors.New("failed to compile windows resource")

// Target is a GOOS/GOARCH pair.
type Target struct {
	GOOS   string
	GOARCH string
}

func (t Target) String() string { return t.GOOS + "/" + t.GOARCH }

// CanEmbed reports whether binaries built for t carry native version
// metadata. Only Windows does.
func CanEmbed(t Target) bool {
	return t.GOOS == "windows"
}

var archs = map[string]winres.Arch{
	"386":   winres.ArchI386,
	"amd64": winres.ArchAMD64,
	"arm":   winres.ArchARM,
	"arm64": winres.ArchARM64,
}

// ObjectName returns the file name of the resource object for t.
func ObjectName(t Target) string {
	return fmt.Sprintf("rsrc_%s_%s.syso", t.GOOS, t.GOARCH)
}

// Embedder writes resource objects into Dir.
type Embedder struct {
	Dir    string
	Target Target
	Logger *zap.Logger
}

// Embed writes the version resource for m and returns the object path.
// On targets where CanEmbed is false it returns "" and nil without
// touching the filesystem.
func (e *Embedder) Embed(m Metadata) (string, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if !CanEmbed(e.Target) {
		log.Debug("target has no native version resource, skipping",
			zap.Stringer("target", e.Target))
		return "", nil
	}

	path := filepath.Join(e.Dir, ObjectName(e.Target))

	arch, ok := archs[e.Target.GOARCH]
	if !ok {
		return "", fmt.Errorf("%w: %s: unsupported architecture %q", ErrCompile, path, e.Target.GOARCH)
	}

	object, err := Compile(m, arch)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCompile, path, err)
	}

	if err := fsutil.WriteFileAtomic(path, object, 0o644); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCompile, path, err)
	}

	log.Debug("wrote version resource",
		zap.String("path", path),
		zap.String("version", FourPart(m.Version)))
	return path, nil
}

// Compile returns a COFF object for arch holding m as resource
// RT_VERSION #1 in US English.
func Compile(m Metadata, arch winres.Arch) ([]byte, error) {
	data, err := m.VersionInfo()
	if err != nil {
		return nil, err
	}

	rs := &winres.ResourceSet{}
	if err := rs.Set(winres.RT_VERSION, winres.ID(1), LangEnglishUS, data); err != nil {
		return nil, fmt.Errorf("add version resource: %w", err)
	}

	var buf bytes.Buffer
	if err := rs.WriteObject(&buf, arch); err != nil {
		return nil, fmt.Errorf("write %s object: %w", arch, err)
	}
	return buf.Bytes(), nil
}
