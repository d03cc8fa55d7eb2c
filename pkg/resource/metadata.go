package resource

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vadimpiven/reqmeta/pkg/semver"
)

// Product holds the static strings stamped into every build of a product.
type Product struct {
	// Name is used for ProductName, and for FileDescription when
	// Description is empty.
	Name        string
	Company     string
	Description string
	// InternalName defaults to $GOPACKAGE, which go generate sets to the
	// name of the package being generated.
	InternalName string
	// Filename is the OriginalFilename, e.g. "node_reqwest.node".
	Filename string
}

// Metadata is the full content of a version resource.
type Metadata struct {
	CompanyName      string
	LegalCopyright   string
	ProductName      string
	FileDescription  string
	InternalName     string
	OriginalFilename string
	Version          semver.Version
}

// ErrNoInternalName is returned when neither Product.InternalName nor
// $GOPACKAGE is set.
var ErrNoInternalName = errors.New("internal name not configured and GOPACKAGE is not set (run via go generate)")

// NewMetadata builds the resource metadata for p at version v. The
// copyright year is taken from now in UTC.
func NewMetadata(p Product, v semver.Version, now time.Time) (Metadata, error) {
	internal := p.InternalName
	if internal == "" {
		internal = os.Getenv("GOPACKAGE")
	}
	if internal == "" {
		return Metadata{}, ErrNoInternalName
	}

	description := p.Description
	if description == "" {
		description = p.Name
	}

	return Metadata{
		CompanyName:      p.Company,
		LegalCopyright:   fmt.Sprintf("Copyright © %d %s", now.UTC().Year(), p.Company),
		ProductName:      p.Name,
		FileDescription:  description,
		InternalName:     internal,
		OriginalFilename: p.Filename,
		Version:          v,
	}, nil
}

// Pack returns v in the 64-bit FILEVERSION layout: one 16-bit word each
// for major, minor and patch, and a zero build number. Components are not
// masked: bits above the low 16 are ORed into the next word up, so 1.65536.0
// packs the same as 1.0.0, and bits shifted past 64 are lost.
func Pack(v semver.Version) uint64 {
	return v.Major<<48 | v.Minor<<32 | v.Patch<<16
}

// FourPart returns v as the "major.minor.patch.0" string used by the
// ProductVersion and FileVersion entries.
func FourPart(v semver.Version) string {
	return v.String() + ".0"
}

// Strings returns the StringFileInfo entries in the order they are
// encoded.
func (m Metadata) Strings() [][2]string {
	version := FourPart(m.Version)
	return [][2]string{
		{"CompanyName", m.CompanyName},
		{"LegalCopyright", m.LegalCopyright},
		{"ProductName", m.ProductName},
		{"FileDescription", m.FileDescription},
		{"InternalName", m.InternalName},
		{"OriginalFilename", m.OriginalFilename},
		{"ProductVersion", version},
		{"FileVersion", version},
	}
}
