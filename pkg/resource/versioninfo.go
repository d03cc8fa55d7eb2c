package resource

import (
	"fmt"

	"github.com/tc-hib/winres/version"

	"github.com/vadimpiven/reqmeta/pkg/semver"
)

// LangEnglishUS is the language of the string table and of the resource
// itself.
const LangEnglishUS = 0x0409

// fileVersion splits Pack(v) into the four FILEVERSION words.
func fileVersion(v semver.Version) [4]uint16 {
	packed := Pack(v)
	return [4]uint16{
		uint16(packed >> 48),
		uint16(packed >> 32),
		uint16(packed >> 16),
		uint16(packed),
	}
}

// Info returns m as a version-info resource for a DLL, with every string
// in the US English table.
func (m Metadata) Info() (*version.Info, error) {
	words := fileVersion(m.Version)
	info := &version.Info{
		FileVersion:    words,
		ProductVersion: words,
		Type:           version.DLL,
	}
	for _, kv := range m.Strings() {
		if err := info.Set(LangEnglishUS, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("set %s: %w", kv[0], err)
		}
	}
	return info, nil
}

// VersionInfo encodes m as a VS_VERSIONINFO block.
func (m Metadata) VersionInfo() ([]byte, error) {
	info, err := m.Info()
	if err != nil {
		return nil, err
	}
	return info.Bytes(), nil
}
