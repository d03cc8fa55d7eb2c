package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tc-hib/winres/version"

	"github.com/vadimpiven/reqmeta/pkg/semver"
)

var testProduct = Product{
	Name:         "Node Reqwest",
	Company:      "Example Corp",
	InternalName: "meta",
	Filename:     "node_reqwest.node",
}

func testMetadata(t *testing.T) Metadata {
	t.Helper()
	m, err := NewMetadata(testProduct, semver.New(1, 2, 3), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

func TestPack(t *testing.T) {
	assert.Equal(t, uint64(0x0001_0002_0003_0000), Pack(semver.New(1, 2, 3)))
	assert.Equal(t, uint64(0), Pack(semver.Version{}))
	assert.Equal(t, uint64(0xFFFF_0000_0000_0000), Pack(semver.New(0xFFFF, 0, 0)))
}

func TestFourPart(t *testing.T) {
	assert.Equal(t, "1.0.82.0", FourPart(semver.New(1, 0, 82)))
}

func TestNewMetadata(t *testing.T) {
	m := testMetadata(t)

	assert.Equal(t, "Copyright © 2026 Example Corp", m.LegalCopyright)
	assert.Equal(t, "Node Reqwest", m.ProductName)
	assert.Equal(t, "Node Reqwest", m.FileDescription, "description falls back to the product name")
	assert.Equal(t, "meta", m.InternalName)
	assert.Equal(t, "node_reqwest.node", m.OriginalFilename)
}

func TestNewMetadata_YearIsUTC(t *testing.T) {
	// 23:30 on Dec 31 in UTC-5 is already the next year in UTC.
	local := time.Date(2025, 12, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60))
	m, err := NewMetadata(testProduct, semver.New(1, 0, 0), local)
	require.NoError(t, err)
	assert.Equal(t, "Copyright © 2026 Example Corp", m.LegalCopyright)
}

func TestNewMetadata_InternalNameFromGOPACKAGE(t *testing.T) {
	t.Setenv("GOPACKAGE", "nodereqwest")
	p := testProduct
	p.InternalName = ""

	m, err := NewMetadata(p, semver.New(1, 0, 0), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "nodereqwest", m.InternalName)
}

func TestNewMetadata_NoInternalName(t *testing.T) {
	t.Setenv("GOPACKAGE", "")
	p := testProduct
	p.InternalName = ""

	_, err := NewMetadata(p, semver.New(1, 0, 0), time.Now())
	assert.ErrorIs(t, err, ErrNoInternalName)
}

// fixedInfo returns the 13 DWORDs of the VS_FIXEDFILEINFO that follows
// the "VS_VERSION_INFO" key in a version-info block.
func fixedInfo(t *testing.T, data []byte) []uint32 {
	t.Helper()
	key := []byte{}
	for _, u := range utf16.Encode([]rune("VS_VERSION_INFO\x00")) {
		key = binary.LittleEndian.AppendUint16(key, u)
	}
	require.Equal(t, key, data[6:6+len(key)])

	off := (6 + len(key) + 3) &^ 3
	require.GreaterOrEqual(t, len(data), off+52)
	dw := make([]uint32, 13)
	for i := range dw {
		dw[i] = binary.LittleEndian.Uint32(data[off+4*i:])
	}
	return dw
}

func TestVersionInfo_FixedFields(t *testing.T) {
	data, err := testMetadata(t).VersionInfo()
	require.NoError(t, err)
	assert.Equal(t, len(data), int(binary.LittleEndian.Uint16(data)), "wLength")

	dw := fixedInfo(t, data)
	assert.Equal(t, uint32(0xFEEF04BD), dw[0], "signature")
	assert.Equal(t, uint32(0x00010002), dw[2], "file version MS")
	assert.Equal(t, uint32(0x00030000), dw[3], "file version LS")
	assert.Equal(t, uint32(0x00010002), dw[4], "product version MS")
	assert.Equal(t, uint32(0x00030000), dw[5], "product version LS")
	assert.Equal(t, uint32(0x3F), dw[6], "file flags mask")
	assert.Equal(t, uint32(0), dw[7], "file flags")
	assert.Equal(t, uint32(0x00040004), dw[8], "file OS")
	assert.Equal(t, uint32(2), dw[9], "file type")
	assert.Equal(t, uint32(0), dw[10], "file subtype")
}

func TestVersionInfo_RoundTrip(t *testing.T) {
	data, err := testMetadata(t).VersionInfo()
	require.NoError(t, err)

	info, err := version.FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, [4]uint16{1, 2, 3, 0}, info.FileVersion)
	assert.Equal(t, [4]uint16{1, 2, 3, 0}, info.ProductVersion)
	assert.Equal(t, version.DLL, info.Type)
}

func TestVersionInfo_Strings(t *testing.T) {
	data, err := testMetadata(t).VersionInfo()
	require.NoError(t, err)

	// Values are stored as NUL-terminated UTF-16 after their key.
	for _, want := range []string{
		"CompanyName\x00", "Example Corp\x00",
		"Copyright © 2026 Example Corp\x00",
		"InternalName\x00", "meta\x00",
		"OriginalFilename\x00", "node_reqwest.node\x00",
		"ProductVersion\x00", "FileVersion\x00", "1.2.3.0\x00",
	} {
		var encoded []byte
		for _, u := range utf16.Encode([]rune(want)) {
			encoded = binary.LittleEndian.AppendUint16(encoded, u)
		}
		assert.True(t, bytes.Contains(data, encoded), "missing %q", strings.TrimSuffix(want, "\x00"))
	}
}

func TestInfo_PackedWords(t *testing.T) {
	m := testMetadata(t)
	m.Version = semver.New(1, 65536, 0)

	info, err := m.Info()
	require.NoError(t, err)
	// Minor overflows into the major word, exactly as Pack does.
	assert.Equal(t, [4]uint16{1, 0, 0, 0}, info.FileVersion)
	assert.Equal(t, Pack(m.Version), uint64(info.FileVersion[0])<<48)
}

func TestCanEmbed(t *testing.T) {
	assert.True(t, CanEmbed(Target{GOOS: "windows", GOARCH: "amd64"}))
	assert.False(t, CanEmbed(Target{GOOS: "linux", GOARCH: "amd64"}))
	assert.False(t, CanEmbed(Target{GOOS: "darwin", GOARCH: "arm64"}))
}

func TestEmbed_NoOpOffWindows(t *testing.T) {
	dir := t.TempDir()
	e := &Embedder{Dir: dir, Target: Target{GOOS: "linux", GOARCH: "amd64"}}

	path, err := e.Embed(testMetadata(t))
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no resource object should be produced")
}

func TestEmbed_NoOpIgnoresMissingDirectory(t *testing.T) {
	e := &Embedder{Dir: filepath.Join(t.TempDir(), "missing"), Target: Target{GOOS: "darwin", GOARCH: "arm64"}}
	_, err := e.Embed(Metadata{})
	assert.NoError(t, err)
}

func TestEmbed_Windows(t *testing.T) {
	machines := map[string]uint16{
		"386":   0x014C,
		"amd64": 0x8664,
		"arm64": 0xAA64,
	}
	for arch, machine := range machines {
		t.Run(arch, func(t *testing.T) {
			dir := t.TempDir()
			e := &Embedder{Dir: dir, Target: Target{GOOS: "windows", GOARCH: arch}}

			path, err := e.Embed(testMetadata(t))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "rsrc_windows_"+arch+".syso"), path)

			object, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Greater(t, len(object), 20)
			assert.Equal(t, machine, binary.LittleEndian.Uint16(object), "COFF machine")
		})
	}
}

func TestEmbed_UnsupportedArch(t *testing.T) {
	e := &Embedder{Dir: t.TempDir(), Target: Target{GOOS: "windows", GOARCH: "riscv64"}}

	_, err := e.Embed(testMetadata(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompile))
	assert.Contains(t, err.Error(), "failed to compile windows resource")
}

func TestEmbed_WriteFailure(t *testing.T) {
	e := &Embedder{Dir: filepath.Join(t.TempDir(), "missing"), Target: Target{GOOS: "windows", GOARCH: "amd64"}}

	_, err := e.Embed(testMetadata(t))
	assert.ErrorIs(t, err, ErrCompile)
}
