// Package manifest writes a release version into an npm package.json.
//
// Two strategies are available. Direct rewrites the file itself, touching
// only the "version" member and keeping every other member, its value
// bytes and the member order. Delegate runs the package manager's
// "version" command through the platform shell.
//
// Neither strategy locks the file: concurrent synchronizations of the same
// manifest are last-writer-wins. Direct writes are atomic, so a failed
// write never leaves a truncated manifest behind.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vadimpiven/reqmeta/internal/fsutil"
	"github.com/vadimpiven/reqmeta/pkg/semver"
)

// FileName is the manifest path used when none is configured, relative to
// the working directory.
const FileName = "package.json"

const versionKey = "version"

var (
	// ErrRead is wrapped by errors reading the manifest.
	ErrRead = errors.New("read manifest")
	// ErrParse is wrapped by errors decoding the manifest.
	ErrParse = errors.New("parse manifest")
	// ErrWrite is wrapped by errors serializing or writing the manifest.
	ErrWrite = errors.New("write manifest")
)

// Synchronizer sets the version recorded in a manifest.
type Synchronizer interface {
	Sync(ctx context.Context, v semver.Version) error
}

// Direct rewrites the manifest at Path in place.
type Direct struct {
	Path string
}

// NewDirect returns a Direct synchronizer for path, or for FileName when
// path is empty.
func NewDirect(path string) *Direct {
	if path == "" {
		path = FileName
	}
	return &Direct{Path: path}
}

// Sync implements Synchronizer.
func (d *Direct) Sync(_ context.Context, v semver.Version) error {
	return Rewrite(d.Path, v)
}

// Rewrite sets the "version" member of the manifest at path to v.
//
// The file is fully read and re-encoded before anything is written, so a
// read or parse failure leaves it untouched.
func Rewrite(path string, v semver.Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s (applying version %s): %w", ErrRead, path, v, err)
	}

	out, err := SetVersion(data, v)
	if err != nil {
		return fmt.Errorf("%w %s (applying version %s): %w", ErrParse, path, v, err)
	}

	if err := fsutil.WriteFileAtomic(path, out, 0o644); err != nil {
		return fmt.Errorf("%w %s (applying version %s): %w", ErrWrite, path, v, err)
	}
	return nil
}

// member is one top-level name/value pair, with the value kept as the
// exact bytes it had in the source document.
type member struct {
	key   string
	value json.RawMessage
}

// SetVersion returns doc with its top-level "version" member set to v.
//
// doc must be a single JSON object. Members keep their order; a missing
// "version" member is appended. When a name occurs more than once the
// first position and the last value win. The result is indented with two
// spaces and ends with exactly one newline. Values other than "version"
// are re-indented but otherwise byte-for-byte what doc contained.
func SetVersion(doc []byte, v semver.Version) ([]byte, error) {
	members, err := decodeObject(doc)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(v.String())
	if err != nil {
		return nil, err
	}
	members = upsert(members, versionKey, value)

	return encodeObject(members)
}

// Version returns the "version" member of doc as a string. The boolean is
// false when doc has no such member or it is not a string.
func Version(doc []byte) (string, bool, error) {
	members, err := decodeObject(doc)
	if err != nil {
		return "", false, err
	}
	for _, m := range members {
		if m.key != versionKey {
			continue
		}
		var s string
		if err := json.Unmarshal(m.value, &s); err != nil {
			return "", false, nil
		}
		return s, true, nil
	}
	return "", false, nil
}

// ReadVersion returns the "version" member of the manifest at path, as
// Version does. Errors wrap ErrRead or ErrParse.
func ReadVersion(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	v, ok, err := Version(data)
	if err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}
	return v, ok, nil
}

// utf8BOM is tolerated at the start of a manifest and dropped on rewrite.
var utf8BOM = []byte("\xef\xbb\xbf")

func decodeObject(doc []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(doc, utf8BOM)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value is %v, want an object", tok)
	}

	var members []member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode member name: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("member name %v is not a string", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode member %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			members[i].value = value
			continue
		}
		index[key] = len(members)
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level object")
	}
	return members, nil
}

func upsert(members []member, key string, value json.RawMessage) []member {
	for i := range members {
		if members[i].key == key {
			members[i].value = value
			return members
		}
	}
	return append(members, member{key: key, value: value})
}

func encodeObject(members []member) ([]byte, error) {
	var buf bytes.Buffer
	if len(members) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, m := range members {
		key, err := marshalKey(m.key)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, m.value, "  ", "  "); err != nil {
			return nil, fmt.Errorf("indent member %q: %w", m.key, err)
		}
		if i < len(members)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshalKey encodes a member name without HTML escaping, so names such
// as "a<b" survive unchanged.
func marshalKey(key string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
