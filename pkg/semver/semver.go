// Package semver provides the structured major.minor.patch version used to
// stamp release artifacts, and the strict parser that produces it from a
// git tag such as "v1.0.82".
package semver

import "strconv"

// Version is a release version. The zero value is 0.0.0.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// New returns the Version major.minor.patch.
func New(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// String returns the dotted form, e.g. "1.0.82".
func (v Version) String() string {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendUint(buf, v.Major, 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, v.Minor, 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, v.Patch, 10)
	return string(buf)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal
// to, or after other.
func (v Version) Compare(other Version) int {
	a := [3]uint64{v.Major, v.Minor, v.Patch}
	b := [3]uint64{other.Major, other.Minor, other.Patch}
	for i := 0; i < 3; i++ {
		if a[i] > b[i] {
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
	}
	return 0
}

// minTagLen is the length of the shortest accepted tag, "v0.0.0".
const minTagLen = 6

// Parse parses a tag of the exact form "vMAJOR.MINOR.PATCH". Every segment
// must be one or more ASCII digits; nothing may precede the "v" or follow
// the patch number, so git describe output like "v1.0.81-2-ge6a4f89" and
// bare commit hashes are rejected.
//
// Segments accumulate as value*10+digit without overflow checking. Leading
// zeros are accepted and dropped. Parse does not allocate.
func Parse(s string) (Version, bool) {
	if len(s) < minTagLen || s[0] != 'v' {
		return Version{}, false
	}

	var (
		parts   [3]uint64
		digits  [3]int
		segment int
	)
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			if digits[segment] == 0 {
				return Version{}, false
			}
			segment++
			if segment > 2 {
				return Version{}, false
			}
		case c >= '0' && c <= '9':
			parts[segment] = parts[segment]*10 + uint64(c-'0')
			digits[segment]++
		default:
			return Version{}, false
		}
	}

	if segment != 2 || digits[2] == 0 {
		return Version{}, false
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, true
}
