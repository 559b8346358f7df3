// Package version normalizes free-form version strings into comparable
// numeric tuples and classifies components against their latest release.
package version

import (
	"math"
	"strconv"
	"strings"
)

// ParsedVersion is the result of parsing a version string. Segments are
// always usable for comparison; Opaque reports whether any segment was not
// a plain integer and had to be zero-filled.
type ParsedVersion struct {
	original   string
	segments   []int
	prerelease string
	opaque     bool
}

// Parse converts a version string into a ParsedVersion. It never fails:
// one leading "v" or "V" is removed, everything from the first "-" on is
// dropped, and each "."-separated segment is read as an integer, with
// non-numeric segments becoming 0.
func Parse(v string) ParsedVersion {
	p := ParsedVersion{original: v}

	clean := v
	if strings.HasPrefix(clean, "v") || strings.HasPrefix(clean, "V") {
		clean = clean[1:]
	}
	if idx := strings.Index(clean, "-"); idx >= 0 {
		p.prerelease = clean[idx+1:]
		clean = clean[:idx]
	}
	if clean == "" {
		return p
	}

	parts := strings.Split(clean, ".")
	p.segments = make([]int, len(parts))
	for i, part := range parts {
		n, exact := parseSegment(part)
		p.segments[i] = n
		if !exact {
			p.opaque = true
		}
	}
	return p
}

// parseSegment reads the leading decimal digits of s. exact is false when
// s contains anything besides those digits, has none at all, or overflows
// int, in which case n saturates at math.MaxInt.
func parseSegment(s string) (n int, exact bool) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "+")

	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return math.MaxInt, false
	}
	return n, trimmed == s && end == len(s)
}

// Original returns the string the version was parsed from.
func (p ParsedVersion) Original() string { return p.original }

// Segments returns a copy of the numeric tuple.
func (p ParsedVersion) Segments() []int {
	out := make([]int, len(p.segments))
	copy(out, p.segments)
	return out
}

// Prerelease returns the text after the first "-", if any.
func (p ParsedVersion) Prerelease() string { return p.prerelease }

// Opaque reports whether at least one segment was not a plain integer.
func (p ParsedVersion) Opaque() bool { return p.opaque }

// Empty reports whether nothing comparable was left after cleaning.
func (p ParsedVersion) Empty() bool { return len(p.segments) == 0 }

// Major returns the first segment, or 0.
func (p ParsedVersion) Major() int { return p.at(0) }

// Minor returns the second segment, or 0.
func (p ParsedVersion) Minor() int { return p.at(1) }

// Patch returns the third segment, or 0.
func (p ParsedVersion) Patch() int { return p.at(2) }

func (p ParsedVersion) at(i int) int {
	if i < len(p.segments) {
		return p.segments[i]
	}
	return 0
}

// Compare orders two numeric tuples most-significant first. Missing
// elements count as 0. It returns -1, 0 or 1.
func Compare(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}

		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}

	return 0
}

// CompareStrings parses both versions and compares them. A version with
// nothing left after cleaning is the empty tuple and compares as all zeros.
func CompareStrings(a, b string) int {
	return Compare(Parse(a).segments, Parse(b).segments)
}
