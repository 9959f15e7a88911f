// Package version compares dot-separated release strings the way the
// packaging pipeline needs them compared: segment by segment, numerically,
// with the shorter operand zero-padded on the right so that "1.2" and
// "1.2.0" are equal. This is deliberately not semver; release gates in the
// build driver compare plain numeric tuples only.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare returns -1 if a < b, 0 if a == b, and 1 if a > b.
// Segments are interpreted base-10, so leading zeros are insignificant.
// A non-numeric segment is an error.
func Compare(a, b string) (int, error) {
	segsA, err := parse(a)
	if err != nil {
		return 0, err
	}
	segsB, err := parse(b)
	if err != nil {
		return 0, err
	}

	// Zero-pad the shorter tuple on the right before comparing.
	for len(segsA) < len(segsB) {
		segsA = append(segsA, 0)
	}
	for len(segsB) < len(segsA) {
		segsB = append(segsB, 0)
	}

	for i := range segsA {
		switch {
		case segsA[i] > segsB[i]:
			return 1, nil
		case segsA[i] < segsB[i]:
			return -1, nil
		}
	}
	return 0, nil
}

// AtLeast reports whether v >= min.
func AtLeast(v, min string) (bool, error) {
	c, err := Compare(v, min)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

// Equal reports whether v and w denote the same release.
func Equal(v, w string) (bool, error) {
	c, err := Compare(v, w)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// IsRelease reports whether s parses as a plain dot-separated numeric
// version. Used to tell release tags apart from branch names.
func IsRelease(s string) bool {
	_, err := parse(s)
	return err == nil
}

func parse(s string) ([]uint64, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}
	parts := strings.Split(s, ".")
	segs := make([]uint64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version segment %q in %q", part, s)
		}
		segs = append(segs, n)
	}
	return segs, nil
}
