// Package version compares RPM (epoch, version, release) triples.
package version

import (
	"fmt"

	rpmversion "github.com/knqyf263/go-rpm-version"
)

// EVR is the comparable part of a package build. A missing epoch is 0.
type EVR struct {
	Epoch   int
	Version string
	Release string
}

func (e EVR) String() string {
	return fmt.Sprintf("%d:%s-%s", e.Epoch, e.Version, e.Release)
}

// Compare returns -1, 0 or 1 when a is older than, equal to or newer than b.
//
// Epochs compare numerically. Versions and releases are compared segment by
// segment using rpmvercmp rules: numeric runs as integers, alphabetic runs
// lexically, a numeric run beats an alphabetic one and a "~" segment sorts
// before anything, including the end of the string.
func Compare(a, b EVR) int {
	if a.Epoch != b.Epoch {
		if a.Epoch > b.Epoch {
			return 1
		}
		return -1
	}
	// Epochs are compared above. The explicit "0:" keeps a ':' inside the
	// version from being read as an epoch. A '-' inside the version still
	// moves the rest into the release, which rpm itself forbids.
	va := rpmversion.NewVersion("0:" + a.Version + "-" + a.Release)
	vb := rpmversion.NewVersion("0:" + b.Version + "-" + b.Release)
	switch c := va.Compare(vb); {
	case c > 0:
		return 1
	case c < 0:
		return -1
	}
	return 0
}

// Newer reports whether a is strictly newer than b.
func Newer(a, b EVR) bool {
	return Compare(a, b) > 0
}
