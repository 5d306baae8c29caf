package store

import (
	"slices"

	"github.com/samber/lo"

	"github.com/aquasecurity/updateinfo-db/pkg/set"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/version"
)

// Match is a package build newer than the installed one, with the advisory
// shipping it.
type Match struct {
	Package  types.PackageIdentity
	Advisory *types.Advisory
}

// Applicable returns the packages newer than installed, newest first. The
// first match is the minimal upgrade that clears every returned advisory.
//
// Same-arch entries always match. An entry of another arch in arches matches
// only if its advisory has not produced a same-arch match by the time the
// entry is scanned and never does afterwards. Equal versions keep scan order.
func (s *Store) Applicable(installed types.PackageIdentity, arches []string) []Match {
	supported := set.New(arches...)
	seen := set.New[*types.Advisory]()
	installedEVR := installed.EVR()

	var matches, otherArch []Match
	for _, adv := range s.Notices(installed.Name) {
		for _, pkg := range adv.Packages() {
			if pkg.Name != installed.Name {
				continue
			}
			sameArch := pkg.Arch == installed.Arch
			if !sameArch && (seen.Contains(adv) || !supported.Contains(pkg.Arch)) {
				continue
			}

			id := pkg.Identity()
			if !version.Newer(id.EVR(), installedEVR) {
				continue
			}

			m := Match{Package: id, Advisory: adv}
			if sameArch {
				matches = append(matches, m)
				seen.Add(adv)
			} else {
				otherArch = append(otherArch, m)
			}
		}
	}

	matches = append(matches, lo.Filter(otherArch, func(m Match, _ int) bool {
		return !seen.Contains(m.Advisory)
	})...)

	slices.SortStableFunc(matches, func(a, b Match) int {
		return version.Compare(b.Package.EVR(), a.Package.EVR())
	})
	return matches
}
