package types

import (
	"strconv"
	"strings"

	"github.com/package-url/packageurl-go"
	"github.com/samber/oops"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/updateinfo-db/pkg/utils"
	"github.com/aquasecurity/updateinfo-db/pkg/version"
)

var ErrInvalidNEVRA = xerrors.New("invalid NEVRA")

// Package is one file entry of an advisory collection.
type Package struct {
	Name     string    `json:"name"`
	Epoch    *int      `json:"epoch,omitempty"`
	Version  string    `json:"version"`
	Release  string    `json:"release"`
	Arch     string    `json:"arch"`
	Src      string    `json:"src,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Sum      *Checksum `json:"sum,omitempty"`
}

// EVR returns the comparable triple. A missing epoch is 0.
func (p Package) EVR() version.EVR {
	var epoch int
	if p.Epoch != nil {
		epoch = *p.Epoch
	}
	return version.EVR{Epoch: epoch, Version: p.Version, Release: p.Release}
}

// NVR returns the name-version-release lookup key.
func (p Package) NVR() string {
	return NVR(p.Name, p.Version, p.Release)
}

func (p Package) Identity() PackageIdentity {
	evr := p.EVR()
	return PackageIdentity{
		Name:    p.Name,
		Arch:    p.Arch,
		Epoch:   evr.Epoch,
		Version: evr.Version,
		Release: evr.Release,
	}
}

func NVR(name, ver, release string) string {
	return name + "-" + ver + "-" + release
}

// ParseEpoch accepts an epoch only when it starts with a decimal digit, in
// which case the leading run of digits is the value. Anything else is nil.
func ParseEpoch(s string) *int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow
		return nil
	}
	return &n
}

// PackageIdentity is the (name, arch, epoch, version, release) tuple of an
// installed or fixed package.
type PackageIdentity struct {
	Name    string `json:"name"`
	Arch    string `json:"arch"`
	Epoch   int    `json:"epoch"`
	Version string `json:"version"`
	Release string `json:"release"`
}

func (p PackageIdentity) EVR() version.EVR {
	return version.EVR{Epoch: p.Epoch, Version: p.Version, Release: p.Release}
}

// FullVersion renders [epoch:]version-release.
func (p PackageIdentity) FullVersion() string {
	return utils.ConstructVersion(strconv.Itoa(p.Epoch), p.Version, p.Release)
}

// String renders the identity in name-[epoch:]version-release.arch form.
func (p PackageIdentity) String() string {
	s := p.Name + "-" + p.FullVersion()
	if p.Arch != "" {
		s += "." + p.Arch
	}
	return s
}

// PURL returns the package URL of the identity, e.g.
// pkg:rpm/httpd@2.4.6-50.el7?arch=x86_64
func (p PackageIdentity) PURL() string {
	qualifiers := map[string]string{}
	if p.Arch != "" {
		qualifiers["arch"] = p.Arch
	}
	if p.Epoch != 0 {
		qualifiers["epoch"] = strconv.Itoa(p.Epoch)
	}
	purl := packageurl.NewPackageURL(packageurl.TypeRPM, "", p.Name,
		utils.ConstructVersion("", p.Version, p.Release), packageurl.QualifiersFromMap(qualifiers), "")
	return purl.ToString()
}

// knownArches are the suffixes recognized as an architecture. There is no
// other way to tell an arch from the last release segment.
var knownArches = map[string]struct{}{
	"aarch64": {},
	"armv7hl": {},
	"i386":    {},
	"i486":    {},
	"i586":    {},
	"i686":    {},
	"noarch":  {},
	"ppc64":   {},
	"ppc64le": {},
	"riscv64": {},
	"s390":    {},
	"s390x":   {},
	"src":     {},
	"x86_64":  {},
}

// ParsePackageIdentity parses name-[epoch:]version-release[.arch]. The arch is
// empty when the last release segment is not a known architecture.
func ParsePackageIdentity(s string) (PackageIdentity, error) {
	eb := oops.In("types").With("nevra", s)

	var id PackageIdentity
	rest := strings.TrimSpace(s)
	if i := strings.LastIndexByte(rest, '.'); i != -1 {
		if _, ok := knownArches[rest[i+1:]]; ok {
			id.Arch = rest[i+1:]
			rest = rest[:i]
		}
	}

	i := strings.LastIndexByte(rest, '-')
	if i <= 0 {
		return PackageIdentity{}, eb.Wrapf(ErrInvalidNEVRA, "missing release")
	}
	id.Release = rest[i+1:]
	rest = rest[:i]

	i = strings.LastIndexByte(rest, '-')
	if i <= 0 {
		return PackageIdentity{}, eb.Wrapf(ErrInvalidNEVRA, "missing version")
	}
	id.Name = rest[:i]
	id.Version = rest[i+1:]

	if e, v, ok := strings.Cut(id.Version, ":"); ok {
		epoch, err := strconv.Atoi(e)
		if err != nil || epoch < 0 {
			return PackageIdentity{}, eb.Wrapf(ErrInvalidNEVRA, "invalid epoch %q", e)
		}
		id.Epoch = epoch
		id.Version = v
	}
	if id.Name == "" || id.Version == "" || id.Release == "" {
		return PackageIdentity{}, eb.Wrapf(ErrInvalidNEVRA, "empty component")
	}
	return id, nil
}
