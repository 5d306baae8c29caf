package types

const (
	StatusFinal   = "final"
	StatusStable  = "stable"
	StatusTesting = "testing"

	TypeErrata      = "errata"
	TypeSecurity    = "security"
	TypeBugfix      = "bugfix"
	TypeEnhancement = "enhancement"

	ReferenceSelf     = "self"
	ReferenceOther    = "other"
	ReferenceCVE      = "cve"
	ReferenceBugzilla = "bugzilla"
)

// Advisory is a single update notice as published in updateinfo.xml.
//
// Empty strings stand for absent elements; there is no distinction between
// the two.
type Advisory struct {
	From            string       `json:"from,omitempty"`
	Type            string       `json:"type,omitempty"`
	Title           string       `json:"title,omitempty"`
	Release         string       `json:"release,omitempty"`
	Status          string       `json:"status,omitempty"`
	Version         string       `json:"version,omitempty"`
	ID              string       `json:"id"`
	Issued          string       `json:"issued,omitempty"`
	Updated         string       `json:"updated,omitempty"`
	PushCount       string       `json:"pushcount,omitempty"`
	Description     string       `json:"description,omitempty"`
	Rights          string       `json:"rights,omitempty"`
	Severity        string       `json:"severity,omitempty"`
	Summary         string       `json:"summary,omitempty"`
	Solution        string       `json:"solution,omitempty"`
	RebootSuggested bool         `json:"reboot_suggested,omitempty"`
	References      []Reference  `json:"references,omitempty"`
	Collections     []Collection `json:"pkglist,omitempty"`
}

// Reference points at an external tracker entry (bugzilla, CVE, ...).
type Reference struct {
	ID    string `json:"id,omitempty"`
	Href  string `json:"href,omitempty"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Collection is a named group of packages fixing the advisory.
type Collection struct {
	Short    string    `json:"short,omitempty"`
	Name     string    `json:"name,omitempty"`
	Packages []Package `json:"packages,omitempty"`
}

// Checksum is the optional <sum> of a package file.
type Checksum struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// ContentEqual reports whether b describes the same advisory as a, ignoring
// references and package lists.
//
// Repositories disagree on the status of the same notice, so a final-like and
// a testing-like status are considered equal. When that happens both a and b
// are rewritten to StatusFinal.
func (a *Advisory) ContentEqual(b *Advisory) bool {
	if a == nil || b == nil {
		return false
	}

	switch {
	case a.Type != b.Type,
		a.ID != b.ID,
		a.Rights != b.Rights,
		a.Severity != b.Severity,
		a.Release != b.Release,
		a.Issued != b.Issued,
		a.Updated != b.Updated,
		a.Version != b.Version,
		a.PushCount != b.PushCount,
		a.From != b.From,
		a.Title != b.Title,
		a.Summary != b.Summary,
		a.Description != b.Description,
		a.Solution != b.Solution:
		return false
	}

	if a.Status == b.Status {
		return true
	}
	if !equivalentStatus(a.Status) || !equivalentStatus(b.Status) {
		return false
	}
	a.Status = StatusFinal
	b.Status = StatusFinal
	return true
}

func equivalentStatus(s string) bool {
	switch s {
	case StatusFinal, StatusStable, StatusTesting:
		return true
	}
	return false
}

// Merge appends the references and collections of b that a does not have
// yet. References are keyed by ID and collections by Name; the first
// occurrence wins.
func (a *Advisory) Merge(b *Advisory) {
	seen := make(map[string]struct{}, len(a.References))
	for _, ref := range a.References {
		seen[ref.ID] = struct{}{}
	}
	for _, ref := range b.References {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		a.References = append(a.References, ref)
	}

	seen = make(map[string]struct{}, len(a.Collections))
	for _, coll := range a.Collections {
		seen[coll.Name] = struct{}{}
	}
	for _, coll := range b.Collections {
		if _, ok := seen[coll.Name]; ok {
			continue
		}
		seen[coll.Name] = struct{}{}
		a.Collections = append(a.Collections, coll)
	}

	a.RebootSuggested = a.RebootSuggested || b.RebootSuggested
}

// Packages returns every package of every collection, in document order.
func (a *Advisory) Packages() []Package {
	var pkgs []Package
	for _, coll := range a.Collections {
		pkgs = append(pkgs, coll.Packages...)
	}
	return pkgs
}

// ReferencesOf returns the references of the given type.
func (a *Advisory) ReferencesOf(typ string) []Reference {
	var refs []Reference
	for _, ref := range a.References {
		if ref.Type == typ {
			refs = append(refs, ref)
		}
	}
	return refs
}
