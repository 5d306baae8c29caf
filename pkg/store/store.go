// Package store keeps the merged set of advisories of one aggregation run.
//
// A Store is not safe for concurrent use.
package store

import (
	"io"

	"github.com/samber/oops"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/set"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

var (
	ErrNoID     = xerrors.New("advisory has no id")
	ErrConflict = xerrors.New("advisory conflicts with a stored one")
)

type Store struct {
	advisories map[string]*types.Advisory
	order      []*types.Advisory
	byName     map[string]set.Set[*types.Advisory]
	byNVR      map[string]*types.Advisory
	origins    map[string]string

	logger *log.Logger
}

func New() *Store {
	return &Store{
		advisories: make(map[string]*types.Advisory),
		byName:     make(map[string]set.Set[*types.Advisory]),
		byNVR:      make(map[string]*types.Advisory),
		origins:    make(map[string]string),
		logger:     log.WithPrefix("store"),
	}
}

// Insert adds adv, or merges it into the stored advisory with the same id.
//
// A stored advisory that is not content-equal to adv is left untouched and
// ErrConflict is returned. After a successful insert every package of the
// stored advisory is indexed again, so its NVR keys point at it.
func (s *Store) Insert(adv *types.Advisory) error {
	if adv == nil || adv.ID == "" {
		return ErrNoID
	}

	stored, ok := s.advisories[adv.ID]
	if ok {
		if !stored.ContentEqual(adv) {
			return oops.In("store").With("advisory_id", adv.ID).Wrapf(ErrConflict, "bad duplicate")
		}
		stored.Merge(adv)
	} else {
		stored = adv
		s.advisories[adv.ID] = adv
		s.order = append(s.order, adv)
	}

	for _, pkg := range stored.Packages() {
		s.byNVR[pkg.NVR()] = stored
		advs, ok := s.byName[pkg.Name]
		if !ok {
			advs = set.New[*types.Advisory]()
			s.byName[pkg.Name] = advs
		}
		advs.Add(stored)
	}
	return nil
}

// Notices returns the advisories mentioning the package name, in the order
// they were first indexed.
func (s *Store) Notices(name string) []*types.Advisory {
	return s.byName[name].Values()
}

// All returns every advisory in insertion order.
func (s *Store) All() []*types.Advisory {
	return append([]*types.Advisory(nil), s.order...)
}

func (s *Store) Get(id string) (*types.Advisory, bool) {
	adv, ok := s.advisories[id]
	return adv, ok
}

// Notice looks an advisory up by the exact name-version-release of one of its
// packages. The last advisory indexing that key wins.
func (s *Store) Notice(name, version, release string) (*types.Advisory, bool) {
	adv, ok := s.byNVR[types.NVR(name, version, release)]
	return adv, ok
}

// Origin returns the ID of the repository the advisory was first merged
// from, or "" when it was inserted directly.
func (s *Store) Origin(id string) string {
	return s.origins[id]
}

func (s *Store) Len() int {
	return len(s.order)
}

// Names returns every indexed package name, sorted.
func (s *Store) Names() []string {
	names := set.NewOrdered[string]()
	for name := range s.byName {
		names.Append(name)
	}
	return names.Values()
}

// NVRs returns the NVR index as a copy.
func (s *Store) NVRs() map[string]*types.Advisory {
	m := make(map[string]*types.Advisory, len(s.byNVR))
	for k, v := range s.byNVR {
		m[k] = v
	}
	return m
}

// Serialize writes all advisories as one updateinfo document.
func (s *Store) Serialize(w io.Writer) error {
	if err := updateinfo.NewEncoder(w).WriteDocument(s.All()); err != nil {
		return oops.In("store").Wrapf(err, "serialize error")
	}
	return nil
}
