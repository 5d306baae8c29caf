package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/oops"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

// Stats counts the outcome of merging one source.
type Stats struct {
	Added    int
	Merged   int
	Rejected int
	Broken   int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Added += o.Added
	s.Merged += o.Merged
	s.Rejected += o.Rejected
	s.Broken += o.Broken
}

func (s Stats) String() string {
	return fmt.Sprintf("%d added, %d merged, %d rejected, %d broken", s.Added, s.Merged, s.Rejected, s.Broken)
}

// From renders the repository attribution used in warnings.
func From(repoID string) string {
	return fmt.Sprintf("(from %s)", repoName(repoID))
}

func repoName(repoID string) string {
	if repoID == "" {
		return "<unknown>"
	}
	return repoID
}

// Add parses an updateinfo document and merges it. Broken advisories and bad
// duplicates are logged and skipped. The returned error is the document error,
// if any; advisories read before it are merged regardless.
func (s *Store) Add(r io.Reader, repoID string) (Stats, error) {
	advs, broken, err := updateinfo.ParseAll(r)
	stats := s.Merge(repoID, advs, broken)
	if err != nil {
		return stats, oops.In("store").With("source", repoName(repoID)).
			Wrapf(err, "updateinfo %s is not valid XML", From(repoID))
	}
	return stats, nil
}

// Merge inserts a parsed batch from one repository in order. broken holds the
// per-advisory parse errors of the batch; they are only reported.
func (s *Store) Merge(repoID string, advs []*types.Advisory, broken []error) Stats {
	var stats Stats
	source := log.Source(repoName(repoID))

	for _, err := range broken {
		stats.Broken++
		s.logger.Warn("An update notice is broken, skipping", source, log.Err(err))
	}

	reported := false
	for _, adv := range advs {
		if adv == nil {
			stats.Broken++
			s.logger.Warn("An update notice is broken, skipping", source)
			continue
		}
		_, exists := s.Get(adv.ID)
		err := s.Insert(adv)
		switch {
		case err == nil && exists:
			stats.Merged++
		case err == nil:
			stats.Added++
			if repoID != "" {
				s.origins[adv.ID] = repoID
			}
		case errors.Is(err, ErrNoID):
			stats.Broken++
			s.logger.Warn("An update notice is broken, skipping", source)
		default:
			stats.Rejected++
			s.logger.Warn("Update notice is broken, or a bad duplicate, skipping",
				log.AdvisoryID(adv.ID), source)
			if !reported {
				s.logger.Warn("You should report this problem to the owner of the repository", source)
				reported = true
			}
		}
	}

	s.logger.Debug("Merged updateinfo", source, log.Int("added", stats.Added),
		log.Int("merged", stats.Merged), log.Int("rejected", stats.Rejected), log.Int("broken", stats.Broken))
	return stats
}
