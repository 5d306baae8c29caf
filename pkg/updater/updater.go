// Package updater aggregates many sources into one store.
//
// Sources are read and parsed concurrently. Their advisories are inserted
// into the store by the calling goroutine, in the order the sources were
// given, so the merge result does not depend on scheduling.
package updater

import (
	"context"
	"errors"
	"io"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/source"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

const defaultParallel = 4

// Source is a repository that yields updateinfo documents.
type Source interface {
	DataSource() types.DataSource
	Walk(ctx context.Context, fn source.WalkFunc) error
}

// Result is the parsed content of one source.
type Result struct {
	Source     types.DataSource
	Advisories []*types.Advisory
	// Broken holds per-advisory parse errors.
	Broken []error
	// Errs holds failures that made a document, or the whole source,
	// unreadable.
	Errs []error
}

type Option func(*Updater)

// WithParallel bounds the number of sources parsed at once.
func WithParallel(n int) Option {
	return func(u *Updater) {
		if n > 0 {
			u.parallel = n
		}
	}
}

type Updater struct {
	parallel int
	logger   *log.Logger
}

func New(opts ...Option) *Updater {
	u := &Updater{
		parallel: defaultParallel,
		logger:   log.WithPrefix("updater"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Parse reads every source. A failing source only fills the Errs of its
// result; the returned error is non-nil only when ctx is done.
func (u *Updater) Parse(ctx context.Context, sources []Source) ([]Result, error) {
	results := make([]Result, len(sources))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(u.parallel)
	for i, src := range sources {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = u.parse(ctx, src)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, oops.In("updater").Wrapf(err, "parse error")
	}
	return results, nil
}

func (u *Updater) parse(ctx context.Context, src Source) Result {
	res := Result{Source: src.DataSource()}
	u.logger.Info("Parsing source...", log.Source(res.Source.ID))

	err := src.Walk(ctx, func(r io.Reader, path string) error {
		advs, broken, err := updateinfo.ParseAll(r)
		res.Advisories = append(res.Advisories, advs...)
		res.Broken = append(res.Broken, broken...)
		if err != nil {
			// the rest of the source is still worth reading
			res.Errs = append(res.Errs, oops.With("file_path", path).Wrap(err))
		}
		return nil
	})
	if err != nil {
		res.Errs = append(res.Errs, err)
	}
	return res
}

// Update parses the sources and merges them into st in order.
func (u *Updater) Update(ctx context.Context, st *store.Store, sources []Source) (store.Stats, error) {
	results, err := u.Parse(ctx, sources)
	if err != nil {
		return store.Stats{}, err
	}

	var total store.Stats
	for _, res := range results {
		for _, err := range res.Errs {
			var se *updateinfo.SyntaxError
			if errors.As(err, &se) {
				u.logger.Warn("Updateinfo file is not valid XML", log.Source(res.Source.ID), log.Err(err))
				continue
			}
			u.logger.Warn("Failed to read source, skipping", log.Source(res.Source.ID), log.Err(err))
		}

		stats := st.Merge(res.Source.ID, res.Advisories, res.Broken)
		u.logger.Info("Merged source", log.Source(res.Source.ID), log.String("stats", stats.String()))
		total.Add(stats)
	}
	return total, nil
}

// Sources adapts configured sources to the Source interface.
func Sources(srcs []source.Source) []Source {
	out := make([]Source, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, s)
	}
	return out
}
