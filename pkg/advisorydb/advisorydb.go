// Package advisorydb builds the advisory database from a set of sources.
package advisorydb

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/metadata"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/updater"
)

type Core struct {
	dbc            db.Operation
	updater        *updater.Updater
	cacheDir       string
	updateInterval time.Duration
	clock          clock.Clock
	logger         *log.Logger
}

type Option func(*Core)

func WithClock(clock clock.Clock) Option {
	return func(core *Core) {
		core.clock = clock
	}
}

func WithDB(dbc db.Operation) Option {
	return func(core *Core) {
		core.dbc = dbc
	}
}

func WithUpdater(u *updater.Updater) Option {
	return func(core *Core) {
		core.updater = u
	}
}

// New returns a builder writing to the database opened by db.Init and to the
// metadata file of cacheDir.
func New(cacheDir string, updateInterval time.Duration, opts ...Option) *Core {
	core := &Core{
		dbc:            db.Config{},
		updater:        updater.New(),
		cacheDir:       cacheDir,
		updateInterval: updateInterval,
		clock:          clock.RealClock{},
		logger:         log.WithPrefix("advisorydb"),
	}

	for _, opt := range opts {
		opt(core)
	}

	return core
}

// Build aggregates the sources into a store and replaces the database content
// with it. Broken sources are skipped; only database and metadata failures
// are returned.
func (c *Core) Build(ctx context.Context, sources []updater.Source) (store.Stats, error) {
	c.logger.Info("Building the advisory database...", "sources", len(sources))

	st := store.New()
	stats, err := c.updater.Update(ctx, st, sources)
	if err != nil {
		return stats, oops.In("advisorydb").Wrapf(err, "update error")
	}
	c.logger.Info("Sources merged", "advisories", st.Len(), "stats", stats.String())

	if err = c.dbc.PutStore(st); err != nil {
		return stats, oops.In("advisorydb").Wrapf(err, "failed to save advisories")
	}

	err = c.dbc.BatchUpdate(func(tx *bolt.Tx) error {
		for _, src := range sources {
			ds := src.DataSource()
			if err := c.dbc.PutDataSource(tx, ds.ID, ds); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return stats, oops.In("advisorydb").Wrapf(err, "failed to save data sources")
	}

	ids := lo.Map(sources, func(src updater.Source, _ int) string {
		return src.DataSource().ID
	})
	now := c.clock.Now().UTC()
	if err = c.dbc.SetMetadata(db.Metadata{
		Version:   db.SchemaVersion,
		UpdatedAt: now,
		Sources:   ids,
	}); err != nil {
		return stats, oops.In("advisorydb").Wrapf(err, "failed to save metadata")
	}

	md := metadata.Metadata{
		Version:    db.SchemaVersion,
		NextUpdate: now.Add(c.updateInterval),
		UpdatedAt:  now,
		Advisories: st.Len(),
		Sources:    ids,
		Stats:      stats.String(),
	}
	if err = metadata.NewClient(db.Dir(c.cacheDir)).Update(md); err != nil {
		return stats, oops.In("advisorydb").Wrapf(err, "failed to store metadata")
	}

	return stats, nil
}
