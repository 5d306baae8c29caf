package pkg

import (
	"github.com/samber/oops"
	"github.com/urfave/cli"

	"github.com/aquasecurity/updateinfo-db/pkg/advisorydb"
	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/updater"
)

func (ac AppConfig) build(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	srcs := sourcesOf(c.Args(), conf)
	if len(srcs) == 0 {
		return oops.In("cli").Errorf("no source given")
	}

	ctx, stop := signalContext()
	defer stop()

	if err = db.Init(conf.CacheDir); err != nil {
		return oops.In("cli").Wrapf(err, "db initialize error")
	}
	defer db.Close()

	core := advisorydb.New(conf.CacheDir, conf.UpdateInterval,
		advisorydb.WithClock(ac.clock()),
		advisorydb.WithUpdater(updater.New(updater.WithParallel(conf.Parallel))),
	)
	stats, err := core.Build(ctx, updater.Sources(srcs))
	if err != nil {
		return oops.In("cli").Wrapf(err, "build error")
	}

	log.Info("Database built", log.FilePath(db.Path(conf.CacheDir)), log.String("stats", stats.String()))
	return nil
}
