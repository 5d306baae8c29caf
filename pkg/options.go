package pkg

import (
	"context"
	"os"
	"os/signal"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/urfave/cli"

	"github.com/aquasecurity/updateinfo-db/pkg/config"
	"github.com/aquasecurity/updateinfo-db/pkg/source"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/updater"
)

// loadConfig reads the --config file and applies the flags set on the
// command line on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	conf, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("cache-dir") {
		conf.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("parallel") && c.Int("parallel") > 0 {
		conf.Parallel = c.Int("parallel")
	}
	if c.IsSet("update-interval") {
		conf.UpdateInterval = c.Duration("update-interval")
	}
	if arches := lo.Compact(c.StringSlice("arch")); len(arches) > 0 {
		conf.Arches = arches
	}
	return conf, nil
}

// sourcesOf returns a source per path, or the configured sources when no path
// is given.
func sourcesOf(paths []string, conf config.Config) []source.Source {
	if len(paths) == 0 {
		return conf.Sources
	}
	return lo.Map(paths, func(path string, _ int) source.Source {
		return source.New(path)
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// aggregate merges the sources into a new in-memory store.
func aggregate(ctx context.Context, conf config.Config, srcs []source.Source) (*store.Store, error) {
	if len(srcs) == 0 {
		return nil, oops.In("cli").Errorf("no source given")
	}
	st := store.New()
	u := updater.New(updater.WithParallel(conf.Parallel))
	if _, err := u.Update(ctx, st, updater.Sources(srcs)); err != nil {
		return nil, err
	}
	return st, nil
}
