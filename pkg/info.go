package pkg

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/urfave/cli"

	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/source"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

// info prints advisories named by ID, or by the name-version-release of a
// package they update.
func (ac AppConfig) info(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return oops.In("cli").Errorf("no advisory id given")
	}
	args := lo.Uniq([]string(c.Args()))

	// Advisory IDs by argument, and data sources by advisory ID.
	resolved := make(map[string]string)
	origins := make(map[string]types.DataSource)

	st, err := ac.loadStore(c, conf, args, func(dbc db.Config, st *store.Store) error {
		for _, arg := range args {
			adv, err := lookupAdvisory(dbc, arg)
			if err != nil {
				return err
			} else if adv == nil {
				continue
			}
			resolved[arg] = adv.ID
			if err = insertAll(st, []*types.Advisory{adv}); err != nil {
				return err
			}

			sourceID, err := dbc.GetAdvisoryOrigin(adv.ID)
			if err != nil {
				return err
			} else if sourceID == "" {
				continue
			}
			ds, err := dbc.GetDataSource(sourceID)
			if err != nil {
				return err
			}
			if ds.ID == "" {
				ds.ID = sourceID
			}
			origins[adv.ID] = ds
		}
		return nil
	})
	if err != nil {
		return err
	}

	if paths := c.StringSlice("source"); len(paths) > 0 {
		sources := lo.SliceToMap(sourcesOf(paths, conf), func(s source.Source) (string, types.DataSource) {
			return s.ID, s.DataSource()
		})
		for _, arg := range args {
			adv, ok := findAdvisory(st, arg)
			if !ok {
				continue
			}
			resolved[arg] = adv.ID
			if ds, ok := sources[st.Origin(adv.ID)]; ok {
				origins[adv.ID] = ds
			}
		}
	}

	printed := make(map[string]struct{})
	for _, arg := range args {
		id, ok := resolved[arg]
		if !ok {
			log.Warn("Advisory not found", log.String("arg", arg))
			continue
		}
		if _, ok = printed[id]; ok {
			continue
		}
		adv, _ := st.Get(id)
		if len(printed) > 0 {
			fmt.Fprintln(ac.stdout())
		}
		fmt.Fprintln(ac.stdout(), updateinfo.Text(adv, updateinfo.TextOptions{
			Arches:  conf.Arches,
			Verbose: c.Bool("verbose"),
			Source:  origins[id].String(),
		}))
		printed[id] = struct{}{}
	}
	if len(printed) == 0 {
		return oops.In("cli").With("args", args).Errorf("no advisory found")
	}
	return nil
}

// lookupAdvisory reads the advisory with the ID arg, or the one that last
// claimed the package build arg names. It returns nil when neither exists.
func lookupAdvisory(dbc db.Config, arg string) (*types.Advisory, error) {
	adv, err := dbc.GetAdvisory(arg)
	if err != nil || adv != nil {
		return adv, err
	}
	id, err := types.ParsePackageIdentity(arg)
	if err != nil {
		return nil, nil
	}
	return dbc.GetAdvisoryByNVR(id.Name, id.Version, id.Release)
}

// findAdvisory is lookupAdvisory over an aggregated store.
func findAdvisory(st *store.Store, arg string) (*types.Advisory, bool) {
	if adv, ok := st.Get(arg); ok {
		return adv, true
	}
	id, err := types.ParsePackageIdentity(arg)
	if err != nil {
		return nil, false
	}
	return st.Notice(id.Name, id.Version, id.Release)
}
