package pkg

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/urfave/cli"

	"github.com/aquasecurity/updateinfo-db/pkg/config"
	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/metadata"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/utils"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type CheckResult struct {
	Installed string        `json:"installed"`
	Updates   []CheckUpdate `json:"updates"`
}

type CheckUpdate struct {
	Package    string `json:"package"`
	PURL       string `json:"purl"`
	AdvisoryID string `json:"advisory_id"`
	Type       string `json:"type,omitempty"`
	Severity   string `json:"severity"`
	Title      string `json:"title,omitempty"`
}

func (ac AppConfig) check(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return oops.In("cli").Errorf("no package given")
	}
	format := c.String("format")
	if format != formatTable && format != formatJSON {
		return oops.In("cli").With("format", format).Errorf("unknown format")
	}

	installed := make([]types.PackageIdentity, 0, c.NArg())
	for _, arg := range c.Args() {
		id, err := types.ParsePackageIdentity(arg)
		if err != nil {
			return err
		}
		if id.Arch == "" {
			log.Warn("No architecture given, only other-arch updates can match", log.String("package", arg))
		}
		installed = append(installed, id)
	}

	names := lo.Uniq(lo.Map(installed, func(id types.PackageIdentity, _ int) string {
		return id.Name
	}))
	st, err := ac.loadStore(c, conf, names, func(dbc db.Config, st *store.Store) error {
		for _, name := range names {
			advs, err := dbc.GetAdvisories(name)
			if err != nil {
				return err
			}
			if err = insertAll(st, advs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	results := lo.Map(installed, func(id types.PackageIdentity, _ int) CheckResult {
		res := CheckResult{Installed: id.String(), Updates: []CheckUpdate{}}
		for _, m := range st.Applicable(id, conf.Arches) {
			res.Updates = append(res.Updates, CheckUpdate{
				Package:    m.Package.String(),
				PURL:       m.Package.PURL(),
				AdvisoryID: m.Advisory.ID,
				Type:       m.Advisory.Type,
				Severity:   types.NewSeverity(m.Advisory.Severity).String(),
				Title:      m.Advisory.Title,
			})
		}
		return res
	})

	if format == formatJSON {
		return writeJSON(ac.stdout(), results)
	}
	writeTable(ac.stdout(), results)
	return nil
}

// loadStore aggregates the --source paths, or fills a store from the
// database with fromDB.
func (ac AppConfig) loadStore(c *cli.Context, conf config.Config, keys []string,
	fromDB func(dbc db.Config, st *store.Store) error) (*store.Store, error) {
	if paths := c.StringSlice("source"); len(paths) > 0 {
		ctx, stop := signalContext()
		defer stop()
		return aggregate(ctx, conf, sourcesOf(paths, conf))
	}

	if err := ac.openDB(conf); err != nil {
		return nil, err
	}
	defer db.Close()

	st := store.New()
	if err := fromDB(db.Config{}, st); err != nil {
		return nil, oops.In("cli").With("keys", keys).Wrapf(err, "failed to read the database")
	}
	return st, nil
}

// openDB opens the database built under the cache directory. A database of
// another schema version is refused. The caller closes it.
func (ac AppConfig) openDB(conf config.Config) error {
	dbPath := db.Path(conf.CacheDir)
	if ok, err := utils.Exists(dbPath); err != nil {
		return oops.In("cli").Wrap(err)
	} else if !ok {
		return oops.In("cli").With("db_path", dbPath).Errorf("database not found, run build first")
	}

	if err := db.Init(conf.CacheDir); err != nil {
		return oops.In("cli").Wrapf(err, "db initialize error")
	}
	if v := db.GetVersion(); v != db.SchemaVersion {
		_ = db.Close()
		return oops.In("cli").With("db_path", dbPath).With("version", v).
			With("schema_version", db.SchemaVersion).Errorf("database schema is outdated, run build")
	}

	md, err := metadata.NewClient(db.Dir(conf.CacheDir)).Get()
	if err != nil {
		log.Debug("No metadata", log.Err(err))
	} else if md.NeedsUpdate(ac.clock(), db.SchemaVersion) {
		log.Warn("The database is out of date, run build to refresh it", log.Any("next_update", md.NextUpdate))
	}
	return nil
}

// insertAll adds advisories read from the database. An ID seen before is the
// same record and is skipped.
func insertAll(st *store.Store, advs []*types.Advisory) error {
	for _, adv := range advs {
		if _, ok := st.Get(adv.ID); ok {
			continue
		}
		if err := st.Insert(adv); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.In("cli").Wrapf(err, "json encode error")
	}
	return nil
}

func writeTable(w io.Writer, results []CheckResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Installed", "Update", "Advisory", "Type", "Severity"})
	table.SetRowLine(true)
	table.SetAutoMergeCellsByColumnIndex([]int{0})

	for _, res := range results {
		if len(res.Updates) == 0 {
			table.Append([]string{res.Installed, "-", "-", "-", "-"})
			continue
		}
		for _, u := range res.Updates {
			table.Append([]string{
				res.Installed,
				u.Package,
				u.AdvisoryID,
				u.Type,
				types.ColorizeSeverity(types.NewSeverity(u.Severity)),
			})
		}
	}
	table.Render()
}
