package pkg

import (
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/urfave/cli"

	"github.com/aquasecurity/updateinfo-db/pkg/config"
	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

func (ac AppConfig) merge(c *cli.Context) (err error) {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	var st *store.Store
	if c.Bool("from-db") {
		st, err = ac.exportDB(conf)
	} else {
		ctx, stop := signalContext()
		defer stop()
		st, err = aggregate(ctx, conf, sourcesOf(c.Args(), conf))
	}
	if err != nil {
		return oops.In("cli").Wrapf(err, "merge error")
	}

	var w io.Writer = ac.stdout()
	if output := c.String("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return oops.In("cli").With("file_path", output).Wrapf(err, "unable to create output")
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = oops.In("cli").With("file_path", output).Wrapf(cerr, "unable to close output")
			}
		}()
		w = f
	}

	if err = st.Serialize(w); err != nil {
		return err
	}
	log.Info("Merged advisories", log.Int("advisories", st.Len()))
	return nil
}

// exportDB reads every advisory of the database into a store, in ID order.
func (ac AppConfig) exportDB(conf config.Config) (*store.Store, error) {
	if err := ac.openDB(conf); err != nil {
		return nil, err
	}
	defer db.Close()

	st := store.New()
	err := db.Config{}.ForEachAdvisory(func(adv *types.Advisory) error {
		return st.Insert(adv)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
