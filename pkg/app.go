package pkg

import (
	"io"
	"os"
	"time"

	"github.com/urfave/cli"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/utils"
)

// AppConfig holds what the commands need from the outside world.
type AppConfig struct {
	Stdout io.Writer
	Clock  clock.Clock
}

func (ac AppConfig) stdout() io.Writer {
	if ac.Stdout == nil {
		return os.Stdout
	}
	return ac.Stdout
}

func (ac AppConfig) clock() clock.Clock {
	if ac.Clock == nil {
		return clock.RealClock{}
	}
	return ac.Clock
}

func (ac AppConfig) NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Name = "updateinfo-db"
	app.Version = version
	app.Usage = "Aggregate RPM updateinfo advisories"
	app.Writer = ac.stdout()

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
		cli.BoolFlag{
			Name:  "quiet, q",
			Usage: "suppress log output",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "YAML configuration file",
			EnvVar: "UPDATEINFO_DB_CONFIG",
		},
	}
	app.Before = func(c *cli.Context) error {
		log.InitLogger(c.GlobalBool("debug"), c.GlobalBool("quiet"))
		return nil
	}

	cacheDirFlag := cli.StringFlag{
		Name:  "cache-dir",
		Usage: "cache directory path",
		Value: utils.CacheDir(),
	}
	parallelFlag := cli.IntFlag{
		Name:  "parallel",
		Usage: "number of sources parsed concurrently",
		Value: 4,
	}
	archFlag := cli.StringSliceFlag{
		Name:  "arch",
		Usage: "supported architecture (repeatable)",
	}

	app.Commands = []cli.Command{
		{
			Name:      "build",
			Usage:     "build the advisory database",
			ArgsUsage: "[SOURCE...]",
			Action:    ac.build,
			Flags: []cli.Flag{
				cacheDirFlag,
				parallelFlag,
				cli.DurationFlag{
					Name:  "update-interval",
					Usage: "interval until the next update",
					Value: 24 * time.Hour,
				},
			},
		},
		{
			Name:      "merge",
			Usage:     "merge sources into one updateinfo.xml",
			ArgsUsage: "[SOURCE...]",
			Action:    ac.merge,
			Flags: []cli.Flag{
				cacheDirFlag,
				parallelFlag,
				cli.BoolFlag{
					Name:  "from-db",
					Usage: "export the advisory database instead of reading sources",
				},
				cli.StringFlag{
					Name:  "output, o",
					Usage: "output file (default: stdout)",
				},
			},
		},
		{
			Name:      "check",
			Usage:     "list advisories applicable to installed packages",
			ArgsUsage: "NEVRA...",
			Action:    ac.check,
			Flags: []cli.Flag{
				cacheDirFlag,
				parallelFlag,
				archFlag,
				cli.StringSliceFlag{
					Name:  "source",
					Usage: "read this source instead of the database (repeatable)",
				},
				cli.StringFlag{
					Name:  "format, f",
					Usage: "output format (table, json)",
					Value: formatTable,
				},
			},
		},
		{
			Name:      "info",
			Usage:     "show advisories",
			ArgsUsage: "ID...",
			Action:    ac.info,
			Flags: []cli.Flag{
				cacheDirFlag,
				parallelFlag,
				archFlag,
				cli.StringSliceFlag{
					Name:  "source",
					Usage: "read this source instead of the database (repeatable)",
				},
				cli.BoolFlag{
					Name:  "verbose, v",
					Usage: "include summary, solution and rights",
				},
			},
		},
	}

	return app
}
