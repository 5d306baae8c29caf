// Package config loads the optional YAML configuration of updateinfo-db.
package config

import (
	"os"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/updateinfo-db/pkg/source"
	"github.com/aquasecurity/updateinfo-db/pkg/utils"
)

const (
	defaultParallel       = 4
	defaultUpdateInterval = 24 * time.Hour
)

// DefaultArches is the supported arch list used when none is configured.
var DefaultArches = []string{"x86_64", "noarch", "i686"}

type Config struct {
	CacheDir       string          `yaml:"cache-dir"`
	Parallel       int             `yaml:"parallel"`
	UpdateInterval time.Duration   `yaml:"update-interval"`
	Arches         []string        `yaml:"arches"`
	Sources        []source.Source `yaml:"sources"`
}

func Default() Config {
	return Config{
		CacheDir:       utils.CacheDir(),
		Parallel:       defaultParallel,
		UpdateInterval: defaultUpdateInterval,
		Arches:         slices.Clone(DefaultArches),
	}
}

// Load overlays the file at path on Default. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}

	eb := oops.In("config").With("file_path", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eb.Wrapf(err, "unable to read config")
	}

	var overlay Config
	if err = yaml.UnmarshalStrict(b, &overlay); err != nil {
		return Config{}, eb.Wrapf(err, "yaml unmarshal error")
	}
	conf.merge(overlay)

	if err = conf.validate(); err != nil {
		return Config{}, eb.Wrap(err)
	}
	return conf, nil
}

func (c *Config) merge(o Config) {
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if o.Parallel > 0 {
		c.Parallel = o.Parallel
	}
	if o.UpdateInterval > 0 {
		c.UpdateInterval = o.UpdateInterval
	}
	if arches := lo.Compact(o.Arches); len(arches) > 0 {
		c.Arches = lo.Uniq(arches)
	}
	c.Sources = append(c.Sources, o.Sources...)
}

func (c *Config) validate() error {
	ids := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Path == "" {
			return oops.With("index", i).With("source_id", src.ID).Errorf("source has no path")
		}
		if src.ID == "" {
			c.Sources[i].ID = source.New(src.Path).ID
		}
		if _, ok := ids[c.Sources[i].ID]; ok {
			return oops.With("source_id", c.Sources[i].ID).Errorf("duplicate source id")
		}
		ids[c.Sources[i].ID] = struct{}{}
	}
	return nil
}
