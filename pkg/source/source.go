// Package source resolves a configured repository path to updateinfo
// documents.
package source

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/repomd"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/utils"
)

// Source is one repository to read advisories from.
type Source struct {
	// ID attributes warnings and database entries to the repository.
	ID   string `yaml:"id" json:",omitempty"`
	Name string `yaml:"name" json:",omitempty"`
	URL  string `yaml:"url" json:",omitempty"`
	// Path is a local updateinfo file, a repository root, its repodata
	// directory or a directory of updateinfo files.
	Path string `yaml:"path" json:",omitempty"`
}

// New returns a source for a bare path. The ID is the base name of the path.
func New(path string) Source {
	return Source{
		ID:   filepath.Base(filepath.Clean(path)),
		Path: path,
	}
}

func (s Source) DataSource() types.DataSource {
	return types.DataSource{
		ID:   s.ID,
		Name: s.Name,
		URL:  s.URL,
	}
}

// WalkFunc receives one decompressed updateinfo document.
type WalkFunc func(r io.Reader, path string) error

// Walk calls fn for every updateinfo document of the source.
func (s Source) Walk(ctx context.Context, fn WalkFunc) error {
	eb := oops.In("source").With("source", s.ID).With("path", s.Path)

	fi, err := os.Stat(s.Path)
	if err != nil {
		return eb.Wrapf(err, "stat error")
	}
	if !fi.IsDir() {
		return walkFile(ctx, s.Path, fn)
	}

	if root, ok := repoRoot(s.Path); ok {
		md, err := repomd.Open(root)
		if err != nil {
			return eb.Wrap(err)
		}
		repo, err := md.Repo(repomd.UpdateInfo)
		if err != nil {
			return eb.Wrapf(err, "no updateinfo")
		}
		log.Debug("Found updateinfo", log.Source(s.ID), log.String("location", repo.Location.Href))
		return walkFile(ctx, filepath.Join(root, filepath.FromSlash(repo.Location.Href)), fn)
	}

	log.Debug("Walking directory", log.Source(s.ID), log.DirPath(s.Path))
	err = utils.FileWalk(s.Path, func(r io.Reader, path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return decompressAndCall(r, path, fn)
	})
	if err != nil {
		return eb.Wrap(err)
	}
	return nil
}

// repoRoot reports the repository root if dir is one or is its repodata
// directory.
func repoRoot(dir string) (string, bool) {
	if ok, _ := utils.Exists(filepath.Join(dir, repomd.Dir, repomd.File)); ok {
		return dir, true
	}
	if filepath.Base(filepath.Clean(dir)) == repomd.Dir {
		if ok, _ := utils.Exists(filepath.Join(dir, repomd.File)); ok {
			return filepath.Dir(filepath.Clean(dir)), true
		}
	}
	return "", false
}

func walkFile(ctx context.Context, path string, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eb := oops.In("source").With("file_path", path)

	f, err := os.Open(path)
	if err != nil {
		return eb.Wrapf(err, "file open error")
	}
	defer f.Close()

	if err = decompressAndCall(f, path, fn); err != nil {
		return eb.Wrap(err)
	}
	return nil
}

func decompressAndCall(r io.Reader, path string, fn WalkFunc) error {
	rc, err := Decompress(r)
	if err != nil {
		return err
	}
	defer rc.Close()

	return fn(rc, path)
}
