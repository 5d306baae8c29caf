// Package repomd reads repodata/repomd.xml, the index of a yum repository's
// metadata files.
package repomd

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"golang.org/x/xerrors"
)

type RepoType string

var ErrRepoNotFound = xerrors.New("repo not found")

const (
	PrimaryDB  RepoType = "primary_db"
	OtherDB    RepoType = "other_db"
	Group      RepoType = "group"
	FileLists  RepoType = "filelists_db"
	UpdateInfo RepoType = "updateinfo"

	// Dir is the metadata directory of a repository.
	Dir = "repodata"
	// File is the index file inside Dir.
	File = "repomd.xml"
)

type RepoMD struct {
	Revision string `xml:"revision"`
	RepoList []Repo `xml:"data"`
}

type Repo struct {
	Type         string   `xml:"type,attr"`
	Checksum     Checksum `xml:"checksum"`
	OpenChecksum Checksum `xml:"open-checksum"`
	Location     Location `xml:"location"`
	Timestamp    int64    `xml:"timestamp"`
	Size         int64    `xml:"size"`
	OpenSize     int64    `xml:"open-size"`
}

type Checksum struct {
	Sum  string `xml:",chardata"`
	Type string `xml:"type,attr"`
}

type Location struct {
	Href string `xml:"href,attr"`
}

// Parse decodes a repomd.xml document.
func Parse(r io.Reader) (*RepoMD, error) {
	var md RepoMD
	if err := xml.NewDecoder(r).Decode(&md); err != nil {
		return nil, oops.In("repomd").Wrapf(err, "xml decode error")
	}
	return &md, nil
}

// Open reads root/repodata/repomd.xml.
func Open(root string) (*RepoMD, error) {
	path := filepath.Join(root, Dir, File)
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.In("repomd").With("file_path", path).Wrapf(err, "file open error")
	}
	defer f.Close()

	md, err := Parse(f)
	if err != nil {
		return nil, oops.With("file_path", path).Wrap(err)
	}
	return md, nil
}

// Repo returns a copy of the data entry of the given type. ErrRepoNotFound is
// returned if the type cannot be located.
func (md *RepoMD) Repo(t RepoType) (*Repo, error) {
	for i := range md.RepoList {
		if md.RepoList[i].Type != string(t) {
			continue
		}
		repo := md.RepoList[i]
		return &repo, nil
	}
	return nil, oops.In("repomd").With("type", t).Wrap(ErrRepoNotFound)
}
