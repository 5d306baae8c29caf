package repomd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/updateinfo-db/pkg/repomd"
)

func TestRepoMD_Repo(t *testing.T) {
	f, err := os.Open("testdata/repomd.xml")
	require.NoError(t, err)
	defer f.Close()

	md, err := repomd.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, "1502287386", md.Revision)
	require.Len(t, md.RepoList, 2)

	tests := []struct {
		name     string
		repoType repomd.RepoType
		wantHref string
		wantErr  error
	}{
		{
			name:     "updateinfo",
			repoType: repomd.UpdateInfo,
			wantHref: "repodata/7f1b9d2e-updateinfo.xml.gz",
		},
		{
			name:     "missing type",
			repoType: repomd.Group,
			wantErr:  repomd.ErrRepoNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := md.Repo(tt.repoType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHref, repo.Location.Href)
			assert.Equal(t, "sha256", repo.Checksum.Type)
			assert.Equal(t, int64(8192), repo.OpenSize)
		})
	}

	// the returned entry is a copy
	repo, err := md.Repo(repomd.UpdateInfo)
	require.NoError(t, err)
	repo.Location.Href = "changed"
	assert.Equal(t, "repodata/7f1b9d2e-updateinfo.xml.gz", md.RepoList[1].Location.Href)
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, repomd.Dir), 0o755))
	b, err := os.ReadFile("testdata/repomd.xml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, repomd.Dir, repomd.File), b, 0o644))

	md, err := repomd.Open(root)
	require.NoError(t, err)
	assert.Len(t, md.RepoList, 2)

	_, err = repomd.Open(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
