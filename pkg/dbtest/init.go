package dbtest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	fixtures "github.com/aquasecurity/bolt-fixtures"
	"github.com/aquasecurity/updateinfo-db/pkg/db"
)

// InitDB loads the fixture files into a fresh database under a temporary
// cache dir and opens it. The cache dir is returned.
func InitDB(t *testing.T, fixtureFiles []string) string {
	t.Helper()

	dbDir := t.TempDir()
	dbPath := db.Path(dbDir)
	require.NoError(t, os.MkdirAll(db.Dir(dbDir), 0o700))

	// Load testdata into BoltDB
	loader, err := fixtures.New(dbPath, fixtureFiles)
	require.NoError(t, err)
	require.NoError(t, loader.Load())
	require.NoError(t, loader.Close())

	require.NoError(t, db.Init(dbDir))

	return dbDir
}
