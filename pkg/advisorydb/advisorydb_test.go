package advisorydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fake "k8s.io/utils/clock/testing"

	"github.com/aquasecurity/updateinfo-db/pkg/advisorydb"
	"github.com/aquasecurity/updateinfo-db/pkg/db"
	"github.com/aquasecurity/updateinfo-db/pkg/dbtest"
	"github.com/aquasecurity/updateinfo-db/pkg/metadata"
	"github.com/aquasecurity/updateinfo-db/pkg/source"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updater"
)

func TestCore_Build(t *testing.T) {
	now := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	sources := []source.Source{
		{
			ID:   "rhel-7-server-rpms",
			Name: "Red Hat Enterprise Linux 7 Server",
			Path: "testdata/server.xml",
		},
		{
			ID:   "missing",
			Path: "testdata/missing.xml",
		},
	}

	cacheDir := dbtest.InitDB(t, []string{"testdata/fixtures/stale.yaml"})
	defer db.Close()

	core := advisorydb.New(cacheDir, 12*time.Hour,
		advisorydb.WithClock(fake.NewFakeClock(now)),
		advisorydb.WithUpdater(updater.New(updater.WithParallel(1))),
	)
	stats, err := core.Build(context.Background(), updater.Sources(sources))
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Added: 2}, stats)

	got, err := db.Config{}.GetAdvisoryByNVR("httpd", "2.4.6", "67.el7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "RHSA-2017:1931", got.ID)

	md, err := metadata.NewClient(db.Dir(cacheDir)).Get()
	require.NoError(t, err)
	assert.Equal(t, metadata.Metadata{
		Version:    db.SchemaVersion,
		NextUpdate: now.Add(12 * time.Hour),
		UpdatedAt:  now,
		Advisories: 2,
		Sources:    []string{"rhel-7-server-rpms", "missing"},
		Stats:      "2 added, 0 merged, 0 rejected, 0 broken",
	}, md)

	require.NoError(t, db.Close())
	dbPath := db.Path(cacheDir)
	dbtest.Absent(t, dbPath, []string{"advisory", "RHSA-2016:0001"})
	dbtest.Absent(t, dbPath, []string{"nvr", "httpd-2.4.6-40.el7"})
	dbtest.JSONEq(t, dbPath, []string{"data-source", "rhel-7-server-rpms"}, types.DataSource{
		ID:   "rhel-7-server-rpms",
		Name: "Red Hat Enterprise Linux 7 Server",
	})
	dbtest.JSONEq(t, dbPath, []string{"updateinfo-db", "metadata", "data"}, db.Metadata{
		Version:   db.SchemaVersion,
		UpdatedAt: now,
		Sources:   []string{"rhel-7-server-rpms", "missing"},
	})
}

func TestCore_Build_Canceled(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, db.Init(cacheDir))
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	core := advisorydb.New(cacheDir, time.Hour)
	_, err := core.Build(ctx, updater.Sources([]source.Source{source.New("testdata/server.xml")}))
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, metadata.Path(db.Dir(cacheDir)))
}

func TestCore_Build_DBError(t *testing.T) {
	mockDB := new(db.MockOperation)
	mockDB.ApplyPutStoreExpectation(db.PutStoreExpectation{
		Args:    db.PutStoreArgs{StoreAnything: true},
		Returns: db.PutStoreReturns{Err: assert.AnError},
	})

	cacheDir := t.TempDir()
	core := advisorydb.New(cacheDir, time.Hour, advisorydb.WithDB(mockDB))
	_, err := core.Build(context.Background(), updater.Sources([]source.Source{source.New("testdata/server.xml")}))
	require.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "failed to save advisories")
	assert.NoFileExists(t, metadata.Path(db.Dir(cacheDir)))
	mockDB.AssertExpectations(t)
}
