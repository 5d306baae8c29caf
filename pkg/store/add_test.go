package store_test

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetLogger(log.New(&buf, slog.LevelInfo))
	t.Cleanup(func() { log.InitLogger(false, true) })
	return &buf
}

func TestStore_Add(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		repoIDs   []string
		wantStats []store.Stats
		wantIDs   []string
		wantErr   string
		wantLogs  []string
	}{
		{
			name:      "split advisory is merged",
			files:     []string{"testdata/server.xml", "testdata/optional.xml"},
			repoIDs:   []string{"rhel-7-server-rpms", "rhel-7-server-optional-rpms"},
			wantStats: []store.Stats{{Added: 2}, {Added: 1, Merged: 1}},
			wantIDs:   []string{"RHSA-2017:1931", "RHBA-2017:2000", "RHEA-2017:3000"},
		},
		{
			name:      "bad duplicate",
			files:     []string{"testdata/server.xml", "testdata/conflict.xml"},
			repoIDs:   []string{"rhel-7-server-rpms", "third-party"},
			wantStats: []store.Stats{{Added: 2}, {Rejected: 2, Broken: 1}},
			wantIDs:   []string{"RHSA-2017:1931", "RHBA-2017:2000"},
			wantLogs: []string{
				"Update notice is broken, or a bad duplicate, skipping",
				"advisory_id=RHSA-2017:1931",
				"source=third-party",
				"An update notice is broken, skipping",
			},
		},
		{
			name:      "syntax error keeps the advisories before it",
			files:     []string{"testdata/truncated.xml"},
			repoIDs:   []string{""},
			wantStats: []store.Stats{{Added: 1}},
			wantIDs:   []string{"RHSA-2017:1931"},
			wantErr:   "(from <unknown>)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			st := store.New()
			for i, file := range tt.files {
				f, err := os.Open(file)
				require.NoError(t, err)
				stats, err := st.Add(f, tt.repoIDs[i])
				require.NoError(t, f.Close())

				if tt.wantErr != "" {
					require.ErrorContains(t, err, tt.wantErr)
					var se *updateinfo.SyntaxError
					assert.ErrorAs(t, err, &se)
				} else {
					require.NoError(t, err)
				}
				assert.Equal(t, tt.wantStats[i], stats, file)
			}

			var ids []string
			for _, adv := range st.All() {
				ids = append(ids, adv.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			for _, want := range tt.wantLogs {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestStore_Merge_ReportsOwnerOnce(t *testing.T) {
	buf := captureLog(t)
	st := store.New()

	a := newAdvisory("A", httpd("45.el7", "x86_64"))
	b := newAdvisory("B", httpd("50.el7", "x86_64"))
	require.NoError(t, st.Insert(a))
	require.NoError(t, st.Insert(b))

	badA := newAdvisory("A")
	badA.Title = "changed"
	badB := newAdvisory("B")
	badB.Title = "changed"

	stats := st.Merge("epel", []*types.Advisory{badA, badB, {Title: "no id"}}, nil)
	assert.Equal(t, store.Stats{Rejected: 2, Broken: 1}, stats)
	assert.Equal(t, "0 added, 0 merged, 2 rejected, 1 broken", stats.String())
	assert.Equal(t, 1, strings.Count(buf.String(), "You should report this problem to the owner of the repository"))
	assert.Equal(t, 2, strings.Count(buf.String(), "bad duplicate"))
}

func TestStore_Merge_NilAdvisory(t *testing.T) {
	_ = captureLog(t)
	st := store.New()

	stats := st.Merge("epel", []*types.Advisory{nil, newAdvisory("A", httpd("45.el7", "x86_64"))}, nil)
	assert.Equal(t, store.Stats{Added: 1, Broken: 1}, stats)
	assert.Equal(t, 1, st.Len())
}

func TestStore_Origin(t *testing.T) {
	_ = captureLog(t)
	st := store.New()

	st.Merge("rhel-7-server-rpms", []*types.Advisory{newAdvisory("A", httpd("45.el7", "x86_64"))}, nil)
	st.Merge("rhel-7-server-optional-rpms", []*types.Advisory{
		newAdvisory("A", httpd("45.el7", "x86_64")),
		newAdvisory("B", httpd("50.el7", "x86_64")),
	}, nil)
	require.NoError(t, st.Insert(newAdvisory("C", httpd("60.el7", "x86_64"))))

	assert.Equal(t, "rhel-7-server-rpms", st.Origin("A"))
	assert.Equal(t, "rhel-7-server-optional-rpms", st.Origin("B"))
	assert.Empty(t, st.Origin("C"))
	assert.Empty(t, st.Origin("unknown"))
}

func TestFrom(t *testing.T) {
	assert.Equal(t, "(from epel)", store.From("epel"))
	assert.Equal(t, "(from <unknown>)", store.From(""))
}
