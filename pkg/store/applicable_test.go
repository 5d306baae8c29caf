package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

var defaultArches = []string{"x86_64", "noarch", "i686"}

type match struct {
	Package  string
	Advisory string
}

func summarize(matches []store.Match) []match {
	var got []match
	for _, m := range matches {
		got = append(got, match{Package: m.Package.String(), Advisory: m.Advisory.ID})
	}
	return got
}

func TestStore_Applicable(t *testing.T) {
	installed := types.PackageIdentity{Name: "httpd", Arch: "x86_64", Version: "2.4.6", Release: "40.el7"}

	epoch := func(p types.Package, e int) types.Package {
		p.Epoch = &e
		return p
	}

	tests := []struct {
		name       string
		advisories []*types.Advisory
		installed  types.PackageIdentity
		arches     []string
		want       []match
	}{
		{
			name: "newest first",
			advisories: []*types.Advisory{
				newAdvisory("A", httpd("45.el7", "x86_64")),
				newAdvisory("B", httpd("50.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-50.el7.x86_64", Advisory: "B"},
				{Package: "httpd-2.4.6-45.el7.x86_64", Advisory: "A"},
			},
		},
		{
			name: "older and equal builds are skipped",
			advisories: []*types.Advisory{
				newAdvisory("OLD", httpd("31.el7", "x86_64")),
				newAdvisory("SAME", httpd("40.el7", "x86_64")),
				newAdvisory("NEW", httpd("45.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-45.el7.x86_64", Advisory: "NEW"},
			},
		},
		{
			name: "direct match suppresses other arch of the same advisory",
			advisories: []*types.Advisory{
				newAdvisory("C", httpd("50.el7", "x86_64"), httpd("50.el7", "noarch")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-50.el7.x86_64", Advisory: "C"},
			},
		},
		{
			name: "other arch listed before the direct match is dropped later",
			advisories: []*types.Advisory{
				newAdvisory("C", httpd("50.el7", "noarch"), httpd("50.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-50.el7.x86_64", Advisory: "C"},
			},
		},
		{
			name: "other arch is kept when only a different advisory matched directly",
			advisories: []*types.Advisory{
				newAdvisory("D", httpd("45.el7", "x86_64")),
				newAdvisory("E", httpd("50.el7", "noarch")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-50.el7.noarch", Advisory: "E"},
				{Package: "httpd-2.4.6-45.el7.x86_64", Advisory: "D"},
			},
		},
		{
			name: "unsupported arch is ignored",
			advisories: []*types.Advisory{
				newAdvisory("F", httpd("50.el7", "ppc64le")),
			},
			installed: installed,
			arches:    defaultArches,
		},
		{
			name: "other package names are ignored",
			advisories: []*types.Advisory{
				newAdvisory("G", types.Package{Name: "httpd-tools", Version: "9", Release: "1", Arch: "x86_64"}, httpd("45.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-45.el7.x86_64", Advisory: "G"},
			},
		},
		{
			name: "epoch decides",
			advisories: []*types.Advisory{
				newAdvisory("H", epoch(httpd("1.el7", "x86_64"), 1)),
				newAdvisory("I", httpd("99.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-1:2.4.6-1.el7.x86_64", Advisory: "H"},
				{Package: "httpd-2.4.6-99.el7.x86_64", Advisory: "I"},
			},
		},
		{
			name: "installed epoch hides builds without one",
			advisories: []*types.Advisory{
				newAdvisory("J", httpd("99.el7", "x86_64")),
			},
			installed: types.PackageIdentity{Name: "httpd", Arch: "x86_64", Epoch: 1, Version: "2.4.6", Release: "1.el7"},
			arches:    defaultArches,
		},
		{
			name: "ties keep scan order",
			advisories: []*types.Advisory{
				newAdvisory("K", httpd("50.el7", "x86_64")),
				newAdvisory("L", httpd("50.el7", "x86_64")),
			},
			installed: installed,
			arches:    defaultArches,
			want: []match{
				{Package: "httpd-2.4.6-50.el7.x86_64", Advisory: "K"},
				{Package: "httpd-2.4.6-50.el7.x86_64", Advisory: "L"},
			},
		},
		{
			name:      "unknown package",
			installed: types.PackageIdentity{Name: "bash", Arch: "x86_64", Version: "4.2", Release: "1"},
			arches:    defaultArches,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New()
			for _, adv := range tt.advisories {
				require.NoError(t, st.Insert(adv))
			}
			got := st.Applicable(tt.installed, tt.arches)
			assert.Equal(t, tt.want, summarize(got))
		})
	}
}

func TestStore_Applicable_MergedAdvisory(t *testing.T) {
	// The x86_64 and noarch entries come from different repositories but end
	// up in one merged advisory, so the noarch entry is suppressed.
	st := store.New()
	server := newAdvisory("C", httpd("50.el7", "noarch"))
	optional := newAdvisory("C", httpd("50.el7", "x86_64"))
	optional.Collections[0].Name = "rhel-7-server-optional-rpms"
	require.NoError(t, st.Insert(server))
	require.NoError(t, st.Insert(optional))

	installed := types.PackageIdentity{Name: "httpd", Arch: "x86_64", Version: "2.4.6", Release: "40.el7"}
	got := st.Applicable(installed, defaultArches)
	require.Len(t, got, 1)
	assert.Equal(t, "x86_64", got[0].Package.Arch)
	assert.Same(t, server, got[0].Advisory)
}
