package updateinfo_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
	"github.com/aquasecurity/updateinfo-db/pkg/updateinfo"
)

func TestEncoder_WriteDocument(t *testing.T) {
	adv := &types.Advisory{
		From:        `a&b"c`,
		Status:      "final",
		Type:        "security",
		Version:     "1",
		ID:          "RHSA-2017:1931",
		Title:       "<Moderate> 'httpd'",
		Release:     "7",
		Issued:      "2017-08-01",
		Description: "x > y & z",
		Severity:    "Moderate",
		References: []types.Reference{
			{ID: "1463197", Href: "https://bugzilla.redhat.com/show_bug.cgi?id=1463197&a=1", Type: "bugzilla", Title: "bug"},
			{Href: "https://example.com", Type: "other"},
		},
		Collections: []types.Collection{
			{
				Short: "rhel-7",
				Packages: []types.Package{
					{
						Name:     "httpd",
						Version:  "2.4.6",
						Release:  "67.el7",
						Arch:     "x86_64",
						Src:      "httpd-2.4.6-67.el7.src.rpm",
						Filename: "httpd-2.4.6-67.el7.x86_64.rpm",
						Sum:      &types.Checksum{Type: "sha1", Value: "abc"},
					},
				},
			},
		},
	}

	want := `<?xml version="1.0"?>
<updates>
<update from="a&amp;b&quot;c" status="final" type="security" version="1">
  <id>RHSA-2017:1931</id>
  <title>&lt;Moderate&gt; &apos;httpd&apos;</title>
  <release>7</release>
  <issued date="2017-08-01"/>
  <description>x &gt; y &amp; z</description>
  <severity>Moderate</severity>
  <references>
    <reference href="https://bugzilla.redhat.com/show_bug.cgi?id=1463197&amp;a=1" id="1463197" title="bug" type="bugzilla"/>
    <reference href="https://example.com" type="other"/>
  </references>
  <pkglist>
    <collection short="rhel-7">
      <package arch="x86_64" name="httpd" release="67.el7" src="httpd-2.4.6-67.el7.src.rpm" version="2.4.6" epoch="0">
        <filename>httpd-2.4.6-67.el7.x86_64.rpm</filename>
        <sum type="sha1">abc</sum>
      </package>
    </collection>
  </pkglist>
</update>
</updates>
`
	var buf bytes.Buffer
	require.NoError(t, updateinfo.NewEncoder(&buf).WriteDocument([]*types.Advisory{adv}))
	assert.Equal(t, want, buf.String())
}

func TestEncoder_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, updateinfo.NewEncoder(&buf).WriteDocument(nil))
	assert.Equal(t, "<?xml version=\"1.0\"?>\n<updates>\n</updates>\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	advs, broken, err := updateinfo.ParseAll(openFile(t, "testdata/updateinfo.xml"))
	require.NoError(t, err)
	require.Empty(t, broken)

	var buf bytes.Buffer
	require.NoError(t, updateinfo.NewEncoder(&buf).WriteDocument(advs))

	got, broken, err := updateinfo.ParseAll(&buf)
	require.NoError(t, err)
	require.Empty(t, broken)
	require.Len(t, got, len(advs))

	for i := range advs {
		assert.True(t, advs[i].ContentEqual(got[i]), advs[i].ID)
		assert.Equal(t, advs[i].References, got[i].References)
		assert.Equal(t, advs[i].RebootSuggested, got[i].RebootSuggested)
		require.Len(t, got[i].Collections, len(advs[i].Collections))
		for j, coll := range advs[i].Collections {
			assert.Equal(t, coll.Short, got[i].Collections[j].Short)
			assert.Equal(t, coll.Name, got[i].Collections[j].Name)
			require.Len(t, got[i].Collections[j].Packages, len(coll.Packages))
			for k, p := range coll.Packages {
				gp := got[i].Collections[j].Packages[k]
				assert.Equal(t, p.Identity(), gp.Identity())
				assert.Equal(t, p.Filename, gp.Filename)
				assert.Equal(t, p.Src, gp.Src)
				assert.Equal(t, p.Sum, gp.Sum)
			}
		}
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestEncoder_WriteError(t *testing.T) {
	err := updateinfo.NewEncoder(failWriter{}).WriteDocument([]*types.Advisory{{ID: "X"}})
	assert.ErrorContains(t, err, "disk full")
}

func TestEncoder_WriteDocument_Characters(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "carriage return survives",
			value: "line1\r\nline2",
			want:  "line1\r\nline2",
		},
		{
			name:  "control character is replaced",
			value: "ctl\x01char",
			want:  "ctl�char",
		},
		{
			name:  "invalid utf-8 is replaced",
			value: "bad\xffbyte",
			want:  "bad�byte",
		},
		{
			name:  "tab and newline are kept",
			value: "a\tb\nc",
			want:  "a\tb\nc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := &types.Advisory{
				From:        "a",
				Status:      types.StatusFinal,
				Type:        types.TypeSecurity,
				Version:     "1",
				ID:          "RHSA-1",
				Title:       tt.value,
				Issued:      "2017-08-01",
				Description: tt.value,
				References: []types.Reference{
					{ID: "1", Href: "https://example.com", Type: types.ReferenceBugzilla, Title: tt.value},
				},
			}

			var buf bytes.Buffer
			require.NoError(t, updateinfo.NewEncoder(&buf).WriteDocument([]*types.Advisory{adv}))

			got, broken, err := updateinfo.ParseAll(&buf)
			require.NoError(t, err)
			require.Empty(t, broken)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Title)
			assert.Equal(t, tt.want, got[0].Description)
			assert.Equal(t, tt.want, got[0].References[0].Title)

			if tt.want == tt.value {
				assert.True(t, adv.ContentEqual(got[0]))
			}
		})
	}
}
