package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

func TestNewSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want types.Severity
	}{
		{in: "Low", want: types.SeverityLow},
		{in: "Moderate", want: types.SeverityMedium},
		{in: "important", want: types.SeverityHigh},
		{in: " Critical ", want: types.SeverityCritical},
		{in: "", want: types.SeverityUnknown},
		{in: "None", want: types.SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := types.NewSeverity(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, types.ColorizeSeverity(got), got.String())
		})
	}
	assert.Equal(t, "UNKNOWN", types.Severity(42).String())
}

func TestDataSource_String(t *testing.T) {
	assert.Equal(t, "rhel-7-server-rpms", types.DataSource{ID: "rhel-7-server-rpms"}.String())
	assert.Equal(t, "Red Hat Enterprise Linux 7 Server (rhel-7-server-rpms)",
		types.DataSource{ID: "rhel-7-server-rpms", Name: "Red Hat Enterprise Linux 7 Server"}.String())
}
