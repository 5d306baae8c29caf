package types

import (
	"strings"

	"github.com/fatih/color"
)

type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var (
	SeverityNames = []string{
		"UNKNOWN",
		"LOW",
		"MEDIUM",
		"HIGH",
		"CRITICAL",
	}
	SeverityColor = []func(a ...interface{}) string{
		color.New(color.FgCyan).SprintFunc(),
		color.New(color.FgBlue).SprintFunc(),
		color.New(color.FgYellow).SprintFunc(),
		color.New(color.FgHiRed).SprintFunc(),
		color.New(color.FgRed).SprintFunc(),
	}
)

// NewSeverity generalizes the free-form severity found in updateinfo
// documents. Red Hat style names and plain low/medium/high are recognized.
func NewSeverity(severity string) Severity {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "low":
		return SeverityLow
	case "moderate", "medium":
		return SeverityMedium
	case "important", "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	}
	return SeverityUnknown
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(SeverityNames) {
		return SeverityNames[SeverityUnknown]
	}
	return SeverityNames[s]
}

func ColorizeSeverity(s Severity) string {
	if s < 0 || int(s) >= len(SeverityColor) {
		s = SeverityUnknown
	}
	return SeverityColor[s](s.String())
}

// DataSource describes the repository an advisory set was read from.
type DataSource struct {
	ID   string `json:",omitempty"`
	Name string `json:",omitempty"`
	URL  string `json:",omitempty"`
}

func (d DataSource) String() string {
	if d.Name == "" {
		return d.ID
	}
	return d.Name + " (" + d.ID + ")"
}
