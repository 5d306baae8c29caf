package updateinfo

import (
	"strings"

	"github.com/samber/lo"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

const (
	banner    = "==============================================================================="
	wrapWidth = 64
	continued = "            : "
)

// TextOptions controls Text.
type TextOptions struct {
	// Arches restricts the file list. No file list is printed when empty.
	Arches []string
	// Verbose adds summary, solution and rights.
	Verbose bool
	// Source names the repository the advisory was read from.
	Source string
}

// Text renders an advisory in the traditional human-readable layout.
func Text(adv *types.Advisory, opts TextOptions) string {
	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("  " + adv.Title + "\n")
	b.WriteString(banner + "\n")
	b.WriteString("  Update ID : " + adv.ID + "\n")
	b.WriteString("    Release : " + adv.Release + "\n")
	b.WriteString("       Type : " + adv.Type + "\n")
	b.WriteString("     Status : " + adv.Status + "\n")
	b.WriteString("     Issued : " + adv.Issued + "\n")
	if adv.Updated != "" && adv.Updated != adv.Issued {
		b.WriteString("    Updated : " + adv.Updated + "\n")
	}
	if opts.Source != "" {
		b.WriteString("     Source : " + opts.Source + "\n")
	}

	bugs := lo.Map(adv.ReferencesOf(types.ReferenceBugzilla), func(r types.Reference, _ int) string {
		if r.Title != "" {
			return r.ID + " - " + r.Title
		}
		return r.ID
	})
	writeList(&b, "       Bugs : ", bugs)

	cves := lo.Map(adv.ReferencesOf(types.ReferenceCVE), func(r types.Reference, _ int) string {
		return r.ID
	})
	writeList(&b, "       CVEs : ", cves)

	if opts.Verbose {
		writeWrapped(&b, "    Summary : ", adv.Summary)
	}
	writeWrapped(&b, "Description : ", adv.Description)
	if opts.Verbose {
		writeWrapped(&b, "   Solution : ", adv.Solution)
		writeWrapped(&b, "     Rights : ", adv.Rights)
	}
	writeWrapped(&b, "   Severity : ", adv.Severity)

	if len(opts.Arches) > 0 {
		var files []string
		for _, p := range adv.Packages() {
			if lo.Contains(opts.Arches, p.Arch) {
				files = append(files, p.Filename)
			}
		}
		writeList(&b, "      Files : ", files)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label + strings.Join(items, "\n"+continued) + "\n")
}

func writeWrapped(b *strings.Builder, label, text string) {
	if text == "" {
		return
	}
	lines := wrap(text, wrapWidth, len(continued))
	b.WriteString(label + strings.Join(lines, "\n"+continued) + "\n")
}

// wrap fills words greedily into lines of at most width runes. Every line
// but the first loses indent runes to the continuation prefix. A word longer
// than the line gets a line of its own.
func wrap(text string, width, indent int) []string {
	var (
		lines []string
		line  []rune
	)
	limit := width
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		switch {
		case len(line) == 0:
			line = w
		case len(line)+1+len(w) <= limit:
			line = append(append(line, ' '), w...)
		default:
			lines = append(lines, string(line))
			line = w
			limit = width - indent
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
