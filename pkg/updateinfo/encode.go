package updateinfo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

// escape writes the five predefined entities by name and a carriage return
// as a character reference, so that reading the text back yields s again.
// Characters XML cannot hold, including invalid UTF-8, become U+FFFD.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\'':
			b.WriteString("&apos;")
		case r == '\r':
			b.WriteString("&#xD;")
		case !isInCharacterRange(r):
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isInCharacterRange reports whether r is a Char of the XML 1.0 grammar.
// Decoding invalid UTF-8 yields utf8.RuneError, which is in range.
func isInCharacterRange(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Encoder writes an updateinfo document.
type Encoder struct {
	w   *bufio.Writer
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteDocument writes the XML declaration, every advisory in order and the
// closing tag, then flushes.
func (e *Encoder) WriteDocument(advs []*types.Advisory) error {
	e.printf("<?xml version=\"1.0\"?>\n<updates>\n")
	for _, adv := range advs {
		e.writeAdvisory(adv)
	}
	e.printf("</updates>\n")
	return e.Flush()
}

func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		e.err = oops.In("updateinfo").Wrapf(err, "flush error")
	}
	return e.err
}

func (e *Encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = oops.In("updateinfo").Wrapf(err, "write error")
	}
}

func (e *Encoder) element(indent, name, value string) {
	e.printf("%s<%s>%s</%s>\n", indent, name, escape(value), name)
}

func (e *Encoder) optional(indent, name, value string) {
	if value != "" {
		e.element(indent, name, value)
	}
}

func (e *Encoder) writeAdvisory(adv *types.Advisory) {
	e.printf("<update from=\"%s\" status=\"%s\" type=\"%s\" version=\"%s\">\n",
		escape(adv.From), escape(adv.Status), escape(adv.Type), escape(adv.Version))
	e.element("  ", "id", adv.ID)
	e.element("  ", "title", adv.Title)
	e.element("  ", "release", adv.Release)
	e.printf("  <issued date=\"%s\"/>\n", escape(adv.Issued))
	if adv.Updated != "" {
		e.printf("  <updated date=\"%s\"/>\n", escape(adv.Updated))
	}
	e.optional("  ", "pushcount", adv.PushCount)
	e.element("  ", "description", adv.Description)
	e.optional("  ", "summary", adv.Summary)
	e.optional("  ", "solution", adv.Solution)
	e.optional("  ", "rights", adv.Rights)
	e.optional("  ", "severity", adv.Severity)

	if len(adv.References) > 0 {
		e.printf("  <references>\n")
		for _, ref := range adv.References {
			e.writeReference(ref)
		}
		e.printf("  </references>\n")
	}

	if len(adv.Collections) > 0 {
		e.printf("  <pkglist>\n")
		for _, coll := range adv.Collections {
			e.writeCollection(coll, adv.RebootSuggested)
		}
		e.printf("  </pkglist>\n")
	}
	e.printf("</update>\n")
}

func (e *Encoder) writeReference(ref types.Reference) {
	var b strings.Builder
	fmt.Fprintf(&b, "    <reference href=\"%s\"", escape(ref.Href))
	if ref.ID != "" {
		fmt.Fprintf(&b, " id=\"%s\"", escape(ref.ID))
	}
	if ref.Title != "" {
		fmt.Fprintf(&b, " title=\"%s\"", escape(ref.Title))
	}
	fmt.Fprintf(&b, " type=\"%s\"/>\n", escape(ref.Type))
	e.printf("%s", b.String())
}

func (e *Encoder) writeCollection(coll types.Collection, reboot bool) {
	if coll.Short != "" {
		e.printf("    <collection short=\"%s\">\n", escape(coll.Short))
	} else {
		e.printf("    <collection>\n")
	}
	e.optional("      ", "name", coll.Name)
	for _, p := range coll.Packages {
		epoch := "0"
		if p.Epoch != nil {
			epoch = fmt.Sprint(*p.Epoch)
		}
		e.printf("      <package arch=\"%s\" name=\"%s\" release=\"%s\" src=\"%s\" version=\"%s\" epoch=\"%s\">\n",
			escape(p.Arch), escape(p.Name), escape(p.Release), escape(p.Src), escape(p.Version), epoch)
		e.element("        ", "filename", p.Filename)
		if p.Sum != nil {
			e.printf("        <sum type=\"%s\">%s</sum>\n", escape(p.Sum.Type), escape(p.Sum.Value))
		}
		if reboot {
			e.printf("        <reboot_suggested>True</reboot_suggested>\n")
		}
		e.printf("      </package>\n")
	}
	e.printf("    </collection>\n")
}
