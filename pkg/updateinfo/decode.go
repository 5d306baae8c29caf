// Package updateinfo reads and writes updateinfo.xml documents.
package updateinfo

import (
	"encoding/xml"
	"errors"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

type update struct {
	From        string       `xml:"from,attr"`
	Type        string       `xml:"type,attr"`
	Status      string       `xml:"status,attr"`
	Version     string       `xml:"version,attr"`
	ID          string       `xml:"id"`
	Title       string       `xml:"title"`
	Release     string       `xml:"release"`
	Issued      date         `xml:"issued"`
	Updated     date         `xml:"updated"`
	PushCount   string       `xml:"pushcount"`
	Severity    string       `xml:"severity"`
	Description string       `xml:"description"`
	Rights      string       `xml:"rights"`
	Summary     string       `xml:"summary"`
	Solution    string       `xml:"solution"`
	References  []references `xml:"references"`
	Collections []collection `xml:"pkglist>collection"`
}

type date struct {
	Date string `xml:"date,attr"`
}

type references struct {
	References []reference `xml:"reference"`
	Unexpected []element   `xml:",any"`
}

type element struct {
	XMLName xml.Name
}

type reference struct {
	Href  string `xml:"href,attr"`
	ID    string `xml:"id,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type collection struct {
	Short    string `xml:"short,attr"`
	NameAttr string `xml:"name,attr"`
	Name     string `xml:"name"`
	Packages []pkg  `xml:"package"`
}

type pkg struct {
	Name            string  `xml:"name,attr"`
	Version         string  `xml:"version,attr"`
	Release         string  `xml:"release,attr"`
	Epoch           string  `xml:"epoch,attr"`
	Arch            string  `xml:"arch,attr"`
	Src             string  `xml:"src,attr"`
	Filename        string  `xml:"filename"`
	Sum             *sum    `xml:"sum"`
	RebootSuggested *string `xml:"reboot_suggested"`
}

type sum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Decoder reads advisories one at a time from an updateinfo document.
type Decoder struct {
	dec *xml.Decoder
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return &Decoder{dec: dec}
}

// Decode returns the next advisory of the document.
//
// An *AdvisoryError means one <update> was skipped and Decode may be called
// again. A *SyntaxError is terminal and returned by every later call, as is
// io.EOF at the end of the document.
func (d *Decoder) Decode() (*types.Advisory, error) {
	if d.err != nil {
		return nil, d.err
	}
	for {
		line, _ := d.dec.InputPos()
		tok, err := d.dec.Token()
		if errors.Is(err, io.EOF) {
			d.err = io.EOF
			return nil, d.err
		} else if err != nil {
			return nil, d.fail(line, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "update" {
			continue
		}

		line, _ = d.dec.InputPos()
		var u update
		if err = d.dec.DecodeElement(&u, &start); err != nil {
			if isSyntaxError(err) {
				return nil, d.fail(line, err)
			}
			return nil, &AdvisoryError{ID: u.ID, Line: line, Err: err}
		}

		adv, err := u.advisory()
		if err != nil {
			return nil, &AdvisoryError{ID: u.ID, Line: line, Err: err}
		}
		return adv, nil
	}
}

func (d *Decoder) fail(line int, err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		line = se.Line
	}
	d.err = &SyntaxError{Line: line, Err: err}
	return d.err
}

func isSyntaxError(err error) bool {
	var se *xml.SyntaxError
	return errors.As(err, &se) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// ParseAll decodes a whole document. It returns the advisories read, the
// per-advisory errors and the document error, if any. Advisories decoded
// before a document error are still returned.
func ParseAll(r io.Reader) ([]*types.Advisory, []error, error) {
	var (
		advs   []*types.Advisory
		broken []error
	)
	dec := NewDecoder(r)
	for {
		adv, err := dec.Decode()
		var ae *AdvisoryError
		switch {
		case err == nil:
			advs = append(advs, adv)
		case errors.As(err, &ae):
			broken = append(broken, err)
		case errors.Is(err, io.EOF):
			return advs, broken, nil
		default:
			return advs, broken, err
		}
	}
}

func (u update) advisory() (*types.Advisory, error) {
	if u.ID == "" {
		return nil, ErrMissingID
	}

	adv := &types.Advisory{
		From:        u.From,
		Type:        u.Type,
		Title:       u.Title,
		Release:     u.Release,
		Status:      u.Status,
		Version:     u.Version,
		ID:          u.ID,
		Issued:      u.Issued.Date,
		Updated:     u.Updated.Date,
		PushCount:   u.PushCount,
		Description: u.Description,
		Rights:      u.Rights,
		Severity:    u.Severity,
		Summary:     u.Summary,
		Solution:    u.Solution,
	}

	for _, refs := range u.References {
		if len(refs.Unexpected) > 0 {
			return nil, xerrors.Errorf("<%s> in references: %w", refs.Unexpected[0].XMLName.Local, ErrUnexpectedElement)
		}
		for _, ref := range refs.References {
			adv.References = append(adv.References, types.Reference{
				ID:    ref.ID,
				Href:  ref.Href,
				Type:  ref.Type,
				Title: ref.Title,
			})
		}
	}

	for _, c := range u.Collections {
		coll := types.Collection{
			Short: c.Short,
			Name:  c.Name,
		}
		if coll.Name == "" {
			coll.Name = c.NameAttr
		}
		for _, p := range c.Packages {
			entry := types.Package{
				Name:     p.Name,
				Epoch:    types.ParseEpoch(p.Epoch),
				Version:  p.Version,
				Release:  p.Release,
				Arch:     p.Arch,
				Src:      p.Src,
				Filename: p.Filename,
			}
			if p.Sum != nil {
				entry.Sum = &types.Checksum{Type: p.Sum.Type, Value: p.Sum.Value}
			}
			if p.RebootSuggested != nil {
				adv.RebootSuggested = true
			}
			coll.Packages = append(coll.Packages, entry)
		}
		adv.Collections = append(adv.Collections, coll)
	}
	return adv, nil
}
