package updateinfo

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	// ErrMissingID is reported when an <update> has no id or an empty one.
	ErrMissingID = xerrors.New("no id element found")
	// ErrUnexpectedElement is reported for a <references> child that is not a <reference>.
	ErrUnexpectedElement = xerrors.New("unexpected element")
)

// AdvisoryError reports one broken <update> element. Decoding can continue
// with the next advisory.
type AdvisoryError struct {
	// ID is empty when the advisory id itself is missing.
	ID   string
	Line int
	Err  error
}

func (e *AdvisoryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("broken update notice at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("broken update notice %s at line %d: %v", e.ID, e.Line, e.Err)
}

func (e *AdvisoryError) Unwrap() error {
	return e.Err
}

// SyntaxError reports a document that is not well-formed XML. Nothing after
// the failure point can be decoded.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("updateinfo is not valid XML (line %d): %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
