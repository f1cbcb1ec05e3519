package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no master history row carries the external identifier.
	ErrNotFound = errors.New("no master patient for external identifier")

	// ErrAmbiguousMatch means master rows of several clusters share the
	// external identifier.
	ErrAmbiguousMatch = errors.New("external identifier matches several master patients")

	// ErrUploadExists means the upload id is already in the run journal.
	ErrUploadExists = errors.New("upload id already used")
)

// SchemaError reports a worksheet header that differs from PatientHeader.
type SchemaError struct {
	Got  []string
	Want []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected header [%s], want [%s]",
		strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// ParseError reports a date field that is present but not DD/MM/YYYY.
// Row is the 0-based data row position, or -1 when unknown.
type ParseError struct {
	Field string
	Value string
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: cannot parse %s %q as DD/MM/YYYY", e.Row, e.Field, e.Value)
	}
	return fmt.Sprintf("cannot parse %s %q as DD/MM/YYYY", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BlankRowError reports an empty row between patient rows of the export.
// Row is the 0-based data row position.
type BlankRowError struct {
	Row int
}

func (e *BlankRowError) Error() string {
	return fmt.Sprintf("row %d: empty row between patient rows", e.Row)
}

// FilenameParseError reports a document file name that does not follow
// <external id>_<document id>.<pdf|docx>.
type FilenameParseError struct {
	Name string
}

func (e *FilenameParseError) Error() string {
	return fmt.Sprintf("cannot parse document file name %q", e.Name)
}

// ResolutionError wraps ErrNotFound or ErrAmbiguousMatch with the
// identifier that failed to resolve.
type ResolutionError struct {
	ExternalID string
	Candidates []int64
	Err        error
}

func (e *ResolutionError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("resolve %q: %v (patient_num candidates %v)", e.ExternalID, e.Err, e.Candidates)
	}
	return fmt.Sprintf("resolve %q: %v", e.ExternalID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NewResolutionError builds the error for a lookup that returned zero or
// several candidates.
func NewResolutionError(externalID string, candidates []int64) *ResolutionError {
	err := ErrNotFound
	if len(candidates) > 1 {
		err = ErrAmbiguousMatch
	}
	return &ResolutionError{ExternalID: externalID, Candidates: candidates, Err: err}
}
