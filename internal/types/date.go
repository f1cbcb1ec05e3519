package types

import (
	"time"
)

// DateLayout is the DD/MM/YYYY layout used by the patient export.
const DateLayout = "02/01/2006"

// ParseDate parses a DD/MM/YYYY field. An empty value is an absent date,
// not an error.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, &ParseError{Value: value, Row: -1, Err: err}
	}
	return &t, nil
}

// parseRowDate is ParseDate with the field name and row position filled in.
func parseRowDate(field, value string, row int) (*time.Time, error) {
	t, err := ParseDate(value)
	if err != nil {
		pe := err.(*ParseError)
		pe.Field = field
		pe.Row = row
		return nil, pe
	}
	return t, nil
}

// ParseBirthDate parses the DATE_NAISSANCE field of the row at position pos.
func (r RawPatientRow) ParseBirthDate(pos int) (*time.Time, error) {
	return parseRowDate("DATE_NAISSANCE", r.BirthDate, pos)
}

// ParseDeathDate parses the DATE_MORT field of the row at position pos.
func (r RawPatientRow) ParseDeathDate(pos int) (*time.Time, error) {
	return parseRowDate("DATE_MORT", r.DeathDate, pos)
}
