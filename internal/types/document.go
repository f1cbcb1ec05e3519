package types

import "time"

// Origin identifies the source system of a document.
type Origin string

const (
	OriginPatientRecord Origin = "DOSSIER_PATIENT"
	OriginRadiology     Origin = "RADIOLOGIE_SOFTWARE"
)

// IsValid checks if the origin value is valid
func (o Origin) IsValid() bool {
	switch o {
	case OriginPatientRecord, OriginRadiology:
		return true
	}
	return false
}

// Document is a row of DWH_DOCUMENT.
type Document struct {
	PatientNum  int64      `json:"patient_num"`
	DocumentNum string     `json:"document_num"`
	Date        *time.Time `json:"document_date,omitempty"`
	UpdateDate  time.Time  `json:"update_date"`
	Origin      Origin     `json:"document_origin_code"`
	Text        string     `json:"displayed_text"`
	Author      *string    `json:"author,omitempty"`
	SourcePath  string     `json:"-"`
}
