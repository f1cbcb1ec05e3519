package types

import (
	"fmt"
	"time"
)

// PatientHeader is the exact column list of the patient export worksheet.
// Order and case matter.
var PatientHeader = []string{
	"NOM",
	"PRENOM",
	"DATE_NAISSANCE",
	"SEXE",
	"NOM_JEUNE_FILLE",
	"HOSPITAL_PATIENT_ID",
	"ADRESSE",
	"TEL",
	"CP",
	"VILLE",
	"PAYS",
	"DATE_MORT",
}

// RawPatientRow is one record of the patient export, exactly as read.
// Dates stay strings until a view builder parses them.
type RawPatientRow struct {
	LastName          string `json:"last_name"`
	FirstName         string `json:"first_name"`
	BirthDate         string `json:"birth_date,omitempty"` // DD/MM/YYYY or empty
	Sex               string `json:"sex"`
	MaidenName        string `json:"maiden_name,omitempty"`
	HospitalPatientID string `json:"hospital_patient_id"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	PostalCode        string `json:"postal_code"`
	City              string `json:"city"`
	Country           string `json:"country"`
	DeathDate         string `json:"death_date,omitempty"` // DD/MM/YYYY or empty
}

// IdentityKey decides whether two rows describe the same person.
// Values are compared exactly: no case folding, no trimming.
type IdentityKey struct {
	LastName  string
	FirstName string
	BirthDate string
}

// Key returns the identity key of the row.
func (r RawPatientRow) Key() IdentityKey {
	return IdentityKey{
		LastName:  r.LastName,
		FirstName: r.FirstName,
		BirthDate: r.BirthDate,
	}
}

func (k IdentityKey) String() string {
	birth := k.BirthDate
	if birth == "" {
		birth = "<none>"
	}
	return fmt.Sprintf("%s|%s|%s", k.LastName, k.FirstName, birth)
}

// Patient is a row of the deduplicated patient table (DWH_PATIENT).
type Patient struct {
	PatientNum int64      `json:"patient_num"`
	LastName   string     `json:"last_name"`
	FirstName  string     `json:"first_name"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Sex        string     `json:"sex"`
	MaidenName *string    `json:"maiden_name,omitempty"`
	Address    string     `json:"address"`
	Phone      string     `json:"phone"`
	PostalCode string     `json:"postal_code"`
	City       string     `json:"city"`
	Country    string     `json:"country"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	Deceased   bool       `json:"deceased"`
	UploadID   int64      `json:"upload_id"`
}

// PatientHistory is a row of the historical identifier table
// (DWH_PATIENT_IPPHIST). There is one per raw row, duplicates included.
type PatientHistory struct {
	PatientNum        int64  `json:"patient_num"`
	HospitalPatientID string `json:"hospital_patient_id"`
	OriginPatientID   string `json:"origin_patient_id"` // source file path
	UploadID          int64  `json:"upload_id"`
	Master            bool   `json:"master"`
}

// Upload describes one load run.
type Upload struct {
	UploadID      int64      `json:"upload_id"`
	RunID         string     `json:"run_id"`
	Source        string     `json:"source"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	PatientCount  int        `json:"patient_count"`
	HistoryCount  int        `json:"history_count"`
	DocumentCount int        `json:"document_count"`
}

// Statistics holds row counts of the warehouse tables.
type Statistics struct {
	Patients    int `json:"patients"`
	HistoryRows int `json:"history_rows"`
	MasterRows  int `json:"master_rows"`
	Documents   int `json:"documents"`
	Uploads     int `json:"uploads"`
}
