package deduplication

import (
	"fmt"
	"strings"

	"github.com/clinicaldwh/drwh/internal/types"
)

// RunContext carries the per-run values stamped on every history row.
type RunContext struct {
	UploadID int64
	Origin   string // provenance, usually the spreadsheet path
}

// BuildPatients emits one patient per cluster, taken from the cluster's
// first row, in original row order.
func BuildPatients(rows []types.RawPatientRow, m *Mapping, uploadID int64) ([]types.Patient, error) {
	if err := checkLen(rows, m); err != nil {
		return nil, err
	}

	patients := make([]types.Patient, 0, m.ClusterCount())
	for i, row := range rows {
		if !m.IsMaster(i) {
			continue
		}
		birth, err := row.ParseBirthDate(i)
		if err != nil {
			return nil, err
		}
		death, err := row.ParseDeathDate(i)
		if err != nil {
			return nil, err
		}
		patients = append(patients, types.Patient{
			PatientNum: int64(i),
			LastName:   row.LastName,
			FirstName:  row.FirstName,
			BirthDate:  birth,
			Sex:        row.Sex,
			MaidenName: trimmedOrNil(row.MaidenName),
			Address:    row.Address,
			Phone:      row.Phone,
			PostalCode: row.PostalCode,
			City:       row.City,
			Country:    row.Country,
			DeathDate:  death,
			Deceased:   death != nil,
			UploadID:   uploadID,
		})
	}
	return patients, nil
}

// BuildHistory emits one history row per input row, in original order.
// Every row points at its cluster's patient_num; only the cluster's first
// row is flagged master.
func BuildHistory(rows []types.RawPatientRow, m *Mapping, rc RunContext) ([]types.PatientHistory, error) {
	if err := checkLen(rows, m); err != nil {
		return nil, err
	}

	history := make([]types.PatientHistory, len(rows))
	for i, row := range rows {
		history[i] = types.PatientHistory{
			PatientNum:        int64(m.Representative(i)),
			HospitalPatientID: row.HospitalPatientID,
			OriginPatientID:   rc.Origin,
			UploadID:          rc.UploadID,
			Master:            m.IsMaster(i),
		}
	}
	return history, nil
}

func checkLen(rows []types.RawPatientRow, m *Mapping) error {
	if m == nil {
		return fmt.Errorf("mapping is required")
	}
	if m.Len() != len(rows) {
		return fmt.Errorf("mapping covers %d rows, got %d rows", m.Len(), len(rows))
	}
	return nil
}

func trimmedOrNil(s string) *string {
	if s == "" {
		return nil
	}
	v := strings.TrimSpace(s)
	return &v
}
