// Package spreadsheet reads the patient export worksheet.
package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/clinicaldwh/drwh/internal/types"
)

// DefaultSheet is the worksheet name of the hospital patient export.
const DefaultSheet = "Export Worksheet"

// ValidateHeader checks that header is exactly types.PatientHeader.
func ValidateHeader(header []string) error {
	if len(header) != len(types.PatientHeader) {
		return &types.SchemaError{Got: header, Want: types.PatientHeader}
	}
	for i, h := range header {
		if h != types.PatientHeader[i] {
			return &types.SchemaError{Got: header, Want: types.PatientHeader}
		}
	}
	return nil
}

// ReadPatients reads every data row of sheet in file order. The position of
// a row in the result is its data row number in the sheet, which becomes
// the patient_num of its cluster. Empty rows after the last patient are
// ignored; an empty row between patients fails with *types.BlankRowError
// since dropping it would renumber every later patient.
func ReadPatients(path, sheet string) ([]types.RawPatientRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &types.SchemaError{Got: nil, Want: types.PatientHeader}
	}
	if err := ValidateHeader(rows[0]); err != nil {
		return nil, err
	}

	last := len(rows) - 1
	for last > 0 && isBlank(rows[last]) {
		last--
	}
	data := rows[1 : last+1]

	patients := make([]types.RawPatientRow, 0, len(data))
	for i, cells := range data {
		if isBlank(cells) {
			return nil, &types.BlankRowError{Row: i}
		}
		patients = append(patients, rowFromCells(cells))
	}
	return patients, nil
}

func rowFromCells(cells []string) types.RawPatientRow {
	// GetRows drops trailing empty cells.
	c := make([]string, len(types.PatientHeader))
	copy(c, cells)
	return types.RawPatientRow{
		LastName:          c[0],
		FirstName:         c[1],
		BirthDate:         c[2],
		Sex:               c[3],
		MaidenName:        c[4],
		HospitalPatientID: c[5],
		Address:           c[6],
		Phone:             c[7],
		PostalCode:        c[8],
		City:              c[9],
		Country:           c[10],
		DeathDate:         c[11],
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
