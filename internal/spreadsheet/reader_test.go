package spreadsheet

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/clinicaldwh/drwh/internal/types"
)

// TestValidateHeader tests that only the exact export header is accepted
func TestValidateHeader(t *testing.T) {
	if err := ValidateHeader(types.PatientHeader); err != nil {
		t.Fatalf("ValidateHeader rejected the export header: %v", err)
	}

	swapped := append([]string(nil), types.PatientHeader...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	tests := []struct {
		name   string
		header []string
	}{
		{"empty", nil},
		{"missing column", types.PatientHeader[:11]},
		{"extra column", append(append([]string(nil), types.PatientHeader...), "EXTRA")},
		{"swapped order", swapped},
		{"lower case", append([]string{"nom"}, types.PatientHeader[1:]...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.header)
			var se *types.SchemaError
			if !errors.As(err, &se) {
				t.Errorf("expected *SchemaError, got %v", err)
			}
		})
	}
}

func TestReadPatientsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_patient.xlsx")
	rows := []types.RawPatientRow{
		{LastName: "Dupont", FirstName: "Jean", BirthDate: "01/01/1950", Sex: "M", HospitalPatientID: "0007", City: "Rennes"},
		{LastName: "Martin", FirstName: "Eve", BirthDate: "02/02/1960", Sex: "F", MaidenName: "Durand",
			HospitalPatientID: "31", Address: "1 rue de la Paix", Phone: "0102030405", PostalCode: "35000",
			City: "Rennes", Country: "France", DeathDate: "03/03/2021"},
	}
	if err := WritePatients(path, DefaultSheet, rows); err != nil {
		t.Fatalf("WritePatients failed: %v", err)
	}

	got, err := ReadPatients(path, DefaultSheet)
	if err != nil {
		t.Fatalf("ReadPatients failed: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("ReadPatients = %+v, want %+v", got, rows)
	}
}

// writeSheet writes the export header and the given last names in column A,
// keyed by sheet row number.
func writeSheet(t *testing.T, lastNames map[int]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.xlsx")
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, h := range types.PatientHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr("Sheet1", cell, h); err != nil {
			t.Fatalf("SetCellStr failed: %v", err)
		}
	}
	for row, name := range lastNames {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStr("Sheet1", cell, name); err != nil {
			t.Fatalf("SetCellStr failed: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	return path
}

func TestReadPatientsPadsShortRows(t *testing.T) {
	path := writeSheet(t, map[int]string{2: "Dupont", 3: "Martin"})

	got, err := ReadPatients(path, "Sheet1")
	if err != nil {
		t.Fatalf("ReadPatients failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].LastName != "Dupont" || got[1].LastName != "Martin" {
		t.Errorf("unexpected last names %q, %q", got[0].LastName, got[1].LastName)
	}
	if got[1].DeathDate != "" {
		t.Errorf("missing trailing cell should read as empty, got %q", got[1].DeathDate)
	}
}

func TestReadPatientsBlankRowBetweenPatients(t *testing.T) {
	// Sheet row 3 is empty: it is data row 1, and Martin would be row 2.
	path := writeSheet(t, map[int]string{2: "Dupont", 4: "Martin"})

	_, err := ReadPatients(path, "Sheet1")
	var be *types.BlankRowError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BlankRowError, got %v", err)
	}
	if be.Row != 1 {
		t.Errorf("BlankRowError.Row = %d, want 1", be.Row)
	}
}

func TestReadPatientsIgnoresTrailingBlankRows(t *testing.T) {
	path := writeSheet(t, map[int]string{2: "Dupont", 3: "Martin", 6: ""})

	got, err := ReadPatients(path, "Sheet1")
	if err != nil {
		t.Fatalf("ReadPatients failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 rows, got %d", len(got))
	}
}

func TestReadPatientsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellStr("Sheet1", "A1", "LAST_NAME"); err != nil {
		t.Fatalf("SetCellStr failed: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	_ = f.Close()

	_, err := ReadPatients(path, "Sheet1")
	var se *types.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if !reflect.DeepEqual(se.Got, []string{"LAST_NAME"}) {
		t.Errorf("SchemaError.Got = %v", se.Got)
	}
}

func TestReadPatientsMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	if err := WritePatients(path, DefaultSheet, nil); err != nil {
		t.Fatalf("WritePatients failed: %v", err)
	}

	if _, err := ReadPatients(path, "Other"); err == nil {
		t.Error("expected an error for a missing sheet")
	}

	got, err := ReadPatients(path, DefaultSheet)
	if err != nil {
		t.Fatalf("ReadPatients failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("template should have no rows, got %d", len(got))
	}
}
