package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/clinicaldwh/drwh/internal/types"
)

// WritePatients writes a patient export with the expected header followed
// by rows. With no rows it produces an empty import template. All cells are
// written as text so dates and zero-padded identifiers survive untouched.
func WritePatients(path, sheet string, rows []types.RawPatientRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	if err := writeRow(f, sheet, 1, types.PatientHeader); err != nil {
		return err
	}
	for i, r := range rows {
		values := []string{
			r.LastName, r.FirstName, r.BirthDate, r.Sex, r.MaidenName, r.HospitalPatientID,
			r.Address, r.Phone, r.PostalCode, r.City, r.Country, r.DeathDate,
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	for col, v := range values {
		if v == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
