package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicaldwh/drwh/internal/types"
)

const insertPatientSQL = `
	INSERT INTO DWH_PATIENT (
		PATIENT_NUM, LASTNAME, FIRSTNAME, BIRTH_DATE, SEX, MAIDEN_NAME,
		RESIDENCE_ADDRESS, PHONE_NUMBER, ZIP_CODE, RESIDENCE_CITY,
		DEATH_DATE, RESIDENCE_COUNTRY, DEATH_CODE, UPLOAD_ID
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertPatients writes the patient view in a single transaction. Either all
// rows are stored or none are.
func (s *SQLiteStorage) InsertPatients(ctx context.Context, patients []types.Patient) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertPatientSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare patient insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range patients {
			_, err := stmt.ExecContext(ctx,
				p.PatientNum, p.LastName, p.FirstName, formatDate(p.BirthDate), p.Sex,
				nullString(p.MaidenName), p.Address, p.Phone, p.PostalCode, p.City,
				formatDate(p.DeathDate), p.Country, boolInt(p.Deceased), p.UploadID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert patient %d: %w", p.PatientNum, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(patients), nil
}

// GetPatient retrieves a patient by number. Returns nil if not found.
func (s *SQLiteStorage) GetPatient(ctx context.Context, patientNum int64) (*types.Patient, error) {
	var p types.Patient
	var birth, death, maiden sql.NullString
	var deathCode int
	err := s.db.QueryRowContext(ctx, `
		SELECT PATIENT_NUM, LASTNAME, FIRSTNAME, BIRTH_DATE, SEX, MAIDEN_NAME,
		       RESIDENCE_ADDRESS, PHONE_NUMBER, ZIP_CODE, RESIDENCE_CITY,
		       DEATH_DATE, RESIDENCE_COUNTRY, DEATH_CODE, UPLOAD_ID
		FROM DWH_PATIENT
		WHERE PATIENT_NUM = ?
	`, patientNum).Scan(
		&p.PatientNum, &p.LastName, &p.FirstName, &birth, &p.Sex, &maiden,
		&p.Address, &p.Phone, &p.PostalCode, &p.City,
		&death, &p.Country, &deathCode, &p.UploadID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient %d: %w", patientNum, err)
	}

	if p.BirthDate, err = parseDate(birth); err != nil {
		return nil, err
	}
	if p.DeathDate, err = parseDate(death); err != nil {
		return nil, err
	}
	p.MaidenName = stringPtr(maiden)
	p.Deceased = deathCode == 1

	return &p, nil
}
