package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicaldwh/drwh/internal/types"
)

// InsertHistory writes the identifier history view in a single transaction.
func (s *SQLiteStorage) InsertHistory(ctx context.Context, history []types.PatientHistory) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO DWH_PATIENT_IPPHIST (
				PATIENT_NUM, HOSPITAL_PATIENT_ID, ORIGIN_PATIENT_ID, MASTER_PATIENT_ID, UPLOAD_ID
			) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare history insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, h := range history {
			_, err := stmt.ExecContext(ctx,
				h.PatientNum, h.HospitalPatientID, h.OriginPatientID, boolInt(h.Master), h.UploadID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert history row %d (%s): %w", i, h.HospitalPatientID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(history), nil
}

// ResolvePatientNum maps an external hospital identifier to its canonical
// patient_num. Only master rows take part and the match is exact.
func (s *SQLiteStorage) ResolvePatientNum(ctx context.Context, externalID string) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT PATIENT_NUM
		FROM DWH_PATIENT_IPPHIST
		WHERE HOSPITAL_PATIENT_ID = ? AND MASTER_PATIENT_ID = 1
		ORDER BY PATIENT_NUM
	`, externalID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %q: %w", externalID, err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []int64
	for rows.Next() {
		var num int64
		if err := rows.Scan(&num); err != nil {
			return 0, fmt.Errorf("failed to scan patient_num: %w", err)
		}
		candidates = append(candidates, num)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to resolve %q: %w", externalID, err)
	}

	if len(candidates) != 1 {
		return 0, types.NewResolutionError(externalID, candidates)
	}
	return candidates[0], nil
}

// GetHistory returns every identifier row of a patient, master rows first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, patientNum int64) ([]types.PatientHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT PATIENT_NUM, HOSPITAL_PATIENT_ID, ORIGIN_PATIENT_ID, MASTER_PATIENT_ID, UPLOAD_ID
		FROM DWH_PATIENT_IPPHIST
		WHERE PATIENT_NUM = ?
		ORDER BY MASTER_PATIENT_ID DESC, rowid
	`, patientNum)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []types.PatientHistory
	for rows.Next() {
		var h types.PatientHistory
		var master int
		if err := rows.Scan(&h.PatientNum, &h.HospitalPatientID, &h.OriginPatientID, &master, &h.UploadID); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		h.Master = master == 1
		history = append(history, h)
	}
	return history, rows.Err()
}
