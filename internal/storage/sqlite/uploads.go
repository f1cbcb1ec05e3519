package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicaldwh/drwh/internal/types"
)

const uploadCounterName = "upload"

// NextUploadID atomically allocates the next upload batch id. The counter
// outlives Reset, so ids are never reused.
func (s *SQLiteStorage) NextUploadID(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO DWH_UPLOAD_COUNTER (NAME, LAST_ID)
		VALUES (?, 1)
		ON CONFLICT(NAME) DO UPDATE SET LAST_ID = LAST_ID + 1
		RETURNING LAST_ID
	`, uploadCounterName).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate upload id: %w", err)
	}
	return next, nil
}

// StartUpload adds the journal entry of a load run that is about to write.
// An id that is already journaled fails with types.ErrUploadExists. An
// explicitly chosen id moves the counter forward so later allocations stay
// above it.
func (s *SQLiteStorage) StartUpload(ctx context.Context, u *types.Upload) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+tableUpload+` WHERE UPLOAD_ID = ?`, u.UploadID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check upload %d: %w", u.UploadID, err)
		}
		if exists > 0 {
			return fmt.Errorf("upload %d: %w", u.UploadID, types.ErrUploadExists)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO DWH_UPLOAD (UPLOAD_ID, RUN_ID, SOURCE, STARTED_AT)
			VALUES (?, ?, ?, ?)
		`, u.UploadID, u.RunID, u.Source, formatTimestamp(u.StartedAt))
		if err != nil {
			return fmt.Errorf("failed to record upload %d: %w", u.UploadID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO DWH_UPLOAD_COUNTER (NAME, LAST_ID)
			VALUES (?, ?)
			ON CONFLICT(NAME) DO UPDATE SET LAST_ID = MAX(LAST_ID, excluded.LAST_ID)
		`, uploadCounterName, u.UploadID)
		if err != nil {
			return fmt.Errorf("failed to sync upload counter: %w", err)
		}
		return nil
	})
}

// FinishUpload marks the run's journal entry finished and stores its row
// counts. The entry must have been started by the same run.
func (s *SQLiteStorage) FinishUpload(ctx context.Context, u *types.Upload) error {
	if u.FinishedAt == nil {
		return fmt.Errorf("upload %d has no finish time", u.UploadID)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE DWH_UPLOAD
		SET FINISHED_AT = ?, PATIENT_COUNT = ?, HISTORY_COUNT = ?, DOCUMENT_COUNT = ?
		WHERE UPLOAD_ID = ? AND RUN_ID = ? AND FINISHED_AT IS NULL
	`, formatTimestamp(*u.FinishedAt), u.PatientCount, u.HistoryCount, u.DocumentCount,
		u.UploadID, u.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish upload %d: %w", u.UploadID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish upload %d: %w", u.UploadID, err)
	}
	if n != 1 {
		return fmt.Errorf("upload %d of run %s is not an open journal entry", u.UploadID, u.RunID)
	}
	return nil
}

// GetLastUpload returns the most recently started upload. Returns nil if the
// journal is empty.
func (s *SQLiteStorage) GetLastUpload(ctx context.Context) (*types.Upload, error) {
	var u types.Upload
	var started string
	var finished sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT UPLOAD_ID, RUN_ID, SOURCE, STARTED_AT, FINISHED_AT,
		       PATIENT_COUNT, HISTORY_COUNT, DOCUMENT_COUNT
		FROM DWH_UPLOAD
		ORDER BY STARTED_AT DESC, UPLOAD_ID DESC
		LIMIT 1
	`).Scan(&u.UploadID, &u.RunID, &u.Source, &started, &finished,
		&u.PatientCount, &u.HistoryCount, &u.DocumentCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last upload: %w", err)
	}

	if u.StartedAt, err = parseTimestamp(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		t, err := parseTimestamp(finished.String)
		if err != nil {
			return nil, err
		}
		u.FinishedAt = &t
	}
	return &u, nil
}

// GetStatistics counts the rows of every warehouse table.
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	var stats types.Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM `+tablePatient+`),
			(SELECT COUNT(*) FROM `+tableHistory+`),
			(SELECT COUNT(*) FROM `+tableHistory+` WHERE MASTER_PATIENT_ID = 1),
			(SELECT COUNT(*) FROM `+tableDocument+`),
			(SELECT COUNT(*) FROM `+tableUpload+`)
	`).Scan(&stats.Patients, &stats.HistoryRows, &stats.MasterRows, &stats.Documents, &stats.Uploads)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}
