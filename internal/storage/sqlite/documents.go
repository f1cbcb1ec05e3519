package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicaldwh/drwh/internal/types"
)

// InsertDocuments writes linked documents in a single transaction.
func (s *SQLiteStorage) InsertDocuments(ctx context.Context, docs []types.Document) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO DWH_DOCUMENT (
				PATIENT_NUM, DOCUMENT_NUM, DOCUMENT_DATE, UPDATE_DATE,
				DOCUMENT_ORIGIN_CODE, DISPLAYED_TEXT, AUTHOR
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare document insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, d := range docs {
			if !d.Origin.IsValid() {
				return fmt.Errorf("document %s: invalid origin %q", d.DocumentNum, d.Origin)
			}
			_, err := stmt.ExecContext(ctx,
				d.PatientNum, d.DocumentNum, formatDate(d.Date), formatTimestamp(d.UpdateDate),
				string(d.Origin), d.Text, nullString(d.Author),
			)
			if err != nil {
				return fmt.Errorf("failed to insert document %s: %w", d.DocumentNum, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// GetDocuments returns the documents linked to a patient.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, patientNum int64) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT PATIENT_NUM, DOCUMENT_NUM, DOCUMENT_DATE, UPDATE_DATE,
		       DOCUMENT_ORIGIN_CODE, DISPLAYED_TEXT, AUTHOR
		FROM DWH_DOCUMENT
		WHERE PATIENT_NUM = ?
		ORDER BY rowid
	`, patientNum)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []types.Document
	for rows.Next() {
		var d types.Document
		var date, author sql.NullString
		var updated, origin string
		if err := rows.Scan(&d.PatientNum, &d.DocumentNum, &date, &updated, &origin, &d.Text, &author); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if d.UpdateDate, err = parseTimestamp(updated); err != nil {
			return nil, err
		}
		d.Origin = types.Origin(origin)
		d.Author = stringPtr(author)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
