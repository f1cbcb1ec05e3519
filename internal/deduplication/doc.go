// Package deduplication resolves patient identities inside one load run.
//
// # Overview
//
// A patient export contains one row per hospital stay or registration, so the
// same person usually appears several times. Rows are identified only by the
// identity key (last name, first name, birth date). The package:
//
//  1. Clusters rows that share an identity key (Cluster)
//  2. Derives the deduplicated patient table (BuildPatients)
//  3. Derives the historical identifier table with one master row per
//     cluster (BuildHistory)
//  4. Resolves an external hospital identifier back to the canonical
//     patient number without a database (HistoryIndex)
//
// # Canonical patient numbers
//
// Rows are numbered 0..N-1 in input order. Every row of a cluster gets the
// position of the cluster's first row as its patient_num. Numbers are
// therefore not dense: a file with rows [A, A, B] yields patient numbers
// 0 and 2. Downstream tables rely on this numbering, keep it stable.
//
// # Identity keys
//
// Keys are compared exactly. "Jean" and "jean " are different people, and
// a missing birth date is its own key value: two rows with the same names
// and no birth date collide with each other but never with a row that has
// a birth date.
//
// # Data-quality gate
//
// A birth date that is present but not DD/MM/YYYY aborts clustering with a
// *types.ParseError. There is no row-skip mode.
//
// # Usage
//
//	m, err := deduplication.Cluster(rows)
//	if err != nil {
//	    return err
//	}
//	patients, err := deduplication.BuildPatients(rows, m, uploadID)
//	if err != nil {
//	    return err
//	}
//	history, err := deduplication.BuildHistory(rows, m, deduplication.RunContext{
//	    UploadID: uploadID,
//	    Origin:   path,
//	})
package deduplication
