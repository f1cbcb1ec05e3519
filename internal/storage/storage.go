package storage

import (
	"context"
	"os"

	"github.com/clinicaldwh/drwh/internal/storage/sqlite"
	"github.com/clinicaldwh/drwh/internal/types"
)

// Storage defines the interface for warehouse storage backends
type Storage interface {
	// Full reload
	Reset(ctx context.Context) error
	InsertPatients(ctx context.Context, patients []types.Patient) (int, error)
	InsertHistory(ctx context.Context, history []types.PatientHistory) (int, error)
	InsertDocuments(ctx context.Context, docs []types.Document) (int, error)

	// Identifier resolution against master history rows
	ResolvePatientNum(ctx context.Context, externalID string) (int64, error)

	// Lookups
	GetPatient(ctx context.Context, patientNum int64) (*types.Patient, error)
	GetHistory(ctx context.Context, patientNum int64) ([]types.PatientHistory, error)
	GetDocuments(ctx context.Context, patientNum int64) ([]types.Document, error)

	// Upload journal
	NextUploadID(ctx context.Context) (int64, error)
	StartUpload(ctx context.Context, upload *types.Upload) error
	FinishUpload(ctx context.Context, upload *types.Upload) error
	GetLastUpload(ctx context.Context) (*types.Upload, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)
	SchemaVersion(ctx context.Context) (int, error)

	// Lifecycle
	Close() error
}

// DefaultPath is the warehouse file used when the configuration names none.
const DefaultPath = "drwh.db"

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: "drwh.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{Path: DefaultPath}
}

// NewStorage opens the SQLite warehouse described by cfg. ctx bounds the
// schema migration run on open.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	return sqlite.New(ctx, cfg.Path)
}

// Exists reports whether a warehouse file is already present at path.
// In-memory databases never exist beforehand.
func Exists(path string) bool {
	if path == sqlite.MemoryPath {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
