package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/clinicaldwh/drwh/internal/spreadsheet"
	"github.com/clinicaldwh/drwh/internal/storage"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "drwh.yaml"

// Environment variables overriding the config file.
const (
	EnvDBPath         = "DRWH_DB_PATH"
	EnvSpreadsheet    = "DRWH_SPREADSHEET"
	EnvSheet          = "DRWH_SHEET"
	EnvDocumentsDir   = "DRWH_DOCUMENTS_DIR"
	EnvExtractWorkers = "DRWH_EXTRACT_WORKERS"
	EnvPDFToText      = "DRWH_PDFTOTEXT"
	EnvLogLevel       = "DRWH_LOG_LEVEL"
	EnvLogFormat      = "DRWH_LOG_FORMAT"
)

// Config holds everything a load run needs to know about its inputs and
// outputs.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`
	Documents   DocumentsConfig   `yaml:"documents"`
	Log         LogConfig         `yaml:"log"`
}

// DatabaseConfig locates the warehouse.
type DatabaseConfig struct {
	// Path is the SQLite file, or ":memory:"
	// Default: "drwh.db"
	Path string `yaml:"path"`
}

// SpreadsheetConfig locates the patient export.
type SpreadsheetConfig struct {
	// Path is the .xlsx export
	// Default: "fichiers source/export_patient.xlsx"
	Path string `yaml:"path"`

	// Sheet is the worksheet holding patient rows
	// Default: "Export Worksheet"
	Sheet string `yaml:"sheet"`
}

// DocumentsConfig controls document linking.
type DocumentsConfig struct {
	// Dir is scanned (not recursively) for <id>_<num>.pdf|docx files
	// Default: "fichiers source/"
	Dir string `yaml:"dir"`

	// ExtractWorkers bounds concurrent text extraction
	// Default: 4, Range: 1-64
	ExtractWorkers int `yaml:"extract_workers"`

	// PDFToText is the poppler pdftotext binary
	// Default: "pdftotext"
	PDFToText string `yaml:"pdftotext"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level: debug, info, warn or error
	Level string `yaml:"level"`

	// Format: console or json
	Format string `yaml:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: storage.DefaultPath,
		},
		Spreadsheet: SpreadsheetConfig{
			Path:  "fichiers source/export_patient.xlsx",
			Sheet: spreadsheet.DefaultSheet,
		},
		Documents: DocumentsConfig{
			Dir:            "fichiers source/",
			ExtractWorkers: 4,
			PDFToText:      "pdftotext",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists) and the DRWH_* environment variables, in that order. The result
// is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the settings present in the file onto cfg. A missing
// file leaves cfg untouched.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Unmarshal into the defaults so absent keys keep their values.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	parseEnvString(EnvDBPath, &c.Database.Path)
	parseEnvString(EnvSpreadsheet, &c.Spreadsheet.Path)
	parseEnvString(EnvSheet, &c.Spreadsheet.Sheet)
	parseEnvString(EnvDocumentsDir, &c.Documents.Dir)
	if err := parseEnvInt(EnvExtractWorkers, &c.Documents.ExtractWorkers); err != nil {
		return err
	}
	parseEnvString(EnvPDFToText, &c.Documents.PDFToText)
	parseEnvString(EnvLogLevel, &c.Log.Level)
	parseEnvString(EnvLogFormat, &c.Log.Format)
	return nil
}

// Save writes the configuration as YAML. An existing file is not
// overwritten.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Spreadsheet.Path == "" {
		return fmt.Errorf("spreadsheet.path must not be empty")
	}
	if c.Spreadsheet.Sheet == "" {
		return fmt.Errorf("spreadsheet.sheet must not be empty")
	}
	if c.Documents.Dir == "" {
		return fmt.Errorf("documents.dir must not be empty")
	}
	if c.Documents.ExtractWorkers < 1 || c.Documents.ExtractWorkers > 64 {
		return fmt.Errorf("documents.extract_workers must be between 1 and 64 (got %d)",
			c.Documents.ExtractWorkers)
	}
	if c.Documents.PDFToText == "" {
		return fmt.Errorf("documents.pdftotext must not be empty")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json' (got %q)", c.Log.Format)
	}

	return nil
}

// String returns a human-readable representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DB: %s, Spreadsheet: %s [%s], Documents: %s, Workers: %d, "+
			"PDFToText: %s, Log: %s/%s}",
		c.Database.Path, c.Spreadsheet.Path, c.Spreadsheet.Sheet, c.Documents.Dir,
		c.Documents.ExtractWorkers, c.Documents.PDFToText, c.Log.Level, c.Log.Format,
	)
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}
