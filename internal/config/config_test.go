package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvDBPath, EnvSpreadsheet, EnvSheet, EnvDocumentsDir,
	EnvExtractWorkers, EnvPDFToText, EnvLogLevel, EnvLogFormat,
}

// clearEnv isolates a test from DRWH_* variables set by the caller.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "no file and no environment uses defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file overrides only the keys it sets",
			file: `
database:
  path: /data/dwh.db
documents:
  extract_workers: 8
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/data/dwh.db", cfg.Database.Path)
				assert.Equal(t, 8, cfg.Documents.ExtractWorkers)
				assert.Equal(t, "Export Worksheet", cfg.Spreadsheet.Sheet)
				assert.Equal(t, "pdftotext", cfg.Documents.PDFToText)
			},
		},
		{
			name: "environment wins over file",
			file: `
spreadsheet:
  path: from-file.xlsx
log:
  level: debug
`,
			envVars: map[string]string{
				EnvSpreadsheet:    "from-env.xlsx",
				EnvSheet:          "Patients",
				EnvDocumentsDir:   "/srv/docs",
				EnvExtractWorkers: "16",
				EnvPDFToText:      "/usr/local/bin/pdftotext",
				EnvLogFormat:      "json",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env.xlsx", cfg.Spreadsheet.Path)
				assert.Equal(t, "Patients", cfg.Spreadsheet.Sheet)
				assert.Equal(t, "/srv/docs", cfg.Documents.Dir)
				assert.Equal(t, 16, cfg.Documents.ExtractWorkers)
				assert.Equal(t, "/usr/local/bin/pdftotext", cfg.Documents.PDFToText)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name:    "non-numeric worker count",
			envVars: map[string]string{EnvExtractWorkers: "many"},
			wantErr: true,
		},
		{
			name:    "worker count out of range",
			envVars: map[string]string{EnvExtractWorkers: "65"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "database: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"empty spreadsheet path", func(c *Config) { c.Spreadsheet.Path = "" }},
		{"empty sheet", func(c *Config) { c.Spreadsheet.Sheet = "" }},
		{"empty documents dir", func(c *Config) { c.Documents.Dir = "" }},
		{"zero workers", func(c *Config) { c.Documents.ExtractWorkers = 0 }},
		{"empty pdftotext", func(c *Config) { c.Documents.PDFToText = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultFile)

	cfg := Default()
	cfg.Documents.ExtractWorkers = 12
	cfg.Log.Format = "json"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.Error(t, cfg.Save(path), "existing files are kept")
}
