package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicaldwh/drwh/internal/config"
	"github.com/clinicaldwh/drwh/internal/document"
	"github.com/clinicaldwh/drwh/internal/loader"
	"github.com/clinicaldwh/drwh/internal/spreadsheet"
	"github.com/clinicaldwh/drwh/internal/storage"
	"github.com/clinicaldwh/drwh/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// setupCommand points the package globals at a fresh warehouse in a temp
// directory and restores them afterwards.
func setupCommand(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	c := config.Default()
	c.Database.Path = filepath.Join(dir, "drwh.db")
	c.Spreadsheet.Path = filepath.Join(dir, "export_patient.xlsx")
	c.Documents.Dir = filepath.Join(dir, "documents")
	require.NoError(t, os.Mkdir(c.Documents.Dir, 0755))

	originalCfg, originalStore := cfg, store
	cfg, store = c, nil
	t.Cleanup(func() {
		if store != nil {
			_ = store.Close()
		}
		cfg, store = originalCfg, originalStore
	})
	return dir
}

func exportRows() []types.RawPatientRow {
	return []types.RawPatientRow{
		{LastName: "Dupont", FirstName: "Jean", BirthDate: "01/01/1950", HospitalPatientID: "7"},
		{LastName: "Dupont", FirstName: "Jean", BirthDate: "01/01/1950", HospitalPatientID: "12"},
		{LastName: "Martin", FirstName: "Eve", BirthDate: "02/02/1960", HospitalPatientID: "0031",
			DeathDate: "05/05/2020"},
	}
}

func TestInitCreatesWarehouseAndConfig(t *testing.T) {
	dir := setupCommand(t)
	cfgFile := filepath.Join(dir, config.DefaultFile)

	var out bytes.Buffer
	require.NoError(t, runInit(context.Background(), &out, cfgFile, true))
	assert.Contains(t, out.String(), "Initialized warehouse")
	assert.True(t, storage.Exists(cfg.Database.Path))

	loaded, err := config.Load(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)

	rows, err := spreadsheet.ReadPatients(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet)
	require.NoError(t, err)
	assert.Empty(t, rows)

	out.Reset()
	require.NoError(t, runInit(context.Background(), &out, cfgFile, true))
	assert.Contains(t, out.String(), "already initialized")
	assert.Contains(t, out.String(), "(kept)")
}

func TestLoadThenResolveAndStatus(t *testing.T) {
	setupCommand(t)
	ctx := context.Background()
	require.NoError(t, spreadsheet.WritePatients(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet, exportRows()))

	var out bytes.Buffer
	err := runLoad(ctx, &out, loader.Options{SpreadsheetPath: cfg.Spreadsheet.Path, DocumentsDir: cfg.Documents.Dir}, 2, false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Load complete (upload 1)")
	assert.Contains(t, out.String(), "Patients:   2")
	assert.Contains(t, out.String(), "Duplicates: 1")

	out.Reset()
	require.NoError(t, runResolve(ctx, &out, store, "7"))
	assert.Contains(t, out.String(), "7 → patient 0")
	assert.Contains(t, out.String(), "Dupont Jean, born 01/01/1950")
	assert.Contains(t, out.String(), "Identifiers: 7 12")

	out.Reset()
	require.NoError(t, runResolve(ctx, &out, store, "0031"))
	assert.Contains(t, out.String(), "patient 2")
	assert.Contains(t, out.String(), "deceased 05/05/2020")

	out.Reset()
	err = runResolve(ctx, &out, store, "12")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, out.String(), "No master row")

	out.Reset()
	require.NoError(t, runStatus(ctx, &out, store))
	assert.Contains(t, out.String(), "Patients:            2")
	assert.Contains(t, out.String(), "Identifier history:  3 (2 master)")
	assert.Contains(t, out.String(), "upload 1")
	assert.Contains(t, out.String(), "Total loads: 1")
	assert.Contains(t, out.String(), "Schema version 2")
}

func writeDocx(t *testing.T, path, text string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestDocumentLinksAgainstWarehouse(t *testing.T) {
	dir := setupCommand(t)
	ctx := context.Background()
	require.NoError(t, spreadsheet.WritePatients(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet, exportRows()))
	require.NoError(t, runLoad(ctx, &bytes.Buffer{}, loader.Options{SpreadsheetPath: cfg.Spreadsheet.Path}, 1, false))

	linker := document.NewLinker(store, &document.FileExtractor{}, document.Options{})

	path := filepath.Join(dir, "7_4.docx")
	writeDocx(t, path, "Compte rendu du 03/03/2021. Dr Anne Morel")
	var out bytes.Buffer
	require.NoError(t, runDocument(ctx, &out, linker, path))
	assert.Contains(t, out.String(), "document 4 → patient 0")
	assert.Contains(t, out.String(), "Date:   03/03/2021")
	assert.Contains(t, out.String(), "Author: dr anne morel")

	// "12" is only carried by a duplicate row.
	path = filepath.Join(dir, "12_1.docx")
	writeDocx(t, path, "radio")
	err := runDocument(ctx, &out, linker, path)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = runDocument(ctx, &out, linker, filepath.Join(dir, "notes.txt"))
	var fe *types.FilenameParseError
	assert.ErrorAs(t, err, &fe)
}

func TestLoadDryRunDoesNotOpenStore(t *testing.T) {
	setupCommand(t)
	require.NoError(t, spreadsheet.WritePatients(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet, exportRows()))

	var out bytes.Buffer
	err := runLoad(context.Background(), &out, loader.Options{SpreadsheetPath: cfg.Spreadsheet.Path, DryRun: true}, 1, false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Inputs are valid")
	assert.Nil(t, store)
	assert.False(t, storage.Exists(cfg.Database.Path))
}

func TestLoadRejectsZeroWorkers(t *testing.T) {
	setupCommand(t)
	err := runLoad(context.Background(), &bytes.Buffer{}, loader.Options{}, 0, false)
	assert.Error(t, err)
}

func TestStatusEmptyWarehouse(t *testing.T) {
	setupCommand(t)
	s, err := openStore(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runStatus(context.Background(), &out, s))
	assert.Contains(t, out.String(), "Never loaded")
}

func TestStatusUnfinishedUpload(t *testing.T) {
	setupCommand(t)
	ctx := context.Background()
	s, err := openStore(ctx)
	require.NoError(t, err)
	require.NoError(t, s.StartUpload(ctx, &types.Upload{UploadID: 3, RunID: "r", StartedAt: time.Now()}))

	var out bytes.Buffer
	require.NoError(t, runStatus(ctx, &out, s))
	assert.Contains(t, out.String(), "upload 3 did not finish")
}

func TestPrintDuplicates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printDuplicates(&out, exportRows()))
	assert.Contains(t, out.String(), "Dupont|Jean|01/01/1950 patient 0")
	assert.Contains(t, out.String(), "* row 0  id 7")
	assert.Contains(t, out.String(), "  row 1  id 12")
	assert.NotContains(t, out.String(), "Martin")

	out.Reset()
	require.NoError(t, printDuplicates(&out, exportRows()[2:]))
	assert.Contains(t, out.String(), "No duplicates among 1 rows")

	err := printDuplicates(&out, []types.RawPatientRow{{LastName: "X", BirthDate: "31/13/2020"}})
	var pe *types.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestNormalizeForOrigin(t *testing.T) {
	id, err := normalizeForOrigin("0031", "docx")
	require.NoError(t, err)
	assert.Equal(t, "31", id)

	id, err = normalizeForOrigin("0031", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "0031", id)

	id, err = normalizeForOrigin("0031", "")
	require.NoError(t, err)
	assert.Equal(t, "0031", id)

	_, err = normalizeForOrigin("0031", "fax")
	assert.Error(t, err)
}
