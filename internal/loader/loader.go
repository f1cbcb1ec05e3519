// Package loader runs one full reload of the warehouse: it reads the patient
// export, clusters duplicate identities, persists the patient and history
// views and links the source documents to their patients.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicaldwh/drwh/internal/deduplication"
	"github.com/clinicaldwh/drwh/internal/document"
	"github.com/clinicaldwh/drwh/internal/spreadsheet"
	"github.com/clinicaldwh/drwh/internal/types"
)

// Store is the part of the warehouse a load run writes to.
type Store interface {
	Reset(ctx context.Context) error
	InsertPatients(ctx context.Context, patients []types.Patient) (int, error)
	InsertHistory(ctx context.Context, history []types.PatientHistory) (int, error)
	InsertDocuments(ctx context.Context, docs []types.Document) (int, error)
	ResolvePatientNum(ctx context.Context, externalID string) (int64, error)
	NextUploadID(ctx context.Context) (int64, error)
	StartUpload(ctx context.Context, upload *types.Upload) error
	FinishUpload(ctx context.Context, upload *types.Upload) error
}

// LinkerFactory builds the document linker of a run once the resolver is
// known. onLinked must be wired to document.Options.OnLinked.
type LinkerFactory func(resolver document.Resolver, onLinked func(types.Document)) *document.Linker

// NewLinkerFactory returns a factory using extractor with the given number
// of extraction workers.
func NewLinkerFactory(extractor document.Extractor, workers int) LinkerFactory {
	return func(resolver document.Resolver, onLinked func(types.Document)) *document.Linker {
		return document.NewLinker(resolver, extractor, document.Options{
			Workers:  workers,
			OnLinked: onLinked,
		})
	}
}

// Options describes one load run.
type Options struct {
	SpreadsheetPath string
	Sheet           string // default spreadsheet.DefaultSheet

	// DocumentsDir is scanned for documents. Empty skips document linking.
	DocumentsDir string

	// UploadID stamps every row of the run. Zero allocates the next id
	// from the store.
	UploadID int64

	// DryRun builds everything in memory and never touches the store.
	DryRun bool
}

// Result summarizes a load run.
type Result struct {
	RunID      string
	UploadID   int64
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Rows      []types.RawPatientRow
	Mapping   *deduplication.Mapping
	Patients  []types.Patient
	History   []types.PatientHistory
	Documents []types.Document
}

// Stats returns the clustering statistics of the run.
func (r *Result) Stats() deduplication.Stats {
	return r.Mapping.Stats()
}

// Loader runs load runs against one store.
type Loader struct {
	store     Store
	newLinker LinkerFactory
	logger    *zap.Logger
	progress  Progress
	now       func() time.Time
}

// New creates a loader. store may be nil for dry runs only; logger and
// progress default to no-ops.
func New(store Store, newLinker LinkerFactory, logger *zap.Logger, progress Progress) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = NopProgress{}
	}
	return &Loader{
		store:     store,
		newLinker: newLinker,
		logger:    logger,
		progress:  progress,
		now:       time.Now,
	}
}

// DryRun reads, clusters and links without a store. Documents resolve
// against the in-memory history view.
func DryRun(ctx context.Context, opts Options, newLinker LinkerFactory, logger *zap.Logger, progress Progress) (*Result, error) {
	opts.DryRun = true
	return New(nil, newLinker, logger, progress).Run(ctx, opts)
}

// Run performs a full reload. Input is read and clustered before an upload
// id is taken and the store is reset, so malformed input leaves the
// warehouse and its upload counter as they were. Past that point
// the first failure aborts the run and the store may be left partially
// populated.
func (l *Loader) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Sheet == "" {
		opts.Sheet = spreadsheet.DefaultSheet
	}
	if !opts.DryRun && l.store == nil {
		return nil, fmt.Errorf("a store is required unless dry-running")
	}

	res := &Result{
		RunID:     uuid.New().String(),
		DryRun:    opts.DryRun,
		StartedAt: l.now(),
	}
	log := l.logger.With(zap.String("run_id", res.RunID))
	log.Info("load run starting",
		zap.String("spreadsheet", opts.SpreadsheetPath),
		zap.String("documents_dir", opts.DocumentsDir),
		zap.Bool("dry_run", opts.DryRun))

	if err := l.buildViews(opts, res, log); err != nil {
		return nil, err
	}

	// The id is allocated only once the input is known to be valid.
	uploadID, err := l.uploadID(ctx, opts)
	if err != nil {
		return nil, err
	}
	stampUpload(res, uploadID)
	log = log.With(zap.Int64("upload_id", uploadID))

	if opts.DryRun {
		if err := l.linkDocuments(ctx, opts, deduplication.NewHistoryIndex(res.History), res, log); err != nil {
			return nil, err
		}
		res.FinishedAt = l.now()
		log.Info("dry run complete", zap.Int("documents", len(res.Documents)))
		return res, nil
	}

	upload := &types.Upload{
		UploadID:  uploadID,
		RunID:     res.RunID,
		Source:    opts.SpreadsheetPath,
		StartedAt: res.StartedAt,
	}
	if err := l.store.StartUpload(ctx, upload); err != nil {
		return nil, err
	}

	if err := l.persist(ctx, res, log); err != nil {
		return nil, err
	}

	if err := l.linkDocuments(ctx, opts, l.store, res, log); err != nil {
		return nil, err
	}
	if len(res.Documents) > 0 {
		if _, err := l.store.InsertDocuments(ctx, res.Documents); err != nil {
			return nil, fmt.Errorf("failed to store documents: %w", err)
		}
	}

	res.FinishedAt = l.now()
	upload.FinishedAt = &res.FinishedAt
	upload.PatientCount = len(res.Patients)
	upload.HistoryCount = len(res.History)
	upload.DocumentCount = len(res.Documents)
	if err := l.store.FinishUpload(ctx, upload); err != nil {
		return nil, err
	}

	log.Info("load run complete",
		zap.Int("patients", upload.PatientCount),
		zap.Int("history", upload.HistoryCount),
		zap.Int("documents", upload.DocumentCount),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

func (l *Loader) uploadID(ctx context.Context, opts Options) (int64, error) {
	if opts.UploadID < 0 {
		return 0, fmt.Errorf("invalid upload id %d", opts.UploadID)
	}
	if opts.UploadID > 0 || opts.DryRun {
		return opts.UploadID, nil
	}
	id, err := l.store.NextUploadID(ctx)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// stampUpload sets the batch id on the run and on every row of both views.
func stampUpload(res *Result, id int64) {
	res.UploadID = id
	for i := range res.Patients {
		res.Patients[i].UploadID = id
	}
	for i := range res.History {
		res.History[i].UploadID = id
	}
}

// buildViews reads the export and derives both views. It has no side
// effects on the store.
func (l *Loader) buildViews(opts Options, res *Result, log *zap.Logger) error {
	l.progress.StageStarted(StageRead)
	rows, err := spreadsheet.ReadPatients(opts.SpreadsheetPath, opts.Sheet)
	if err != nil {
		return err
	}
	res.Rows = rows
	l.progress.StageFinished(StageRead, len(rows))
	log.Debug("patient export read", zap.Int("rows", len(rows)))

	l.progress.StageStarted(StageCluster)
	mapping, err := deduplication.Cluster(rows)
	if err != nil {
		return err
	}
	res.Mapping = mapping

	if res.Patients, err = deduplication.BuildPatients(rows, mapping, 0); err != nil {
		return err
	}
	res.History, err = deduplication.BuildHistory(rows, mapping, deduplication.RunContext{
		Origin: opts.SpreadsheetPath,
	})
	if err != nil {
		return err
	}
	stats := mapping.Stats()
	l.progress.StageFinished(StageCluster, stats.ClusterCount)
	log.Info("patients clustered",
		zap.Int("rows", stats.TotalRows),
		zap.Int("clusters", stats.ClusterCount),
		zap.Int("duplicates", stats.DuplicateCount),
		zap.Int("largest_cluster", stats.LargestCluster))
	return nil
}

func (l *Loader) persist(ctx context.Context, res *Result, log *zap.Logger) error {
	l.progress.StageStarted(StageReset)
	if err := l.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset warehouse: %w", err)
	}
	l.progress.StageFinished(StageReset, 0)

	l.progress.StageStarted(StagePatients)
	n, err := l.store.InsertPatients(ctx, res.Patients)
	if err != nil {
		return fmt.Errorf("failed to store patients: %w", err)
	}
	l.progress.StageFinished(StagePatients, n)

	l.progress.StageStarted(StageHistory)
	n, err = l.store.InsertHistory(ctx, res.History)
	if err != nil {
		return fmt.Errorf("failed to store patient history: %w", err)
	}
	l.progress.StageFinished(StageHistory, n)

	log.Info("patient views stored",
		zap.Int("patients", len(res.Patients)),
		zap.Int("history", len(res.History)))
	return nil
}

func (l *Loader) linkDocuments(ctx context.Context, opts Options, resolver document.Resolver, res *Result, log *zap.Logger) error {
	if opts.DocumentsDir == "" {
		log.Debug("no document directory, skipping document linking")
		return nil
	}
	if l.newLinker == nil {
		return fmt.Errorf("document linking requested without a linker")
	}

	l.progress.StageStarted(StageDocuments)
	linker := l.newLinker(resolver, l.progress.DocumentLinked)
	docs, err := linker.LinkDirectory(ctx, opts.DocumentsDir)
	if err != nil {
		return err
	}
	res.Documents = docs
	l.progress.StageFinished(StageDocuments, len(docs))
	log.Info("documents linked", zap.Int("documents", len(docs)))
	return nil
}
