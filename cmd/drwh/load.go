package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/document"
	"github.com/clinicaldwh/drwh/internal/loader"
	"github.com/clinicaldwh/drwh/internal/types"
)

var (
	loadSpreadsheet string
	loadSheet       string
	loadDocuments   string
	loadNoDocuments bool
	loadUploadID    int64
	loadWorkers     int
	loadDryRun      bool
	loadVerbose     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Reload the warehouse from the patient export and documents",
	Long: `Run a full reload: the warehouse is emptied and rebuilt from the patient
export and the document directory.

The export is read and deduplicated before anything is deleted, so a malformed
export (wrong header, bad date) leaves the warehouse as it was. Documents are
named <hospital id>_<document number>.pdf|docx; PDF ids are matched as written,
DOCX ids with their leading zeros removed.

Example:
  drwh load
  drwh load --spreadsheet export.xlsx --documents docs/
  drwh load --dry-run          # check the inputs without writing anything
  drwh load --upload-id 42     # stamp rows with a chosen batch id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loader.Options{
			SpreadsheetPath: cfg.Spreadsheet.Path,
			Sheet:           cfg.Spreadsheet.Sheet,
			DocumentsDir:    cfg.Documents.Dir,
			UploadID:        loadUploadID,
			DryRun:          loadDryRun,
		}
		if cmd.Flags().Changed("spreadsheet") {
			opts.SpreadsheetPath = loadSpreadsheet
		}
		if cmd.Flags().Changed("sheet") {
			opts.Sheet = loadSheet
		}
		if cmd.Flags().Changed("documents") {
			opts.DocumentsDir = loadDocuments
		}
		if loadNoDocuments {
			opts.DocumentsDir = ""
		}
		workers := cfg.Documents.ExtractWorkers
		if cmd.Flags().Changed("workers") {
			workers = loadWorkers
		}
		return runLoad(cmd.Context(), cmd.OutOrStdout(), opts, workers, loadVerbose)
	},
}

func runLoad(ctx context.Context, out io.Writer, opts loader.Options, workers int, verbose bool) error {
	if workers < 1 {
		return fmt.Errorf("--workers must be at least 1 (got %d)", workers)
	}
	newLinker := loader.NewLinkerFactory(&document.FileExtractor{PDFToText: cfg.Documents.PDFToText}, workers)
	progress := &progressPrinter{out: out, verbose: verbose}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	if opts.DryRun {
		fmt.Fprintf(out, "\n%s\n\n", cyan("=== Dry run (warehouse untouched) ==="))
	} else {
		fmt.Fprintf(out, "\n%s\n\n", cyan("=== Loading warehouse ==="))
	}

	var res *loader.Result
	var err error
	if opts.DryRun {
		res, err = loader.DryRun(ctx, opts, newLinker, logger, progress)
	} else {
		s, openErr := openStore(ctx)
		if openErr != nil {
			return openErr
		}
		res, err = loader.New(s, newLinker, logger, progress).Run(ctx, opts)
	}
	if err != nil {
		return err
	}

	printLoadSummary(out, res)
	return nil
}

func printLoadSummary(out io.Writer, res *loader.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	stats := res.Stats()
	fmt.Fprintln(out)
	if res.DryRun {
		fmt.Fprintf(out, "%s Inputs are valid\n", green("✓"))
	} else {
		fmt.Fprintf(out, "%s Load complete %s\n", green("✓"), gray(fmt.Sprintf("(upload %d)", res.UploadID)))
	}
	fmt.Fprintf(out, "  Rows:       %d\n", stats.TotalRows)
	fmt.Fprintf(out, "  Patients:   %d\n", len(res.Patients))
	if stats.DuplicateCount > 0 {
		fmt.Fprintf(out, "  Duplicates: %s %s\n", yellow(stats.DuplicateCount),
			gray("(see 'drwh duplicates')"))
	} else {
		fmt.Fprintf(out, "  Duplicates: 0\n")
	}
	fmt.Fprintf(out, "  Documents:  %d\n", len(res.Documents))
	fmt.Fprintf(out, "  Elapsed:    %v\n", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "  Run:        %s\n\n", gray(res.RunID))
}

// progressPrinter reports load stages on the terminal.
type progressPrinter struct {
	out     io.Writer
	verbose bool
}

var stageLabels = map[loader.Stage]string{
	loader.StageRead:      "Read patient export",
	loader.StageCluster:   "Merged duplicate patients",
	loader.StageReset:     "Emptied warehouse",
	loader.StagePatients:  "Stored patients",
	loader.StageHistory:   "Stored identifier history",
	loader.StageDocuments: "Linked documents",
}

func (p *progressPrinter) StageStarted(stage loader.Stage) {}

func (p *progressPrinter) StageFinished(stage loader.Stage, count int) {
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	label := stageLabels[stage]
	if stage == loader.StageReset {
		fmt.Fprintf(p.out, "  %s %s\n", green("✓"), label)
		return
	}
	fmt.Fprintf(p.out, "  %s %s %s\n", green("✓"), label, gray(fmt.Sprintf("(%d)", count)))
}

func (p *progressPrinter) DocumentLinked(doc types.Document) {
	if !p.verbose {
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Fprintf(p.out, "    → %s %s patient %d\n", doc.DocumentNum, gray(string(doc.Origin)), doc.PatientNum)
}

func init() {
	loadCmd.Flags().StringVar(&loadSpreadsheet, "spreadsheet", "", "Patient export (.xlsx), overrides the config")
	loadCmd.Flags().StringVar(&loadSheet, "sheet", "", "Worksheet name, overrides the config")
	loadCmd.Flags().StringVar(&loadDocuments, "documents", "", "Document directory, overrides the config")
	loadCmd.Flags().BoolVar(&loadNoDocuments, "no-documents", false, "Skip document linking")
	loadCmd.Flags().Int64Var(&loadUploadID, "upload-id", 0, "Upload batch id (default: next id from the warehouse)")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 0, "Concurrent text extractions, overrides the config")
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Validate and link in memory without writing")
	loadCmd.Flags().BoolVarP(&loadVerbose, "verbose", "v", false, "List every linked document")
	rootCmd.AddCommand(loadCmd)
}
