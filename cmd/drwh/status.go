package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/storage"
	"github.com/clinicaldwh/drwh/internal/storage/sqlite"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show warehouse contents and the last load",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storage.Exists(cfg.Database.Path) && cfg.Database.Path != sqlite.MemoryPath {
			return fmt.Errorf("no warehouse at %s (run 'drwh init' first)", cfg.Database.Path)
		}
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return runStatus(cmd.Context(), cmd.OutOrStdout(), s)
	},
}

func runStatus(ctx context.Context, out io.Writer, s storage.Storage) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		return err
	}
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n\n", cyan("=== Warehouse Status ==="))
	fmt.Fprintf(out, "%s\n", yellow("Tables:"))
	fmt.Fprintf(out, "  Patients:            %d\n", stats.Patients)
	fmt.Fprintf(out, "  Identifier history:  %d %s\n", stats.HistoryRows,
		gray(fmt.Sprintf("(%d master)", stats.MasterRows)))
	fmt.Fprintf(out, "  Documents:           %d\n", stats.Documents)
	fmt.Fprintf(out, "  %s\n", gray(fmt.Sprintf("Schema version %d", version)))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%s\n", yellow("Last load:"))
	last, err := s.GetLastUpload(ctx)
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintf(out, "  %s\n\n", gray("Never loaded"))
		return nil
	}

	if last.FinishedAt != nil {
		fmt.Fprintf(out, "  %s upload %d\n", green("✓"), last.UploadID)
	} else {
		// Journal entries are finished only when the whole run succeeded.
		fmt.Fprintf(out, "  %s upload %d did not finish\n", red("✗"), last.UploadID)
	}
	fmt.Fprintf(out, "    Source:   %s\n", last.Source)
	fmt.Fprintf(out, "    Started:  %s\n", last.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if last.FinishedAt != nil {
		fmt.Fprintf(out, "    Finished: %s\n", last.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "    Loaded:   %d patients, %d history rows, %d documents\n",
			last.PatientCount, last.HistoryCount, last.DocumentCount)
	}
	fmt.Fprintf(out, "    Run:      %s\n", gray(last.RunID))
	fmt.Fprintf(out, "  Total loads: %d\n\n", stats.Uploads)
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
