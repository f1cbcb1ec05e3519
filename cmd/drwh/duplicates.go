package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/deduplication"
	"github.com/clinicaldwh/drwh/internal/spreadsheet"
	"github.com/clinicaldwh/drwh/internal/types"
)

var duplicatesSpreadsheet string

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List patients that appear on several export rows",
	Long: `Read the patient export and print every group of rows that share last name,
first name and birth date. Each group becomes one patient whose number is the
position of the group's first row; the other rows are kept only as identifier
history.

Names are compared exactly: "Jean" and "jean " are different people.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Spreadsheet.Path
		if cmd.Flags().Changed("spreadsheet") {
			path = duplicatesSpreadsheet
		}
		rows, err := spreadsheet.ReadPatients(path, cfg.Spreadsheet.Sheet)
		if err != nil {
			return err
		}
		return printDuplicates(cmd.OutOrStdout(), rows)
	},
}

func printDuplicates(out io.Writer, rows []types.RawPatientRow) error {
	mapping, err := deduplication.Cluster(rows)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	stats := mapping.Stats()
	fmt.Fprintf(out, "\n%s\n\n", cyan("=== Duplicate patients ==="))
	if stats.DuplicateCount == 0 {
		fmt.Fprintf(out, "%s No duplicates among %d rows\n\n", green("✓"), stats.TotalRows)
		return nil
	}

	for _, c := range mapping.Clusters() {
		if len(c.Members) < 2 {
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n", yellow("●"), c.Key, gray(fmt.Sprintf("patient %d", c.Representative)))
		for _, i := range c.Members {
			marker := "  "
			if mapping.IsMaster(i) {
				marker = "* "
			}
			fmt.Fprintf(out, "    %srow %d  id %s\n", marker, i, rows[i].HospitalPatientID)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %d rows, %d patients, %s duplicate rows %s\n\n",
		stats.TotalRows, stats.ClusterCount, yellow(stats.DuplicateCount), gray("(* = master row)"))
	return nil
}

func init() {
	duplicatesCmd.Flags().StringVar(&duplicatesSpreadsheet, "spreadsheet", "", "Patient export (.xlsx), overrides the config")
	rootCmd.AddCommand(duplicatesCmd)
}
