package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/spreadsheet"
	"github.com/clinicaldwh/drwh/internal/storage"
)

var initTemplate bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse database and a default config file",
	Long: `Create the warehouse database (schema included) and, when missing, a
drwh.yaml holding the default settings.

Example:
  drwh init                    # drwh.db + drwh.yaml in the current directory
  drwh init --db /data/dwh.db  # database elsewhere
  drwh init --template         # also write an empty patient export`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.Context(), cmd.OutOrStdout(), configPath, initTemplate)
	},
}

func runInit(ctx context.Context, out io.Writer, cfgFile string, withTemplate bool) error {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	existed := storage.Exists(cfg.Database.Path)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(out, "\n%s Warehouse already initialized\n\n", green("✓"))
	} else {
		fmt.Fprintf(out, "\n%s Initialized warehouse\n\n", green("✓"))
	}
	fmt.Fprintf(out, "  Database: %s\n", cyan(cfg.Database.Path))
	fmt.Fprintf(out, "  Patients: %d\n", stats.Patients)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Config:   %s\n", cyan(cfgFile))
	} else {
		fmt.Fprintf(out, "  Config:   %s %s\n", cyan(cfgFile), gray("(kept)"))
	}

	if withTemplate {
		if _, err := os.Stat(cfg.Spreadsheet.Path); err == nil {
			fmt.Fprintf(out, "  Template: %s %s\n", cyan(cfg.Spreadsheet.Path), gray("(kept)"))
		} else {
			if err := spreadsheet.WritePatients(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet, nil); err != nil {
				return err
			}
			fmt.Fprintf(out, "  Template: %s\n", cyan(cfg.Spreadsheet.Path))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Next: put the export at %s and the documents in %s, then run %s\n\n",
		cyan(cfg.Spreadsheet.Path), cyan(cfg.Documents.Dir), cyan("drwh load"))
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&initTemplate, "template", false, "Also write an empty patient export with the expected header")
	rootCmd.AddCommand(initCmd)
}
