package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/document"
	"github.com/clinicaldwh/drwh/internal/types"
)

var documentCmd = &cobra.Command{
	Use:   "document <file>",
	Short: "Show how one document would be linked",
	Long: `Link a single document against the warehouse without storing it: parse the
file name, extract the text, resolve the hospital identifier among the master
rows and search the document date and author.

Useful when a load stops on one file.

Example:
  drwh document "fichiers source/0031_12.docx"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		extractor := &document.FileExtractor{PDFToText: cfg.Documents.PDFToText}
		return runDocument(cmd.Context(), cmd.OutOrStdout(), document.NewLinker(s, extractor, document.Options{}), args[0])
	},
}

func runDocument(ctx context.Context, out io.Writer, linker *document.Linker, path string) error {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	doc, err := linker.LinkFile(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s document %s → patient %s %s\n", green("✓"), doc.DocumentNum,
		cyan(doc.PatientNum), gray(string(doc.Origin)))
	date := gray("none found")
	if doc.Date != nil {
		date = doc.Date.Format(types.DateLayout)
	}
	fmt.Fprintf(out, "  Date:   %s\n", date)
	author := gray("none found")
	if doc.Author != nil {
		author = *doc.Author
	}
	fmt.Fprintf(out, "  Author: %s\n", author)
	fmt.Fprintf(out, "  Text:   %d characters\n", len([]rune(doc.Text)))
	return nil
}

func init() {
	rootCmd.AddCommand(documentCmd)
}
