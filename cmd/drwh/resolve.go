package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clinicaldwh/drwh/internal/document"
	"github.com/clinicaldwh/drwh/internal/storage"
	"github.com/clinicaldwh/drwh/internal/types"
)

var resolveOrigin string

var resolveCmd = &cobra.Command{
	Use:   "resolve <hospital-id>",
	Short: "Find the patient a hospital identifier belongs to",
	Long: `Look up a hospital patient identifier among the master rows of the
identifier history and print the patient it resolves to.

--origin applies the identifier convention of a document source first:
  pdf   patient record documents, identifier used as written
  docx  radiology documents, leading zeros removed

Example:
  drwh resolve 0031
  drwh resolve 0031 --origin docx   # looks up "31"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := normalizeForOrigin(args[0], resolveOrigin)
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return runResolve(cmd.Context(), cmd.OutOrStdout(), s, id)
	},
}

func normalizeForOrigin(id, origin string) (string, error) {
	switch origin {
	case "":
		return id, nil
	case "pdf":
		return document.NormalizeExternalID(document.KindPDF.Origin(), id), nil
	case "docx":
		return document.NormalizeExternalID(document.KindDOCX.Origin(), id), nil
	}
	return "", fmt.Errorf("unknown origin %q (want pdf or docx)", origin)
}

func runResolve(ctx context.Context, out io.Writer, s storage.Storage, id string) error {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	num, err := s.ResolvePatientNum(ctx, id)
	var re *types.ResolutionError
	switch {
	case errors.Is(err, types.ErrNotFound):
		fmt.Fprintf(out, "%s No master row for identifier %q\n", yellow("⚠"), id)
		return err
	case errors.Is(err, types.ErrAmbiguousMatch) && errors.As(err, &re):
		fmt.Fprintf(out, "%s Identifier %q is the master identifier of %d patients: %v\n",
			yellow("⚠"), id, len(re.Candidates), re.Candidates)
		return err
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "%s %s → patient %s\n", green("✓"), id, cyan(num))

	p, err := s.GetPatient(ctx, num)
	if err != nil {
		return err
	}
	if p != nil {
		birth := "unknown"
		if p.BirthDate != nil {
			birth = p.BirthDate.Format(types.DateLayout)
		}
		fmt.Fprintf(out, "  %s %s, born %s\n", p.LastName, p.FirstName, birth)
		if p.Deceased {
			fmt.Fprintf(out, "  %s\n", gray("deceased "+p.DeathDate.Format(types.DateLayout)))
		}
	}

	history, err := s.GetHistory(ctx, num)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Identifiers:")
	for _, h := range history {
		if h.Master {
			fmt.Fprintf(out, " %s", cyan(h.HospitalPatientID))
		} else {
			fmt.Fprintf(out, " %s", h.HospitalPatientID)
		}
	}
	fmt.Fprintln(out)

	docs, err := s.GetDocuments(ctx, num)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Documents:   %d\n", len(docs))
	return nil
}

func init() {
	resolveCmd.Flags().StringVar(&resolveOrigin, "origin", "", "Document source convention: pdf or docx")
	rootCmd.AddCommand(resolveCmd)
}
