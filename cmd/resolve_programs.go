package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/ingest"
	"github.com/sells-group/ratings-cli/internal/matcher"
	"github.com/sells-group/ratings-cli/internal/store"
)

var resolveProgramsCmd = &cobra.Command{
	Use:   "resolve-programs",
	Short: "Resolve the university of every row in a program sheet",
	Long:  "Reads a program sheet (.xlsx or .csv), finds each row's university through the in-memory name index and then the store, reports the hit count per lookup strategy and optionally saves the resolved programs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		sheetName, _ := cmd.Flags().GetString("sheet")
		sheetIndex, _ := cmd.Flags().GetInt("sheet-index")
		output, _ := cmd.Flags().GetString("output")
		save, _ := cmd.Flags().GetBool("save")

		header, records, err := ingest.ReadSheet(ctx, path, ingest.SheetOptions{
			SheetIndex: sheetIndex,
			SheetName:  sheetName,
		})
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		unis, err := st.ListUniversities(ctx, store.UniversityFilter{})
		if err != nil {
			return eris.Wrap(err, "resolve-programs: list universities")
		}
		index := matcher.NewNameIndex(unis)
		zap.L().Info("resolve-programs: name index built",
			zap.Int("universities", len(unis)),
			zap.Int("keys", index.Len()),
		)

		result, err := ingest.New(matcher.NewResolver(index, st)).Resolve(ctx, header, records)
		if err != nil {
			return err
		}

		if output != "" {
			if err := writeMappingFile(output, result.Rows); err != nil {
				return err
			}
		}

		if save && len(result.Programs) > 0 {
			n, err := st.SavePrograms(ctx, result.Programs)
			if err != nil {
				return eris.Wrap(err, "resolve-programs: save programs")
			}
			zap.L().Info("resolve-programs: programs saved", zap.Int64("rows", n))
		}

		formatIngestResult(os.Stdout, result)
		return nil
	},
}

func init() {
	f := resolveProgramsCmd.Flags()
	f.String("file", "", "program sheet to resolve (.xlsx or .csv)")
	f.String("sheet", "", "sheet name (overrides --sheet-index)")
	f.Int("sheet-index", ingest.DefaultSheetIndex, "zero-based sheet index")
	f.String("output", "", "write the row to university mapping as CSV")
	f.Bool("save", false, "store the resolved programs")
	_ = resolveProgramsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(resolveProgramsCmd)
}

func writeMappingFile(path string, rows []ingest.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "resolve-programs: create output")
	}
	if err := ingest.WriteMapping(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "resolve-programs: close output")
}

// formatIngestResult writes row counts and per-strategy hits to w.
func formatIngestResult(out io.Writer, r *ingest.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", len(r.Rows))
	_, _ = fmt.Fprintf(w, "Matched:\t%d\n", r.Matched)
	_, _ = fmt.Fprintf(w, "Unmatched:\t%d\n", r.Unmatched)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", r.Skipped)
	for _, s := range matcher.Strategies() {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", s, r.ByStrategy[s])
	}
	_ = w.Flush()
}
