package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
)

type interpretResult struct {
	filename.Metadata
	Spreadsheet bool `json:"spreadsheet"`
}

func newInterpretCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interpret <file>...",
		Short: "Read symbol and timeframe out of export file names",
		Example: `  volctl interpret "CAPITALCOM_GOLD, 5.xlsx"
  volctl interpret --json exports/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styles, err := root.styles()
			if err != nil {
				return err
			}
			in := styles.Interpreter()

			results := make([]interpretResult, 0, len(args))
			for _, arg := range args {
				name := filepath.Base(arg)
				results = append(results, interpretResult{
					Metadata:    in.Interpret(name),
					Spreadsheet: filename.HasSpreadsheetExtension(name),
				})
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return writeJSON(out, results)
			}
			for _, r := range results {
				note := ""
				if !r.Spreadsheet {
					note = "  (not .xlsx/.csv)"
				}
				if _, err := fmt.Fprintf(out, "%s\tsymbol=%s\ttimeframe=%s%s\n", r.FileName, orDash(r.Symbol), orDash(r.Timeframe), note); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
