package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/scaling"
)

type scaleResult struct {
	Count int              `json:"count"`
	Plan  scaling.AxisPlan `json:"plan"`
	Ticks []scaling.Tick   `json:"ticks"`
}

func newScaleCommand(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "scale [volume]...",
		Short: "Preview the volume axis for a series",
		Long: `Prints the axis a volume series would get on the dashboard: a log axis when
the largest bar dwarfs the rest, otherwise a linear axis capped from the
trimmed 90th percentile.

Volumes come from the arguments, from --file, or from stdin when neither is
given. Values may be separated by whitespace, commas or new lines.`,
		Example: `  volctl scale 100 200 300 400 500
  volctl scale --file volumes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var series []float64
			var err error
			switch {
			case file != "":
				series, err = readVolumesFile(file)
			case len(args) > 0:
				series, err = parseVolumes(strings.Join(args, " "))
			default:
				series, err = readVolumes(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			plan := scaling.Plan(series)
			res := scaleResult{Count: len(series), Plan: plan, Ticks: scaling.Ticks(plan, series)}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintf(out, "bars=%d %s\n", res.Count, describePlan(res.Plan, res.Ticks))
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read volumes from a file")
	return cmd
}

func readVolumesFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open volumes file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return readVolumes(f)
}

func readVolumes(r io.Reader) ([]float64, error) {
	var series []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		vals, err := parseVolumes(scanner.Text())
		if err != nil {
			return nil, err
		}
		series = append(series, vals...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read volumes: %w", err)
	}
	return series, nil
}

func parseVolumes(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid volume %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}
