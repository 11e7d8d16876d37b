package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/scaling"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// describePlan renders an axis plan on one line, e.g.
// "linear max=1.1K ticks=0,216,432,648,864,1.1K".
func describePlan(plan scaling.AxisPlan, ticks []scaling.Tick) string {
	labels := make([]string, len(ticks))
	for i, t := range ticks {
		labels[i] = t.Label
	}
	if plan.UseLogScale {
		return fmt.Sprintf("log ticks=%s", strings.Join(labels, ","))
	}
	max := float64(scaling.DefaultMax)
	if plan.SuggestedMax != nil {
		max = *plan.SuggestedMax
	}
	return fmt.Sprintf("linear max=%s ticks=%s", scaling.FormatVolume(max), strings.Join(labels, ","))
}
