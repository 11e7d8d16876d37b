// Package scaling decides how the volume axis of a bar chart is scaled.
package scaling

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

const (
	// DefaultMax is the ceiling used when a series is too short to measure.
	DefaultMax = 1_000_000

	percentile   = 0.90
	headroom     = 1.2
	trimCount    = 2
	logThreshold = 10
)

// AxisPlan is the y-axis configuration of one chart. SuggestedMax is nil when
// the axis is logarithmic.
type AxisPlan struct {
	UseLogScale  bool     `json:"use_log_scale"`
	SuggestedMax *float64 `json:"suggested_max,omitempty"`
}

// Plan combines UseLog and ScaleMax the way the chart options consume them.
func Plan(series []float64) AxisPlan {
	if UseLog(series) {
		return AxisPlan{UseLogScale: true}
	}
	max := ScaleMax(series)
	return AxisPlan{SuggestedMax: &max}
}

// ScaleMax returns the 90th-percentile value of series with its two largest
// values removed, padded by 20% and rounded up.
func ScaleMax(series []float64) float64 {
	if len(series) < 2 {
		return DefaultMax
	}
	sorted := sortedCopy(series)
	trimmed := sorted[:len(sorted)-trimCount]
	if len(trimmed) == 0 {
		return DefaultMax
	}
	return math.Ceil(trimmed[percentileIndex(len(trimmed))] * headroom)
}

// UseLog reports whether the series maximum exceeds ten times its
// untrimmed 90th percentile.
func UseLog(series []float64) bool {
	if len(series) < 2 {
		return false
	}
	sorted := sortedCopy(series)
	p90 := sorted[percentileIndex(len(sorted))]
	return sorted[len(sorted)-1] > logThreshold*p90
}

// FormatVolume renders an axis tick label.
func FormatVolume(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func percentileIndex(n int) int {
	return int(math.Floor(percentile * float64(n-1)))
}

func sortedCopy(series []float64) []float64 {
	out := make([]float64, len(series))
	copy(out, series)
	sort.Float64s(out)
	return out
}

const linearTickCount = 5

// Tick is one labelled axis value.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Ticks lists the labelled axis values for plan: powers of ten up to the
// series maximum on a log axis, otherwise even steps up to SuggestedMax.
func Ticks(plan AxisPlan, series []float64) []Tick {
	if plan.UseLogScale {
		top := 0.0
		for _, v := range series {
			top = math.Max(top, v)
		}
		if top <= 0 {
			return nil
		}
		var ticks []Tick
		for v := 1.0; ; v *= 10 {
			ticks = append(ticks, Tick{Value: v, Label: FormatVolume(v)})
			if v >= top {
				return ticks
			}
		}
	}

	top := float64(DefaultMax)
	if plan.SuggestedMax != nil {
		top = *plan.SuggestedMax
	}
	if top <= 0 {
		return []Tick{{Value: 0, Label: FormatVolume(0)}}
	}
	ticks := make([]Tick, 0, linearTickCount+1)
	for i := 0; i <= linearTickCount; i++ {
		v := top * float64(i) / linearTickCount
		ticks = append(ticks, Tick{Value: v, Label: FormatVolume(v)})
	}
	return ticks
}
