// Package chart turns parsed OHLCV records into the four volume-vs-price bar
// datasets and maps a click on a bar back to the record that produced it.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind selects which price column a chart plots volume against.
type Kind string

const (
	KindOpen  Kind = "open"
	KindClose Kind = "close"
	KindHigh  Kind = "high"
	KindLow   Kind = "low"
)

// Kinds lists the charts in display order.
var Kinds = []Kind{KindOpen, KindClose, KindHigh, KindLow}

// DefaultTrendlineColors maps each chart to the trendline colour forwarded
// with a trigger.
var DefaultTrendlineColors = map[Kind]string{
	KindOpen:  "#000000",
	KindClose: "#FFA500",
	KindHigh:  "#FF0000",
	KindLow:   "#00FF00",
}

// ParseKind accepts "open", "Volume vs Open" and similar spellings.
func ParseKind(s string) (Kind, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "volume vs ")
	v = strings.TrimPrefix(v, "volume_vs_")
	for _, k := range Kinds {
		if v == string(k) {
			return k, true
		}
	}
	return "", false
}

// Title is the chart heading, e.g. "Volume vs Open".
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return "Volume vs " + strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ResponseKey is the parser response field holding this chart's records.
func (k Kind) ResponseKey() string {
	return "volume_vs_" + string(k)
}

// Record is one parsed row of a volume-vs-price series.
type Record struct {
	Price  string  `json:"price" parquet:"price"`
	Volume float64 `json:"volume" parquet:"volume"`
	Time   string  `json:"time" parquet:"time"`
}

// RecordsFromRows converts raw parser rows ({<kind>, Volume, time}) into
// records. Unreadable volumes become 0 and are rejected later at click time.
func RecordsFromRows(kind Kind, rows []map[string]any) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record{
			Price:  scalarString(row[string(kind)]),
			Volume: parseVolume(row["Volume"]),
			Time:   scalarString(row["time"]),
		})
	}
	return out
}

// Volumes returns the volume column of records.
func Volumes(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Volume
	}
	return out
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func parseVolume(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	case fmt.Stringer:
		return parseVolume(x.String())
	default:
		return 0
	}
}
