package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

// Dataset is what one bar chart renders: labels encode "{price} ({index})"
// and Data/Time are parallel to Labels.
type Dataset struct {
	Kind   Kind      `json:"kind"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
	Time   []string  `json:"time"`
}

// Point is the record reconstructed from a clicked bar.
type Point struct {
	Price        float64 `json:"price"`
	PriceRaw     string  `json:"price_raw"`
	Volume       float64 `json:"volume"`
	TimestampRaw string  `json:"timestamp"`
	SourceIndex  int     `json:"source_index"`
}

// BuildDataset renders records for kind.
func BuildDataset(kind Kind, records []Record) Dataset {
	ds := Dataset{
		Kind:   kind,
		Title:  kind.Title(),
		Labels: make([]string, len(records)),
		Data:   make([]float64, len(records)),
		Time:   make([]string, len(records)),
	}
	for i, r := range records {
		ds.Labels[i] = fmt.Sprintf("%s (%d)", r.Price, i)
		ds.Data[i] = r.Volume
		ds.Time[i] = r.Time
	}
	return ds
}

// MapClick reconstructs the clicked point. Price, timestamp and volume must
// be present and the upload metadata must carry a symbol and timeframe.
func MapClick(ds Dataset, index int, meta filename.Metadata) (Point, error) {
	if index < 0 || index >= len(ds.Labels) || index >= len(ds.Data) || index >= len(ds.Time) {
		return Point{}, invalid(fmt.Sprintf("bar index %d out of range", index))
	}

	priceRaw, _, _ := strings.Cut(ds.Labels[index], " ")
	volume := ds.Data[index]
	timestamp := ds.Time[index]

	switch {
	case strings.TrimSpace(meta.Symbol) == "":
		return Point{}, invalid("symbol is required")
	case strings.TrimSpace(meta.Timeframe) == "":
		return Point{}, invalid("timeframe is required")
	case priceRaw == "":
		return Point{}, invalid("price is missing")
	case timestamp == "":
		return Point{}, invalid("timestamp is missing")
	case volume == 0 || math.IsNaN(volume):
		return Point{}, invalid("volume is missing")
	}

	return Point{
		Price:        parsePrice(priceRaw),
		PriceRaw:     priceRaw,
		Volume:       volume,
		TimestampRaw: timestamp,
		SourceIndex:  index,
	}, nil
}

// parsePrice reads a price label, ignoring currency signs and thousands
// separators. Labels that still do not parse yield 0; the raw label is what
// gets forwarded.
func parsePrice(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '$' {
			return -1
		}
		return r
	}, raw)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(price) {
		return 0
	}
	return price
}

func invalid(msg string) error {
	return &types.CodedError{Code: types.CodeInvalidClick, Message: msg}
}
