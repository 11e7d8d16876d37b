// Package upload sends a spreadsheet to the parsing service and returns the
// four volume-vs-price series it extracts.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/netutil"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

const processPath = "/upload-and-process"

// FormTimeLayout is the wall-clock layout the parser and the automation
// endpoint expect: local time, no seconds, no zone.
const FormTimeLayout = "2006-01-02 15:04"

var formTimeLayouts = []string{
	FormTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// FormatTime renders t in FormTimeLayout; the zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(FormTimeLayout)
}

// ParseFormTime accepts datetime-local values ("2024-06-16T10:30"), the
// FormTimeLayout and RFC 3339. Empty input yields the zero time.
func ParseFormTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range formTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, types.NewError(types.CodeValidation, fmt.Sprintf("unrecognised time %q", s), nil)
}

// Request is one upload cycle.
type Request struct {
	FileName  string
	File      io.Reader
	Script    string
	Timeframe string
	StartTime time.Time
	EndTime   time.Time
}

// Result holds the parsed records per chart.
type Result struct {
	Series map[chart.Kind][]chart.Record
}

type processResponse struct {
	VolumeVsOpen  []map[string]any `json:"volume_vs_open"`
	VolumeVsClose []map[string]any `json:"volume_vs_close"`
	VolumeVsHigh  []map[string]any `json:"volume_vs_high"`
	VolumeVsLow   []map[string]any `json:"volume_vs_low"`
}

// Client calls the parsing service.
type Client struct {
	rest *resty.Client
}

func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper) *Client {
	return &Client{rest: netutil.NewRESTClient(baseURL, timeout, transport)}
}

// Process uploads the file with its form fields. All four series must be
// present in the response.
func (c *Client) Process(ctx context.Context, req Request) (Result, error) {
	if req.File == nil {
		return Result{}, types.NewError(types.CodeValidation, "file is required", nil)
	}

	var out processResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetFileReader("file", req.FileName, req.File).
		SetFormData(map[string]string{
			"script":     req.Script,
			"timeframe":  req.Timeframe,
			"start_time": FormatTime(req.StartTime),
			"end_time":   FormatTime(req.EndTime),
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post(processPath)
	if err != nil {
		return Result{}, types.NewError(types.CodeUpstreamUnavailable, "parser service unreachable", err)
	}
	if !resp.IsSuccess() {
		return Result{}, types.NewError(types.CodeParseFailed, "parser rejected upload", fmt.Errorf("status=%d", resp.StatusCode()))
	}

	raw := map[chart.Kind][]map[string]any{
		chart.KindOpen:  out.VolumeVsOpen,
		chart.KindClose: out.VolumeVsClose,
		chart.KindHigh:  out.VolumeVsHigh,
		chart.KindLow:   out.VolumeVsLow,
	}
	res := Result{Series: make(map[chart.Kind][]chart.Record, len(raw))}
	for _, kind := range chart.Kinds {
		rows := raw[kind]
		if rows == nil {
			return Result{}, types.NewError(types.CodeParseFailed, kind.ResponseKey()+" missing from parser response", nil)
		}
		res.Series[kind] = chart.RecordsFromRows(kind, rows)
	}
	return res, nil
}
