package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/config"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/upload"
)

func runCLI(t *testing.T, cfg *config.CLIConfig, stdin string, args ...string) (string, error) {
	t.Helper()
	if cfg == nil {
		cfg = &config.CLIConfig{LogLevel: "error"}
	}
	cmd := NewRootCommand(cfg)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand(&config.CLIConfig{ChartStylesPath: "styles.yaml", LogLevel: "info"})

	styles := cmd.PersistentFlags().Lookup("styles")
	require.NotNil(t, styles)
	assert.Equal(t, "styles.yaml", styles.DefValue)

	level := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, level)
	assert.Equal(t, "info", level.DefValue)

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"interpret", "scale", "watch"})
}

func TestInterpretCommand(t *testing.T) {
	out, err := runCLI(t, nil, "", "interpret", "exports/CAPITALCOM_GOLD, 5.xlsx", "notes.txt")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "CAPITALCOM_GOLD, 5.xlsx\tsymbol=GOLD\ttimeframe=5", lines[0])
	assert.Contains(t, lines[1], "not .xlsx/.csv")
}

func TestInterpretCommandJSON(t *testing.T) {
	out, err := runCLI(t, nil, "", "--json", "interpret", "CAPITALCOM_GOLD, 5.xlsx")
	require.NoError(t, err)

	var got []interpretResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "GOLD", got[0].Symbol)
	assert.Equal(t, "5", got[0].Timeframe)
	assert.True(t, got[0].Spreadsheet)
}

func TestInterpretCommandCustomBrokerPrefixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker_prefixes: [OANDA]\n"), 0o644))

	out, err := runCLI(t, nil, "", "--styles", path, "interpret", "OANDA_XAUUSD_15.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "symbol=XAUUSD")
	assert.Contains(t, out, "timeframe=15")
}

func TestInterpretCommandRequiresArgs(t *testing.T) {
	_, err := runCLI(t, nil, "", "interpret")
	assert.Error(t, err)
}

func TestScaleCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name: "linear from args",
			args: []string{"scale", "100", "200", "300", "400", "500"},
			want: "bars=5 linear max=240 ticks=0,48,96,144,192,240",
		},
		{
			name:  "log from stdin",
			stdin: "1,1,1\n1 1 1\n1;1;1\n1000\n",
			args:  []string{"scale"},
			want:  "bars=10 log ticks=1,10,100,1.0K",
		},
		{
			name: "short series falls back to default max",
			args: []string{"scale", "42"},
			want: "bars=1 linear max=1.0M ticks=0,200.0K,400.0K,600.0K,800.0K,1.0M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, nil, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestScaleCommandFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volumes.txt")
	require.NoError(t, os.WriteFile(path, []byte("100\n200\n300\n400\n500\n"), 0o644))

	out, err := runCLI(t, nil, "", "--json", "scale", "--file", path)
	require.NoError(t, err)

	var got scaleResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 5, got.Count)
	assert.False(t, got.Plan.UseLogScale)
	require.NotNil(t, got.Plan.SuggestedMax)
	assert.Equal(t, 240.0, *got.Plan.SuggestedMax)
	assert.Len(t, got.Ticks, 6)
}

func TestScaleCommandRejectsGarbage(t *testing.T) {
	_, err := runCLI(t, nil, "", "scale", "100", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid volume "lots"`)
}

func parserRows(kind chart.Kind) []map[string]any {
	rows := make([]map[string]any, 0, 5)
	for i, v := range []float64{100, 200, 300, 400, 500} {
		rows = append(rows, map[string]any{
			string(kind): 2300.5 + float64(i),
			"Volume":     v,
			"time":       "2024-06-16 10:3" + string(rune('0'+i)),
		})
	}
	return rows
}

func newParserServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*calls++
		mu.Unlock()

		if r.URL.Path != "/upload-and-process" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("script") != "GOLD" || r.FormValue("timeframe") != "5" {
			http.Error(w, "unexpected form", http.StatusBadRequest)
			return
		}
		body := map[string]any{}
		for _, kind := range chart.Kinds {
			body[kind.ResponseKey()] = parserRows(kind)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWatchCommandOnce(t *testing.T) {
	calls := 0
	srv := newParserServer(t, &calls)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CAPITALCOM_GOLD, 5.csv"), []byte("time,open\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unnamed.xlsx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	cfg := &config.CLIConfig{ParserBaseURL: srv.URL, LogLevel: "error"}
	out, err := runCLI(t, cfg, "", "watch", "--once", dir)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Contains(t, out, "CAPITALCOM_GOLD, 5.csv: GOLD 5")
	assert.Contains(t, out, "  close bars=5 linear max=240 ticks=0,48,96,144,192,240")
	assert.Contains(t, out, "unnamed.xlsx: skipped")
	assert.NotContains(t, out, "readme.txt")
}

func TestWatchCommandRejectsMissingDir(t *testing.T) {
	_, err := runCLI(t, nil, "", "watch", "--once", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWatchCommandRejectsBadTime(t *testing.T) {
	_, err := runCLI(t, nil, "", "watch", "--once", "--start", "yesterday", t.TempDir())
	assert.Error(t, err)
}

type stubProcessor struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (p *stubProcessor) Process(_ context.Context, req upload.Request) (upload.Result, error) {
	p.mu.Lock()
	p.names = append(p.names, req.FileName)
	p.mu.Unlock()
	if p.err != nil {
		return upload.Result{}, p.err
	}
	res := upload.Result{Series: make(map[chart.Kind][]chart.Record)}
	for _, kind := range chart.Kinds {
		res.Series[kind] = chart.RecordsFromRows(kind, parserRows(kind))
	}
	return res, nil
}

func (p *stubProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.names)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDirWatcherHandleError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CAPITALCOM_GOLD, 5.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w := &dirWatcher{dir: dir, parser: &stubProcessor{err: errors.New("parser down")}, out: &syncBuffer{}}
	rep := w.handle(context.Background(), path)
	assert.Equal(t, "GOLD", rep.Symbol)
	assert.Equal(t, "parser down", rep.Error)
	assert.Empty(t, rep.Charts)
}

func TestDirWatcherHandleCharts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CAPITALCOM_GOLD, 5.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w := &dirWatcher{dir: dir, interpreter: filename.Interpreter{}, parser: &stubProcessor{}, out: &syncBuffer{}}
	rep := w.handle(context.Background(), path)
	require.Len(t, rep.Charts, len(chart.Kinds))
	for i, c := range rep.Charts {
		assert.Equal(t, chart.Kinds[i], c.Chart)
		assert.Equal(t, 5, c.Bars)
		assert.False(t, c.Plan.UseLogScale)
	}
}

func TestDirWatcherRunPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	proc := &stubProcessor{}
	out := &syncBuffer{}
	w := &dirWatcher{dir: dir, parser: proc, settle: 20 * time.Millisecond, jsonOutput: true, out: out}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(dir, "CAPITALCOM_GOLD, 5.csv")
	assert.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte("time,open\n"), 0o644); err != nil {
			return false
		}
		return proc.count() > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	line := strings.SplitN(strings.TrimSpace(out.String()), "\n", 2)[0]
	var rep FileReport
	require.NoError(t, json.Unmarshal([]byte(line), &rep))
	assert.Equal(t, "GOLD", rep.Symbol)
	assert.Len(t, rep.Charts, len(chart.Kinds))
}

func TestDebouncerDropsFireSupersededByLaterWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deb := newDebouncer(10 * time.Millisecond)
	defer deb.stop()

	deb.touch(ctx, "a.csv")
	var first settled
	select {
	case first = <-deb.ready:
	case <-time.After(time.Second):
		t.Fatal("first timer did not fire")
	}

	// A write lands after the first fire was queued but before it was handled.
	deb.touch(ctx, "a.csv")
	assert.False(t, deb.due(first), "superseded fire must be dropped")

	var second settled
	select {
	case second = <-deb.ready:
	case <-time.After(time.Second):
		t.Fatal("second timer did not fire")
	}
	assert.True(t, deb.due(second))
	assert.False(t, deb.due(second), "a path is handled once per burst")
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deb := newDebouncer(30 * time.Millisecond)
	defer deb.stop()

	for i := 0; i < 5; i++ {
		deb.touch(ctx, "a.csv")
	}
	deb.touch(ctx, "b.csv")

	handled := map[string]int{}
	deadline := time.After(time.Second)
	for len(handled) < 2 {
		select {
		case f := <-deb.ready:
			if deb.due(f) {
				handled[f.path]++
			}
		case <-deadline:
			t.Fatalf("handled = %v; want both paths", handled)
		}
	}
	assert.Equal(t, map[string]int{"a.csv": 1, "b.csv": 1}, handled)
}
