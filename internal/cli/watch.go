package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/scaling"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/upload"
)

const defaultSettle = 750 * time.Millisecond

// processor is the parsing service as the watcher sees it.
type processor interface {
	Process(ctx context.Context, req upload.Request) (upload.Result, error)
}

// ChartSummary is the axis preview of one parsed chart.
type ChartSummary struct {
	Chart chart.Kind       `json:"chart"`
	Bars  int              `json:"bars"`
	Plan  scaling.AxisPlan `json:"plan"`
	Ticks []scaling.Tick   `json:"ticks"`
}

// FileReport is printed once per processed export.
type FileReport struct {
	Path      string         `json:"path"`
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Charts    []ChartSummary `json:"charts,omitempty"`
	Skipped   string         `json:"skipped,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type dirWatcher struct {
	dir         string
	interpreter filename.Interpreter
	parser      processor
	settle      time.Duration
	start, end  time.Time
	jsonOutput  bool

	outMu sync.Mutex
	out   io.Writer
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	var (
		parserURL string
		timeoutMS int
		startStr  string
		endStr    string
		existing  bool
		once      bool
		settle    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Send new exports in a folder through the parsing service",
		Long: `Watches a folder for new or rewritten .xlsx and .csv exports. Each file is
sent to the parsing service once writes have settled, and the axis each of
the four volume charts would get is printed.

Files whose name does not yield both a symbol and a timeframe are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styles, err := root.styles()
			if err != nil {
				return err
			}
			start, err := upload.ParseFormTime(startStr)
			if err != nil {
				return err
			}
			end, err := upload.ParseFormTime(endStr)
			if err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("watch dir: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("watch dir: %s is not a directory", args[0])
			}

			w := &dirWatcher{
				dir:         args[0],
				interpreter: styles.Interpreter(),
				parser:      upload.NewClient(parserURL, time.Duration(timeoutMS)*time.Millisecond, nil),
				settle:      settle,
				start:       start,
				end:         end,
				jsonOutput:  root.jsonOutput,
				out:         cmd.OutOrStdout(),
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if existing || once {
				if err := w.processExisting(ctx); err != nil {
					return err
				}
			}
			if once {
				return nil
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&parserURL, "parser-url", root.cfg.ParserBaseURL, "Parsing service base URL")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", root.cfg.HTTPTimeoutMS, "Parser request timeout in milliseconds (0 = none)")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time sent with each upload (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time sent with each upload (YYYY-MM-DD HH:MM)")
	cmd.Flags().BoolVar(&existing, "existing", false, "Process exports already in the folder before watching")
	cmd.Flags().BoolVar(&once, "once", false, "Process exports already in the folder and exit")
	cmd.Flags().DurationVar(&settle, "settle", defaultSettle, "Quiet period after the last write before a file is sent")
	return cmd
}

// processExisting handles the exports already in the folder, in name order.
func (w *dirWatcher) processExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read watch dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filename.HasSpreadsheetExtension(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		w.report(w.handle(ctx, filepath.Join(w.dir, name)))
	}
	return nil
}

// Run watches the folder until ctx is cancelled.
func (w *dirWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching export folder", "dir", w.dir, "settle", w.settle.String())

	settle := w.settle
	if settle <= 0 {
		settle = defaultSettle
	}
	deb := newDebouncer(settle)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !filename.HasSpreadsheetExtension(filepath.Base(event.Name)) {
				continue
			}
			deb.touch(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("export watcher error", "error", err)

		case f := <-deb.ready:
			if !deb.due(f) {
				continue
			}
			w.report(w.handle(ctx, f.path))
		}
	}
}

// settled is a timer fire for path; seq identifies the touch that armed it.
type settled struct {
	path string
	seq  uint64
}

// debouncer delays a path until it has been quiet for settle. It is owned by
// one goroutine; only the timers send on ready.
type debouncer struct {
	settle time.Duration
	ready  chan settled
	seq    uint64
	timers map[string]*time.Timer
	latest map[string]uint64
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle: settle,
		ready:  make(chan settled, 16),
		timers: make(map[string]*time.Timer),
		latest: make(map[string]uint64),
	}
}

// touch (re)arms the timer for path. A fire from an earlier touch that is
// already queued is dropped by due.
func (d *debouncer) touch(ctx context.Context, path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.seq++
	f := settled{path: path, seq: d.seq}
	d.latest[path] = f.seq
	d.timers[path] = time.AfterFunc(d.settle, func() {
		select {
		case d.ready <- f:
		case <-ctx.Done():
		}
	})
}

// due reports whether f is the latest fire for its path and forgets the path.
func (d *debouncer) due(f settled) bool {
	if d.latest[f.path] != f.seq {
		return false
	}
	delete(d.latest, f.path)
	delete(d.timers, f.path)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}

func (w *dirWatcher) handle(ctx context.Context, path string) FileReport {
	meta := w.interpreter.Interpret(filepath.Base(path))
	rep := FileReport{Path: path, Symbol: meta.Symbol, Timeframe: meta.Timeframe}
	if meta.Symbol == "" || meta.Timeframe == "" {
		rep.Skipped = "symbol or timeframe not found in file name"
		return rep
	}

	f, err := os.Open(path)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	defer func() {
		_ = f.Close()
	}()

	res, err := w.parser.Process(ctx, upload.Request{
		FileName:  filepath.Base(path),
		File:      f,
		Script:    meta.Symbol,
		Timeframe: meta.Timeframe,
		StartTime: w.start,
		EndTime:   w.end,
	})
	if err != nil {
		slog.Warn("export processing failed", "path", path, "error", err)
		rep.Error = err.Error()
		return rep
	}

	for _, kind := range chart.Kinds {
		series := chart.Volumes(res.Series[kind])
		plan := scaling.Plan(series)
		rep.Charts = append(rep.Charts, ChartSummary{
			Chart: kind,
			Bars:  len(series),
			Plan:  plan,
			Ticks: scaling.Ticks(plan, series),
		})
	}
	return rep
}

func (w *dirWatcher) report(rep FileReport) {
	w.outMu.Lock()
	defer w.outMu.Unlock()

	if w.jsonOutput {
		if err := json.NewEncoder(w.out).Encode(rep); err != nil {
			slog.Debug("report write failed", "error", err)
		}
		return
	}

	name := filepath.Base(rep.Path)
	switch {
	case rep.Skipped != "":
		fmt.Fprintf(w.out, "%s: skipped: %s\n", name, rep.Skipped)
	case rep.Error != "":
		fmt.Fprintf(w.out, "%s: error: %s\n", name, rep.Error)
	default:
		fmt.Fprintf(w.out, "%s: %s %s\n", name, rep.Symbol, rep.Timeframe)
		for _, c := range rep.Charts {
			fmt.Fprintf(w.out, "  %-5s bars=%d %s\n", c.Chart, c.Bars, describePlan(c.Plan, c.Ticks))
		}
	}
}
