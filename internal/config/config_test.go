package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DASHBOARD_BIND_ADDR", "DASHBOARD_HTTP_TIMEOUT_MS", "DASHBOARD_JOURNAL", "DASHBOARD_PORT_CANDIDATES"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:8288" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.HTTPTimeout() != 0 {
		t.Fatalf("HTTPTimeout() = %v; want 0", cfg.HTTPTimeout())
	}
	if cfg.JournalBackend != "jsonl" {
		t.Fatalf("JournalBackend = %q; want jsonl", cfg.JournalBackend)
	}
	if cfg.ArchiveMaxAge() != 7*24*time.Hour {
		t.Fatalf("ArchiveMaxAge() = %v", cfg.ArchiveMaxAge())
	}
	if len(cfg.PortCandidates) != 2 {
		t.Fatalf("PortCandidates = %v", cfg.PortCandidates)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DASHBOARD_BIND_ADDR", "0.0.0.0:9000")
	t.Setenv("DASHBOARD_HTTP_TIMEOUT_MS", "2500")
	t.Setenv("DASHBOARD_JOURNAL", "SQLite")
	t.Setenv("DASHBOARD_PORT_CANDIDATES", " 127.0.0.1:9001 , ,127.0.0.1:9002")
	t.Setenv("DASHBOARD_ARCHIVE_MAX_AGE_H", "0")
	t.Setenv("DASHBOARD_AUTO_PORT", "not-a-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "0.0.0.0:9000" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.HTTPTimeout() != 2500*time.Millisecond {
		t.Fatalf("HTTPTimeout() = %v", cfg.HTTPTimeout())
	}
	if cfg.JournalBackend != "sqlite" {
		t.Fatalf("JournalBackend = %q; want sqlite", cfg.JournalBackend)
	}
	want := []string{"127.0.0.1:9001", "127.0.0.1:9002"}
	if !reflect.DeepEqual(cfg.PortCandidates, want) {
		t.Fatalf("PortCandidates = %v; want %v", cfg.PortCandidates, want)
	}
	if cfg.ArchiveMaxAge() != 0 {
		t.Fatalf("ArchiveMaxAge() = %v; want 0", cfg.ArchiveMaxAge())
	}
	if !cfg.AutoPort {
		t.Fatalf("AutoPort = false; unparsable values keep the default")
	}
}

func TestLoadChartStyles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	body := "trendline_colors:\n  close: \"#00ffff\"\nbroker_prefixes:\n  - capitalcom\n  - OANDA\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	styles, err := LoadChartStyles(path)
	if err != nil {
		t.Fatalf("LoadChartStyles() error = %v", err)
	}
	if got := styles.Color(chart.KindClose); got != "#00FFFF" {
		t.Fatalf("Color(close) = %q; want #00FFFF", got)
	}
	if got := styles.Color(chart.KindHigh); got != "#FF0000" {
		t.Fatalf("Color(high) = %q; want default #FF0000", got)
	}
	if !reflect.DeepEqual(styles.BrokerPrefixes, []string{"CAPITALCOM", "OANDA"}) {
		t.Fatalf("BrokerPrefixes = %v", styles.BrokerPrefixes)
	}
	if md := styles.Interpreter().Interpret("OANDA_EURUSD_15.csv"); md.Symbol != "EURUSD" || md.Timeframe != "15" {
		t.Fatalf("Interpret() = %+v; want EURUSD/15", md)
	}
}

func TestLoadChartStylesErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown chart", body: "trendline_colors:\n  volume: \"#000000\"\n"},
		{name: "bad colour", body: "trendline_colors:\n  open: orange\n"},
		{name: "empty prefix", body: "broker_prefixes:\n  - \"\"\n"},
		{name: "bad yaml", body: "trendline_colors: [\n"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadChartStyles(path); err == nil {
				t.Fatalf("case %d: LoadChartStyles() error = nil", i)
			}
		})
	}

	_, err := LoadChartStyles(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error = %v; want os.ErrNotExist", err)
	}
}

func TestNilChartStylesFallsBack(t *testing.T) {
	var s *ChartStyles
	if got := s.Color(chart.KindOpen); got != "#000000" {
		t.Fatalf("Color(open) = %q", got)
	}
	if md := s.Interpreter().Interpret("CAPITALCOM_GOLD, 10.csv"); md.Symbol != "GOLD" {
		t.Fatalf("Interpret() = %+v", md)
	}
}

func TestLoadCLI(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DASHBOARD_PARSER_URL", "http://parser:9000")
	t.Setenv("DASHBOARD_HTTP_TIMEOUT_MS", "")
	t.Setenv("VOLCTL_LOG_LEVEL", "")
	if err := os.Unsetenv("VOLCTL_LOG_LEVEL"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VOLCTL_LOG_LEVEL=DEBUG\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadCLI()
	if cfg.ParserBaseURL != "http://parser:9000" {
		t.Fatalf("ParserBaseURL = %q", cfg.ParserBaseURL)
	}
	if cfg.HTTPTimeoutMS != 0 {
		t.Fatalf("HTTPTimeoutMS = %d; want 0", cfg.HTTPTimeoutMS)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q; want debug from .env", cfg.LogLevel)
	}
	if cfg.ChartStylesPath != "./config/chart_styles.yaml" {
		t.Fatalf("ChartStylesPath = %q", cfg.ChartStylesPath)
	}
}
