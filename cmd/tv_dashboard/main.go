package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/api"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/config"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/netutil"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/notify"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load dashboard config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("tv_dashboard config loaded",
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.AutoPort,
		"port_candidates", cfg.PortCandidates,
		"profile_url", cfg.ProfileBaseURL,
		"parser_url", cfg.ParserBaseURL,
		"automation_url", cfg.AutomationBaseURL,
		"http_timeout_ms", cfg.HTTPTimeoutMS,
		"journal", cfg.JournalBackend,
		"archive_dir", cfg.ArchiveDir,
		"archive_prune_cron", cfg.ArchivePruneCron,
		"ntfy_enabled", cfg.NtfyEndpoint != "",
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	styles, err := config.LoadChartStyles(cfg.ChartStylesPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load chart styles", "path", cfg.ChartStylesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("chart styles file not found, using defaults", "path", cfg.ChartStylesPath)
		styles = config.DefaultChartStyles()
	}

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.AutoPort)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	jrnl, err := journal.Open(cfg.JournalBackend, cfg.JournalDir, cfg.JournalSQLitePath, cfg.JournalBufferSize, cfg.JournalMaxSizeMB)
	if err != nil {
		slog.Error("failed to open trigger journal", "backend", cfg.JournalBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := jrnl.Close(); err != nil {
			slog.Debug("trigger journal close failed", "error", err)
		}
	}()

	store, err := archive.NewStore(cfg.ArchiveDir)
	if err != nil {
		slog.Error("failed to create archive store", "dir", cfg.ArchiveDir, "error", err)
		os.Exit(1)
	}
	if maxAge := cfg.ArchiveMaxAge(); maxAge > 0 {
		pruner, err := archive.NewPruner(store, cfg.ArchivePruneCron, maxAge)
		if err != nil {
			slog.Error("failed to schedule archive pruning", "spec", cfg.ArchivePruneCron, "error", err)
			os.Exit(1)
		}
		pruner.Start()
		defer pruner.Stop()
	}

	timeout := cfg.HTTPTimeout()
	broker := relay.NewBroker()
	svc := dashboard.NewService(dashboard.Options{
		Profiles:       profile.NewClient(cfg.ProfileBaseURL, timeout, nil, nil),
		Parser:         upload.NewClient(cfg.ParserBaseURL, timeout, nil),
		Forwarder:      trigger.NewHTTPForwarder(cfg.AutomationBaseURL, timeout, nil),
		Broker:         broker,
		Journal:        jrnl,
		Archive:        store,
		Notifier:       &notify.Notifier{Endpoint: cfg.NtfyEndpoint, Client: &http.Client{Timeout: 10 * time.Second}},
		Styles:         styles,
		AllowAnonymous: cfg.AllowAnonymous,
	})
	defer svc.Close()

	h := api.NewServer(svc, api.Options{MaxUploadBytes: cfg.MaxUploadBytes})
	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("tv_dashboard listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("tv_dashboard server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// Close sessions first so open event streams end before Shutdown waits on them.
	svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("tv_dashboard shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
