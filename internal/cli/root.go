// Package cli implements volctl, the offline companion of the dashboard:
// it interprets export file names, previews axis scaling and watches an
// export directory, sending new files through the parsing service.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/config"
)

type rootOptions struct {
	cfg        *config.CLIConfig
	stylesPath string
	logLevel   string
	jsonOutput bool
}

// NewRootCommand builds the volctl command tree with defaults from cfg.
func NewRootCommand(cfg *config.CLIConfig) *cobra.Command {
	if cfg == nil {
		cfg = &config.CLIConfig{LogLevel: "warn"}
	}
	opts := &rootOptions{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:   "volctl",
		Short: "Volume chart tooling for TradingView exports",
		Long: `volctl works with the spreadsheet exports the volume dashboard consumes.

It reads symbol and timeframe out of export file names, previews how a
volume series would be scaled on the chart axis, and can watch a folder
for new exports and run them through the parsing service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(cmd.ErrOrStderr(), opts.logLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.stylesPath, "styles", cfg.ChartStylesPath, "Chart styles YAML (broker prefixes, trendline colours)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(newInterpretCommand(opts))
	rootCmd.AddCommand(newScaleCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	return rootCmd
}

// styles loads the configured chart styles, falling back to the built-in
// defaults when the file does not exist.
func (o *rootOptions) styles() (*config.ChartStyles, error) {
	if strings.TrimSpace(o.stylesPath) == "" {
		return config.DefaultChartStyles(), nil
	}
	styles, err := config.LoadChartStyles(o.stylesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("chart styles file not found, using defaults", "path", o.stylesPath)
			return config.DefaultChartStyles(), nil
		}
		return nil, fmt.Errorf("load chart styles: %w", err)
	}
	return styles, nil
}

func setupLogger(w io.Writer, level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel})))
}
