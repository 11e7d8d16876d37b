package config

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
)

// CLIConfig holds the defaults of the volctl command.
type CLIConfig struct {
	ParserBaseURL   string
	HTTPTimeoutMS   int
	ChartStylesPath string
	LogLevel        string
}

// LoadCLI reads volctl defaults from the environment and an optional .env
// file; flags override them.
func LoadCLI() *CLIConfig {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}
	return &CLIConfig{
		ParserBaseURL:   getEnvOrDefault("DASHBOARD_PARSER_URL", "http://localhost:8000"),
		HTTPTimeoutMS:   getEnvIntOrDefault("DASHBOARD_HTTP_TIMEOUT_MS", 0),
		ChartStylesPath: getEnvOrDefault("DASHBOARD_CHART_STYLES", "./config/chart_styles.yaml"),
		LogLevel:        strings.ToLower(getEnvOrDefault("VOLCTL_LOG_LEVEL", "warn")),
	}
}
