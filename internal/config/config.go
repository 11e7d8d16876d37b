package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard service.
type Config struct {
	// HTTP server
	BindAddr       string
	PortCandidates []string
	AutoPort       bool
	LogLevel       string
	LogFile        string

	// External collaborators
	ProfileBaseURL    string
	ParserBaseURL     string
	AutomationBaseURL string
	HTTPTimeoutMS     int

	// Trigger journal
	JournalBackend    string
	JournalDir        string
	JournalSQLitePath string
	JournalBufferSize int
	JournalMaxSizeMB  int

	// Upload archive
	ArchiveDir       string
	ArchivePruneCron string
	ArchiveMaxAgeH   int

	// Uploads and triggers
	MaxUploadBytes  int64
	ChartStylesPath string
	NtfyEndpoint    string
	AllowAnonymous  bool
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:          getEnvOrDefault("DASHBOARD_BIND_ADDR", "127.0.0.1:8288"),
		PortCandidates:    getEnvListOrDefault("DASHBOARD_PORT_CANDIDATES", []string{"127.0.0.1:8289", "127.0.0.1:8290"}),
		AutoPort:          getEnvBoolOrDefault("DASHBOARD_AUTO_PORT", true),
		LogLevel:          strings.ToLower(getEnvOrDefault("DASHBOARD_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("DASHBOARD_LOG_FILE", "logs/tv_dashboard.log"),
		ProfileBaseURL:    getEnvOrDefault("DASHBOARD_PROFILE_URL", "http://localhost:5000"),
		ParserBaseURL:     getEnvOrDefault("DASHBOARD_PARSER_URL", "http://localhost:8000"),
		AutomationBaseURL: getEnvOrDefault("DASHBOARD_AUTOMATION_URL", "http://localhost:8000"),
		HTTPTimeoutMS:     getEnvIntOrDefault("DASHBOARD_HTTP_TIMEOUT_MS", 0),
		JournalBackend:    strings.ToLower(getEnvOrDefault("DASHBOARD_JOURNAL", "jsonl")),
		JournalDir:        getEnvOrDefault("DASHBOARD_JOURNAL_DIR", "./dashboard_data/journal"),
		JournalSQLitePath: getEnvOrDefault("DASHBOARD_JOURNAL_SQLITE", "./dashboard_data/triggers.db"),
		JournalBufferSize: getEnvIntOrDefault("DASHBOARD_JOURNAL_BUFFER", 1024),
		JournalMaxSizeMB:  getEnvIntOrDefault("DASHBOARD_JOURNAL_MAX_SIZE_MB", 50),
		ArchiveDir:        getEnvOrDefault("DASHBOARD_ARCHIVE_DIR", "./dashboard_data/archive"),
		ArchivePruneCron:  getEnvOrDefault("DASHBOARD_ARCHIVE_PRUNE_CRON", "0 0 * * * *"),
		ArchiveMaxAgeH:    getEnvIntOrDefault("DASHBOARD_ARCHIVE_MAX_AGE_H", 24*7),
		MaxUploadBytes:    int64(getEnvIntOrDefault("DASHBOARD_MAX_UPLOAD_MB", 32)) << 20,
		ChartStylesPath:   getEnvOrDefault("DASHBOARD_CHART_STYLES", "./config/chart_styles.yaml"),
		NtfyEndpoint:      getEnvOrDefault("DASHBOARD_NTFY_ENDPOINT", ""),
		AllowAnonymous:    getEnvBoolOrDefault("DASHBOARD_ALLOW_ANONYMOUS", true),
	}
	if cfg.HTTPTimeoutMS < 0 {
		cfg.HTTPTimeoutMS = 0
	}
	if cfg.JournalBufferSize < 1 {
		cfg.JournalBufferSize = 1
	}
	return cfg, nil
}

// HTTPTimeout is the outbound client timeout; zero means none.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// ArchiveMaxAge is zero when pruning by age is disabled.
func (c *Config) ArchiveMaxAge() time.Duration {
	if c.ArchiveMaxAgeH <= 0 {
		return 0
	}
	return time.Duration(c.ArchiveMaxAgeH) * time.Hour
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
