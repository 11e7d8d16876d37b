package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ChartStyles is the YAML side file for per-chart trendline colours and the
// broker prefixes skipped when reading symbols out of file names.
type ChartStyles struct {
	TrendlineColors map[string]string `yaml:"trendline_colors"`
	BrokerPrefixes  []string          `yaml:"broker_prefixes"`
}

// DefaultChartStyles returns the built-in colours and prefixes.
func DefaultChartStyles() *ChartStyles {
	colors := make(map[string]string, len(chart.DefaultTrendlineColors))
	for k, v := range chart.DefaultTrendlineColors {
		colors[string(k)] = v
	}
	return &ChartStyles{
		TrendlineColors: colors,
		BrokerPrefixes:  append([]string(nil), filename.DefaultBrokerPrefixes...),
	}
}

// LoadChartStyles reads path and overlays it on the defaults. Returns an
// os.ErrNotExist-wrapped error if the file is absent (caller falls back to
// DefaultChartStyles in that case).
func LoadChartStyles(path string) (*ChartStyles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chart_styles config: %w", err)
	}
	var file ChartStyles
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("chart_styles config: %w", err)
	}

	cfg := DefaultChartStyles()
	for name, color := range file.TrendlineColors {
		kind, ok := chart.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("chart_styles config: unknown chart %q", name)
		}
		if !hexColorRe.MatchString(color) {
			return nil, fmt.Errorf("chart_styles config: trendline_colors[%s] %q is not #RRGGBB", name, color)
		}
		cfg.TrendlineColors[string(kind)] = strings.ToUpper(color)
	}
	if len(file.BrokerPrefixes) > 0 {
		cfg.BrokerPrefixes = cfg.BrokerPrefixes[:0]
		for i, p := range file.BrokerPrefixes {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("chart_styles config: broker_prefixes[%d] is empty", i)
			}
			cfg.BrokerPrefixes = append(cfg.BrokerPrefixes, strings.ToUpper(p))
		}
	}
	return cfg, nil
}

// Color returns the trendline colour for kind, or "".
func (s *ChartStyles) Color(kind chart.Kind) string {
	if s == nil {
		return chart.DefaultTrendlineColors[kind]
	}
	return s.TrendlineColors[string(kind)]
}

// Interpreter builds the file-name interpreter for these styles.
func (s *ChartStyles) Interpreter() filename.Interpreter {
	if s == nil {
		return filename.Interpreter{BrokerPrefixes: filename.DefaultBrokerPrefixes}
	}
	return filename.Interpreter{BrokerPrefixes: s.BrokerPrefixes}
}
