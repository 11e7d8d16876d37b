// Package journal records every trigger outcome of the dashboard. Tokens and
// credentials are never written.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one trigger outcome.
type Entry struct {
	At             time.Time `json:"at"`
	SessionID      string    `json:"session_id"`
	Outcome        string    `json:"outcome"`
	Chart          string    `json:"chart,omitempty"`
	Symbol         string    `json:"symbol,omitempty"`
	Timeframe      string    `json:"timeframe,omitempty"`
	Price          string    `json:"price,omitempty"`
	Volume         float64   `json:"volume,omitempty"`
	Timestamp      string    `json:"timestamp,omitempty"`
	TrendlineColor string    `json:"trendline_color,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Journal persists entries.
type Journal interface {
	Record(e Entry) error
	Close() error
}

// Open builds the journal named by backend: "jsonl", "sqlite" or "none".
func Open(backend, dir, sqlitePath string, bufferSize, maxSizeMB int) (Journal, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "jsonl":
		return NewJSONL(dir, bufferSize, maxSizeMB), nil
	case "sqlite":
		return NewSQLite(sqlitePath)
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("journal: unknown backend %q", backend)
	}
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(Entry) error { return nil }
func (Nop) Close() error       { return nil }
