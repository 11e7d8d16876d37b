package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores entries in a trigger_events table.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the database and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &SQLite{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("sqlite trigger journal opened", "path", path)
	return j, nil
}

func (j *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trigger_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			session_id      TEXT NOT NULL,
			outcome         TEXT NOT NULL,
			chart           TEXT,
			symbol          TEXT,
			timeframe       TEXT,
			price           TEXT,
			volume          REAL,
			bar_time        TEXT,
			trendline_color TEXT,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_events_session ON trigger_events(session_id, timestamp)`,
	}
	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (j *SQLite) Record(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(`INSERT INTO trigger_events
		(timestamp, session_id, outcome, chart, symbol, timeframe, price, volume, bar_time, trendline_color, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixMilli(), e.SessionID, e.Outcome, e.Chart, e.Symbol, e.Timeframe, e.Price, e.Volume, e.Timestamp, e.TrendlineColor, e.Error)
	if err != nil {
		return fmt.Errorf("insert trigger event: %w", err)
	}
	return nil
}

// Recent returns the newest entries of sessionID, newest first.
func (j *SQLite) Recent(sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`SELECT timestamp, session_id, outcome, chart, symbol, timeframe, price, volume, bar_time, trendline_color, error
		FROM trigger_events WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query trigger events: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&ts, &e.SessionID, &e.Outcome, &e.Chart, &e.Symbol, &e.Timeframe, &e.Price, &e.Volume, &e.Timestamp, &e.TrendlineColor, &e.Error); err != nil {
			return nil, fmt.Errorf("scan trigger event: %w", err)
		}
		e.At = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
