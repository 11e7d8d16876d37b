// Package archive keeps each processed upload on disk: the parsed bars as a
// parquet file and the upload metadata as a JSON sidecar.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ErrNotFound is returned for unknown archive IDs.
var ErrNotFound = errors.New("archive not found")

// Meta describes one archived upload.
type Meta struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	FileName  string         `json:"file_name"`
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
	Rows      map[string]int `json:"rows"`
	SizeBytes int64          `json:"size_bytes"`
	CreatedAt time.Time      `json:"created_at"`
}

// Row is one bar of one chart in the parquet file.
type Row struct {
	Chart  string  `parquet:"chart"`
	Index  int64   `parquet:"index"`
	Price  string  `parquet:"price"`
	Volume float64 `parquet:"volume"`
	Time   string  `parquet:"time"`
}

// Store manages archive files on disk.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archive store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) validateID(id string) error {
	if !uuidRe.MatchString(id) {
		return fmt.Errorf("%w: invalid archive id %q", ErrNotFound, id)
	}
	return nil
}

// Save assigns an ID and writes the bars and metadata sidecar.
func (s *Store) Save(meta Meta, series map[chart.Kind][]chart.Record) (Meta, error) {
	meta.ID = uuid.NewString()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Rows = make(map[string]int, len(series))

	var rows []Row
	for _, kind := range chart.Kinds {
		records := series[kind]
		meta.Rows[string(kind)] = len(records)
		for i, r := range records {
			rows = append(rows, Row{Chart: string(kind), Index: int64(i), Price: r.Price, Volume: r.Volume, Time: r.Time})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dataPath := filepath.Join(s.dir, meta.ID+".parquet")
	jsonPath := filepath.Join(s.dir, meta.ID+".json")

	if err := parquet.WriteFile(dataPath, rows); err != nil {
		_ = os.Remove(dataPath)
		return Meta{}, fmt.Errorf("archive store: write parquet: %w", err)
	}
	if info, err := os.Stat(dataPath); err == nil {
		meta.SizeBytes = info.Size()
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		s.removeQuiet(dataPath)
		return Meta{}, fmt.Errorf("archive store: marshal meta: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		s.removeQuiet(dataPath)
		return Meta{}, fmt.Errorf("archive store: write meta: %w", err)
	}
	return meta, nil
}

// Get reads archive metadata by ID.
func (s *Store) Get(id string) (Meta, error) {
	if err := s.validateID(id); err != nil {
		return Meta{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readMeta(filepath.Join(s.dir, id+".json"))
}

func (s *Store) readMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return Meta{}, fmt.Errorf("archive store: read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("archive store: unmarshal meta: %w", err)
	}
	return meta, nil
}

// List returns all archives, newest first.
func (s *Store) List() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("archive store: glob: %w", err)
	}

	metas := make([]Meta, 0, len(matches))
	for _, path := range matches {
		meta, err := s.readMeta(path)
		if err != nil {
			slog.Debug("skipping unreadable archive meta", "path", path, "error", err)
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// ReadSeries loads the archived bars back into per-chart records.
func (s *Store) ReadSeries(id string) (map[chart.Kind][]chart.Record, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := parquet.ReadFile[Row](filepath.Join(s.dir, id+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("archive store: read parquet: %w", err)
	}
	out := make(map[chart.Kind][]chart.Record, len(chart.Kinds))
	for _, r := range rows {
		kind := chart.Kind(r.Chart)
		out[kind] = append(out[kind], chart.Record{Price: r.Price, Volume: r.Volume, Time: r.Time})
	}
	return out, nil
}

// Delete removes both files of an archive.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeQuiet(filepath.Join(s.dir, id+".parquet"))
	s.removeQuiet(filepath.Join(s.dir, id+".json"))
	return nil
}

// Prune deletes archives created before now-maxAge and returns how many.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	metas, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	n := 0
	for _, m := range metas {
		if m.CreatedAt.Before(cutoff) {
			if err := s.Delete(m.ID); err != nil {
				slog.Warn("archive prune delete failed", "id", m.ID, "error", err)
				continue
			}
			n++
		}
	}
	return n, nil
}

func (s *Store) removeQuiet(path string) {
	if err := os.Remove(path); err != nil {
		slog.Debug("archive file cleanup failed", "path", path, "error", err)
	}
}
