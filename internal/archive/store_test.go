package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
)

func sampleSeries() map[chart.Kind][]chart.Record {
	return map[chart.Kind][]chart.Record{
		chart.KindOpen:  {{Price: "10.5", Volume: 100, Time: "t0"}, {Price: "10.6", Volume: 150, Time: "t1"}},
		chart.KindClose: {{Price: "11", Volume: 200, Time: "t0"}},
		chart.KindHigh:  {},
		chart.KindLow:   {{Price: "9", Volume: 50, Time: "t0"}},
	}
}

func TestSaveGetReadSeries(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	meta, err := store.Save(Meta{SessionID: "s1", FileName: "CAPITALCOM_GOLD, 10.csv", Symbol: "GOLD", Timeframe: "10"}, sampleSeries())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !uuidRe.MatchString(meta.ID) {
		t.Fatalf("Save() id = %q; want uuid", meta.ID)
	}
	if meta.Rows["open"] != 2 || meta.Rows["high"] != 0 {
		t.Fatalf("Save() rows = %v", meta.Rows)
	}

	got, err := store.Get(meta.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Symbol != "GOLD" || got.SessionID != "s1" {
		t.Fatalf("Get() = %+v", got)
	}

	series, err := store.ReadSeries(meta.ID)
	if err != nil {
		t.Fatalf("ReadSeries() error = %v", err)
	}
	open := series[chart.KindOpen]
	if len(open) != 2 || open[1] != (chart.Record{Price: "10.6", Volume: 150, Time: "t1"}) {
		t.Fatalf("ReadSeries()[open] = %+v", open)
	}
	if len(series[chart.KindLow]) != 1 {
		t.Fatalf("ReadSeries()[low] = %+v", series[chart.KindLow])
	}
}

func TestGetUnknownAndInvalidID(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Get("../etc/passwd"); err == nil {
		t.Fatalf("Get(invalid) = nil error")
	}
	_, err := store.Get("123e4567-e89b-12d3-a456-426614174000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v; want ErrNotFound", err)
	}
}

func TestListNewestFirstAndPrune(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	old, err := store.Save(Meta{Symbol: "OLD", CreatedAt: time.Now().UTC().Add(-72 * time.Hour)}, sampleSeries())
	if err != nil {
		t.Fatalf("Save(old) error = %v", err)
	}
	fresh, err := store.Save(Meta{Symbol: "NEW"}, sampleSeries())
	if err != nil {
		t.Fatalf("Save(fresh) error = %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != fresh.ID || list[1].ID != old.ID {
		t.Fatalf("List() = %+v", list)
	}

	n, err := store.Prune(24 * time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("Prune() = %d, %v; want 1, nil", n, err)
	}
	if _, err := store.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(old) after prune error = %v; want ErrNotFound", err)
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Fatalf("Get(fresh) after prune error = %v", err)
	}
}

func TestDeleteLogsDataCleanupFailureWhenParquetMissing(t *testing.T) {
	dir := t.TempDir()
	store := &Store{dir: dir}
	id := "123e4567-e89b-12d3-a456-426614174000"

	metaBytes, err := json.Marshal(Meta{ID: id})
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), metaBytes, 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	var buf bytes.Buffer
	oldLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(oldLogger)
	})

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() = %v; want nil", err)
	}
	if !strings.Contains(buf.String(), "archive file cleanup failed") {
		t.Fatalf("expected cleanup debug log, got %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, id+".json")); !os.IsNotExist(err) {
		t.Fatalf("meta sidecar still present: %v", err)
	}
}

func TestNewPrunerRejectsBadSpec(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := NewPruner(store, "not a cron", time.Hour); err == nil {
		t.Fatalf("NewPruner(bad spec) = nil error")
	}
	p, err := NewPruner(store, "0 0 3 * * *", time.Hour)
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}
	p.Start()
	p.Stop()
}
