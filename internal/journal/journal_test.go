package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	j := NewJSONL(dir, 8, 1)

	if err := j.Record(Entry{SessionID: "s1", Outcome: "forwarded", Symbol: "GOLD", Volume: 1200}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record(Entry{SessionID: "s1", Outcome: "credentials_required"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02"), "triggers.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var outcomes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		outcomes = append(outcomes, e.Outcome)
	}
	if len(outcomes) != 2 || outcomes[0] != "forwarded" || outcomes[1] != "credentials_required" {
		t.Fatalf("outcomes = %v", outcomes)
	}

	if err := j.Record(Entry{SessionID: "s1"}); err == nil {
		t.Fatalf("Record() after Close() = nil; want error")
	}
}

func TestSQLiteRecordAndRecent(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer j.Close()

	base := time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"credentials_required", "forwarded"} {
		err := j.Record(Entry{
			At:        base.Add(time.Duration(i) * time.Minute),
			SessionID: "s1",
			Outcome:   outcome,
			Symbol:    "GOLD",
			Price:     "2345.5",
			Volume:    1200,
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := j.Record(Entry{SessionID: "s2", Outcome: "forwarded"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := j.Recent("s1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent()) = %d; want 2", len(got))
	}
	if got[0].Outcome != "forwarded" || got[1].Outcome != "credentials_required" {
		t.Fatalf("Recent() order = %s, %s", got[0].Outcome, got[1].Outcome)
	}
	if got[0].Price != "2345.5" || got[0].Volume != 1200 || !got[0].At.Equal(base.Add(time.Minute)) {
		t.Fatalf("Recent()[0] = %+v", got[0])
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("kafka", t.TempDir(), "", 1, 1); err == nil {
		t.Fatalf("Open(kafka) = nil error; want error")
	}
	j, err := Open("none", "", "", 0, 0)
	if err != nil {
		t.Fatalf("Open(none) error = %v", err)
	}
	if err := j.Record(Entry{}); err != nil {
		t.Fatalf("Nop.Record() error = %v", err)
	}
}
