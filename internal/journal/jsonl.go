package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// JSONL writes entries asynchronously as JSON lines into one file per UTC
// day: <dir>/<date>/triggers.jsonl, rotated by size.
type JSONL struct {
	baseDir     string
	maxSizeMB   int
	writeCh     chan Entry
	done        chan struct{}
	wg          sync.WaitGroup
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
	closeOnce   sync.Once
}

// NewJSONL starts the writer goroutine.
func NewJSONL(baseDir string, bufferSize, maxSizeMB int) *JSONL {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	w := &JSONL{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan Entry, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Record queues an entry; it never blocks.
func (w *JSONL) Record(e Entry) error {
	select {
	case <-w.done:
		return fmt.Errorf("journal is closed")
	default:
	}
	select {
	case w.writeCh <- e:
		return nil
	default:
		slog.Warn("trigger journal buffer full, dropping entry", "session_id", e.SessionID, "outcome", e.Outcome)
		return fmt.Errorf("buffer full")
	}
}

// Close flushes pending entries and closes the file.
func (w *JSONL) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()

		// writeLoop has exited; drain what is left.
		for {
			select {
			case e := <-w.writeCh:
				w.writeEntry(e)
				continue
			default:
			}
			break
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.logger != nil {
			err = w.logger.Close()
		}
	})
	return err
}

func (w *JSONL) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-w.done:
			return
		}
	}
}

func (w *JSONL) writeEntry(e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal journal entry", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	date := time.Now().UTC().Format("2006-01-02")
	if date != w.currentDate || w.logger == nil {
		if err := w.rotateForDate(date); err != nil {
			slog.Error("failed to open journal file", "error", err, "dir", w.baseDir)
			return
		}
	}

	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("failed to write journal entry", "error", err)
	}
}

func (w *JSONL) rotateForDate(date string) error {
	if w.logger != nil {
		if err := w.logger.Close(); err != nil {
			slog.Debug("journal file close failed", "error", err)
		}
	}

	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filename := filepath.Join(dir, "triggers.jsonl")
	w.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 30,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false,
	}
	w.currentDate = date
	slog.Info("opened trigger journal", "file", filename)
	return nil
}
