package batch

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Snapshot is one progress report, emitted to the console and appended to
// the progress file so run health can be tailed from outside the process.
type Snapshot struct {
	Timestamp      time.Time
	Completed      int
	Total          int
	Failed         int
	AvgRowSeconds  float64
	ElapsedSeconds float64
	ETASeconds     float64
	Workers        int
}

// Tracker owns the run's progress counters. Workers call Observe exactly
// once per completed row; every interval-th completion (and the final one)
// flushes a Snapshot. All mutation happens under one mutex; the flush cost
// is amortized across completions.
type Tracker struct {
	logger   *slog.Logger
	interval int
	workers  int

	mu         sync.Mutex
	total      int
	completed  int
	failed     int
	sumSeconds float64
	started    time.Time

	file *os.File
	csvw *csv.Writer
}

// NewTracker opens (truncating) the progress file at path and writes the
// header row. An empty path disables the file and keeps console reporting.
func NewTracker(total, workers, interval int, path string, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 100
	}
	t := &Tracker{
		logger:   logger,
		interval: interval,
		workers:  workers,
		total:    total,
		started:  time.Now(),
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create progress file: %w", err)
		}
		t.file = f
		t.csvw = csv.NewWriter(f)
		header := []string{
			"timestamp", "completed", "total", "failed",
			"avg_row_seconds", "elapsed_seconds", "eta_seconds", "workers",
		}
		if err := t.csvw.Write(header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write progress header: %w", err)
		}
		t.csvw.Flush()
	}
	return t, nil
}

// Observe records one finished row and flushes a snapshot on the reporting
// boundary. Must be called exactly once per row.
func (t *Tracker) Observe(res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	t.sumSeconds += res.Seconds
	if !res.OK() {
		t.failed++
	}
	if t.completed%t.interval == 0 || t.completed == t.total {
		t.flushLocked()
	}
}

// Current returns the counters as of now without flushing.
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{
		Timestamp: time.Now(),
		Completed: t.completed,
		Total:     t.total,
		Failed:    t.failed,
		Workers:   t.workers,
	}
	s.ElapsedSeconds = time.Since(t.started).Seconds()
	if t.completed > 0 {
		s.AvgRowSeconds = t.sumSeconds / float64(t.completed)
	}
	if t.completed > 0 && t.workers > 0 {
		s.ETASeconds = float64(t.total-t.completed) * s.AvgRowSeconds / float64(t.workers)
	}
	return s
}

func (t *Tracker) flushLocked() {
	s := t.snapshotLocked()
	t.logger.Info("batch.progress",
		"completed", s.Completed,
		"total", s.Total,
		"failed", s.Failed,
		"avg_row_seconds", round4(s.AvgRowSeconds),
		"elapsed_seconds", round4(s.ElapsedSeconds),
		"eta_seconds", round4(s.ETASeconds),
		"workers", s.Workers,
	)
	if t.csvw == nil {
		return
	}
	record := []string{
		s.Timestamp.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%d", s.Completed),
		fmt.Sprintf("%d", s.Total),
		fmt.Sprintf("%d", s.Failed),
		fmt.Sprintf("%.4f", s.AvgRowSeconds),
		fmt.Sprintf("%.4f", s.ElapsedSeconds),
		fmt.Sprintf("%.4f", s.ETASeconds),
		fmt.Sprintf("%d", s.Workers),
	}
	if err := t.csvw.Write(record); err != nil {
		t.logger.Warn("batch.progress.write_error", "error", err)
		return
	}
	t.csvw.Flush()
}

// Close flushes and closes the progress file.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.csvw != nil {
		t.csvw.Flush()
	}
	if t.file != nil {
		err := t.file.Close()
		t.file = nil
		t.csvw = nil
		return err
	}
	return nil
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
