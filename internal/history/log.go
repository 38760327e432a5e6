// Package history records finished generations to Parquet and writes per-export YAML summaries.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/parquet-go/parquet-go"
)

// Record is one finished generation.
type Record struct {
	SessionID       string `parquet:"session_id"`
	StartedAtMS     int64  `parquet:"started_at_ms"`
	DurationMS      int64  `parquet:"duration_ms"`
	ColorName       string `parquet:"color_name"`
	ColorHex        string `parquet:"color_hex"`
	Manufacturer    string `parquet:"manufacturer"`
	ColorCode       string `parquet:"color_code"`
	CustomColor     string `parquet:"custom_color"`
	Hardware        string `parquet:"hardware"`
	Sheen           string `parquet:"sheen"`
	FreeText        string `parquet:"free_text"`
	RestoreOriginal bool   `parquet:"restore_original"`
	Instruction     string `parquet:"instruction"`
	Error           string `parquet:"error"`
}

// Succeeded reports whether the generation produced an image.
func (r Record) Succeeded() bool {
	return r.Error == ""
}

// DefaultFlushEvery is the number of buffered records that triggers a flush.
const DefaultFlushEvery = 25

// Log buffers generation records in memory until Flush. It implements session.Observer.
type Log struct {
	path       string
	flushEvery int

	mu      sync.Mutex
	pending []Record
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithFlushEvery flushes once n records are buffered. n <= 0 disables size-triggered flushes.
func WithFlushEvery(n int) LogOption {
	return func(l *Log) { l.flushEvery = n }
}

// NewLog returns a Log that flushes to path. An empty path keeps records in memory only.
func NewLog(path string, opts ...LogOption) *Log {
	l := &Log{path: path, flushEvery: DefaultFlushEvery}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) AnalysisFinished(session.AnalysisEvent) {}

func (l *Log) GenerationFinished(ev session.GenerationEvent) {
	r := Record{
		SessionID:       ev.SessionID,
		StartedAtMS:     ev.Started.UnixMilli(),
		DurationMS:      ev.Duration.Milliseconds(),
		CustomColor:     ev.Selection.CustomColorText,
		Hardware:        ev.Selection.Hardware.Name,
		Sheen:           ev.Selection.Sheen,
		FreeText:        ev.Selection.FreeText,
		RestoreOriginal: ev.RestoreOriginal,
		Instruction:     ev.Instruction,
	}
	if c := ev.Selection.Color; c != nil {
		r.ColorName = c.Name
		r.ColorHex = c.Hex
		r.Manufacturer = c.Manufacturer
		r.ColorCode = c.Code
	}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
	}

	l.mu.Lock()
	l.pending = append(l.pending, r)
	full := l.path != "" && l.flushEvery > 0 && len(l.pending) >= l.flushEvery
	l.mu.Unlock()

	if full {
		if err := l.Flush(); err != nil {
			slog.Warn("Failed to flush generation history", "path", l.path, "err", err)
		}
	}
}

// Run flushes every interval until ctx is done.
func (l *Log) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Flush(); err != nil {
				slog.Warn("Failed to flush generation history", "path", l.path, "err", err)
			}
		}
	}
}

// Pending returns a copy of the records not yet flushed.
func (l *Log) Pending() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.pending...)
}

// Flush appends pending records to the Parquet file, rewriting it through a temporary file.
func (l *Log) Flush() error {
	if l.path == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}

	existing, err := ReadFile(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	rows := append(existing, l.pending...)

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	tmp := l.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	slog.Info("Flushed generation history", "path", l.path, "new_rows", len(l.pending), "total_rows", len(rows))
	l.pending = nil
	return nil
}

// ReadFile loads every record from a Parquet history file.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}
