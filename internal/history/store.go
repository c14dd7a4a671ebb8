package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oiroc/internal/calendar"

	"go.uber.org/zap"
)

// ErrPersist wraps every failure to write the daily file or feed a sink.
// In-memory history is never affected by it.
var ErrPersist = errors.New("persist history")

// Store owns the current day's Table together with its file on disk.
// It is not safe for concurrent use; the consumer loop is its only caller.
type Store struct {
	dir          string
	columns      []string
	clock        *calendar.Clock
	persistEvery time.Duration
	sinks        []Sink
	logger       *zap.Logger

	table       *Table
	lastPersist time.Time
	flushed     int  // rows already handed to sinks
	dirty       bool // rows appended since the last file write
	rolloverAt  time.Time
}

// NewStore creates a store with an empty table for the day of now.
func NewStore(dir string, columns []string, clock *calendar.Clock, persistEvery time.Duration,
	sinks []Sink, logger *zap.Logger, now time.Time) *Store {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Store{
		dir:          dir,
		columns:      cols,
		clock:        clock,
		persistEvery: persistEvery,
		sinks:        sinks,
		logger:       logger,
		table:        NewTable(clock.DateKey(now), cols),
		lastPersist:  now,
		rolloverAt:   clock.NextMidnight(now),
	}
}

// Path returns the file holding the table for date.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("oi_roc_%s.csv", date))
}

// Table returns the live table. Callers must not retain it across passes.
func (s *Store) Table() *Table { return s.table }

// Append adds a row to the current day.
func (s *Store) Append(row Row) {
	s.table.Append(row)
	s.dirty = true
}

// Window returns the newest n rows, newest first.
func (s *Store) Window(n int) []Row { return s.table.Window(n) }

// Restore loads today's file when now is inside trading hours. Outside
// trading hours, or without a file, the table stays empty. Columns of the
// file that are not part of the fixed column set are dropped.
func (s *Store) Restore(now time.Time) (bool, error) {
	date := s.clock.DateKey(now)
	s.table = NewTable(date, s.columns)
	s.flushed = 0
	s.dirty = false
	s.rolloverAt = s.clock.NextMidnight(now)

	if !s.clock.InTradingHours(now) {
		s.logger.Info("outside trading hours, starting empty history", zap.String("date", date))
		return false, nil
	}

	path := s.Path(date)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no history file for today", zap.String("path", path))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	loaded, err := ReadCSV(f, date)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	known := make(map[string]struct{}, len(s.columns))
	for _, c := range s.columns {
		known[c] = struct{}{}
	}
	for _, row := range loaded.rows {
		values := make(map[string]string, len(row.Values))
		for col, v := range row.Values {
			if _, ok := known[col]; ok {
				values[col] = v
			}
		}
		s.table.rows = append(s.table.rows, Row{Timestamp: row.Timestamp, Values: values})
	}
	s.flushed = s.table.Len()

	s.logger.Info("restored history", zap.String("path", path), zap.Int("rows", s.table.Len()))
	return true, nil
}

// PersistDue reports whether persistEvery has elapsed since the last flush.
func (s *Store) PersistDue(now time.Time) bool {
	return now.Sub(s.lastPersist) >= s.persistEvery
}

// Persist writes the full table to its daily file and feeds new rows to the
// sinks. The file is only rewritten when rows were appended since the last
// write, so a table that was never filled cannot replace a file on disk.
// Every failure is wrapped with ErrPersist; the table is unchanged.
func (s *Store) Persist(ctx context.Context, now time.Time) error {
	s.lastPersist = now

	if s.dirty {
		if err := s.writeFile(); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
		s.dirty = false
	}

	pending := s.table.rows[s.flushed:]
	if len(pending) == 0 {
		return nil
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Flush(ctx, s.table.date, pending); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		// rows stay pending and are offered again on the next persist
		return fmt.Errorf("%w: %v", ErrPersist, errors.Join(errs...))
	}
	s.flushed = s.table.Len()
	return nil
}

func (s *Store) writeFile() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".oi_roc_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, s.table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(s.table.date)); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Archive hands the current day's file to every sink that keeps copies.
// An empty table has nothing of its own on disk and is skipped.
func (s *Store) Archive(ctx context.Context) error {
	if s.table.Len() == 0 {
		return nil
	}
	var errs []error
	for _, sink := range s.sinks {
		a, ok := sink.(Archiver)
		if !ok {
			continue
		}
		if err := a.Archive(ctx, s.table.date, s.Path(s.table.date)); err != nil {
			errs = append(errs, fmt.Errorf("archive %s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrPersist, errors.Join(errs...))
	}
	return nil
}

// RolloverAt returns the exchange-local midnight that ends the current table.
func (s *Store) RolloverAt() time.Time { return s.rolloverAt }

// Rollover closes the finished day when now falls on a later exchange date:
// the old table is persisted and archived, then an empty table for the new
// date replaces it. It reports whether a rollover happened. The new table is
// installed even when closing the old day fails.
func (s *Store) Rollover(ctx context.Context, now time.Time) (bool, error) {
	if now.Before(s.rolloverAt) {
		return false, nil
	}
	date := s.clock.DateKey(now)
	if date == s.table.date {
		s.rolloverAt = s.clock.NextMidnight(now)
		return false, nil
	}

	var errs []error
	if err := s.Persist(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if err := s.Archive(ctx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("history rollover",
		zap.String("from", s.table.date), zap.String("to", date), zap.Int("rows", s.table.Len()))
	s.table = NewTable(date, s.columns)
	s.flushed = 0
	s.dirty = false
	s.rolloverAt = s.clock.NextMidnight(now)

	return true, errors.Join(errs...)
}
