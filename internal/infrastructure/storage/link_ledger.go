// Package storage persists both ledgers as human-readable JSON documents,
// rewritten wholesale on every mutation and tolerant of being hand-edited
// or deleted between runs.
package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
)

// linkExpiry is the trailing window after which a link record is dropped on
// load, regardless of processed state.
const linkExpiry = 30 * 24 * time.Hour

// LinkLedger is the persisted record of every article link ever discovered.
// Single-writer: concurrent external modification is not supported.
type LinkLedger struct {
	path    string
	cutoff  time.Time
	logger  *slog.Logger
	records map[string]*domain.LinkRecord
}

var _ ports.LinkLedger = (*LinkLedger)(nil)

// NewLinkLedger builds an empty ledger persisted at path. Links discovered
// before cutoff are never eligible for download.
func NewLinkLedger(path string, cutoff time.Time, logger *slog.Logger) *LinkLedger {
	return &LinkLedger{
		path:    path,
		cutoff:  cutoff,
		logger:  logger,
		records: map[string]*domain.LinkRecord{},
	}
}

// Load reads the persisted mapping and prunes expired entries. A corrupt or
// missing file yields an empty ledger; it never fails the process.
func (l *LinkLedger) Load() {
	l.records = map[string]*domain.LinkRecord{}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("cannot read known links; starting empty", "path", l.path, "error", err)
		}
		return
	}

	var loaded map[string]*domain.LinkRecord
	if err := json.Unmarshal(raw, &loaded); err != nil {
		l.logger.Warn("known links file corrupt; starting empty", "path", l.path, "error", err)
		return
	}

	l.records = loaded
	if dropped := l.Prune(time.Now()); dropped > 0 {
		l.logger.Info("expired link records dropped", "count", dropped)
	}
}

// Prune removes records whose discovery time has aged past the 30-day
// window and returns how many were dropped. It does not persist; the next
// mutation rewrites the file without them.
func (l *LinkLedger) Prune(now time.Time) int {
	cutoff := now.Add(-linkExpiry)
	dropped := 0
	for url, rec := range l.records {
		if rec == nil || rec.DiscoveredAt.Before(cutoff) {
			delete(l.records, url)
			dropped++
		}
	}
	return dropped
}

// RecordIfNew inserts a record on first observation of url and reports
// whether the link is eligible for download: a fresh record is eligible
// when its discovery time is not before the cutoff date, a known one when
// it was discovered on or after the cutoff and is still unprocessed.
// Re-observing a known url never mutates its record.
func (l *LinkLedger) RecordIfNew(url, title string) bool {
	if rec, ok := l.records[url]; ok {
		return !rec.DiscoveredAt.Before(l.cutoff) && !rec.Processed
	}

	now := time.Now()
	l.records[url] = &domain.LinkRecord{
		ID:           uuid.NewString(),
		Title:        title,
		DiscoveredAt: now,
		Processed:    false,
	}
	l.save()
	return !now.Before(l.cutoff)
}

// MarkProcessed flips a record to processed and persists. The transition is
// one-way; unknown urls are a no-op, not an error.
func (l *LinkLedger) MarkProcessed(url string) {
	rec, ok := l.records[url]
	if !ok || rec.Processed {
		return
	}
	rec.Processed = true
	l.save()
}

// Len reports the number of live records.
func (l *LinkLedger) Len() int {
	return len(l.records)
}

// save rewrites the full ledger. Failure is logged and the in-memory state
// carries on; at most the latest mutation is lost on crash.
func (l *LinkLedger) save() {
	writer, err := NewAtomicWriter(l.path)
	if err != nil {
		l.logger.Error("cannot save known links", "path", l.path, "error", err)
		return
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l.records); err != nil {
		writer.Abort()
		l.logger.Error("cannot encode known links", "path", l.path, "error", err)
		return
	}
	if err := writer.Commit(); err != nil {
		l.logger.Error("cannot save known links", "path", l.path, "error", err)
	}
}
