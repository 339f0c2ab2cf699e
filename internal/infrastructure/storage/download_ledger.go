package storage

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
)

// DownloadLedger maps output filenames to completed-download metadata.
// Read/write failures are logged and non-fatal; the process continues with
// whatever is in memory.
type DownloadLedger struct {
	path    string
	logger  *slog.Logger
	records map[string]domain.DownloadRecord
}

var _ ports.DownloadLedger = (*DownloadLedger)(nil)

// NewDownloadLedger builds an empty ledger persisted at path.
func NewDownloadLedger(path string, logger *slog.Logger) *DownloadLedger {
	return &DownloadLedger{
		path:    path,
		logger:  logger,
		records: map[string]domain.DownloadRecord{},
	}
}

// Load reads the persisted mapping; corrupt or missing storage yields an
// empty ledger.
func (d *DownloadLedger) Load() {
	d.records = map[string]domain.DownloadRecord{}

	raw, err := os.ReadFile(d.path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("cannot read download list; starting empty", "path", d.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(raw, &d.records); err != nil {
		d.logger.Warn("download list corrupt; starting empty", "path", d.path, "error", err)
		d.records = map[string]domain.DownloadRecord{}
	}
}

// Add records a completed download and persists.
func (d *DownloadLedger) Add(filename string, record domain.DownloadRecord) {
	d.records[filename] = record
	d.Save()
}

// Remove deletes the entry for filename, if any, and persists.
func (d *DownloadLedger) Remove(filename string) {
	if _, ok := d.records[filename]; !ok {
		return
	}
	delete(d.records, filename)
	d.Save()
}

// Get returns the record for filename.
func (d *DownloadLedger) Get(filename string) (domain.DownloadRecord, bool) {
	rec, ok := d.records[filename]
	return rec, ok
}

// Len reports the number of recorded downloads.
func (d *DownloadLedger) Len() int {
	return len(d.records)
}

// Save rewrites the full document; failure is logged and non-fatal.
func (d *DownloadLedger) Save() {
	writer, err := NewAtomicWriter(d.path)
	if err != nil {
		d.logger.Error("cannot save download list", "path", d.path, "error", err)
		return
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d.records); err != nil {
		writer.Abort()
		d.logger.Error("cannot encode download list", "path", d.path, "error", err)
		return
	}
	if err := writer.Commit(); err != nil {
		d.logger.Error("cannot save download list", "path", d.path, "error", err)
	}
}
