// Package sweep maintains the download directory: retention deletion of
// completed media, removal of abandoned partial transfers, and discovery of
// resumable partials.
package sweep

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// abandonedAge is how old a partial artifact must be before it is
	// considered abandoned and removed unconditionally.
	abandonedAge = 24 * time.Hour

	// resumableAge and resumableMinSize bound which partials are still
	// worth resuming.
	resumableAge     = 7 * 24 * time.Hour
	resumableMinSize = 1 << 20 // 1 MiB
)

// abandonedSuffixes covers every in-progress artifact the retriever leaves
// behind; resumableSuffixes is the subset a new attempt can continue from.
var (
	abandonedSuffixes = []string{".part", ".ytdl", ".temp"}
	resumableSuffixes = []string{".part", ".f4v.part", ".webm.part"}
)

// Partial describes an in-progress transfer artifact found on disk.
type Partial struct {
	Name     string
	Size     int64
	Modified time.Time
}

// Sweeper performs directory maintenance over one download directory.
// Now is injectable for tests and defaults to time.Now.
type Sweeper struct {
	dir    string
	logger *slog.Logger
	Now    func() time.Time
}

// New builds a sweeper over dir.
func New(dir string, logger *slog.Logger) *Sweeper {
	return &Sweeper{dir: dir, logger: logger, Now: time.Now}
}

// RemoveExpiredMedia deletes completed media files older than retention and
// returns their filenames so the caller can drop the matching download
// ledger entries.
func (s *Sweeper) RemoveExpiredMedia(retention time.Duration) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("retention sweep: cannot read directory", "dir", s.dir, "error", err)
		return nil
	}

	cutoff := s.Now().Add(-retention)
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Error("retention sweep: cannot delete", "file", entry.Name(), "error", err)
			continue
		}
		s.logger.Info("deleted old file", "file", entry.Name())
		removed = append(removed, entry.Name())
	}
	return removed
}

// RemoveAbandonedPartials deletes partial artifacts older than 24 hours,
// regardless of size or ledger state, and returns how many were removed.
func (s *Sweeper) RemoveAbandonedPartials() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("partial sweep: cannot read directory", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := s.Now().Add(-abandonedAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !hasAnySuffix(entry.Name(), abandonedSuffixes) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			continue
		}
		s.logger.Info("cleaned up old partial download", "file", entry.Name())
		removed++
	}
	return removed
}

// ResumablePartials lists partial artifacts a new attempt can continue
// from: larger than 1 MiB and younger than 7 days, most recent first.
func (s *Sweeper) ResumablePartials() []Partial {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("resume scan: cannot read directory", "dir", s.dir, "error", err)
		return nil
	}

	oldest := s.Now().Add(-resumableAge)
	var partials []Partial
	for _, entry := range entries {
		if entry.IsDir() || !hasAnySuffix(entry.Name(), resumableSuffixes) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > resumableMinSize && info.ModTime().After(oldest) {
			partials = append(partials, Partial{
				Name:     entry.Name(),
				Size:     info.Size(),
				Modified: info.ModTime(),
			})
		}
	}

	sort.Slice(partials, func(i, j int) bool {
		return partials[i].Modified.After(partials[j].Modified)
	})
	return partials
}

// RemovePartialsFor deletes stray partial artifacts belonging to a
// completed output filename.
func (s *Sweeper) RemovePartialsFor(filename string) {
	base := strings.TrimSuffix(filename, ".mp4")
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == filename || !strings.HasPrefix(name, base) {
			continue
		}
		if !hasAnySuffix(name, abandonedSuffixes) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			s.logger.Info("cleaned up partial file", "file", name)
		}
	}
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
