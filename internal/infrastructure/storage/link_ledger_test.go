package storage

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeLedgerFile(t *testing.T, path string, records map[string]domain.LinkRecord) {
	t.Helper()
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func TestRecordIfNewInsertsAndReportsEligibility(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	cutoff := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewLinkLedger(path, cutoff, discardLogger())
	ledger.Load()

	eligible := ledger.RecordIfNew("https://site/lakers-vs-celtics", "Lakers vs Celtics Full Game Replay")
	assert.True(t, eligible, "a link discovered after the cutoff is eligible")
	assert.Equal(t, 1, ledger.Len())

	// Insert persists immediately.
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRecordIfNewIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	ledger := NewLinkLedger(path, time.Time{}, discardLogger())
	ledger.Load()

	ledger.RecordIfNew("https://site/game", "Warriors vs Suns Full Game Replay")
	ledger.RecordIfNew("https://site/game", "Warriors vs Suns Full Game Replay")
	assert.Equal(t, 1, ledger.Len())
}

func TestProcessedTransitionIsMonotonic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	ledger := NewLinkLedger(path, time.Time{}, discardLogger())
	ledger.Load()

	url := "https://site/lakers-vs-celtics"
	require.True(t, ledger.RecordIfNew(url, "Lakers vs Celtics Full Game Replay"))

	ledger.MarkProcessed(url)

	// Once a link is processed, no later observation makes it eligible again.
	for i := 0; i < 3; i++ {
		assert.False(t, ledger.RecordIfNew(url, "Lakers vs Celtics Full Game Replay"))
	}
}

func TestMarkProcessedUnknownURLIsNoOp(t *testing.T) {
	t.Parallel()

	ledger := NewLinkLedger(filepath.Join(t.TempDir(), "links.json"), time.Time{}, discardLogger())
	ledger.Load()

	ledger.MarkProcessed("https://site/never-seen")
	assert.Equal(t, 0, ledger.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	cutoff := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	first := NewLinkLedger(path, cutoff, discardLogger())
	first.Load()
	first.RecordIfNew("https://site/a-vs-b-full-game-replay", "A vs B Full Game Replay")
	first.RecordIfNew("https://site/c-vs-d-full-game-replay", "C vs D Full Game Replay")
	first.MarkProcessed("https://site/a-vs-b-full-game-replay")

	second := NewLinkLedger(path, cutoff, discardLogger())
	second.Load()
	assert.Equal(t, 2, second.Len())
	assert.False(t, second.RecordIfNew("https://site/a-vs-b-full-game-replay", "A vs B Full Game Replay"), "processed survives reload")
	assert.True(t, second.RecordIfNew("https://site/c-vs-d-full-game-replay", "C vs D Full Game Replay"), "unprocessed survives reload")
}

func TestLoadPrunesExpiredEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	now := time.Now()
	writeLedgerFile(t, path, map[string]domain.LinkRecord{
		"https://site/old": {ID: "1", Title: "Old vs Older Full Game Replay", DiscoveredAt: now.Add(-31 * 24 * time.Hour)},
		"https://site/new": {ID: "2", Title: "New vs Newer Full Game Replay", DiscoveredAt: now.Add(-29 * 24 * time.Hour)},
	})

	ledger := NewLinkLedger(path, time.Time{}, discardLogger())
	ledger.Load()

	assert.Equal(t, 1, ledger.Len())
	// The surviving entry predates any cutoff of zero, so it stays known.
	assert.True(t, ledger.RecordIfNew("https://site/new", "New vs Newer Full Game Replay"))
	assert.Equal(t, 1, ledger.Len(), "re-observing the expired url would re-insert; the survivor must not")
}

func TestCutoffBoundary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	cutoff := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeLedgerFile(t, path, map[string]domain.LinkRecord{
		"https://site/at-cutoff":     {ID: "1", Title: "At Cutoff vs Team Full Replay", DiscoveredAt: cutoff},
		"https://site/before-cutoff": {ID: "2", Title: "Before Cutoff vs Team Replay", DiscoveredAt: cutoff.Add(-time.Second)},
	})

	ledger := NewLinkLedger(path, cutoff, discardLogger())
	ledger.Load()

	assert.True(t, ledger.RecordIfNew("https://site/at-cutoff", ""), "discovered exactly at the cutoff is eligible")
	assert.False(t, ledger.RecordIfNew("https://site/before-cutoff", ""), "one second before the cutoff is not")
}

func TestCorruptFileYieldsEmptyLedger(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	ledger := NewLinkLedger(path, time.Time{}, discardLogger())
	ledger.Load()
	assert.Equal(t, 0, ledger.Len())
}

func TestMissingFileYieldsEmptyLedger(t *testing.T) {
	t.Parallel()

	ledger := NewLinkLedger(filepath.Join(t.TempDir(), "absent.json"), time.Time{}, discardLogger())
	ledger.Load()
	assert.Equal(t, 0, ledger.Len())
}

func TestDiscoveryScenario(t *testing.T) {
	t.Parallel()

	// Cutoff 2024-01-01T00:00:00; an article discovered afterwards is
	// eligible exactly once, then a successful retrieval marks it processed
	// and every later discovery of the same URL reports ineligible.
	path := filepath.Join(t.TempDir(), "links.json")
	cutoff := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	ledger := NewLinkLedger(path, cutoff, discardLogger())
	ledger.Load()

	require.True(t, ledger.RecordIfNew("https://site/lakers-vs-celtics", "Lakers vs Celtics Full Game Replay"))

	ledger.MarkProcessed("https://site/lakers-vs-celtics")
	assert.False(t, ledger.RecordIfNew("https://site/lakers-vs-celtics", "Lakers vs Celtics Full Game Replay"))
	assert.Equal(t, 1, ledger.Len())
}

func TestPruneIsSeparableFromMutation(t *testing.T) {
	t.Parallel()

	ledger := NewLinkLedger(filepath.Join(t.TempDir(), "links.json"), time.Time{}, discardLogger())
	ledger.Load()
	ledger.RecordIfNew("https://site/fresh-vs-stale-full-replay", "Fresh vs Stale Full Replay")

	dropped := ledger.Prune(time.Now())
	assert.Zero(t, dropped, "a just-inserted record never prunes")

	dropped = ledger.Prune(time.Now().Add(31 * 24 * time.Hour))
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, ledger.Len())
}
