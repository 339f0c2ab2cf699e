package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
	"github.com/ibwaheemi/sports-downloader-docker/internal/sweep"
)

// completeSize is the minimum size of a media file considered a finished
// download; anything smaller is an incomplete leftover.
const completeSize int64 = 10 << 20 // 10 MiB

const maxDiagnostics = 2000

// chromeKeywords mark titles that are navigation chrome rather than
// articles; such candidates are rejected before ledger insertion.
var chromeKeywords = []string{"home", "about", "contact", "category", "tag"}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher   ports.Fetcher
	Strategy  ports.SiteStrategy
	Retriever ports.Retriever
	Links     ports.LinkLedger
	Downloads ports.DownloadLedger
	Sweeper   *sweep.Sweeper
	Logger    *slog.Logger
}

// Pipeline implements one discovery-to-retrieval cycle. It exclusively owns
// both ledgers; nothing else mutates them while the process runs.
type Pipeline struct {
	siteURL     string
	downloadDir string
	retention   time.Duration

	fetcher   ports.Fetcher
	strategy  ports.SiteStrategy
	retriever ports.Retriever
	links     ports.LinkLedger
	downloads ports.DownloadLedger
	sweeper   *sweep.Sweeper
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(siteURL, downloadDir string, retention time.Duration, deps PipelineDeps) *Pipeline {
	return &Pipeline{
		siteURL:     siteURL,
		downloadDir: downloadDir,
		retention:   retention,
		fetcher:     deps.Fetcher,
		strategy:    deps.Strategy,
		retriever:   deps.Retriever,
		links:       deps.Links,
		downloads:   deps.Downloads,
		sweeper:     deps.Sweeper,
		logger:      deps.Logger,
	}
}

// RunCycle performs one full cycle: discover, filter, resolve, retrieve,
// then sweep. A discovery failure aborts the cycle (retried on the next
// interval); a failure inside one candidate never affects the others, and
// nothing here ever terminates the process.
func (p *Pipeline) RunCycle(ctx context.Context, start time.Time) error {
	p.logger.Info("cycle start", "site", p.siteURL, "at", start.Format(time.RFC3339))

	body, err := p.fetcher.Get(ctx, p.siteURL)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	candidates, err := p.strategy.FindArticles(p.siteURL, body)
	if err != nil {
		return fmt.Errorf("extract articles: %w", err)
	}
	p.logger.Info("found potential video links", "count", len(candidates))

	for _, cand := range candidates {
		if isChrome(cand.Title) {
			continue
		}
		if !p.links.RecordIfNew(cand.URL, cand.Title) {
			continue
		}
		p.processCandidate(ctx, cand)
	}

	for _, filename := range p.sweeper.RemoveExpiredMedia(p.retention) {
		p.downloads.Remove(filename)
	}
	p.sweeper.RemoveAbandonedPartials()

	return nil
}

// processCandidate resolves and retrieves a single eligible candidate. Any
// failure leaves the link unprocessed in the ledger, so it is naturally
// retried on the next cycle.
func (p *Pipeline) processCandidate(ctx context.Context, cand domain.Candidate) {
	logger := p.logger.With("title", cand.Title)

	body, err := p.fetcher.Get(ctx, cand.URL)
	if err != nil {
		logger.Warn("cannot fetch article page", "url", cand.URL, "error", err)
		return
	}
	source, ok := p.strategy.FindSource(body)
	if !ok {
		logger.Info("no video source found, will retry next cycle", "url", cand.URL)
		return
	}

	filename := domain.MediaFilename(cand.Title)
	path := filepath.Join(p.downloadDir, filename)

	if info, err := os.Stat(path); err == nil {
		if info.Size() >= completeSize {
			logger.Info("file already exists", "file", filename, "size_mb", info.Size()>>20)
			p.links.MarkProcessed(cand.URL)
			return
		}
		logger.Info("removing incomplete file", "file", filename, "size", info.Size())
		if err := os.Remove(path); err != nil {
			logger.Warn("cannot remove incomplete file", "file", filename, "error", err)
			return
		}
	}

	if partial, ok := largestPartialFor(p.sweeper.ResumablePartials(), filename); ok {
		logger.Info("found resumable partial download", "file", partial.Name, "size_mb", partial.Size>>20)
	}

	logger.Info("downloading", "source", source, "file", filename)
	outcome := p.retriever.Retrieve(ctx, source, path)
	switch outcome.Kind {
	case domain.RetrieveSuccess:
		info, err := os.Stat(path)
		if err != nil {
			logger.Error("download completed but file missing", "file", filename)
			return
		}
		if info.Size() < completeSize {
			logger.Error("downloaded file too small", "file", filename, "size", info.Size())
			return
		}
		p.downloads.Add(filename, domain.DownloadRecord{
			ID:           uuid.NewString(),
			Title:        cand.Title,
			SourceURL:    source,
			SizeBytes:    info.Size(),
			DownloadedAt: time.Now(),
		})
		p.sweeper.RemovePartialsFor(filename)
		p.links.MarkProcessed(cand.URL)
		logger.Info("successfully downloaded", "file", filename, "size_mb", info.Size()>>20)
	case domain.RetrieveTimeout:
		logger.Error("download timed out, partial remains for resume", "file", filename)
	default:
		logger.Error("download failed", "file", filename, "diagnostics", clip(outcome.Diagnostics))
	}
}

func isChrome(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range chromeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// largestPartialFor picks the biggest resumable partial belonging to the
// given output filename.
func largestPartialFor(partials []sweep.Partial, filename string) (sweep.Partial, bool) {
	base := strings.TrimSuffix(filename, ".mp4")
	var best sweep.Partial
	found := false
	for _, partial := range partials {
		if !strings.HasPrefix(partial.Name, base) {
			continue
		}
		if !found || partial.Size > best.Size {
			best = partial
			found = true
		}
	}
	return best, found
}

func clip(s string) string {
	if len(s) > maxDiagnostics {
		return s[:maxDiagnostics]
	}
	return s
}
