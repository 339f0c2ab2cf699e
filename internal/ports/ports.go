package ports

import (
	"context"
	"time"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
)

// Fetcher retrieves raw page bodies. Implementations own retry/backoff and
// client-identity rotation; callers only see the final body or error.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// SiteStrategy encapsulates one site's extraction rules: which listing links
// are replay articles, and where an article page hides its video source.
type SiteStrategy interface {
	Name() string
	FindArticles(pageURL string, body []byte) ([]domain.Candidate, error)
	FindSource(body []byte) (string, bool)
}

// Retriever transfers a media source to a local path, resuming a partial
// output at the same path when one exists.
type Retriever interface {
	Retrieve(ctx context.Context, sourceURL, outputPath string) domain.RetrievalOutcome
}

// LinkLedger is the sole source of truth for which article links have been
// seen and handled, independent of filesystem state.
type LinkLedger interface {
	RecordIfNew(url, title string) bool
	MarkProcessed(url string)
}

// DownloadLedger records completed downloads for retention bookkeeping.
type DownloadLedger interface {
	Add(filename string, record domain.DownloadRecord)
	Remove(filename string)
}

// Scheduler controls when polling cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
