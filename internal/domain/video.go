package domain

import "time"

// Candidate is a (title, URL) pair discovered on the site's listing page,
// not yet confirmed to contain a playable video.
type Candidate struct {
	Title string
	URL   string
}

// LinkRecord tracks an article link across polling cycles. Records are keyed
// by canonical article URL in the link ledger; the ID exists so that two
// titles sanitizing to the same output filename stay distinguishable in logs.
type LinkRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	DiscoveredAt time.Time `json:"discovered_date"`
	Processed    bool      `json:"processed"`
}

// DownloadRecord describes a completed retrieval, keyed by output filename
// in the download ledger.
type DownloadRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SourceURL    string    `json:"source_url"`
	SizeBytes    int64     `json:"size_bytes"`
	DownloadedAt time.Time `json:"downloaded_date"`
}

// OutcomeKind classifies how a retrieval concluded.
type OutcomeKind int

const (
	RetrieveSuccess OutcomeKind = iota
	RetrieveFailure
	RetrieveTimeout
)

// RetrievalOutcome is the tagged result of one retriever invocation.
// Diagnostics carries captured tool output on failure.
type RetrievalOutcome struct {
	Kind        OutcomeKind
	Diagnostics string
}

func (k OutcomeKind) String() string {
	switch k {
	case RetrieveSuccess:
		return "success"
	case RetrieveTimeout:
		return "timeout"
	default:
		return "failure"
	}
}
