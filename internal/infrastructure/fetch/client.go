// Package fetch implements the HTTP boundary of discovery: page retrieval
// with client-identity rotation, relaxed TLS verification, and bounded
// exponential-backoff retries on transient failures.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const requestTimeout = 30 * time.Second

// userAgents is the fixed identity pool rotated across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// transientStatuses are retried with backoff; everything else non-2xx is
// permanent for the current cycle.
var transientStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

// Client fetches pages on behalf of discovery. Fields may be adjusted
// before first use; the zero values of a NewClient result match the
// production defaults.
type Client struct {
	// HTTP is the underlying client. The default relaxes TLS verification;
	// some replay sites serve revocable or mismatched certificates.
	HTTP *http.Client

	// MaxRetries bounds retry attempts after the initial request.
	MaxRetries uint64

	// RetryInterval is the initial backoff delay, doubled per attempt.
	RetryInterval time.Duration

	// PolitenessMin/Max bound the randomized delay before each request.
	PolitenessMin time.Duration
	PolitenessMax time.Duration

	logger *slog.Logger
}

// NewClient builds a fetcher with the production defaults.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				// Replay sites routinely serve broken or revoked certificates.
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		MaxRetries:    5,
		RetryInterval: time.Second,
		PolitenessMin: time.Second,
		PolitenessMax: 3 * time.Second,
		logger:        logger,
	}
}

// Get fetches a URL, rotating the User-Agent per request and retrying
// transient statuses and network errors with exponential backoff.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.politenessDelay(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("request %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: url}
			if transientStatuses[resp.StatusCode] {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", url, err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.MaxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		if c.logger != nil {
			c.logger.Warn("retrying fetch", "url", url, "wait", wait, "error", err)
		}
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryInterval
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// politenessDelay sleeps for a random interval before the request to avoid
// hammering the site.
func (c *Client) politenessDelay(ctx context.Context) error {
	if c.PolitenessMax <= 0 {
		return nil
	}
	span := c.PolitenessMax - c.PolitenessMin
	delay := c.PolitenessMin
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
