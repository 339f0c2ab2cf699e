// Package parser implements site extraction strategies on top of goquery.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
)

const minTitleLen = 16

// replayKeywords mark listing-link texts that look like game replays.
var replayKeywords = []string{
	"vs", "v.", "game", "replay", "nba", "basketball", "football", "soccer",
	"hockey", "baseball", "highlights", "final", "match", "championship",
}

// navTexts are listing-link texts that are never articles.
var navTexts = []string{
	"read more", "continue reading", "home", "about", "contact",
	"privacy", "terms", "subscribe", "follow", "share",
}

// postClassTokens identify listing containers that hold article links.
var postClassTokens = []string{"post", "entry", "article", "content"}

// videoHosts are recognized hosting endpoints for resolved sources, in the
// order they were observed on replay sites.
var videoHosts = []string{
	"ok.ru", "youtube.com", "youtu.be", "vimeo.com", "dailymotion.com", "streamable.com",
}

// ReplayScanner extracts replay-article candidates from a listing page and
// resolves the best video-source URL from an article page.
type ReplayScanner struct {
	siteHost string
	logger   *slog.Logger
}

var _ ports.SiteStrategy = (*ReplayScanner)(nil)

// NewReplayScanner binds the strategy to the configured site; candidates on
// foreign hosts are discarded.
func NewReplayScanner(siteURL string, logger *slog.Logger) (*ReplayScanner, error) {
	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid site url %q", siteURL)
	}
	return &ReplayScanner{siteHost: canonicalHost(parsed.Host), logger: logger}, nil
}

// Name identifies the strategy inside the registry.
func (s *ReplayScanner) Name() string {
	return "replays"
}

// FindArticles walks the listing page's post containers and returns the
// deduplicated replay-article candidates, in first-seen order.
func (s *ReplayScanner) FindArticles(pageURL string, body []byte) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	containers := doc.Find("article, div").FilterFunction(func(i int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		return containsAnyToken(strings.ToLower(class), postClassTokens)
	})
	if containers.Length() == 0 {
		containers = doc.Find("main, #main, #content")
	}
	if containers.Length() == 0 {
		containers = doc.Selection
	}

	var (
		candidates []domain.Candidate
		seen       = map[string]struct{}{}
	)
	containers.Find("a[href]").Each(func(i int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		text := strings.TrimSpace(link.Text())
		if href == "" || len(text) < minTitleLen {
			return
		}

		lower := strings.ToLower(text)
		if containsAny(lower, navTexts) {
			return
		}
		if !containsAny(lower, replayKeywords) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref)
		if canonicalHost(full.Host) != s.siteHost {
			return
		}

		u := full.String()
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		candidates = append(candidates, domain.Candidate{Title: text, URL: u})
	})

	if s.logger != nil {
		s.logger.Info("listing scan complete", "candidates", len(candidates))
	}
	return candidates, nil
}

// FindSource collects every hosted-video URL on an article page (anchors,
// iframes, script bodies) and returns the preferred one: an ok.ru /video/
// link first, then YouTube, then the first found.
func (s *ReplayScanner) FindSource(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		if href, _ := sel.Attr("href"); hostedVideo(href) {
			links = append(links, href)
		}
	})
	doc.Find("iframe[src]").Each(func(i int, sel *goquery.Selection) {
		if src, _ := sel.Attr("src"); hostedVideo(src) {
			links = append(links, src)
		}
	})
	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		links = append(links, scriptVideoLinks(sel.Text())...)
	})

	if len(links) == 0 {
		return "", false
	}

	for _, link := range links {
		if strings.Contains(link, "ok.ru") && strings.Contains(link, "/video/") {
			return link, true
		}
	}
	for _, link := range links {
		if strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be") {
			return link, true
		}
	}
	return links[0], true
}

func hostedVideo(u string) bool {
	for _, host := range videoHosts {
		if strings.Contains(u, host) {
			return true
		}
	}
	return false
}

var scriptLinkExprs = func() []*regexp.Regexp {
	exprs := make([]*regexp.Regexp, 0, len(videoHosts))
	for _, host := range videoHosts {
		exprs = append(exprs, regexp.MustCompile(`https?://[^"']*`+regexp.QuoteMeta(host)+`[^"']*`))
	}
	return exprs
}()

// scriptVideoLinks pulls hosted-video URLs out of inline script text.
func scriptVideoLinks(text string) []string {
	if text == "" {
		return nil
	}
	var links []string
	for _, expr := range scriptLinkExprs {
		links = append(links, expr.FindAllString(text, -1)...)
	}
	return links
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// containsAnyToken matches needles against a class attribute's value.
func containsAnyToken(class string, needles []string) bool {
	if class == "" {
		return false
	}
	return containsAny(class, needles)
}

func canonicalHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
