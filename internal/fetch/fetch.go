// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves full page content for selected search results
// and reduces HTML to analyzable plain text.
// Implements: prd005-fetch (R1-R3); docs/ARCHITECTURE.md § Acquisition.
package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultMaxContentBytes bounds extracted text per page so a single long
// document cannot crowd the analysis context.
const DefaultMaxContentBytes = 20000

// ContentFetcher retrieves the readable text of one web page.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher is the production ContentFetcher.
type HTTPFetcher struct {
	Client          *http.Client
	UserAgent       string
	MaxContentBytes int
}

// NewHTTPFetcher builds a fetcher from config, applying defaults.
func NewHTTPFetcher(cfg types.FetchConfig) *HTTPFetcher {
	maxBytes := cfg.MaxContentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	return &HTTPFetcher{
		Client:          &http.Client{Timeout: cfg.Timeout},
		UserAgent:       cfg.UserAgent,
		MaxContentBytes: maxBytes,
	}
}

// Fetch downloads the page and returns its extracted text, truncated to
// MaxContentBytes. A 429 response surfaces as a RateLimited fault so the
// caller can stop hammering the host; other non-200 statuses are Upstream
// faults.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", faults.New(faults.Validation, "url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.Upstream, fmt.Errorf("fetching %s: %w", url, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", faults.New(faults.RateLimited, "rate limited fetching %s", url)
	case resp.StatusCode != http.StatusOK:
		return "", faults.New(faults.Upstream, "HTTP %d from %s", resp.StatusCode, url)
	}

	// Read a bounded multiple of the text budget; markup overhead means
	// the usable text is much smaller than the raw document.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.MaxContentBytes)*10))
	if err != nil {
		return "", faults.Wrap(faults.Upstream, fmt.Errorf("reading %s: %w", url, err))
	}

	text := ExtractText(string(body))
	if len(text) > f.MaxContentBytes {
		text = text[:f.MaxContentBytes]
	}
	return text, nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// ExtractText strips markup from an HTML document: script and style blocks
// are removed wholesale, remaining tags become spaces, entities are
// decoded, and whitespace runs collapse to single spaces.
func ExtractText(doc string) string {
	text := scriptRe.ReplaceAllString(doc, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
