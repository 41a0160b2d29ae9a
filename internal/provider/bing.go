// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// bingAPIBase is the Bing Web Search endpoint. Declared as a var so tests
// can substitute an httptest server.
var bingAPIBase = "https://api.bing.microsoft.com/v7.0/search"

// BingProvider queries the Bing Web Search API (R1.4).
type BingProvider struct {
	Client    *http.Client
	APIKey    string
	Market    string
	UserAgent string
}

// ID returns the provider identifier.
func (p *BingProvider) ID() ID { return Bing }

// bingFreshness maps the abstract time window to Bing's freshness values.
// Bing offers Day, Week, and Month; six and twelve months round up to the
// date-range form (coarser-or-equal), and multi-year windows have no
// representation at all, so the filter is omitted rather than narrowed.
func bingFreshness(w TimeWindow) string {
	switch w {
	case WindowDay:
		return "Day"
	case WindowWeek:
		return "Week"
	case WindowMonth:
		return "Month"
	default:
		// 6months, 12months, 5years, 10years, all: nothing coarse enough.
		return ""
	}
}

// Search queries the Bing API for one logical page.
func (p *BingProvider) Search(ctx context.Context, query string, f Filters) (Page, error) {
	if p.APIKey == "" {
		return Page{}, faults.New(faults.Misconfigured, "bing search requires bing-api-key")
	}

	params := url.Values{
		"q":               {query},
		"count":           {strconv.Itoa(f.PageSize)},
		"offset":          {strconv.Itoa(f.Offset())},
		"mkt":             {p.Market},
		"safeSearch":      {"moderate"},
		"textFormat":      {"HTML"},
		"textDecorations": {"true"},
	}
	if fr := bingFreshness(f.Window); fr != "" {
		params.Set("freshness", fr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bingAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.APIKey)
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("bing API request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		// Bing reports an exhausted monthly quota as 403.
		return Page{}, faults.New(faults.RateLimited, "bing monthly search quota exceeded")
	case resp.StatusCode == http.StatusTooManyRequests:
		return Page{}, faults.New(faults.RateLimited, "bing rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return Page{}, faults.New(faults.Upstream, "bing API returned HTTP %d", resp.StatusCode)
	}

	var br bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("parsing bing response: %w", err))
	}

	results := make([]types.SearchResult, 0, len(br.WebPages.Value))
	for _, item := range br.WebPages.Value {
		id := item.ID
		if id == "" {
			id = item.URL
		}
		results = append(results, types.SearchResult{
			ID:      id,
			URL:     item.URL,
			Name:    item.Name,
			Snippet: item.Snippet,
			Source:  string(Bing),
		})
	}

	return Page{Results: results, TotalResults: br.WebPages.TotalEstimatedMatches}, nil
}

// Bing Web Search JSON structures.
type bingResponse struct {
	WebPages struct {
		TotalEstimatedMatches int        `json:"totalEstimatedMatches"`
		Value                 []bingItem `json:"value"`
	} `json:"webPages"`
}

type bingItem struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}
