// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// googleAPIBase is the Google Custom Search endpoint. Declared as a var so
// tests can substitute an httptest server.
var googleAPIBase = "https://customsearch.googleapis.com/customsearch/v1"

// GoogleProvider queries the Google Custom Search API (R1.3).
type GoogleProvider struct {
	Client    *http.Client
	APIKey    string
	CX        string
	UserAgent string
}

// ID returns the provider identifier.
func (p *GoogleProvider) ID() ID { return Google }

// googleDateRestrict maps the abstract time window to Google's dateRestrict
// vocabulary ([dwmy][count]). Google covers every window exactly, so no
// coarsening is needed; "all" omits the parameter.
func googleDateRestrict(w TimeWindow) string {
	switch w {
	case WindowDay:
		return "d1"
	case WindowWeek:
		return "w1"
	case WindowMonth:
		return "m1"
	case WindowSixMonths:
		return "m6"
	case WindowYear:
		return "y1"
	case WindowFiveYears:
		return "y5"
	case WindowTenYears:
		return "y10"
	default:
		return ""
	}
}

// Search queries the Custom Search API for one logical page.
func (p *GoogleProvider) Search(ctx context.Context, query string, f Filters) (Page, error) {
	if p.APIKey == "" || p.CX == "" {
		return Page{}, faults.New(faults.Misconfigured, "google search requires google-search-api-key and google-search-cx")
	}

	// Google's start parameter is a 1-based result index.
	params := url.Values{
		"q":     {query},
		"key":   {p.APIKey},
		"cx":    {p.CX},
		"num":   {strconv.Itoa(f.PageSize)},
		"start": {strconv.Itoa(f.Offset() + 1)},
		"safe":  {"active"},
	}
	if dr := googleDateRestrict(f.Window); dr != "" {
		params.Set("dateRestrict", dr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("google API request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge googleError
		json.NewDecoder(resp.Body).Decode(&ge)
		if resp.StatusCode == http.StatusTooManyRequests ||
			strings.Contains(ge.Error.Message, "Quota exceeded") {
			return Page{}, faults.New(faults.RateLimited, "google daily search quota exceeded")
		}
		return Page{}, faults.New(faults.Upstream, "google API returned HTTP %d", resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("parsing google response: %w", err))
	}

	results := make([]types.SearchResult, 0, len(gr.Items))
	for _, item := range gr.Items {
		id := item.CacheID
		if id == "" {
			id = item.Link
		}
		results = append(results, types.SearchResult{
			ID:      id,
			URL:     item.Link,
			Name:    item.Title,
			Snippet: item.Snippet,
			Source:  string(Google),
		})
	}

	total, _ := strconv.Atoi(gr.SearchInformation.TotalResults)
	return Page{Results: results, TotalResults: total}, nil
}

// Google Custom Search JSON structures.
type googleResponse struct {
	Items             []googleItem `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

type googleItem struct {
	CacheID string `json:"cacheId"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type googleError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
