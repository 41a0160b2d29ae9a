// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// exaAPIBase is the Exa search endpoint. Declared as a var so tests can
// substitute an httptest server.
var exaAPIBase = "https://api.exa.ai/search"

// exaSnippetChars bounds the text excerpt requested per result.
const exaSnippetChars = 500

// ExaProvider queries the Exa neural search API (R1.5).
type ExaProvider struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// ID returns the provider identifier.
func (p *ExaProvider) ID() ID { return Exa }

// exaRecency maps the abstract time window to Exa's recency values. Exa's
// "months" spans roughly half a year and "years" several years, so both
// five and ten year windows land on "years"; "all" omits the filter.
func exaRecency(w TimeWindow) string {
	switch w {
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	case WindowMonth:
		return "month"
	case WindowSixMonths:
		return "months"
	case WindowYear:
		return "year"
	case WindowFiveYears, WindowTenYears:
		return "years"
	default:
		return ""
	}
}

// Search queries the Exa API for one logical page.
func (p *ExaProvider) Search(ctx context.Context, query string, f Filters) (Page, error) {
	if p.APIKey == "" {
		return Page{}, faults.New(faults.Misconfigured, "exa search requires exa-api-key")
	}

	body := map[string]any{
		"query":      query,
		"type":       "auto",
		"numResults": f.PageSize,
		"offset":     f.Offset(),
		"contents": map[string]any{
			"text": map[string]any{"maxCharacters": exaSnippetChars},
		},
	}
	if r := exaRecency(f.Window); r != "" {
		body["recency"] = r
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Page{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaAPIBase, bytes.NewReader(payload))
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("exa API request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Page{}, faults.New(faults.RateLimited, "exa rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return Page{}, faults.New(faults.Upstream, "exa API returned HTTP %d", resp.StatusCode)
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return Page{}, faults.Wrap(faults.Upstream, fmt.Errorf("parsing exa response: %w", err))
	}

	results := make([]types.SearchResult, 0, len(er.Results))
	for _, item := range er.Results {
		id := item.ID
		if id == "" {
			id = item.URL
		}
		name := item.Title
		if name == "" {
			name = "Untitled"
		}
		results = append(results, types.SearchResult{
			ID:      id,
			URL:     item.URL,
			Name:    name,
			Snippet: item.Text,
			Source:  string(Exa),
		})
	}

	total := er.TotalCount
	if total == 0 {
		total = len(er.Results)
	}
	return Page{Results: results, TotalResults: total}, nil
}

// Exa API JSON structures.
type exaResponse struct {
	TotalCount int         `json:"totalCount"`
	Results    []exaResult `json:"results"`
}

type exaResult struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}
