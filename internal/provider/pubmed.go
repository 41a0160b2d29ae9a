// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities endpoint prefix. Declared as a var
// so tests can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	// pubmedBatchSize bounds each esummary call. NCBI throttles per second,
	// so summaries are fetched in small batches with a delay in between.
	pubmedBatchSize = 5

	// pubmedBatchDelay is the pause between consecutive esummary batches.
	pubmedBatchDelay = 500 * time.Millisecond

	// pubmedBatchRetries bounds retry attempts per batch.
	pubmedBatchRetries = 3

	pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov"
)

// pubmedRetryBase and pubmedRetryJitter shape the per-batch backoff. Vars
// so tests can shrink them.
var (
	pubmedRetryBase   = 500 * time.Millisecond
	pubmedRetryJitter = 250 * time.Millisecond
)

// PubMedProvider queries PubMed through the two-step esearch/esummary flow
// (R4.1-R4.5). Free-text queries are first reduced to a controlled
// vocabulary expression; see BuildPubMedQuery.
type PubMedProvider struct {
	Client    *http.Client
	APIKey    string
	Email     string
	UserAgent string

	// Log receives batch progress and per-batch failure warnings.
	// Defaults to io.Discard.
	Log io.Writer
}

// ID returns the provider identifier.
func (p *PubMedProvider) ID() ID { return PubMed }

// pubmedRelDays maps the abstract time window to E-utilities' reldate
// parameter (days before today). Every window has an exact day count, so
// no coarsening applies; 0 means no filter.
func pubmedRelDays(w TimeWindow) int {
	switch w {
	case WindowDay:
		return 1
	case WindowWeek:
		return 7
	case WindowMonth:
		return 30
	case WindowSixMonths:
		return 182
	case WindowYear:
		return 365
	case WindowFiveYears:
		return 1825
	case WindowTenYears:
		return 3650
	default:
		return 0
	}
}

// Search resolves PMIDs via esearch, then gathers article summaries in
// batches of pubmedBatchSize. A failed batch is logged and skipped; the
// search returns whatever accumulated (R4.4).
func (p *PubMedProvider) Search(ctx context.Context, query string, f Filters) (Page, error) {
	log := p.Log
	if log == nil {
		log = io.Discard
	}

	term := BuildPubMedQuery(query)
	if len(strings.TrimSpace(term)) < 2 {
		return Page{}, faults.New(faults.Validation, "query too short for pubmed search")
	}

	pmids, total, err := p.esearch(ctx, term, f)
	if err != nil {
		return Page{}, err
	}
	fmt.Fprintf(log, "pubmed: %d PMIDs for %q\n", len(pmids), term)
	if len(pmids) == 0 {
		return Page{}, nil
	}

	var results []types.SearchResult
	for start := 0; start < len(pmids); start += pubmedBatchSize {
		end := start + pubmedBatchSize
		if end > len(pmids) {
			end = len(pmids)
		}
		batch := pmids[start:end]

		summaries, err := p.esummaryBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return Page{}, ctx.Err()
			}
			fmt.Fprintf(log, "warning: pubmed batch %d failed: %v\n", start/pubmedBatchSize+1, err)
			continue
		}
		results = append(results, summaries...)

		if end < len(pmids) {
			if err := httputil.Sleep(ctx, pubmedBatchDelay); err != nil {
				return Page{}, err
			}
		}
	}

	return Page{Results: results, TotalResults: total}, nil
}

// esearch returns the PMID list for one logical page plus the total match count.
func (p *PubMedProvider) esearch(ctx context.Context, term string, f Filters) ([]string, int, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {term},
		"retmax":   {strconv.Itoa(f.PageSize)},
		"retstart": {strconv.Itoa(f.Offset())},
		"retmode":  {"json"},
	}
	if days := pubmedRelDays(f.Window); days > 0 {
		params.Set("datetype", "pdat")
		params.Set("reldate", strconv.Itoa(days))
	}
	p.identify(params)

	var sr pubmedSearchResponse
	if err := p.getJSON(ctx, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), &sr); err != nil {
		return nil, 0, err
	}

	total, _ := strconv.Atoi(sr.ESearchResult.Count)
	return sr.ESearchResult.IDList, total, nil
}

// esummaryBatch fetches summaries for one PMID batch, retrying with
// jittered exponential backoff before giving up on the batch.
func (p *PubMedProvider) esummaryBatch(ctx context.Context, pmids []string) ([]types.SearchResult, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	p.identify(params)
	reqURL := pubmedAPIBase + "/esummary.fcgi?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < pubmedBatchRetries; attempt++ {
		if attempt > 0 {
			if err := httputil.Sleep(ctx, httputil.BackoffDelay(attempt-1, pubmedRetryBase, pubmedRetryJitter)); err != nil {
				return nil, err
			}
		}

		var sum pubmedSummaryResponse
		if err := p.getJSON(ctx, reqURL, &sum); err != nil {
			lastErr = err
			continue
		}
		return p.summaryResults(pmids, sum), nil
	}
	return nil, lastErr
}

// summaryResults converts one esummary response into normalized results.
func (p *PubMedProvider) summaryResults(pmids []string, sum pubmedSummaryResponse) []types.SearchResult {
	var results []types.SearchResult
	for _, pmid := range pmids {
		raw, ok := sum.Result[pmid]
		if !ok {
			continue
		}
		var article pubmedArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			continue
		}

		title := article.Title
		if title == "" {
			title = "No title available"
		}

		// Snippet is authors, journal, and publication date (R4.3).
		authorText := formatPubMedAuthors(article.Authors)
		journal := article.FullJournalName
		if journal == "" {
			journal = article.Source
		}
		var parts []string
		if authorText != "" {
			parts = append(parts, authorText+".")
		}
		if journal != "" {
			parts = append(parts, journal+".")
		}
		if article.PubDate != "" {
			parts = append(parts, "Published: "+article.PubDate)
		}

		var authors []string
		if authorText != "" {
			authors = strings.Split(authorText, ", ")
		}

		results = append(results, types.SearchResult{
			ID:       "pubmed-" + uuid.NewString(),
			URL:      fmt.Sprintf("%s/%s/", pubmedArticleBase, pmid),
			Name:     title,
			Snippet:  strings.Join(parts, " "),
			Source:   string(PubMed),
			IsPubMed: true,
			Authors:  authors,
			Journal:  journal,
			PubDate:  article.PubDate,
			PMID:     pmid,
		})
	}
	return results
}

// formatPubMedAuthors renders up to three author names, appending "et al."
// when the list is longer.
func formatPubMedAuthors(authors []pubmedAuthor) string {
	if len(authors) == 0 {
		return ""
	}
	n := len(authors)
	if n > 3 {
		n = 3
	}
	names := make([]string, 0, n)
	for _, a := range authors[:n] {
		names = append(names, a.Name)
	}
	text := strings.Join(names, ", ")
	if len(authors) > 3 {
		text += " et al."
	}
	return text
}

// identify attaches the NCBI courtesy identification parameters.
func (p *PubMedProvider) identify(params url.Values) {
	if p.APIKey != "" {
		params.Set("api_key", p.APIKey)
	}
	if p.Email != "" {
		params.Set("email", p.Email)
	}
	params.Set("tool", "deep-research")
}

// getJSON performs one GET and decodes the JSON body into out.
func (p *PubMedProvider) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return faults.Wrap(faults.Upstream, fmt.Errorf("pubmed API request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return faults.New(faults.RateLimited, "pubmed rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return faults.New(faults.Upstream, "pubmed API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return faults.Wrap(faults.Upstream, fmt.Errorf("parsing pubmed response: %w", err))
	}
	return nil
}

// NCBI E-utilities JSON structures.
type pubmedSearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// pubmedSummaryResponse keys articles by PMID, so the result object is
// decoded lazily per entry.
type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedArticle struct {
	Title           string         `json:"title"`
	Authors         []pubmedAuthor `json:"authors"`
	FullJournalName string         `json:"fulljournalname"`
	Source          string         `json:"source"`
	PubDate         string         `json:"pubdate"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}
