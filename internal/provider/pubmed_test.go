package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/faults"
)

// pubmedServer fakes the esearch/esummary flow. summaryStatus lets a test
// force esummary failures; pmids drives the esearch ID list.
type pubmedServer struct {
	pmids         []string
	summaryStatus int
	esearchCalls  int
	esummaryCalls int
	esummaryIDs   []string
}

func (s *pubmedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			s.esearchCalls++
			json.NewEncoder(w).Encode(map[string]any{
				"esearchresult": map[string]any{
					"count":  fmt.Sprintf("%d", len(s.pmids)),
					"idlist": s.pmids,
				},
			})
		case strings.Contains(r.URL.Path, "esummary"):
			s.esummaryCalls++
			s.esummaryIDs = append(s.esummaryIDs, r.URL.Query().Get("id"))
			if s.summaryStatus != 0 {
				w.WriteHeader(s.summaryStatus)
				return
			}
			result := make(map[string]any)
			for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
				result[id] = map[string]any{
					"title":           "Article " + id,
					"fulljournalname": "Journal of Testing",
					"pubdate":         "2024 Jan 15",
					"authors": []map[string]string{
						{"name": "Smith J"}, {"name": "Doe A"},
						{"name": "Lee K"}, {"name": "Park M"},
					},
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"result": result})
		default:
			http.NotFound(w, r)
		}
	}
}

func pubmedTestSetup(t *testing.T, s *pubmedServer) *PubMedProvider {
	t.Helper()
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)

	orig := pubmedAPIBase
	pubmedAPIBase = srv.URL
	t.Cleanup(func() { pubmedAPIBase = orig })

	origBase, origJitter := pubmedRetryBase, pubmedRetryJitter
	pubmedRetryBase, pubmedRetryJitter = time.Millisecond, 0
	t.Cleanup(func() { pubmedRetryBase, pubmedRetryJitter = origBase, origJitter })

	return &PubMedProvider{Client: srv.Client(), Email: "dev@example.org"}
}

func TestPubMedSearch(t *testing.T) {
	s := &pubmedServer{pmids: []string{"100", "200", "300"}}
	p := pubmedTestSetup(t, s)

	page, err := p.Search(context.Background(), "hypertension", Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, s.esearchCalls)
	assert.Equal(t, 1, s.esummaryCalls, "three PMIDs fit one batch")
	assert.Equal(t, 3, page.TotalResults)
	require.Len(t, page.Results, 3)

	r := page.Results[0]
	assert.Equal(t, "Article 100", r.Name)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/100/", r.URL)
	assert.Equal(t, "100", r.PMID)
	assert.True(t, r.IsPubMed)
	assert.True(t, strings.HasPrefix(r.ID, "pubmed-"))
	assert.Equal(t, "Smith J, Doe A, Lee K et al. Journal of Testing. Published: 2024 Jan 15", r.Snippet)
	assert.Equal(t, []string{"Smith J", "Doe A", "Lee K et al."}, r.Authors)
}

func TestPubMedSearchBatching(t *testing.T) {
	pmids := make([]string, 12)
	for i := range pmids {
		pmids[i] = fmt.Sprintf("%d", 1000+i)
	}
	s := &pubmedServer{pmids: pmids}
	p := pubmedTestSetup(t, s)

	page, err := p.Search(context.Background(), "hypertension", Filters{Page: 1, PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, 3, s.esummaryCalls, "12 PMIDs split into batches of 5")
	assert.Len(t, page.Results, 12)

	// Each batch carries at most pubmedBatchSize IDs.
	for _, ids := range s.esummaryIDs {
		assert.LessOrEqual(t, len(strings.Split(ids, ",")), pubmedBatchSize)
	}
}

func TestPubMedSearchFailedBatchSkipped(t *testing.T) {
	s := &pubmedServer{pmids: []string{"1", "2", "3"}, summaryStatus: http.StatusInternalServerError}
	p := pubmedTestSetup(t, s)
	var log bytes.Buffer
	p.Log = &log

	page, err := p.Search(context.Background(), "hypertension", Filters{Page: 1, PageSize: 10})
	require.NoError(t, err, "a failed batch degrades, it does not fail the search")

	assert.Empty(t, page.Results)
	assert.Equal(t, 3, page.TotalResults, "esearch total survives summary failures")
	assert.Equal(t, pubmedBatchRetries, s.esummaryCalls, "batch retried before being skipped")
	assert.Contains(t, log.String(), "warning: pubmed batch 1 failed")
}

func TestPubMedSearchShortQuery(t *testing.T) {
	p := &PubMedProvider{Client: http.DefaultClient}
	_, err := p.Search(context.Background(), "a", Filters{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Equal(t, faults.Validation, faults.KindOf(err))
}

func TestPubMedSearchNoMatches(t *testing.T) {
	s := &pubmedServer{pmids: nil}
	p := pubmedTestSetup(t, s)

	page, err := p.Search(context.Background(), "hypertension", Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, 0, s.esummaryCalls, "no summary calls without PMIDs")
}
