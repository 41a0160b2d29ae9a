// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans queries out to providers and merges the responses
// into one paginated, deduplicated result set.
// Implements: prd002-aggregation (R1-R4);
//
//	docs/ARCHITECTURE.md § Aggregation.
package aggregate

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/pkg/types"
)

const defaultFetchAllCap = 100

// Aggregator merges results across providers for one search session.
type Aggregator struct {
	registry provider.Registry
	pageSize int
	cap      int

	// log receives fan-out warnings; defaults to io.Discard.
	log io.Writer
}

// New builds an Aggregator over the given registry. pageSize and cap fall
// back to 10 and 100 when unset.
func New(registry provider.Registry, cfg types.SearchConfig, log io.Writer) *Aggregator {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	capAll := cfg.FetchAllCap
	if capAll <= 0 {
		capAll = defaultFetchAllCap
	}
	if log == nil {
		log = io.Discard
	}
	return &Aggregator{registry: registry, pageSize: pageSize, cap: capAll, log: log}
}

// PageSize returns the aggregator's fixed logical page size.
func (a *Aggregator) PageSize() int { return a.pageSize }

// Aggregate queries the requested providers for one logical page. The
// first provider is the primary: its results lead the merged list and a
// failure of the primary fails the call, while secondary failures only
// log a warning. Combined TotalResults is the sum of per-provider totals,
// a documented approximation rather than a deduplicated count (R1.3).
func (a *Aggregator) Aggregate(ctx context.Context, query string, f provider.Filters, ids []provider.ID) (types.AggregatedPage, error) {
	if query == "" {
		return types.AggregatedPage{}, faults.New(faults.Validation, "query is required")
	}
	if len(ids) == 0 {
		return types.AggregatedPage{}, faults.New(faults.Validation, "at least one provider is required")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = a.pageSize
	}

	// The sentinel query short-circuits every provider (R1.5).
	if provider.IsTestQuery(query) {
		results := stampIDs(provider.TestResults(), f.Page)
		return types.AggregatedPage{
			Results: results,
			Pagination: types.PaginationState{
				CurrentPage:  f.Page,
				TotalPages:   1,
				TotalResults: len(results),
			},
		}, nil
	}

	pages, err := a.fanOut(ctx, query, f, ids)
	if err != nil {
		return types.AggregatedPage{}, err
	}

	// Merge by concatenation in provider-priority order (R1.2).
	var merged []types.SearchResult
	total := 0
	for _, p := range pages {
		merged = append(merged, p.Results...)
		total += p.TotalResults
	}
	merged = stampIDs(merged, f.Page)

	return types.AggregatedPage{
		Results: merged,
		Pagination: types.PaginationState{
			CurrentPage:  f.Page,
			TotalPages:   totalPages(total, f.PageSize),
			TotalResults: total,
		},
	}, nil
}

// fanOut runs the provider calls concurrently and joins, preserving the
// requested priority order in the returned slice. Completion order is
// unspecified; only the merge order is deterministic.
func (a *Aggregator) fanOut(ctx context.Context, query string, f provider.Filters, ids []provider.ID) ([]provider.Page, error) {
	pages := make([]provider.Page, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		p, err := a.registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			pages[i], errs[i] = p.Search(ctx, query, f)
		}(i, p)
	}
	wg.Wait()

	// The primary provider must succeed; secondary providers degrade to a
	// logged warning (R1.6).
	if errs[0] != nil {
		return nil, fmt.Errorf("provider %s: %w", ids[0], errs[0])
	}
	for i := 1; i < len(errs); i++ {
		if errs[i] != nil {
			fmt.Fprintf(a.log, "warning: provider %s failed: %v\n", ids[i], errs[i])
			pages[i] = provider.Page{}
		}
	}
	return pages, nil
}

// FetchAll paginates the primary provider up to the configured cap. Page 1
// is fetched first to learn the total page count; the remaining pages are
// fetched concurrently and joined in page order. An empty page 1 stops
// immediately with no further requests, and any short page marks
// exhaustion (R4.1, R4.3).
func (a *Aggregator) FetchAll(ctx context.Context, query string, window provider.TimeWindow, id provider.ID) (types.AggregatedPage, error) {
	p, err := a.registry.Lookup(id)
	if err != nil {
		return types.AggregatedPage{}, err
	}

	first, err := p.Search(ctx, query, provider.Filters{Window: window, Page: 1, PageSize: a.pageSize})
	if err != nil {
		return types.AggregatedPage{}, fmt.Errorf("provider %s: %w", id, err)
	}
	if len(first.Results) == 0 {
		return types.AggregatedPage{
			Results:    []types.SearchResult{},
			Pagination: types.PaginationState{CurrentPage: 1},
		}, nil
	}

	all := stampIDs(first.Results, 1)

	wantPages := int(math.Ceil(float64(a.cap) / float64(a.pageSize)))
	avail := totalPages(first.TotalResults, a.pageSize)
	if avail > 0 && avail < wantPages {
		wantPages = avail
	}

	// Page 1 coming back short means the result space is exhausted.
	if len(first.Results) < a.pageSize {
		wantPages = 1
	}

	if wantPages > 1 {
		extra := make([][]types.SearchResult, wantPages-1)
		errs := make([]error, wantPages-1)

		var wg sync.WaitGroup
		for page := 2; page <= wantPages; page++ {
			wg.Add(1)
			go func(page int) {
				defer wg.Done()
				res, err := p.Search(ctx, query, provider.Filters{Window: window, Page: page, PageSize: a.pageSize})
				if err != nil {
					errs[page-2] = err
					return
				}
				extra[page-2] = stampIDs(res.Results, page)
			}(page)
		}
		wg.Wait()

		for i, pageResults := range extra {
			if errs[i] != nil {
				fmt.Fprintf(a.log, "warning: page %d fetch failed: %v\n", i+2, errs[i])
				continue
			}
			all = append(all, pageResults...)
			// A short page signals exhaustion; later pages would be empty.
			if len(pageResults) < a.pageSize {
				break
			}
		}
	}

	if len(all) > a.cap {
		all = all[:a.cap]
	}

	return types.AggregatedPage{
		Results: all,
		Pagination: types.PaginationState{
			CurrentPage:  1,
			TotalPages:   totalPages(len(all), a.pageSize),
			TotalResults: len(all),
		},
	}, nil
}

// MergeRetained folds freshly fetched results into the retained set.
// Custom URLs and currently selected results are preserved verbatim; new
// results that duplicate a retained URL are dropped. Merging the same
// page twice is idempotent (R2.1, R2.2).
func MergeRetained(existing, fresh []types.SearchResult, selected map[string]bool) []types.SearchResult {
	var kept []types.SearchResult
	seen := make(map[string]bool)
	for _, r := range existing {
		if r.IsCustom || selected[r.ID] {
			kept = append(kept, r)
			seen[r.URL] = true
		}
	}
	for _, r := range fresh {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		kept = append(kept, r)
	}
	return kept
}

// stampIDs rewrites each result ID into the synthetic composite form
// search-page<N>-<idx>-<native>, unique across repeated fetches of
// overlapping pages (R3.1). Custom results keep their caller-assigned ID.
func stampIDs(results []types.SearchResult, page int) []types.SearchResult {
	stamped := make([]types.SearchResult, len(results))
	for i, r := range results {
		if !r.IsCustom {
			native := r.ID
			if native == "" {
				native = r.URL
			}
			r.ID = fmt.Sprintf("search-page%d-%d-%s", page, i, native)
		}
		stamped[i] = r
	}
	return stamped
}

// totalPages computes ceil(total/pageSize); zero results mean zero pages.
func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
