// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"sort"
	"sync"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// PageFetcher retrieves one absent page from the network. The store calls
// it during navigation when the page is not yet materialized.
type PageFetcher func(ctx context.Context, page int) ([]types.SearchResult, int, error)

// PageStore owns every result page of one search session (query + filter
// combination). Pages are indexed 1-based. The store is replaced wholesale
// on a new query and individual pages are overwritten on re-prioritization.
// Per prd002-aggregation R4.1-R4.4.
//
// The mutex only guards against torn reads during the wholesale page swap
// in Reprioritize; the pipeline itself runs one logical flow at a time.
type PageStore struct {
	mu          sync.RWMutex
	pages       map[int][]types.SearchResult
	pageSize    int
	state       types.PaginationState
	prioritized bool
}

// NewPageStore builds an empty store with the given fixed page size.
func NewPageStore(pageSize int) *PageStore {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &PageStore{pages: make(map[int][]types.SearchResult), pageSize: pageSize}
}

// Reset discards every page and returns the store to unprioritized mode,
// ready for a new query.
func (s *PageStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int][]types.SearchResult)
	s.state = types.PaginationState{}
	s.prioritized = false
}

// Page returns the stored page n, or ok=false when it is absent.
func (s *PageStore) Page(n int) ([]types.SearchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[n]
	return p, ok
}

// PutPage inserts or overwrites page n and recomputes the aggregate
// counts. reportedTotal is the provider's total match estimate; the
// derived total never drops below the number of locally held results.
func (s *PageStore) PutPage(n int, page []types.SearchResult, reportedTotal int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[n] = page
	s.recomputeLocked(reportedTotal)
	s.state.CurrentPage = n
}

// State returns the derived pagination bookkeeping.
func (s *PageStore) State() types.PaginationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Prioritized reports whether every page is already materialized from a
// re-prioritization pass.
func (s *PageStore) Prioritized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prioritized
}

// Reprioritize redistributes the globally re-ranked result list across
// fixed-size pages, replacing all existing pages in one step so a reader
// never observes a mix of old and new page assignments. Custom results
// are pinned to the front of page 1 regardless of score (R4.2). The store
// enters prioritized mode: every page is materialized and out-of-range
// navigation becomes a user error.
func (s *PageStore) Reprioritize(ranked []types.SearchResult) {
	// Pinned results lead, then everything else by descending score.
	var pinned, rest []types.SearchResult
	for _, r := range ranked {
		if r.IsCustom {
			pinned = append(pinned, r)
		} else {
			rest = append(rest, r)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Score > rest[j].Score })
	ordered := append(pinned, rest...)

	fresh := make(map[int][]types.SearchResult)
	for i := 0; i < len(ordered); i += s.pageSize {
		end := i + s.pageSize
		if end > len(ordered) {
			end = len(ordered)
		}
		fresh[i/s.pageSize+1] = ordered[i:end]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = fresh
	s.state = types.PaginationState{
		CurrentPage:  1,
		TotalPages:   totalPages(len(ordered), s.pageSize),
		TotalResults: len(ordered),
	}
	s.prioritized = true
}

// Navigate moves to page n. A page already present is returned directly
// with no network call. An absent page triggers fetch, unless the store is
// prioritized, in which case every page is guaranteed materialized and the
// request is rejected as a user error (R4.4).
func (s *PageStore) Navigate(ctx context.Context, n int, fetch PageFetcher) ([]types.SearchResult, error) {
	if n < 1 {
		return nil, faults.New(faults.Validation, "page number must be >= 1")
	}

	if page, ok := s.Page(n); ok && len(page) > 0 {
		s.mu.Lock()
		s.state.CurrentPage = n
		s.mu.Unlock()
		return page, nil
	}

	if s.Prioritized() {
		return nil, faults.New(faults.Validation, "cannot navigate beyond prioritized results")
	}
	if fetch == nil {
		return nil, faults.New(faults.Validation, "page %d is not materialized", n)
	}

	results, reportedTotal, err := fetch(ctx, n)
	if err != nil {
		return nil, err
	}
	s.PutPage(n, results, reportedTotal)
	return results, nil
}

// recomputeLocked rederives the aggregate counts from the held pages.
// Callers hold s.mu.
func (s *PageStore) recomputeLocked(reportedTotal int) {
	held := 0
	for _, p := range s.pages {
		held += len(p)
	}
	total := reportedTotal
	if held > total {
		total = held
	}
	s.state.TotalResults = total
	s.state.TotalPages = totalPages(total, s.pageSize)
}
