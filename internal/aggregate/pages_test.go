package aggregate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

func scoredResults(n int, base float64) []types.SearchResult {
	results := make([]types.SearchResult, n)
	for i := range results {
		results[i] = types.SearchResult{
			ID:    fmt.Sprintf("r-%d", i+1),
			URL:   fmt.Sprintf("https://r.example/%d", i+1),
			Score: base - float64(i)*0.01,
		}
	}
	return results
}

func TestPageStorePutAndState(t *testing.T) {
	store := NewPageStore(10)

	store.PutPage(1, scoredResults(10, 0.9), 45)
	state := store.State()
	assert.Equal(t, 1, state.CurrentPage)
	assert.Equal(t, 45, state.TotalResults)
	assert.Equal(t, 5, state.TotalPages)

	// Reported total never undercounts locally held results.
	store.PutPage(2, scoredResults(10, 0.8), 12)
	state = store.State()
	assert.Equal(t, 2, state.CurrentPage)
	assert.Equal(t, 20, state.TotalResults)
	assert.Equal(t, 2, state.TotalPages)
}

func TestPageStoreReset(t *testing.T) {
	store := NewPageStore(10)
	store.PutPage(1, scoredResults(10, 0.9), 45)
	store.Reprioritize(scoredResults(10, 0.9))

	store.Reset()

	_, ok := store.Page(1)
	assert.False(t, ok)
	assert.False(t, store.Prioritized())
	assert.Equal(t, types.PaginationState{}, store.State())
}

func TestReprioritize(t *testing.T) {
	store := NewPageStore(5)

	results := scoredResults(12, 0.5)
	// One low-scored custom result and one high scorer out of position.
	results[7].IsCustom = true
	results[7].Score = 0.01
	results[11].Score = 0.99

	store.Reprioritize(results)

	require.True(t, store.Prioritized())
	state := store.State()
	assert.Equal(t, 1, state.CurrentPage)
	assert.Equal(t, 12, state.TotalResults)
	assert.Equal(t, 3, state.TotalPages)

	page1, ok := store.Page(1)
	require.True(t, ok)
	assert.Equal(t, "r-8", page1[0].ID, "custom result pinned to the front regardless of score")
	assert.Equal(t, "r-12", page1[1].ID, "highest score follows the pinned results")

	// Every result lands on exactly one page.
	seen := make(map[string]int)
	for n := 1; n <= state.TotalPages; n++ {
		page, ok := store.Page(n)
		require.True(t, ok)
		assert.LessOrEqual(t, len(page), 5)
		for _, r := range page {
			seen[r.ID]++
		}
	}
	assert.Len(t, seen, 12)
	for id, count := range seen {
		assert.Equal(t, 1, count, "result %s appears once", id)
	}
}

func TestNavigatePresentPage(t *testing.T) {
	store := NewPageStore(10)
	store.PutPage(1, scoredResults(10, 0.9), 45)
	store.PutPage(2, scoredResults(10, 0.8), 45)

	fetchCalled := false
	page, err := store.Navigate(context.Background(), 2, func(ctx context.Context, n int) ([]types.SearchResult, int, error) {
		fetchCalled = true
		return nil, 0, nil
	})
	require.NoError(t, err)
	assert.Len(t, page, 10)
	assert.False(t, fetchCalled, "present pages never refetch")
	assert.Equal(t, 2, store.State().CurrentPage)
}

func TestNavigateFetchesAbsentPage(t *testing.T) {
	store := NewPageStore(10)
	store.PutPage(1, scoredResults(10, 0.9), 45)

	page, err := store.Navigate(context.Background(), 3, func(ctx context.Context, n int) ([]types.SearchResult, int, error) {
		assert.Equal(t, 3, n)
		return scoredResults(10, 0.7), 45, nil
	})
	require.NoError(t, err)
	assert.Len(t, page, 10)

	stored, ok := store.Page(3)
	assert.True(t, ok)
	assert.Equal(t, page, stored)
	assert.Equal(t, 3, store.State().CurrentPage)
}

func TestNavigatePrioritizedOutOfRange(t *testing.T) {
	store := NewPageStore(10)
	store.Reprioritize(scoredResults(10, 0.9))

	_, err := store.Navigate(context.Background(), 5, func(ctx context.Context, n int) ([]types.SearchResult, int, error) {
		t.Fatal("prioritized stores must not fetch")
		return nil, 0, nil
	})
	require.Error(t, err)
	assert.Equal(t, faults.Validation, faults.KindOf(err))
}

func TestNavigateInvalidPage(t *testing.T) {
	store := NewPageStore(10)

	_, err := store.Navigate(context.Background(), 0, nil)
	require.Error(t, err)
	assert.Equal(t, faults.Validation, faults.KindOf(err))
}
