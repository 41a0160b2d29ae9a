package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

func TestSelectDiverse(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://alpha.example/one", Score: 0.9},
		{ID: "2", URL: "https://alpha.example/two", Score: 0.85},
		{ID: "3", URL: "https://beta.example/one", Score: 0.8},
		{ID: "4", URL: "https://gamma.example/one", Score: 0.6},
		{ID: "5", URL: "https://delta.example/one", Score: 0.3},
	}

	selected, err := SelectDiverse(results, 20, DefaultScoreFloor)
	require.NoError(t, err)

	require.Len(t, selected, 3)
	assert.Equal(t, "1", selected[0].ID)
	assert.Equal(t, "3", selected[1].ID, "second alpha.example result skipped for diversity")
	assert.Equal(t, "4", selected[2].ID)
}

func TestSelectDiverseSameHostYieldsOne(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://alpha.example/one", Score: 0.7},
		{ID: "2", URL: "https://alpha.example/two", Score: 0.8},
		{ID: "3", URL: "https://alpha.example/three", Score: 0.9},
	}

	selected, err := SelectDiverse(results, 20, DefaultScoreFloor)
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "3", selected[0].ID, "highest score from the shared host wins")
}

func TestSelectDiverseRespectsMaxCount(t *testing.T) {
	var results []types.SearchResult
	for i := 0; i < 10; i++ {
		results = append(results, types.SearchResult{
			ID:    string(rune('a' + i)),
			URL:   "https://host" + string(rune('a'+i)) + ".example/",
			Score: 0.9,
		})
	}

	selected, err := SelectDiverse(results, 4, DefaultScoreFloor)
	require.NoError(t, err)
	assert.Len(t, selected, 4)
}

func TestSelectDiverseFloorIsExclusive(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://alpha.example/", Score: 0.5},
		{ID: "2", URL: "https://beta.example/", Score: 0.51},
	}

	selected, err := SelectDiverse(results, 20, 0.5)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "2", selected[0].ID, "a score equal to the floor is excluded")
}

func TestSelectDiverseEmptySelection(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://alpha.example/", Score: 0.2},
		{ID: "2", URL: "https://beta.example/", Score: 0.0},
	}

	_, err := SelectDiverse(results, 20, DefaultScoreFloor)
	require.Error(t, err)
	assert.Equal(t, faults.SelectionEmpty, faults.KindOf(err))
}

func TestSelectDiverseUnparseableURLsNotDeduplicated(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "://bad", Score: 0.9},
		{ID: "2", URL: "://worse", Score: 0.8},
	}

	selected, err := SelectDiverse(results, 20, DefaultScoreFloor)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
}
