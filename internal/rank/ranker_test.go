package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// fakeGenerator returns a scripted response and records the prompt.
type fakeGenerator struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.response, g.err
}

func sampleCandidates(n int) []Candidate {
	candidates := make([]Candidate, n)
	for i := range candidates {
		candidates[i] = Candidate{
			Title:   "Result " + string(rune('A'+i)),
			URL:     "https://site" + string(rune('a'+i)) + ".example/article",
			Snippet: "snippet text",
		}
	}
	return candidates
}

func TestRankFillsUnscoredCandidates(t *testing.T) {
	gen := &fakeGenerator{response: `Here are the rankings:
{
  "rankings": [
    {"url": "https://sitea.example/article", "score": 0.9, "reasoning": "peer-reviewed"},
    {"url": "https://siteb.example/article", "score": 0.7, "reasoning": "credible"},
    {"url": "https://sitec.example/article", "score": 0.4, "reasoning": "basic"}
  ],
  "analysis": "Mixed quality set."
}`}
	r := NewRanker(gen, "anthropic__claude-sonnet-4-5")

	ranking, err := r.Rank(context.Background(), "solar panel efficiency", sampleCandidates(5))
	require.NoError(t, err)

	require.Len(t, ranking.Rankings, 5, "every candidate appears exactly once")
	assert.Equal(t, "Mixed quality set.", ranking.Analysis)
	assert.InDelta(t, 0.9, ranking.Rankings[0].Score, 1e-9)

	// The two unscored candidates get the default low score, not dropped.
	for _, rk := range ranking.Rankings[3:] {
		assert.InDelta(t, defaultScore, rk.Score, 1e-9)
		assert.Equal(t, defaultReasoning, rk.Reasoning)
	}
}

func TestRankPromptContainsCandidates(t *testing.T) {
	gen := &fakeGenerator{response: `{"rankings": [], "analysis": ""}`}
	r := NewRanker(gen, "m")

	_, err := r.Rank(context.Background(), "solar panel efficiency", sampleCandidates(2))
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, `Research Topic: "solar panel efficiency"`)
	assert.Contains(t, gen.prompt, "Result 1:")
	assert.Contains(t, gen.prompt, "Result 2:")
	assert.Contains(t, gen.prompt, "https://sitea.example/article")
}

func TestRankTestSentinelSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("must not be called")}
	r := NewRanker(gen, "m")

	candidates := []Candidate{
		{Title: "Test Result 1", URL: "https://example.com/test-1"},
		{Title: "Test Result 2", URL: "https://example.com/test-2"},
		{Title: "Test Result 3", URL: "https://example.com/test-3"},
	}

	ranking, err := r.Rank(context.Background(), "anything", candidates)
	require.NoError(t, err)

	assert.Equal(t, 0, gen.calls)
	require.Len(t, ranking.Rankings, 3)
	assert.InDelta(t, 1.0, ranking.Rankings[0].Score, 1e-9)
	assert.InDelta(t, 0.5, ranking.Rankings[1].Score, 1e-9)
	assert.InDelta(t, 0.5, ranking.Rankings[2].Score, 1e-9)
	assert.Equal(t, "Test ranking result", ranking.Rankings[0].Reasoning)
	assert.Equal(t, "Test analysis of search results", ranking.Analysis)
}

func TestRankTestPromptSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("must not be called")}
	r := NewRanker(gen, "m")

	_, err := r.Rank(context.Background(), "test", sampleCandidates(2))
	require.NoError(t, err)
	assert.Equal(t, 0, gen.calls)
}

func TestRankValidation(t *testing.T) {
	r := NewRanker(&fakeGenerator{}, "m")

	_, err := r.Rank(context.Background(), "", sampleCandidates(1))
	require.Error(t, err)
	assert.Equal(t, faults.Validation, faults.KindOf(err))

	_, err = r.Rank(context.Background(), "topic", nil)
	require.Error(t, err)
	assert.Equal(t, faults.Validation, faults.KindOf(err))
}

func TestRankGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: faults.New(faults.RateLimited, "overloaded")}
	r := NewRanker(gen, "m")

	_, err := r.Rank(context.Background(), "topic", sampleCandidates(1))
	require.Error(t, err)
	assert.Equal(t, faults.RateLimited, faults.KindOf(err))
}

func TestRankUnparseableResponse(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot rank these results."}
	r := NewRanker(gen, "m")

	_, err := r.Rank(context.Background(), "topic", sampleCandidates(1))
	require.Error(t, err)
	assert.Equal(t, faults.Parse, faults.KindOf(err))
}

func TestApply(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://a.example/1"},
		{ID: "2", URL: "https://b.example/2"},
		{ID: "3", URL: "https://c.example/3", IsCustom: true},
	}
	rankings := []types.RankingResult{
		{URL: "https://a.example/1", Score: 0.3, Reasoning: "weak"},
		{URL: "https://b.example/2", Score: 0.9, Reasoning: "strong"},
		{URL: "https://c.example/3", Score: 0.1, Reasoning: "custom"},
	}

	scored := Apply(results, rankings)

	require.Len(t, scored, 3)
	assert.Equal(t, "3", scored[0].ID, "custom results lead regardless of score")
	assert.Equal(t, "2", scored[1].ID)
	assert.Equal(t, "1", scored[2].ID)
	assert.InDelta(t, 0.9, scored[1].Score, 1e-9)
	assert.Equal(t, "strong", scored[1].Reasoning)

	// Input order is untouched.
	assert.Equal(t, "1", results[0].ID)
}

func TestApplyStableForEqualScores(t *testing.T) {
	results := []types.SearchResult{
		{ID: "1", URL: "https://a.example/1"},
		{ID: "2", URL: "https://b.example/2"},
	}
	rankings := []types.RankingResult{
		{URL: "https://a.example/1", Score: 0.5},
		{URL: "https://b.example/2", Score: 0.5},
	}

	scored := Apply(results, rankings)
	assert.Equal(t, "1", scored[0].ID)
	assert.Equal(t, "2", scored[1].ID)
}
