// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores search results for relevance via a text-generation
// collaborator and selects a diverse high-quality subset.
// Implements: prd003-ranking (R1-R3);
//
//	docs/ARCHITECTURE.md § Ranking.
package rank

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultScore is assigned to candidates the scorer omitted; they are
// never dropped (R2.3).
const defaultScore = 0.1

// defaultReasoning explains a default score to the user.
const defaultReasoning = "This result was not explicitly scored by the AI. It may be less relevant to your query."

// Candidate is one result as presented to the scorer.
type Candidate struct {
	Title   string
	URL     string
	Snippet string
	Content string
}

// Ranking is the scorer's full response.
type Ranking struct {
	Rankings []types.RankingResult `json:"rankings"`
	Analysis string                `json:"analysis"`
}

// Ranker scores candidates against a research topic.
type Ranker struct {
	gen   llm.Generator
	model string
}

// NewRanker builds a Ranker on the given generation backend and
// platform-qualified model identifier.
func NewRanker(gen llm.Generator, model string) *Ranker {
	return &Ranker{gen: gen, model: model}
}

// rankingPromptTmpl embeds the research topic and serialized candidates and
// demands a JSON object with rankings and an overall analysis.
var rankingPromptTmpl = template.Must(template.New("ranking").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`You are a research assistant tasked with analyzing search results for relevance to a research topic.

Research Topic: "{{.Prompt}}"

Analyze these search results and score them based on:
1. Relevance to the research topic
2. Information quality and depth
3. Source credibility and authority
4. Uniqueness of perspective

Source Prioritization Guidelines:
- HIGHLY PRIORITIZE peer-reviewed academic literature, scientific journals, and research publications
- PRIORITIZE sources from established educational institutions, government agencies, and recognized expert organizations
- DEPRIORITIZE opinion pieces, editorials, and sources that primarily express personal viewpoints rather than evidence-based information
- DEPRIORITIZE sources with clear commercial bias or promotional content
- CONSIDER the recency of information when relevant to the topic

For each result, assign a score from 0 to 1, where:
- 1.0: Highly relevant, authoritative (especially peer-reviewed), and comprehensive
- 0.8-0.9: Very relevant with high-quality information from reputable sources
- 0.6-0.7: Relevant information from credible sources
- 0.4-0.5: Moderately relevant or basic information from acceptable sources
- 0.2-0.3: Tangentially relevant or from less authoritative sources
- 0.0-0.1: Not relevant, unreliable, or primarily opinion-based content

Here are the results to analyze:
{{range $i, $r := .Candidates}}
Result {{inc $i}}:
Title: {{$r.Title}}
URL: {{$r.URL}}
Snippet: {{$r.Snippet}}
{{if $r.Content}}Full Content: {{$r.Content}}{{end}}
---{{end}}

Format your response as a JSON object with this structure:
{
  "rankings": [
    {
      "url": "result url",
      "score": 0.85,
      "reasoning": "Brief explanation of the score, including assessment of source credibility and content type"
    }
  ],
  "analysis": "Brief overall analysis of the result set, highlighting the most valuable academic and authoritative sources"
}

Focus on finding results that provide unique, high-quality information from peer-reviewed and highly reputable sources relevant to the research topic.`))

// Rank scores the candidates against the research prompt. Every input
// candidate appears exactly once in the output: URLs missing from the
// scorer's response receive the default low score. Candidate URLs matching
// the test pattern bypass the generator entirely and return deterministic
// canned rankings (R3.1).
func (r *Ranker) Rank(ctx context.Context, prompt string, candidates []Candidate) (Ranking, error) {
	if prompt == "" || len(candidates) == 0 {
		return Ranking{}, faults.New(faults.Validation, "prompt and candidates are required")
	}

	if isTestSet(prompt, candidates) {
		return cannedRanking(candidates), nil
	}

	renderedPrompt, err := renderRankingPrompt(prompt, candidates)
	if err != nil {
		return Ranking{}, fmt.Errorf("rendering ranking prompt: %w", err)
	}

	raw, err := r.gen.Generate(ctx, renderedPrompt, r.model)
	if err != nil {
		return Ranking{}, fmt.Errorf("scoring results: %w", err)
	}

	var ranking Ranking
	if err := ExtractJSON(raw, &ranking); err != nil {
		return Ranking{}, err
	}

	ranking.Rankings = fillDefaults(candidates, ranking.Rankings)
	return ranking, nil
}

// fillDefaults guarantees one ranking per candidate, matched by URL.
func fillDefaults(candidates []Candidate, rankings []types.RankingResult) []types.RankingResult {
	byURL := make(map[string]types.RankingResult, len(rankings))
	for _, rk := range rankings {
		byURL[rk.URL] = rk
	}

	filled := make([]types.RankingResult, 0, len(candidates))
	for _, c := range candidates {
		if rk, ok := byURL[c.URL]; ok {
			filled = append(filled, rk)
			continue
		}
		filled = append(filled, types.RankingResult{
			URL:       c.URL,
			Score:     defaultScore,
			Reasoning: defaultReasoning,
		})
	}
	return filled
}

// isTestSet recognizes the end-to-end test sentinel.
func isTestSet(prompt string, candidates []Candidate) bool {
	if provider.IsTestQuery(prompt) {
		return true
	}
	for _, c := range candidates {
		if strings.Contains(c.URL, provider.TestQueryPattern) {
			return true
		}
	}
	return false
}

// cannedRanking returns deterministic scores: the first candidate leads
// with 1.0, the rest get 0.5.
func cannedRanking(candidates []Candidate) Ranking {
	rankings := make([]types.RankingResult, 0, len(candidates))
	for i, c := range candidates {
		score := 0.5
		if i == 0 {
			score = 1.0
		}
		rankings = append(rankings, types.RankingResult{
			URL:       c.URL,
			Score:     score,
			Reasoning: "Test ranking result",
		})
	}
	return Ranking{Rankings: rankings, Analysis: "Test analysis of search results"}
}

// renderRankingPrompt executes the prompt template.
func renderRankingPrompt(prompt string, candidates []Candidate) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Prompt     string
		Candidates []Candidate
	}{Prompt: prompt, Candidates: candidates}
	if err := rankingPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Apply copies scores and reasoning onto the results, matching by URL, and
// returns them sorted by descending score (custom results first). Results
// the scorer never saw keep score zero only when absent from rankings —
// fillDefaults upstream prevents that for ranked passes.
func Apply(results []types.SearchResult, rankings []types.RankingResult) []types.SearchResult {
	byURL := make(map[string]types.RankingResult, len(rankings))
	for _, rk := range rankings {
		byURL[rk.URL] = rk
	}

	scored := make([]types.SearchResult, len(results))
	copy(scored, results)
	for i := range scored {
		if rk, ok := byURL[scored[i].URL]; ok {
			scored[i].Score = rk.Score
			scored[i].Reasoning = rk.Reasoning
		}
	}

	sortByScore(scored)
	return scored
}

// sortByScore orders custom results first, then by descending score.
// Stable so equal-scored results keep their search order.
func sortByScore(results []types.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.IsCustom != b.IsCustom {
			return a.IsCustom
		}
		return a.Score > b.Score
	})
}
