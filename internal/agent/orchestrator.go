// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent drives the automated research pipeline: plan, search,
// analyze, select, and generate, as a deterministic state machine with
// bounded retry around every external call.
// Implements: prd004-agent (R1-R5); docs/ARCHITECTURE.md § Agent.
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/plan"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/internal/rank"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Planner, Searcher, Ranker, and Reporter are the orchestrator's stage
// collaborators, narrowed to the one call each stage makes so tests can
// substitute them. Satisfied by plan.Planner, aggregate.Aggregator,
// rank.Ranker, and reportgen.Generator respectively.
type Planner interface {
	Optimize(ctx context.Context, topic string) (plan.Plan, error)
}

type Searcher interface {
	FetchAll(ctx context.Context, query string, window provider.TimeWindow, id provider.ID) (types.AggregatedPage, error)
}

type Ranker interface {
	Rank(ctx context.Context, prompt string, candidates []rank.Candidate) (rank.Ranking, error)
}

type Reporter interface {
	Generate(ctx context.Context, prompt string, articles []types.Article, sources []types.SearchResult) (types.Report, error)
}

// Orchestrator sequences one agent run at a time. It is not safe for
// concurrent runs; the caller must not start a run while one is in flight.
type Orchestrator struct {
	planner  Planner
	searcher Searcher
	ranker   Ranker
	reporter Reporter
	fetcher  fetch.ContentFetcher

	providerID provider.ID
	maxSelect  int
	scoreFloor float64
	maxRetries int
	retryDelay time.Duration
	log        io.Writer

	state types.AgentRunState
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Planner  Planner
	Searcher Searcher
	Ranker   Ranker
	Reporter Reporter
	Fetcher  fetch.ContentFetcher
}

// New builds an Orchestrator from config, applying defaults.
func New(deps Deps, cfg types.AgentConfig, providerID provider.ID, log io.Writer) *Orchestrator {
	maxSelect := cfg.MaxSelectable
	if maxSelect <= 0 {
		maxSelect = rank.DefaultMaxSelectable
	}
	scoreFloor := cfg.ScoreFloor
	if scoreFloor == 0 {
		scoreFloor = rank.DefaultScoreFloor
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryBaseDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	if log == nil {
		log = io.Discard
	}
	return &Orchestrator{
		planner:    deps.Planner,
		searcher:   deps.Searcher,
		ranker:     deps.Ranker,
		reporter:   deps.Reporter,
		fetcher:    deps.Fetcher,
		providerID: providerID,
		maxSelect:  maxSelect,
		scoreFloor: scoreFloor,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
		state:      types.AgentRunState{Stage: types.StageIdle},
	}
}

// State returns a copy of the current run state.
func (o *Orchestrator) State() types.AgentRunState {
	st := o.state
	st.Insights = append([]string(nil), o.state.Insights...)
	st.SearchQueries = append([]string(nil), o.state.SearchQueries...)
	st.SelectedIDs = append([]string(nil), o.state.SelectedIDs...)
	return st
}

// Run executes one full research pipeline for the topic. On failure the
// run terminates in the error stage with LastError preserved for display;
// the next Run starts from a fresh state, discarding the previous run's
// insight log.
func (o *Orchestrator) Run(ctx context.Context, topic string, window provider.TimeWindow) (types.Report, error) {
	if topic == "" {
		return types.Report{}, faults.New(faults.Validation, "research topic is required")
	}

	// A new run discards the previous run's state entirely.
	o.state = types.AgentRunState{Stage: types.StagePlanning}

	// Planning.
	fmt.Fprintf(o.log, "planning: optimizing research topic\n")
	p, err := withRetry(ctx, o.maxRetries, o.retryDelay, func(ctx context.Context) (plan.Plan, error) {
		return o.planner.Optimize(ctx, topic)
	})
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("planning failed: %w", err))
	}
	o.state.SearchQueries = append(o.state.SearchQueries, p.Query)
	o.addInsight("Research strategy: " + p.Explanation)
	if len(p.SuggestedStructure) > 0 {
		o.addInsight("Suggested structure: " + strings.Join(p.SuggestedStructure, "; "))
	}

	// Searching.
	o.state.Stage = types.StageSearching
	fmt.Fprintf(o.log, "searching: %s\n", p.Query)
	page, err := withRetry(ctx, o.maxRetries, o.retryDelay, func(ctx context.Context) (types.AggregatedPage, error) {
		return o.searcher.FetchAll(ctx, p.Query, window, o.providerID)
	})
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("search failed: %w", err))
	}
	if len(page.Results) == 0 {
		return types.Report{}, o.fail(faults.New(faults.NoResults, "no results found for %q", p.Query))
	}
	o.addInsight(fmt.Sprintf("Found %d results across %d pages.", len(page.Results), page.Pagination.TotalPages))

	// Analyzing.
	o.state.Stage = types.StageAnalyzing
	fmt.Fprintf(o.log, "analyzing: scoring %d results\n", len(page.Results))
	candidates := toCandidates(page.Results)
	ranking, err := withRetry(ctx, o.maxRetries, o.retryDelay, func(ctx context.Context) (rank.Ranking, error) {
		return o.ranker.Rank(ctx, p.OptimizedPrompt, candidates)
	})
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("analysis failed: %w", err))
	}
	scored := rank.Apply(page.Results, ranking.Rankings)
	if allZero(scored) {
		return types.Report{}, o.fail(faults.New(faults.NoRelevantResults, "no relevant results found for %q", p.Query))
	}
	o.addInsight("Analysis: " + ranking.Analysis)

	// Selecting.
	o.state.Stage = types.StageSelecting
	selected, err := rank.SelectDiverse(scored, o.maxSelect, o.scoreFloor)
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("selection failed: %w", err))
	}
	for _, r := range selected {
		o.state.SelectedIDs = append(o.state.SelectedIDs, r.ID)
	}
	o.addInsight(fmt.Sprintf("Selected %d diverse high-quality sources.", len(selected)))
	fmt.Fprintf(o.log, "selecting: %d sources chosen\n", len(selected))

	// Generating.
	o.state.Stage = types.StageGenerating
	articles, err := o.fetchContents(ctx, selected)
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("content fetch failed: %w", err))
	}
	o.addInsight(fmt.Sprintf("Fetched full content for %d of %d sources (%d used preview text).",
		o.state.Fetch.Successful, o.state.Fetch.Total, o.state.Fetch.Fallback))

	fmt.Fprintf(o.log, "generating: synthesizing report from %d sources\n", len(articles))
	report, err := withRetry(ctx, o.maxRetries, o.retryDelay, func(ctx context.Context) (types.Report, error) {
		return o.reporter.Generate(ctx, p.OptimizedPrompt, articles, selected)
	})
	if err != nil {
		return types.Report{}, o.fail(fmt.Errorf("report generation failed: %w", err))
	}

	o.state.Stage = types.StageIdle
	return report, nil
}

// fetchContents retrieves full text for every selected result concurrently.
// A failed fetch degrades to the result's snippet and is tallied as a
// fallback, except rate limiting: once retries are exhausted on a 429 the
// whole batch is aborted, since every sibling would hit the same limiter.
// Sibling fetches already in flight are not cancelled.
func (o *Orchestrator) fetchContents(ctx context.Context, selected []types.SearchResult) ([]types.Article, error) {
	articles := make([]types.Article, len(selected))
	o.state.Fetch = types.FetchStatus{
		Total:     len(selected),
		PerSource: make(map[string]types.SourceStatus, len(selected)),
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		batchErr error
	)
	for i, r := range selected {
		wg.Add(1)
		go func(i int, r types.SearchResult) {
			defer wg.Done()
			content, err := withRetry(ctx, o.maxRetries, o.retryDelay, func(ctx context.Context) (string, error) {
				return o.fetcher.Fetch(ctx, r.URL)
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && content != "":
				articles[i] = types.Article{URL: r.URL, Title: r.Name, Content: content}
				o.state.Fetch.Successful++
				o.state.Fetch.PerSource[r.URL] = types.SourceFetched
			case faults.IsRateLimited(err):
				if batchErr == nil {
					batchErr = err
				}
			default:
				if err != nil {
					fmt.Fprintf(o.log, "  warning: fetch failed for %s, using preview: %v\n", r.URL, err)
				}
				articles[i] = types.Article{URL: r.URL, Title: r.Name, Content: r.Snippet}
				o.state.Fetch.Fallback++
				o.state.Fetch.PerSource[r.URL] = types.SourcePreview
			}
		}(i, r)
	}
	wg.Wait()

	if batchErr != nil {
		return nil, batchErr
	}
	return articles, nil
}

// fail records the terminal error and leaves the run in the error stage.
func (o *Orchestrator) fail(err error) error {
	o.state.Stage = types.StageError
	o.state.LastError = err.Error()
	fmt.Fprintf(o.log, "error: %v\n", err)
	return err
}

func (o *Orchestrator) addInsight(s string) {
	o.state.Insights = append(o.state.Insights, s)
}

func toCandidates(results []types.SearchResult) []rank.Candidate {
	candidates := make([]rank.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, rank.Candidate{
			Title:   r.Name,
			URL:     r.URL,
			Snippet: r.Snippet,
			Content: r.Content,
		})
	}
	return candidates
}

// allZero reports whether the scorer found nothing relevant at all, which
// is distinct from merely low scores.
func allZero(results []types.SearchResult) bool {
	for _, r := range results {
		if r.Score > 0 {
			return false
		}
	}
	return true
}
