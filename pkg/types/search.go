// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
// Implements: prd001-providers (SearchResult, R3.1-R3.4);
//
//	prd002-aggregation (AggregatedPage, PaginationState);
//	prd003-ranking (RankingResult);
//	prd005-report (Report);
//	prd006-knowledge-base (SavedReport).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// SearchResult is the normalized record every provider response is mapped
// into. Per prd001-providers R3.1, ID is a synthetic composite (page index +
// position + provider id or URL fallback) that stays unique across repeated
// fetches of overlapping pages; URL is the stable deduplication key within
// one aggregated set.
type SearchResult struct {
	// ID uniquely identifies the result within a session.
	ID string `json:"id" yaml:"id"`

	// URL is the result's canonical link and the dedup key.
	URL string `json:"url" yaml:"url"`

	// Name is the result title.
	Name string `json:"name" yaml:"name"`

	// Snippet is the provider's short summary text.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which provider found this result
	// (e.g. "google", "pubmed", "custom").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Score is the relevance score in [0,1] assigned by the ranking stage.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// Reasoning is the ranking stage's free-text justification for Score.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Content is the fetched full text, when available.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// IsCustom marks a caller-pinned URL. Custom results sort first and
	// survive re-aggregation and re-prioritization verbatim.
	IsCustom bool `json:"is_custom,omitempty" yaml:"is_custom,omitempty"`

	// IsPubMed marks results from the biomedical provider.
	IsPubMed bool `json:"is_pubmed,omitempty" yaml:"is_pubmed,omitempty"`

	// PubMed metadata, populated only for biomedical results.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	PubDate string   `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`
	PMID    string   `json:"pmid,omitempty" yaml:"pmid,omitempty"`
}

// RankingResult is one entry of the scoring collaborator's response. It is
// matched back to a SearchResult by URL, not by position: the scorer may
// omit or reorder entries. Per prd003-ranking R2.2.
type RankingResult struct {
	URL       string  `json:"url" yaml:"url"`
	Score     float64 `json:"score" yaml:"score"`
	Reasoning string  `json:"reasoning" yaml:"reasoning"`
}

// PaginationState is derived bookkeeping over the page collection. It is
// recomputed whenever the underlying pages change and always satisfies
// TotalPages == ceil(TotalResults/pageSize). Per prd002-aggregation R4.2.
type PaginationState struct {
	CurrentPage  int `json:"current_page" yaml:"current_page"`
	TotalPages   int `json:"total_pages" yaml:"total_pages"`
	TotalResults int `json:"total_results" yaml:"total_results"`
}

// AggregatedPage is the merged output of one aggregation call.
type AggregatedPage struct {
	// Results holds the merged result list in provider-priority order.
	Results []SearchResult `json:"results" yaml:"results"`

	// Pagination describes the combined result space. TotalResults across
	// multiple providers is the sum of each provider's reported total, an
	// approximation rather than a deduplicated count (kept deliberately;
	// see docs/ARCHITECTURE.md § Aggregation).
	Pagination PaginationState `json:"pagination" yaml:"pagination"`
}
