// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1"). Per prd001-providers R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search and aggregation stages.
// Per prd001-providers R5.1-R5.6, prd002-aggregation R1.4.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of results per logical page (default 10).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Provider is the default web provider: google, bing, or exa.
	Provider string `json:"provider" yaml:"provider"`

	// IncludePubMed controls whether the biomedical provider is queried
	// alongside the web provider.
	IncludePubMed bool `json:"include_pubmed" yaml:"include_pubmed"`

	// FetchAllCap bounds the number of results gathered in fetch-all mode
	// (default 100).
	FetchAllCap int `json:"fetch_all_cap" yaml:"fetch_all_cap"`

	// GoogleAPIKey and GoogleCX authenticate the Google Custom Search API.
	GoogleAPIKey string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty"`
	GoogleCX     string `json:"google_cx,omitempty" yaml:"google_cx,omitempty"`

	// BingAPIKey authenticates the Bing Web Search API.
	BingAPIKey string `json:"bing_api_key,omitempty" yaml:"bing_api_key,omitempty"`

	// ExaAPIKey authenticates the Exa search API.
	ExaAPIKey string `json:"exa_api_key,omitempty" yaml:"exa_api_key,omitempty"`

	// PubMedAPIKey and PubMedEmail identify the client to NCBI E-utilities.
	// Both are optional; NCBI grants higher rate limits when present.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty"`
	PubMedEmail  string `json:"pubmed_email,omitempty" yaml:"pubmed_email,omitempty"`
}

// AIConfig holds shared settings for stages that call a text-generation API.
type AIConfig struct {
	// Model is the platform-qualified model identifier
	// (e.g. "anthropic__claude-sonnet-4-5", "openai__gpt-4.1").
	Model string `json:"model" yaml:"model"`

	// AnthropicAPIKey authenticates the Anthropic Messages API.
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty" yaml:"anthropic_api_key,omitempty"`

	// OpenAIAPIKey authenticates the OpenAI API.
	OpenAIAPIKey string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
}

// AgentConfig holds settings for the agent orchestrator.
// Per prd004-agent R5.1-R5.3.
type AgentConfig struct {
	AIConfig `yaml:",inline"`

	// MaxSelectable caps the diversity selection size (default 20).
	MaxSelectable int `json:"max_selectable" yaml:"max_selectable"`

	// ScoreFloor is the minimum ranking score a result must exceed to be
	// selected (default 0.5).
	ScoreFloor float64 `json:"score_floor" yaml:"score_floor"`

	// MaxRetries bounds retry attempts per external call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the first backoff interval; it doubles per attempt
	// (default 1s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// FetchConfig holds settings for full-text content fetching.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxContentBytes truncates extracted document text (default 20000).
	MaxContentBytes int `json:"max_content_bytes" yaml:"max_content_bytes"`
}

// KnowledgeBaseConfig holds settings for the report archive.
// Per prd006-knowledge-base R1.2.
type KnowledgeBaseConfig struct {
	// Dir is the base directory for the archive (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of list results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExportFormat selects the report export format.
type ExportFormat string

const (
	ExportTxt      ExportFormat = "txt"
	ExportMarkdown ExportFormat = "markdown"
)

// ExportConfig holds settings for report export.
type ExportConfig struct {
	// OutputDir is the directory for exported reports (e.g. "output/reports/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects the output format: txt or markdown.
	Format ExportFormat `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations. It is built once at
// startup and threaded explicitly into every component constructor; nothing
// reads configuration ambiently.
type PipelineConfig struct {
	Search        SearchConfig        `json:"search" yaml:"search"`
	Agent         AgentConfig         `json:"agent" yaml:"agent"`
	Fetch         FetchConfig         `json:"fetch" yaml:"fetch"`
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base"`
	Export        ExportConfig        `json:"export" yaml:"export"`
}
