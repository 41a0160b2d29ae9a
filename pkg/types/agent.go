// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AgentStage names one state of the agent run state machine.
// Per prd004-agent R1.1.
type AgentStage string

const (
	StageIdle       AgentStage = "idle"
	StagePlanning   AgentStage = "planning"
	StageSearching  AgentStage = "searching"
	StageAnalyzing  AgentStage = "analyzing"
	StageSelecting  AgentStage = "selecting"
	StageGenerating AgentStage = "generating"
	StageError      AgentStage = "error"
)

// SourceStatus records how the content for one selected source was obtained.
type SourceStatus string

const (
	// SourceFetched means the full text was retrieved.
	SourceFetched SourceStatus = "fetched"

	// SourcePreview means the fetch failed and the snippet was used instead.
	SourcePreview SourceStatus = "preview"
)

// FetchStatus tallies per-source content fetch outcomes during report
// generation. Per prd004-agent R4.3.
type FetchStatus struct {
	Total      int                     `json:"total" yaml:"total"`
	Successful int                     `json:"successful" yaml:"successful"`
	Fallback   int                     `json:"fallback" yaml:"fallback"`
	PerSource  map[string]SourceStatus `json:"per_source" yaml:"per_source"`
}

// AgentRunState is the transient state of one agent run. It is created at
// run start and discarded at the next run's start; no two in-flight runs
// share one. Per prd004-agent R1.2, the insight log is append-only and is
// never cleared mid-run.
type AgentRunState struct {
	// Stage is the run's current state machine position.
	Stage AgentStage `json:"stage" yaml:"stage"`

	// Insights is the ordered, append-only log of run telemetry shown to
	// the user (strategy explanation, analysis summary, selection counts).
	Insights []string `json:"insights" yaml:"insights"`

	// SearchQueries lists the optimized queries issued during the run.
	SearchQueries []string `json:"search_queries" yaml:"search_queries"`

	// SelectedIDs holds the IDs of the diversity-selected results.
	SelectedIDs []string `json:"selected_ids" yaml:"selected_ids"`

	// Fetch tallies content fetch outcomes for the generating stage.
	Fetch FetchStatus `json:"fetch" yaml:"fetch"`

	// LastError preserves the terminal failure message of a failed run for
	// display. It does not retain partial results.
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}
