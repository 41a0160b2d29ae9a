// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportSection is one titled body section of a generated report.
type ReportSection struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// ReportSource is a citable source entry carried inside a report.
type ReportSource struct {
	ID   string `json:"id" yaml:"id"`
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name" yaml:"name"`
}

// Report is the structured output of the report-generation collaborator.
// Per prd005-report R1.1-R1.3.
type Report struct {
	Title    string          `json:"title" yaml:"title"`
	Summary  string          `json:"summary" yaml:"summary"`
	Sections []ReportSection `json:"sections" yaml:"sections"`
	Sources  []ReportSource  `json:"sources" yaml:"sources"`

	// UsedSources holds the 1-based indices of sources the model actually
	// cited. When present, exports filter the reference list to these
	// entries; when absent, all sources are listed. Per prd005-report R3.2.
	UsedSources []int `json:"used_sources,omitempty" yaml:"used_sources,omitempty"`
}

// Article pairs a source URL with its fetched full text, the unit of input
// to report generation.
type Article struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// SavedReport is one archived entry in the knowledge base.
// Per prd006-knowledge-base R1.1.
type SavedReport struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Query     string    `json:"query" yaml:"query"`
	Report    Report    `json:"report" yaml:"report"`
}
