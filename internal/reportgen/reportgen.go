// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reportgen synthesizes a structured, cited research report from
// fetched article content.
// Implements: prd006-report (R1-R2); docs/ARCHITECTURE.md § Generation.
package reportgen

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/internal/rank"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Generator produces a report from articles and their originating sources.
type Generator struct {
	gen   llm.Generator
	model string
}

// NewGenerator builds a report generator on the given backend and
// platform-qualified model identifier.
func NewGenerator(gen llm.Generator, model string) *Generator {
	return &Generator{gen: gen, model: model}
}

var reportPromptTmpl = template.Must(template.New("report").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`You are a research assistant tasked with synthesizing a comprehensive report from the provided sources.

Research Request: "{{.Prompt}}"

Write a well-structured research report that directly addresses the research request, synthesizing information across all provided sources. Cite sources by their number where their information is used.

Sources:
{{range $i, $a := .Articles}}
Source {{inc $i}}: {{$a.Title}}
URL: {{$a.URL}}
Content: {{$a.Content}}
---{{end}}

Format your response as a JSON object with this structure:
{
  "title": "report title",
  "summary": "executive summary of the findings",
  "sections": [
    {
      "title": "section title",
      "content": "section content with [n] citations referring to source numbers"
    }
  ],
  "used_sources": [1, 3]
}

The used_sources array lists the 1-based numbers of the sources actually cited in the report. Only include sources whose information appears in the report.`))

// Generate synthesizes a report from the articles. The sources slice is the
// result set the articles came from; it is carried into the report's
// reference list verbatim, and usedSources (when the model supplies it)
// indexes into that list 1-based. Test-pattern inputs bypass the model.
func (g *Generator) Generate(ctx context.Context, prompt string, articles []types.Article, sources []types.SearchResult) (types.Report, error) {
	if prompt == "" {
		return types.Report{}, faults.New(faults.Validation, "prompt is required")
	}
	if len(articles) == 0 {
		return types.Report{}, faults.New(faults.Validation, "at least one article is required")
	}

	if isTestInput(prompt, articles) {
		return cannedReport(prompt, sources), nil
	}

	rendered, err := renderReportPrompt(prompt, articles)
	if err != nil {
		return types.Report{}, fmt.Errorf("rendering report prompt: %w", err)
	}

	raw, err := g.gen.Generate(ctx, rendered, g.model)
	if err != nil {
		return types.Report{}, fmt.Errorf("generating report: %w", err)
	}

	var report types.Report
	if err := rank.ExtractJSON(raw, &report); err != nil {
		return types.Report{}, err
	}

	report.Sources = sourceList(sources)
	return report, nil
}

// sourceList converts search results into report references, preserving
// order so usedSources indices stay meaningful.
func sourceList(sources []types.SearchResult) []types.ReportSource {
	refs := make([]types.ReportSource, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, types.ReportSource{ID: s.ID, URL: s.URL, Name: s.Name})
	}
	return refs
}

func isTestInput(prompt string, articles []types.Article) bool {
	if provider.IsTestQuery(prompt) {
		return true
	}
	for _, a := range articles {
		if strings.Contains(a.URL, provider.TestQueryPattern) {
			return true
		}
	}
	return false
}

// cannedReport is the deterministic report for test inputs.
func cannedReport(prompt string, sources []types.SearchResult) types.Report {
	return types.Report{
		Title:   "Test Report",
		Summary: fmt.Sprintf("Test report summary for %q.", prompt),
		Sections: []types.ReportSection{
			{Title: "Test Section", Content: "Test section content [1]."},
		},
		Sources:     sourceList(sources),
		UsedSources: []int{1},
	}
}

func renderReportPrompt(prompt string, articles []types.Article) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Prompt   string
		Articles []types.Article
	}{Prompt: prompt, Articles: articles}
	if err := reportPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
