// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders generated reports to plain-text and markdown
// files.
// Implements: prd007-export (R1-R3); docs/ARCHITECTURE.md § Export.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Render produces the report in the requested format.
func Render(report types.Report, format types.ExportFormat) (string, error) {
	switch format {
	case types.ExportTxt, "":
		return RenderTxt(report), nil
	case types.ExportMarkdown:
		return RenderMarkdown(report), nil
	default:
		return "", faults.New(faults.Validation, "unknown export format %q", format)
	}
}

// WriteFile renders the report and writes it under cfg.OutputDir, creating
// the directory as needed. The returned path includes the format's
// extension.
func WriteFile(report types.Report, cfg types.ExportConfig, name string) (string, error) {
	content, err := Render(report, cfg.Format)
	if err != nil {
		return "", err
	}

	ext := "txt"
	if cfg.Format == types.ExportMarkdown {
		ext = "md"
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(cfg.OutputDir, name+"."+ext)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// RenderTxt concatenates title, summary, sections, and a reference list.
func RenderTxt(report types.Report) string {
	var sb strings.Builder
	sb.WriteString(report.Title)
	sb.WriteString("\n\n")
	sb.WriteString(report.Summary)
	sb.WriteString("\n")

	for _, section := range report.Sections {
		sb.WriteString("\n")
		sb.WriteString(section.Title)
		sb.WriteString("\n")
		sb.WriteString(section.Content)
		sb.WriteString("\n")
	}

	if refs := CitedSources(report); len(refs) > 0 {
		sb.WriteString("\nReferences:\n")
		for i, src := range refs {
			fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, src.Name, src.URL)
		}
	}
	return strings.TrimSpace(sb.String()) + "\n"
}

// RenderMarkdown renders the report with markdown headings and a linked
// reference list.
func RenderMarkdown(report types.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", report.Title)
	sb.WriteString(report.Summary)
	sb.WriteString("\n")

	for _, section := range report.Sections {
		fmt.Fprintf(&sb, "\n## %s\n\n", section.Title)
		sb.WriteString(section.Content)
		sb.WriteString("\n")
	}

	if refs := CitedSources(report); len(refs) > 0 {
		sb.WriteString("\n## References\n\n")
		for i, src := range refs {
			fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, src.Name, src.URL)
		}
	}
	return sb.String()
}

// CitedSources returns the report's reference list filtered to the sources
// the model actually cited. UsedSources indices are 1-based; when the list
// is absent or empty, every source is returned. Out-of-range indices are
// ignored.
func CitedSources(report types.Report) []types.ReportSource {
	if len(report.UsedSources) == 0 {
		return report.Sources
	}

	used := make(map[int]bool, len(report.UsedSources))
	for _, n := range report.UsedSources {
		used[n-1] = true
	}

	filtered := make([]types.ReportSource, 0, len(report.UsedSources))
	for i, src := range report.Sources {
		if used[i] {
			filtered = append(filtered, src)
		}
	}
	return filtered
}
