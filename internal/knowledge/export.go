// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one archived report as written to the export files.
type ExportEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Query     string    `json:"query" yaml:"query"`
	Title     string    `json:"title" yaml:"title"`
	Summary   string    `json:"summary" yaml:"summary"`
	Sections  int       `json:"sections" yaml:"sections"`
	Sources   int       `json:"sources" yaml:"sources"`
}

const exportLimit = 100000

// ExportYAML writes the archive index to dir/index/export.yaml. It supports
// the same filters as List.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the archive index to dir/index/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Query:     r.Query,
			Title:     r.Report.Title,
			Summary:   r.Report.Summary,
			Sections:  len(r.Report.Sections),
			Sources:   len(r.Report.Sources),
		}
	}
	return entries, nil
}
