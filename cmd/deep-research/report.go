// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/export"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/reportgen"
	"github.com/pdiddy/deep-research/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [prompt]",
	Short: "Generate a report from hand-picked source URLs",
	Long: `Report synthesizes a research report from sources you choose yourself,
bypassing search and ranking. Each --url is fetched for full content;
when a fetch fails the source still participates with whatever snippet
text is available.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringArray("url", nil, "source URL (repeatable)")
	reportCmd.Flags().String("model", "", "platform-qualified model identifier (default from config)")
	reportCmd.Flags().Bool("save", false, "archive the generated report in the knowledge base")
	reportCmd.Flags().Bool("export", false, "write the report to the export output directory")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research prompt")
	}
	urls, _ := cmd.Flags().GetStringArray("url")
	if len(urls) == 0 {
		return fmt.Errorf("provide at least one --url source")
	}
	prompt := strings.Join(args, " ")

	cfg := pipelineConfig()
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.Agent.Model = m
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	router := llm.NewRouter(cfg.Agent.AIConfig, client)
	fetcher := fetch.NewHTTPFetcher(cfg.Fetch)
	gen := reportgen.NewGenerator(router, cfg.Agent.Model)

	ctx := context.Background()
	sources := make([]types.SearchResult, 0, len(urls))
	articles := make([]types.Article, 0, len(urls))
	for i, u := range urls {
		src := types.SearchResult{
			ID:       fmt.Sprintf("custom-%d", i+1),
			URL:      u,
			Name:     u,
			Source:   "custom",
			IsCustom: true,
		}
		content, err := fetcher.Fetch(ctx, u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: fetch failed for %s, using preview: %v\n", u, err)
			content = src.Snippet
		}
		sources = append(sources, src)
		articles = append(articles, types.Article{URL: u, Title: src.Name, Content: content})
	}

	report, err := gen.Generate(ctx, prompt, articles, sources)
	if err != nil {
		return err
	}

	return finishReport(cmd, cfg, prompt, report)
}

// writeReportFile exports the report under a timestamped name.
func writeReportFile(report types.Report, cfg types.ExportConfig) (string, error) {
	name := "report-" + time.Now().UTC().Format("20060102-150405")
	return export.WriteFile(report, cfg, name)
}
