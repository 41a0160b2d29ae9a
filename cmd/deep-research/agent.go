// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/fetch"
	"github.com/pdiddy/deep-research/internal/knowledge"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/plan"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/internal/rank"
	"github.com/pdiddy/deep-research/internal/reportgen"
	"github.com/pdiddy/deep-research/pkg/types"
)

var agentCmd = &cobra.Command{
	Use:   "agent [topic]",
	Short: "Run the full automated research pipeline",
	Long: `Agent runs the complete pipeline for a research topic: a language model
optimizes the topic into a search query, the configured provider is
queried exhaustively, results are scored and a diverse high-quality
subset selected, full content is fetched for each selection, and a
structured cited report is synthesized.

The generated report is printed and can be archived (--save) and written
to a file (--export).`,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().String("model", "", "platform-qualified model identifier (default from config)")
	agentCmd.Flags().String("provider", "", "web provider: google, bing, or exa (default from config)")
	agentCmd.Flags().String("time", "all", "time window: day, week, month, 6months, 12months, 5years, 10years, all")
	agentCmd.Flags().Bool("save", false, "archive the generated report in the knowledge base")
	agentCmd.Flags().Bool("export", false, "write the report to the export output directory")

	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research topic")
	}
	topic := strings.Join(args, " ")

	cfg := pipelineConfig()
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.Agent.Model = m
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Search.Provider = p
	}
	window := provider.TimeWindow(cmd.Flag("time").Value.String())

	client := &http.Client{Timeout: cfg.Search.Timeout}
	registry := provider.NewRegistry(cfg.Search, client)
	agg := aggregate.New(registry, cfg.Search, os.Stderr)
	router := llm.NewRouter(cfg.Agent.AIConfig, client)

	orch := agent.New(agent.Deps{
		Planner:  plan.NewPlanner(router, cfg.Agent.Model),
		Searcher: agg,
		Ranker:   rank.NewRanker(router, cfg.Agent.Model),
		Reporter: reportgen.NewGenerator(router, cfg.Agent.Model),
		Fetcher:  fetch.NewHTTPFetcher(cfg.Fetch),
	}, cfg.Agent, provider.ID(cfg.Search.Provider), os.Stderr)

	report, err := orch.Run(context.Background(), topic, window)
	if err != nil {
		return err
	}

	state := orch.State()
	fmt.Fprintln(os.Stdout, "Research insights:")
	for _, insight := range state.Insights {
		fmt.Fprintf(os.Stdout, "  - %s\n", insight)
	}
	fmt.Fprintln(os.Stdout)

	return finishReport(cmd, cfg, topic, report)
}

// finishReport prints the report and honors the --save and --export flags.
// Shared with the manual report command.
func finishReport(cmd *cobra.Command, cfg types.PipelineConfig, query string, report types.Report) error {
	printReport(report)

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := knowledge.NewStore(cfg.KnowledgeBase)
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := store.Save(context.Background(), query, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nArchived as %s\n", saved.ID)
	}

	if doExport, _ := cmd.Flags().GetBool("export"); doExport {
		path, err := writeReportFile(report, cfg.Export)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Exported to %s\n", path)
	}
	return nil
}

func printReport(report types.Report) {
	fmt.Fprintf(os.Stdout, "%s\n\n%s\n", report.Title, report.Summary)
	for _, section := range report.Sections {
		fmt.Fprintf(os.Stdout, "\n%s\n%s\n", section.Title, section.Content)
	}
}
