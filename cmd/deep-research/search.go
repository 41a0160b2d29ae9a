// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/internal/provider"
	"github.com/pdiddy/deep-research/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search web and biomedical providers",
	Long: `Search queries the configured provider (google, bing, or exa), optionally
alongside PubMed, and prints the merged result set. Use --fetch-all to
gather every available result up to the configured cap instead of a
single page.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("provider", "", "web provider: google, bing, or exa (default from config)")
	searchCmd.Flags().String("time", "all", "time window: day, week, month, 6months, 12months, 5years, 10years, all")
	searchCmd.Flags().Int("page", 1, "1-based result page")
	searchCmd.Flags().Bool("pubmed", false, "also query PubMed and merge its results")
	searchCmd.Flags().Bool("fetch-all", false, "gather all results from the primary provider up to the cap")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := pipelineConfig()
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Search.Provider = p
	}
	if ok, _ := cmd.Flags().GetBool("pubmed"); ok {
		cfg.Search.IncludePubMed = true
	}

	window := provider.TimeWindow(cmd.Flag("time").Value.String())
	page, _ := cmd.Flags().GetInt("page")
	fetchAll, _ := cmd.Flags().GetBool("fetch-all")

	client := &http.Client{Timeout: cfg.Search.Timeout}
	registry := provider.NewRegistry(cfg.Search, client)
	agg := aggregate.New(registry, cfg.Search, os.Stderr)

	primary := provider.ID(cfg.Search.Provider)
	ctx := context.Background()

	var (
		result types.AggregatedPage
		err    error
	)
	if fetchAll {
		result, err = agg.FetchAll(ctx, query, window, primary)
	} else {
		ids := []provider.ID{primary}
		if cfg.Search.IncludePubMed {
			ids = append(ids, provider.PubMed)
		}
		result, err = agg.Aggregate(ctx, query, provider.Filters{
			Window:   window,
			Page:     page,
			PageSize: cfg.Search.PageSize,
		}, ids)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(result, jsonOutput)
}

func formatSearchOutput(page types.AggregatedPage, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if len(page.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-8s  %-50s  %s\n", "Rank", "Source", "Title", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range page.Results {
		name := r.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-8s  %-50s  %s\n", i+1, r.Source, name, r.URL)
	}

	fmt.Fprintf(os.Stdout, "\npage %d of %d (%d results reported)\n",
		page.Pagination.CurrentPage, page.Pagination.TotalPages, page.Pagination.TotalResults)
	return nil
}
