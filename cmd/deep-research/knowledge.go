// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/export"
	"github.com/pdiddy/deep-research/internal/knowledge"
	"github.com/pdiddy/deep-research/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the archive of generated reports (list, show, delete, export)",
	Long: `Knowledge manages the local SQLite archive of generated research
reports. Use subcommands to list archived reports, show or delete one by
ID, or export the archive index.`,
}

// --- list subcommand ---

var knowledgeListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List archived reports, newest first",
	Long: `List shows archived reports. An optional full-text query searches the
research query, report title, and summary; --since restricts to recent
reports.`,
	RunE: runKnowledgeList,
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.List(context.Background(), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(results, jsonOutput)
}

func formatListOutput(results []types.SavedReport, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No archived reports found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-30s  %s\n", "ID", "Generated", "Query", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, r := range results {
		query := r.Query
		if len(query) > 30 {
			query = query[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-30s  %s\n",
			r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), query, r.Report.Title)
	}

	fmt.Fprintf(os.Stdout, "\n%d reports\n", len(results))
	return nil
}

// --- show subcommand ---

var knowledgeShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one archived report",
	RunE:  runKnowledgeShow,
}

func runKnowledgeShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one report ID")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(saved)
	}

	fmt.Fprintf(os.Stdout, "Query: %s\nGenerated: %s\n\n", saved.Query,
		saved.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprint(os.Stdout, export.RenderTxt(saved.Report))
	return nil
}

// --- delete subcommand ---

var knowledgeDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove one archived report",
	RunE:  runKnowledgeDelete,
}

func runKnowledgeDelete(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one report ID")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s\n", args[0])
	return nil
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive index to YAML or JSON",
	Long: `Export writes the archive index (or a filtered subset) to
<dir>/index/export.yaml or export.json. Supports the same filter flags
as list for partial exports.`,
	RunE: runKnowledgeExport,
}

func runKnowledgeExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*knowledge.Store, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = pipelineConfig().KnowledgeBase.Dir
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return knowledge.NewStore(types.KnowledgeBaseConfig{
		Dir:        dir,
		MaxResults: maxResults,
	})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	opts := knowledge.QueryOptions{
		Query:      queryText,
		MaxResults: limit,
	}

	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		opts.Since = time.Now().Add(-since)
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	knowledgeCmd.PersistentFlags().String("dir", "", "archive base directory (default from config)")
	knowledgeCmd.PersistentFlags().Int("max-results", 0, "maximum number of list results (0 = use default)")

	// List flags.
	knowledgeListCmd.Flags().String("query", "", "full-text search over query, title, and summary")
	knowledgeListCmd.Flags().Duration("since", 0, "only reports generated within this duration (e.g. 72h)")
	knowledgeListCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	knowledgeListCmd.Flags().Bool("json", false, "output results as JSON")

	// Show flags.
	knowledgeShowCmd.Flags().Bool("json", false, "output the report as JSON")

	// Export flags.
	knowledgeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	knowledgeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	knowledgeExportCmd.Flags().Duration("since", 0, "only reports generated within this duration")
	knowledgeExportCmd.Flags().Int("limit", 0, "maximum reports to export (0 = all)")

	// Wire subcommands.
	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeShowCmd)
	knowledgeCmd.AddCommand(knowledgeDeleteCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
