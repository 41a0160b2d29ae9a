package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := types.KnowledgeBaseConfig{
		Dir:        filepath.Join(tmpDir, "knowledge"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func sampleReport(title string) types.Report {
	return types.Report{
		Title:   title,
		Summary: "Efficient attention mechanisms reduce transformer computation cost.",
		Sections: []types.ReportSection{
			{Title: "Background", Content: "Softmax attention is quadratic in sequence length [1]."},
			{Title: "Findings", Content: "Linear approximations reach 89.2% accuracy on GLUE [2]."},
		},
		Sources: []types.ReportSource{
			{ID: "s1", URL: "https://example.org/attention", Name: "Attention Survey"},
			{ID: "s2", URL: "https://example.org/glue", Name: "GLUE Results"},
		},
		UsedSources: []int{1, 2},
	}
}

func saveHelper(t *testing.T, store *Store, query, title string) types.SavedReport {
	t.Helper()
	saved, err := store.Save(context.Background(), query, sampleReport(title))
	if err != nil {
		t.Fatal(err)
	}
	return saved
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"reports", "reports_fts"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "knowledge", indexDir, dbFile)

	cfg := types.KnowledgeBaseConfig{Dir: filepath.Join(tmpDir, "knowledge")}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", dbPath)
	}
}

// --- save/get tests ---

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	store, _ := testSetup(t)

	before := time.Now().UTC().Add(-time.Second)
	saved := saveHelper(t, store, "efficient attention", "Attention Report")

	if saved.ID == "" {
		t.Error("Save did not assign an ID")
	}
	if saved.Timestamp.Before(before) {
		t.Errorf("timestamp %v predates the save", saved.Timestamp)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store, _ := testSetup(t)
	saved := saveHelper(t, store, "efficient attention", "Attention Report")

	got, err := store.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != "efficient attention" {
		t.Errorf("Query = %q, want %q", got.Query, "efficient attention")
	}
	if got.Report.Title != "Attention Report" {
		t.Errorf("Title = %q, want %q", got.Report.Title, "Attention Report")
	}
	if len(got.Report.Sections) != 2 {
		t.Errorf("got %d sections, want 2", len(got.Report.Sections))
	}
	if len(got.Report.Sources) != 2 {
		t.Errorf("got %d sources, want 2", len(got.Report.Sources))
	}
	if len(got.Report.UsedSources) != 2 {
		t.Errorf("UsedSources = %v, want [1 2]", got.Report.UsedSources)
	}
}

func TestGetNotFound(t *testing.T) {
	store, _ := testSetup(t)

	_, err := store.Get(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("expected error for nonexistent report")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want 'not found'", err.Error())
	}
}

// --- list tests ---

func TestListNewestFirst(t *testing.T) {
	store, _ := testSetup(t)

	var ids []string
	for i := 0; i < 3; i++ {
		saved := saveHelper(t, store, fmt.Sprintf("query %d", i), fmt.Sprintf("Report %d", i))
		ids = append(ids, saved.ID)
		time.Sleep(5 * time.Millisecond)
	}

	results, err := store.List(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != ids[2] {
		t.Errorf("first result = %s, want newest %s", results[0].ID, ids[2])
	}
	if results[2].ID != ids[0] {
		t.Errorf("last result = %s, want oldest %s", results[2].ID, ids[0])
	}
}

func TestListFullTextSearch(t *testing.T) {
	store, _ := testSetup(t)
	saveHelper(t, store, "efficient attention mechanisms", "Attention Report")
	saveHelper(t, store, "solar panel efficiency", "Solar Report")

	tests := []struct {
		name      string
		query     string
		wantCount int
	}{
		{"matches query text", "attention", 1},
		{"matches title", "Solar", 1},
		{"matches both", "efficiency OR attention", 2},
		{"no match", "quantum xyzzy", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.List(context.Background(), QueryOptions{Query: tt.query})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestListSinceFilter(t *testing.T) {
	store, _ := testSetup(t)
	saveHelper(t, store, "old query", "Old Report")
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(10 * time.Millisecond)
	recent := saveHelper(t, store, "recent query", "Recent Report")

	results, err := store.List(context.Background(), QueryOptions{Since: cutoff})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != recent.ID {
		t.Errorf("result = %s, want %s", results[0].ID, recent.ID)
	}
}

func TestListRespectsMaxResults(t *testing.T) {
	store, _ := testSetup(t)
	for i := 0; i < 5; i++ {
		saveHelper(t, store, fmt.Sprintf("query %d", i), fmt.Sprintf("Report %d", i))
	}

	results, err := store.List(context.Background(), QueryOptions{MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("empty QueryOptions should report IsEmpty() = true")
	}
	if (QueryOptions{Query: "attention"}).IsEmpty() {
		t.Error("QueryOptions with a query should report IsEmpty() = false")
	}
}

// --- delete tests ---

func TestDelete(t *testing.T) {
	store, _ := testSetup(t)
	saved := saveHelper(t, store, "delete me", "Doomed Report")

	if err := store.Delete(context.Background(), saved.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(context.Background(), saved.ID); err == nil {
		t.Error("report still retrievable after delete")
	}

	// FTS search must not surface the deleted report either.
	results, err := store.List(context.Background(), QueryOptions{Query: "Doomed"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d FTS results after delete, want 0", len(results))
	}
}

func TestDeleteNotFound(t *testing.T) {
	store, _ := testSetup(t)

	err := store.Delete(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("expected error for nonexistent report")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want 'not found'", err.Error())
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, tmpDir := testSetup(t)
	saveHelper(t, store, "export query one", "Export Report One")
	saveHelper(t, store, "export query two", "Export Report Two")

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "knowledge", indexDir, "export.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Title == "" || e.Query == "" {
			t.Errorf("entry %s missing title or query", e.ID)
		}
		if e.Sections != 2 || e.Sources != 2 {
			t.Errorf("entry %s counts = (%d sections, %d sources), want (2, 2)", e.ID, e.Sections, e.Sources)
		}
	}
}

func TestExportJSON(t *testing.T) {
	store, tmpDir := testSetup(t)
	saveHelper(t, store, "export json query", "Export JSON Report")

	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "knowledge", indexDir, "export.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestExportFiltered(t *testing.T) {
	store, tmpDir := testSetup(t)
	saveHelper(t, store, "attention mechanisms", "Attention Report")
	saveHelper(t, store, "solar efficiency", "Solar Report")

	if err := store.ExportYAML(context.Background(), QueryOptions{Query: "attention"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "knowledge", indexDir, "export.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	yaml.Unmarshal(data, &entries)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !strings.Contains(entries[0].Query, "attention") {
		t.Errorf("entry query = %q, want an attention match", entries[0].Query)
	}
}
