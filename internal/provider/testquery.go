// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// TestQueryPattern appears in every canned result URL. Downstream stages
// (ranking in particular) use it to recognize a test run and skip their
// external collaborators.
const TestQueryPattern = "example.com/test"

// IsTestQuery reports whether a query requests the deterministic canned
// results instead of a live provider call.
func IsTestQuery(query string) bool {
	return strings.EqualFold(strings.TrimSpace(query), "test")
}

// TestResults returns the three canned results served for the sentinel
// query "test". They allow exercising the full pipeline without spending
// provider quota or model tokens.
func TestResults() []types.SearchResult {
	return []types.SearchResult{
		{
			ID:      "test-1",
			URL:     "https://example.com/test-1",
			Name:    "Test Result 1",
			Snippet: "This is a test search result for testing purposes. It contains some sample text about research and analysis.",
		},
		{
			ID:      "test-2",
			URL:     "https://example.com/test-2",
			Name:    "Test Result 2",
			Snippet: "Another test result with different content. This one discusses methodology and data collection.",
		},
		{
			ID:      "test-3",
			URL:     "https://example.com/test-3",
			Name:    "Test Result 3",
			Snippet: "A third test result focusing on academic research and scientific papers.",
		},
	}
}
