// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"net/url"
	"sort"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultScoreFloor excludes weakly ranked results from automatic
// selection. Per prd003 R3.2.
const DefaultScoreFloor = 0.5

// DefaultMaxSelectable caps automatic selection size. Per prd003 R3.3.
const DefaultMaxSelectable = 20

// SelectDiverse picks up to maxCount results for deep analysis, walking in
// descending score order and admitting at most one result per hostname.
// Results at or below scoreFloor are skipped. A SelectionEmpty fault is
// returned when no result qualifies so the caller can distinguish "nothing
// good enough" from an empty candidate set.
func SelectDiverse(results []types.SearchResult, maxCount int, scoreFloor float64) ([]types.SearchResult, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxSelectable
	}

	ordered := make([]types.SearchResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	seenHosts := make(map[string]bool)
	selected := make([]types.SearchResult, 0, maxCount)
	for _, r := range ordered {
		if len(selected) >= maxCount {
			break
		}
		if r.Score <= scoreFloor {
			continue
		}
		host := hostOf(r.URL)
		if host != "" && seenHosts[host] {
			continue
		}
		if host != "" {
			seenHosts[host] = true
		}
		selected = append(selected, r)
	}

	if len(selected) == 0 {
		return nil, faults.New(faults.SelectionEmpty, "no results scored above %.2f", scoreFloor)
	}
	return selected, nil
}

// hostOf extracts the hostname for diversity bucketing. Unparseable URLs
// get an empty host and are never deduplicated against each other.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
