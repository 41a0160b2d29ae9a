// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider adapts external search services to one result schema.
// Implements: prd001-providers (R1-R5);
//
//	docs/ARCHITECTURE.md § Providers.
package provider

import (
	"context"
	"net/http"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ID names one provider in the closed enumeration. Adding a provider means
// adding a constant here and an entry in NewRegistry; dispatch everywhere
// else goes through the registry table.
type ID string

const (
	// Google is the primary web provider.
	Google ID = "google"

	// Bing is the secondary web provider.
	Bing ID = "bing"

	// Exa is the tertiary web provider.
	Exa ID = "exa"

	// PubMed is the biomedical literature provider.
	PubMed ID = "pubmed"
)

// TimeWindow is the abstract recency filter. Each adapter maps it to the
// provider's native vocabulary, choosing the closest coarser-or-equal
// granularity when there is no exact match and omitting the filter when
// nothing coarse enough exists. A narrower window than requested is never
// substituted. Per prd001-providers R2.1-R2.3.
type TimeWindow string

const (
	WindowDay       TimeWindow = "day"
	WindowWeek      TimeWindow = "week"
	WindowMonth     TimeWindow = "month"
	WindowSixMonths TimeWindow = "6months"
	WindowYear      TimeWindow = "12months"
	WindowFiveYears TimeWindow = "5years"
	WindowTenYears  TimeWindow = "10years"
	WindowAll       TimeWindow = "all"
)

// Filters carries the normalized request parameters. Page is 1-based;
// adapters convert it to the provider's native offset or cursor scheme.
type Filters struct {
	Window   TimeWindow
	Page     int
	PageSize int
}

// Offset returns the 0-based result offset for the filter's page.
func (f Filters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PageSize
}

// Page is one provider response: the normalized results plus the provider's
// reported total match count (an estimate for web providers).
type Page struct {
	Results      []types.SearchResult
	TotalResults int
}

// Provider searches a single external service. Each adapter implements this
// interface per the Strategy pattern (R1.2).
type Provider interface {
	ID() ID
	Search(ctx context.Context, query string, f Filters) (Page, error)
}

// Registry is the lookup table from provider ID to constructed adapter.
type Registry map[ID]Provider

// Lookup resolves an ID, returning a Validation fault for unknown names so
// callers surface a 400-style error rather than a panic.
func (r Registry) Lookup(id ID) (Provider, error) {
	p, ok := r[id]
	if !ok {
		return nil, faults.New(faults.Validation, "unknown provider %q", id)
	}
	return p, nil
}

// NewRegistry constructs every adapter from the immutable search config.
// Adapters with missing credentials are still registered; they surface a
// Misconfigured fault on first use so the error reaches the caller with
// context instead of silently narrowing the provider set.
func NewRegistry(cfg types.SearchConfig, client *http.Client) Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return Registry{
		Google: &GoogleProvider{Client: client, APIKey: cfg.GoogleAPIKey, CX: cfg.GoogleCX, UserAgent: cfg.UserAgent},
		Bing:   &BingProvider{Client: client, APIKey: cfg.BingAPIKey, Market: "en-US", UserAgent: cfg.UserAgent},
		Exa:    &ExaProvider{Client: client, APIKey: cfg.ExaAPIKey, UserAgent: cfg.UserAgent},
		PubMed: &PubMedProvider{Client: client, APIKey: cfg.PubMedAPIKey, Email: cfg.PubMedEmail, UserAgent: cfg.UserAgent},
	}
}
