// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts text-generation APIs behind one contract so the
// planning, ranking, and report stages stay provider-agnostic.
// Implements: prd003-ranking R1.1; docs/ARCHITECTURE.md § Generation.
package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Generator produces one text completion for one prompt. Implementations
// handle a single platform; model is the bare model name within it.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// SplitModel separates a platform-qualified identifier like
// "anthropic__claude-sonnet-4-5" into platform and model name.
func SplitModel(id string) (platform, model string) {
	parts := strings.SplitN(id, "__", 2)
	if len(parts) != 2 {
		return "", id
	}
	return parts[0], parts[1]
}

// Router dispatches platform-qualified model identifiers to the matching
// backend via a lookup table.
type Router struct {
	backends map[string]Generator
}

// NewRouter wires the configured platform backends. Platforms without
// credentials are still registered; they fail with a Misconfigured fault
// on first use.
func NewRouter(cfg types.AIConfig, client *http.Client) *Router {
	if client == nil {
		client = http.DefaultClient
	}
	return &Router{backends: map[string]Generator{
		"anthropic": &ClaudeBackend{APIKey: cfg.AnthropicAPIKey, Client: client},
		"openai":    NewOpenAIBackend(cfg.OpenAIAPIKey),
	}}
}

// Generate routes one prompt to the platform named in id.
func (r *Router) Generate(ctx context.Context, prompt, id string) (string, error) {
	platform, model := SplitModel(id)
	if platform == "" {
		return "", faults.New(faults.Validation, "model identifier %q is not platform-qualified", id)
	}
	backend, ok := r.backends[platform]
	if !ok {
		return "", faults.New(faults.Validation, "unknown platform %q", platform)
	}
	return backend.Generate(ctx, prompt, model)
}
