// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a raw research topic into an optimized research
// prompt plus a suggested report structure.
// Implements: prd004-agent R1; docs/ARCHITECTURE.md § Planning.
package plan

import (
	"context"
	"fmt"

	"github.com/pdiddy/deep-research/internal/faults"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/rank"
)

// Plan is the optimization output for one research topic.
type Plan struct {
	Query              string   `json:"query"`
	OptimizedPrompt    string   `json:"optimizedPrompt"`
	Explanation        string   `json:"explanation"`
	SuggestedStructure []string `json:"suggestedStructure"`
}

// Planner optimizes research topics through a generation backend.
type Planner struct {
	gen   llm.Generator
	model string
}

// NewPlanner builds a Planner on the given backend and platform-qualified
// model identifier.
func NewPlanner(gen llm.Generator, model string) *Planner {
	return &Planner{gen: gen, model: model}
}

const planPromptFmt = `You are a research assistant helping to optimize a research topic into an effective research plan.

Research Topic: "%s"

Produce:
1. A concise search query capturing the core information need (suitable for a web search engine)
2. An optimized research prompt that makes the scope, angle, and desired depth explicit
3. A brief explanation of how you interpreted the topic
4. A suggested report structure as a list of section titles

Format your response as a JSON object with this structure:
{
  "query": "the search query",
  "optimizedPrompt": "the optimized research prompt",
  "explanation": "how the topic was interpreted",
  "suggestedStructure": ["Section 1", "Section 2"]
}`

// Optimize produces a research plan for the topic. The response is scanned
// for the first valid JSON object; a Parse fault surfaces when the model
// returns none.
func (p *Planner) Optimize(ctx context.Context, topic string) (Plan, error) {
	if topic == "" {
		return Plan{}, faults.New(faults.Validation, "topic is required")
	}

	raw, err := p.gen.Generate(ctx, fmt.Sprintf(planPromptFmt, topic), p.model)
	if err != nil {
		return Plan{}, fmt.Errorf("optimizing topic: %w", err)
	}

	var plan Plan
	if err := rank.ExtractJSON(raw, &plan); err != nil {
		return Plan{}, err
	}
	if plan.Query == "" {
		plan.Query = topic
	}
	if plan.OptimizedPrompt == "" {
		plan.OptimizedPrompt = topic
	}
	return plan, nil
}
