// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/deep-research/internal/faults"
)

// OpenAIBackend calls the OpenAI chat completions API.
type OpenAIBackend struct {
	apiKey string
	client *openai.Client
}

// NewOpenAIBackend builds the backend. The client is created lazily-safe:
// an empty key still constructs, and Generate reports Misconfigured.
func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	b := &OpenAIBackend{apiKey: apiKey}
	if apiKey != "" {
		b.client = openai.NewClient(apiKey)
	}
	return b
}

// Generate sends one prompt as a single user message.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt, model string) (string, error) {
	if b.client == nil {
		return "", faults.New(faults.Misconfigured, "openai generation requires openai-api-key")
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", faults.New(faults.RateLimited, "OpenAI API rate limit exceeded")
		}
		return "", faults.Wrap(faults.Upstream, fmt.Errorf("calling OpenAI API: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", faults.New(faults.Upstream, "OpenAI API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
