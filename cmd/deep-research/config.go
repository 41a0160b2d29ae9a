// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "deep-research/0.1"
)

// pipelineConfig assembles the full configuration from the config file,
// environment, and .secrets/. It is built once per invocation and threaded
// into every component constructor; nothing reads configuration ambiently
// after this point.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("search.page_size", 10)
	viper.SetDefault("search.provider", "google")
	viper.SetDefault("search.fetch_all_cap", 100)
	viper.SetDefault("agent.model", "anthropic__claude-sonnet-4-5")
	viper.SetDefault("agent.max_selectable", 20)
	viper.SetDefault("agent.score_floor", 0.5)
	viper.SetDefault("agent.max_retries", 3)
	viper.SetDefault("agent.retry_base_delay", "1s")
	viper.SetDefault("fetch.max_content_bytes", 20000)
	viper.SetDefault("knowledge_base.dir", "knowledge")
	viper.SetDefault("knowledge_base.max_results", 20)
	viper.SetDefault("export.output_dir", "output/reports")
	viper.SetDefault("export.format", "txt")

	httpCfg := types.HTTPConfig{
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}
	if d := viper.GetDuration("http.timeout"); d > 0 {
		httpCfg.Timeout = d
	}
	if ua := viper.GetString("http.user_agent"); ua != "" {
		httpCfg.UserAgent = ua
	}

	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:    httpCfg,
			PageSize:      viper.GetInt("search.page_size"),
			Provider:      viper.GetString("search.provider"),
			IncludePubMed: viper.GetBool("search.include_pubmed"),
			FetchAllCap:   viper.GetInt("search.fetch_all_cap"),
			GoogleAPIKey:  secretDefault("google-search-api-key", viper.GetString("search.google_api_key")),
			GoogleCX:      secretDefault("google-search-cx", viper.GetString("search.google_cx")),
			BingAPIKey:    secretDefault("bing-api-key", viper.GetString("search.bing_api_key")),
			ExaAPIKey:     secretDefault("exa-api-key", viper.GetString("search.exa_api_key")),
			PubMedAPIKey:  secretDefault("pubmed-api-key", viper.GetString("search.pubmed_api_key")),
			PubMedEmail:   secretDefault("pubmed-email", viper.GetString("search.pubmed_email")),
		},
		Agent: types.AgentConfig{
			AIConfig: types.AIConfig{
				Model:           viper.GetString("agent.model"),
				AnthropicAPIKey: secretDefault("anthropic-api-key", viper.GetString("agent.anthropic_api_key")),
				OpenAIAPIKey:    secretDefault("openai-api-key", viper.GetString("agent.openai_api_key")),
			},
			MaxSelectable:  viper.GetInt("agent.max_selectable"),
			ScoreFloor:     viper.GetFloat64("agent.score_floor"),
			MaxRetries:     viper.GetInt("agent.max_retries"),
			RetryBaseDelay: viper.GetDuration("agent.retry_base_delay"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig:      httpCfg,
			MaxContentBytes: viper.GetInt("fetch.max_content_bytes"),
		},
		KnowledgeBase: types.KnowledgeBaseConfig{
			Dir:        viper.GetString("knowledge_base.dir"),
			MaxResults: viper.GetInt("knowledge_base.max_results"),
		},
		Export: types.ExportConfig{
			OutputDir: viper.GetString("export.output_dir"),
			Format:    types.ExportFormat(viper.GetString("export.format")),
		},
	}
}
