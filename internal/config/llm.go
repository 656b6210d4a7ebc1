package config

import (
	"fmt"
	"os"
	"time"
)

// ModelPricing holds per-1K-token prices for one LLM model id, used by
// the LLM Client's cost accounting.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k"`
	CompletionPer1K float64 `yaml:"completion_per_1k"`
}

// LLMConfig configures internal/llmclient's chat-completion provider.
type LLMConfig struct {
	BaseURL    string                  `yaml:"base_url"`
	APIKey     string                  `yaml:"api_key"`
	ModelID    string                  `yaml:"model_id"`
	Timeout    time.Duration           `yaml:"timeout"`
	MaxRetries int                     `yaml:"max_retries"`
	Pricing    map[string]ModelPricing `yaml:"pricing"`
}

// defaultPricing is a small static table, deliberately not fetched
// remotely — per Design Notes, the precise table is operational and
// expected to evolve; this is a sane, overridable starting point.
var defaultPricing = map[string]ModelPricing{
	"gpt-4o":          {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
	"gpt-4o-mini":     {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
	"claude-3-5-sonnet": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
}

func (c *LLMConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("LLM_API_KEY")
	}
	if c.ModelID == "" {
		if envModel := os.Getenv("LLM_MODEL_ID"); envModel != "" {
			c.ModelID = envModel
		} else {
			c.ModelID = "gpt-4o-mini"
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 1
	}
	if c.Pricing == nil {
		c.Pricing = defaultPricing
	} else {
		for model, price := range defaultPricing {
			if _, ok := c.Pricing[model]; !ok {
				c.Pricing[model] = price
			}
		}
	}
}

func (c *LLMConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("llm.model_id is required")
	}
	return nil
}

// PriceFor returns the pricing entry for a model, falling back to the
// configured model's own entry if the requested one is unknown.
func (c *LLMConfig) PriceFor(modelID string) ModelPricing {
	if p, ok := c.Pricing[modelID]; ok {
		return p
	}
	return c.Pricing[c.ModelID]
}
