package config

import (
	"fmt"
	"os"
	"time"
)

// EmbeddingConfig configures the remote embedding service client
// (internal/embedclient) contract and concurrency policy.
type EmbeddingConfig struct {
	ServiceURL        string        `yaml:"service_url"`
	APIKey            string        `yaml:"api_key"`
	MaxTextLength     int           `yaml:"max_text_length"`
	Timeout           time.Duration `yaml:"timeout"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	InterCallSpacing  time.Duration `yaml:"inter_call_spacing"`
	SerializedCalls   int           `yaml:"serialized_calls"`
	MaxConcurrency    int           `yaml:"max_concurrency"`
	LocalFallback     bool          `yaml:"local_fallback"`
}

func (c *EmbeddingConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("EMBEDDING_API_KEY")
	}
	if c.ServiceURL == "" {
		c.ServiceURL = os.Getenv("EMBEDDING_SERVICE_URL")
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = 2000
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.InterCallSpacing == 0 {
		c.InterCallSpacing = 250 * time.Millisecond
	}
	if c.SerializedCalls == 0 {
		c.SerializedCalls = 4
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 3
	}
}

func (c *EmbeddingConfig) Validate() error {
	if c.ServiceURL == "" && !c.LocalFallback {
		return fmt.Errorf("embedding.service_url is required unless local_fallback is enabled")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("embedding.max_concurrency must be positive")
	}
	return nil
}
