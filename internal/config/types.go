// Package config provides the NobelLM Query Service's configuration
// types, loader, and env/file/remote providers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration document, decoded from YAML/JSON by
// the Loader after environment-variable expansion.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Model        ModelConfig        `yaml:"model"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	VectorStore  VectorStoreConfig  `yaml:"vector_store"`
	Metadata     MetadataConfig     `yaml:"metadata"`
	LLM          LLMConfig          `yaml:"llm"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Audit        AuditConfig        `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Theme        ThemeConfigPaths   `yaml:"theme"`
	Prompt       PromptConfig       `yaml:"prompt"`
	IntentCues   IntentCuesConfig   `yaml:"intent_cues"`
}

// SetDefaults applies defaults across the whole document.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Model.SetDefaults()
	c.Embedding.SetDefaults()
	c.VectorStore.SetDefaults()
	c.Metadata.SetDefaults()
	c.LLM.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Audit.SetDefaults()
	c.Observability.SetDefaults()
	c.RateLimit.SetDefaults()
	c.Theme.SetDefaults()
	c.Prompt.SetDefaults()
	c.IntentCues.SetDefaults()
}

// Validate checks the whole document for fatal inconsistencies. A
// failure here is a ConfigError raised at startup, never at query time.
func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.Model.Validate,
		c.Embedding.Validate,
		c.VectorStore.Validate,
		c.Metadata.Validate,
		c.LLM.Validate,
		c.Retrieval.Validate,
		c.Audit.Validate,
		c.RateLimit.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 95 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 90 * time.Second
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Port)
	}
	return nil
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// ModelConfig selects the active embedding model and its dimension.
type ModelConfig struct {
	ID        string `yaml:"id"`
	Dimension int    `yaml:"dimension"`
}

var modelDimensions = map[string]int{
	"bge-large": 1024,
	"miniLM":    384,
}

func (c *ModelConfig) SetDefaults() {
	if c.ID == "" {
		c.ID = "bge-large"
	}
	if c.Dimension == 0 {
		if dim, ok := modelDimensions[c.ID]; ok {
			c.Dimension = dim
		} else {
			c.Dimension = 1024
		}
	}
}

func (c *ModelConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("model.dimension must be positive, got %d", c.Dimension)
	}
	return nil
}

// RetrievalConfig holds the global retrieval defaults from the
// environment surface; the per-template-variant top_k defaults live in
// internal/retrieval's defaults table (DefaultTopK).
type RetrievalConfig struct {
	DefaultTopK           int     `yaml:"default_top_k"`
	DefaultScoreThreshold float64 `yaml:"default_score_threshold"`
	MaxQueryLength        int     `yaml:"max_query_length"`
	MinReturn             int     `yaml:"min_return"`
	RelaxedScoreFactor    float64 `yaml:"relaxed_score_factor"`
	TopKPerTerm           int     `yaml:"top_k_per_term"`
}

func (c *RetrievalConfig) SetDefaults() {
	if c.DefaultTopK == 0 {
		c.DefaultTopK = 5
	}
	if c.DefaultScoreThreshold == 0 {
		c.DefaultScoreThreshold = 0.2
	}
	if c.MaxQueryLength == 0 {
		c.MaxQueryLength = 1000
	}
	if c.MinReturn == 0 {
		c.MinReturn = 1
	}
	if c.RelaxedScoreFactor == 0 {
		c.RelaxedScoreFactor = 0.5
	}
	if c.TopKPerTerm == 0 {
		c.TopKPerTerm = 5
	}
}

func (c *RetrievalConfig) Validate() error {
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("retrieval.max_query_length must be positive")
	}
	return nil
}

// AuditConfig configures the append-only audit trace sink.
type AuditConfig struct {
	LogDir string `yaml:"log_dir"`
}

func (c *AuditConfig) SetDefaults() {
	if c.LogDir == "" {
		c.LogDir = "./audit"
	}
}

func (c *AuditConfig) Validate() error {
	if c.LogDir == "" {
		return fmt.Errorf("audit.log_dir is required")
	}
	return nil
}

// RateLimitConfig configures internal/ratelimit in front of the Query
// API — a supplemented feature, not part of the core contract.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

func (c *RateLimitConfig) SetDefaults() {
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
}

func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive")
	}
	return nil
}

// ThemeConfigPaths points at the ThemeConfig/ThemeEmbeddings documents
// on disk. They are read once when the service registry is built; the
// files are not watched and changes take effect only after a restart.
type ThemeConfigPaths struct {
	ConfigPath     string `yaml:"config_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
}

func (c *ThemeConfigPaths) SetDefaults() {
	if c.ConfigPath == "" {
		c.ConfigPath = "./config/themes.json"
	}
	if c.EmbeddingsPath == "" {
		c.EmbeddingsPath = "./config/theme_embeddings_bge-large.json"
	}
}

// PromptConfig points at the prompt template catalog.
type PromptConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

func (c *PromptConfig) SetDefaults() {
	if c.CatalogPath == "" {
		c.CatalogPath = "./config/prompt_templates.json"
	}
}

// IntentCuesConfig points at the intent-classifier cue configuration.
type IntentCuesConfig struct {
	CuesPath string `yaml:"cues_path"`
}

func (c *IntentCuesConfig) SetDefaults() {
	if c.CuesPath == "" {
		c.CuesPath = "./config/intent_cues.json"
	}
}
