package config

import (
	"fmt"
	"os"
)

// VectorStoreType identifies which backend implements internal/vectorstore.Store.
type VectorStoreType string

const (
	VectorStoreChromem  VectorStoreType = "chromem"
	VectorStoreQdrant   VectorStoreType = "qdrant"
	VectorStoreChroma   VectorStoreType = "chroma"
	VectorStorePinecone VectorStoreType = "pinecone"
	VectorStoreWeaviate VectorStoreType = "weaviate"
)

// VectorStoreConfig configures the chunk store backend.
type VectorStoreConfig struct {
	Type       VectorStoreType `yaml:"type"`
	URL        string          `yaml:"url"`
	APIKey     string          `yaml:"api_key"`
	Collection string          `yaml:"collection"`
	IndexPath  string          `yaml:"index_path"`
	PoolSize   int             `yaml:"pool_size"`

	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Pinecone PineconeConfig `yaml:"pinecone"`
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	UseTLS bool `yaml:"use_tls"`
}

// PineconeConfig configures the Pinecone backend.
type PineconeConfig struct {
	Namespace string `yaml:"namespace"`
}

func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = VectorStoreChromem
	}
	if c.Collection == "" {
		c.Collection = "nobellm_chunks"
	}
	if c.IndexPath == "" {
		c.IndexPath = "./data/chunks.index"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 4
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("VECTOR_STORE_API_KEY")
	}
	if c.URL == "" {
		c.URL = os.Getenv("VECTOR_STORE_URL")
	}
}

func (c *VectorStoreConfig) Validate() error {
	switch c.Type {
	case VectorStoreChromem:
		return nil
	case VectorStoreQdrant, VectorStoreChroma, VectorStorePinecone, VectorStoreWeaviate:
		if c.URL == "" {
			return fmt.Errorf("vector_store.url is required for type %q", c.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown vector_store.type %q", c.Type)
	}
}
