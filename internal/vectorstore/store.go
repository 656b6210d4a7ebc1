// Package vectorstore implements the Vector Retriever's storage layer
// a common Store interface with interchangeable backends for
// chromem-go (embedded), Qdrant, Pinecone, Chroma, and Weaviate.
package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/registry"
)

// Store is the chunk corpus's read/write surface. Upsert is used only
// at startup/index-build time; query-time traffic only ever calls
// Search, matching the corpus's immutability guarantee at query time.
type Store interface {
	Upsert(ctx context.Context, chunk domain.Chunk) error
	Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error)
	Close() error
}

// backends holds the single active Store, registered under its
// config-declared type name so `validate` and diagnostics can report
// which backend is live without threading the config through again.
var backends = registry.NewBaseRegistry[Store]()

// New builds the configured Store backend and registers it by type
// name, replacing any previously registered backend (only one is ever
// active per process, per the resource discipline in spec.md §5: the
// vector store client is shared and long-lived, not swapped mid-query).
func New(cfg config.VectorStoreConfig, dimension int) (Store, error) {
	name := string(cfg.Type)
	if name == "" {
		name = string(config.VectorStoreChromem)
	}

	var store Store
	var err error
	switch cfg.Type {
	case config.VectorStoreChromem, "":
		store, err = NewChromemStore(cfg)
	case config.VectorStoreQdrant:
		store, err = NewQdrantStore(cfg, dimension)
	case config.VectorStorePinecone:
		store, err = NewPineconeStore(cfg)
	case config.VectorStoreChroma:
		store, err = NewChromaStore(cfg)
	case config.VectorStoreWeaviate:
		store, err = NewWeaviateStore(cfg, dimension)
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	backends.Clear()
	if err := backends.Register(name, store); err != nil {
		return nil, fmt.Errorf("register vector store backend: %w", err)
	}
	activeBackendName = name
	return store, nil
}

// activeBackendName is the type name New most recently registered.
var activeBackendName string

// Active reports the type name of the currently registered backend,
// used by the `validate` CLI command to confirm which store is live
// without the caller re-deriving it from config.
func Active() (name string, ok bool) {
	if activeBackendName == "" {
		return "", false
	}
	if _, found := backends.Get(activeBackendName); !found {
		return "", false
	}
	return activeBackendName, true
}

// matchesFilter applies metadata equality/range constraints as
// a post-filter, used by backends that cannot push the filter down to
// the store itself (or as a belt-and-braces check after a server-side
// filter).
func matchesFilter(c domain.Chunk, filter domain.RetrievalFilter) bool {
	if filter.Laureate != "" && c.Laureate != filter.Laureate {
		return false
	}
	if len(filter.SourceTypes) > 0 {
		found := false
		for _, st := range filter.SourceTypes {
			if c.SourceType == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.YearMin != 0 && c.YearAwarded < filter.YearMin {
		return false
	}
	if filter.YearMax != 0 && c.YearAwarded > filter.YearMax {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
