// Package orchestrator wires every pipeline stage into the query state
// machine: ServiceRegistry builds and owns the long-lived collaborators,
// Orchestrator drives one query through them.
package orchestrator

import (
	"fmt"

	"github.com/nobellm-ai/nobellm-query/internal/audit"
	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/embedclient"
	"github.com/nobellm-ai/nobellm-query/internal/intentclass"
	"github.com/nobellm-ai/nobellm-query/internal/llmclient"
	"github.com/nobellm-ai/nobellm-query/internal/metadatahandler"
	"github.com/nobellm-ai/nobellm-query/internal/metadatastore"
	"github.com/nobellm-ai/nobellm-query/internal/observability"
	"github.com/nobellm-ai/nobellm-query/internal/prompt"
	"github.com/nobellm-ai/nobellm-query/internal/retrieval"
	"github.com/nobellm-ai/nobellm-query/internal/thematic"
	"github.com/nobellm-ai/nobellm-query/internal/vectorstore"
)

// ServiceRegistry holds every constructor-injected collaborator the
// Orchestrator needs, replacing the package-level singleton pattern
// with explicit dependency wiring per the Design Notes.
type ServiceRegistry struct {
	Config *config.Config

	MetadataStore metadatastore.Store
	VectorStore   vectorstore.Store
	EmbedClient   *embedclient.Client
	LLMClient     *llmclient.Client

	Classifier *intentclass.Classifier
	Expander   *thematic.Expander
	Retriever  *retrieval.Retriever
	Handler    *metadatahandler.Handler
	Builder    *prompt.Builder

	Audit   *audit.Logger
	Metrics *observability.Metrics
}

// Close releases every owned resource. Safe to call once during
// graceful shutdown.
func (r *ServiceRegistry) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.MetadataStore != nil {
		record(r.MetadataStore.Close())
	}
	if r.VectorStore != nil {
		record(r.VectorStore.Close())
	}
	if r.Audit != nil {
		record(r.Audit.Close())
	}
	return firstErr
}

// Build constructs a ServiceRegistry from a validated Config. Every
// remote/disk dependency is created exactly once here; nothing in the
// Orchestrator or downstream handlers reaches for global state.
func Build(cfg *config.Config) (*ServiceRegistry, error) {
	metaStore, err := metadatastore.New(cfg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("build metadata store: %w", err)
	}

	vecStore, err := vectorstore.New(cfg.VectorStore, cfg.Model.Dimension)
	if err != nil {
		return nil, fmt.Errorf("build vector store: %w", err)
	}

	embedClient := embedclient.New(cfg.Embedding, cfg.Model.Dimension)
	llmClient := llmclient.New(cfg.LLM)

	cues, err := loadCueSet(cfg.IntentCues.CuesPath)
	if err != nil {
		return nil, fmt.Errorf("load intent cues: %w", err)
	}

	laureateNames := laureateNamesOf(metaStore.All())
	classifier := intentclass.New(cues, intentclass.NewLaureateIndex(laureateNames))

	themes, embeddings := loadThemeAssets(cfg.Theme)
	if embeddings != nil {
		if verr := thematic.ValidateEmbeddings(embeddings, cfg.Model.Dimension); verr != nil {
			return nil, fmt.Errorf("validate theme embeddings: %w", verr)
		}
	}
	var expander *thematic.Expander
	if themes != nil {
		expander = thematic.New(themes, embeddings, embedClient)
	}

	retriever := retrieval.New(vecStore, retrieval.WithTopKPerTerm(cfg.Retrieval.TopKPerTerm))

	catalog, err := loadPromptCatalog(cfg.Prompt.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load prompt catalog: %w", err)
	}
	builder := prompt.New(catalog)

	metaHandler := metadatahandler.New(metaStore)

	auditSink, err := audit.NewFileSink(cfg.Audit.LogDir)
	if err != nil {
		return nil, fmt.Errorf("build audit sink: %w", err)
	}
	auditLogger := audit.NewLogger(auditSink)

	metrics := observability.NewMetrics()

	return &ServiceRegistry{
		Config:        cfg,
		MetadataStore: metaStore,
		VectorStore:   vecStore,
		EmbedClient:   embedClient,
		LLMClient:     llmClient,
		Classifier:    classifier,
		Expander:      expander,
		Retriever:     retriever,
		Handler:       metaHandler,
		Builder:       builder,
		Audit:         auditLogger,
		Metrics:       metrics,
	}, nil
}

func laureateNamesOf(records []domain.LaureateRecord) []string {
	seen := make(map[string]bool, len(records))
	names := make([]string, 0, len(records))
	for _, r := range records {
		if !seen[r.Laureate] {
			seen[r.Laureate] = true
			names = append(names, r.Laureate)
		}
	}
	return names
}

// loadCueSet falls back to the built-in cue table when no cues_path
// file is present on disk, so a fresh checkout runs without requiring
// operators to hand-author configuration first.
func loadCueSet(path string) (*intentclass.CueSet, error) {
	cs, err := intentclass.LoadCueSet(path)
	if err == nil {
		return cs, nil
	}
	return intentclass.DefaultCueSet(), nil
}

func loadThemeAssets(paths config.ThemeConfigPaths) (*domain.ThemeConfig, *domain.ThemeEmbeddings) {
	themes, err := thematic.LoadThemeConfig(paths.ConfigPath)
	if err != nil {
		return nil, nil
	}
	embeddings, err := thematic.LoadThemeEmbeddings(paths.EmbeddingsPath)
	if err != nil {
		return themes, nil
	}
	return themes, embeddings
}

func loadPromptCatalog(path string) (*prompt.Catalog, error) {
	catalog, err := prompt.LoadCatalog(path)
	if err == nil {
		return catalog, nil
	}
	return prompt.DefaultCatalog(), nil
}
