package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/audit"
	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/embedclient"
	"github.com/nobellm-ai/nobellm-query/internal/intentclass"
	"github.com/nobellm-ai/nobellm-query/internal/llmclient"
	"github.com/nobellm-ai/nobellm-query/internal/metadatahandler"
	"github.com/nobellm-ai/nobellm-query/internal/observability"
	"github.com/nobellm-ai/nobellm-query/internal/orchestrator"
	"github.com/nobellm-ai/nobellm-query/internal/prompt"
	"github.com/nobellm-ai/nobellm-query/internal/ratelimit"
	"github.com/nobellm-ai/nobellm-query/internal/retrieval"
)

type stubMetadataStore struct{ records []domain.LaureateRecord }

func (s *stubMetadataStore) All() []domain.LaureateRecord             { return s.records }
func (s *stubMetadataStore) ByYear(int) []domain.LaureateRecord       { return nil }
func (s *stubMetadataStore) ByLaureate(string) *domain.LaureateRecord { return nil }
func (s *stubMetadataStore) Close() error                             { return nil }

type emptySearchStore struct{}

func (s *emptySearchStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	return nil, nil
}

func testOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.LLM.APIKey = "test-key"

	meta := &stubMetadataStore{}
	classifier := intentclass.New(intentclass.DefaultCueSet(), intentclass.NewLaureateIndex(nil))

	registry := &orchestrator.ServiceRegistry{
		Config:        cfg,
		MetadataStore: meta,
		EmbedClient:   embedclient.New(cfg.Embedding, 0),
		LLMClient:     llmclient.New(cfg.LLM),
		Classifier:    classifier,
		Retriever:     retrieval.New(&emptySearchStore{}),
		Handler:       metadatahandler.New(meta),
		Builder:       prompt.New(prompt.DefaultCatalog()),
		Audit:         audit.NewLogger(audit.NewMemorySink()),
		Metrics:       observability.NewMetrics(),
	}
	return orchestrator.New(registry)
}

func TestHealthz(t *testing.T) {
	cfg := config.ServerConfig{}
	cfg.SetDefaults()

	srv := New(cfg, testOrchestrator(t), nil, "", nil)
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQueryValidationError(t *testing.T) {
	cfg := config.ServerConfig{}
	cfg.SetDefaults()

	srv := New(cfg, testOrchestrator(t), nil, "", nil)
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	body, _ := json.Marshal(map[string]string{"query": ""})
	resp, err := http.Post(ts.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var decoded errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "ValidationError", decoded.Error.Kind)
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	cfg := config.ServerConfig{}
	cfg.SetDefaults()

	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0, Burst: 1})
	srv := New(cfg, testOrchestrator(t), nil, "", limiter)
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	body, _ := json.Marshal(map[string]string{"query": ""})
	http.Post(ts.URL+"/query", "application/json", bytes.NewReader(body))
	resp, err := http.Post(ts.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestShutdownGraceful(t *testing.T) {
	cfg := config.ServerConfig{}
	cfg.SetDefaults()
	cfg.Port = 0

	srv := New(cfg, testOrchestrator(t), nil, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
