package orchestrator

import (
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
	"github.com/nobellm-ai/nobellm-query/internal/prompt"
	"github.com/nobellm-ai/nobellm-query/internal/retrieval"
)

type fakeMetadataStore struct {
	records []domain.LaureateRecord
}

func (s *fakeMetadataStore) All() []domain.LaureateRecord { return s.records }

func (s *fakeMetadataStore) ByYear(year int) []domain.LaureateRecord {
	var out []domain.LaureateRecord
	for _, r := range s.records {
		if r.YearAwarded == year {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeMetadataStore) ByLaureate(name string) *domain.LaureateRecord {
	for _, r := range s.records {
		if r.Laureate == name {
			cp := r
			return &cp
		}
	}
	return nil
}

func (s *fakeMetadataStore) Close() error { return nil }

type fakeVectorStore struct {
	chunks []domain.ScoredChunk
}

func (s *fakeVectorStore) Upsert(ctx context.Context, chunk domain.Chunk) error { return nil }

func (s *fakeVectorStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	out := s.chunks
	if topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

func (s *fakeVectorStore) Close() error { return nil }

func fakeEmbedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": make([]float32, 4)})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRegistry(t *testing.T, llmURL string) (*ServiceRegistry, *audit.MemorySink) {
	t.Helper()

	metaStore := &fakeMetadataStore{records: []domain.LaureateRecord{
		{Laureate: "Toni Morrison", YearAwarded: 1993, Country: "USA", CountryFlag: "us", Category: "Literature", PrizeMotivation: "for novels"},
	}}

	vecStore := &fakeVectorStore{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{ChunkID: "c1", Text: "On courage and memory.", Laureate: "Toni Morrison", YearAwarded: 1993, SourceType: domain.SourceNobelLecture}, Score: 0.9},
	}}

	cues := intentclass.DefaultCueSet()
	classifier := intentclass.New(cues, intentclass.NewLaureateIndex([]string{"Toni Morrison"}))

	sink := audit.NewMemorySink()

	embedSrv := fakeEmbedServer(t)

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = llmURL
	cfg.Embedding.ServiceURL = embedSrv.URL

	registry := &ServiceRegistry{
		Config:        cfg,
		MetadataStore: metaStore,
		VectorStore:   vecStore,
		EmbedClient:   embedclient.New(cfg.Embedding, 0),
		LLMClient:     llmclient.New(cfg.LLM),
		Classifier:    classifier,
		Retriever:     retrieval.New(vecStore),
		Handler:       metadatahandler.New(metaStore),
		Builder:       prompt.New(prompt.DefaultCatalog()),
		Audit:         audit.NewLogger(sink),
		Metrics:       observability.NewMetrics(),
	}
	return registry, sink
}

func TestHandleQueryMetadataPath(t *testing.T) {
	registry, sink := testRegistry(t, "")
	orch := New(registry)

	resp, err := orch.HandleQuery(context.Background(), Request{Query: "Who won in 1993?"})
	require.NoError(t, err)

	assert.Equal(t, "metadata", resp.AnswerType)
	require.NotNil(t, resp.MetadataAnswer)
	assert.Equal(t, "Toni Morrison", resp.MetadataAnswer.Laureate)
	assert.NotEmpty(t, resp.TraceID)

	traces := sink.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, audit.EventQueryReceived, traces[0].FirstKind())
	assert.Equal(t, audit.EventAnswerAssembled, traces[0].LastKind())
}

func TestHandleQueryRAGPath(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Courage recurs across these speeches."}},
			},
			"usage": map[string]int{"prompt_tokens": 42, "completion_tokens": 8},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer llmSrv.Close()

	registry, sink := testRegistry(t, llmSrv.URL)
	orch := New(registry)

	resp, err := orch.HandleQuery(context.Background(), Request{Query: "What is the meaning of courage in these speeches?"})
	require.NoError(t, err)

	assert.Equal(t, "rag", resp.AnswerType)
	assert.Equal(t, "Courage recurs across these speeches.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "c1", resp.Sources[0].ChunkID)

	traces := sink.Traces()
	require.Len(t, traces, 1)
	assert.True(t, traces[0].HasKind(audit.EventLLMCalled))
	assert.Equal(t, audit.EventAnswerAssembled, traces[0].LastKind())
}

func TestHandleQueryValidationError(t *testing.T) {
	registry, sink := testRegistry(t, "")
	orch := New(registry)

	_, err := orch.HandleQuery(context.Background(), Request{Query: ""})
	require.Error(t, err)

	stageErr, ok := err.(*domain.StageError)
	require.True(t, ok)
	assert.Equal(t, domain.KindValidation, stageErr.Kind)
	assert.Equal(t, 400, stageErr.HTTPStatus())

	traces := sink.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, audit.EventError, traces[0].LastKind())
}

func TestHandleQueryLLMFailurePropagates(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer llmSrv.Close()

	registry, _ := testRegistry(t, llmSrv.URL)
	orch := New(registry)

	_, err := orch.HandleQuery(context.Background(), Request{Query: "What is the meaning of courage in these speeches?"})
	require.Error(t, err)

	stageErr, ok := err.(*domain.StageError)
	require.True(t, ok)
	assert.Equal(t, domain.KindLLM, stageErr.Kind)
}

func TestHandleQueryRespectsWholeRequestTimeout(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer llmSrv.Close()

	registry, _ := testRegistry(t, llmSrv.URL)
	orch := New(registry)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := orch.HandleQuery(ctx, Request{Query: "What is the meaning of courage in these speeches?"})
	require.Error(t, err)
}
