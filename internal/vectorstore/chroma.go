package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// ChromaStore implements Store over Chroma's HTTP API directly over
// net/http, using the same request/response shapes as other HTTP-backed
// stores in this package.
type ChromaStore struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// NewChromaStore builds a ChromaStore.
func NewChromaStore(cfg config.VectorStoreConfig) (*ChromaStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("vector_store.url is required for chroma")
	}
	return &ChromaStore{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *ChromaStore) newRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chroma payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chroma request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}
	return req, nil
}

// Upsert stores a chunk's embedding and metadata via Chroma's add API.
func (s *ChromaStore) Upsert(ctx context.Context, chunk domain.Chunk) error {
	payload := map[string]any{
		"ids":        []string{chunk.ChunkID},
		"embeddings": [][]float32{chunk.Embedding},
		"documents":  []string{chunk.Text},
		"metadatas":  []map[string]any{chunkToPlainMetadata(chunk)},
	}

	req, err := s.newRequest(ctx, fmt.Sprintf("/api/v1/collections/%s/add", s.collection), payload)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma upsert request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma upsert failed: status %d, body %s", resp.StatusCode, body)
	}
	return nil
}

// Search queries Chroma's query API and applies the filter
// server-side via `where` for laureate equality, post-filtering the
// rest.
func (s *ChromaStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	n := topK
	if n <= 0 {
		n = 1
	}
	fetchN := n
	if filter.YearMin != 0 || filter.YearMax != 0 || len(filter.SourceTypes) > 0 {
		fetchN = n * 4
	}

	payload := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        fetchN,
	}
	if filter.Laureate != "" {
		payload["where"] = map[string]any{"laureate": filter.Laureate}
	}

	req, err := s.newRequest(ctx, fmt.Sprintf("/api/v1/collections/%s/query", s.collection), payload)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "chroma search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable,
			fmt.Sprintf("chroma search failed: status %d, body %s", resp.StatusCode, body), nil)
	}

	var parsed chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chroma response: %w", err)
	}

	out := chromaResponseToScoredChunks(parsed, filter)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ChunkID < out[j].Chunk.ChunkID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type chromaQueryResponse struct {
	IDs        [][]string           `json:"ids"`
	Documents  [][]string           `json:"documents"`
	Metadatas  [][]map[string]any   `json:"metadatas"`
	Distances  [][]float32          `json:"distances"`
}

func chromaResponseToScoredChunks(resp chromaQueryResponse, filter domain.RetrievalFilter) []domain.ScoredChunk {
	if len(resp.IDs) == 0 {
		return nil
	}
	ids, docs, metas, dists := resp.IDs[0], resp.Documents[0], resp.Metadatas[0], resp.Distances[0]

	var out []domain.ScoredChunk
	for i := range ids {
		meta := map[string]string{}
		if i < len(metas) {
			for k, v := range metas[i] {
				meta[k] = fmt.Sprint(v)
			}
		}
		text := ""
		if i < len(docs) {
			text = docs[i]
		}
		chunk := metadataToChunk(ids[i], text, meta)
		if !matchesFilter(chunk, filter) {
			continue
		}
		score := float32(0)
		if i < len(dists) {
			// Chroma returns a distance; convert to a cosine-similarity-like
			// score (1 - distance) so results remain "higher is better".
			score = 1 - dists[i]
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: score})
	}
	return out
}

func chunkToPlainMetadata(c domain.Chunk) map[string]any {
	m := chunkToMetadata(c)
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Close releases no persistent connection; Chroma is reached per-call
// over HTTP.
func (s *ChromaStore) Close() error { return nil }
