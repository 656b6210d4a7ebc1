package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// WeaviateStore implements Store over Weaviate's HTTP/GraphQL API directly
// over net/http, using the same request/response shapes as other
// HTTP-backed stores in this package.
type WeaviateStore struct {
	baseURL    string
	apiKey     string
	class      string
	dimension  int
	httpClient *http.Client
}

// NewWeaviateStore builds a WeaviateStore. The chunk "collection" maps
// to a Weaviate class name.
func NewWeaviateStore(cfg config.VectorStoreConfig, dimension int) (*WeaviateStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("vector_store.url is required for weaviate")
	}
	return &WeaviateStore{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		class:      weaviateClassName(cfg.Collection),
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// weaviateClassName capitalizes the first letter, since Weaviate
// classes must start with an uppercase letter.
func weaviateClassName(collection string) string {
	if collection == "" {
		return "NobellmChunk"
	}
	r := []rune(collection)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

func (s *WeaviateStore) authHeader(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

// Upsert stores a chunk's embedding and metadata as a Weaviate object.
func (s *WeaviateStore) Upsert(ctx context.Context, chunk domain.Chunk) error {
	payload := map[string]any{
		"id":         chunk.ChunkID,
		"class":      s.class,
		"properties": chunkToPlainMetadata(chunk),
		"vector":     chunk.Embedding,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal weaviate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/objects", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build weaviate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate upsert request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weaviate upsert failed: status %d, body %s", resp.StatusCode, respBody)
	}
	return nil
}

// Search runs a GraphQL nearVector query. The laureate filter is
// pushed down as a `where` clause; ranges/sets are post-filtered.
func (s *WeaviateStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	n := topK
	if n <= 0 {
		n = 1
	}
	fetchN := n
	if filter.YearMin != 0 || filter.YearMax != 0 || len(filter.SourceTypes) > 0 {
		fetchN = n * 4
	}

	fields := "_additional { id certainty } laureate yearAwarded countryFlag country gender category prizeMotivation sourceType specificWorkCited text"
	graphqlQuery := fmt.Sprintf(`{ Get { %s(limit: %d, nearVector: {vector: %s}%s) { %s } } }`,
		s.class, fetchN, floatArrayJSON(vector), weaviateWhereClause(filter), fields)

	body, err := json.Marshal(map[string]string{"query": graphqlQuery})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weaviate query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build weaviate query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "weaviate search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable,
			fmt.Sprintf("weaviate search failed: status %d, body %s", resp.StatusCode, respBody), nil)
	}

	var parsed weaviateGraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode weaviate response: %w", err)
	}

	objects := parsed.Data.Get[s.class]
	out := make([]domain.ScoredChunk, 0, len(objects))
	for _, obj := range objects {
		chunk := weaviateObjectToChunk(obj)
		if !matchesFilter(chunk, filter) {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: float32(obj.Additional.Certainty)})
	}

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

func weaviateWhereClause(filter domain.RetrievalFilter) string {
	if filter.Laureate == "" {
		return ""
	}
	return fmt.Sprintf(`, where: {path: ["laureate"], operator: Equal, valueText: %q}`, filter.Laureate)
}

func floatArrayJSON(vec []float32) string {
	b, _ := json.Marshal(vec)
	return string(b)
}

type weaviateObject struct {
	Additional struct {
		ID        string  `json:"id"`
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
	Laureate          string `json:"laureate"`
	YearAwarded       any    `json:"yearAwarded"`
	Country           string `json:"country"`
	CountryFlag       string `json:"countryFlag"`
	Gender            string `json:"gender"`
	Category          string `json:"category"`
	PrizeMotivation   string `json:"prizeMotivation"`
	SourceType        string `json:"sourceType"`
	SpecificWorkCited bool   `json:"specificWorkCited"`
	Text              string `json:"text"`
}

type weaviateGraphQLResponse struct {
	Data struct {
		Get map[string][]weaviateObject `json:"Get"`
	} `json:"data"`
}

func weaviateObjectToChunk(obj weaviateObject) domain.Chunk {
	year := 0
	switch v := obj.YearAwarded.(type) {
	case float64:
		year = int(v)
	case string:
		year, _ = strconv.Atoi(v)
	}
	return domain.Chunk{
		ChunkID:           obj.Additional.ID,
		Text:              obj.Text,
		SourceType:        domain.SourceType(obj.SourceType),
		Laureate:          obj.Laureate,
		YearAwarded:       year,
		Country:           obj.Country,
		CountryFlag:       obj.CountryFlag,
		Gender:            obj.Gender,
		Category:          obj.Category,
		PrizeMotivation:   obj.PrizeMotivation,
		SpecificWorkCited: obj.SpecificWorkCited,
	}
}

// Close releases no persistent connection; Weaviate is reached
// per-call over HTTP.
func (s *WeaviateStore) Close() error { return nil }
