package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// QdrantStore implements Store over a Qdrant cluster.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore builds a QdrantStore, parsing host/port from cfg.URL.
func NewQdrantStore(cfg config.VectorStoreConfig, dimension int) (*QdrantStore, error) {
	host, port := splitHostPort(cfg.URL, 6334)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client for %s:%d: %w", host, port, err)
	}

	store := &QdrantStore{client: client, collection: cfg.Collection}
	if err := store.ensureCollection(context.Background(), dimension); err != nil {
		return nil, err
	}
	return store, nil
}

func splitHostPort(url string, defaultPort int) (string, int) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	parts := strings.SplitN(trimmed, ":", 2)
	host := parts[0]
	if host == "" {
		host = "localhost"
	}
	port := defaultPort
	if len(parts) == 2 {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	return host, port
}

func (s *QdrantStore) ensureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}
	return nil
}

// Upsert stores a chunk's embedding and metadata as a Qdrant point.
func (s *QdrantStore) Upsert(ctx context.Context, chunk domain.Chunk) error {
	payload := map[string]*qdrant.Value{}
	for k, v := range map[string]any{
		"laureate":            chunk.Laureate,
		"year_awarded":        int64(chunk.YearAwarded),
		"country":             chunk.Country,
		"country_flag":        chunk.CountryFlag,
		"gender":              chunk.Gender,
		"category":            chunk.Category,
		"prize_motivation":    chunk.PrizeMotivation,
		"source_type":         string(chunk.SourceType),
		"specific_work_cited": chunk.SpecificWorkCited,
		"text":                chunk.Text,
	} {
		val, err := qdrant.NewValue(v)
		if err != nil {
			return fmt.Errorf("failed to convert metadata value for key %s: %w", k, err)
		}
		payload[k] = val
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(chunk.ChunkID),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: payload,
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// buildQdrantFilter expresses the laureate equality constraint
// server-side; year ranges and source_type sets are post-filtered,
// matching the allowance ("applied server-side where the store
// supports it, else post-filter").
func buildQdrantFilter(filter domain.RetrievalFilter) *qdrant.Filter {
	if filter.Laureate == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "laureate",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: filter.Laureate},
						},
					},
				},
			},
		},
	}
}

// Search runs kNN search with a server-side filter where expressible.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	n := topK
	if n <= 0 {
		n = 1
	}
	fetchLimit := uint64(n)
	if len(filter.SourceTypes) > 0 || filter.YearMin != 0 || filter.YearMax != 0 {
		fetchLimit = uint64(n * 4)
	}

	searchRequest := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          fetchLimit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildQdrantFilter(filter),
	}

	pointsClient := s.client.GetPointsClient()
	searchResult, err := pointsClient.Search(ctx, searchRequest)
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "qdrant search failed", err)
	}

	out := make([]domain.ScoredChunk, 0, len(searchResult.Result))
	for _, point := range searchResult.Result {
		chunk := qdrantPointToChunk(point)
		if !matchesFilter(chunk, filter) {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: point.Score})
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

func qdrantPointToChunk(point *qdrant.ScoredPoint) domain.Chunk {
	meta := map[string]string{}
	for key, value := range point.Payload {
		switch v := value.Kind.(type) {
		case *qdrant.Value_StringValue:
			meta[key] = v.StringValue
		case *qdrant.Value_IntegerValue:
			meta[key] = strconv.FormatInt(v.IntegerValue, 10)
		case *qdrant.Value_BoolValue:
			meta[key] = strconv.FormatBool(v.BoolValue)
		}
	}

	var id string
	if point.Id != nil && point.Id.PointIdOptions != nil {
		switch idType := point.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			id = idType.Uuid
		case *qdrant.PointId_Num:
			id = strconv.FormatUint(idType.Num, 10)
		}
	}

	return metadataToChunk(id, meta["text"], meta)
}

// Close releases the Qdrant gRPC connection.
func (s *QdrantStore) Close() error { return s.client.Close() }
