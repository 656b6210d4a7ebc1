package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// PineconeStore implements Store over a managed Pinecone index.
type PineconeStore struct {
	client    *pinecone.Client
	indexName string
	namespace string
}

// NewPineconeStore builds a PineconeStore.
func NewPineconeStore(cfg config.VectorStoreConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vector_store.api_key is required for pinecone")
	}

	params := pinecone.NewClientParams{ApiKey: cfg.APIKey}
	if cfg.URL != "" {
		params.Host = cfg.URL
	}

	client, err := pinecone.NewClient(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	indexName := cfg.Collection
	if indexName == "" {
		indexName = "nobellm-chunks"
	}

	return &PineconeStore{client: client, indexName: indexName, namespace: cfg.Pinecone.Namespace}, nil
}

func (s *PineconeStore) connection(ctx context.Context) (*pinecone.IndexConnection, error) {
	index, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe pinecone index %s: %w", s.indexName, err)
	}
	conn, err := s.client.Index(pinecone.NewIndexConnParams{Host: index.Host, Namespace: s.namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone index connection: %w", err)
	}
	return conn, nil
}

// Upsert stores a chunk's embedding and metadata as a Pinecone vector.
func (s *PineconeStore) Upsert(ctx context.Context, chunk domain.Chunk) error {
	conn, err := s.connection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	metadata, err := structpb.NewStruct(map[string]any{
		"laureate":            chunk.Laureate,
		"year_awarded":        chunk.YearAwarded,
		"country":             chunk.Country,
		"country_flag":        chunk.CountryFlag,
		"gender":              chunk.Gender,
		"category":            chunk.Category,
		"prize_motivation":    chunk.PrizeMotivation,
		"source_type":         string(chunk.SourceType),
		"specific_work_cited": chunk.SpecificWorkCited,
		"text":                chunk.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to convert chunk metadata: %w", err)
	}

	vector := &pinecone.Vector{Id: chunk.ChunkID, Values: chunk.Embedding, Metadata: metadata}
	if _, err := conn.UpsertVectors(ctx, []*pinecone.Vector{vector}); err != nil {
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}
	return nil
}

// Search queries Pinecone with a server-side metadata filter on
// laureate equality; ranges/sets are post-filtered.
func (s *PineconeStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	conn, err := s.connection(ctx)
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "pinecone connection failed", err)
	}
	defer conn.Close()

	n := topK
	if n <= 0 {
		n = 1
	}
	fetchN := n
	if filter.YearMin != 0 || filter.YearMax != 0 || len(filter.SourceTypes) > 0 {
		fetchN = n * 4
	}

	var metadataFilter *pinecone.MetadataFilter
	if filter.Laureate != "" {
		metadataFilter, err = structpb.NewStruct(map[string]any{"laureate": filter.Laureate})
		if err != nil {
			return nil, fmt.Errorf("failed to convert filter: %w", err)
		}
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(fetchN),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
		IncludeValues:   false,
	})
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "pinecone query failed", err)
	}

	out := make([]domain.ScoredChunk, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Vector == nil {
			continue
		}
		chunk := pineconeVectorToChunk(m.Vector)
		if !matchesFilter(chunk, filter) {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: m.Score})
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

func pineconeVectorToChunk(v *pinecone.Vector) domain.Chunk {
	meta := map[string]string{}
	if v.Metadata != nil {
		for k, val := range v.Metadata.AsMap() {
			meta[k] = fmt.Sprint(val)
		}
	}
	year, _ := strconv.Atoi(meta["year_awarded"])
	specificWork, _ := strconv.ParseBool(meta["specific_work_cited"])
	return domain.Chunk{
		ChunkID:           v.Id,
		Text:              meta["text"],
		SourceType:        domain.SourceType(meta["source_type"]),
		Laureate:          meta["laureate"],
		YearAwarded:       year,
		Country:           meta["country"],
		CountryFlag:       meta["country_flag"],
		Gender:            meta["gender"],
		Category:          meta["category"],
		PrizeMotivation:   meta["prize_motivation"],
		SpecificWorkCited: specificWork,
	}
}

// Close releases no persistent resource; Pinecone index connections are
// opened per-call and closed immediately after use.
func (s *PineconeStore) Close() error { return nil }
