package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// ChromemStore implements Store over chromem-go, an embedded, in-process
// vector index. This is the default/dev backend and also the one that
// serves the "local index file" path of the persisted state layout.
type ChromemStore struct {
	db         *chromem.DB
	collection string
	mu         sync.Mutex
	col        *chromem.Collection
}

// identityEmbed satisfies chromem's EmbeddingFunc contract. All vectors
// reaching this store are pre-computed by internal/embedclient; chromem
// is never asked to embed text itself.
func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem store received unexpected embed callback for %q", text)
}

// NewChromemStore builds a ChromemStore, loading a persisted index from
// cfg.IndexPath when one exists.
func NewChromemStore(cfg config.VectorStoreConfig) (*ChromemStore, error) {
	var db *chromem.DB

	if cfg.IndexPath != "" {
		if _, err := os.Stat(cfg.IndexPath); err == nil {
			loaded, err := chromem.NewPersistentDB(cfg.IndexPath, false)
			if err != nil {
				return nil, fmt.Errorf("failed to load chunk index from %s: %w", cfg.IndexPath, err)
			}
			db = loaded
		} else {
			if dir := filepath.Dir(cfg.IndexPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create index directory: %w", err)
				}
			}
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(cfg.Collection, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", cfg.Collection, err)
	}

	return &ChromemStore{db: db, collection: cfg.Collection, col: col}, nil
}

func chunkToMetadata(c domain.Chunk) map[string]string {
	return map[string]string{
		"laureate":            c.Laureate,
		"year_awarded":        strconv.Itoa(c.YearAwarded),
		"country":             c.Country,
		"country_flag":        c.CountryFlag,
		"gender":              c.Gender,
		"category":            c.Category,
		"prize_motivation":    c.PrizeMotivation,
		"source_type":         string(c.SourceType),
		"specific_work_cited": strconv.FormatBool(c.SpecificWorkCited),
	}
}

func metadataToChunk(id, text string, meta map[string]string) domain.Chunk {
	year, _ := strconv.Atoi(meta["year_awarded"])
	specificWork, _ := strconv.ParseBool(meta["specific_work_cited"])
	return domain.Chunk{
		ChunkID:           id,
		Text:              text,
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

// Upsert stores a chunk's pre-computed embedding and metadata.
func (s *ChromemStore) Upsert(ctx context.Context, chunk domain.Chunk) error {
	doc := chromem.Document{
		ID:        chunk.ChunkID,
		Content:   chunk.Text,
		Metadata:  chunkToMetadata(chunk),
		Embedding: chunk.Embedding,
	}
	if err := s.col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("chromem upsert failed: %w", err)
	}
	return nil
}

// Search runs cosine-similarity kNN, applying the filter as a
// chromem `where` clause where equality-expressible and otherwise as a
// post-filter (year ranges, source_type sets).
func (s *ChromemStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	var where map[string]string
	if filter.Laureate != "" {
		where = map[string]string{"laureate": filter.Laureate}
	}

	n := topK
	if n <= 0 {
		n = 1
	}
	// Over-fetch when a post-filter (year range/source types) will run,
	// since chromem can't express those server-side.
	fetchN := n
	if filter.YearMin != 0 || filter.YearMax != 0 || len(filter.SourceTypes) > 0 {
		fetchN = n * 4
	}

	count := s.col.Count()
	if fetchN > count {
		fetchN = count
	}
	if fetchN == 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, vector, fetchN, where, nil)
	if err != nil {
		return nil, domain.NewRetrievalError("vector_retriever", domain.SubKindStoreUnavailable, "chromem query failed", err)
	}

	out := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk := metadataToChunk(r.ID, r.Content, r.Metadata)
		if !matchesFilter(chunk, filter) {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: r.Similarity})
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

// Close is a no-op; chromem-go holds no external connection to release.
func (s *ChromemStore) Close() error { return nil }
