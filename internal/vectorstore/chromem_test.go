package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func testChunk(id, laureate string, year int, vec []float32) domain.Chunk {
	return domain.Chunk{
		ChunkID:     id,
		Text:        "sample text for " + laureate,
		SourceType:  domain.SourceNobelLecture,
		Laureate:    laureate,
		YearAwarded: year,
		Country:     "Testland",
		Category:    "Literature",
		Embedding:   vec,
	}
}

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(config.VectorStoreConfig{Collection: "test_chunks"})
	require.NoError(t, err)
	return store
}

func TestChromemUpsertAndSearch(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("c1", "Toni Morrison", 1993, []float32{1, 0, 0})))
	require.NoError(t, store.Upsert(ctx, testChunk("c2", "Bob Dylan", 2016, []float32{0, 1, 0})))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 2, domain.RetrievalFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].Chunk.ChunkID)
}

func TestChromemSearchAppliesLaureateFilter(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("c1", "Toni Morrison", 1993, []float32{1, 0, 0})))
	require.NoError(t, store.Upsert(ctx, testChunk("c2", "Bob Dylan", 2016, []float32{1, 0, 0})))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 5, domain.RetrievalFilter{Laureate: "Bob Dylan"})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "Bob Dylan", r.Chunk.Laureate)
	}
}

func TestChromemSearchResultsSortedDescendingScore(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testChunk("c1", "A", 2000, []float32{0.1, 0, 0})))
	require.NoError(t, store.Upsert(ctx, testChunk("c2", "B", 2001, []float32{1, 0, 0})))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 2, domain.RetrievalFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}
