package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

type fakeStore struct {
	results []domain.ScoredChunk
	calls   int
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	f.calls++
	return f.results, nil
}

func TestRetrieveSortsDescendingScore(t *testing.T) {
	store := &fakeStore{results: []domain.ScoredChunk{
		{Chunk: domain.Chunk{ChunkID: "b"}, Score: 0.5},
		{Chunk: domain.Chunk{ChunkID: "a"}, Score: 0.9},
	}}
	r := New(store)

	out, err := r.Retrieve(context.Background(), []float32{1, 0}, domain.RetrievalFilter{}, 5, 0, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Chunk.ChunkID)
}

func TestRetrieveRelaxesThresholdWhenBelowMinReturn(t *testing.T) {
	store := &fakeStore{results: []domain.ScoredChunk{
		{Chunk: domain.Chunk{ChunkID: "a"}, Score: 0.15},
	}}
	r := New(store)

	out, err := r.Retrieve(context.Background(), []float32{1, 0}, domain.RetrievalFilter{}, 5, 0.2, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, store.calls)
}

func TestRetrieveWeightedMergesByMaxWeight(t *testing.T) {
	store := &fakeStore{}
	r := New(store, WithTopKPerTerm(5))

	vectors := []domain.WeightedVector{
		{Term: "justice", Vector: []float32{1, 0}, Weight: 1.0},
		{Term: "freedom", Vector: []float32{0, 1}, Weight: 0.5},
	}

	// Both calls to Search return the same chunk so merge logic runs
	// against repeated chunk_ids.
	store.results = []domain.ScoredChunk{{Chunk: domain.Chunk{ChunkID: "c1"}, Score: 0.8}}

	out, err := r.RetrieveWeighted(context.Background(), vectors, domain.RetrievalFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.8, out[0].Score, 0.001)
}

func TestDefaultTopKFallsBackForUnknownVariant(t *testing.T) {
	assert.Equal(t, 12, DefaultTopK("thematic_synthesis", 5))
	assert.Equal(t, 5, DefaultTopK("unknown_variant", 5))
}
