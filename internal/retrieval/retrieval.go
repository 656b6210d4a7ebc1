// Package retrieval orchestrates the Vector Retriever: applying
// the top_k defaults table, running single- or weighted multi-vector
// search against a vectorstore.Store, and relaxing the score threshold
// once when too few chunks come back.
package retrieval

import (
	"context"
	"sort"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/router"
)

// Store is the subset of vectorstore.Store that retrieval needs.
type Store interface {
	Search(ctx context.Context, vector []float32, topK int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error)
}

// defaultTopK is the top_k defaults table, keyed by
// template variant id (the Prompt Builder's selected variant, not just
// the family).
var defaultTopK = map[string]int{
	"qa_factual":               5,
	"qa_analytical":            8,
	"qa_comparative":           10,
	"scoped_laureate":          6,
	"scoped_work":              8,
	"thematic_synthesis":       12,
	"thematic_synthesis_clean": 12, // the synthesis subtype's template variant name
	"thematic_enumerative":     10,
	"thematic_comparative":     12,
	"thematic_contextual":      10,
	"generative_email":         10,
	"generative_speech":        12,
	"generative_reflection":    8,
}

// DefaultTopK returns the default top_k for a template variant id,
// falling back to the overall retrieval default when the variant is
// unrecognized.
func DefaultTopK(variant string, fallback int) int {
	if k, ok := defaultTopK[variant]; ok {
		return k
	}
	return fallback
}

// SortScoredChunks sorts by descending score, ties broken by ascending
// chunk_id.
func SortScoredChunks(chunks []domain.ScoredChunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return chunks[i].Chunk.ChunkID < chunks[j].Chunk.ChunkID
	})
}

// Retriever executes retrieval against a single Store, implementing
// relaxation and weighted multi-vector merge.
type Retriever struct {
	store       Store
	topKPerTerm int
	sumWithCap  bool
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithSumWithCap switches the weighted multi-vector merge from max
// (the default per the Open Question decision) to sum-with-cap, where
// the summed score is capped at 1.0.
func WithSumWithCap(capped bool) Option {
	return func(r *Retriever) { r.sumWithCap = capped }
}

// WithTopKPerTerm overrides the per-term candidate count fetched
// during weighted multi-vector retrieval.
func WithTopKPerTerm(n int) Option {
	return func(r *Retriever) { r.topKPerTerm = n }
}

// New builds a Retriever over a Store.
func New(store Store, opts ...Option) *Retriever {
	r := &Retriever{store: store, topKPerTerm: 5}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve runs a single-vector search, including the
// relaxed-threshold retry when fewer than minReturn chunks qualify.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, filter domain.RetrievalFilter, topK int, scoreThreshold float64, minReturn int) ([]domain.ScoredChunk, error) {
	chunks, err := r.store.Search(ctx, vector, topK, filter)
	if err != nil {
		return nil, err
	}

	qualifying := aboveThreshold(chunks, scoreThreshold)
	if len(qualifying) >= minReturn || scoreThreshold == 0 {
		SortScoredChunks(qualifying)
		return qualifying, nil
	}

	relaxed, err := r.store.Search(ctx, vector, topK, filter)
	if err != nil {
		return nil, err
	}
	qualifying = aboveThreshold(relaxed, scoreThreshold/2)
	SortScoredChunks(qualifying)
	return qualifying, nil
}

// RetrieveWeighted implements the weighted multi-vector mode: for each
// sub-embedding, retrieve topKPerTerm candidates, merge by chunk_id
// with score = max/sum-with-cap over contributing terms of
// (similarity × weight), then return the global top_k.
func (r *Retriever) RetrieveWeighted(ctx context.Context, vectors []domain.WeightedVector, filter domain.RetrievalFilter, topK int) ([]domain.ScoredChunk, error) {
	merged := map[string]domain.ScoredChunk{}

	for _, wv := range vectors {
		candidates, err := r.store.Search(ctx, wv.Vector, r.topKPerTerm, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			weighted := c.Score * float32(wv.Weight)
			existing, ok := merged[c.Chunk.ChunkID]
			if !ok {
				merged[c.Chunk.ChunkID] = domain.ScoredChunk{Chunk: c.Chunk, Score: weighted}
				continue
			}
			if r.sumWithCap {
				existing.Score += weighted
				if existing.Score > 1 {
					existing.Score = 1
				}
			} else if weighted > existing.Score {
				existing.Score = weighted
			}
			merged[c.Chunk.ChunkID] = existing
		}
	}

	out := make([]domain.ScoredChunk, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	SortScoredChunks(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func aboveThreshold(chunks []domain.ScoredChunk, threshold float64) []domain.ScoredChunk {
	if threshold <= 0 {
		return chunks
	}
	out := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if float64(c.Score) >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// FilterFromDecision builds the RetrievalFilter implied by a router
// Decision, used by the Orchestrator to seed RetrievalParams.
func FilterFromDecision(d router.Decision) domain.RetrievalFilter {
	return d.Filter
}
