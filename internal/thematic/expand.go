// Package thematic implements Thematic Expansion: turning a raw
// query into a weighted set of expansion terms and, when semantic
// expansion is enabled, sub-embeddings for weighted multi-vector
// retrieval.
package thematic

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// Embedder produces a query embedding for semantic expansion. Satisfied
// by internal/embedclient.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	defaultSemanticK         = 8
	defaultSimilarityThresh  = 0.3
	defaultSemanticMinWeight = 0.3
)

// Expander expands queries against a ThemeConfig and, optionally, a
// ThemeEmbeddings set for semantic expansion.
type Expander struct {
	themes     *domain.ThemeConfig
	embeddings *domain.ThemeEmbeddings
	embedder   Embedder

	semanticK         int
	similarityThresh  float64
	semanticMinWeight float64
}

// Option configures an Expander.
type Option func(*Expander)

// WithSemanticK overrides the top-K semantic candidate count.
func WithSemanticK(k int) Option {
	return func(e *Expander) { e.semanticK = k }
}

// WithSimilarityThreshold overrides the minimum cosine similarity for a
// semantic candidate to be included.
func WithSimilarityThreshold(t float64) Option {
	return func(e *Expander) { e.similarityThresh = t }
}

// New builds an Expander. embeddings and embedder may be nil, in which
// case semantic expansion is skipped and only the theme index is used.
func New(themes *domain.ThemeConfig, embeddings *domain.ThemeEmbeddings, embedder Embedder, opts ...Option) *Expander {
	e := &Expander{
		themes:            themes,
		embeddings:        embeddings,
		embedder:          embedder,
		semanticK:         defaultSemanticK,
		similarityThresh:  defaultSimilarityThresh,
		semanticMinWeight: defaultSemanticMinWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// candidateKeywords tokenizes the query into whole-word, lowercased
// candidates, the first step of the expansion algorithm.
func candidateKeywords(query string) []string {
	return wordPattern.FindAllString(strings.ToLower(query), -1)
}

// Result is the Expander's output.
type Result struct {
	Terms   []domain.ExpansionTerm
	Vectors []domain.WeightedVector
}

// Expand runs the expansion algorithm. It never fails: an embedding
// error during semantic expansion degrades to theme-index-only results
// rather than failing the query.
func (e *Expander) Expand(ctx context.Context, query string) Result {
	candidates := candidateKeywords(query)

	terms := map[string]domain.ExpansionTerm{}

	if e.themes != nil {
		touchedThemes := map[string]bool{}
		for _, c := range candidates {
			for _, theme := range e.themes.ThemesFor(c) {
				touchedThemes[theme] = true
			}
		}
		for theme := range touchedThemes {
			for _, kw := range e.themes.KeywordsOf(theme) {
				mergeTerm(terms, kw, 1.0, domain.ExpansionSourceThemeIndex)
			}
		}
	}

	if len(terms) == 0 && len(candidates) == 0 {
		return Result{
			Terms: []domain.ExpansionTerm{{Term: query, Weight: 1.0}},
		}
	}

	if e.embedder != nil && e.embeddings != nil && len(e.embeddings.Vectors) > 0 {
		queryVec, err := e.embedder.Embed(ctx, query)
		if err == nil {
			sims := e.topKSimilar(queryVec, e.semanticK)
			for _, s := range sims {
				if s.similarity < e.similarityThresh {
					continue
				}
				weight := math.Max(s.similarity, e.semanticMinWeight)
				mergeTerm(terms, s.keyword, weight, domain.ExpansionSourceSemantic)
			}
		}
	}

	if len(terms) == 0 {
		return Result{Terms: []domain.ExpansionTerm{{Term: query, Weight: 1.0}}}
	}

	out := make([]domain.ExpansionTerm, 0, len(terms))
	for _, t := range terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})

	// Every expansion term contributes a sub-embedding, not just the
	// semantic top-K subset: theme-index siblings carry their
	// ThemeEmbeddings vector at weight 1.0, semantic terms at their
	// similarity-derived weight, so RetrieveWeighted actually sees the
	// whole expansion instead of only the raw query's neighborhood.
	var vectors []domain.WeightedVector
	if e.embeddings != nil && len(e.embeddings.Vectors) > 0 {
		vectors = make([]domain.WeightedVector, 0, len(out))
		for _, t := range out {
			vec, ok := e.embeddings.Vectors[t.Term]
			if !ok {
				continue
			}
			vectors = append(vectors, domain.WeightedVector{
				Term:   t.Term,
				Vector: vec,
				Weight: t.Weight,
			})
		}
	}

	return Result{Terms: out, Vectors: vectors}
}

// mergeTerm de-duplicates by term, keeping the max weight.
func mergeTerm(terms map[string]domain.ExpansionTerm, term string, weight float64, source domain.ExpansionSource) {
	existing, ok := terms[term]
	if !ok || weight > existing.Weight {
		terms[term] = domain.ExpansionTerm{Term: term, Weight: weight, Source: source}
		return
	}
}

type similarity struct {
	keyword    string
	similarity float64
}

func (e *Expander) topKSimilar(query []float32, k int) []similarity {
	sims := make([]similarity, 0, len(e.embeddings.Vectors))
	for kw, vec := range e.embeddings.Vectors {
		sims = append(sims, similarity{keyword: kw, similarity: cosineSimilarity(query, vec)})
	}
	sort.Slice(sims, func(i, j int) bool {
		if sims[i].similarity != sims[j].similarity {
			return sims[i].similarity > sims[j].similarity
		}
		return sims[i].keyword < sims[j].keyword
	})
	if len(sims) > k {
		sims = sims[:k]
	}
	return sims
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ValidateEmbeddings fails fast with a ConfigError-shaped message when
// the active model's embeddings are missing or malformed, matching the
// "fail fast at startup, not at query time."
func ValidateEmbeddings(embeddings *domain.ThemeEmbeddings, activeModelDim int) *domain.StageError {
	if embeddings == nil {
		return domain.NewConfigError("thematic", "theme embeddings not loaded for active model", nil)
	}
	if embeddings.Dimension != activeModelDim {
		return domain.NewConfigError("thematic", "theme embeddings dimension does not match active model", nil)
	}
	for kw, vec := range embeddings.Vectors {
		if len(vec) != embeddings.Dimension {
			return domain.NewConfigError("thematic", "theme embedding for keyword "+kw+" has inconsistent dimension", nil)
		}
	}
	return nil
}

// Stats computes the ThemeEmbeddingStats startup diagnostic for a
// ThemeEmbeddings set: count, mean norm, and zero-embedding count.
func Stats(embeddings *domain.ThemeEmbeddings) domain.ThemeEmbeddingStats {
	stats := domain.ThemeEmbeddingStats{Count: len(embeddings.Vectors)}
	if stats.Count == 0 {
		return stats
	}
	var sumNorm float64
	for _, vec := range embeddings.Vectors {
		norm := vectorNorm(vec)
		if norm == 0 {
			stats.ZeroEmbeddings++
		}
		sumNorm += norm
	}
	stats.MeanNorm = sumNorm / float64(stats.Count)
	return stats
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
