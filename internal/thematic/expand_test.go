package thematic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func testThemes() *domain.ThemeConfig {
	return domain.NewThemeConfig(map[string][]string{
		"justice": {"justice", "freedom", "equality"},
		"hope":    {"hope", "resilience"},
	})
}

func TestExpandThemeIndexIncludesSiblings(t *testing.T) {
	e := New(testThemes(), nil, nil)
	res := e.Expand(context.Background(), "what do laureates say about justice")

	terms := termSet(res.Terms)
	assert.Contains(t, terms, "justice")
	assert.Contains(t, terms, "freedom")
	assert.Contains(t, terms, "equality")
}

func TestExpandEmptyCandidatesFallsBackToQuery(t *testing.T) {
	e := New(domain.NewThemeConfig(map[string][]string{}), nil, nil)
	res := e.Expand(context.Background(), "")

	require.Len(t, res.Terms, 1)
	assert.Equal(t, "", res.Terms[0].Term)
	assert.Equal(t, 1.0, res.Terms[0].Weight)
}

func TestExpandNoRecognizedKeywordsFallsBackToRawQuery(t *testing.T) {
	e := New(testThemes(), nil, nil)
	res := e.Expand(context.Background(), "banana spaceship")

	require.Len(t, res.Terms, 1)
	assert.Equal(t, "banana spaceship", res.Terms[0].Term)
}

func TestExpandDeterministicOrdering(t *testing.T) {
	e := New(testThemes(), nil, nil)
	res := e.Expand(context.Background(), "justice and hope")

	for i := 1; i < len(res.Terms); i++ {
		prev, cur := res.Terms[i-1], res.Terms[i]
		if prev.Weight == cur.Weight {
			assert.LessOrEqual(t, prev.Term, cur.Term)
		} else {
			assert.Greater(t, prev.Weight, cur.Weight)
		}
	}
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func TestExpandSemanticMergesWithMaxWeight(t *testing.T) {
	themes := testThemes()
	embeddings := &domain.ThemeEmbeddings{
		Model:     "test",
		Dimension: 2,
		Vectors: map[string][]float32{
			"justice": {1, 0},
			"hope":    {0, 1},
		},
	}
	embedder := &fakeEmbedder{vec: []float32{1, 0}}

	e := New(themes, embeddings, embedder, WithSemanticK(2), WithSimilarityThreshold(0.1))
	res := e.Expand(context.Background(), "justice")

	terms := termSet(res.Terms)
	assert.Contains(t, terms, "justice")
	require.NotEmpty(t, res.Vectors)
}

func TestValidateEmbeddingsDimensionMismatch(t *testing.T) {
	embeddings := &domain.ThemeEmbeddings{Dimension: 512}
	err := ValidateEmbeddings(embeddings, 1024)
	require.NotNil(t, err)
	assert.Equal(t, domain.KindConfig, err.Kind)
}

func termSet(terms []domain.ExpansionTerm) map[string]bool {
	out := make(map[string]bool, len(terms))
	for _, t := range terms {
		out[t.Term] = true
	}
	return out
}
