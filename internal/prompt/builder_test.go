package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/router"
)

func testChunks(n int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, n)
	for i := range out {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{
			ChunkID:     "c" + string(rune('0'+i)),
			Laureate:    "Toni Morrison",
			YearAwarded: 1993,
			SourceType:  domain.SourceNobelLecture,
			Text:        "text",
		}}
	}
	return out
}

func TestBuildScopedLaureateTemplate(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{
		TemplateFamily: router.FamilyScoped,
		Filter:         domain.RetrievalFilter{Laureate: "Toni Morrison"},
	}
	classification := domain.Classification{Intent: domain.IntentScoped, ScopedEntity: "Toni Morrison"}

	result, err := b.Build("What did Toni Morrison say about race?", decision, classification, testChunks(8))
	require.NoError(t, err)
	assert.Equal(t, "scoped_laureate", result.TemplateID)
	assert.Contains(t, result.PromptText, "Toni Morrison")
	assert.LessOrEqual(t, result.ChunkCount, 6)
}

func TestBuildThematicSynthesisIsDefaultSubtype(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{TemplateFamily: router.FamilyThematic}
	classification := domain.Classification{Intent: domain.IntentThematic}

	result, err := b.Build("what do laureates say about hope", decision, classification, testChunks(12))
	require.NoError(t, err)
	assert.Equal(t, "thematic_synthesis_clean", result.TemplateID)
	assert.Equal(t, 12, result.ChunkCount)
}

func TestBuildThematicEnumerativeVariant(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{TemplateFamily: router.FamilyThematic}
	classification := domain.Classification{Intent: domain.IntentThematic, ThematicSubtype: domain.SubtypeEnumerative}

	result, err := b.Build("list what laureates say about hope", decision, classification, testChunks(12))
	require.NoError(t, err)
	assert.Equal(t, "thematic_enumerative", result.TemplateID)
}

func TestBuildGenerativeEmailVariant(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{TemplateFamily: router.FamilyGenerative}
	classification := domain.Classification{Intent: domain.IntentGenerative}

	result, err := b.Build("Write a job acceptance email in the tone of a laureate.", decision, classification, testChunks(10))
	require.NoError(t, err)
	assert.Equal(t, "generative_email", result.TemplateID)
	assert.Equal(t, "humble", result.TonePreference)
}

func TestBuildTruncatesToChunkCount(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{TemplateFamily: router.FamilyQA}
	classification := domain.Classification{Intent: domain.IntentQA}

	result, err := b.Build("what year was this awarded", decision, classification, testChunks(20))
	require.NoError(t, err)
	assert.Equal(t, "qa_factual", result.TemplateID)
	assert.Equal(t, 5, result.ChunkCount)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := New(DefaultCatalog())
	decision := router.Decision{TemplateFamily: router.FamilyQA}
	classification := domain.Classification{Intent: domain.IntentQA}
	chunks := testChunks(5)

	r1, err := b.Build("what year was this awarded", decision, classification, chunks)
	require.NoError(t, err)
	r2, err := b.Build("what year was this awarded", decision, classification, chunks)
	require.NoError(t, err)
	assert.Equal(t, r1.PromptText, r2.PromptText)
}
