package intentclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func newTestClassifier() *Classifier {
	laureates := NewLaureateIndex([]string{"Toni Morrison", "Mikhail Sholokhov"})
	return New(DefaultCueSet(), laureates)
}

func TestClassifyFactualMetadataByYear(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("Who won the Nobel Prize in Literature in 1965?")

	assert.Equal(t, domain.IntentFactualMetadata, result.Intent)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestClassifyScopedQuery(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("What did Toni Morrison say about race?")

	require.Equal(t, domain.IntentScoped, result.Intent)
	assert.Equal(t, "Toni Morrison", result.ScopedEntity)
}

func TestClassifyThematicSynthesis(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("What do laureates say about justice and freedom?")

	require.Equal(t, domain.IntentThematic, result.Intent)
	assert.Equal(t, domain.SubtypeSynthesis, result.ThematicSubtype)
}

func TestClassifyThematicEnumerative(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("What do laureates say about hope? List examples.")

	require.Equal(t, domain.IntentThematic, result.Intent)
	assert.Equal(t, domain.SubtypeEnumerative, result.ThematicSubtype)
}

func TestClassifyGenerativeEmail(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("Write a job acceptance email in the tone of a Nobel laureate.")

	assert.Equal(t, domain.IntentGenerative, result.Intent)
}

func TestClassifyDefaultsToQAWithZeroConfidence(t *testing.T) {
	c := newTestClassifier()
	result := c.Classify("asdf qwer zxcv")

	assert.Equal(t, domain.IntentQA, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "do", "laureates", "say", "about", "hope"},
		Tokenize("What do laureates say about hope?"))
}
