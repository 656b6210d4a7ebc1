package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func TestRouteFactualMetadataSkipsRetrieval(t *testing.T) {
	d := Route("who won in 1965", domain.Classification{Intent: domain.IntentFactualMetadata})
	assert.Equal(t, PathMetadata, d.Path)
}

func TestRouteScopedAppliesLaureateFilter(t *testing.T) {
	d := Route("what did x say", domain.Classification{
		Intent:       domain.IntentScoped,
		ScopedEntity: "Toni Morrison",
	})
	assert.Equal(t, PathRetrieval, d.Path)
	assert.Equal(t, FamilyScoped, d.TemplateFamily)
	assert.Equal(t, "Toni Morrison", d.Filter.Laureate)
}

func TestRouteThematicInvokesExpansion(t *testing.T) {
	d := Route("what do laureates say about hope", domain.Classification{Intent: domain.IntentThematic})
	assert.True(t, d.InvokeExpansion)
	assert.Equal(t, FamilyThematic, d.TemplateFamily)
}

func TestFormCueDefaultsToReflection(t *testing.T) {
	assert.Equal(t, "email", FormCue("write an email"))
	assert.Equal(t, "speech", FormCue("write a speech"))
	assert.Equal(t, "reflection", FormCue("write something reflective"))
}

func TestQAFormCue(t *testing.T) {
	assert.Equal(t, "comparative", QAFormCue("compare these two laureates"))
	assert.Equal(t, "analytical", QAFormCue("why did this happen"))
	assert.Equal(t, "factual", QAFormCue("what year was this"))
}
