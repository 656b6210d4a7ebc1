package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenEstimatorCountIsPositiveAndStable(t *testing.T) {
	est := NewTokenEstimator("gpt-4o-mini")

	first := est.Count("The Nobel Prize in Literature recognizes exceptional work.")
	second := est.Count("The Nobel Prize in Literature recognizes exceptional work.")

	assert.Positive(t, first)
	assert.Equal(t, first, second)
}

func TestTokenEstimatorUnknownModelFallsBackToCl100k(t *testing.T) {
	est := NewTokenEstimator("not-a-real-model")
	assert.Positive(t, est.Count("hello world"))
}

func TestTokenEstimatorEmptyText(t *testing.T) {
	est := NewTokenEstimator("gpt-4o-mini")
	assert.Equal(t, 0, est.Count(""))
}
