package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewEmbeddingError("embed", SubKindShape, "dimension mismatch", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "embed[EmbeddingError/Shape]: dimension mismatch", err.Error())
}

func TestStageErrorRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  *StageError
		want bool
	}{
		{"embedding transient", NewEmbeddingError("embed", SubKindTransient, "timeout", nil), true},
		{"embedding shape", NewEmbeddingError("embed", SubKindShape, "bad dim", nil), false},
		{"retrieval store unavailable", NewRetrievalError("retrieve", SubKindStoreUnavailable, "down", nil), true},
		{"llm permanent", NewLLMError("llm", SubKindPermanent, "bad auth", nil), false},
		{"validation", NewValidationError("api", "empty query"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Retryable())
		})
	}
}

func TestStageErrorHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, NewValidationError("api", "bad").HTTPStatus())
	assert.Equal(t, 504, NewTimeoutError("orchestrator", "deadline").HTTPStatus())
	assert.Equal(t, 404, NewRetrievalError("retrieve", SubKindStoreUnavailable, "down", nil).HTTPStatus())
}
