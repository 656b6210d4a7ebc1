package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func testConfig(serviceURL string) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		ServiceURL:       serviceURL,
		APIKey:           "test-key",
		MaxTextLength:    2000,
		Timeout:          2 * time.Second,
		RetryBackoff:     10 * time.Millisecond,
		InterCallSpacing: 0,
		SerializedCalls:  0,
		MaxConcurrency:   3,
	}
}

func TestEmbedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: make([]float32, 4)})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), 4)
	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbedEmptyTextRejected(t *testing.T) {
	c := New(testConfig("http://example.com"), 4)
	_, err := c.Embed(context.Background(), "   ")

	require.Error(t, err)
	stageErr, ok := err.(*domain.StageError)
	require.True(t, ok)
	assert.Equal(t, domain.SubKindInvalidInput, stageErr.SubKind)
}

func TestEmbedDimensionMismatchIsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: make([]float32, 512)})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), 1024)
	_, err := c.Embed(context.Background(), "hello")

	require.Error(t, err)
	stageErr, ok := err.(*domain.StageError)
	require.True(t, ok)
	assert.Equal(t, domain.SubKindShape, stageErr.SubKind)
}

func TestEmbedRetriesOnceOnTransientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: make([]float32, 4)})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), 4)
	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, 2, attempts)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{float32(len(req.Text)), 0, 0, 0}})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), 4)
	out, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, float32(1), out[0][0])
	assert.Equal(t, float32(2), out[1][0])
	assert.Equal(t, float32(3), out[2][0])
}
