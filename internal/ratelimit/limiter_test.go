package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToBurst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 3})
	now := time.Now()

	assert.True(t, l.AllowAt("client-1", now))
	assert.True(t, l.AllowAt("client-1", now))
	assert.True(t, l.AllowAt("client-1", now))
	assert.False(t, l.AllowAt("client-1", now))
}

func TestLimiterRefillsOverTime(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()

	require.True(t, l.AllowAt("client-1", now))
	assert.False(t, l.AllowAt("client-1", now))
	assert.True(t, l.AllowAt("client-1", now.Add(time.Second)))
}

func TestLimiterTracksIdentifiersIndependently(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()

	assert.True(t, l.AllowAt("client-1", now))
	assert.True(t, l.AllowAt("client-2", now))
	assert.False(t, l.AllowAt("client-1", now))
}

func TestMiddlewareBlocksWhenLimitExceeded(t *testing.T) {
	limiter := New(Config{RequestsPerSecond: 0, Burst: 1})
	handler := Middleware(limiter, func(r *http.Request) string { return "fixed" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}
