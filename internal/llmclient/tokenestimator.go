package llmclient

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator provides the tokenizer fallback used when a provider
// response omits usage counts ("Token counts come from the
// provider; when absent, estimate via a tokenizer fallback").
type TokenEstimator struct {
	mu       sync.RWMutex
	encoding *tiktoken.Tiktoken
}

var (
	encodingCache   = make(map[string]*tiktoken.Tiktoken)
	encodingCacheMu sync.RWMutex
)

// NewTokenEstimator builds an estimator for modelID, falling back to
// cl100k_base when the model has no registered tiktoken encoding.
func NewTokenEstimator(modelID string) *TokenEstimator {
	encodingCacheMu.RLock()
	cached, ok := encodingCache[modelID]
	encodingCacheMu.RUnlock()
	if ok {
		return &TokenEstimator{encoding: cached}
	}

	enc, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return &TokenEstimator{}
		}
	}

	encodingCacheMu.Lock()
	encodingCache[modelID] = enc
	encodingCacheMu.Unlock()

	return &TokenEstimator{encoding: enc}
}

// Count returns the token count for text, or a rough 4-chars-per-token
// estimate when no encoding could be loaded.
func (e *TokenEstimator) Count(text string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.encoding == nil {
		return len(text) / 4
	}
	return len(e.encoding.Encode(text, nil, nil))
}
