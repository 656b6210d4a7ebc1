// Package embedclient implements the Embedding Service Client:
// a thin HTTP client over the `POST /embed` wire contract, with
// timeout/retry policy and bounded-concurrency batch embedding.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

const stageName = "embedding"

// Client embeds text via the remote embedding service.
type Client struct {
	cfg        config.EmbeddingConfig
	httpClient *http.Client
	dimension  int

	mu        sync.Mutex
	callCount int
}

// New builds a Client for the active model's expected dimension.
func New(cfg config.EmbeddingConfig, dimension int) *Client {
	return &Client{
		cfg:        cfg,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type embedRequest struct {
	APIKey string `json:"api_key"`
	Text   string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed validates, spaces/serializes the call per the concurrency
// policy, and performs the HTTP round trip with one retry on transient
// failures. It returns *domain.StageError on every failure path.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindInvalidInput, "text is empty", nil)
	}
	if len(trimmed) > c.cfg.MaxTextLength {
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindInvalidInput,
			fmt.Sprintf("text exceeds max length %d", c.cfg.MaxTextLength), nil)
	}

	c.throttle()

	vec, err := c.doEmbed(ctx, trimmed)
	if err == nil {
		return c.validateShape(vec)
	}

	stageErr, ok := err.(*domain.StageError)
	if !ok || !stageErr.Retryable() {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, domain.NewTimeoutError(stageName, "context canceled during retry backoff")
	case <-time.After(c.cfg.RetryBackoff):
	}

	vec, err = c.doEmbed(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	return c.validateShape(vec)
}

// throttle implements the inter-call spacing policy: the first
// SerializedCalls calls are spaced InterCallSpacing apart; subsequent
// calls rely on EmbedBatch's bounded concurrency instead.
func (c *Client) throttle() {
	c.mu.Lock()
	n := c.callCount
	c.callCount++
	c.mu.Unlock()

	if n < c.cfg.SerializedCalls && c.cfg.InterCallSpacing > 0 {
		time.Sleep(c.cfg.InterCallSpacing)
	}
}

func (c *Client) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{APIKey: c.cfg.APIKey, Text: text})
	if err != nil {
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindPermanent, "failed to marshal request", err)
	}

	url := strings.TrimRight(c.cfg.ServiceURL, "/") + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindPermanent, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewTimeoutError(stageName, "embedding request timed out")
		}
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindTransient, "embedding request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed embedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, domain.NewEmbeddingError(stageName, domain.SubKindPermanent, "malformed embedding response", err)
		}
		return parsed.Embedding, nil

	case resp.StatusCode == http.StatusBadRequest:
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindInvalidInput, "embedding service rejected text", nil)

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindPermanent, "embedding service unauthorized", nil)

	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindTransient,
			fmt.Sprintf("embedding service returned %d", resp.StatusCode), nil)

	default:
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindPermanent,
			fmt.Sprintf("embedding service returned %d", resp.StatusCode), nil)
	}
}

// validateShape enforces that the returned vector matches the active
// model's configured dimension, surfacing EmbeddingError.Shape
// immediately rather than retried.
func (c *Client) validateShape(vec []float32) ([]float32, error) {
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, domain.NewEmbeddingError(stageName, domain.SubKindShape,
			fmt.Sprintf("embedding dimension %d does not match active model dimension %d", len(vec), c.dimension), nil)
	}
	return vec, nil
}

// EmbedBatch embeds many texts honoring the cold-start policy: the
// first SerializedCalls texts are embedded one at a time (true
// concurrency-1 serialization, each spaced InterCallSpacing apart by
// Embed's own throttle), and only once that ramp is through does the
// remainder fan out to MaxConcurrency. Running the first N calls as
// concurrent goroutines that merely sleep the same flat spacing before
// firing does not serialize them — they all wake and call out at
// essentially the same instant, which is exactly the burst this policy
// exists to prevent. Results preserve input order; the first error
// short-circuits the remaining work.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	serialized := c.cfg.SerializedCalls
	if serialized > len(texts) {
		serialized = len(texts)
	}
	if serialized < 0 {
		serialized = 0
	}

	for i := 0; i < serialized; i++ {
		vec, err := c.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}

	remaining := texts[serialized:]
	if len(remaining) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)

	for idx, text := range remaining {
		i, text := serialized+idx, text
		g.Go(func() error {
			vec, err := c.Embed(gctx, text)
			if err != nil {
				return err
			}
			out[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimension reports the active model's configured embedding dimension.
func (c *Client) Dimension() int { return c.dimension }
