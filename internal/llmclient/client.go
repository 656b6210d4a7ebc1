// Package llmclient implements the LLM Client: a thin OpenAI-
// compatible chat-completions client with Transient/Permanent/Timeout
// error classification, one retry on transient failures, and cost
// accounting against a model-pricing table.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

const stageName = "llm"

// Params are the caller-exposed completion parameters.
type Params struct {
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// Client completes prompts against an OpenAI-compatible chat API.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	estimator  *TokenEstimator
}

// New builds a Client.
func New(cfg config.LLMConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		estimator:  NewTokenEstimator(cfg.ModelID),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete calls the configured provider, retrying once on a Transient
// classification with a flat backoff.
func (c *Client) Complete(ctx context.Context, prompt string, params Params) (domain.LLMResult, error) {
	result, err := c.doComplete(ctx, prompt, params)
	if err == nil {
		return result, nil
	}

	stageErr, ok := err.(*domain.StageError)
	if !ok || stageErr.SubKind != domain.SubKindTransient {
		return domain.LLMResult{}, err
	}

	select {
	case <-ctx.Done():
		return domain.LLMResult{}, domain.NewTimeoutError(stageName, "context canceled during LLM retry backoff")
	case <-time.After(2 * time.Second):
	}

	return c.doComplete(ctx, prompt, params)
}

func (c *Client) doComplete(ctx context.Context, prompt string, params Params) (domain.LLMResult, error) {
	started := time.Now()

	modelID := params.ModelID
	if modelID == "" {
		modelID = c.cfg.ModelID
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       modelID,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent, "failed to marshal request", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			// A call timeout is grouped with rate-limit/5xx as Transient,
			// not surfaced as domain.Timeout: per spec.md §4.8 it is
			// retried once with backoff just like any other transient
			// failure, rather than failing the query outright.
			return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindTransient, "llm request timed out", err)
		}
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindTransient, "llm request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent, "malformed llm response", err)
		}
		if len(parsed.Choices) == 0 {
			return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent, "llm response had no choices", nil)
		}

		usage := domain.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		}
		if usage.Total() == 0 {
			usage.PromptTokens = c.estimator.Count(prompt)
			usage.CompletionTokens = c.estimator.Count(parsed.Choices[0].Message.Content)
			usage.Estimated = true
		}

		pricing := c.cfg.PriceFor(modelID)
		cost := float64(usage.PromptTokens)/1000*pricing.PromptPer1K + float64(usage.CompletionTokens)/1000*pricing.CompletionPer1K

		return domain.LLMResult{
			AnswerText:   parsed.Choices[0].Message.Content,
			TokenUsage:   usage,
			CostEstimate: cost,
			LatencyMS:    time.Since(started).Milliseconds(),
		}, nil

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent,
			fmt.Sprintf("llm provider rejected request: %d", resp.StatusCode), nil)

	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindTransient,
			fmt.Sprintf("llm provider returned %d", resp.StatusCode), nil)

	default:
		return domain.LLMResult{}, domain.NewLLMError(stageName, domain.SubKindPermanent,
			fmt.Sprintf("llm provider returned %d", resp.StatusCode), nil)
	}
}
