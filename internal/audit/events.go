// Package audit implements the Audit Logger: every pipeline
// stage appends a structured Event to the in-flight Trace; exactly one
// Trace is persisted per query, as a single JSON object per line in an
// append-only file, even when the query fails partway through.
package audit

import "github.com/nobellm-ai/nobellm-query/internal/domain"

// EventKind names one of the ten event shapes a query trace can record.
type EventKind string

const (
	EventQueryReceived       EventKind = "query_received"
	EventIntentClassified    EventKind = "intent_classified"
	EventSubtypeDetected     EventKind = "thematic_subtype_detected"
	EventExpansionDone       EventKind = "expansion_done"
	EventEmbeddingDone       EventKind = "embedding_done"
	EventRetrievalDone       EventKind = "retrieval_done"
	EventPromptBuilt         EventKind = "prompt_built"
	EventLLMCalled           EventKind = "llm_called"
	EventAnswerAssembled     EventKind = "answer_assembled"
	EventError               EventKind = "error"
)

// Event is one structured record in a Trace, stamped with a monotonic
// offset (in milliseconds) relative to the start of the request.
type Event struct {
	Kind      EventKind `json:"kind"`
	OffsetMS  int64     `json:"offset_ms"`
	Data      any       `json:"data,omitempty"`
}

// QueryReceivedData backs EventQueryReceived.
type QueryReceivedData struct {
	RawText         string `json:"raw_text"`
	Length          int    `json:"length"`
	ConfigSnapshot  string `json:"config_snapshot_hash"`
}

// IntentClassifiedData backs EventIntentClassified.
type IntentClassifiedData struct {
	Intent      domain.Intent `json:"intent"`
	Confidence  float64       `json:"confidence"`
	MatchedCues []string      `json:"matched_cues"`
}

// SubtypeDetectedData backs EventSubtypeDetected (thematic only).
type SubtypeDetectedData struct {
	Subtype    domain.ThematicSubtype `json:"subtype"`
	Confidence float64                `json:"confidence"`
	Cues       []string               `json:"cues"`
}

// ExpansionTermData is one term in ExpansionDoneData.
type ExpansionTermData struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
	Source string  `json:"source"`
}

// ExpansionDoneData backs EventExpansionDone.
type ExpansionDoneData struct {
	Terms []ExpansionTermData `json:"terms"`
}

// EmbeddingDoneData backs EventEmbeddingDone.
type EmbeddingDoneData struct {
	Dimension  int    `json:"dimension"`
	LatencyMS  int64  `json:"latency_ms"`
	Endpoint   string `json:"service_endpoint"`
}

// FilterSummary summarizes the RetrievalFilter applied, for audit
// without leaking a full domain.RetrievalFilter encoding.
type FilterSummary struct {
	Laureate    string   `json:"laureate,omitempty"`
	SourceTypes []string `json:"source_types,omitempty"`
	YearMin     int      `json:"year_min,omitempty"`
	YearMax     int      `json:"year_max,omitempty"`
}

// ScoredChunkSummary is one retrieved chunk's audit-visible summary.
type ScoredChunkSummary struct {
	ChunkID string  `json:"chunk_id"`
	Score   float32 `json:"score"`
}

// RetrievalDoneData backs EventRetrievalDone.
type RetrievalDoneData struct {
	Chunks []ScoredChunkSummary `json:"chunks"`
	Filter FilterSummary        `json:"filter_summary"`
	TopK   int                  `json:"top_k"`
}

// PromptBuiltData backs EventPromptBuilt.
type PromptBuiltData struct {
	TemplateID   string `json:"template_id"`
	ChunkCount   int    `json:"chunk_count"`
	PromptLength int    `json:"prompt_length"`
}

// LLMCalledData backs EventLLMCalled.
type LLMCalledData struct {
	ModelID      string  `json:"model_id"`
	PromptTokens int     `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	Estimated    bool    `json:"estimated"`
	LatencyMS    int64   `json:"latency_ms"`
	CostEstimate float64 `json:"cost_estimate"`
}

// AnswerAssembledData backs EventAnswerAssembled.
type AnswerAssembledData struct {
	AnswerLength int `json:"answer_length"`
	SourceCount  int `json:"source_count"`
}

// ErrorData backs EventError.
type ErrorData struct {
	Kind    domain.ErrorKind `json:"kind"`
	SubKind domain.SubKind   `json:"sub_kind,omitempty"`
	Stage   string           `json:"stage"`
	Message string           `json:"message"`
}
