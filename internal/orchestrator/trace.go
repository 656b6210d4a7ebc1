package orchestrator

import (
	"time"

	"github.com/nobellm-ai/nobellm-query/internal/audit"
	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/prompt"
)

// queryTrace wraps audit.Trace with typed append helpers, one per
// state transition, so the state machine in orchestrator.go reads as a
// sequence of named stages instead of inline struct literals.
type queryTrace struct {
	*audit.Trace
}

func newTrace(traceID string, startedAt time.Time) *queryTrace {
	return &queryTrace{Trace: audit.NewTrace(traceID, startedAt)}
}

func (t *queryTrace) appendQueryReceived(query string, cfg *config.Config) {
	t.Append(audit.EventQueryReceived, audit.QueryReceivedData{
		RawText:        query,
		Length:         len(query),
		ConfigSnapshot: configHash(cfg.Model.ID, cfg.Model.Dimension),
	})
}

func (t *queryTrace) appendIntentClassified(c domain.Classification) {
	t.Append(audit.EventIntentClassified, audit.IntentClassifiedData{
		Intent:      c.Intent,
		Confidence:  c.Confidence,
		MatchedCues: c.MatchedCues,
	})
}

func (t *queryTrace) appendSubtypeDetected(c domain.Classification) {
	t.Append(audit.EventSubtypeDetected, audit.SubtypeDetectedData{
		Subtype:    c.ThematicSubtype,
		Confidence: c.SubtypeConfidence,
		Cues:       c.SubtypeCues,
	})
}

func (t *queryTrace) appendExpansionDone(terms []domain.ExpansionTerm) {
	out := make([]audit.ExpansionTermData, 0, len(terms))
	for _, term := range terms {
		out = append(out, audit.ExpansionTermData{
			Term:   term.Term,
			Weight: term.Weight,
			Source: string(term.Source),
		})
	}
	t.Append(audit.EventExpansionDone, audit.ExpansionDoneData{Terms: out})
}

func (t *queryTrace) appendEmbeddingDone(dimension int, latency time.Duration, endpoint string) {
	t.Append(audit.EventEmbeddingDone, audit.EmbeddingDoneData{
		Dimension: dimension,
		LatencyMS: latency.Milliseconds(),
		Endpoint:  endpoint,
	})
}

func (t *queryTrace) appendRetrievalDone(chunks []domain.ScoredChunk, params domain.RetrievalParams) {
	summaries := make([]audit.ScoredChunkSummary, 0, len(chunks))
	for _, c := range chunks {
		summaries = append(summaries, audit.ScoredChunkSummary{ChunkID: c.Chunk.ChunkID, Score: c.Score})
	}
	sourceTypes := make([]string, 0, len(params.Filter.SourceTypes))
	for _, st := range params.Filter.SourceTypes {
		sourceTypes = append(sourceTypes, string(st))
	}
	t.Append(audit.EventRetrievalDone, audit.RetrievalDoneData{
		Chunks: summaries,
		TopK:   params.TopK,
		Filter: audit.FilterSummary{
			Laureate:    params.Filter.Laureate,
			SourceTypes: sourceTypes,
			YearMin:     params.Filter.YearMin,
			YearMax:     params.Filter.YearMax,
		},
	})
}

func (t *queryTrace) appendPromptBuilt(built prompt.Result) {
	t.Append(audit.EventPromptBuilt, audit.PromptBuiltData{
		TemplateID:   built.TemplateID,
		ChunkCount:   built.ChunkCount,
		PromptLength: len(built.PromptText),
	})
}

func (t *queryTrace) appendLLMCalled(modelID string, result domain.LLMResult) {
	t.Append(audit.EventLLMCalled, audit.LLMCalledData{
		ModelID:          modelID,
		PromptTokens:     result.TokenUsage.PromptTokens,
		CompletionTokens: result.TokenUsage.CompletionTokens,
		Estimated:        result.TokenUsage.Estimated,
		LatencyMS:        result.LatencyMS,
		CostEstimate:     result.CostEstimate,
	})
}

func (t *queryTrace) appendAnswerAssembled(resp Response) {
	t.Append(audit.EventAnswerAssembled, audit.AnswerAssembledData{
		AnswerLength: len(resp.Answer),
		SourceCount:  len(resp.Sources),
	})
}

func (t *queryTrace) appendError(err *domain.StageError) {
	t.Append(audit.EventError, audit.ErrorData{
		Kind:    err.Kind,
		SubKind: err.SubKind,
		Stage:   err.Stage,
		Message: err.Message,
	})
}
