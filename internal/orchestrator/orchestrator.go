// Package orchestrator's Orchestrator type drives one query through the
// query state machine: RECEIVED -> CLASSIFIED -> (METADATA_ANSWERED |
// EXPANDED? -> EMBEDDED -> RETRIEVED -> PROMPTED -> GENERATED) -> DONE,
// or FAILED from any state.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/llmclient"
	"github.com/nobellm-ai/nobellm-query/internal/prompt"
	"github.com/nobellm-ai/nobellm-query/internal/retrieval"
	"github.com/nobellm-ai/nobellm-query/internal/router"
)

const (
	retrievalStageTimeout = 10 * time.Second
)

// Orchestrator holds no per-query state of its own; every field is a
// shared, read-only collaborator built once by ServiceRegistry.
type Orchestrator struct {
	services *ServiceRegistry
}

// New builds an Orchestrator over a fully wired ServiceRegistry.
func New(services *ServiceRegistry) *Orchestrator {
	return &Orchestrator{services: services}
}

// HandleQuery drives one query through the pipeline end to end, returning the
// Query API response shape on success or a *domain.StageError on
// failure. Exactly one audit Trace is persisted either way.
func (o *Orchestrator) HandleQuery(ctx context.Context, req Request) (Response, error) {
	traceID := uuid.NewString()
	startedAt := time.Now()
	trace := newTrace(traceID, startedAt)

	resp, stageErr := o.run(ctx, req, trace)

	if stageErr != nil {
		trace.appendError(stageErr)
	}
	_ = o.services.Audit.Persist(trace.Trace)

	if stageErr != nil {
		if o.services.Metrics != nil {
			o.services.Metrics.StageErrors.WithLabelValues(stageErr.Stage, string(stageErr.Kind)).Inc()
		}
		return Response{TraceID: traceID}, stageErr
	}
	resp.TraceID = traceID
	return resp, nil
}

// run is HandleQuery's body, factored out so error handling and audit
// persistence stay in one place regardless of which stage fails.
func (o *Orchestrator) run(ctx context.Context, req Request, trace *queryTrace) (Response, *domain.StageError) {
	qc := domain.NewQueryContext(trace.TraceID, req.Query, trace.StartedAt)

	trace.appendQueryReceived(req.Query, o.services.Config)

	if err := validateRequest(req); err != nil {
		return Response{}, err
	}
	qc.QueryString = req.Query
	qc.ModelID = req.ModelID
	if qc.ModelID == "" {
		qc.ModelID = o.services.Config.Model.ID
	}
	qc.ScoreThreshold = o.services.Config.Retrieval.DefaultScoreThreshold
	if req.ScoreThreshold != nil {
		qc.ScoreThreshold = *req.ScoreThreshold
	}
	qc.RequestedTopK = o.services.Config.Retrieval.DefaultTopK
	if req.TopK != nil {
		qc.RequestedTopK = *req.TopK
	}

	// CLASSIFIED
	qc.Classification = o.services.Classifier.Classify(req.Query)
	trace.appendIntentClassified(qc.Classification)
	if o.services.Metrics != nil {
		o.services.Metrics.IntentTotal.WithLabelValues(string(qc.Classification.Intent)).Inc()
	}
	if qc.Classification.HasThematicSubtype() {
		trace.appendSubtypeDetected(qc.Classification)
	}

	decision := router.Route(req.Query, qc.Classification)

	if decision.Path == router.PathMetadata {
		if answer := o.services.Handler.Answer(req.Query, qc.Classification); answer != nil {
			qc.MetadataAnswer = answer
			resp := metadataResponse(answer)
			trace.appendAnswerAssembled(resp)
			return resp, nil
		}
		// No metadata rule matched: fall back to qa retrieval rather
		// than failing the query outright.
		decision = router.Decision{Path: router.PathRetrieval, TemplateFamily: router.FamilyQA}
	}

	topK := qc.RequestedTopK
	if req.TopK == nil {
		variant := prompt.SelectVariant(req.Query, decision, qc.Classification)
		topK = retrieval.DefaultTopK(variant, topK)
	}
	qc.RetrievalParams = domain.RetrievalParams{
		TopK:           topK,
		ScoreThreshold: qc.ScoreThreshold,
		MinReturn:      o.services.Config.Retrieval.MinReturn,
		Filter:         retrieval.FilterFromDecision(decision),
	}

	// EXPANDED (thematic only)
	if decision.InvokeExpansion && o.services.Expander != nil {
		expanded := o.services.Expander.Expand(ctx, req.Query)
		qc.ExpandedTerms = expanded.Terms
		qc.ExpandedVectors = expanded.Vectors
		trace.appendExpansionDone(expanded.Terms)
	}

	// EMBEDDED / RETRIEVED
	chunks, embedErr := o.embedAndRetrieve(ctx, qc, trace)
	if embedErr != nil {
		return Response{}, embedErr
	}
	qc.RetrievedChunks = chunks
	if o.services.Metrics != nil {
		o.services.Metrics.RetrievalHits.WithLabelValues(string(qc.Classification.Intent)).Observe(float64(len(chunks)))
	}

	// PROMPTED
	built, err := o.services.Builder.Build(req.Query, decision, qc.Classification, chunks)
	if err != nil {
		return Response{}, domain.NewValidationError("prompt", err.Error())
	}
	qc.PromptTemplateID = built.TemplateID
	qc.PromptText = built.PromptText
	qc.CitationStyle = string(built.CitationStyle)
	trace.appendPromptBuilt(built)

	// GENERATED
	llmCtx, cancel := context.WithTimeout(ctx, o.services.Config.LLM.Timeout)
	defer cancel()
	result, err := o.services.LLMClient.Complete(llmCtx, built.PromptText, llmclient.Params{
		ModelID:     qc.ModelID,
		Temperature: prompt.TemperatureFor(built.TonePreference),
	})
	if err != nil {
		if stageErr, ok := err.(*domain.StageError); ok {
			return Response{}, stageErr
		}
		return Response{}, domain.NewLLMError("llm", domain.SubKindPermanent, err.Error(), err)
	}
	qc.LLMResult = result
	trace.appendLLMCalled(qc.ModelID, result)
	if o.services.Metrics != nil {
		o.services.Metrics.LLMTokens.WithLabelValues(qc.ModelID, "prompt").Add(float64(result.TokenUsage.PromptTokens))
		o.services.Metrics.LLMTokens.WithLabelValues(qc.ModelID, "completion").Add(float64(result.TokenUsage.CompletionTokens))
		o.services.Metrics.LLMCost.Add(result.CostEstimate)
	}

	// DONE
	resp := ragResponse(result, chunks)
	trace.appendAnswerAssembled(resp)
	return resp, nil
}

// embedAndRetrieve implements the two retrieval branches:
// thematic queries with semantic sub-embeddings go straight to weighted
// multi-vector retrieval (the expansion step already produced the
// vectors, so no further remote embed call is needed); every other
// path embeds the raw query once, then retrieves against the single
// vector.
func (o *Orchestrator) embedAndRetrieve(ctx context.Context, qc *domain.QueryContext, trace *queryTrace) ([]domain.ScoredChunk, *domain.StageError) {
	retrievalCtx, cancel := context.WithTimeout(ctx, retrievalStageTimeout)
	defer cancel()

	if len(qc.ExpandedVectors) > 0 {
		chunks, err := o.services.Retriever.RetrieveWeighted(retrievalCtx, qc.ExpandedVectors, qc.RetrievalParams.Filter, qc.RetrievalParams.TopK)
		if err != nil {
			return nil, toRetrievalError(err)
		}
		trace.appendRetrievalDone(chunks, qc.RetrievalParams)
		return chunks, nil
	}

	embedCtx, embedCancel := context.WithTimeout(ctx, o.services.Config.Embedding.Timeout)
	defer embedCancel()

	embedStart := time.Now()
	vector, err := o.services.EmbedClient.Embed(embedCtx, qc.QueryString)
	if err != nil {
		if stageErr, ok := err.(*domain.StageError); ok {
			return nil, stageErr
		}
		return nil, domain.NewEmbeddingError("embedding", domain.SubKindPermanent, err.Error(), err)
	}
	trace.appendEmbeddingDone(len(vector), time.Since(embedStart), o.services.Config.Embedding.ServiceURL)

	chunks, err := o.services.Retriever.Retrieve(retrievalCtx, vector, qc.RetrievalParams.Filter, qc.RetrievalParams.TopK, qc.RetrievalParams.ScoreThreshold, qc.RetrievalParams.MinReturn)
	if err != nil {
		return nil, toRetrievalError(err)
	}
	trace.appendRetrievalDone(chunks, qc.RetrievalParams)
	return chunks, nil
}

func toRetrievalError(err error) *domain.StageError {
	if stageErr, ok := err.(*domain.StageError); ok {
		return stageErr
	}
	return domain.NewRetrievalError("retrieval", domain.SubKindStoreUnavailable, err.Error(), err)
}

func validateRequest(req Request) *domain.StageError {
	if len(req.Query) == 0 {
		return domain.NewValidationError("query_api", "query is required")
	}
	if len(req.Query) > 1000 {
		return domain.NewValidationError("query_api", "query exceeds 1000 characters")
	}
	if req.ScoreThreshold != nil && (*req.ScoreThreshold < 0 || *req.ScoreThreshold > 1) {
		return domain.NewValidationError("query_api", "score_threshold must be in [0,1]")
	}
	if req.TopK != nil && (*req.TopK < 1 || *req.TopK > 50) {
		return domain.NewValidationError("query_api", "top_k must be in [1,50]")
	}
	if req.ModelID != "" && req.ModelID != "bge-large" && req.ModelID != "miniLM" {
		return domain.NewValidationError("query_api", fmt.Sprintf("unknown model_id %q", req.ModelID))
	}
	return nil
}

func metadataResponse(answer *domain.MetadataAnswer) Response {
	return Response{
		Answer:     metadataAnswerText(answer),
		AnswerType: "metadata",
		MetadataAnswer: &MetadataAnswerView{
			Laureate:        answer.Laureate,
			YearAwarded:     answer.YearAwarded,
			Country:         answer.Country,
			CountryFlag:     answer.CountryFlag,
			Category:        answer.Category,
			PrizeMotivation: answer.PrizeMotivation,
			Source:          MetadataAnswerSource{Rule: answer.Rule},
		},
	}
}

func metadataAnswerText(answer *domain.MetadataAnswer) string {
	if answer.Count > 0 || answer.Rule == "by_country_count" {
		return fmt.Sprintf("%d laureate(s) from %s.", answer.Count, answer.Country)
	}
	if answer.Rule == "by_country_most" {
		return fmt.Sprintf("%s has produced the most laureates.", answer.Country)
	}
	return fmt.Sprintf("%s (%d, %s): %s", answer.Laureate, answer.YearAwarded, answer.Country, answer.PrizeMotivation)
}

func ragResponse(result domain.LLMResult, chunks []domain.ScoredChunk) Response {
	sources := make([]SourceView, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, SourceView{
			ChunkID:     c.Chunk.ChunkID,
			Laureate:    c.Chunk.Laureate,
			Year:        c.Chunk.YearAwarded,
			Country:     c.Chunk.Country,
			CountryFlag: c.Chunk.CountryFlag,
			SourceType:  string(c.Chunk.SourceType),
			Score:       c.Score,
			TextSnippet: snippet(c.Chunk.Text, snippetLength),
			TextFull:    c.Chunk.Text,
		})
	}
	return Response{
		Answer:     result.AnswerText,
		AnswerType: "rag",
		Sources:    sources,
	}
}

func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}

// configHash is a stable, low-cardinality stamp of the active config
// included in the query_received audit event, so traces can be
// correlated to the config version that produced them without leaking
// secrets.
func configHash(modelID string, dimension int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", modelID, dimension)))
	return hex.EncodeToString(sum[:8])
}
