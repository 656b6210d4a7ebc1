package domain

import "time"

// Intent is the mutually-exclusive classification assigned to a query.
type Intent string

const (
	IntentFactualMetadata Intent = "factual_metadata"
	IntentScoped          Intent = "scoped"
	IntentThematic        Intent = "thematic"
	IntentGenerative      Intent = "generative"
	IntentQA              Intent = "qa"
)

// ThematicSubtype further classifies a thematic-intent query.
type ThematicSubtype string

const (
	SubtypeSynthesis   ThematicSubtype = "synthesis"
	SubtypeEnumerative ThematicSubtype = "enumerative"
	SubtypeAnalytical  ThematicSubtype = "analytical"
	SubtypeExploratory ThematicSubtype = "exploratory"
)

// Classification is the Intent Classifier's output.
type Classification struct {
	Intent            Intent
	Confidence        float64
	MatchedCues       []string
	ScopedEntity      string
	ThematicSubtype   ThematicSubtype
	SubtypeConfidence float64
	SubtypeCues       []string
}

// HasScopedEntity reports whether a named laureate/work was identified.
func (c Classification) HasScopedEntity() bool { return c.ScopedEntity != "" }

// HasThematicSubtype reports whether subtype classification ran.
func (c Classification) HasThematicSubtype() bool { return c.ThematicSubtype != "" }

// ExpansionTerm is one term produced by thematic expansion, tagged with
// the producer that contributed it.
type ExpansionTerm struct {
	Term   string
	Weight float64
	Source ExpansionSource
}

// ExpansionSource identifies which producer contributed an ExpansionTerm.
type ExpansionSource string

const (
	ExpansionSourceThemeIndex ExpansionSource = "theme_index"
	ExpansionSourceSemantic   ExpansionSource = "semantic"
)

// WeightedVector is a sub-embedding produced during thematic expansion,
// used for weighted multi-vector retrieval.
type WeightedVector struct {
	Term   string
	Vector []float32
	Weight float64
}

// RetrievalFilter expresses the metadata constraints applied during
// vector retrieval, either server-side or as a post-filter.
type RetrievalFilter struct {
	Laureate       string
	SourceTypes    []SourceType
	YearMin        int
	YearMax        int
}

// IsZero reports whether the filter constrains nothing.
func (f RetrievalFilter) IsZero() bool {
	return f.Laureate == "" && len(f.SourceTypes) == 0 && f.YearMin == 0 && f.YearMax == 0
}

// RetrievalParams controls a single retrieval call.
type RetrievalParams struct {
	TopK          int
	ScoreThreshold float64
	MinReturn     int
	Filter        RetrievalFilter
}

// MetadataAnswer is the structured response produced by the Metadata
// Handler when a query is answerable from LaureateRecord fields alone.
type MetadataAnswer struct {
	Laureate        string
	YearAwarded     int
	Country         string
	CountryFlag     string
	Category        string
	PrizeMotivation string
	Rule            string
	Count           int // populated only by aggregation rules (e.g. by-country count)
}

// TokenUsage reports prompt/completion token counts for one LLM call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	Estimated        bool
}

// Total returns the sum of prompt and completion tokens.
func (u TokenUsage) Total() int { return u.PromptTokens + u.CompletionTokens }

// LLMResult is the LLM Client's output for one completion call.
type LLMResult struct {
	AnswerText   string
	TokenUsage   TokenUsage
	CostEstimate float64
	LatencyMS    int64
}

// QueryContext is the Orchestrator's per-request working state. Only the
// Orchestrator mutates it; every other component receives a read-only
// snapshot and returns a value the Orchestrator merges back in.
type QueryContext struct {
	TraceID    string
	StartedAt  time.Time
	QueryString string

	ModelID        string
	RequestedTopK  int
	ScoreThreshold float64

	Classification Classification

	RetrievalParams RetrievalParams
	ExpandedTerms   []ExpansionTerm
	ExpandedVectors []WeightedVector

	RetrievedChunks []ScoredChunk

	PromptTemplateID string
	PromptText       string
	CitationStyle    string

	MetadataAnswer *MetadataAnswer

	LLMResult LLMResult

	LatencyByStage map[string]int64
}

// NewQueryContext seeds a fresh context for one incoming request.
func NewQueryContext(traceID, query string, startedAt time.Time) *QueryContext {
	return &QueryContext{
		TraceID:        traceID,
		StartedAt:      startedAt,
		QueryString:    query,
		LatencyByStage: make(map[string]int64),
	}
}

// RecordStageLatency stores the elapsed time for a named pipeline stage.
func (qc *QueryContext) RecordStageLatency(stage string, d time.Duration) {
	qc.LatencyByStage[stage] = d.Milliseconds()
}
