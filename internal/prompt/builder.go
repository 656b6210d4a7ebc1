package prompt

import (
	"fmt"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
	"github.com/nobellm-ai/nobellm-query/internal/router"
)

// Builder selects a template variant and renders a prompt.
type Builder struct {
	catalog *Catalog
}

// New builds a Builder over a loaded Catalog.
func New(catalog *Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Result is the Prompt Builder's output.
type Result struct {
	TemplateID     string
	PromptText     string
	CitationStyle  CitationStyle
	TonePreference string
	ChunkCount     int
}

// SelectVariant exposes the variant-selection rules so callers
// that need the chosen template id before Build runs — the
// Orchestrator resolving a per-variant top_k default ahead of
// retrieval — can reuse the same logic instead of duplicating it.
func SelectVariant(query string, decision router.Decision, classification domain.Classification) string {
	return selectVariant(query, decision, classification)
}

// Build renders the selected variant's template against the query,
// decision, classification, and retrieved chunks.
func (b *Builder) Build(query string, decision router.Decision, classification domain.Classification, chunks []domain.ScoredChunk) (Result, error) {
	variant := selectVariant(query, decision, classification)

	tmpl, ok := b.catalog.Get(variant)
	if !ok {
		return Result{}, fmt.Errorf("prompt builder: no template registered for variant %q", variant)
	}

	n := tmpl.ChunkCount
	if n > len(chunks) {
		n = len(chunks)
	}
	truncated := chunks[:n]

	rendered, err := render(tmpl.Template, query, decision.Filter.Laureate, truncated)
	if err != nil {
		return Result{}, err
	}

	return Result{
		TemplateID:     variant,
		PromptText:     rendered,
		CitationStyle:  tmpl.CitationStyle,
		TonePreference: tmpl.TonePreference,
		ChunkCount:     n,
	}, nil
}

// selectVariant applies the per-family variant-selection rules.
func selectVariant(query string, decision router.Decision, classification domain.Classification) string {
	switch decision.TemplateFamily {
	case router.FamilyThematic:
		switch classification.ThematicSubtype {
		case domain.SubtypeEnumerative:
			return "thematic_enumerative"
		case domain.SubtypeAnalytical:
			return "thematic_comparative"
		case domain.SubtypeExploratory:
			return "thematic_contextual"
		default:
			return "thematic_synthesis_clean"
		}

	case router.FamilyGenerative:
		return "generative_" + router.FormCue(query)

	case router.FamilyQA:
		return "qa_" + router.QAFormCue(query)

	case router.FamilyScoped:
		if router.HasWorkTitle(query) {
			return "scoped_work"
		}
		return "scoped_laureate"

	default:
		return "qa_factual"
	}
}

// render substitutes {query}, {context}, and {laureate} placeholders.
// Every placeholder present in the template must be filled; {laureate}
// is only valid outside scoped templates if a laureate filter was
// applied.
func render(tmpl, query, laureate string, chunks []domain.ScoredChunk) (string, error) {
	out := strings.ReplaceAll(tmpl, "{query}", query)
	out = strings.ReplaceAll(out, "{context}", renderContext(chunks))

	if strings.Contains(out, "{laureate}") {
		if laureate == "" {
			return "", fmt.Errorf("prompt builder: template requires {laureate} but no laureate was scoped")
		}
		out = strings.ReplaceAll(out, "{laureate}", laureate)
	}

	return out, nil
}

// renderContext concatenates chunk blocks, each carrying source
// attribution, separated by blank lines, in retrieval order.
func renderContext(chunks []domain.ScoredChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("[%s, %d, %s]\n%s", c.Chunk.Laureate, c.Chunk.YearAwarded, c.Chunk.SourceType, c.Chunk.Text))
	}
	return strings.Join(blocks, "\n\n")
}
