// Package router implements the Query Router: the decision of which
// handler takes a classified query and which template family it uses.
package router

import (
	"regexp"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// TemplateFamily identifies the prompt template family chosen for a
// route, before the Prompt Builder picks a specific variant.
type TemplateFamily string

const (
	FamilyScoped     TemplateFamily = "scoped"
	FamilyThematic   TemplateFamily = "thematic"
	FamilyGenerative TemplateFamily = "generative"
	FamilyQA         TemplateFamily = "qa"
)

// Path identifies which branch of the pipeline a query takes.
type Path string

const (
	PathMetadata  Path = "metadata"
	PathRetrieval Path = "retrieval"
)

// Decision is the Query Router's output.
type Decision struct {
	Path            Path
	TemplateFamily  TemplateFamily
	Filter          domain.RetrievalFilter
	InvokeExpansion bool
}

var workTitlePattern = regexp.MustCompile(`"([^"]{2,80})"|'([^']{2,80})'`)

// Route decides the processing path and template family for a query.
func Route(query string, classification domain.Classification) Decision {
	switch classification.Intent {
	case domain.IntentFactualMetadata:
		return Decision{Path: PathMetadata}

	case domain.IntentScoped:
		filter := domain.RetrievalFilter{}
		if classification.ScopedEntity != "" {
			filter.Laureate = classification.ScopedEntity
		}
		return Decision{Path: PathRetrieval, TemplateFamily: FamilyScoped, Filter: filter}

	case domain.IntentThematic:
		return Decision{Path: PathRetrieval, TemplateFamily: FamilyThematic, InvokeExpansion: true}

	case domain.IntentGenerative:
		return Decision{Path: PathRetrieval, TemplateFamily: FamilyGenerative}

	default:
		return Decision{Path: PathRetrieval, TemplateFamily: FamilyQA}
	}
}

// HasWorkTitle reports whether the query names a quoted work title,
// used by the Prompt Builder to choose scoped_work vs scoped_laureate.
func HasWorkTitle(query string) bool {
	return workTitlePattern.MatchString(query)
}

// FormCue detects the generative form (email / speech / reflection)
// named in the query, defaulting to reflection.
func FormCue(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "email"):
		return "email"
	case strings.Contains(lower, "speech"):
		return "speech"
	default:
		return "reflection"
	}
}

// QAFormCue detects the qa variant cue (analytical / comparative /
// factual), defaulting to factual.
func QAFormCue(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "compare", "contrast"):
		return "comparative"
	case containsAny(lower, "analyze", "why", "how"):
		return "analytical"
	default:
		return "factual"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
