package intentclass

import (
	"regexp"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// priorityOrder is the tie-break order from the intent listing:
// factual_metadata, scoped, thematic, generative, qa.
var priorityOrder = []domain.Intent{
	domain.IntentFactualMetadata,
	domain.IntentScoped,
	domain.IntentThematic,
	domain.IntentGenerative,
	domain.IntentQA,
}

// LaureateIndex is a read-only lookup of known laureate names, used to
// detect a scoped_entity by simple named-entity matching.
type LaureateIndex struct {
	names []string
}

// NewLaureateIndex builds an index from a list of laureate names,
// longest-first so "Toni Morrison" matches before a hypothetical
// "Morrison" substring entry.
func NewLaureateIndex(names []string) *LaureateIndex {
	cp := make([]string, len(names))
	copy(cp, names)
	for i := 0; i < len(cp); i++ {
		for j := i + 1; j < len(cp); j++ {
			if len(cp[j]) > len(cp[i]) {
				cp[i], cp[j] = cp[j], cp[i]
			}
		}
	}
	return &LaureateIndex{names: cp}
}

// Find returns the first (longest) laureate name appearing in query, or
// "" if none match.
func (li *LaureateIndex) Find(query string) string {
	lower := strings.ToLower(query)
	for _, name := range li.names {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

// Classifier scores a query against a CueSet and an optional laureate
// index. It is a pure function of its inputs: no state, no randomness.
type Classifier struct {
	cues      *CueSet
	laureates *LaureateIndex
}

// New builds a Classifier.
func New(cues *CueSet, laureates *LaureateIndex) *Classifier {
	return &Classifier{cues: cues, laureates: laureates}
}

// Classify assigns an intent and confidence to a query. Classification is total: it
// never fails, and falls back to qa with confidence 0 when no cue
// fires.
func (c *Classifier) Classify(query string) domain.Classification {
	scores := make(map[domain.Intent]float64, len(priorityOrder))
	var matchedCues []string

	for _, cue := range c.cues.IntentCues {
		if cue.compiled != nil && cue.compiled.MatchString(query) {
			scores[cue.Intent] += cue.Weight
			matchedCues = append(matchedCues, cue.Pattern)
		}
	}

	scopedEntity := ""
	if c.laureates != nil {
		scopedEntity = c.laureates.Find(query)
		if scopedEntity != "" {
			scores[domain.IntentScoped] += 2.0
			matchedCues = append(matchedCues, "laureate:"+scopedEntity)
		}
	}

	winner, total := resolveWinner(scores)

	result := domain.Classification{
		Intent:      winner,
		MatchedCues: matchedCues,
	}
	if total > 0 {
		result.Confidence = scores[winner] / total
	}
	if winner == domain.IntentScoped {
		result.ScopedEntity = scopedEntity
	}

	if winner == domain.IntentThematic {
		subtype, subConf, subCues := c.classifySubtype(query)
		result.ThematicSubtype = subtype
		result.SubtypeConfidence = subConf
		result.SubtypeCues = subCues
	}

	return result
}

func resolveWinner(scores map[domain.Intent]float64) (domain.Intent, float64) {
	var total float64
	best := domain.IntentQA
	bestScore := 0.0

	for _, intent := range priorityOrder {
		s := scores[intent]
		if s > 0 {
			total += s
		}
		if s > bestScore {
			bestScore = s
			best = intent
		}
	}

	return best, total
}

// classifySubtype scores thematic subtype cues; synthesis is the
// default when thematic but no subtype cue fires.
func (c *Classifier) classifySubtype(query string) (domain.ThematicSubtype, float64, []string) {
	scores := make(map[domain.ThematicSubtype]float64)
	var cues []string

	for _, cue := range c.cues.SubtypeCues {
		if cue.compiled != nil && cue.compiled.MatchString(query) {
			scores[cue.Subtype] += cue.Weight
			cues = append(cues, cue.Pattern)
		}
	}

	total := 0.0
	best := domain.SubtypeSynthesis
	bestScore := 0.0
	for _, subtype := range []domain.ThematicSubtype{domain.SubtypeEnumerative, domain.SubtypeAnalytical, domain.SubtypeExploratory} {
		s := scores[subtype]
		total += s
		if s > bestScore {
			bestScore = s
			best = subtype
		}
	}

	if total == 0 {
		return domain.SubtypeSynthesis, 0, nil
	}
	return best, bestScore / total, cues
}

var wordBoundary = regexp.MustCompile(`\W+`)

// Tokenize splits a query into lowercase whole words, used by thematic
// expansion's candidate-keyword extraction.
func Tokenize(query string) []string {
	lower := strings.ToLower(query)
	parts := wordBoundary.Split(lower, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
