// Package prompt implements the Prompt Builder: variant
// selection, deterministic template rendering, and chunk-count
// truncation.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
)

// CitationStyle is how a rendered prompt cites its source chunks.
type CitationStyle string

const (
	CitationInline   CitationStyle = "inline"
	CitationFootnote CitationStyle = "footnote"
)

// Template is one catalog entry, keyed by `{family}_{variant}`.
type Template struct {
	ID             string        `json:"id"`
	Template       string        `json:"template"`
	Intent         string        `json:"intent"`
	Tags           []string      `json:"tags"`
	ChunkCount     int           `json:"chunk_count"`
	CitationStyle  CitationStyle `json:"citation_style"`
	TonePreference string        `json:"tone_preference,omitempty"`
}

// defaultTemperatures maps a template's TonePreference to the LLM
// sampling temperature it runs at: reflective/generative variants are
// allowed more latitude than the empty preference used by factual and
// thematic templates, which stay deterministic.
var defaultTemperatures = map[string]float64{
	"":           0.0,
	"humble":     0.5,
	"dignified":  0.5,
	"reflective": 0.7,
}

// TemperatureFor resolves the sampling temperature for a template's
// tone preference, used to fill in the Generated stage's LLM call
// parameters now that tone is known but before the call is made.
func TemperatureFor(tonePreference string) float64 {
	if t, ok := defaultTemperatures[tonePreference]; ok {
		return t
	}
	return 0.0
}

// Catalog is the loaded set of templates, keyed by template id.
type Catalog struct {
	templates map[string]Template
}

// LoadCatalog reads the JSON template catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog %s: %w", path, err)
	}
	var raw map[string]Template
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog %s: %w", path, err)
	}
	templates := make(map[string]Template, len(raw))
	for id, t := range raw {
		t.ID = id
		templates[id] = t
	}
	return &Catalog{templates: templates}, nil
}

// NewCatalog builds a Catalog from an in-memory template set, used for
// tests and the built-in default catalog.
func NewCatalog(templates map[string]Template) *Catalog {
	for id, t := range templates {
		t.ID = id
		templates[id] = t
	}
	return &Catalog{templates: templates}
}

// Get returns a template by id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// DefaultCatalog returns the built-in template set covering every
// variant named in the builder's selection rules, used when no catalog file
// is configured.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string]Template{
		"scoped_laureate": {
			Template:      "Answer the question about {laureate} using only the passages below.\n\nQuestion: {query}\n\n{context}",
			Intent:        "scoped",
			ChunkCount:    6,
			CitationStyle: CitationInline,
		},
		"scoped_work": {
			Template:      "Answer the question about the work named in the query, focused on {laureate}, using only the passages below.\n\nQuestion: {query}\n\n{context}",
			Intent:        "scoped",
			ChunkCount:    8,
			CitationStyle: CitationInline,
		},
		"thematic_synthesis_clean": {
			Template:      "Synthesize what these laureates have said on the theme below into a single coherent answer.\n\nTheme: {query}\n\n{context}",
			Intent:        "thematic",
			ChunkCount:    12,
			CitationStyle: CitationFootnote,
		},
		"thematic_enumerative": {
			Template:      "List, one by one, what each laureate below says about the theme.\n\nTheme: {query}\n\n{context}",
			Intent:        "thematic",
			ChunkCount:    10,
			CitationStyle: CitationFootnote,
		},
		"thematic_comparative": {
			Template:      "Compare and analyze how these laureates' perspectives on the theme differ.\n\nTheme: {query}\n\n{context}",
			Intent:        "thematic",
			ChunkCount:    12,
			CitationStyle: CitationFootnote,
		},
		"thematic_contextual": {
			Template:      "Explore the context and nuance behind what these laureates say about the theme.\n\nTheme: {query}\n\n{context}",
			Intent:        "thematic",
			ChunkCount:    10,
			CitationStyle: CitationFootnote,
		},
		"generative_email": {
			Template:       "Write the email requested below, in the tone of a Nobel laureate, grounded in the passages that follow.\n\nRequest: {query}\n\n{context}",
			Intent:         "generative",
			ChunkCount:     10,
			CitationStyle:  CitationInline,
			TonePreference: "humble",
		},
		"generative_speech": {
			Template:       "Write the speech requested below, in the tone of a Nobel laureate, grounded in the passages that follow.\n\nRequest: {query}\n\n{context}",
			Intent:         "generative",
			ChunkCount:     12,
			CitationStyle:  CitationInline,
			TonePreference: "dignified",
		},
		"generative_reflection": {
			Template:       "Write the reflection requested below, in the tone of a Nobel laureate, grounded in the passages that follow.\n\nRequest: {query}\n\n{context}",
			Intent:         "generative",
			ChunkCount:     8,
			CitationStyle:  CitationInline,
			TonePreference: "reflective",
		},
		"qa_factual": {
			Template:      "Answer the factual question below using only the passages that follow.\n\nQuestion: {query}\n\n{context}",
			Intent:        "qa",
			ChunkCount:    5,
			CitationStyle: CitationInline,
		},
		"qa_analytical": {
			Template:      "Analyze and answer the question below using only the passages that follow.\n\nQuestion: {query}\n\n{context}",
			Intent:        "qa",
			ChunkCount:    8,
			CitationStyle: CitationInline,
		},
		"qa_comparative": {
			Template:      "Compare the subjects of the question below using only the passages that follow.\n\nQuestion: {query}\n\n{context}",
			Intent:        "qa",
			ChunkCount:    10,
			CitationStyle: CitationInline,
		},
	})
}
