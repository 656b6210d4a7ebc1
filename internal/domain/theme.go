package domain

import "strings"

// ThemeConfig maps theme names to their curated keyword lists, plus the
// derived keyword→themes index used for O(1) lookup during expansion.
// A keyword may belong to more than one theme.
type ThemeConfig struct {
	Themes map[string][]string `json:"themes"`

	// index is built once by NewThemeConfig and never mutated afterward.
	index map[string][]string
}

// NewThemeConfig builds the derived keyword→theme index eagerly so that
// lookups during query handling never allocate.
func NewThemeConfig(themes map[string][]string) *ThemeConfig {
	tc := &ThemeConfig{
		Themes: themes,
		index:  make(map[string][]string),
	}
	for theme, keywords := range themes {
		for _, kw := range keywords {
			key := normalizeKeyword(kw)
			tc.index[key] = append(tc.index[key], theme)
		}
	}
	return tc
}

// ThemesFor returns the themes a keyword belongs to, or nil if none.
func (tc *ThemeConfig) ThemesFor(keyword string) []string {
	return tc.index[normalizeKeyword(keyword)]
}

// KeywordsOf returns every keyword in a theme.
func (tc *ThemeConfig) KeywordsOf(theme string) []string {
	return tc.Themes[theme]
}

// AllKeywords returns every keyword across all themes, de-duplicated.
func (tc *ThemeConfig) AllKeywords() []string {
	seen := make(map[string]bool, len(tc.index))
	out := make([]string, 0, len(tc.index))
	for theme := range tc.Themes {
		for _, kw := range tc.Themes[theme] {
			key := normalizeKeyword(kw)
			if !seen[key] {
				seen[key] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// ThemeEmbeddings holds one unit-norm vector per theme keyword, specific
// to the active embedding model. Built offline and loaded at startup;
// recomputed whenever the active model or ThemeConfig changes.
type ThemeEmbeddings struct {
	Model     string
	Dimension int
	Vectors   map[string][]float32
}

// ThemeEmbeddingStats summarizes a ThemeEmbeddings set for startup diagnostics.
type ThemeEmbeddingStats struct {
	Count           int
	MeanNorm        float64
	ZeroEmbeddings  int
}
