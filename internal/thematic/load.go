package thematic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// themeConfigDoc is the on-disk shape of the ThemeConfig document: a
// mapping theme_name -> list of keywords, matching the "Intent cue
// configuration"-style JSON persisted state.
type themeConfigDoc struct {
	Themes map[string][]string `json:"themes"`
}

// LoadThemeConfig reads the curated theme taxonomy from disk and builds
// its derived keyword->theme index.
func LoadThemeConfig(path string) (*domain.ThemeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme config %s: %w", path, err)
	}
	var doc themeConfigDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse theme config %s: %w", path, err)
	}
	return domain.NewThemeConfig(doc.Themes), nil
}

// themeEmbeddingsDoc is the on-disk shape of one model's ThemeEmbeddings
// archive: a per-model .npz of parallel keyword and
// vector arrays; this service persists the same content as JSON, which
// carries identically and avoids a numpy-format dependency with no
// natural Go equivalent in this stack.
type themeEmbeddingsDoc struct {
	Model     string                 `json:"model"`
	Dimension int                    `json:"dimension"`
	Vectors   map[string][]float32   `json:"vectors"`
}

// LoadThemeEmbeddings reads a model-specific ThemeEmbeddings archive
// from disk. Callers must run ValidateEmbeddings against the active
// model's dimension before serving queries, failing fast on mismatch.
func LoadThemeEmbeddings(path string) (*domain.ThemeEmbeddings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme embeddings %s: %w", path, err)
	}
	var doc themeEmbeddingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse theme embeddings %s: %w", path, err)
	}
	return &domain.ThemeEmbeddings{
		Model:     doc.Model,
		Dimension: doc.Dimension,
		Vectors:   doc.Vectors,
	}, nil
}
