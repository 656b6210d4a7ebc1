package thematic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadThemeConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "themes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"themes": {
			"justice": ["justice", "freedom"],
			"hope": ["hope", "resilience"]
		}
	}`), 0o644))

	cfg, err := LoadThemeConfig(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"justice"}, cfg.ThemesFor("freedom"))
	assert.ElementsMatch(t, []string{"justice", "freedom"}, cfg.KeywordsOf("justice"))
}

func TestLoadThemeConfigMissingFile(t *testing.T) {
	_, err := LoadThemeConfig("/nonexistent/themes.json")
	assert.Error(t, err)
}

func TestLoadThemeEmbeddings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme_embeddings_bge-large.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"model": "bge-large",
		"dimension": 2,
		"vectors": {"justice": [0.6, 0.8]}
	}`), 0o644))

	emb, err := LoadThemeEmbeddings(path)
	require.NoError(t, err)
	assert.Equal(t, "bge-large", emb.Model)
	assert.Equal(t, 2, emb.Dimension)
	assert.Equal(t, []float32{0.6, 0.8}, emb.Vectors["justice"])

	assert.Nil(t, ValidateEmbeddings(emb, 2))
}
