package metadatastore

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

func sampleRecords() []domain.LaureateRecord {
	return []domain.LaureateRecord{
		{Laureate: "Mikhail Sholokhov", YearAwarded: 1965, Country: "Soviet Union", Category: "Literature"},
		{Laureate: "Toni Morrison", YearAwarded: 1993, Country: "United States", Category: "Literature"},
		{Laureate: "Bob Dylan", YearAwarded: 2016, Country: "United States", Category: "Literature"},
	}
}

func TestJSONStoreLoadsAndIndexes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laureates.json")
	data, err := json.Marshal(sampleRecords())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	store, err := NewJSONStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Len(t, store.All(), 3)

	byYear := store.ByYear(1965)
	require.Len(t, byYear, 1)
	assert.Equal(t, "Mikhail Sholokhov", byYear[0].Laureate)

	rec := store.ByLaureate("toni morrison")
	require.NotNil(t, rec)
	assert.Equal(t, "United States", rec.Country)

	assert.Nil(t, store.ByLaureate("Nobody"))
}

func TestJSONStoreMissingFile(t *testing.T) {
	_, err := NewJSONStore("/nonexistent/laureates.json")
	assert.Error(t, err)
}

func TestInMemoryIndexByYearSortedAlphabetically(t *testing.T) {
	idx := newInMemoryIndex([]domain.LaureateRecord{
		{Laureate: "Zadie Smith", YearAwarded: 2000},
		{Laureate: "Amos Oz", YearAwarded: 2000},
	})
	byYear := idx.ByYear(2000)
	require.Len(t, byYear, 2)
	assert.Equal(t, "Amos Oz", byYear[0].Laureate)
}

func TestSQLiteStoreLoadsFromTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laureates.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE laureates (
		laureate TEXT, year_awarded INTEGER, country TEXT,
		country_flag TEXT, gender TEXT, category TEXT, prize_motivation TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO laureates VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"Toni Morrison", 1993, "United States", "🇺🇸", "female", "Literature", "for works of great imaginative power")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewSQLiteStore(path, "laureates")
	require.NoError(t, err)
	defer store.Close()

	rec := store.ByLaureate("Toni Morrison")
	require.NotNil(t, rec)
	assert.Equal(t, 1993, rec.YearAwarded)
	assert.Equal(t, "United States", rec.Country)
}
