package metadatahandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

type fakeStore struct {
	records []domain.LaureateRecord
}

func (f *fakeStore) All() []domain.LaureateRecord { return f.records }

func (f *fakeStore) ByYear(year int) []domain.LaureateRecord {
	var out []domain.LaureateRecord
	for _, r := range f.records {
		if r.YearAwarded == year {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) ByLaureate(name string) *domain.LaureateRecord {
	for _, r := range f.records {
		if r.Laureate == name {
			return &r
		}
	}
	return nil
}

func testStore() *fakeStore {
	return &fakeStore{records: []domain.LaureateRecord{
		{Laureate: "Mikhail Sholokhov", YearAwarded: 1965, Country: "Soviet Union", Category: "Literature"},
		{Laureate: "Toni Morrison", YearAwarded: 1993, Country: "United States", Category: "Literature"},
		{Laureate: "Bob Dylan", YearAwarded: 2016, Country: "United States", Category: "Literature"},
	}}
}

func TestAnswerByYear(t *testing.T) {
	h := New(testStore())
	ans := h.Answer("Who won the Nobel Prize in Literature in 1965?", domain.Classification{Intent: domain.IntentFactualMetadata})

	require.NotNil(t, ans)
	assert.Equal(t, "Mikhail Sholokhov", ans.Laureate)
	assert.Equal(t, 1965, ans.YearAwarded)
}

func TestAnswerMostLaureatesByCountry(t *testing.T) {
	h := New(testStore())
	ans := h.Answer("Which country has the most Nobel literature laureates?", domain.Classification{Intent: domain.IntentFactualMetadata})

	require.NotNil(t, ans)
	assert.Equal(t, "United States", ans.Country)
}

func TestAnswerNoRuleMatches(t *testing.T) {
	h := New(testStore())
	ans := h.Answer("What do laureates say about justice?", domain.Classification{Intent: domain.IntentThematic})

	assert.Nil(t, ans)
}
