// Package metadatahandler implements the Metadata Handler: answering a
// closed set of factual question shapes directly from LaureateRecord
// fields, without retrieval or an LLM call.
package metadatahandler

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// Store is the read-only view of laureate metadata the handler needs.
// internal/metadatastore implementations satisfy this.
type Store interface {
	All() []domain.LaureateRecord
	ByYear(year int) []domain.LaureateRecord
	ByLaureate(name string) *domain.LaureateRecord
}

// Handler answers factual metadata queries using regex-matched rules.
type Handler struct {
	store Store
}

// New builds a Handler over a metadata Store.
func New(store Store) *Handler {
	return &Handler{store: store}
}

var (
	byYearPattern      = regexp.MustCompile(`(?i)who won.*?\b(1[89]\d{2}|20\d{2})\b`)
	byLaureateWhenPat  = regexp.MustCompile(`(?i)when did (.+?) win`)
	byLaureateWherePat = regexp.MustCompile(`(?i)where is (.+?) from`)
	byCountryCountPat  = regexp.MustCompile(`(?i)how many laureates (from|in) (.+?)[\?\.]?$`)
	mostLaureatesPat   = regexp.MustCompile(`(?i)which country has the most`)
)

// Answer returns a metadata answer for query, returning nil when no rule
// matches — the Orchestrator then falls back to qa retrieval.
func (h *Handler) Answer(query string, classification domain.Classification) *domain.MetadataAnswer {
	trimmed := strings.TrimSpace(query)

	if m := byYearPattern.FindStringSubmatch(trimmed); m != nil {
		year, _ := strconv.Atoi(m[1])
		records := h.store.ByYear(year)
		if len(records) == 0 {
			return nil
		}
		r := tieBreakEarliestAlphabetic(records)
		return recordToAnswer(r, "by_year")
	}

	if m := byLaureateWhenPat.FindStringSubmatch(trimmed); m != nil {
		if r := h.store.ByLaureate(m[1]); r != nil {
			return recordToAnswer(*r, "by_laureate_when")
		}
	}

	if m := byLaureateWherePat.FindStringSubmatch(trimmed); m != nil {
		if r := h.store.ByLaureate(m[1]); r != nil {
			return recordToAnswer(*r, "by_laureate_where")
		}
	}

	if mostLaureatesPat.MatchString(trimmed) {
		return h.mostLaureatesByCountry()
	}

	if m := byCountryCountPat.FindStringSubmatch(trimmed); m != nil {
		return h.countByCountry(m[2])
	}

	if classification.HasScopedEntity() {
		if r := h.store.ByLaureate(classification.ScopedEntity); r != nil && looksFactual(trimmed) {
			return recordToAnswer(*r, "by_laureate_scoped")
		}
	}

	return nil
}

func looksFactual(q string) bool {
	lower := strings.ToLower(q)
	return strings.Contains(lower, "when") || strings.Contains(lower, "where") || strings.Contains(lower, "what year")
}

// tieBreakEarliestAlphabetic applies the deterministic tie-break:
// alphabetic by name, then earliest year.
func tieBreakEarliestAlphabetic(records []domain.LaureateRecord) domain.LaureateRecord {
	sorted := make([]domain.LaureateRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Laureate != sorted[j].Laureate {
			return sorted[i].Laureate < sorted[j].Laureate
		}
		return sorted[i].YearAwarded < sorted[j].YearAwarded
	})
	return sorted[0]
}

func (h *Handler) mostLaureatesByCountry() *domain.MetadataAnswer {
	counts := map[string]int{}
	for _, r := range h.store.All() {
		counts[r.Country]++
	}
	if len(counts) == 0 {
		return nil
	}

	type countryCount struct {
		country string
		count   int
	}
	list := make([]countryCount, 0, len(counts))
	for c, n := range counts {
		list = append(list, countryCount{c, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].country < list[j].country
	})

	return &domain.MetadataAnswer{
		Country: list[0].country,
		Rule:    "by_country_most",
	}
}

func (h *Handler) countByCountry(country string) *domain.MetadataAnswer {
	country = strings.TrimSpace(country)
	count := 0
	for _, r := range h.store.All() {
		if strings.EqualFold(r.Country, country) {
			count++
		}
	}
	return &domain.MetadataAnswer{
		Country: country,
		Count:   count,
		Rule:    "by_country_count",
	}
}

func recordToAnswer(r domain.LaureateRecord, rule string) *domain.MetadataAnswer {
	return &domain.MetadataAnswer{
		Laureate:        r.Laureate,
		YearAwarded:     r.YearAwarded,
		Country:         r.Country,
		CountryFlag:     r.CountryFlag,
		Category:        r.Category,
		PrizeMotivation: r.PrizeMotivation,
		Rule:            rule,
	}
}
