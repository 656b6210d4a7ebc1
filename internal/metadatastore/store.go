// Package metadatastore implements the LaureateRecord persistence layer
// one backend per supported storage technology (JSON file, SQLite,
// Postgres, MySQL), all converging on the same read-only, loaded-once-
// at-startup Store contract that internal/metadatahandler depends on.
package metadatastore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// Store is the read-only view of laureate metadata consumed by the
// Metadata Handler. Every backend loads its records once at startup and
// never mutates them afterward.
type Store interface {
	All() []domain.LaureateRecord
	ByYear(year int) []domain.LaureateRecord
	ByLaureate(name string) *domain.LaureateRecord
	Close() error
}

// New builds the configured metadata Store backend.
func New(cfg config.MetadataConfig) (Store, error) {
	switch cfg.Backend {
	case config.MetadataBackendJSON, "":
		return NewJSONStore(cfg.Path)
	case config.MetadataBackendSQLite:
		return NewSQLiteStore(cfg.Path, cfg.Table)
	case config.MetadataBackendPostgres:
		return NewPostgresStore(cfg.DSN, cfg.Table)
	case config.MetadataBackendMySQL:
		return NewMySQLStore(cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Backend)
	}
}

// inMemoryIndex is the shared read-only index every backend builds once
// at load time: the full record set plus year and lowercased-laureate
// lookup maps, so ByYear/ByLaureate never scan.
type inMemoryIndex struct {
	records  []domain.LaureateRecord
	byYear   map[int][]domain.LaureateRecord
	byName   map[string]domain.LaureateRecord
}

func newInMemoryIndex(records []domain.LaureateRecord) *inMemoryIndex {
	idx := &inMemoryIndex{
		records: records,
		byYear:  make(map[int][]domain.LaureateRecord),
		byName:  make(map[string]domain.LaureateRecord),
	}
	for _, r := range records {
		idx.byYear[r.YearAwarded] = append(idx.byYear[r.YearAwarded], r)
		idx.byName[strings.ToLower(r.Laureate)] = r
	}
	for year := range idx.byYear {
		sort.Slice(idx.byYear[year], func(i, j int) bool {
			return idx.byYear[year][i].Laureate < idx.byYear[year][j].Laureate
		})
	}
	return idx
}

func (idx *inMemoryIndex) All() []domain.LaureateRecord {
	out := make([]domain.LaureateRecord, len(idx.records))
	copy(out, idx.records)
	return out
}

func (idx *inMemoryIndex) ByYear(year int) []domain.LaureateRecord {
	return idx.byYear[year]
}

func (idx *inMemoryIndex) ByLaureate(name string) *domain.LaureateRecord {
	r, ok := idx.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil
	}
	cp := r
	return &cp
}
