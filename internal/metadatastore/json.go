package metadatastore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// JSONStore loads LaureateRecord from a flat JSON array file on disk.
type JSONStore struct {
	*inMemoryIndex
}

// NewJSONStore reads and indexes the JSON array at path.
func NewJSONStore(path string) (*JSONStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read laureate metadata %s: %w", path, err)
	}
	var records []domain.LaureateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse laureate metadata %s: %w", path, err)
	}
	return &JSONStore{inMemoryIndex: newInMemoryIndex(records)}, nil
}

// Close is a no-op: the JSON file is read once and held in memory.
func (s *JSONStore) Close() error { return nil }

var _ Store = (*JSONStore)(nil)
