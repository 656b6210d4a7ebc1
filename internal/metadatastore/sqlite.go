package metadatastore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore serves LaureateRecord from an embedded SQLite database,
// the default metadata backend for local deployments.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens the SQLite file at path and loads the table into
// memory once.
func NewSQLiteStore(path, table string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite metadata store %s: %w", path, err)
	}
	records, err := loadAllFromSQL(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: &sqlStore{inMemoryIndex: newInMemoryIndex(records), db: db}}, nil
}

var _ Store = (*SQLiteStore)(nil)
