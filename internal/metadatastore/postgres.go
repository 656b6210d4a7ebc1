package metadatastore

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore serves LaureateRecord from a managed Postgres instance.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore opens dsn and loads the table into memory once.
func NewPostgresStore(dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres metadata store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres metadata store: %w", err)
	}
	records, err := loadAllFromSQL(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{sqlStore: &sqlStore{inMemoryIndex: newInMemoryIndex(records), db: db}}, nil
}

var _ Store = (*PostgresStore)(nil)
