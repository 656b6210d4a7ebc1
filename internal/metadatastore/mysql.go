package metadatastore

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore serves LaureateRecord from a managed MySQL instance.
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore opens dsn and loads the table into memory once.
func NewMySQLStore(dsn, table string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql metadata store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql metadata store: %w", err)
	}
	records, err := loadAllFromSQL(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLStore{sqlStore: &sqlStore{inMemoryIndex: newInMemoryIndex(records), db: db}}, nil
}

var _ Store = (*MySQLStore)(nil)
