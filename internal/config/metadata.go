package config

import "fmt"

// MetadataBackend identifies which internal/metadatastore implementation
// serves LaureateRecord lookups.
type MetadataBackend string

const (
	MetadataBackendJSON     MetadataBackend = "json"
	MetadataBackendSQLite   MetadataBackend = "sqlite"
	MetadataBackendPostgres MetadataBackend = "postgres"
	MetadataBackendMySQL    MetadataBackend = "mysql"
)

// MetadataConfig configures the laureate metadata store. The corpus is
// read-only at query time, so any backend here is loaded once at
// startup and never mutated afterward.
type MetadataConfig struct {
	Backend MetadataBackend `yaml:"backend"`
	Path    string          `yaml:"path"` // JSON array or SQLite file path
	DSN     string          `yaml:"dsn"`  // postgres/mysql connection string
	Table   string          `yaml:"table"`
}

func (c *MetadataConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = MetadataBackendSQLite
	}
	if c.Path == "" && c.Backend == MetadataBackendSQLite {
		c.Path = "./data/laureates.db"
	}
	if c.Path == "" && c.Backend == MetadataBackendJSON {
		c.Path = "./data/laureates.json"
	}
	if c.Table == "" {
		c.Table = "laureates"
	}
}

func (c *MetadataConfig) Validate() error {
	switch c.Backend {
	case MetadataBackendJSON, MetadataBackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("metadata.path is required for backend %q", c.Backend)
		}
	case MetadataBackendPostgres, MetadataBackendMySQL:
		if c.DSN == "" {
			return fmt.Errorf("metadata.dsn is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unknown metadata.backend %q", c.Backend)
	}
	return nil
}
