package metadatastore

import (
	"database/sql"
	"fmt"

	"github.com/nobellm-ai/nobellm-query/internal/domain"
)

// loadAllFromSQL runs the one startup query every SQL-backed store
// issues, then never touches the database again: the corpus is
// immutable at query time, so there is nothing to gain from
// querying per-request.
func loadAllFromSQL(db *sql.DB, table string) ([]domain.LaureateRecord, error) {
	query := fmt.Sprintf(
		`SELECT laureate, year_awarded, country, country_flag, gender, category, prize_motivation FROM %s`,
		table,
	)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query laureate table %s: %w", table, err)
	}
	defer rows.Close()

	var records []domain.LaureateRecord
	for rows.Next() {
		var r domain.LaureateRecord
		if err := rows.Scan(&r.Laureate, &r.YearAwarded, &r.Country, &r.CountryFlag, &r.Gender, &r.Category, &r.PrizeMotivation); err != nil {
			return nil, fmt.Errorf("scan laureate row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate laureate rows: %w", err)
	}
	return records, nil
}

// sqlStore wraps the shared in-memory index plus the open *sql.DB so
// Close releases the connection pool cleanly.
type sqlStore struct {
	*inMemoryIndex
	db *sql.DB
}

func (s *sqlStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
