package store

import (
	"database/sql"
	"fmt"
)

// GetStats aggregates graph-wide counts for the read side.
func (c conn) GetStats() (*Stats, error) {
	stats := &Stats{
		EntitiesByKind:  make(map[string]int),
		RelationsByVerb: make(map[string]int),
	}

	for _, q := range []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM entities", &stats.Entities},
		{"SELECT COUNT(*) FROM relations", &stats.Relations},
		{"SELECT COUNT(*) FROM observations", &stats.Observations},
		{"SELECT COUNT(*) FROM file_cache", &stats.Files},
	} {
		if err := c.q.QueryRow(q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("stats count: %w", err)
		}
	}

	if err := c.countBy("SELECT kind, COUNT(*) FROM entities GROUP BY kind", stats.EntitiesByKind); err != nil {
		return nil, err
	}
	if err := c.countBy("SELECT verb, COUNT(*) FROM relations GROUP BY verb", stats.RelationsByVerb); err != nil {
		return nil, err
	}

	var last sql.NullTime
	if err := c.q.QueryRow("SELECT MAX(analyzed_at) FROM file_cache").Scan(&last); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("stats last analyzed: %w", err)
	}
	if last.Valid {
		t := last.Time
		stats.LastAnalyzed = &t
	}

	return stats, nil
}

func (c conn) countBy(query string, dst map[string]int) error {
	rows, err := c.q.Query(query)
	if err != nil {
		return fmt.Errorf("stats group: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan stats group: %w", err)
		}
		dst[key] = n
	}
	return rows.Err()
}
