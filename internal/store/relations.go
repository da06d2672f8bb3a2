package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const relationCols = `id, source_entity_id, target_entity_id, verb, metadata, created_at`

func (c conn) scanRelation(scanner interface{ Scan(...any) error }) (*Relation, error) {
	r := &Relation{}
	var meta string
	err := scanner.Scan(&r.ID, &r.SourceEntityID, &r.TargetEntityID, &r.Verb, &meta, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Metadata = unmarshalMetadata(meta)
	return r, nil
}

func (c conn) queryRelations(query string, args ...any) ([]*Relation, error) {
	rows, err := c.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var relations []*Relation
	for rows.Next() {
		r, err := c.scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	return relations, rows.Err()
}

func (c conn) entityExists(id string) (bool, error) {
	var one int
	err := c.q.QueryRow("SELECT 1 FROM entities WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("entity exists: %w", err)
	}
	return true, nil
}

// UpsertRelation creates the (source, target, verb) edge if it does not
// already exist, returning the stored relation either way. If either
// endpoint is missing it returns nil: this is the single mechanism by which
// unresolved or external relation candidates are discarded instead of being
// persisted as dangling edges.
func (c conn) UpsertRelation(sourceID, targetID, verb string, metadata map[string]string) (*Relation, error) {
	if !validVerbs[verb] {
		return nil, fmt.Errorf("upsert relation: unknown verb %q", verb)
	}

	for _, id := range []string{sourceID, targetID} {
		ok, err := c.entityExists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.log.Debug("relation.skip", "reason", "missing_endpoint", "entity", id, "verb", verb)
			return nil, nil
		}
	}

	existing, err := c.scanRelation(c.q.QueryRow(
		"SELECT "+relationCols+" FROM relations WHERE source_entity_id = ? AND target_entity_id = ? AND verb = ?",
		sourceID, targetID, verb,
	))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("relation by key: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created := &Relation{
		ID:             uuid.NewString(),
		SourceEntityID: sourceID,
		TargetEntityID: targetID,
		Verb:           verb,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = c.q.Exec(
		`INSERT INTO relations (id, source_entity_id, target_entity_id, verb, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		created.ID, created.SourceEntityID, created.TargetEntityID, created.Verb,
		marshalMetadata(created.Metadata), created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert relation: %w", err)
	}
	return created, nil
}

// ListRelations returns relations matching the filter, ordered by
// (source, target, verb) for stable output.
func (c conn) ListRelations(filter RelationFilter) ([]*Relation, error) {
	query := "SELECT " + relationCols + " FROM relations"
	var clauses []string
	var args []any
	if filter.SourceEntityID != "" {
		clauses = append(clauses, "source_entity_id = ?")
		args = append(args, filter.SourceEntityID)
	}
	if filter.TargetEntityID != "" {
		clauses = append(clauses, "target_entity_id = ?")
		args = append(args, filter.TargetEntityID)
	}
	if filter.Verb != "" {
		clauses = append(clauses, "verb = ?")
		args = append(args, filter.Verb)
	}
	for i, cl := range clauses {
		if i == 0 {
			query += " WHERE " + cl
		} else {
			query += " AND " + cl
		}
	}
	query += " ORDER BY source_entity_id, target_entity_id, verb"
	return c.queryRelations(query, args...)
}

// DeleteAllRelations drops every relation. Used by the coordinator's CLEAR
// phase so a rebuild never leaves edges pointing at removed symbols.
func (c conn) DeleteAllRelations() (int64, error) {
	res, err := c.q.Exec("DELETE FROM relations")
	if err != nil {
		return 0, fmt.Errorf("delete relations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
