package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const entityCols = `id, name, kind, file_path, start_line, end_line, description, metadata, created_at, updated_at`

func (c conn) scanEntity(scanner interface{ Scan(...any) error }) (*Entity, error) {
	e := &Entity{}
	var meta string
	err := scanner.Scan(
		&e.ID, &e.Name, &e.Kind, &e.FilePath, &e.StartLine, &e.EndLine,
		&e.Description, &meta, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Metadata = unmarshalMetadata(meta)
	return e, nil
}

func (c conn) queryEntities(query string, args ...any) ([]*Entity, error) {
	rows, err := c.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entities []*Entity
	for rows.Next() {
		e, err := c.scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// entityByKey fetches the entity matching the uniqueness key, or nil.
func (c conn) entityByKey(filePath, name, kind string, startLine int) (*Entity, error) {
	e, err := c.scanEntity(c.q.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE file_path = ? AND name = ? AND kind = ? AND start_line = ?",
		filePath, name, kind, startLine,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by key: %w", err)
	}
	return e, nil
}

// UpsertEntity creates or updates an entity keyed by (file_path, name, kind,
// start_line). An existing match is updated in place: its id and created_at
// are preserved, so attached observations survive re-analysis. Otherwise a
// new entity with a fresh id is inserted.
func (c conn) UpsertEntity(e *Entity) (*Entity, error) {
	now := time.Now().UTC()
	existing, err := c.entityByKey(e.FilePath, e.Name, e.Kind, e.StartLine)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, err := c.q.Exec(
			"UPDATE entities SET end_line = ?, description = ?, metadata = ?, updated_at = ? WHERE id = ?",
			e.EndLine, e.Description, marshalMetadata(e.Metadata), now, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("update entity: %w", err)
		}
		existing.EndLine = e.EndLine
		existing.Description = e.Description
		existing.Metadata = e.Metadata
		existing.UpdatedAt = now
		return existing, nil
	}

	created := &Entity{
		ID:          uuid.NewString(),
		Name:        e.Name,
		Kind:        e.Kind,
		FilePath:    e.FilePath,
		StartLine:   e.StartLine,
		EndLine:     e.EndLine,
		Description: e.Description,
		Metadata:    e.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = c.q.Exec(
		`INSERT INTO entities (id, name, kind, file_path, start_line, end_line, description, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, created.Kind, created.FilePath, created.StartLine, created.EndLine,
		created.Description, marshalMetadata(created.Metadata), created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}
	return created, nil
}

// EntityByID returns the entity with the given id, or nil if absent.
func (c conn) EntityByID(id string) (*Entity, error) {
	e, err := c.scanEntity(c.q.QueryRow("SELECT "+entityCols+" FROM entities WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by id: %w", err)
	}
	return e, nil
}

// FindEntityInFile returns the entity named name in exactly filePath, or nil.
// When several declarations in the file share a name, the one with the lowest
// start line wins.
func (c conn) FindEntityInFile(name, filePath string) (*Entity, error) {
	e, err := c.scanEntity(c.q.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE name = ? AND file_path = ? ORDER BY start_line LIMIT 1",
		name, filePath,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity in file: %w", err)
	}
	return e, nil
}

// FindEntityByName resolves a name to an entity. An exact match in filePath
// is preferred; otherwise the first match anywhere in the store wins, under
// a stable (file_path, start_line) ordering. The fallback is a documented
// heuristic: when duplicate names exist across files, the winner is
// deterministic but not necessarily the one the author meant.
func (c conn) FindEntityByName(name, filePath string) (*Entity, error) {
	if filePath != "" {
		e, err := c.FindEntityInFile(name, filePath)
		if err != nil || e != nil {
			return e, err
		}
	}
	e, err := c.scanEntity(c.q.QueryRow(
		"SELECT "+entityCols+" FROM entities WHERE name = ? ORDER BY file_path, start_line LIMIT 1",
		name,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by name: %w", err)
	}
	return e, nil
}

// ListEntities returns entities matching the filter, ordered by
// (file_path, start_line, name) for stable output.
func (c conn) ListEntities(filter EntityFilter) ([]*Entity, error) {
	query := "SELECT " + entityCols + " FROM entities"
	var clauses []string
	var args []any
	if filter.FilePath != "" {
		clauses = append(clauses, "file_path = ?")
		args = append(args, filter.FilePath)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Name != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, filter.Name)
	}
	for i, cl := range clauses {
		if i == 0 {
			query += " WHERE " + cl
		} else {
			query += " AND " + cl
		}
	}
	query += " ORDER BY file_path, start_line, name"
	return c.queryEntities(query, args...)
}

// DeleteEntitiesByFile removes every entity recorded for filePath, cascading
// to relations (either endpoint) and observations. Returns the number of
// entities deleted.
func (c conn) DeleteEntitiesByFile(filePath string) (int64, error) {
	res, err := c.q.Exec("DELETE FROM entities WHERE file_path = ?", filePath)
	if err != nil {
		return 0, fmt.Errorf("delete entities by file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteEntityByID removes one entity, cascading to its relations and
// observations. Returns false if no such entity existed.
func (c conn) DeleteEntityByID(id string) (bool, error) {
	res, err := c.q.Exec("DELETE FROM entities WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
