package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const observationCols = `id, entity_id, content, created_at, updated_at`

// AddObservation attaches a free-text annotation to an entity. Returns nil
// (a no-op, not an error) if the entity does not exist.
func (c conn) AddObservation(entityID, content string) (*Observation, error) {
	ok, err := c.entityExists(entityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	now := time.Now().UTC()
	obs := &Observation{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = c.q.Exec(
		"INSERT INTO observations (id, entity_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		obs.ID, obs.EntityID, obs.Content, obs.CreatedAt, obs.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert observation: %w", err)
	}
	return obs, nil
}

// ObservationsByEntity returns the entity's observations, oldest first.
func (c conn) ObservationsByEntity(entityID string) ([]*Observation, error) {
	rows, err := c.q.Query(
		"SELECT "+observationCols+" FROM observations WHERE entity_id = ? ORDER BY created_at, id",
		entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var observations []*Observation
	for rows.Next() {
		o := &Observation{}
		if err := rows.Scan(&o.ID, &o.EntityID, &o.Content, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

// UpdateObservation rewrites an observation's content. Returns false if no
// such observation exists.
func (c conn) UpdateObservation(id, content string) (bool, error) {
	res, err := c.q.Exec(
		"UPDATE observations SET content = ?, updated_at = ? WHERE id = ?",
		content, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("update observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteObservation removes one observation. Returns false if absent.
func (c conn) DeleteObservation(id string) (bool, error) {
	res, err := c.q.Exec("DELETE FROM observations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
