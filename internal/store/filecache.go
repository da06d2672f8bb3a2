package store

import (
	"database/sql"
	"fmt"
	"time"
)

// FileHash returns the stored content hash for a path, or "" if the file has
// never been analyzed.
func (c conn) FileHash(filePath string) (string, error) {
	var hash string
	err := c.q.QueryRow("SELECT content_hash FROM file_cache WHERE file_path = ?", filePath).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("file hash: %w", err)
	}
	return hash, nil
}

// UpsertFileCache records the hash last analyzed for a path.
func (c conn) UpsertFileCache(filePath, contentHash string, analyzedAt time.Time) error {
	_, err := c.q.Exec(
		`INSERT INTO file_cache (file_path, content_hash, analyzed_at) VALUES (?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET content_hash = excluded.content_hash, analyzed_at = excluded.analyzed_at`,
		filePath, contentHash, analyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert file cache: %w", err)
	}
	return nil
}

// DeleteFileCache removes one cache row. Returns false if absent.
func (c conn) DeleteFileCache(filePath string) (bool, error) {
	res, err := c.q.Exec("DELETE FROM file_cache WHERE file_path = ?", filePath)
	if err != nil {
		return false, fmt.Errorf("delete file cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearFileCache drops every cache row (full-rebuild CLEAR phase).
func (c conn) ClearFileCache() (int64, error) {
	res, err := c.q.Exec("DELETE FROM file_cache")
	if err != nil {
		return 0, fmt.Errorf("clear file cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ListFileCache returns all cache rows ordered by path.
func (c conn) ListFileCache() ([]*FileCacheEntry, error) {
	rows, err := c.q.Query("SELECT file_path, content_hash, analyzed_at FROM file_cache ORDER BY file_path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*FileCacheEntry
	for rows.Next() {
		e := &FileCacheEntry{}
		if err := rows.Scan(&e.FilePath, &e.ContentHash, &e.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan file cache: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
