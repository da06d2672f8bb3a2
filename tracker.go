package codegraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"codegraph/internal/store"
)

// ChangeTracker decides whether a file needs re-extraction by comparing a
// streamed content digest against the persisted file cache. It never clears
// stale cache rows itself; the coordinator owns that.
type ChangeTracker struct {
	store *store.Store
}

// NewChangeTracker wraps the store's file cache.
func NewChangeTracker(s *store.Store) *ChangeTracker {
	return &ChangeTracker{store: s}
}

// ShouldAnalyze streams the file at absPath and reports whether its digest
// differs from the hash cached under filePath (or no hash is cached). The
// computed hash is returned so a subsequent RecordAnalyzed needs no second
// pass.
func (t *ChangeTracker) ShouldAnalyze(filePath, absPath string) (string, bool, error) {
	hash, err := HashFile(absPath)
	if err != nil {
		return "", false, err
	}
	cached, err := t.store.FileHash(filePath)
	if err != nil {
		return "", false, err
	}
	return hash, cached == "" || cached != hash, nil
}

// RecordAnalyzed stores the hash just analyzed for filePath.
func (t *ChangeTracker) RecordAnalyzed(filePath, hash string) error {
	return t.store.UpsertFileCache(filePath, hash, nowUTC())
}

// HashFile computes the sha256 digest of a file by streaming it, so memory
// use is constant regardless of file size.
func HashFile(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", absPath, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", absPath, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the sha256 digest of in-memory content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
