package codegraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"codegraph/internal/extract"
	"codegraph/internal/scan"
	"codegraph/internal/store"
)

// FileScanner is the boundary to workspace file discovery. The engine only
// needs the de-duplicated file list; it reads each file's content itself.
type FileScanner interface {
	Scan(ctx context.Context) ([]scan.File, error)
}

// Phase names reported through the progress callback.
type Phase string

const (
	PhaseScanning    Phase = "scanning"
	PhaseExtracting  Phase = "extracting"
	PhaseReconciling Phase = "reconciling"
	PhaseResolving   Phase = "resolving"
)

// ProgressFunc receives coarse phase/position callbacks during a run. It is
// advisory only and has no effect on the outcome. total may be zero when a
// phase has no meaningful denominator.
type ProgressFunc func(phase Phase, done, total int)

// FileError records one non-fatal per-file extraction failure.
type FileError struct {
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

// Report summarizes one analysis run.
type Report struct {
	Entities      int         `json:"entities"`
	Relations     int         `json:"relations"`
	FilesAnalyzed int         `json:"filesAnalyzed"`
	Skipped       bool        `json:"skipped,omitempty"`
	Errors        []FileError `json:"errors,omitempty"`
}

// Engine orchestrates full-workspace and single-file analysis over a
// GraphStore: extraction, identity-preserving entity reconciliation, and
// relation resolution. One engine per store; runs are single-threaded and
// process files in sorted path order, because name-only relation resolution
// is order-sensitive.
type Engine struct {
	store     *store.Store
	extractor extract.Extractor
	tracker   *ChangeTracker
	progress  ProgressFunc
	log       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtractor swaps the symbol extractor. The default is the
// brace-counting heuristic.
func WithExtractor(x extract.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithProgress installs an advisory progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLogger replaces the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath, creating the
// schema if needed.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("codegraph: open store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("codegraph: migrate: %w", err)
	}

	e := &Engine{
		store:     s,
		extractor: extract.NewHeuristic(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tracker = NewChangeTracker(s)
	s.SetLogger(e.log)
	return e, nil
}

// Close releases the engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying GraphStore for read-side consumers and
// observation CRUD. Consumers must not mutate entities or relations
// directly.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Tracker returns the engine's change tracker.
func (e *Engine) Tracker() *ChangeTracker {
	return e.tracker
}

func (e *Engine) emit(phase Phase, done, total int) {
	if e.progress != nil {
		e.progress(phase, done, total)
	}
}

// entityKey is the uniqueness key under which entity identity is stable
// across re-analyses.
type entityKey struct {
	FilePath  string
	Name      string
	Kind      string
	StartLine int
}

func keyOf(sym extract.Symbol) entityKey {
	return entityKey{FilePath: sym.FilePath, Name: sym.Name, Kind: sym.Kind, StartLine: sym.StartLine}
}

func symbolEntity(sym extract.Symbol) *store.Entity {
	return &store.Entity{
		Name:        sym.Name,
		Kind:        sym.Kind,
		FilePath:    sym.FilePath,
		StartLine:   sym.StartLine,
		EndLine:     sym.EndLine,
		Description: sym.Description,
		Metadata:    sym.Metadata,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// AnalyzeWorkspace runs the full pipeline:
//
//  1. LOAD      — read existing entities into a map keyed by entityKey.
//  2. CLEAR     — drop all relations and the file cache. Entities and
//     observations are preserved.
//  3. SCAN      — obtain candidate files from the scanner.
//  4. EXTRACT   — run the extractor per file; per-file failures are
//     recorded and do not abort the batch.
//  5. RECONCILE — one transaction: delete entities whose key vanished
//     (cascading), upsert every extracted symbol (ids preserved for
//     surviving keys), refresh the file cache.
//  6. RESOLVE   — one transaction: resolve relation candidates by name and
//     upsert the edges; unresolved candidates are discarded.
//  7. REPORT.
//
// Transaction failures abort the active phase and are fatal to the run;
// earlier committed phases remain valid.
func (e *Engine) AnalyzeWorkspace(ctx context.Context, scanner FileScanner) (*Report, error) {
	started := nowUTC()
	report := &Report{}

	// LOAD
	existing, err := e.store.ListEntities(store.EntityFilter{})
	if err != nil {
		return nil, fmt.Errorf("load phase: %w", err)
	}
	oldKeys := make(map[entityKey]string, len(existing))
	for _, ent := range existing {
		oldKeys[entityKey{ent.FilePath, ent.Name, ent.Kind, ent.StartLine}] = ent.ID
	}

	// CLEAR
	err = e.store.WithTransaction(func(tx *store.Tx) error {
		if _, err := tx.DeleteAllRelations(); err != nil {
			return err
		}
		_, err := tx.ClearFileCache()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clear phase: %w", err)
	}

	// SCAN
	e.emit(PhaseScanning, 0, 0)
	files, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	e.log.Info("analyze.start", "files", len(files), "known_entities", len(existing))

	// EXTRACT
	newSymbols := make(map[entityKey]extract.Symbol)
	var candidates []extract.RelationCandidate
	type analyzedFile struct{ path, hash string }
	var analyzed []analyzedFile

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.emit(PhaseExtracting, i+1, len(files))

		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			report.Errors = append(report.Errors, FileError{FilePath: f.Path, Message: err.Error()})
			e.log.Warn("extract.error", "file", f.Path, "error", err)
			continue
		}
		res, err := e.extractor.Extract(f.Path, content)
		if err != nil {
			report.Errors = append(report.Errors, FileError{FilePath: f.Path, Message: err.Error()})
			e.log.Warn("extract.error", "file", f.Path, "error", err)
			continue
		}

		for _, sym := range res.Symbols {
			newSymbols[keyOf(sym)] = sym
		}
		candidates = append(candidates, res.Candidates...)
		analyzed = append(analyzed, analyzedFile{path: f.Path, hash: HashBytes(content)})
	}
	report.FilesAnalyzed = len(analyzed)

	// RECONCILE
	now := nowUTC()
	err = e.store.WithTransaction(func(tx *store.Tx) error {
		for key, id := range oldKeys {
			if _, ok := newSymbols[key]; !ok {
				if _, err := tx.DeleteEntityByID(id); err != nil {
					return err
				}
			}
		}

		keys := make([]entityKey, 0, len(newSymbols))
		for k := range newSymbols {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, b := keys[i], keys[j]
			if a.FilePath != b.FilePath {
				return a.FilePath < b.FilePath
			}
			if a.StartLine != b.StartLine {
				return a.StartLine < b.StartLine
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Kind < b.Kind
		})
		for i, k := range keys {
			e.emit(PhaseReconciling, i+1, len(keys))
			if _, err := tx.UpsertEntity(symbolEntity(newSymbols[k])); err != nil {
				return err
			}
		}

		for _, a := range analyzed {
			if err := tx.UpsertFileCache(a.path, a.hash, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile phase: %w", err)
	}
	report.Entities = len(newSymbols)

	// RESOLVE
	err = e.store.WithTransaction(func(tx *store.Tx) error {
		for i, c := range candidates {
			e.emit(PhaseResolving, i+1, len(candidates))
			if err := e.resolveCandidate(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve phase: %w", err)
	}

	relations, err := e.store.ListRelations(store.RelationFilter{})
	if err != nil {
		return nil, fmt.Errorf("report phase: %w", err)
	}
	report.Relations = len(relations)

	e.log.Info("analyze.done",
		"entities", report.Entities,
		"relations", report.Relations,
		"files", report.FilesAnalyzed,
		"errors", len(report.Errors),
		"elapsed", time.Since(started),
	)
	return report, nil
}

// resolveCandidate resolves one by-name candidate against the current store
// and upserts the relation when both endpoints exist. A miss is not an
// error: the candidate is discarded so no dangling edge is ever persisted.
func (e *Engine) resolveCandidate(tx *store.Tx, c extract.RelationCandidate) error {
	source, err := tx.FindEntityByName(c.SourceName, c.SourceFile)
	if err != nil {
		return err
	}
	if source == nil {
		e.log.Debug("resolve.miss", "side", "source", "name", c.SourceName, "file", c.SourceFile)
		return nil
	}

	var target *store.Entity
	if len(c.TargetFiles) > 0 {
		for _, p := range c.TargetFiles {
			target, err = tx.FindEntityInFile(c.TargetName, p)
			if err != nil {
				return err
			}
			if target != nil {
				break
			}
		}
	} else {
		target, err = tx.FindEntityByName(c.TargetName, "")
		if err != nil {
			return err
		}
	}
	if target == nil {
		e.log.Debug("resolve.miss", "side", "target", "name", c.TargetName, "verb", c.Verb)
		return nil
	}
	if target.ID == source.ID {
		return nil // self edges carry no information
	}

	_, err = tx.UpsertRelation(source.ID, target.ID, c.Verb, nil)
	return err
}

// AnalyzeFile re-analyzes a single file, gated by the ChangeTracker unless
// force is set. The file's previous entities and cache row are dropped
// (cascading), fresh entities are created in one transaction, and the file's
// relation candidates are resolved against the current store in another.
//
// The global relation table is not cleared, so relations between untouched
// files persist. Renaming an exported symbol here is therefore only
// reflected in a dependent file's relations once that file is itself
// re-analyzed; dependent-file invalidation is deliberately not cascaded.
//
// Analyzing a path that no longer exists on disk removes its entities and
// cache row.
func (e *Engine) AnalyzeFile(ctx context.Context, file scan.File, force bool) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &Report{}

	if _, err := os.Stat(file.AbsPath); os.IsNotExist(err) {
		return report, e.removeFile(file.Path)
	}

	hash, needed, err := e.tracker.ShouldAnalyze(file.Path, file.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("change check: %w", err)
	}
	if !needed && !force {
		report.Skipped = true
		e.log.Debug("analyze.skip", "file", file.Path, "reason", "unchanged")
		return report, nil
	}

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.AbsPath, err)
	}
	res, err := e.extractor.Extract(file.Path, content)
	if err != nil {
		report.Errors = append(report.Errors, FileError{FilePath: file.Path, Message: err.Error()})
		e.log.Warn("extract.error", "file", file.Path, "error", err)
		return report, nil
	}

	now := nowUTC()
	err = e.store.WithTransaction(func(tx *store.Tx) error {
		if _, err := tx.DeleteEntitiesByFile(file.Path); err != nil {
			return err
		}
		if _, err := tx.DeleteFileCache(file.Path); err != nil {
			return err
		}
		for _, sym := range res.Symbols {
			if _, err := tx.UpsertEntity(symbolEntity(sym)); err != nil {
				return err
			}
		}
		return tx.UpsertFileCache(file.Path, hash, now)
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile phase: %w", err)
	}
	report.Entities = len(res.Symbols)
	report.FilesAnalyzed = 1

	err = e.store.WithTransaction(func(tx *store.Tx) error {
		for _, c := range res.Candidates {
			if err := e.resolveCandidate(tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve phase: %w", err)
	}

	relations, err := e.store.ListRelations(store.RelationFilter{})
	if err != nil {
		return nil, fmt.Errorf("report phase: %w", err)
	}
	report.Relations = len(relations)

	e.log.Info("analyze.file", "file", file.Path, "entities", report.Entities)
	return report, nil
}

// removeFile drops everything recorded for a file that no longer exists:
// its entities (cascading to relations and observations) and its cache row.
func (e *Engine) removeFile(filePath string) error {
	err := e.store.WithTransaction(func(tx *store.Tx) error {
		if _, err := tx.DeleteEntitiesByFile(filePath); err != nil {
			return err
		}
		_, err := tx.DeleteFileCache(filePath)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	e.log.Info("analyze.removed", "file", filePath)
	return nil
}
