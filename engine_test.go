package codegraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegraph/internal/extract"
	"codegraph/internal/scan"
	"codegraph/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")
	require.NoError(t, os.MkdirAll(workspace, 0o755))

	e, err := New(filepath.Join(dir, "graph.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, workspace
}

func writeSrc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func analyze(t *testing.T, e *Engine, root string) *Report {
	t.Helper()
	report, err := e.AnalyzeWorkspace(context.Background(),
		scan.New(root, []string{"**/*.ts", "**/*.tsx"}, nil))
	require.NoError(t, err)
	return report
}

// requireNoDanglingRelations asserts the core graph invariant: every stored
// relation's endpoints exist.
func requireNoDanglingRelations(t *testing.T, s *store.Store) {
	t.Helper()
	relations, err := s.ListRelations(store.RelationFilter{})
	require.NoError(t, err)
	for _, r := range relations {
		for _, id := range []string{r.SourceEntityID, r.TargetEntityID} {
			ent, err := s.EntityByID(id)
			require.NoError(t, err)
			require.NotNil(t, ent, "relation %s dangles on entity %s", r.Verb, id)
		}
	}
}

func TestAnalyzeWorkspace(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class OrderService {
  constructor(private repo: OrderRepo) {}
}
`)
	writeSrc(t, ws, "b.ts", `class OrderRepo {}
`)

	report := analyze(t, e, ws)
	assert.Equal(t, 2, report.Entities)
	assert.Equal(t, 1, report.Relations)
	assert.Equal(t, 2, report.FilesAnalyzed)
	assert.Empty(t, report.Errors)

	relations, err := e.Store().ListRelations(store.RelationFilter{Verb: store.VerbUses})
	require.NoError(t, err)
	require.Len(t, relations, 1)

	src, err := e.Store().EntityByID(relations[0].SourceEntityID)
	require.NoError(t, err)
	assert.Equal(t, "OrderService", src.Name)
	tgt, err := e.Store().EntityByID(relations[0].TargetEntityID)
	require.NoError(t, err)
	assert.Equal(t, "OrderRepo", tgt.Name)
}

func TestAnalyzeWorkspaceIdempotent(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class OrderService {
  constructor(private repo: OrderRepo) {}
}
`)
	writeSrc(t, ws, "b.ts", `class OrderRepo {}
`)

	first := analyze(t, e, ws)
	before, err := e.Store().ListEntities(store.EntityFilter{})
	require.NoError(t, err)

	second := analyze(t, e, ws)
	after, err := e.Store().ListEntities(store.EntityFilter{})
	require.NoError(t, err)

	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, first.Relations, second.Relations)
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID, "entity id must be stable across runs")
	}
}

func TestObservationsSurviveReanalysis(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "svc.ts", `class Billing {
  charge() {}
}
`)
	analyze(t, e, ws)

	ent, err := e.Store().FindEntityByName("Billing", "svc.ts")
	require.NoError(t, err)
	require.NotNil(t, ent)
	_, err = e.Store().AddObservation(ent.ID, "handles retries internally")
	require.NoError(t, err)

	// Grow the body. Same (file, name, kind, start line): same identity.
	writeSrc(t, ws, "svc.ts", `class Billing {
  charge() {}
  refund() {}
}
`)
	analyze(t, e, ws)

	again, err := e.Store().FindEntityByName("Billing", "svc.ts")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, ent.ID, again.ID)
	assert.Equal(t, 4, again.EndLine)

	obs, err := e.Store().ObservationsByEntity(ent.ID)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "handles retries internally", obs[0].Content)
}

func TestLineShiftCreatesNewIdentity(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "svc.ts", `class Billing {}
`)
	analyze(t, e, ws)
	before, err := e.Store().FindEntityByName("Billing", "svc.ts")
	require.NoError(t, err)

	// A declaration that moves to another start line is a new identity; the
	// stale one is reconciled away instead of leaking.
	writeSrc(t, ws, "svc.ts", `// billing entry point
class Billing {}
`)
	analyze(t, e, ws)

	after, err := e.Store().FindEntityByName("Billing", "svc.ts")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, 2, after.StartLine)

	entities, err := e.Store().ListEntities(store.EntityFilter{Name: "Billing"})
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestDeletedFileRemovesEntitiesAndRelations(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class OrderService {
  constructor(private repo: OrderRepo) {}
}
`)
	writeSrc(t, ws, "b.ts", `class OrderRepo {}
`)
	report := analyze(t, e, ws)
	require.Equal(t, 2, report.Entities)
	require.Equal(t, 1, report.Relations)

	require.NoError(t, os.Remove(filepath.Join(ws, "b.ts")))
	report = analyze(t, e, ws)

	assert.Equal(t, 1, report.Entities)
	assert.Equal(t, 0, report.Relations)
	requireNoDanglingRelations(t, e.Store())

	entities, err := e.Store().ListEntities(store.EntityFilter{})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "OrderService", entities[0].Name)
}

func TestImportRelations(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `import { OrderRepo } from './b';
import { Missing } from './nowhere';

class OrderService {}
`)
	writeSrc(t, ws, "b.ts", `export class OrderRepo {}
`)
	analyze(t, e, ws)

	// a.ts gets a file pseudo-entity because it imports; b.ts does not.
	fileEnt, err := e.Store().FindEntityByName("a.ts", "a.ts")
	require.NoError(t, err)
	require.NotNil(t, fileEnt)
	assert.Equal(t, "file", fileEnt.Kind)
	bFile, err := e.Store().ListEntities(store.EntityFilter{FilePath: "b.ts", Kind: "file"})
	require.NoError(t, err)
	assert.Empty(t, bFile)

	imports, err := e.Store().ListRelations(store.RelationFilter{Verb: store.VerbImports})
	require.NoError(t, err)
	require.Len(t, imports, 1, "the unresolvable import must be discarded")
	assert.Equal(t, fileEnt.ID, imports[0].SourceEntityID)

	tgt, err := e.Store().EntityByID(imports[0].TargetEntityID)
	require.NoError(t, err)
	assert.Equal(t, "OrderRepo", tgt.Name)
	requireNoDanglingRelations(t, e.Store())
}

func TestPackageImportsDiscarded(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `import { Injectable } from '@nestjs/common';

class Plain {}
`)
	analyze(t, e, ws)

	imports, err := e.Store().ListRelations(store.RelationFilter{Verb: store.VerbImports})
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestAnalyzeFileSkipsUnchanged(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class A {}
`)
	f := scan.File{Path: "a.ts", AbsPath: filepath.Join(ws, "a.ts")}

	first, err := e.AnalyzeFile(context.Background(), f, false)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Entities)

	second, err := e.AnalyzeFile(context.Background(), f, false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	forced, err := e.AnalyzeFile(context.Background(), f, true)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
	assert.Equal(t, 1, forced.Entities)
}

func TestAnalyzeFileDetectsChange(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class A {}
`)
	f := scan.File{Path: "a.ts", AbsPath: filepath.Join(ws, "a.ts")}

	_, err := e.AnalyzeFile(context.Background(), f, false)
	require.NoError(t, err)

	writeSrc(t, ws, "a.ts", `class A {}
class B {}
`)
	report, err := e.AnalyzeFile(context.Background(), f, false)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 2, report.Entities)
}

func TestAnalyzeFileRemovedFromDisk(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class A {
  constructor(private b: B) {}
}
`)
	writeSrc(t, ws, "b.ts", `class B {}
`)
	analyze(t, e, ws)

	require.NoError(t, os.Remove(filepath.Join(ws, "b.ts")))
	report, err := e.AnalyzeFile(context.Background(),
		scan.File{Path: "b.ts", AbsPath: filepath.Join(ws, "b.ts")}, false)
	require.NoError(t, err)
	assert.Zero(t, report.Entities)

	entities, err := e.Store().ListEntities(store.EntityFilter{FilePath: "b.ts"})
	require.NoError(t, err)
	assert.Empty(t, entities)
	requireNoDanglingRelations(t, e.Store())

	hash, err := e.Store().FileHash("b.ts")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestAnalyzeFileResolvesAgainstExistingGraph(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "b.ts", `class OrderRepo {}
`)
	analyze(t, e, ws)

	// A file added after the last full run still links to the known graph.
	writeSrc(t, ws, "a.ts", `class OrderService {
  constructor(private repo: OrderRepo) {}
}
`)
	report, err := e.AnalyzeFile(context.Background(),
		scan.File{Path: "a.ts", AbsPath: filepath.Join(ws, "a.ts")}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entities)
	assert.Equal(t, 1, report.Relations)
}

type failingExtractor struct{}

func (failingExtractor) Extract(filePath string, src []byte) (*extract.FileResult, error) {
	if strings.Contains(filePath, "bad") {
		return nil, errors.New("synthetic parse failure")
	}
	return extract.NewHeuristic().Extract(filePath, src)
}

func TestAnalyzeWorkspaceFileErrorsAreNonFatal(t *testing.T) {
	e, ws := newTestEngine(t, WithExtractor(failingExtractor{}))
	writeSrc(t, ws, "good.ts", `class Good {}
`)
	writeSrc(t, ws, "bad.ts", `class Bad {}
`)

	report := analyze(t, e, ws)
	assert.Equal(t, 1, report.Entities)
	assert.Equal(t, 1, report.FilesAnalyzed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "bad.ts", report.Errors[0].FilePath)
	assert.Contains(t, report.Errors[0].Message, "synthetic parse failure")
}

func TestProgressCallback(t *testing.T) {
	var phases []Phase
	e, ws := newTestEngine(t, WithProgress(func(phase Phase, done, total int) {
		phases = append(phases, phase)
	}))
	writeSrc(t, ws, "a.ts", `class A {}
`)
	analyze(t, e, ws)

	assert.Contains(t, phases, PhaseScanning)
	assert.Contains(t, phases, PhaseExtracting)
	assert.Contains(t, phases, PhaseReconciling)
}

func TestAnalyzeWorkspaceCancellation(t *testing.T) {
	e, ws := newTestEngine(t)
	writeSrc(t, ws, "a.ts", `class A {}
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.AnalyzeWorkspace(ctx, scan.New(ws, []string{"**/*.ts"}, nil))
	require.ErrorIs(t, err, context.Canceled)
}
