// Package codegraph maintains a queryable code-structure graph for a
// TypeScript/JavaScript workspace, stored in SQLite and kept current through
// incremental re-analysis.
//
// # Pipeline
//
// A full workspace run proceeds in phases:
//
//  1. Load: existing entities are read so identity can be preserved.
//  2. Clear: all relations and the file cache are dropped; entities and
//     observations survive.
//  3. Scan: source files are discovered by include/exclude globs.
//  4. Extract: each file yields symbols and by-name relation candidates.
//     Per-file failures are recorded and skipped, never fatal.
//  5. Reconcile (one transaction): entities whose uniqueness key vanished
//     are deleted with their relations and observations; surviving and new
//     symbols are upserted, keeping existing ids and observations.
//  6. Resolve (one transaction): candidates are matched by name against the
//     store and persisted as relations. A candidate whose endpoints cannot
//     both be found is silently discarded, so no edge ever dangles.
//
// # Usage
//
// Create an Engine, analyze, and query through the store:
//
//	e, err := codegraph.New(".codegraph/graph.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	scanner := scan.New(".", cfg.Include, cfg.Exclude)
//	report, err := e.AnalyzeWorkspace(ctx, scanner)
//
//	entities, err := e.Store().ListEntities(codegraph.EntityFilter{Kind: "class"})
//
// # Incremental Analysis
//
// [Engine.AnalyzeFile] re-analyzes a single file, gated by a sha256 content
// digest kept in the file cache: an unchanged file is skipped. Relations
// between untouched files are left alone.
//
// # Extractors
//
// Two extractors implement the same contract: a regex/brace-counting
// heuristic (the default, zero parse dependencies) and a tree-sitter-backed
// grammar variant selected via configuration. Both are pure functions of the
// file content and tolerate malformed input by emitting fewer symbols.
package codegraph
