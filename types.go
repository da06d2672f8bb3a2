package codegraph

import "codegraph/internal/store"

// Public type aliases for internal store types surfaced through the Engine
// API. These are Go type aliases (=) — identical to the internal types at
// compile time, so no conversion is needed.

type Store = store.Store
type Entity = store.Entity
type Relation = store.Relation
type Observation = store.Observation
type FileCacheEntry = store.FileCacheEntry
type EntityFilter = store.EntityFilter
type RelationFilter = store.RelationFilter
type Stats = store.Stats
