package store

import "time"

// Relation verbs accepted by UpsertRelation. The set is closed: anything
// else is rejected at the store boundary.
const (
	VerbUses       = "uses"
	VerbCalls      = "calls"
	VerbExtends    = "extends"
	VerbImplements = "implements"
	VerbDependsOn  = "depends_on"
	VerbContains   = "contains"
	VerbReferences = "references"
	VerbImports    = "imports"
	VerbExports    = "exports"
)

var validVerbs = map[string]bool{
	VerbUses:       true,
	VerbCalls:      true,
	VerbExtends:    true,
	VerbImplements: true,
	VerbDependsOn:  true,
	VerbContains:   true,
	VerbReferences: true,
	VerbImports:    true,
	VerbExports:    true,
}

// Entity is one persisted code symbol at a specific file location.
// Identity is the unique key (file_path, name, kind, start_line): as long as
// that key reappears across re-analyses the id is retained, and attached
// Observations survive.
type Entity struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	FilePath    string            `json:"filePath"`
	StartLine   int               `json:"startLine"`
	EndLine     int               `json:"endLine"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Relation is a directed, verbed edge between two Entities. Unique on
// (source, target, verb). Both endpoints are guaranteed to exist at commit
// time; dangling edges are never persisted.
type Relation struct {
	ID             string            `json:"id"`
	SourceEntityID string            `json:"sourceEntityId"`
	TargetEntityID string            `json:"targetEntityId"`
	Verb           string            `json:"verb"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Observation is a user-authored annotation on an Entity. It is independent
// of analysis and only disappears when its owning Entity is deleted.
type Observation struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileCacheEntry records the content hash last seen for a file.
type FileCacheEntry struct {
	FilePath    string    `json:"filePath"`
	ContentHash string    `json:"contentHash"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
}

// EntityFilter narrows ListEntities. Zero-value fields are ignored.
type EntityFilter struct {
	FilePath string
	Kind     string
	Name     string
}

// RelationFilter narrows ListRelations. Zero-value fields are ignored.
type RelationFilter struct {
	SourceEntityID string
	TargetEntityID string
	Verb           string
}

// Stats aggregates graph-wide counts for the read side.
type Stats struct {
	Entities        int            `json:"entities"`
	Relations       int            `json:"relations"`
	Observations    int            `json:"observations"`
	Files           int            `json:"files"`
	EntitiesByKind  map[string]int `json:"entitiesByKind"`
	RelationsByVerb map[string]int `json:"relationsByVerb"`
	LastAnalyzed    *time.Time     `json:"lastAnalyzed,omitempty"`
}
