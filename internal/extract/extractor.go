// Package extract derives symbols and relation candidates from source text.
//
// Extraction is a pure function of (path, text): no filesystem access, no
// store access, and no hard failures. Malformed constructs simply fail to
// match and yield fewer symbols. Relation candidates name their targets by
// string, not by id, because the target may live in a file that has not been
// scanned yet; the coordinator resolves candidates against the store later.
package extract

// Symbol kinds emitted by the extractors.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindFunction  = "function"
	KindVariable  = "variable"
	KindEnum      = "enum"
	KindTypeAlias = "type"

	// KindFile is the file-level pseudo-symbol that anchors import/export
	// relations. It is only emitted for files that import something.
	KindFile = "file"
)

// Relation verbs emitted by the extractors. They mirror the store's verb set.
const (
	VerbUses       = "uses"
	VerbExtends    = "extends"
	VerbImplements = "implements"
	VerbImports    = "imports"
	VerbExports    = "exports"
)

// Symbol is the ephemeral result of extracting one declaration. It is never
// persisted directly; the coordinator upserts it as an Entity.
type Symbol struct {
	Name        string
	Kind        string
	FilePath    string
	StartLine   int // 1-based, inclusive
	EndLine     int // 1-based, inclusive
	Description string
	Metadata    map[string]string
}

// RelationCandidate is a by-name edge proposal. TargetFiles lists candidate
// file paths for the target in resolution order; when empty, the target is
// looked up by name anywhere in the store.
type RelationCandidate struct {
	SourceName  string
	SourceFile  string
	TargetName  string
	TargetFiles []string
	Verb        string
}

// NamedImport is one binding from an import clause's brace list.
type NamedImport struct {
	Name  string // exported name in the source module
	Alias string // local alias, "" when none
}

// Import is one parsed import (or re-export) statement.
type Import struct {
	Source      string // module specifier as written
	DefaultName string // default binding, "" when none
	Namespace   string // "* as X" binding, "" when none
	Named       []NamedImport
	ReExport    bool // true for `export ... from` forms
	Line        int  // 1-based line of the statement
}

// FileResult is the complete extraction output for one file.
type FileResult struct {
	FilePath   string
	Symbols    []Symbol
	Candidates []RelationCandidate
	Imports    []Import
}

// Extractor is the extraction contract. Implementations must be
// deterministic and side-effect free.
type Extractor interface {
	Extract(filePath string, src []byte) (*FileResult, error)
}
