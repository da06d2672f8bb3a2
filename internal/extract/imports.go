package extract

import (
	"path"
	"regexp"
	"strings"
)

var (
	importStartRe  = regexp.MustCompile(`^\s*import\b`)
	reExportRe     = regexp.MustCompile(`^\s*export\s+(?:type\s+)?\{`)
	sideEffectRe   = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	fromClauseRe   = regexp.MustCompile(`^\s*(import|export)\s+(?:type\s+)?([\s\S]+?)\s+from\s+['"]([^'"]+)['"]`)
	namespaceRe    = regexp.MustCompile(`\*\s+as\s+([A-Za-z_$][\w$]*)`)
	defaultBindRe  = regexp.MustCompile(`^([A-Za-z_$][\w$]*)\s*(?:,|$)`)
	namedListRe    = regexp.MustCompile(`\{([^}]*)\}`)
	namedBindingRe = regexp.MustCompile(`([A-Za-z_$][\w$]*)(?:\s+as\s+([A-Za-z_$][\w$]*))?`)
)

// sourceExtensions are the module resolution candidates tried, in order,
// when an import specifier has no extension.
var sourceExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// indexFiles are the directory-import candidates tried after the extension
// candidates.
var indexFiles = []string{"index.ts", "index.tsx", "index.js"}

// parseImports parses default, named, and namespace import statements (and
// `export { X } from` re-exports) into structured records. Statements may
// span several lines; the parser accumulates until it sees the quoted
// specifier. Runs on raw lines because sanitize erases string contents.
func parseImports(rawLines []string) []Import {
	var imports []Import

	for i := 0; i < len(rawLines); i++ {
		line := rawLines[i]
		if !importStartRe.MatchString(line) && !reExportRe.MatchString(line) {
			continue
		}

		// Side-effect import: `import './setup'`. No bindings, nothing to
		// lower, but still recorded.
		if m := sideEffectRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, Import{Source: m[1], Line: i + 1})
			continue
		}

		// Accumulate until the statement carries its `from '...'` clause.
		stmt := line
		end := i
		for !fromClauseRe.MatchString(stmt) && end < len(rawLines)-1 && end < i+20 {
			end++
			stmt = stmt + " " + rawLines[end]
		}
		m := fromClauseRe.FindStringSubmatch(stmt)
		if m == nil {
			continue // `export {...}` without a module, or malformed
		}

		imp := Import{
			Source:   m[3],
			ReExport: m[1] == "export",
			Line:     i + 1,
		}
		clause := m[2]

		if nm := namespaceRe.FindStringSubmatch(clause); nm != nil {
			imp.Namespace = nm[1]
		}
		if bm := namedListRe.FindStringSubmatch(clause); bm != nil {
			for _, nb := range namedBindingRe.FindAllStringSubmatch(bm[1], -1) {
				if nb[1] == "type" {
					continue // inline `type X` markers
				}
				ni := NamedImport{Name: nb[1]}
				if nb[2] != "" && nb[2] != nb[1] {
					ni.Alias = nb[2]
				}
				imp.Named = append(imp.Named, ni)
			}
		}
		if !imp.ReExport {
			bare := strings.TrimSpace(clause)
			if dm := defaultBindRe.FindStringSubmatch(bare); dm != nil {
				imp.DefaultName = dm[1]
			}
		}

		imports = append(imports, imp)
		i = end
	}
	return imports
}

// lowerImports turns import records into relation candidates from a
// file-level pseudo-symbol to each imported name. The pseudo-symbol is only
// materialized when the file imports something, so purely declarative files
// contribute exactly their declarations. Returns (nil, nil) when there is
// nothing to lower.
func lowerImports(filePath string, lineCount int, imports []Import) (*Symbol, []RelationCandidate) {
	if len(imports) == 0 {
		return nil, nil
	}

	fileSym := &Symbol{
		Name:        filePath,
		Kind:        KindFile,
		FilePath:    filePath,
		StartLine:   1,
		EndLine:     lineCount,
		Description: "module " + filePath,
	}

	var cands []RelationCandidate
	add := func(name string, targets []string, verb string) {
		cands = append(cands, RelationCandidate{
			SourceName:  fileSym.Name,
			SourceFile:  filePath,
			TargetName:  name,
			TargetFiles: targets,
			Verb:        verb,
		})
	}

	for _, imp := range imports {
		targets := resolveModulePaths(filePath, imp.Source)
		verb := VerbImports
		if imp.ReExport {
			verb = VerbExports
		}
		if imp.DefaultName != "" {
			add(imp.DefaultName, targets, verb)
		}
		for _, ni := range imp.Named {
			add(ni.Name, targets, verb)
		}
		// Namespace bindings name the whole module, not a symbol; there is
		// no entity to point at, so they are not lowered.
	}
	return fileSym, cands
}

// resolveModulePaths maps an import specifier to candidate file paths,
// relative to the importing file, using a fixed extension/index-file probe
// order. Non-relative specifiers (packages) resolve to themselves only; they
// will not match any stored entity and the candidate is discarded at
// resolution time.
func resolveModulePaths(fromFile, spec string) []string {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return []string{spec}
	}

	base := path.Join(path.Dir(filepathToSlash(fromFile)), spec)
	ext := path.Ext(base)
	for _, known := range sourceExtensions {
		if ext == known {
			return []string{base}
		}
	}

	out := make([]string, 0, len(sourceExtensions)+len(indexFiles))
	for _, e := range sourceExtensions {
		out = append(out, base+e)
	}
	for _, idx := range indexFiles {
		out = append(out, path.Join(base, idx))
	}
	return out
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
