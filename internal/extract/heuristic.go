package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Heuristic is the default extractor: a single block-delimiter-tracking pass
// over the file identifies the line span of each top-level declaration, and a
// second pass inside class bodies mines "uses" candidates from constructor
// parameters, field annotations, and method signatures.
//
// It is deliberately lexical. It has no grammar and no type information, so
// it trades recall at the edges (unbalanced braces, exotic syntax) for
// simplicity and speed. That trade-off is a design choice, not a defect; see
// Grammar in this package for the stricter alternative behind the same
// contract.
type Heuristic struct{}

// NewHeuristic returns the brace-counting extractor.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var (
	classRe     = regexp.MustCompile(`^\s*(export\s+)?(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	interfaceRe = regexp.MustCompile(`^\s*(export\s+)?(?:declare\s+)?interface\s+([A-Za-z_$][\w$]*)`)
	enumRe      = regexp.MustCompile(`^\s*(export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+([A-Za-z_$][\w$]*)`)
	funcRe      = regexp.MustCompile(`^\s*(export\s+)?(?:default\s+)?(?:declare\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)
	typeAliasRe = regexp.MustCompile(`^\s*(export\s+)?(?:declare\s+)?type\s+([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*=`)
	arrowRe     = regexp.MustCompile(`^\s*(export\s+)?(?:declare\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]*)?=\s*(?:async\s+)?(?:\([^)]*\)?|[A-Za-z_$][\w$]*)\s*(?::[^=>]*)?=>`)
	varRe       = regexp.MustCompile(`^\s*(export\s+)?(?:declare\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)`)

	extendsRe    = regexp.MustCompile(`\bextends\s+([^{]+?)(?:\bimplements\b|\{|$)`)
	implementsRe = regexp.MustCompile(`\bimplements\s+([^{]+?)(?:\{|$)`)
	identRe      = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

	// Declarative dependency-list arrays inside decorator calls, e.g. a
	// module-style decorator's providers/imports/exports arrays.
	decoratorArrayRe = regexp.MustCompile(`\b(?:providers|imports|exports|controllers|declarations|bootstrap|entryComponents)\s*:\s*\[([^\]]*)\]`)
)

// Extract runs the heuristic pass. It never returns an error: constructs the
// scanner cannot make sense of contribute nothing.
func (h *Heuristic) Extract(filePath string, src []byte) (*FileResult, error) {
	rawLines := strings.Split(string(src), "\n")
	lines := sanitize(rawLines)

	res := &FileResult{FilePath: filePath}
	res.Imports = parseImports(rawLines)

	depth := 0
	var pendingDecoratorDeps []string

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if depth > 0 {
			depth += braceDelta(line)
			if depth < 0 {
				depth = 0 // unbalanced input; fail soft
			}
			continue
		}

		trimmed := strings.TrimSpace(line)

		// Decorator at top level: swallow the whole call and remember any
		// dependency-list arrays for the class that follows.
		if strings.HasPrefix(trimmed, "@") {
			end, text := collectBalanced(lines, i, '(', ')')
			for _, m := range decoratorArrayRe.FindAllStringSubmatch(text, -1) {
				pendingDecoratorDeps = append(pendingDecoratorDeps, typeNames(m[1])...)
			}
			i = end
			continue
		}

		if m := classRe.FindStringSubmatch(line); m != nil {
			name := m[2]
			headerEnd, header := collectHeader(lines, i)
			end := braceEnd(lines, headerEnd)
			res.Symbols = append(res.Symbols, newSymbol(name, KindClass, filePath, i+1, end+1, m[1] != ""))

			res.Candidates = append(res.Candidates, heritageCandidates(name, filePath, header)...)
			for _, dep := range pendingDecoratorDeps {
				res.Candidates = append(res.Candidates, RelationCandidate{
					SourceName: name, SourceFile: filePath, TargetName: dep, Verb: VerbUses,
				})
			}
			pendingDecoratorDeps = nil
			res.Candidates = append(res.Candidates, mineClassBody(name, filePath, lines[headerEnd:end+1])...)
			i = end
			continue
		}
		pendingDecoratorDeps = nil

		if m := interfaceRe.FindStringSubmatch(line); m != nil {
			name := m[2]
			headerEnd, header := collectHeader(lines, i)
			end := braceEnd(lines, headerEnd)
			res.Symbols = append(res.Symbols, newSymbol(name, KindInterface, filePath, i+1, end+1, m[1] != ""))
			res.Candidates = append(res.Candidates, heritageCandidates(name, filePath, header)...)
			i = end
			continue
		}

		if m := enumRe.FindStringSubmatch(line); m != nil {
			end := braceEnd(lines, i)
			res.Symbols = append(res.Symbols, newSymbol(m[2], KindEnum, filePath, i+1, end+1, m[1] != ""))
			i = end
			continue
		}

		if m := funcRe.FindStringSubmatch(line); m != nil {
			end := braceEnd(lines, i)
			res.Symbols = append(res.Symbols, newSymbol(m[2], KindFunction, filePath, i+1, end+1, m[1] != ""))
			i = end
			continue
		}

		if m := typeAliasRe.FindStringSubmatch(line); m != nil {
			end := statementEnd(lines, i)
			res.Symbols = append(res.Symbols, newSymbol(m[2], KindTypeAlias, filePath, i+1, end+1, m[1] != ""))
			i = end
			continue
		}

		if m := arrowRe.FindStringSubmatch(line); m != nil {
			var end int
			if idx := strings.Index(line, "=>"); idx >= 0 && strings.Contains(line[idx:], "{") {
				end = braceEnd(lines, i)
			} else if strings.Contains(line, "{") {
				end = braceEnd(lines, i)
			} else {
				end = statementEnd(lines, i)
			}
			res.Symbols = append(res.Symbols, newSymbol(m[2], KindFunction, filePath, i+1, end+1, m[1] != ""))
			i = end
			continue
		}

		if m := varRe.FindStringSubmatch(line); m != nil {
			end := statementEnd(lines, i)
			res.Symbols = append(res.Symbols, newSymbol(m[2], KindVariable, filePath, i+1, end+1, m[1] != ""))
			i = end
			continue
		}

		depth += braceDelta(line)
		if depth < 0 {
			depth = 0
		}
	}

	fileSym, importCands := lowerImports(filePath, len(rawLines), res.Imports)
	if fileSym != nil {
		res.Symbols = append(res.Symbols, *fileSym)
		res.Candidates = append(res.Candidates, importCands...)
	}
	res.Candidates = dedupeCandidates(res.Candidates)
	return res, nil
}

// newSymbol builds a Symbol with the shared description/metadata shape used
// by both extractors.
func newSymbol(name, kind, filePath string, startLine, endLine int, exported bool) Symbol {
	s := Symbol{
		Name:        name,
		Kind:        kind,
		FilePath:    filePath,
		StartLine:   startLine,
		EndLine:     endLine,
		Description: fmt.Sprintf("%s %s", kind, name),
	}
	if exported {
		s.Metadata = map[string]string{"exported": "true"}
	}
	return s
}

// heritageCandidates parses `extends` / `implements` clauses from a
// declaration header. Targets are by name only; extends and implements
// targets often live in other files.
func heritageCandidates(name, filePath, header string) []RelationCandidate {
	var out []RelationCandidate
	if m := extendsRe.FindStringSubmatch(header); m != nil {
		for _, t := range typeNames(m[1]) {
			out = append(out, RelationCandidate{
				SourceName: name, SourceFile: filePath, TargetName: t, Verb: VerbExtends,
			})
		}
	}
	if m := implementsRe.FindStringSubmatch(header); m != nil {
		for _, t := range typeNames(m[1]) {
			out = append(out, RelationCandidate{
				SourceName: name, SourceFile: filePath, TargetName: t, Verb: VerbImplements,
			})
		}
	}
	return out
}

// collectHeader joins a declaration's header lines up to and including the
// line carrying its opening brace. Returns the index of that line and the
// joined header text (with anything after the brace cut off).
func collectHeader(lines []string, start int) (int, string) {
	var b strings.Builder
	for j := start; j < len(lines) && j < start+15; j++ {
		line := lines[j]
		if idx := strings.Index(line, "{"); idx >= 0 {
			b.WriteString(line[:idx+1])
			return j, b.String()
		}
		b.WriteString(line)
		b.WriteString(" ")
	}
	return start, lines[start]
}

// braceEnd returns the index of the line on which the brace block opening at
// or after start closes. Falls back to the last line on unbalanced input.
func braceEnd(lines []string, start int) int {
	depth := 0
	seen := false
	for j := start; j < len(lines); j++ {
		for _, ch := range lines[j] {
			switch ch {
			case '{':
				depth++
				seen = true
			case '}':
				depth--
			}
			if seen && depth == 0 {
				return j
			}
		}
	}
	if !seen {
		return start
	}
	return len(lines) - 1
}

// statementEnd returns the index of the line terminating a braceless
// statement (the first line containing ';' within a short window).
func statementEnd(lines []string, start int) int {
	for j := start; j < len(lines) && j < start+10; j++ {
		if strings.Contains(lines[j], ";") {
			return j
		}
	}
	return start
}

// collectBalanced joins lines from start until the given bracket pair
// balances (first opener onward). Returns the last consumed index and the
// joined text.
func collectBalanced(lines []string, start int, opener, closer rune) (int, string) {
	var b strings.Builder
	depth := 0
	seen := false
	for j := start; j < len(lines) && j < start+50; j++ {
		b.WriteString(lines[j])
		b.WriteString(" ")
		for _, ch := range lines[j] {
			switch ch {
			case opener:
				depth++
				seen = true
			case closer:
				depth--
			}
		}
		if seen && depth <= 0 {
			return j, b.String()
		}
		if !seen && j > start {
			// No opener on the first two lines: treat as a bare decorator.
			return j - 1, b.String()
		}
	}
	return start, b.String()
}

// braceDelta counts '{' minus '}' on a sanitized line.
func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

// typeNames pulls candidate type identifiers out of a type expression,
// dropping denylisted and single-character names. Order is preserved,
// duplicates removed.
func typeNames(expr string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ident := range identRe.FindAllString(expr, -1) {
		if denied(ident) || seen[ident] {
			continue
		}
		seen[ident] = true
		out = append(out, ident)
	}
	return out
}

// dedupeCandidates removes exact duplicate proposals, keeping first
// occurrence order.
func dedupeCandidates(cands []RelationCandidate) []RelationCandidate {
	type key struct{ src, tgt, verb string }
	seen := map[key]bool{}
	var out []RelationCandidate
	for _, c := range cands {
		k := key{c.SourceName, c.TargetName, c.Verb}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
