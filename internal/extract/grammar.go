package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar is the stricter extractor variant: declaration kinds and line
// spans come from a real tree-sitter parse instead of brace counting, while
// relation-candidate mining reuses the same lexical helpers so both
// extractors emit identical candidate shapes. It honors the same contract as
// Heuristic and is selected via configuration.
type Grammar struct {
	lang *sitter.Language
}

// NewGrammar returns the tree-sitter-backed extractor (TypeScript grammar,
// which also parses plain JavaScript).
func NewGrammar() *Grammar {
	return &Grammar{lang: typescript.GetLanguage()}
}

// Extract parses the file and walks top-level declarations.
func (g *Grammar) Extract(filePath string, src []byte) (*FileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.lang)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()

	rawLines := strings.Split(string(src), "\n")
	res := &FileResult{FilePath: filePath}
	// Import statements are simple enough that the shared lexical parser is
	// authoritative for both extractors.
	res.Imports = parseImports(rawLines)

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		g.visit(root.NamedChild(i), filePath, src, false, res)
	}

	fileSym, importCands := lowerImports(filePath, len(rawLines), res.Imports)
	if fileSym != nil {
		res.Symbols = append(res.Symbols, *fileSym)
		res.Candidates = append(res.Candidates, importCands...)
	}
	res.Candidates = dedupeCandidates(res.Candidates)
	return res, nil
}

func (g *Grammar) visit(n *sitter.Node, filePath string, src []byte, exported bool, res *FileResult) {
	switch n.Type() {
	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			g.visit(decl, filePath, src, true, res)
		}

	case "class_declaration", "abstract_class_declaration":
		name := g.nodeName(n, src)
		if name == "" {
			return
		}
		start, end := nodeLines(n)
		res.Symbols = append(res.Symbols, newSymbol(name, KindClass, filePath, start, end, exported))

		declLines := sanitize(strings.Split(n.Content(src), "\n"))
		_, header := collectHeader(declLines, 0)
		res.Candidates = append(res.Candidates, heritageCandidates(name, filePath, header)...)
		res.Candidates = append(res.Candidates, g.decoratorDeps(n, name, filePath, src)...)
		res.Candidates = append(res.Candidates, mineClassBody(name, filePath, declLines)...)

	case "interface_declaration":
		name := g.nodeName(n, src)
		if name == "" {
			return
		}
		start, end := nodeLines(n)
		res.Symbols = append(res.Symbols, newSymbol(name, KindInterface, filePath, start, end, exported))

		declLines := sanitize(strings.Split(n.Content(src), "\n"))
		_, header := collectHeader(declLines, 0)
		res.Candidates = append(res.Candidates, heritageCandidates(name, filePath, header)...)

	case "enum_declaration":
		if name := g.nodeName(n, src); name != "" {
			start, end := nodeLines(n)
			res.Symbols = append(res.Symbols, newSymbol(name, KindEnum, filePath, start, end, exported))
		}

	case "type_alias_declaration":
		if name := g.nodeName(n, src); name != "" {
			start, end := nodeLines(n)
			res.Symbols = append(res.Symbols, newSymbol(name, KindTypeAlias, filePath, start, end, exported))
		}

	case "function_declaration", "generator_function_declaration":
		if name := g.nodeName(n, src); name != "" {
			start, end := nodeLines(n)
			res.Symbols = append(res.Symbols, newSymbol(name, KindFunction, filePath, start, end, exported))
		}

	case "lexical_declaration", "variable_declaration":
		start, end := nodeLines(n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			nameNode := d.ChildByFieldName("name")
			if nameNode == nil || nameNode.Type() != "identifier" {
				continue // destructuring patterns are not symbols
			}
			kind := KindVariable
			if v := d.ChildByFieldName("value"); v != nil {
				switch v.Type() {
				case "arrow_function", "function_expression", "function":
					kind = KindFunction
				}
			}
			res.Symbols = append(res.Symbols, newSymbol(nameNode.Content(src), kind, filePath, start, end, exported))
		}
	}
}

// decoratorDeps mines dependency-list arrays from decorators attached to a
// class node.
func (g *Grammar) decoratorDeps(n *sitter.Node, className, filePath string, src []byte) []RelationCandidate {
	var out []RelationCandidate
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() != "decorator" {
			continue
		}
		for _, m := range decoratorArrayRe.FindAllStringSubmatch(c.Content(src), -1) {
			for _, dep := range typeNames(m[1]) {
				out = append(out, RelationCandidate{
					SourceName: className, SourceFile: filePath, TargetName: dep, Verb: VerbUses,
				})
			}
		}
	}
	return out
}

func (g *Grammar) nodeName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Content(src)
}

// nodeLines converts tree-sitter's 0-based rows to 1-based line numbers.
func nodeLines(n *sitter.Node) (int, int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}
