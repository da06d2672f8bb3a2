package extract

import (
	"regexp"
	"strings"
)

var (
	constructorRe = regexp.MustCompile(`^\s*(?:(?:public|private|protected)\s+)?constructor\s*\(`)
	methodRe      = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|abstract|override)\s+)*(?:get\s+|set\s+)?([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`)
	fieldRe       = regexp.MustCompile(`^\s*(?:(?:public|private|protected|readonly|static|abstract|declare|override)\s+)*([A-Za-z_$][\w$]*)\s*[?!]?\s*:\s*([^=;]+)`)
	annotationRe  = regexp.MustCompile(`:\s*([^,()]+)`)
	returnTypeRe  = regexp.MustCompile(`\)\s*:\s*([^;{]+)`)
)

// reservedMembers are statement keywords that would otherwise satisfy the
// method pattern when a class body is misaligned.
var reservedMembers = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "typeof": true, "await": true, "constructor": true,
}

// mineClassBody inspects a class body (sanitized lines, header through
// closing brace) and emits "uses" candidates for the types named in
// constructor parameters, field annotations, and method parameter/return
// annotations. Only direct members are inspected; statements inside method
// bodies sit at deeper brace depth and are skipped.
func mineClassBody(className, filePath string, body []string) []RelationCandidate {
	var out []RelationCandidate
	uses := func(types []string) {
		for _, t := range types {
			if t == className {
				continue
			}
			out = append(out, RelationCandidate{
				SourceName: className, SourceFile: filePath, TargetName: t, Verb: VerbUses,
			})
		}
	}

	depth := 0
	for i := 0; i < len(body); i++ {
		line := body[i]
		atMemberLevel := depth == 1

		if atMemberLevel {
			switch {
			case constructorRe.MatchString(line):
				end, sig := collectBalanced(body, i, '(', ')')
				uses(annotationTypes(parenInner(sig)))
				for j := i; j <= end && j < len(body); j++ {
					depth += braceDelta(body[j])
				}
				i = end
				continue

			case methodRe.MatchString(line):
				m := methodRe.FindStringSubmatch(line)
				if !reservedMembers[m[1]] {
					end, sig := collectBalanced(body, i, '(', ')')
					uses(annotationTypes(parenInner(sig)))
					if rm := returnTypeRe.FindStringSubmatch(sig); rm != nil {
						uses(typeNames(rm[1]))
					}
					for j := i; j <= end && j < len(body); j++ {
						depth += braceDelta(body[j])
					}
					i = end
					continue
				}

			case fieldRe.MatchString(line):
				m := fieldRe.FindStringSubmatch(line)
				uses(typeNames(m[2]))
			}
		}

		depth += braceDelta(line)
		if depth < 0 {
			depth = 0
		}
	}
	return out
}

// parenInner returns the text between the first '(' and its matching ')'.
func parenInner(sig string) string {
	start := strings.Index(sig, "(")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(sig); i++ {
		switch sig[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sig[start+1 : i]
			}
		}
	}
	return sig[start+1:]
}

// annotationTypes extracts type names from every `: Type` annotation in a
// parameter list.
func annotationTypes(params string) []string {
	var out []string
	for _, m := range annotationRe.FindAllStringSubmatch(params, -1) {
		out = append(out, typeNames(m[1])...)
	}
	return out
}
