package extract

import "strings"

// sanitize strips comments and string-literal contents so the structural
// pass can count braces without being fooled by `}` inside a string or a
// commented-out declaration. Block comments and template literals carry
// state across lines. Import parsing runs on the raw lines instead, because
// it needs the quoted module specifiers this pass erases.
func sanitize(rawLines []string) []string {
	const (
		stCode = iota
		stBlockComment
		stSingle
		stDouble
		stTemplate
	)
	state := stCode
	out := make([]string, len(rawLines))

	for li, line := range rawLines {
		var b strings.Builder
		i := 0
		for i < len(line) {
			ch := line[i]
			switch state {
			case stBlockComment:
				if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
					state = stCode
					i += 2
					continue
				}
				i++
			case stSingle:
				if ch == '\\' {
					i += 2
					continue
				}
				if ch == '\'' {
					state = stCode
					b.WriteByte('\'')
				}
				i++
			case stDouble:
				if ch == '\\' {
					i += 2
					continue
				}
				if ch == '"' {
					state = stCode
					b.WriteByte('"')
				}
				i++
			case stTemplate:
				if ch == '\\' {
					i += 2
					continue
				}
				if ch == '`' {
					state = stCode
					b.WriteByte('`')
				}
				i++
			default: // stCode
				if ch == '/' && i+1 < len(line) {
					if line[i+1] == '/' {
						i = len(line) // line comment: drop the rest
						continue
					}
					if line[i+1] == '*' {
						state = stBlockComment
						i += 2
						continue
					}
				}
				switch ch {
				case '\'':
					state = stSingle
					b.WriteByte('\'')
				case '"':
					state = stDouble
					b.WriteByte('"')
				case '`':
					state = stTemplate
					b.WriteByte('`')
				default:
					b.WriteByte(ch)
				}
				i++
			}
		}
		// Single- and double-quoted strings do not span lines; reset so an
		// unterminated literal cannot poison the rest of the file.
		if state == stSingle || state == stDouble {
			state = stCode
		}
		out[li] = b.String()
	}
	return out
}
