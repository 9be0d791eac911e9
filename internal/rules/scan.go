package rules

import (
	"regexp"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

// containsAny reports whether text contains any of the markers.
func containsAny(text string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// closingParen returns the index of the parenthesis closing the one at
// open, or -1. Quoted strings are skipped so a ")" inside a literal does not
// end the call.
func closingParen(text string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits a call's argument list on top-level commas, handling
// nested brackets and quoted strings:
//   - `a, b` → ["a", "b"]
//   - `String(x), fn(a, b)` → ["String(x)", "fn(a, b)"]
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	depth := 0
	var quote rune

	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" {
			args = append(args, item)
		}
		current.Reset()
	}

	escaped := false
	for _, ch := range s {
		if quote != 0 {
			current.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
			current.WriteRune(ch)
		case '(', '[', '{':
			depth++
			current.WriteRune(ch)
		case ')', ']', '}':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				flush()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return args
}

// isStringLiteral reports whether expr is a plain quoted literal with no
// interpolation.
func isStringLiteral(expr string) bool {
	if len(expr) < 2 {
		return false
	}
	first, last := expr[0], expr[len(expr)-1]
	if first != last {
		return false
	}
	switch first {
	case '"', '\'':
		return true
	case '`':
		return !strings.Contains(expr, "${")
	}
	return false
}

// quoted matches one string literal in any quote style, honouring escapes.
// Exactly one of its three groups captures the contents.
const quoted = `(?:"((?:[^"\\\n]|\\.)*)"|'((?:[^'\\\n]|\\.)*)'|` + "`" + `((?:[^` + "`" + `\\]|\\.)*)` + "`" + `)`

var (
	tsToolCall       = regexp.MustCompile(`\.(tool|registerTool)\(\s*["'` + "`" + `]([^"'` + "`" + `]+)["'` + "`" + `]`)
	descriptionField = regexp.MustCompile(`\bdescription\s*:\s*` + quoted)

	pyToolDecorator = regexp.MustCompile(`@\w+\.tool\(`)
	pyDefAfter      = regexp.MustCompile(`^\s*\n(?:\s*@[^\n]*\n)*\s*(?:async\s+)?def\s+(\w+)\s*\(`)
	pyNameKwarg     = regexp.MustCompile(`\bname\s*=\s*["']([^"']+)["']`)
	pyDescKwarg     = regexp.MustCompile(`\bdescription\s*=\s*` + quoted)
)

// literal returns the contents captured by a quoted match whose groups start
// at m[from].
func literal(m []string, from int) string {
	for _, g := range m[from : from+3] {
		if g != "" {
			return g
		}
	}
	return ""
}

// code returns the artifact text with comments removed. String literals are
// kept intact, so descriptions and quoted markers survive. Languages without
// a known comment syntax are returned unchanged.
func code(a model.GeneratedArtifact) string {
	switch a.Language {
	case model.LanguageTypeScript:
		return stripComments(a.SourceText, false)
	case model.LanguagePython:
		return stripComments(a.SourceText, true)
	default:
		return a.SourceText
	}
}

// stripComments removes // and /* */ comments, or # comments when hash is
// set. Block comments become a single space.
func stripComments(src string, hash bool) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == '"' || ch == '\'' || (ch == '`' && !hash):
			end := stringEnd(src, i, hash)
			b.WriteString(src[i:end])
			i = end
		case hash && ch == '#', !hash && strings.HasPrefix(src[i:], "//"):
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl
		case !hash && strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			i += end + 4
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// stringEnd returns the index just past the string literal opening at start.
// Unterminated single-line literals end at the newline.
func stringEnd(src string, start int, python bool) int {
	q := src[start]
	if python {
		triple := strings.Repeat(string(q), 3)
		if strings.HasPrefix(src[start:], triple) {
			end := strings.Index(src[start+3:], triple)
			if end < 0 {
				return len(src)
			}
			return start + 3 + end + 3
		}
	}
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			if q != '`' {
				return j
			}
		}
	}
	return len(src)
}

// tsTool is a tool registered with server.tool(...) or registerTool(...).
type tsTool struct {
	Name        string
	Description string
	HasDoc      bool
	// Inline is set when the description is the second positional argument
	// rather than a description field.
	Inline bool
}

// typeScriptTools extracts registered tools from src. A .tool call carries
// its description as the second argument when that argument is a string;
// registerTool carries it as a description field of its config object.
func typeScriptTools(src string) []tsTool {
	var tools []tsTool
	for _, m := range tsToolCall.FindAllStringSubmatchIndex(src, -1) {
		tool := tsTool{Name: src[m[4]:m[5]]}
		open := m[3]
		closeIdx := closingParen(src, open)
		if closeIdx < 0 {
			// Unterminated call: only the name is reliable.
			tool.HasDoc = true
			tools = append(tools, tool)
			continue
		}
		args := splitArgs(src[open+1 : closeIdx])
		switch method := src[m[2]:m[3]]; {
		case method == "registerTool":
			if len(args) > 1 {
				tool.HasDoc = descriptionField.MatchString(args[1])
			}
		case len(args) > 1 && len(args[1]) >= 2 && strings.ContainsRune("\"'`", rune(args[1][0])):
			tool.HasDoc, tool.Inline = true, true
			tool.Description = args[1][1 : len(args[1])-1]
		}
		tools = append(tools, tool)
	}
	return tools
}

// pythonTool is a function registered with a FastMCP-style tool decorator.
type pythonTool struct {
	Name        string
	Description string
	HasDoc      bool
}

// pythonTools extracts decorated tool functions together with their
// effective name and description (decorator keywords win over the function
// name and docstring).
func pythonTools(src string) []pythonTool {
	var tools []pythonTool
	for _, loc := range pyToolDecorator.FindAllStringIndex(src, -1) {
		open := loc[1] - 1
		closeIdx := closingParen(src, open)
		if closeIdx < 0 {
			continue
		}
		decoratorArgs := src[open+1 : closeIdx]
		rest := src[closeIdx+1:]
		def := pyDefAfter.FindStringSubmatchIndex(rest)
		if def == nil {
			continue
		}
		tool := pythonTool{Name: rest[def[2]:def[3]]}
		if m := pyNameKwarg.FindStringSubmatch(decoratorArgs); m != nil {
			tool.Name = m[1]
		}
		if m := pyDescKwarg.FindStringSubmatch(decoratorArgs); m != nil {
			tool.Description, tool.HasDoc = literal(m, 1), true
		} else if doc, ok := docstringAfterDef(rest, def[1]-1); ok {
			tool.Description, tool.HasDoc = doc, true
		}
		tools = append(tools, tool)
	}
	return tools
}

// docstringAfterDef returns the docstring of the function whose parameter
// list opens at paramOpen.
func docstringAfterDef(src string, paramOpen int) (string, bool) {
	closeIdx := closingParen(src, paramOpen)
	if closeIdx < 0 {
		return "", false
	}
	colon := strings.IndexByte(src[closeIdx:], ':')
	if colon < 0 {
		return "", false
	}
	body := src[closeIdx+colon+1:]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 || strings.TrimSpace(body[:nl]) != "" {
		return "", false
	}
	body = strings.TrimLeft(body[nl+1:], " \t\r\n")
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(body, q) {
			end := strings.Index(body[len(q):], q)
			if end < 0 {
				return "", false
			}
			return strings.TrimSpace(body[len(q) : len(q)+end]), true
		}
	}
	return "", false
}

// toolNames returns the registered tool identifiers for the artifact's
// language; unknown languages are scanned with both extractors.
func toolNames(a model.GeneratedArtifact) []string {
	src := code(a)
	var names []string
	if a.Language != model.LanguagePython {
		for _, t := range typeScriptTools(src) {
			names = append(names, t.Name)
		}
	}
	if a.Language != model.LanguageTypeScript {
		for _, t := range pythonTools(src) {
			names = append(names, t.Name)
		}
	}
	return names
}

// truncate shortens s for inclusion in a violation message.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
