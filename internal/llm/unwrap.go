package llm

import "strings"

// fence is an opening code fence line.
type fence struct {
	char  byte
	count int
	info  string
}

// parseFence recognises a fence line: three or more backticks or tildes,
// optionally followed by an info string.
func parseFence(line string) (fence, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return fence{}, false
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return fence{}, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(trimmed[n:])
	if ch == '`' && strings.ContainsRune(info, '`') {
		return fence{}, false
	}
	return fence{char: ch, count: n, info: info}, true
}

// closes reports whether line ends a block opened with f.
func (f fence) closes(line string) bool {
	g, ok := parseFence(line)
	return ok && g.char == f.char && g.count >= f.count && g.info == ""
}

// codeBlock is one fenced block of a response.
type codeBlock struct {
	info    string
	content string
}

// topLevelBlocks returns the outermost fenced blocks in text. An unclosed
// fence runs to the end of the text, which covers truncated responses.
func topLevelBlocks(text string) []codeBlock {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var blocks []codeBlock
	for i := 0; i < len(lines); i++ {
		open, ok := parseFence(lines[i])
		if !ok {
			continue
		}
		start := i + 1
		end := len(lines)
		for j := start; j < len(lines); j++ {
			if open.closes(lines[j]) {
				end = j
				break
			}
		}
		blocks = append(blocks, codeBlock{
			info:    open.info,
			content: strings.Join(lines[start:end], "\n"),
		})
		i = end
	}
	return blocks
}

// Unwrap extracts the innermost fenced content of a response. When the
// response holds several top-level blocks the longest one wins. Text
// without fences is returned trimmed. The second result is the language tag
// of the innermost fence that declared one.
func Unwrap(raw string) (string, string) {
	text := raw
	tag := ""
	for {
		blocks := topLevelBlocks(text)
		if len(blocks) == 0 {
			return strings.TrimSpace(text), tag
		}
		best := blocks[0]
		for _, b := range blocks[1:] {
			if len(b.content) > len(best.content) {
				best = b
			}
		}
		if info := fenceLanguage(best.info); info != "" {
			tag = info
		}
		text = best.content
	}
}

// fenceLanguage returns the first word of an info string.
func fenceLanguage(info string) string {
	if fields := strings.Fields(info); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return ""
}
