package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantTag  string
	}{
		{
			name:     "plain text",
			raw:      "  const x = 1;\n",
			wantText: "const x = 1;",
		},
		{
			name:     "single block with prose",
			raw:      "Here you go:\n```typescript\nconst x = 1;\n```\nEnjoy.",
			wantText: "const x = 1;",
			wantTag:  "typescript",
		},
		{
			name:     "nested fences",
			raw:      "````markdown\n# Server\n```py\nprint(1)\n```\n````",
			wantText: "print(1)",
			wantTag:  "py",
		},
		{
			name:     "inner info string wins over outer",
			raw:      "```markdown\n```python\nmcp.run()\n```\n```",
			wantText: "mcp.run()",
			wantTag:  "python",
		},
		{
			name:     "unclosed fence runs to end",
			raw:      "```ts\nconst server = new McpServer({});\nserver.tool(",
			wantText: "const server = new McpServer({});\nserver.tool(",
			wantTag:  "ts",
		},
		{
			name:     "longest top-level block wins",
			raw:      "```bash\nnpm i\n```\n\n```typescript\nconst a = 1;\nconst b = 2;\n```",
			wantText: "const a = 1;\nconst b = 2;",
			wantTag:  "typescript",
		},
		{
			name:     "tilde fence",
			raw:      "~~~python\nx = 1\n~~~",
			wantText: "x = 1",
			wantTag:  "python",
		},
		{
			name:     "crlf line endings",
			raw:      "```ts\r\nlet a = 1;\r\n```\r\n",
			wantText: "let a = 1;",
			wantTag:  "ts",
		},
		{
			name:     "empty block",
			raw:      "```ts\n```",
			wantText: "",
			wantTag:  "ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, tag := Unwrap(tt.raw)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantTag, tag)
		})
	}
}
