package prompt

import (
	"fmt"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

var guidance = map[model.LanguageKind]string{
	model.KindStaticallyTyped: `- Keep the code compiling under strict type checking: type caught errors as unknown and narrow them before use.
- Narrow union-typed parameters with typeof or instanceof before calling type-specific methods.
- Where SDK signatures are loosely typed, add an explicit "as any" or unknown escape hatch instead of fighting the checker.
- Wrap every non-literal argument of path.join/path.resolve in String(...).`,
	model.KindDynamicallyTyped: `- Use type hints on every tool parameter; they become the tool's input schema.
- Put a descriptive docstring on every tool function, at least one full sentence.
- Normalise strings with casefold() before comparing in search logic.
- Start the server with mcp.run(transport="stdio") under an if __name__ == "__main__" guard.`,
	model.KindUnknown: `- Keep the overall structure: construct the server, register tools, connect a stdio transport.
- Fix only what the violations describe and keep everything else unchanged.
- Follow the SDK's high-level tool registration API.`,
}

// Guidance returns the remediation block for a language's type discipline.
func Guidance(lang model.Language) string {
	return guidance[lang.Kind()]
}

// Refinement builds the corrective prompt: the numbered violations, the
// previous source and language-specific remediation guidance.
func (c *Composer) Refinement(violations []model.Violation, previous model.GeneratedArtifact) string {
	var b strings.Builder
	b.WriteString("# MCP Server Correction Request\n\n")
	b.WriteString("The server you generated fails these compliance checks:\n\n")
	for i, v := range violations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v)
	}

	b.WriteString("\n## Previous Source\n\n")
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", fenceTag(previous.Language), strings.TrimRight(previous.SourceText, "\n"))

	b.WriteString("## Guidance\n\n")
	b.WriteString(Guidance(previous.Language))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Return the complete corrected server as a single fenced code block tagged %q. Do not omit unchanged parts.\n", fenceTag(previous.Language))
	return b.String()
}
