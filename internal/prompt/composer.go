// Package prompt builds the text sent to the completion gateway: the layered
// generation prompt and the corrective refinement prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

const (
	// DefaultMaxReferenceChars bounds each embedded reference excerpt.
	DefaultMaxReferenceChars = 4000

	truncationMarker = "\n[... reference truncated ...]"
)

// Composer renders prompts. It holds only configuration and is safe for
// concurrent use.
type Composer struct {
	defaultLanguage   model.Language
	maxReferenceChars int
}

// Option configures a Composer.
type Option func(*Composer)

// WithDefaultLanguage sets the language used when requirements state none.
func WithDefaultLanguage(lang model.Language) Option {
	return func(c *Composer) {
		if lang != "" {
			c.defaultLanguage = lang
		}
	}
}

// WithMaxReferenceChars sets the per-excerpt truncation bound.
func WithMaxReferenceChars(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxReferenceChars = n
		}
	}
}

// NewComposer creates a composer with the given options.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		defaultLanguage:   model.LanguageTypeScript,
		maxReferenceChars: DefaultMaxReferenceChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultLanguage returns the language used when requirements state none.
func (c *Composer) DefaultLanguage() model.Language {
	return c.defaultLanguage
}

// Compose builds the generation prompt. Sections always appear in the same
// order: requirements, one block per distinct target client, protocol
// reference, output instructions.
func (c *Composer) Compose(req model.ServerRequirements, docs ReferenceDocs) string {
	lang := req.ResolveLanguage(c.defaultLanguage)

	var b strings.Builder
	b.WriteString("# MCP Server Generation Request\n\n")
	b.WriteString("Generate a complete Model Context Protocol server that satisfies the requirements below.\n\n")

	writeRequirements(&b, req, lang)

	for _, client := range req.Clients() {
		writeClientBlock(&b, client)
	}

	b.WriteString("## Protocol Reference\n\n")
	b.WriteString("### Schema\n\n")
	b.WriteString(c.excerpt(docs.Schema, DocSchema))
	b.WriteString("\n\n### SDK Usage\n\n")
	b.WriteString(c.excerpt(docs.SDK, SDKDocFor(lang)))
	b.WriteString("\n\n")

	writeOutputInstructions(&b, lang)
	return b.String()
}

func writeRequirements(b *strings.Builder, req model.ServerRequirements, lang model.Language) {
	b.WriteString("## Requirements\n\n")
	fmt.Fprintf(b, "Description: %s\n", req.Description)
	fmt.Fprintf(b, "Target clients: %s\n", strings.Join(req.TargetClients, ", "))
	fmt.Fprintf(b, "Authentication requirements: %s\n", orNone(req.AuthRequirements))
	fmt.Fprintf(b, "Deployment preference: %s\n", req.DeploymentPreference)
	fmt.Fprintf(b, "Language preference: %s\n", orNone(req.LanguagePreference))
	fmt.Fprintf(b, "Implementation language: %s\n\n", lang)
}

func writeClientBlock(b *strings.Builder, client string) {
	family := model.ResolveClientFamily(client)
	fmt.Fprintf(b, "## Client: %s\n\n", client)
	b.WriteString(clientInstructions[family])
	b.WriteString("\n\n")
}

var clientInstructions = map[model.ClientFamily]string{
	model.FamilyClaude: `Claude Desktop launches the server as a local subprocess and talks to it over stdio.
- Reserve stdout for protocol messages; write diagnostics to stderr.
- The server is registered under "mcpServers" in claude_desktop_config.json with a command and args.
- Tool descriptions are shown to the model verbatim; make them specific about inputs and results.`,
	model.FamilyCursor: `Cursor loads project servers from .cursor/mcp.json entries of type "stdio".
- Keep tool results short plain text; Cursor renders them inline in the agent transcript.
- Prefer a small number of focused tools over one tool with many modes.
- Reserve stdout for protocol messages; write diagnostics to stderr.`,
	model.FamilyGeneric: `This client launches the server over stdio using a generic MCP client configuration.
- Stick to the core protocol: tools with JSON schema inputs and text content results.
- Reserve stdout for protocol messages; write diagnostics to stderr.`,
}

func writeOutputInstructions(b *strings.Builder, lang model.Language) {
	b.WriteString("## Output Instructions\n\n")
	fmt.Fprintf(b, "- Respond with the complete server source as a single fenced code block tagged %q.\n", fenceTag(lang))
	b.WriteString("- Name every tool category_action in lower snake case (for example notes_search).\n")
	b.WriteString("- Give every tool a description of at least 20 characters.\n")
	b.WriteString("- Make all search, find and query logic case-insensitive.\n")
	b.WriteString("- Register tools with the high-level SDK API and connect a stdio transport.\n")
	if lang.Kind() == model.KindStaticallyTyped {
		b.WriteString("- Type caught errors as unknown, narrow union-typed values with typeof checks and wrap path arguments in String(...).\n")
	}
}

// excerpt truncates a reference document to the configured bound.
func (c *Composer) excerpt(doc, name string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return Placeholder(name)
	}
	return truncateRunes(doc, c.maxReferenceChars)
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + truncationMarker
}

func fenceTag(lang model.Language) string {
	if lang == "" {
		return "text"
	}
	return string(lang)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
