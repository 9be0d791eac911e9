package templates

import "github.com/buildmcp/buildmcp/internal/model"

const typeScriptFallback = `import { McpServer } from "@modelcontextprotocol/sdk/server/mcp.js";
import { StdioServerTransport } from "@modelcontextprotocol/sdk/server/stdio.js";
import { z } from "zod";

const server = new McpServer({ name: "generated-mcp-server", version: "1.0.0" });

const notes: Array<{ id: number; title: string; body: string }> = [];

server.tool(
  "notes_create",
  "Create a note with a title and body and return its identifier",
  { title: z.string(), body: z.string() },
  async ({ title, body }) => {
    const id = notes.length + 1;
    notes.push({ id, title, body });
    return { content: [{ type: "text", text: "created note " + String(id) }] };
  }
);

server.tool(
  "notes_search",
  "Search notes by keyword, matching title and body case-insensitively",
  { keyword: z.string() },
  async ({ keyword }) => {
    const needle = keyword.toLowerCase();
    const hits = notes.filter(
      (n) => n.title.toLowerCase().includes(needle) || n.body.toLowerCase().includes(needle)
    );
    return { content: [{ type: "text", text: JSON.stringify(hits) }] };
  }
);

async function main() {
  const transport = new StdioServerTransport();
  await server.connect(transport);
}

main().catch((error: unknown) => {
  console.error("server failed", error);
  process.exit(1);
});
`

const pythonFallback = `from mcp.server.fastmcp import FastMCP

mcp = FastMCP("generated-mcp-server")

notes: list[dict] = []


@mcp.tool()
def notes_create(title: str, body: str) -> str:
    """Create a note with a title and body and return its identifier."""
    notes.append({"title": title, "body": body})
    return str(len(notes))


@mcp.tool()
def notes_search(keyword: str) -> list[dict]:
    """Search notes by keyword, matching title and body case-insensitively."""
    needle = keyword.casefold()
    return [n for n in notes if needle in n["title"].casefold() or needle in n["body"].casefold()]


if __name__ == "__main__":
    mcp.run(transport="stdio")
`

// Fallback returns the built-in compliant server for lang. Languages without
// a dedicated fallback get the TypeScript one.
func Fallback(lang model.Language) model.GeneratedArtifact {
	if lang == model.LanguagePython {
		return model.GeneratedArtifact{SourceText: pythonFallback, Language: model.LanguagePython, Fallback: true}
	}
	return model.GeneratedArtifact{SourceText: typeScriptFallback, Language: model.LanguageTypeScript, Fallback: true}
}
