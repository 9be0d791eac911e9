package rules

import (
	"regexp"

	"github.com/buildmcp/buildmcp/internal/model"
)

var (
	tsEntryPoints = []string{"new McpServer(", "new Server("}
	pyEntryPoints = []string{"FastMCP(", "Server("}

	tsTransports = []string{"StdioServerTransport", "SSEServerTransport", "StreamableHTTPServerTransport"}
	pyTransports = []string{"stdio_server", "sse_server", "streamablehttp_client", ".run(transport="}
	pyRunCall    = regexp.MustCompile(`\b\w+\.run\(`)

	legacyDecorator = regexp.MustCompile(`@\w+\.(?:list_tools|call_tool)\(\)`)
)

// EntryPointRule requires the server object to be constructed.
var EntryPointRule = Rule{
	Name:        "structural.entry_point",
	Category:    model.CategoryStructural,
	Description: "The artifact constructs an MCP server instance.",
	Check: func(a model.GeneratedArtifact) (string, bool) {
		var markers []string
		switch a.Language {
		case model.LanguageTypeScript:
			markers = tsEntryPoints
		case model.LanguagePython:
			markers = pyEntryPoints
		default:
			markers = append(append([]string{}, tsEntryPoints...), pyEntryPoints...)
		}
		if containsAny(code(a), markers...) {
			return "", false
		}
		return "missing server entry point: construct the server with " + markers[0] + "...)", true
	},
}

// TransportRule requires a transport to be created and connected.
var TransportRule = Rule{
	Name:        "structural.transport",
	Category:    model.CategoryStructural,
	Description: "The artifact sets up a transport connection.",
	Check: func(a model.GeneratedArtifact) (string, bool) {
		src := code(a)
		ts := containsAny(src, tsTransports...)
		py := containsAny(src, pyTransports...) || pyRunCall.MatchString(src)
		switch a.Language {
		case model.LanguageTypeScript:
			if ts {
				return "", false
			}
			return "missing transport setup: connect the server with a StdioServerTransport", true
		case model.LanguagePython:
			if py {
				return "", false
			}
			return `missing transport setup: start the server with mcp.run(transport="stdio")`, true
		default:
			if ts || py {
				return "", false
			}
			return "missing transport setup: the server never connects a transport", true
		}
	},
}

// NoLegacyHandlersRule forbids the low-level request handler API.
var NoLegacyHandlersRule = Rule{
	Name:        "structural.no_legacy_handlers",
	Category:    model.CategoryStructural,
	Description: "The artifact does not use legacy low-level request handlers.",
	Check: func(a model.GeneratedArtifact) (string, bool) {
		src := code(a)
		if containsAny(src, "setRequestHandler(") {
			return "legacy request handling: replace setRequestHandler(...) with server.tool(...) registrations", true
		}
		if legacyDecorator.MatchString(src) {
			return "legacy request handling: replace @server.list_tools()/@server.call_tool() with @mcp.tool() functions", true
		}
		return "", false
	},
}
