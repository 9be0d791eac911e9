// Package mcpserver exposes generation and validation as MCP tools over
// stdio, so an MCP client can build servers from inside a conversation.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/rules"
)

// New builds the MCP server with every tool registered.
func New(gen Generator, validator *rules.Validator, version string, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = rules.NewValidator(nil)
	}

	s := server.NewMCPServer(
		"buildmcp",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	generate := NewGenerateTool(gen, logger)
	s.AddTool(generate.Definition(), generate.Handle)

	validate := NewValidateTool(validator)
	s.AddTool(validate.Definition(), validate.Handle)

	list := NewRulesTool(validator.Catalog())
	s.AddTool(list.Definition(), list.Handle)

	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in closes. Logs go
// to the zap logger; out carries protocol frames only.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger))
	return stdio.Listen(ctx, in, out)
}

const instructions = `buildmcp generates Model Context Protocol servers.

Use generate_server with a description and the target clients to get a
validated server package. Use validate_server to check existing server
source against the compliance rules, and list_rules to see those rules.`
