package commands

import (
	"github.com/spf13/cobra"

	"github.com/buildmcp/buildmcp/internal/mcpserver"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose generation as MCP tools over stdio",
		Long: `Run buildmcp itself as an MCP server on stdin/stdout, offering the
generate_server, validate_server and list_rules tools. Logs go to stderr.

Example client entry:

  {"mcpServers": {"buildmcp": {"command": "buildmcp", "args": ["mcp"]}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			logger := a.logger.Named("mcp")
			s := mcpserver.New(svc.Pipeline, svc.Pipeline.Validator(), Version, logger)
			return mcpserver.Serve(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
}
