package packager

import (
	"path"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/templates"
)

// Suggested config file locations per client family.
const (
	ClaudeConfigPath  = "claude_desktop_config.json"
	CursorConfigPath  = ".cursor/mcp.json"
	GenericConfigPath = "mcp-client.json"
)

// GenerateClientConfig derives the launch configuration for one client.
// The shape depends only on the client's family and the artifact language.
func (p *Packager) GenerateClientConfig(clientName string, a model.GeneratedArtifact) model.ClientConfig {
	family := model.ResolveClientFamily(clientName)
	command, args := p.launch(a.Language)

	cfg := model.ClientConfig{ClientName: clientName, Family: family}
	switch family {
	case model.FamilyClaude:
		cfg.Path = ClaudeConfigPath
		cfg.Configuration = map[string]any{
			"mcpServers": map[string]any{
				p.serverName: map[string]any{
					"command": command,
					"args":    args,
					"env":     map[string]any{},
				},
			},
		}
	case model.FamilyCursor:
		cfg.Path = CursorConfigPath
		cfg.Configuration = map[string]any{
			"mcpServers": map[string]any{
				p.serverName: map[string]any{
					"type":    "stdio",
					"command": command,
					"args":    args,
					"env":     map[string]any{},
				},
			},
		}
	default:
		cfg.Path = GenericConfigPath
		cfg.Configuration = map[string]any{
			"server": map[string]any{
				"name":    p.serverName,
				"command": command,
				"args":    args,
			},
			"transport": "stdio",
		}
	}
	return cfg
}

// ClientConfigs derives one configuration per client, in order.
func (p *Packager) ClientConfigs(clients []string, a model.GeneratedArtifact) []model.ClientConfig {
	configs := make([]model.ClientConfig, 0, len(clients))
	for _, c := range clients {
		configs = append(configs, p.GenerateClientConfig(c, a))
	}
	return configs
}

// launch returns the command and absolute arguments for the local bundle.
func (p *Packager) launch(lang model.Language) (string, []any) {
	rt := templates.RuntimeFor(lang)
	args := make([]any, len(rt.Args))
	for i, arg := range rt.Args {
		args[i] = path.Join(p.installDir, arg)
	}
	return rt.Command, args
}
