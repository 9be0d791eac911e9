package packager

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

// BuildDocumentation renders setup instructions for every client config, in
// order, with the JSON snippet to merge into each client's config file.
func BuildDocumentation(configs []model.ClientConfig) string {
	var b strings.Builder
	b.WriteString("# Client Setup\n\n")
	if len(configs) == 0 {
		b.WriteString("No clients were requested.\n")
		return b.String()
	}

	b.WriteString("Build the local bundle with ./setup.sh, then add the server to each client below.\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "\n## %s\n\n", cfg.ClientName)
		fmt.Fprintf(&b, "Client family: %s\n", cfg.Family)
		fmt.Fprintf(&b, "Configuration file: `%s`\n\n", cfg.Path)

		snippet, err := json.MarshalIndent(cfg.Configuration, "", "  ")
		if err != nil {
			snippet = []byte(fmt.Sprintf("%v", cfg.Configuration))
		}
		b.WriteString("```json\n")
		b.Write(snippet)
		b.WriteString("\n```\n")
	}
	return b.String()
}
