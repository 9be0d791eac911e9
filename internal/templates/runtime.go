package templates

import (
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

// DefaultServerName names generated servers in manifests and client configs.
const DefaultServerName = "generated-mcp-server"

// Runtime describes how a language's server is laid out and launched.
type Runtime struct {
	SourceFile string
	Manifest   string
	Command    string
	Args       []string
	// Image is the container base image for cloud bundles.
	Image string
}

// CommandLine returns the launch command joined with its arguments.
func (r Runtime) CommandLine() string {
	return strings.Join(append([]string{r.Command}, r.Args...), " ")
}

// RuntimeFor returns the layout for lang; unknown languages get a generic
// layout that launches through run.sh.
func RuntimeFor(lang model.Language) Runtime {
	switch lang {
	case model.LanguageTypeScript:
		return Runtime{
			SourceFile: "src/index.ts",
			Manifest:   "package.json",
			Command:    "node",
			Args:       []string{"build/index.js"},
			Image:      "node:20-slim",
		}
	case model.LanguagePython:
		return Runtime{
			SourceFile: "server.py",
			Manifest:   "requirements.txt",
			Command:    "python",
			Args:       []string{"server.py"},
			Image:      "python:3.12-slim",
		}
	default:
		ext := "txt"
		if lang != "" {
			ext = sanitizeExt(string(lang))
		}
		return Runtime{
			SourceFile: "server." + ext,
			Manifest:   "mcp-manifest.json",
			Command:    "sh",
			Args:       []string{"run.sh"},
			Image:      "debian:bookworm-slim",
		}
	}
}

func sanitizeExt(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "txt"
	}
	return b.String()
}
