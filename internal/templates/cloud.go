package templates

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/buildmcp/buildmcp/internal/model"
)

const tsDockerfile = `FROM {{.Runtime.Image}} AS build
WORKDIR /app
COPY package.json tsconfig.json ./
RUN npm install
COPY src ./src
RUN npm run build

FROM {{.Runtime.Image}}
WORKDIR /app
COPY --from=build /app/package.json ./
COPY --from=build /app/node_modules ./node_modules
COPY --from=build /app/build ./build
COPY run.sh ./
ENV NODE_ENV=production
CMD ["sh", "run.sh"]
`

const pyDockerfile = `FROM {{.Runtime.Image}}
WORKDIR /app
COPY requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt
COPY server.py run.sh ./
ENV PYTHONUNBUFFERED=1
CMD ["sh", "run.sh"]
`

const genericDockerfile = `FROM {{.Runtime.Image}}
WORKDIR /app
COPY . ./
CMD ["sh", "run.sh"]
`

const deploySh = `#!/bin/sh
set -e
cd "$(dirname "$0")"

case "${1:-compose}" in
  compose)
    docker compose build
    docker compose run --rm -T {{.ServerName}}
    ;;
  fly)
    fly deploy --config fly.toml
    ;;
  *)
    echo "usage: $0 [compose|fly]" >&2
    exit 1
    ;;
esac
`

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Build       string            `yaml:"build"`
	Image       string            `yaml:"image"`
	StdinOpen   bool              `yaml:"stdin_open"`
	Restart     string            `yaml:"restart"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// composeDocument renders docker-compose.yml for the server container.
func composeDocument(ctx *Context) (string, error) {
	doc := composeFile{
		Services: map[string]composeService{
			ctx.ServerName: {
				Build:       ".",
				Image:       ctx.ServerName + ":latest",
				StdinOpen:   true,
				Restart:     "unless-stopped",
				Environment: runtimeEnv(ctx.Language),
			},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode docker-compose.yml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode docker-compose.yml: %w", err)
	}
	return buf.String(), nil
}

type flyConfig struct {
	App           string            `toml:"app"`
	PrimaryRegion string            `toml:"primary_region"`
	Build         flyBuild          `toml:"build"`
	Env           map[string]string `toml:"env,omitempty"`
	VM            []flyVM           `toml:"vm"`
}

type flyBuild struct {
	Dockerfile string `toml:"dockerfile"`
}

type flyVM struct {
	Memory  string `toml:"memory"`
	CPUKind string `toml:"cpu_kind"`
	CPUs    int    `toml:"cpus"`
}

// flyDocument renders fly.toml for deploying the container to Fly.io.
func flyDocument(ctx *Context) (string, error) {
	cfg := flyConfig{
		App:           ctx.ServerName,
		PrimaryRegion: "iad",
		Build:         flyBuild{Dockerfile: "Dockerfile"},
		Env:           runtimeEnv(ctx.Language),
		VM:            []flyVM{{Memory: "512mb", CPUKind: "shared", CPUs: 1}},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("encode fly.toml: %w", err)
	}
	return buf.String(), nil
}

func runtimeEnv(lang model.Language) map[string]string {
	switch lang {
	case model.LanguageTypeScript:
		return map[string]string{"NODE_ENV": "production"}
	case model.LanguagePython:
		return map[string]string{"PYTHONUNBUFFERED": "1"}
	default:
		return nil
	}
}

func cloudFiles(manifests []*TemplateFile, dockerfile, run string) []*TemplateFile {
	files := []*TemplateFile{sourceFile()}
	files = append(files, manifests...)
	return append(files,
		&TemplateFile{TargetPath: "Dockerfile", Role: RoleContainer, Content: dockerfile},
		&TemplateFile{TargetPath: "docker-compose.yml", Role: RoleContainer, Generate: composeDocument},
		&TemplateFile{TargetPath: "fly.toml", Role: RoleDeploy, Generate: flyDocument},
		&TemplateFile{TargetPath: "run.sh", Role: RoleRun, Content: run},
		&TemplateFile{TargetPath: "deploy.sh", Role: RoleDeploy, Content: deploySh},
		readmeFile(),
	)
}

// NewTypeScriptCloudTemplate builds the container bundle for TypeScript.
func NewTypeScriptCloudTemplate() *Template {
	return &Template{
		Name:        "typescript-cloud",
		Description: "Multi-stage Node.js container with compose and Fly.io descriptors",
		Target:      model.TargetCloud,
		Language:    model.LanguageTypeScript,
		Files: cloudFiles([]*TemplateFile{
			{TargetPath: "package.json", Role: RoleManifest, Content: packageJSON},
			{TargetPath: "tsconfig.json", Role: RoleManifest, Content: tsconfigJSON},
		}, tsDockerfile, tsRun),
	}
}

// NewPythonCloudTemplate builds the container bundle for Python.
func NewPythonCloudTemplate() *Template {
	return &Template{
		Name:        "python-cloud",
		Description: "Python container with compose and Fly.io descriptors",
		Target:      model.TargetCloud,
		Language:    model.LanguagePython,
		Files: cloudFiles([]*TemplateFile{
			{TargetPath: "requirements.txt", Role: RoleManifest, Content: requirementsTxt},
		}, pyDockerfile, pyRun),
	}
}

// NewDefaultCloudTemplate builds the container bundle for unsupported languages.
func NewDefaultCloudTemplate() *Template {
	return &Template{
		Name:        "default-cloud",
		Description: "Generic container with compose and Fly.io descriptors",
		Target:      model.TargetCloud,
		Files: cloudFiles([]*TemplateFile{
			{TargetPath: "mcp-manifest.json", Role: RoleManifest, Content: genericManifest},
		}, genericDockerfile, genericRun),
	}
}
