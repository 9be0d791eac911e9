package templates

import "github.com/buildmcp/buildmcp/internal/model"

const packageJSON = `{
  "name": "{{.ServerName}}",
  "version": "1.0.0",
  "private": true,
  "type": "module",
  "bin": { "{{.ServerName}}": "build/index.js" },
  "scripts": {
    "build": "tsc",
    "start": "{{.Runtime.CommandLine}}"
  },
  "dependencies": {
    "@modelcontextprotocol/sdk": "^1.12.0",
    "zod": "^3.24.0"
  },
  "devDependencies": {
    "@types/node": "^20.11.0",
    "typescript": "^5.4.0"
  }
}
`

const tsconfigJSON = `{
  "compilerOptions": {
    "target": "ES2022",
    "module": "Node16",
    "moduleResolution": "Node16",
    "outDir": "./build",
    "rootDir": "./src",
    "strict": true,
    "esModuleInterop": true,
    "skipLibCheck": true
  },
  "include": ["src/**/*"]
}
`

const requirementsTxt = `mcp[cli]>=1.2.0
`

const genericManifest = `{
  "name": "{{.ServerName}}",
  "language": "{{.Language}}",
  "entry": "{{.Runtime.SourceFile}}",
  "transport": "stdio"
}
`

const readme = `# {{title .ServerName}}

A Model Context Protocol server ({{.Language}}) that talks to its client over stdio.

## Files

- ` + "`{{.Runtime.SourceFile}}`" + `: server source
- ` + "`{{.Runtime.Manifest}}`" + `: dependency manifest

## Usage

` + "```sh" + `
./setup.sh
./run.sh
` + "```" + `

Register the server with your client using the command ` + "`{{.Runtime.CommandLine}}`" + `
from this directory.
`

const tsSetup = `#!/bin/sh
set -e
cd "$(dirname "$0")"
npm install
npm run build
`

const pySetup = `#!/bin/sh
set -e
cd "$(dirname "$0")"
python3 -m venv .venv
. .venv/bin/activate
pip install -r requirements.txt
`

const genericSetup = `#!/bin/sh
set -e
cd "$(dirname "$0")"
echo "Install the {{.Language}} toolchain and the MCP SDK for it, then run ./run.sh"
`

const tsRun = `#!/bin/sh
cd "$(dirname "$0")"
exec {{.Runtime.CommandLine}}
`

const pyRun = `#!/bin/sh
cd "$(dirname "$0")"
if [ -d .venv ]; then
  . .venv/bin/activate
fi
exec {{.Runtime.CommandLine}}
`

const genericRun = `#!/bin/sh
cd "$(dirname "$0")"
exec "${MCP_SERVER_INTERPRETER:?set MCP_SERVER_INTERPRETER to the {{.Language}} interpreter}" {{.Runtime.SourceFile}}
`

func sourceFile() *TemplateFile {
	return &TemplateFile{TargetPath: "{{.Runtime.SourceFile}}", Role: RoleSource, Source: true}
}

func readmeFile() *TemplateFile {
	return &TemplateFile{TargetPath: "README.md", Role: RoleDocs, Content: readme}
}

// NewTypeScriptLocalTemplate builds the local TypeScript bundle.
func NewTypeScriptLocalTemplate() *Template {
	return &Template{
		Name:        "typescript-local",
		Description: "Node.js project built with tsc and launched over stdio",
		Target:      model.TargetLocal,
		Language:    model.LanguageTypeScript,
		Files: []*TemplateFile{
			sourceFile(),
			{TargetPath: "package.json", Role: RoleManifest, Content: packageJSON},
			{TargetPath: "tsconfig.json", Role: RoleManifest, Content: tsconfigJSON},
			{TargetPath: "setup.sh", Role: RoleSetup, Content: tsSetup},
			{TargetPath: "run.sh", Role: RoleRun, Content: tsRun},
			readmeFile(),
		},
	}
}

// NewPythonLocalTemplate builds the local Python bundle.
func NewPythonLocalTemplate() *Template {
	return &Template{
		Name:        "python-local",
		Description: "Python virtualenv project launched over stdio",
		Target:      model.TargetLocal,
		Language:    model.LanguagePython,
		Files: []*TemplateFile{
			sourceFile(),
			{TargetPath: "requirements.txt", Role: RoleManifest, Content: requirementsTxt},
			{TargetPath: "setup.sh", Role: RoleSetup, Content: pySetup},
			{TargetPath: "run.sh", Role: RoleRun, Content: pyRun},
			readmeFile(),
		},
	}
}

// NewDefaultLocalTemplate builds the local bundle for unsupported languages.
func NewDefaultLocalTemplate() *Template {
	return &Template{
		Name:        "default-local",
		Description: "Source plus a generic manifest and launch scripts",
		Target:      model.TargetLocal,
		Files: []*TemplateFile{
			sourceFile(),
			{TargetPath: "mcp-manifest.json", Role: RoleManifest, Content: genericManifest},
			{TargetPath: "setup.sh", Role: RoleSetup, Content: genericSetup},
			{TargetPath: "run.sh", Role: RoleRun, Content: genericRun},
			readmeFile(),
		},
	}
}
