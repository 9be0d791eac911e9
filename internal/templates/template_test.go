package templates

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/buildmcp/buildmcp/internal/model"
)

func renderContext(lang model.Language) *Context {
	return &Context{
		ServerName: DefaultServerName,
		Language:   lang,
		SourceText: "// {{ not a template }}\nconsole.log(1);\n",
		Runtime:    RuntimeFor(lang),
	}
}

func TestTemplateValidation(t *testing.T) {
	src := &TemplateFile{TargetPath: "a.ts", Role: RoleSource, Source: true}
	manifest := &TemplateFile{TargetPath: "package.json", Role: RoleManifest, Content: "{}"}
	setup := &TemplateFile{TargetPath: "setup.sh", Role: RoleSetup, Content: "x"}
	run := &TemplateFile{TargetPath: "run.sh", Role: RoleRun, Content: "x"}

	tests := []struct {
		name    string
		tmpl    *Template
		wantErr string
	}{
		{
			name: "valid local template",
			tmpl: &Template{Name: "t", Target: model.TargetLocal, Files: []*TemplateFile{src, manifest, setup, run}},
		},
		{
			name:    "missing name",
			tmpl:    &Template{Target: model.TargetLocal, Files: []*TemplateFile{src}},
			wantErr: "name is required",
		},
		{
			name:    "unknown target",
			tmpl:    &Template{Name: "t", Target: "edge", Files: []*TemplateFile{src}},
			wantErr: "unknown target kind",
		},
		{
			name:    "no files",
			tmpl:    &Template{Name: "t", Target: model.TargetLocal},
			wantErr: "at least one file",
		},
		{
			name:    "two sources",
			tmpl:    &Template{Name: "t", Target: model.TargetLocal, Files: []*TemplateFile{src, src, manifest, setup, run}},
			wantErr: "exactly one source file",
		},
		{
			name:    "no manifest",
			tmpl:    &Template{Name: "t", Target: model.TargetLocal, Files: []*TemplateFile{src, setup, run}},
			wantErr: "no manifest file",
		},
		{
			name:    "cloud without container pair",
			tmpl:    &Template{Name: "t", Target: model.TargetCloud, Files: []*TemplateFile{src, manifest, run}},
			wantErr: "container descriptor pair",
		},
		{
			name:    "empty content",
			tmpl:    &Template{Name: "t", Target: model.TargetLocal, Files: []*TemplateFile{{TargetPath: "x", Role: RoleDocs}}},
			wantErr: "content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngine_RenderKeepsSourceVerbatim(t *testing.T) {
	ctx := renderContext(model.LanguageTypeScript)
	files, err := NewEngine().Render(NewTypeScriptLocalTemplate(), ctx)
	require.NoError(t, err)

	assert.Equal(t, ctx.SourceText, files["src/index.ts"])
	assert.Contains(t, files["package.json"], `"name": "generated-mcp-server"`)
	assert.Contains(t, files["run.sh"], "exec node build/index.js")
	assert.Contains(t, files["README.md"], "# Generated Mcp Server")
}

func TestEngine_RenderIsDeterministic(t *testing.T) {
	e := NewEngine()
	for _, tmpl := range []*Template{NewTypeScriptCloudTemplate(), NewPythonCloudTemplate(), NewDefaultLocalTemplate()} {
		first, err := e.Render(tmpl, renderContext(tmpl.Language))
		require.NoError(t, err)
		second, err := e.Render(tmpl, renderContext(tmpl.Language))
		require.NoError(t, err)
		assert.Equal(t, first, second, tmpl.Name)
	}
}

func TestEngine_RejectsEscapingPaths(t *testing.T) {
	for _, target := range []string{"/etc/passwd", "../outside", "a/../../b", "."} {
		tmpl := &Template{Name: "bad", Files: []*TemplateFile{{TargetPath: target, Content: "x"}}}
		_, err := NewEngine().Render(tmpl, renderContext(model.LanguagePython))
		assert.Error(t, err, target)
	}
}

func TestEngine_MissingKeyIsAnError(t *testing.T) {
	tmpl := &Template{Name: "bad", Files: []*TemplateFile{{TargetPath: "x", Content: "{{.Nope}}"}}}
	_, err := NewEngine().Render(tmpl, renderContext(model.LanguagePython))
	assert.Error(t, err)
}

func TestCleanRelativePath(t *testing.T) {
	got, err := CleanRelativePath("src/./index.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts", got)

	got, err = CleanRelativePath(`src\index.ts`)
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts", got)
}

func TestCloudDescriptors(t *testing.T) {
	files, err := NewEngine().Render(NewPythonCloudTemplate(), renderContext(model.LanguagePython))
	require.NoError(t, err)

	var compose composeFile
	require.NoError(t, yaml.Unmarshal([]byte(files["docker-compose.yml"]), &compose))
	svc, ok := compose.Services[DefaultServerName]
	require.True(t, ok)
	assert.True(t, svc.StdinOpen)
	assert.Equal(t, "1", svc.Environment["PYTHONUNBUFFERED"])

	var fly flyConfig
	_, err = toml.Decode(files["fly.toml"], &fly)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerName, fly.App)
	assert.Equal(t, "Dockerfile", fly.Build.Dockerfile)

	assert.True(t, strings.HasPrefix(files["Dockerfile"], "FROM python:3.12-slim"))
}

func TestRuntimeFor(t *testing.T) {
	assert.Equal(t, "node build/index.js", RuntimeFor(model.LanguageTypeScript).CommandLine())
	assert.Equal(t, "python server.py", RuntimeFor(model.LanguagePython).CommandLine())
	assert.Equal(t, "server.go", RuntimeFor("go").SourceFile)
	assert.Equal(t, "server.txt", RuntimeFor("").SourceFile)
	assert.Equal(t, "server.c", RuntimeFor("c++").SourceFile)
}
