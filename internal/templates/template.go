// Package templates holds the built-in server artifacts and the deployment
// file-set templates the packager renders them into.
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/buildmcp/buildmcp/internal/model"
)

// FileRole classifies a template file within its bundle.
type FileRole string

const (
	RoleSource    FileRole = "source"
	RoleManifest  FileRole = "manifest"
	RoleSetup     FileRole = "setup"
	RoleRun       FileRole = "run"
	RoleContainer FileRole = "container"
	RoleDeploy    FileRole = "deploy"
	RoleDocs      FileRole = "docs"
)

// Template is the file set for one (target kind, language) pair.
type Template struct {
	Name        string
	Description string
	Target      model.TargetKind
	// Language is empty for the per-target default template.
	Language model.Language
	Files    []*TemplateFile
}

// TemplateFile is one file of a template. Exactly one of Source, Generate
// and Content supplies the body.
type TemplateFile struct {
	// TargetPath is a text/template rendered against the Context.
	TargetPath string
	Role       FileRole
	// Source writes the artifact text verbatim.
	Source bool
	// Generate builds structured files such as YAML or TOML documents.
	Generate func(ctx *Context) (string, error)
	// Content is a text/template rendered against the Context.
	Content string
}

// Context is the data templates render against.
type Context struct {
	ServerName string
	Language   model.Language
	SourceText string
	Runtime    Runtime
}

// Engine renders templates into file maps.
type Engine struct {
	funcs template.FuncMap
}

// NewEngine creates a template engine.
func NewEngine() *Engine {
	return &Engine{
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": func(s string) string {
				words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
				for i, word := range words {
					words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
				}
				return strings.Join(words, " ")
			},
			"json": func(v any) (string, error) {
				data, err := json.Marshal(v)
				return string(data), err
			},
			"join": strings.Join,
		},
	}
}

// Render produces the relative path → content map for tmpl. Rendering is
// deterministic: the same template and context always yield the same map.
func (e *Engine) Render(tmpl *Template, ctx *Context) (map[string]string, error) {
	files := make(map[string]string, len(tmpl.Files))
	for _, file := range tmpl.Files {
		target, err := e.renderString(file.TargetPath, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render target path %s: %w", file.TargetPath, err)
		}
		target, err = CleanRelativePath(target)
		if err != nil {
			return nil, fmt.Errorf("invalid target path %s: %w", file.TargetPath, err)
		}
		if _, dup := files[target]; dup {
			return nil, fmt.Errorf("template %s renders %s twice", tmpl.Name, target)
		}

		var content string
		switch {
		case file.Source:
			content = ctx.SourceText
		case file.Generate != nil:
			content, err = file.Generate(ctx)
		default:
			content, err = e.renderString(file.Content, ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", target, err)
		}
		files[target] = content
	}
	return files, nil
}

// renderString renders a template string with the given context
func (e *Engine) renderString(tmplStr string, ctx *Context) (string, error) {
	tmpl, err := template.New("").Funcs(e.funcs).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// CleanRelativePath normalises a bundle path, rejecting absolute paths and
// paths that escape the bundle root.
func CleanRelativePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%q is not a relative path", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q escapes the bundle directory", p)
	}
	return clean, nil
}

// Validate checks a template's structure: a name, a target, one source file,
// a manifest and a run script.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Target != model.TargetLocal && t.Target != model.TargetCloud {
		return fmt.Errorf("template %s: unknown target kind %q", t.Name, t.Target)
	}
	if len(t.Files) == 0 {
		return fmt.Errorf("template %s must have at least one file", t.Name)
	}

	roles := make(map[FileRole]int)
	for _, f := range t.Files {
		if f.TargetPath == "" {
			return fmt.Errorf("template %s: file target path is required", t.Name)
		}
		if !f.Source && f.Generate == nil && f.Content == "" {
			return fmt.Errorf("template %s: file content is required for %s", t.Name, f.TargetPath)
		}
		roles[f.Role]++
	}

	if roles[RoleSource] != 1 {
		return fmt.Errorf("template %s must have exactly one source file", t.Name)
	}
	for _, required := range []FileRole{RoleManifest, RoleRun} {
		if roles[required] == 0 {
			return fmt.Errorf("template %s has no %s file", t.Name, required)
		}
	}
	if t.Target == model.TargetLocal && roles[RoleSetup] == 0 {
		return fmt.Errorf("template %s has no setup script", t.Name)
	}
	if t.Target == model.TargetCloud && roles[RoleContainer] < 2 {
		return fmt.Errorf("template %s needs a container descriptor pair", t.Name)
	}
	return nil
}
