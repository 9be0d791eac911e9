// Package packager turns a generated artifact into deployment bundles,
// per-client launch configuration and setup documentation.
package packager

import (
	"fmt"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/templates"
)

// DefaultInstallDir is the placeholder location used in client configs.
const DefaultInstallDir = "/path/to/" + templates.DefaultServerName

// Packager renders bundles from a template registry. It is read-only after
// construction and safe for concurrent use.
type Packager struct {
	registry   *templates.Registry
	engine     *templates.Engine
	serverName string
	installDir string
}

// Option configures a Packager.
type Option func(*Packager)

// WithServerName sets the server name used in manifests and client configs.
func WithServerName(name string) Option {
	return func(p *Packager) {
		if name != "" {
			p.serverName = name
		}
	}
}

// WithInstallDir sets the directory client configs launch the server from.
func WithInstallDir(dir string) Option {
	return func(p *Packager) {
		if dir != "" {
			p.installDir = dir
		}
	}
}

// New creates a packager over registry.
func New(registry *templates.Registry, opts ...Option) *Packager {
	p := &Packager{
		registry:   registry,
		engine:     templates.NewEngine(),
		serverName: templates.DefaultServerName,
		installDir: DefaultInstallDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDefault creates a packager over the built-in templates.
func NewDefault(opts ...Option) (*Packager, error) {
	registry, err := templates.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return New(registry, opts...), nil
}

// PackageFor renders one bundle per requested kind. The same artifact
// always yields identical file maps.
func (p *Packager) PackageFor(a model.GeneratedArtifact, kinds []model.TargetKind) (map[model.TargetKind]model.DeploymentBundle, error) {
	ctx := &templates.Context{
		ServerName: p.serverName,
		Language:   a.Language,
		SourceText: a.SourceText,
		Runtime:    templates.RuntimeFor(a.Language),
	}

	bundles := make(map[model.TargetKind]model.DeploymentBundle, len(kinds))
	for _, kind := range kinds {
		tmpl, err := p.registry.Lookup(kind, a.Language)
		if err != nil {
			return nil, err
		}
		files, err := p.engine.Render(tmpl, ctx)
		if err != nil {
			return nil, fmt.Errorf("render %s bundle: %w", kind, err)
		}
		bundles[kind] = model.DeploymentBundle{TargetKind: kind, Files: files}
	}
	return bundles, nil
}
