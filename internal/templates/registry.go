package templates

import (
	"fmt"
	"sort"
	"sync"

	"github.com/buildmcp/buildmcp/internal/model"
)

type registryKey struct {
	target   model.TargetKind
	language model.Language
}

// Registry manages bundle templates keyed by (target kind, language). A
// template registered without a language is the target's default.
type Registry struct {
	templates map[registryKey]*Template
	mutex     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[registryKey]*Template),
	}
}

// Register adds a template to the registry.
func (r *Registry) Register(tmpl *Template) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := registryKey{tmpl.Target, tmpl.Language}
	if existing, exists := r.templates[key]; exists {
		return fmt.Errorf("template %s already registered for %s/%s as %s", tmpl.Name, tmpl.Target, tmpl.Language, existing.Name)
	}

	r.templates[key] = tmpl
	return nil
}

// Lookup returns the template for (target, lang), falling back to the
// target's default template for languages without a dedicated one.
func (r *Registry) Lookup(target model.TargetKind, lang model.Language) (*Template, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if tmpl, ok := r.templates[registryKey{target, lang}]; ok {
		return tmpl, nil
	}
	if tmpl, ok := r.templates[registryKey{target, ""}]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("no template registered for target %s", target)
}

// List returns all registered templates ordered by name.
func (r *Registry) List() []*Template {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	templates := make([]*Template, 0, len(r.templates))
	for _, tmpl := range r.templates {
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates
}

// NewBuiltinRegistry returns a registry holding every built-in template.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	builtins := []*Template{
		NewTypeScriptLocalTemplate(),
		NewPythonLocalTemplate(),
		NewDefaultLocalTemplate(),
		NewTypeScriptCloudTemplate(),
		NewPythonCloudTemplate(),
		NewDefaultCloudTemplate(),
	}
	for _, tmpl := range builtins {
		if err := r.Register(tmpl); err != nil {
			return nil, fmt.Errorf("failed to register template %s: %w", tmpl.Name, err)
		}
	}
	return r, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryErr  error
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide built-in registry.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = NewBuiltinRegistry()
	})
	return defaultRegistry, defaultRegistryErr
}
