// Package model holds the data types that flow through the generation
// pipeline, together with the small closed enumerations (client family,
// language, deployment target) that are resolved once at the boundary and
// passed around as typed values afterwards.
package model

import (
	"fmt"
	"strings"
)

// DeploymentPreference selects which bundles a pipeline run produces.
type DeploymentPreference string

const (
	DeployLocal DeploymentPreference = "local"
	DeployCloud DeploymentPreference = "cloud"
	DeployBoth  DeploymentPreference = "both"
)

// ParseDeploymentPreference parses a preference case-insensitively.
func ParseDeploymentPreference(s string) (DeploymentPreference, error) {
	switch DeploymentPreference(strings.ToLower(strings.TrimSpace(s))) {
	case DeployLocal:
		return DeployLocal, nil
	case DeployCloud:
		return DeployCloud, nil
	case DeployBoth:
		return DeployBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown deployment preference %q (want local, cloud or both)", ErrInvalidRequirements, s)
	}
}

// TargetKinds expands the preference into the bundle kinds it implies.
func (d DeploymentPreference) TargetKinds() []TargetKind {
	switch d {
	case DeployLocal:
		return []TargetKind{TargetLocal}
	case DeployCloud:
		return []TargetKind{TargetCloud}
	case DeployBoth:
		return []TargetKind{TargetLocal, TargetCloud}
	default:
		return nil
	}
}

// ServerRequirements is the caller's description of the server to build.
// It is treated as immutable once constructed.
type ServerRequirements struct {
	Description          string               `json:"description" yaml:"description"`
	TargetClients        []string             `json:"target_clients" yaml:"target_clients"`
	AuthRequirements     string               `json:"auth_requirements" yaml:"auth_requirements"`
	DeploymentPreference DeploymentPreference `json:"deployment_preference" yaml:"deployment_preference"`
	LanguagePreference   string               `json:"language_preference,omitempty" yaml:"language_preference,omitempty"`
}

// Validate rejects requirements that cannot produce a package. It runs
// before any completion call so malformed input never costs a remote call.
func (r ServerRequirements) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidRequirements)
	}
	if len(r.Clients()) == 0 {
		return fmt.Errorf("%w: at least one target client is required", ErrInvalidRequirements)
	}
	if _, err := ParseDeploymentPreference(string(r.DeploymentPreference)); err != nil {
		return err
	}
	return nil
}

// Clients returns the trimmed, de-duplicated target clients in their
// original order. The first occurrence of a name wins.
func (r ServerRequirements) Clients() []string {
	seen := make(map[string]bool, len(r.TargetClients))
	clients := make([]string, 0, len(r.TargetClients))
	for _, c := range r.TargetClients {
		name := strings.TrimSpace(c)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		clients = append(clients, name)
	}
	return clients
}

// Deployment returns the parsed preference; callers must Validate first.
func (r ServerRequirements) Deployment() DeploymentPreference {
	d, _ := ParseDeploymentPreference(string(r.DeploymentPreference))
	return d
}

// ResolveLanguage maps the optional preference onto a supported language,
// falling back to def when it is absent or unrecognised.
func (r ServerRequirements) ResolveLanguage(def Language) Language {
	if lang, ok := ParseLanguage(r.LanguagePreference); ok {
		return lang
	}
	return def
}
