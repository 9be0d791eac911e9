package model

import "time"

// TargetKind identifies a deployment bundle.
type TargetKind string

const (
	TargetLocal TargetKind = "local"
	TargetCloud TargetKind = "cloud"
)

// DeploymentBundle is the file set for one deployment target, keyed by
// relative path.
type DeploymentBundle struct {
	TargetKind TargetKind        `json:"target_kind"`
	Files      map[string]string `json:"files"`
}

// ServerPackage is the terminal output of a pipeline run.
type ServerPackage struct {
	ID            string                          `json:"id"`
	Requirements  ServerRequirements              `json:"requirements"`
	Artifact      GeneratedArtifact               `json:"artifact"`
	Verdict       ComplianceVerdict               `json:"verdict"`
	Refined       bool                            `json:"refined"`
	UsedFallback  bool                            `json:"used_fallback"`
	ClientConfigs []ClientConfig                  `json:"client_configs"`
	Bundles       map[TargetKind]DeploymentBundle `json:"bundles"`
	Documentation string                          `json:"documentation"`
	GeneratedAt   time.Time                       `json:"generated_at"`
}

// ClientConfigByName looks up a client configuration by its client name.
func (p *ServerPackage) ClientConfigByName(name string) (ClientConfig, bool) {
	for _, c := range p.ClientConfigs {
		if c.ClientName == name {
			return c, true
		}
	}
	return ClientConfig{}, false
}

// ClientNames returns the client configuration keys in order.
func (p *ServerPackage) ClientNames() []string {
	names := make([]string, len(p.ClientConfigs))
	for i, c := range p.ClientConfigs {
		names[i] = c.ClientName
	}
	return names
}
