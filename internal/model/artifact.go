package model

// GeneratedArtifact is one version of the generated server source. Each
// completion call produces a new value; artifacts are never edited in place.
type GeneratedArtifact struct {
	SourceText string   `json:"source_text"`
	Language   Language `json:"language"`
	// Fallback marks the built-in template substituted after a gateway failure.
	Fallback bool `json:"fallback,omitempty"`
}

// RuleCategory groups compliance rules.
type RuleCategory string

const (
	CategoryStructural    RuleCategory = "structural"
	CategoryNaming        RuleCategory = "naming"
	CategoryDocumentation RuleCategory = "documentation"
	CategorySearchSafety  RuleCategory = "search-safety"
	CategoryTypeSafety    RuleCategory = "type-safety"
)

// Violation is one failed compliance rule.
type Violation struct {
	Rule     string       `json:"rule"`
	Category RuleCategory `json:"category"`
	Message  string       `json:"message"`
}

func (v Violation) String() string {
	return "[" + v.Rule + "] " + v.Message
}

// ComplianceVerdict is the outcome of running the rule catalog over an
// artifact. IsValid is true exactly when Violations is empty.
type ComplianceVerdict struct {
	IsValid        bool        `json:"is_valid"`
	Violations     []Violation `json:"violations"`
	CatalogVersion string      `json:"catalog_version"`
}

// Messages returns the human-readable violation descriptions in order.
func (v ComplianceVerdict) Messages() []string {
	msgs := make([]string, len(v.Violations))
	for i, viol := range v.Violations {
		msgs[i] = viol.String()
	}
	return msgs
}
