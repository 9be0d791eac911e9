package rules

import "github.com/buildmcp/buildmcp/internal/model"

// Validator runs a catalog over artifacts. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	catalog *Catalog
}

// NewValidator creates a validator for the given catalog, or the default
// catalog when nil.
func NewValidator(catalog *Catalog) *Validator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Validator{catalog: catalog}
}

// Catalog returns the catalog the validator runs.
func (v *Validator) Catalog() *Catalog {
	return v.catalog
}

// Validate evaluates every rule and collects all violations in catalog
// order. It never fails: an artifact that satisfies nothing still gets a
// verdict.
func (v *Validator) Validate(a model.GeneratedArtifact) model.ComplianceVerdict {
	violations := []model.Violation{}
	for _, r := range v.catalog.rules {
		if viol, failed := r.Evaluate(a); failed {
			violations = append(violations, viol)
		}
	}
	return model.ComplianceVerdict{
		IsValid:        len(violations) == 0,
		Violations:     violations,
		CatalogVersion: v.catalog.version,
	}
}
