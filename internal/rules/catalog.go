// Package rules implements the compliance rule catalog and the validator
// that runs it over generated artifacts.
//
// Every rule is a named predicate over the artifact text. Rules are
// registered in a Catalog, which fixes their evaluation and reporting order;
// the Validator always evaluates every rule so a single verdict carries the
// complete list of violations.
package rules

import (
	"fmt"

	"github.com/buildmcp/buildmcp/internal/model"
)

// CatalogVersion identifies the default rule set. Verdicts are only
// comparable between artifacts validated against the same version.
const CatalogVersion = "2025.1"

// CheckFunc inspects an artifact. It returns a violation message and true
// when the artifact fails the rule.
type CheckFunc func(a model.GeneratedArtifact) (string, bool)

// Rule is one named compliance predicate.
type Rule struct {
	Name        string
	Category    model.RuleCategory
	Description string
	// Applies restricts the rule to some artifacts; nil means always.
	Applies func(a model.GeneratedArtifact) bool
	Check   CheckFunc
}

// Evaluate runs the rule, returning the violation if it fails.
func (r Rule) Evaluate(a model.GeneratedArtifact) (model.Violation, bool) {
	if r.Applies != nil && !r.Applies(a) {
		return model.Violation{}, false
	}
	msg, failed := r.Check(a)
	if !failed {
		return model.Violation{}, false
	}
	return model.Violation{Rule: r.Name, Category: r.Category, Message: msg}, true
}

// Catalog is an ordered, immutable set of rules.
type Catalog struct {
	version string
	rules   []Rule
}

// NewCatalog builds a catalog. Rule names must be unique and every rule
// needs a check function.
func NewCatalog(version string, rules ...Rule) (*Catalog, error) {
	if version == "" {
		return nil, fmt.Errorf("catalog version is required")
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule name is required")
		}
		if r.Check == nil {
			return nil, fmt.Errorf("rule %s has no check function", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name: %s", r.Name)
		}
		seen[r.Name] = true
	}
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Catalog{version: version, rules: owned}, nil
}

// MustCatalog is NewCatalog for package-level catalogs.
func MustCatalog(version string, rules ...Rule) *Catalog {
	c, err := NewCatalog(version, rules...)
	if err != nil {
		panic(err)
	}
	return c
}

// Version returns the catalog version.
func (c *Catalog) Version() string { return c.version }

// Rules returns a copy of the rules in evaluation order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Lookup finds a rule by name.
func (c *Catalog) Lookup(name string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// ByCategory returns the rules in one category, in catalog order.
func (c *Catalog) ByCategory(cat model.RuleCategory) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

var defaultCatalog = MustCatalog(CatalogVersion,
	EntryPointRule,
	TransportRule,
	NoLegacyHandlersRule,
	ToolNamingRule,
	DescriptionLengthRule,
	CaseInsensitiveSearchRule,
	EscapeHatchRule,
	PermissiveCatchRule,
	UnionNarrowingRule,
	PathCoercionRule,
)

// DefaultCatalog returns the process-wide rule catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
