package rules

import (
	"regexp"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

var (
	complexTypeMarkers = []string{"z.object(", "z.record(", "interface ", "Record<"}
	escapeHatches      = []string{"as any", ": any", "unknown"}

	catchClause = regexp.MustCompile(`(?:^|[^.\w])catch\s*\(\s*(\w+)\s*(?::\s*(\w+))?\s*\)`)

	unionAnnotation = regexp.MustCompile(`:\s*[A-Za-z_][\w<>\[\]]*\s*\|\s*[A-Za-z_"']`)
	narrowingIdioms = []string{"typeof ", "instanceof ", "Array.isArray("}

	pathCall = regexp.MustCompile(`\bpath\.(?:join|resolve)\(`)
)

func staticallyTyped(a model.GeneratedArtifact) bool {
	return a.Language.Kind() == model.KindStaticallyTyped
}

// EscapeHatchRule pairs complex type constructs with an explicit dynamic
// typing escape hatch so generated code compiles against loosely typed SDK
// signatures.
var EscapeHatchRule = Rule{
	Name:        "types.escape_hatch",
	Category:    model.CategoryTypeSafety,
	Description: "Complex type constructs are paired with an explicit any/unknown escape hatch.",
	Applies:     staticallyTyped,
	Check: func(a model.GeneratedArtifact) (string, bool) {
		src := code(a)
		if !containsAny(src, complexTypeMarkers...) || containsAny(src, escapeHatches...) {
			return "", false
		}
		return "complex types (z.object/interface/Record) used without an escape hatch: annotate loosely typed values with `as any` or `unknown`", true
	},
}

// PermissiveCatchRule requires catch clauses to type the error permissively.
var PermissiveCatchRule = Rule{
	Name:        "types.permissive_catch",
	Category:    model.CategoryTypeSafety,
	Description: "Caught errors are typed as any or unknown.",
	Applies:     staticallyTyped,
	Check: func(a model.GeneratedArtifact) (string, bool) {
		var bad []string
		for _, m := range catchClause.FindAllStringSubmatch(code(a), -1) {
			if m[2] != "any" && m[2] != "unknown" {
				bad = append(bad, m[1])
			}
		}
		if len(bad) == 0 {
			return "", false
		}
		return "catch clauses must type the error as `unknown` or `any`: catch (" + strings.Join(bad, "), catch (") + ")", true
	},
}

// UnionNarrowingRule requires union-typed parameters to be narrowed at
// runtime before use.
var UnionNarrowingRule = Rule{
	Name:        "types.union_narrowing",
	Category:    model.CategoryTypeSafety,
	Description: "Union-typed parameters are narrowed with typeof/instanceof checks.",
	Applies:     staticallyTyped,
	Check: func(a model.GeneratedArtifact) (string, bool) {
		src := code(a)
		if !strings.Contains(src, "z.union(") && !unionAnnotation.MatchString(src) {
			return "", false
		}
		if containsAny(src, narrowingIdioms...) {
			return "", false
		}
		return "union-typed values are used without runtime narrowing: add typeof/instanceof checks", true
	},
}

// PathCoercionRule requires path construction arguments to be coerced to
// strings explicitly.
var PathCoercionRule = Rule{
	Name:        "types.path_coercion",
	Category:    model.CategoryTypeSafety,
	Description: "Arguments to path.join/path.resolve are wrapped in String(...).",
	Applies:     staticallyTyped,
	Check: func(a model.GeneratedArtifact) (string, bool) {
		src := code(a)
		var bad []string
		for _, loc := range pathCall.FindAllStringIndex(src, -1) {
			open := loc[1] - 1
			closeIdx := closingParen(src, open)
			if closeIdx < 0 {
				continue
			}
			for _, arg := range splitArgs(src[open+1 : closeIdx]) {
				if isStringLiteral(arg) || (strings.HasPrefix(arg, "String(") && strings.HasSuffix(arg, ")")) {
					continue
				}
				bad = append(bad, arg)
			}
		}
		if len(bad) == 0 {
			return "", false
		}
		return "path construction arguments must be wrapped in String(...): " + strings.Join(bad, ", "), true
	},
}
