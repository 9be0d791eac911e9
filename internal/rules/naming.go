package rules

import (
	"regexp"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

// toolIdentifier is the category_action pattern, e.g. notes_search.
var toolIdentifier = regexp.MustCompile(`^[a-z][a-z0-9]*_[a-z0-9_]*[a-z0-9]$`)

// ValidToolName reports whether name follows the category_action pattern.
func ValidToolName(name string) bool {
	return toolIdentifier.MatchString(name)
}

// ToolNamingRule requires every registered tool to use a category_action name.
var ToolNamingRule = Rule{
	Name:        "naming.tool_identifiers",
	Category:    model.CategoryNaming,
	Description: "Tool identifiers follow the category_action pattern.",
	Check: func(a model.GeneratedArtifact) (string, bool) {
		var bad []string
		for _, name := range toolNames(a) {
			if !ValidToolName(name) {
				bad = append(bad, name)
			}
		}
		if len(bad) == 0 {
			return "", false
		}
		return "tool names must follow the category_action pattern (e.g. notes_search): " + strings.Join(bad, ", "), true
	},
}
