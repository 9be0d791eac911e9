package rules

import (
	"fmt"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
)

// MinDescriptionLength is the shortest acceptable tool description.
const MinDescriptionLength = 20

// DescriptionLengthRule requires every tool to be described, and descriptive
// text to be long enough for a client model to pick the right tool.
var DescriptionLengthRule = Rule{
	Name:        "docs.description_length",
	Category:    model.CategoryDocumentation,
	Description: fmt.Sprintf("Tool descriptions are at least %d characters long.", MinDescriptionLength),
	Check: func(a model.GeneratedArtifact) (string, bool) {
		var short []string
		check := func(desc string) {
			if len(strings.TrimSpace(desc)) < MinDescriptionLength {
				short = append(short, fmt.Sprintf("%q", truncate(desc, 30)))
			}
		}

		src := code(a)
		if a.Language != model.LanguagePython {
			for _, t := range typeScriptTools(src) {
				switch {
				case !t.HasDoc:
					short = append(short, fmt.Sprintf("%s (no description)", t.Name))
				case t.Inline:
					check(t.Description)
				}
			}
			for _, m := range descriptionField.FindAllStringSubmatch(src, -1) {
				check(literal(m, 1))
			}
		}
		if a.Language != model.LanguageTypeScript {
			for _, t := range pythonTools(src) {
				if !t.HasDoc {
					short = append(short, fmt.Sprintf("%s (no docstring)", t.Name))
					continue
				}
				check(t.Description)
			}
		}

		if len(short) == 0 {
			return "", false
		}
		return fmt.Sprintf("descriptions shorter than %d characters: %s", MinDescriptionLength, strings.Join(short, ", ")), true
	},
}
