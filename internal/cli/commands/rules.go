package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/rules"
)

type ruleView struct {
	Name        string             `json:"name"`
	Category    model.RuleCategory `json:"category"`
	Description string             `json:"description"`
}

func newRulesCommand(a *app) *cobra.Command {
	var (
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rules [name]",
		Short: "List the compliance rule catalog, or show one rule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := rules.DefaultCatalog()
			list := catalog.Rules()
			if len(args) == 1 {
				r, ok := catalog.Lookup(args[0])
				if !ok {
					return unknownRuleError(args[0], list)
				}
				list = []rules.Rule{r}
			} else if category != "" {
				list = catalog.ByCategory(model.RuleCategory(category))
				if len(list) == 0 {
					return fmt.Errorf("no rules in category %q", category)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				views := make([]ruleView, len(list))
				for i, r := range list {
					views[i] = ruleView{Name: r.Name, Category: r.Category, Description: r.Description}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			ui.Header(out, fmt.Sprintf("Rule catalog %s", catalog.Version()), a.noColor)
			t := ui.NewTable(out, a.noColor, "RULE", "CATEGORY", "DESCRIPTION")
			for _, r := range list {
				t.AddRow(r.Name, string(r.Category), r.Description)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list rules in this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the rules as JSON")
	return cmd
}

func unknownRuleError(name string, list []rules.Rule) error {
	names := make([]string, len(list))
	for i, r := range list {
		names[i] = r.Name
	}
	if suggestions := ui.Suggest(name, names, 3); len(suggestions) > 0 {
		return fmt.Errorf("unknown rule %q (did you mean %s?)", name, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("unknown rule %q", name)
}
