package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func tsArtifact(src string) model.GeneratedArtifact {
	return model.GeneratedArtifact{SourceText: src, Language: model.LanguageTypeScript}
}

func pyArtifact(src string) model.GeneratedArtifact {
	return model.GeneratedArtifact{SourceText: src, Language: model.LanguagePython}
}

func ruleNames(v model.ComplianceVerdict) []string {
	names := make([]string, len(v.Violations))
	for i, viol := range v.Violations {
		names[i] = viol.Rule
	}
	return names
}

func TestValidator_CompliantFixtures(t *testing.T) {
	v := NewValidator(nil)

	ts := v.Validate(tsArtifact(loadFixture(t, "compliant.ts")))
	assert.True(t, ts.IsValid, "violations: %v", ts.Messages())
	assert.NotNil(t, ts.Violations)
	assert.Empty(t, ts.Violations)
	assert.Equal(t, CatalogVersion, ts.CatalogVersion)

	py := v.Validate(pyArtifact(loadFixture(t, "compliant.py")))
	assert.True(t, py.IsValid, "violations: %v", py.Messages())
}

func TestValidator_CaseSensitiveSearchIsTheOnlyViolation(t *testing.T) {
	src := strings.ReplaceAll(loadFixture(t, "compliant.ts"), ".toLowerCase()", "")

	verdict := NewValidator(nil).Validate(tsArtifact(src))

	require.False(t, verdict.IsValid)
	require.Len(t, verdict.Violations, 1)
	assert.Equal(t, "search.case_insensitive", verdict.Violations[0].Rule)
	assert.Equal(t, model.CategorySearchSafety, verdict.Violations[0].Category)
}

func TestValidator_ApostrophesAndCommentsInCompliantSources(t *testing.T) {
	v := NewValidator(nil)
	apostrophe := func(src string) string {
		return strings.Replace(src, "Search notes by keyword", "Search the user's notes by keyword", 1)
	}

	ts := apostrophe(loadFixture(t, "compliant.ts")) + "\n// Older SDKs used server.setRequestHandler(...)\n"
	verdict := v.Validate(tsArtifact(ts))
	assert.True(t, verdict.IsValid, "violations: %v", verdict.Messages())

	py := apostrophe(loadFixture(t, "compliant.py")) + "\n# @server.call_tool() is the legacy API\n"
	verdict = v.Validate(pyArtifact(py))
	assert.True(t, verdict.IsValid, "violations: %v", verdict.Messages())

	kwarg := strings.Replace(loadFixture(t, "compliant.py"), "@mcp.tool()\ndef notes_search",
		"@mcp.tool(description=\"Search the user's notes by keyword, ignoring case\")\ndef notes_search", 1)
	verdict = v.Validate(pyArtifact(kwarg))
	assert.True(t, verdict.IsValid, "violations: %v", verdict.Messages())
}

func TestValidator_Deterministic(t *testing.T) {
	v := NewValidator(nil)
	a := tsArtifact(`server.tool("Bad", "short", {}, async () => { try {} catch (e) {} })`)

	first := v.Validate(a)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, v.Validate(a))
	}
}

func TestValidator_EmptyArtifactFailsStructuralRules(t *testing.T) {
	verdict := NewValidator(nil).Validate(tsArtifact(""))

	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{"structural.entry_point", "structural.transport"}, ruleNames(verdict))
}

func TestValidator_ReportsAllViolationsInCatalogOrder(t *testing.T) {
	src := `
const server = new Server({ name: "x" });
server.setRequestHandler(ListToolsRequestSchema, handler);
server.tool("SearchNotes", "find", async () => {
  try { doIt(); } catch (err: Error) { throw err; }
});
`
	verdict := NewValidator(nil).Validate(tsArtifact(src))

	assert.Equal(t, []string{
		"structural.transport",
		"structural.no_legacy_handlers",
		"naming.tool_identifiers",
		"docs.description_length",
		"search.case_insensitive",
		"types.permissive_catch",
	}, ruleNames(verdict))
}

func TestValidator_CustomCatalog(t *testing.T) {
	noTodo := Rule{
		Name:     "style.no_todo",
		Category: model.CategoryStructural,
		Check: func(a model.GeneratedArtifact) (string, bool) {
			if strings.Contains(a.SourceText, "TODO") {
				return "remove TODO markers", true
			}
			return "", false
		},
	}
	catalog, err := NewCatalog("2025.1-custom", append(DefaultCatalog().Rules(), noTodo)...)
	require.NoError(t, err)

	src := loadFixture(t, "compliant.ts") + "\n// TODO\n"
	verdict := NewValidator(catalog).Validate(tsArtifact(src))

	require.Len(t, verdict.Violations, 1)
	assert.Equal(t, "style.no_todo", verdict.Violations[0].Rule)
	assert.Equal(t, "2025.1-custom", verdict.CatalogVersion)
}
