package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func sampleRequirements() model.ServerRequirements {
	return model.ServerRequirements{
		Description:          "Search and tag my markdown notes",
		TargetClients:        []string{"Claude Desktop", "Cursor", "Zed", "Claude Desktop"},
		AuthRequirements:     "API key in NOTES_TOKEN",
		DeploymentPreference: model.DeployBoth,
	}
}

func TestCompose_SectionOrder(t *testing.T) {
	out := NewComposer().Compose(sampleRequirements(), ReferenceDocs{Schema: "SCHEMA", SDK: "SDK"})

	order := []string{
		"## Requirements",
		"## Client: Claude Desktop",
		"## Client: Cursor",
		"## Client: Zed",
		"## Protocol Reference",
		"SCHEMA",
		"SDK",
		"## Output Instructions",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
	assert.Equal(t, 1, strings.Count(out, "## Client: Claude Desktop"), "duplicate clients get one block")
}

func TestCompose_RestatesRequirements(t *testing.T) {
	req := sampleRequirements()
	out := NewComposer().Compose(req, ReferenceDocs{})

	assert.Contains(t, out, req.Description)
	assert.Contains(t, out, req.AuthRequirements)
	assert.Contains(t, out, "Deployment preference: both")
	assert.Contains(t, out, "Language preference: (none)")
	assert.Contains(t, out, "Implementation language: typescript")
}

func TestCompose_ClientFamilies(t *testing.T) {
	req := sampleRequirements()
	req.TargetClients = []string{"my CURSOR setup", "claude-code", "Windsurf"}
	out := NewComposer().Compose(req, ReferenceDocs{})

	assert.Contains(t, out, clientInstructions[model.FamilyCursor])
	assert.Contains(t, out, clientInstructions[model.FamilyClaude])
	assert.Contains(t, out, clientInstructions[model.FamilyGeneric])
}

func TestCompose_MissingDocsUsePlaceholder(t *testing.T) {
	out := NewComposer().Compose(sampleRequirements(), ReferenceDocs{})

	assert.Contains(t, out, Placeholder(DocSchema))
	assert.Contains(t, out, Placeholder(DocTypeScriptSDK))
}

func TestCompose_TruncatesReferenceDocs(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := NewComposer(WithMaxReferenceChars(100)).Compose(sampleRequirements(), ReferenceDocs{Schema: long, SDK: "short"})

	assert.NotContains(t, out, strings.Repeat("x", 101))
	assert.Contains(t, out, strings.Repeat("x", 100)+truncationMarker)
	assert.Contains(t, out, "short")
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer()
	docs := ReferenceDocs{Schema: "a", SDK: "b"}
	assert.Equal(t, c.Compose(sampleRequirements(), docs), c.Compose(sampleRequirements(), docs))
}

func TestCompose_LanguageSpecificInstructions(t *testing.T) {
	req := sampleRequirements()
	req.LanguagePreference = "python"
	out := NewComposer().Compose(req, ReferenceDocs{})

	assert.Contains(t, out, `tagged "python"`)
	assert.NotContains(t, out, "wrap path arguments in String(...)")

	py := NewComposer(WithDefaultLanguage(model.LanguagePython))
	assert.Equal(t, model.LanguagePython, py.DefaultLanguage())
	assert.Contains(t, py.Compose(sampleRequirements(), ReferenceDocs{}), "Implementation language: python")
}

func TestTruncateRunes_MultiByte(t *testing.T) {
	s := strings.Repeat("é", 10)
	assert.Equal(t, s, truncateRunes(s, 10))
	assert.Equal(t, strings.Repeat("é", 4)+truncationMarker, truncateRunes(s, 4))
}
