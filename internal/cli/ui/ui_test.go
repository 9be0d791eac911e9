package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildmcp/buildmcp/internal/model"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "context and problem",
			opts: ErrorOptions{Context: "package not found", Problem: "No stored package."},
			contains: []string{"❌ PACKAGE NOT FOUND: No stored package.", "   No stored package."},
		},
		{
			name:     "suggestions",
			opts:     ErrorOptions{Problem: "bad language", Suggestions: []string{"python", "typescript"}},
			contains: []string{"Did you mean: python, typescript?"},
		},
		{
			name:     "help commands",
			opts:     ErrorOptions{Problem: "x", HelpCommands: []string{"buildmcp rules"}},
			contains: []string{"→ buildmcp rules"},
		},
		{
			name:     "warning level",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful", Consequence: "it fell back"},
			contains: []string{"⚠️ careful", "   it fell back"},
		},
		{
			name:     "info level",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "note"},
			contains: []string{"ℹ️ note"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Contains(t, RequirementsError("description must not be empty", true), "INVALID REQUIREMENTS")
	assert.Contains(t, LanguageError("pyhton", []string{"python"}, true), "Did you mean: python?")
	assert.Contains(t, PackageNotFoundError("abc", true), "buildmcp packages list")
	assert.Contains(t, ConfigError("bad port", true), "BUILDMCP_")
	assert.Contains(t, FallbackWarning("gateway unavailable", true), "gateway unavailable")
	assert.Equal(t, "✓ done", FormatSuccess("done", true))

	var buf bytes.Buffer
	WriteSuccess(&buf, "saved", true)
	assert.Equal(t, "✓ saved\n", buf.String())
}

func TestSuggest(t *testing.T) {
	candidates := []string{"typescript", "python"}
	assert.Equal(t, []string{"python"}, Suggest("pyhton", candidates, 3))
	assert.Equal(t, []string{"typescript"}, Suggest("TypeScrip", candidates, 3))
	assert.Empty(t, Suggest("haskell", candidates, 3))
	assert.Len(t, Suggest("a", []string{"b", "c", "d"}, 2), 2)
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 0, LevenshteinDistance("same", "same"))
	assert.Equal(t, 4, LevenshteinDistance("", "four"))
	assert.Equal(t, 1, LevenshteinDistance("café", "cafe"))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, true, "ID", "LANGUAGE")
	tbl.AddRow("a1", "python")
	tbl.AddRow("b2-long", "typescript")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "ID       LANGUAGE", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "a1       python", lines[2])
	assert.Equal(t, "b2-long  typescript", lines[3])
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("ID", "abc")
	kv.AddRow("Language", "python")
	kv.Render()
	assert.Equal(t, "ID:       abc\nLanguage: python\n", buf.String())
}

func TestWriteVerdict(t *testing.T) {
	var buf bytes.Buffer
	WriteVerdict(&buf, model.ComplianceVerdict{IsValid: true, CatalogVersion: "2025.1"}, true)
	assert.Contains(t, buf.String(), "Compliant with rule catalog 2025.1")

	buf.Reset()
	WriteVerdict(&buf, model.ComplianceVerdict{
		CatalogVersion: "2025.1",
		Violations: []model.Violation{
			{Rule: "search.case_insensitive", Category: model.CategorySearchSafety, Message: "searches must ignore case"},
		},
	}, true)
	out := buf.String()
	assert.Contains(t, out, "1 rule violation(s)")
	assert.Contains(t, out, "search.case_insensitive")
	assert.Contains(t, out, "searches must ignore case")
}

func TestSpinner(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "composing", true)
	s.interval = time.Millisecond
	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Step("composed", "generating")
	s.UpdateMessage("still generating")
	s.Success("generated")
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "✓ composed")
	assert.Contains(t, out, "✓ generated")
}

func TestSpinner_Error(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "working", true)
	s.Start()
	s.Error("failed")
	assert.Contains(t, buf.String(), "❌ failed")
}
