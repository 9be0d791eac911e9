package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func noop(model.GeneratedArtifact) (string, bool) { return "", false }

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		version string
		rules   []Rule
		wantErr string
	}{
		{name: "missing version", rules: nil, wantErr: "version is required"},
		{name: "missing name", version: "v", rules: []Rule{{Check: noop}}, wantErr: "rule name is required"},
		{name: "missing check", version: "v", rules: []Rule{{Name: "a"}}, wantErr: "no check function"},
		{name: "duplicate", version: "v", rules: []Rule{{Name: "a", Check: noop}, {Name: "a", Check: noop}}, wantErr: "duplicate rule name: a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.version, tt.rules...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, CatalogVersion, c.Version())
	assert.Len(t, c.Rules(), 10)

	r, ok := c.Lookup("search.case_insensitive")
	require.True(t, ok)
	assert.Equal(t, model.CategorySearchSafety, r.Category)

	_, ok = c.Lookup("does.not_exist")
	assert.False(t, ok)

	assert.Len(t, c.ByCategory(model.CategoryStructural), 3)
	assert.Len(t, c.ByCategory(model.CategoryTypeSafety), 4)
}

func TestCatalog_RulesReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	rules := c.Rules()
	rules[0].Name = "mutated"

	assert.Equal(t, "structural.entry_point", c.Rules()[0].Name)
}

func TestCatalog_ExtendingRejectsDuplicate(t *testing.T) {
	extended := append(DefaultCatalog().Rules(), Rule{Name: "structural.entry_point", Check: noop})
	_, err := NewCatalog("v2", extended...)
	assert.Error(t, err)
}
