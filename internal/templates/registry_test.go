package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func TestBuiltinRegistry_Lookup(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	tests := []struct {
		target model.TargetKind
		lang   model.Language
		want   string
	}{
		{model.TargetLocal, model.LanguageTypeScript, "typescript-local"},
		{model.TargetLocal, model.LanguagePython, "python-local"},
		{model.TargetLocal, "rust", "default-local"},
		{model.TargetCloud, model.LanguageTypeScript, "typescript-cloud"},
		{model.TargetCloud, model.LanguagePython, "python-cloud"},
		{model.TargetCloud, "", "default-cloud"},
	}
	for _, tt := range tests {
		tmpl, err := r.Lookup(tt.target, tt.lang)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tmpl.Name)
	}

	assert.Len(t, r.List(), 6)
	assert.Equal(t, "default-cloud", r.List()[0].Name)
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewPythonLocalTemplate()))

	assert.Error(t, r.Register(NewPythonLocalTemplate()))
	assert.Error(t, r.Register(&Template{Name: "empty", Target: model.TargetLocal}))

	_, err := r.Lookup(model.TargetCloud, model.LanguagePython)
	assert.Error(t, err)
}

func TestBuiltinTemplatesAreValid(t *testing.T) {
	r, err := NewBuiltinRegistry()
	require.NoError(t, err)
	for _, tmpl := range r.List() {
		assert.NoError(t, tmpl.Validate(), tmpl.Name)
	}
}
