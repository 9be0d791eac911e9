package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequirements() ServerRequirements {
	return ServerRequirements{
		Description:          "A server that searches my notes",
		TargetClients:        []string{"Claude Desktop", "Cursor AI"},
		AuthRequirements:     "none",
		DeploymentPreference: DeployBoth,
	}
}

func TestServerRequirements_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ServerRequirements)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *ServerRequirements) {}},
		{name: "blank description", mutate: func(r *ServerRequirements) { r.Description = "  " }, wantErr: true},
		{name: "no clients", mutate: func(r *ServerRequirements) { r.TargetClients = nil }, wantErr: true},
		{name: "only blank clients", mutate: func(r *ServerRequirements) { r.TargetClients = []string{" ", ""} }, wantErr: true},
		{name: "unknown deployment", mutate: func(r *ServerRequirements) { r.DeploymentPreference = "mars" }, wantErr: true},
		{name: "deployment is case-insensitive", mutate: func(r *ServerRequirements) { r.DeploymentPreference = "Cloud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequirements()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequirements)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestServerRequirements_ClientsDeduplicates(t *testing.T) {
	r := ServerRequirements{TargetClients: []string{"Cursor", " Claude Desktop ", "Cursor", "Claude Desktop", ""}}
	assert.Equal(t, []string{"Cursor", "Claude Desktop"}, r.Clients())
}

func TestServerRequirements_ResolveLanguage(t *testing.T) {
	tests := []struct {
		pref string
		want Language
	}{
		{"", LanguageTypeScript},
		{"TypeScript", LanguageTypeScript},
		{"ts", LanguageTypeScript},
		{"javascript-ts", LanguageTypeScript},
		{"Python", LanguagePython},
		{"py", LanguagePython},
		{"cobol", LanguageTypeScript},
	}
	for _, tt := range tests {
		r := ServerRequirements{LanguagePreference: tt.pref}
		assert.Equal(t, tt.want, r.ResolveLanguage(LanguageTypeScript), "preference %q", tt.pref)
	}

	r := ServerRequirements{}
	assert.Equal(t, LanguagePython, r.ResolveLanguage(LanguagePython))
}

func TestDeploymentPreference_TargetKinds(t *testing.T) {
	assert.Equal(t, []TargetKind{TargetLocal}, DeployLocal.TargetKinds())
	assert.Equal(t, []TargetKind{TargetCloud}, DeployCloud.TargetKinds())
	assert.Equal(t, []TargetKind{TargetLocal, TargetCloud}, DeployBoth.TargetKinds())
	assert.Nil(t, DeploymentPreference("x").TargetKinds())
}

func TestResolveClientFamily(t *testing.T) {
	tests := map[string]ClientFamily{
		"Claude Desktop":    FamilyClaude,
		"claude-code":       FamilyClaude,
		"Cursor AI":         FamilyCursor,
		"CURSOR":            FamilyCursor,
		"Windsurf":          FamilyGeneric,
		"Claude via Cursor": FamilyClaude,
	}
	for name, want := range tests {
		assert.Equal(t, want, ResolveClientFamily(name), name)
	}
}

func TestLanguage_Kind(t *testing.T) {
	assert.Equal(t, KindStaticallyTyped, LanguageTypeScript.Kind())
	assert.Equal(t, KindDynamicallyTyped, LanguagePython.Kind())
	assert.Equal(t, KindUnknown, Language("rust").Kind())
	assert.False(t, Language("rust").Known())
	assert.Equal(t, "unknown", Language("").String())
}
