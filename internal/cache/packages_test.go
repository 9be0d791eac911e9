package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func baseRequirements() model.ServerRequirements {
	return model.ServerRequirements{
		Description:          "A notes server",
		TargetClients:        []string{"Claude Desktop", "Cursor"},
		AuthRequirements:     "none",
		DeploymentPreference: model.DeployLocal,
	}
}

func TestFingerprint_Canonical(t *testing.T) {
	a := baseRequirements()

	b := baseRequirements()
	b.Description = "  A notes server\n"
	b.TargetClients = []string{"Claude Desktop", " Cursor", "Claude Desktop"}
	b.DeploymentPreference = "LOCAL"
	b.LanguagePreference = "ts"

	assert.Equal(t,
		Fingerprint(a, model.LanguageTypeScript),
		Fingerprint(b, model.LanguageTypeScript))
	assert.Len(t, Fingerprint(a, model.LanguageTypeScript), 64)
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := Fingerprint(baseRequirements(), model.LanguageTypeScript)

	python := baseRequirements()
	python.LanguagePreference = "python"
	assert.NotEqual(t, base, Fingerprint(python, model.LanguageTypeScript))

	assert.NotEqual(t, base, Fingerprint(baseRequirements(), model.LanguagePython))

	reordered := baseRequirements()
	reordered.TargetClients = []string{"Cursor", "Claude Desktop"}
	assert.NotEqual(t, base, Fingerprint(reordered, model.LanguageTypeScript))
}

func TestPackageCache_RoundTrip(t *testing.T) {
	pc := NewPackageCache(NewMemoryCache(DefaultConfig()), 0)
	ctx := context.Background()
	fp := Fingerprint(baseRequirements(), model.LanguageTypeScript)

	_, err := pc.Get(ctx, fp)
	assert.True(t, IsCacheMiss(err))

	pkg := &model.ServerPackage{ID: "p1", Documentation: "# Client Setup"}
	require.NoError(t, pc.Put(ctx, fp, pkg))

	got, err := pc.Get(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "# Client Setup", got.Documentation)
}

func TestPackageCache_CorruptEntry(t *testing.T) {
	mem := NewMemoryCache(DefaultConfig())
	require.NoError(t, mem.Set(context.Background(), "fp", []byte("{not json"), 0))

	_, err := NewPackageCache(mem, 0).Get(context.Background(), "fp")
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}
