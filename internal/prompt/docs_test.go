package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

func TestEmbeddedSource(t *testing.T) {
	src := EmbeddedSource{}
	for _, name := range []string{DocSchema, DocTypeScriptSDK, DocPythonSDK, DocSDKOverview} {
		doc := src.ReadReferenceDoc(name)
		assert.False(t, IsPlaceholder(doc), "embedded doc %s missing", name)
	}
	assert.Equal(t, Placeholder("nope"), src.ReadReferenceDoc("nope"))
}

func TestDirSource_OverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp-schema.md"), []byte("custom schema"), 0o644))

	src := NewDocSource(dir, nil)
	assert.Equal(t, "custom schema", src.ReadReferenceDoc(DocSchema))
	assert.Contains(t, src.ReadReferenceDoc(DocPythonSDK), "FastMCP")

	bare := NewDirSource(dir, nil, nil)
	assert.True(t, IsPlaceholder(bare.ReadReferenceDoc(DocPythonSDK)))
}

func TestDirSource_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(filepath.Join(dir, "docs"), nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.md"), []byte("secret"), 0o644))

	assert.True(t, IsPlaceholder(src.ReadReferenceDoc("../secret")))
}

func TestLoadReferenceDocs(t *testing.T) {
	docs := LoadReferenceDocs(EmbeddedSource{}, model.LanguagePython)
	assert.Contains(t, docs.Schema, "tools/list")
	assert.Contains(t, docs.SDK, "FastMCP")

	assert.Equal(t, DocSDKOverview, SDKDocFor("go"))
}
