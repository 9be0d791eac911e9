package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
)

// Reference document names.
const (
	DocSchema        = "mcp-schema"
	DocTypeScriptSDK = "typescript-sdk"
	DocPythonSDK     = "python-sdk"
	DocSDKOverview   = "sdk-overview"
)

//go:embed refdocs/*.md
var embeddedDocs embed.FS

// DocSource supplies protocol reference documentation. Implementations fail
// soft: a missing document yields placeholder text, never an error.
type DocSource interface {
	ReadReferenceDoc(name string) string
}

// Placeholder is the text substituted for an unavailable document.
func Placeholder(name string) string {
	return fmt.Sprintf("[reference document %q is unavailable]", name)
}

// IsPlaceholder reports whether doc is placeholder text.
func IsPlaceholder(doc string) bool {
	return strings.HasPrefix(doc, "[reference document ") && strings.HasSuffix(doc, " is unavailable]")
}

// EmbeddedSource serves the reference documents compiled into the binary.
type EmbeddedSource struct{}

// ReadReferenceDoc implements DocSource.
func (EmbeddedSource) ReadReferenceDoc(name string) string {
	data, err := embeddedDocs.ReadFile("refdocs/" + docFileName(name))
	if err != nil {
		return Placeholder(name)
	}
	return string(data)
}

// DirSource reads reference documents from a directory, deferring to a
// fallback source for documents the directory does not have.
type DirSource struct {
	dir      string
	fallback DocSource
	logger   *zap.Logger
}

// NewDirSource creates a directory-backed source. fallback may be nil.
func NewDirSource(dir string, fallback DocSource, logger *zap.Logger) *DirSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSource{dir: dir, fallback: fallback, logger: logger}
}

// ReadReferenceDoc implements DocSource.
func (s *DirSource) ReadReferenceDoc(name string) string {
	path := filepath.Join(s.dir, docFileName(name))
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data)
	}

	s.logger.Debug("reference document not found in docs dir",
		zap.String("name", name),
		zap.String("path", path),
		zap.Error(err),
	)
	if s.fallback != nil {
		return s.fallback.ReadReferenceDoc(name)
	}
	return Placeholder(name)
}

// NewDocSource returns the configured document source: the embedded
// documents, overridden per file by dir when set.
func NewDocSource(dir string, logger *zap.Logger) DocSource {
	if dir == "" {
		return EmbeddedSource{}
	}
	return NewDirSource(dir, EmbeddedSource{}, logger)
}

func docFileName(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += ".md"
	}
	return name
}

// ReferenceDocs are the excerpts embedded in a generation prompt.
type ReferenceDocs struct {
	Schema string
	SDK    string
}

// SDKDocFor names the SDK usage document for a language.
func SDKDocFor(lang model.Language) string {
	switch lang {
	case model.LanguageTypeScript:
		return DocTypeScriptSDK
	case model.LanguagePython:
		return DocPythonSDK
	default:
		return DocSDKOverview
	}
}

// LoadReferenceDocs reads the schema and the SDK document for lang.
func LoadReferenceDocs(src DocSource, lang model.Language) ReferenceDocs {
	return ReferenceDocs{
		Schema: src.ReadReferenceDoc(DocSchema),
		SDK:    src.ReadReferenceDoc(SDKDocFor(lang)),
	}
}
