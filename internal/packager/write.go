package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/templates"
)

// WriteBundle writes a bundle's files under dir. Paths that are absolute or
// escape dir are rejected before anything is written; shell scripts are
// made executable.
func WriteBundle(bundle model.DeploymentBundle, dir string) error {
	paths := make([]string, 0, len(bundle.Files))
	for p := range bundle.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	cleaned := make(map[string]string, len(paths))
	for _, p := range paths {
		clean, err := templates.CleanRelativePath(p)
		if err != nil {
			return fmt.Errorf("invalid bundle path: %w", err)
		}
		cleaned[p] = clean
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	for _, p := range paths {
		fullPath := filepath.Join(dir, filepath.FromSlash(cleaned[p]))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create parent directory for %s: %w", fullPath, err)
		}

		mode := os.FileMode(0644)
		if strings.HasSuffix(p, ".sh") {
			mode = 0755
		}
		if err := os.WriteFile(fullPath, []byte(bundle.Files[p]), mode); err != nil {
			return fmt.Errorf("failed to write file %s: %w", fullPath, err)
		}
	}
	return nil
}

// WritePackage writes every bundle of a package under dir/<target kind>,
// plus the client documentation.
func WritePackage(pkg *model.ServerPackage, dir string) error {
	kinds := make([]string, 0, len(pkg.Bundles))
	for kind := range pkg.Bundles {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if err := WriteBundle(pkg.Bundles[model.TargetKind(kind)], filepath.Join(dir, kind)); err != nil {
			return fmt.Errorf("write %s bundle: %w", kind, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "CLIENTS.md"), []byte(pkg.Documentation), 0644); err != nil {
		return fmt.Errorf("failed to write client documentation: %w", err)
	}
	return nil
}
