package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/rules"
)

// errNonCompliant is returned by validate when violations were found, so
// the process exits non-zero.
var errNonCompliant = errors.New("server source is not compliant")

// languageError reports a language name that matches no supported language.
type languageError struct {
	name        string
	suggestions []string
}

func (e *languageError) Error() string {
	return fmt.Sprintf("unknown language %q", e.name)
}

func newValidateCommand(a *app) *cobra.Command {
	var (
		language   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check MCP server source against the compliance rules",
		Long: `Validate existing MCP server source against the rule catalog.

The language is inferred from the file extension (.ts, .py) unless
--language is given. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			lang, err := detectLanguage(args[0], language, a.cfg.DefaultLanguage())
			if err != nil {
				return err
			}

			verdict := rules.NewValidator(nil).Validate(model.GeneratedArtifact{SourceText: source, Language: lang})

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(verdict); err != nil {
					return err
				}
			} else {
				ui.WriteVerdict(out, verdict, a.noColor)
			}
			if !verdict.IsValid {
				return errNonCompliant
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "source language: typescript or python")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the verdict as JSON")
	return cmd
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

var extensionLanguages = map[string]model.Language{
	".ts":  model.LanguageTypeScript,
	".mts": model.LanguageTypeScript,
	".py":  model.LanguagePython,
}

// detectLanguage prefers the explicit flag, then the file extension, then
// def.
func detectLanguage(path, flag string, def model.Language) (model.Language, error) {
	if flag != "" {
		if lang, ok := model.ParseLanguage(flag); ok {
			return lang, nil
		}
		return "", &languageError{
			name:        flag,
			suggestions: ui.Suggest(flag, []string{string(model.LanguageTypeScript), string(model.LanguagePython)}, 2),
		}
	}
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang, nil
	}
	return def, nil
}
