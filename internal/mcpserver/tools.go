package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/packager"
	"github.com/buildmcp/buildmcp/internal/rules"
)

// Generator runs the pipeline; *pipeline.Pipeline implements it.
type Generator interface {
	Generate(ctx context.Context, req model.ServerRequirements) (*model.ServerPackage, error)
}

// GenerateTool exposes the pipeline as the generate_server tool.
type GenerateTool struct {
	gen    Generator
	logger *zap.Logger
}

// NewGenerateTool creates the tool.
func NewGenerateTool(gen Generator, logger *zap.Logger) *GenerateTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateTool{gen: gen, logger: logger}
}

// Definition returns the tool schema.
func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_server",
		mcp.WithDescription("Generate, validate and package an MCP server from a natural-language description. "+
			"Returns a summary with compliance results, client configuration snippets and bundle file lists."),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the server should do, in plain language"),
		),
		mcp.WithArray("target_clients",
			mcp.Required(),
			mcp.Description("Client applications that will connect, e.g. \"Claude Desktop\", \"Cursor\""),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("auth_requirements",
			mcp.Description("Authentication the server needs, or \"none\""),
		),
		mcp.WithString("deployment_preference",
			mcp.Description("Which bundles to produce"),
			mcp.Enum("local", "cloud", "both"),
		),
		mcp.WithString("language",
			mcp.Description("Implementation language (typescript or python); defaults to the server's configured language"),
		),
		mcp.WithString("output_dir",
			mcp.Description("When set, bundles and CLIENTS.md are written under this directory"),
		),
	)
}

// GenerateSummary is the JSON body returned by generate_server.
type GenerateSummary struct {
	ID            string              `json:"id"`
	Language      string              `json:"language"`
	Valid         bool                `json:"valid"`
	Refined       bool                `json:"refined"`
	UsedFallback  bool                `json:"used_fallback"`
	Violations    []string            `json:"violations,omitempty"`
	Bundles       map[string][]string `json:"bundles"`
	OutputDir     string              `json:"output_dir,omitempty"`
	Documentation string              `json:"documentation"`
}

// Handle runs the pipeline. Invalid input is reported as a tool error, not
// a protocol error.
func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	reqs := model.ServerRequirements{
		Description:          stringArg(args, "description"),
		TargetClients:        stringSliceArg(args, "target_clients"),
		AuthRequirements:     stringArg(args, "auth_requirements"),
		DeploymentPreference: model.DeploymentPreference(stringArg(args, "deployment_preference")),
		LanguagePreference:   stringArg(args, "language"),
	}
	if reqs.DeploymentPreference == "" {
		reqs.DeploymentPreference = model.DeployLocal
	}

	pkg, err := t.gen.Generate(ctx, reqs)
	if errors.Is(err, model.ErrInvalidRequirements) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		t.logger.Error("generate_server failed", zap.Error(err))
		return mcp.NewToolResultError("generation failed: " + err.Error()), nil
	}

	summary := GenerateSummary{
		ID:            pkg.ID,
		Language:      pkg.Artifact.Language.String(),
		Valid:         pkg.Verdict.IsValid,
		Refined:       pkg.Refined,
		UsedFallback:  pkg.UsedFallback,
		Violations:    pkg.Verdict.Messages(),
		Bundles:       make(map[string][]string, len(pkg.Bundles)),
		Documentation: pkg.Documentation,
	}
	for kind, b := range pkg.Bundles {
		paths := make([]string, 0, len(b.Files))
		for p := range b.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		summary.Bundles[string(kind)] = paths
	}

	if dir := stringArg(args, "output_dir"); dir != "" {
		if err := packager.WritePackage(pkg, dir); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("package %s generated but not written: %v", pkg.ID, err)), nil
		}
		summary.OutputDir = dir
	}

	return jsonResult(summary)
}

// ValidateTool exposes the compliance validator as validate_server.
type ValidateTool struct {
	validator *rules.Validator
}

// NewValidateTool creates the tool.
func NewValidateTool(v *rules.Validator) *ValidateTool {
	return &ValidateTool{validator: v}
}

// Definition returns the tool schema.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_server",
		mcp.WithDescription("Check MCP server source code against the compliance rule catalog. "+
			"Reports every violated rule."),
		mcp.WithString("source_text",
			mcp.Required(),
			mcp.Description("Complete server source code"),
		),
		mcp.WithString("language",
			mcp.Description("Source language: typescript or python"),
		),
	)
}

// Handle validates the source. A non-compliant verdict is a normal result.
func (t *ValidateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	src := stringArg(args, "source_text")
	if strings.TrimSpace(src) == "" {
		return mcp.NewToolResultError("source_text is required"), nil
	}
	raw := stringArg(args, "language")
	lang, ok := model.ParseLanguage(raw)
	if !ok {
		lang = model.Language(raw)
	}
	return jsonResult(t.validator.Validate(model.GeneratedArtifact{SourceText: src, Language: lang}))
}

// RulesTool lists the rule catalog as list_rules.
type RulesTool struct {
	catalog *rules.Catalog
}

// NewRulesTool creates the tool.
func NewRulesTool(c *rules.Catalog) *RulesTool {
	return &RulesTool{catalog: c}
}

// Definition returns the tool schema.
func (t *RulesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_rules",
		mcp.WithDescription("List the compliance rules generated servers are checked against"),
	)
}

// Handle renders one line per rule.
func (t *RulesTool) Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule catalog %s\n", t.catalog.Version())
	for _, r := range t.catalog.Rules() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Name, r.Category, r.Description)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// stringSliceArg accepts a JSON array of strings or a comma-separated
// string.
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return strings.Split(v, ",")
	default:
		return nil
	}
}
