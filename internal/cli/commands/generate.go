package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/packager"
	"github.com/buildmcp/buildmcp/internal/pipeline"
)

type generateOptions struct {
	file        string
	clients     []string
	auth        string
	deploy      string
	language    string
	outDir      string
	jsonOutput  bool
	interactive bool
	noProgress  bool
}

func newGenerateCommand(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [description]",
		Short: "Generate a packaged MCP server from a description",
		Long: `Generate an MCP server from a plain-language description.

Requirements come from the positional description and flags, from a YAML
file (--file), or from interactive prompts (--interactive). Flags override
file values. The result is validated against the rule catalog, refined at
most once, and packaged for every requested client and deployment target.`,
		Example: `  buildmcp generate "Search my notes folder" --client "Claude Desktop" --client Cursor
  buildmcp generate -f requirements.yaml --out ./my-server
  buildmcp generate --interactive --deploy both`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, a, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "YAML requirements file")
	f.StringSliceVar(&opts.clients, "client", nil, "target client (repeatable)")
	f.StringVar(&opts.auth, "auth", "", "authentication requirements")
	f.StringVar(&opts.deploy, "deploy", "", "deployment preference: local, cloud or both (default local)")
	f.StringVarP(&opts.language, "language", "l", "", "server language: typescript or python")
	f.StringVarP(&opts.outDir, "out", "o", "", "write the package to this directory")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the package as JSON")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for requirements")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress spinner")

	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, opts *generateOptions, args []string) error {
	req, err := opts.requirements(cmd, args)
	if err != nil {
		return err
	}
	if opts.interactive {
		if err := askRequirements(a.prompter, &req, a.cfg.DefaultLanguage()); err != nil {
			return fmt.Errorf("interactive input: %w", err)
		}
	}
	if req.DeploymentPreference == "" {
		req.DeploymentPreference = model.DeployLocal
	}

	stderr := cmd.ErrOrStderr()
	if req.LanguagePreference != "" {
		if _, ok := model.ParseLanguage(req.LanguagePreference); !ok {
			fmt.Fprint(stderr, ui.Warning(fmt.Sprintf("Unknown language %q; using %s.",
				req.LanguagePreference, a.cfg.DefaultLanguage()), a.noColor))
		}
	}

	svc, err := a.buildServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	var obs pipeline.Observer
	if !opts.noProgress && !opts.jsonOutput {
		spinner := ui.NewSpinner(stderr, "Starting", a.noColor)
		defer spinner.Stop()
		obs = newProgressReporter(spinner)
	}

	pkg, err := svc.Pipeline.GenerateObserved(cmd.Context(), req, obs)
	if err != nil {
		return err
	}

	if opts.outDir != "" {
		if err := packager.WritePackage(pkg, opts.outDir); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pkg)
	}

	if pkg.UsedFallback {
		fmt.Fprint(stderr, ui.FallbackWarning("The completion gateway was unavailable or failed; check the logs and your API key.", a.noColor))
	}
	writeSummary(out, pkg, a.noColor)
	fmt.Fprintln(out)
	ui.WriteVerdict(out, pkg.Verdict, a.noColor)
	fmt.Fprintln(out)
	if opts.outDir != "" {
		ui.WriteSuccess(out, fmt.Sprintf("Package written to %s", opts.outDir), a.noColor)
	} else {
		fmt.Fprint(out, pkg.Documentation)
	}
	return nil
}

// requirements merges the requirements file, positional description and
// flags. Flags override file values only when set.
func (o *generateOptions) requirements(cmd *cobra.Command, args []string) (model.ServerRequirements, error) {
	var req model.ServerRequirements
	if o.file != "" {
		r, err := readRequirementsFile(o.file)
		if err != nil {
			return req, err
		}
		req = r
	}

	if len(args) > 0 {
		req.Description = strings.Join(args, " ")
	}
	f := cmd.Flags()
	if f.Changed("client") {
		req.TargetClients = o.clients
	}
	if f.Changed("auth") {
		req.AuthRequirements = o.auth
	}
	if f.Changed("deploy") {
		req.DeploymentPreference = model.DeploymentPreference(o.deploy)
	}
	if f.Changed("language") {
		req.LanguagePreference = o.language
	}
	return req, nil
}

func readRequirementsFile(path string) (model.ServerRequirements, error) {
	var req model.ServerRequirements
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read requirements: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: parse %s: %v", model.ErrInvalidRequirements, path, err)
	}
	return req, nil
}

func writeSummary(w io.Writer, pkg *model.ServerPackage, noColor bool) {
	ui.Header(w, "Generated MCP server", noColor)
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("ID", pkg.ID)
	kv.AddRow("Language", pkg.Artifact.Language.String())
	kv.AddRow("Compliant", yesNo(pkg.Verdict.IsValid))
	kv.AddRow("Refined", yesNo(pkg.Refined))
	kv.AddRow("Fallback", yesNo(pkg.UsedFallback))
	kv.AddRow("Clients", strings.Join(pkg.ClientNames(), ", "))
	kinds := make([]string, 0, len(pkg.Bundles))
	for _, k := range pkg.Requirements.Deployment().TargetKinds() {
		if _, ok := pkg.Bundles[k]; ok {
			kinds = append(kinds, string(k))
		}
	}
	kv.AddRow("Bundles", strings.Join(kinds, ", "))
	kv.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// progressReporter renders pipeline stages on a spinner.
type progressReporter struct {
	spinner *ui.Spinner
	current string
}

func newProgressReporter(s *ui.Spinner) *progressReporter {
	return &progressReporter{spinner: s}
}

var stageMessages = map[pipeline.Stage]string{
	pipeline.StageValidating: "Validating requirements",
	pipeline.StageComposing:  "Composing prompt",
	pipeline.StageGenerating: "Generating server source",
	pipeline.StageRefining:   "Refining after compliance check",
	pipeline.StagePackaging:  "Packaging",
}

// OnStage implements pipeline.Observer.
func (p *progressReporter) OnStage(_ context.Context, ev pipeline.Event) {
	switch ev.Stage {
	case pipeline.StageDone:
		p.spinner.Success("Package ready")
		return
	case pipeline.StageCached:
		p.spinner.Success("Reused cached package " + ev.PackageID)
		return
	case pipeline.StageFailed:
		p.spinner.Error(ev.Message)
		return
	}

	msg, ok := stageMessages[ev.Stage]
	if !ok {
		msg = string(ev.Stage)
	}
	if p.current == "" {
		p.spinner.UpdateMessage(msg)
		p.spinner.Start()
	} else {
		p.spinner.Step(p.current, msg)
	}
	p.current = msg
}
