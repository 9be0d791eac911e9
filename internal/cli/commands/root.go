package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/model"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{prompter: surveyPrompter{}})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buildmcp",
		Short: "Generate, validate and package Model Context Protocol servers",
		Long: color.CyanString(`buildmcp - MCP server generator

buildmcp turns a plain-language description into a runnable Model Context
Protocol server. Generated source is checked against a compliance rule
catalog, corrected once when it falls short, and packaged with launch
configurations for each target client.

Surfaces:
  • generate   one-shot generation from flags, a YAML file or prompts
  • serve      HTTP and WebSocket API
  • mcp        MCP tools over stdio`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.noColor {
				color.NoColor = true
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./buildmcp.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newGenerateCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newRulesCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newMCPCommand(a))
	rootCmd.AddCommand(newPackagesCommand(a))

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the buildmcp version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "buildmcp version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
	// Version needs no configuration.
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	return cmd
}

// Execute runs the root command under ctx and renders any error.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(rootCmd, err)
		return err
	}
	return nil
}

func renderError(cmd *cobra.Command, err error) {
	w := cmd.ErrOrStderr()
	noColor := color.NoColor

	var cfgErr *configError
	var langErr *languageError
	var pkgErr *packageNotFoundError
	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprint(w, ui.ConfigError(cfgErr.Error(), noColor))
	case errors.As(err, &langErr):
		fmt.Fprint(w, ui.LanguageError(langErr.name, langErr.suggestions, noColor))
	case errors.As(err, &pkgErr):
		fmt.Fprint(w, ui.PackageNotFoundError(pkgErr.id, noColor))
	case errors.Is(err, model.ErrInvalidRequirements):
		fmt.Fprint(w, ui.RequirementsError(err.Error(), noColor))
	default:
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(w, "Error: %v\n", err)
	}
}
