package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildmcp/buildmcp/internal/cli/ui"
	"github.com/buildmcp/buildmcp/internal/packager"
	"github.com/buildmcp/buildmcp/internal/store"
)

var errNoStore = errors.New("package store is not configured; set store.driver and store.dsn")

func newPackagesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Inspect stored server packages",
	}
	cmd.AddCommand(newPackagesListCommand(a))
	cmd.AddCommand(newPackagesShowCommand(a))
	return cmd
}

func openStore(cmd *cobra.Command, a *app) (*store.Store, error) {
	if a.cfg.Store.Driver == "" {
		return nil, errNoStore
	}
	return store.Open(cmd.Context(), a.cfg.Store.Driver, a.cfg.Store.DSN, a.logger.Named("store"))
}

func newPackagesListCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, a)
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprint(out, ui.Info("No packages stored yet.", a.noColor))
				return nil
			}
			t := ui.NewTable(out, a.noColor, "ID", "GENERATED", "LANGUAGE", "VALID", "FALLBACK", "DESCRIPTION")
			for _, s := range summaries {
				t.AddRow(
					s.ID,
					s.GeneratedAt.Format("2006-01-02 15:04:05"),
					s.Language,
					yesNo(s.IsValid),
					yesNo(s.UsedFallback),
					truncate(s.Description, 48),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of packages")
	return cmd
}

func newPackagesShowCommand(a *app) *cobra.Command {
	var (
		outDir     string
		client     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored package, optionally writing it to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, a)
			if err != nil {
				return err
			}
			defer st.Close()

			pkg, err := st.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return &packageNotFoundError{id: args[0], err: err}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outDir != "" {
				if err := packager.WritePackage(pkg, outDir); err != nil {
					return err
				}
			}
			if client != "" {
				cfg, ok := pkg.ClientConfigByName(client)
				if !ok {
					return fmt.Errorf("package %s has no configuration for client %q (clients: %s)",
						pkg.ID, client, strings.Join(pkg.ClientNames(), ", "))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg.Configuration)
			}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pkg)
			}

			writeSummary(out, pkg, a.noColor)
			fmt.Fprintln(out)
			ui.WriteVerdict(out, pkg.Verdict, a.noColor)
			if outDir != "" {
				ui.WriteSuccess(out, fmt.Sprintf("Package written to %s", outDir), a.noColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write the package to this directory")
	cmd.Flags().StringVar(&client, "client", "", "print only this client's configuration document")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the package as JSON")
	return cmd
}

type packageNotFoundError struct {
	id  string
	err error
}

func (e *packageNotFoundError) Error() string { return e.err.Error() }
func (e *packageNotFoundError) Unwrap() error { return e.err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
