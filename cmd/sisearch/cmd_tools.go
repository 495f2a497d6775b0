package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/sisearch/framework"
	runtimesvc "github.com/lexcodex/sisearch/internal/sisearch/runtime"
	"github.com/lexcodex/sisearch/tools"
)

func newCompDBCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compdb",
		Short: "Generate a compile database for the workspace roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runtimesvc.Options{
				Prompter: runtimesvc.LinePrompter{Out: cmd.ErrOrStderr()},
			}
			return app.runWithRuntime(cmd, opts, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				return rt.Execute(ctx, framework.CommandGenCompileDB)
			})
		},
	}
	cmd.Flags().StringVar(&app.cfg.CompileDB.Tool, runtimesvc.FlagCompDBTool, framework.DefaultCompileDBTool, "Generator executable")
	cmd.Flags().StringVar(&app.cfg.CompileDB.Variant, runtimesvc.FlagCompDBVariant, framework.CompileDBVariantAll, "Generator subcommand")
	return cmd
}

func newLSPCmd(app *cli) *cobra.Command {
	var language string
	var file string
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Check a language server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, ok := tools.LookupLSPDescriptor(language)
			if !ok {
				return tools.UnknownLanguageError(language)
			}
			cfg, err := app.effectiveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			proxy, cleanup, err := tools.NewProxyForLanguages(ctx, []string{desc.ID}, tools.ProxyOptions{
				Root:      cfg.Workspace,
				Overrides: cfg.Servers,
				Builtin:   cfg.Builtin,
				Ignore:    cfg.Ignore,
				Logger:    log.New(io.Discard, "", 0),
			})
			if err != nil {
				return err
			}
			defer cleanup()
			command, commandArgs := desc.Command, desc.Args
			if override, ok := cfg.Servers[desc.ID]; ok && override.Command != "" {
				command, commandArgs = override.Command, override.Args
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server: %s (%s)\n", desc.ID, strings.Join(append([]string{command}, commandArgs...), " "))
			if file != "" {
				symbols, err := proxy.DocumentSymbols(ctx, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Document symbols: %d\n", framework.CountNodes(framework.FromDocumentSymbols(file, symbols)))
			}
			symbols, err := proxy.WorkspaceSymbols(ctx, "")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "workspace/symbol error: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Workspace symbols: %d\n", len(symbols))
			for _, sym := range symbols[:min(5, len(symbols))] {
				fmt.Fprintf(out, "  %s %s  %s\n", sym.Kind.Glyph(), sym.Name, framework.FormatLocation(sym.Location))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "lang", "go", "Language ("+strings.Join(tools.SupportedLSPKeys(), ",")+")")
	cmd.Flags().StringVar(&file, "file", "", "Optional file to request document symbols for")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "Print the symbol kind glyphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, kind := range framework.Kinds() {
				fmt.Fprintf(out, "%2d  %s  %s\n", int(kind), kind.Glyph(), kind.Title())
			}
			fmt.Fprintf(out, "%2s  %s  %s\n", "-", framework.MiscGlyph, "Misc")
			return nil
		},
	}
}

func newRunCmd(app *cli) *cobra.Command {
	var document string
	var at positionValue
	cmd := &cobra.Command{
		Use:   "run <command-id>",
		Short: "Execute a registered command by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runtimesvc.Options{}
			editor := runtimesvc.NewDocumentEditor(document, at.pos)
			opts.Editors = editor
			return app.runWithRuntime(cmd, opts, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				rt.OnSession(func(s *framework.Session) {
					printItems(cmd.OutOrStdout(), s.Items())
					s.Cancel()
				})
				if err := rt.Execute(ctx, args[0]); err != nil {
					return err
				}
				if args[0] == framework.CommandOutlineRefresh || args[0] == framework.CommandOutlineSearch {
					for _, item := range rt.Outline.Items() {
						fmt.Fprintln(cmd.OutOrStdout(), item.Name)
					}
				}
				return nil
			})
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return []string{
				framework.CommandSearchDocSymbols,
				framework.CommandSearchWorkspaceSymbols,
				framework.CommandGenCompileDB,
				framework.CommandOutlineRefresh,
				framework.CommandOutlineSearch,
			}, cobra.ShellCompDirectiveNoFileComp
		},
	}
	cmd.Flags().StringVar(&document, "file", "", "Active document for current-file commands")
	cmd.Flags().Var(&at, "at", "Caret position in the document")
	return cmd
}

func newInitCmd(app *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the workspace config from the current flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.cfg.ConfigPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := runtimesvc.SaveWorkspaceConfig(path, app.cfg.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
