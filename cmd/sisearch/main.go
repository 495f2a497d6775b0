package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	runtimesvc "github.com/lexcodex/sisearch/internal/sisearch/runtime"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	cfg       runtimesvc.Config
	noPreview bool
}

func newRootCmd() *cobra.Command {
	app := &cli{cfg: runtimesvc.DefaultConfig()}
	root := &cobra.Command{
		Use:           "sisearch",
		Short:         "Interactive symbol search over language servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed(runtimesvc.FlagNoPreview) {
				app.cfg.EnablePreview = !app.noPreview
			}
			return app.cfg.Normalize()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&app.cfg.Workspace, "workspace", app.cfg.Workspace, "Workspace directory")
	flags.StringVar(&app.cfg.ConfigPath, "config", "", "Workspace config file (default .sisearch/config.yaml)")
	flags.StringArrayVar(&app.cfg.Roots, runtimesvc.FlagRoot, nil, "Workspace root folder (repeatable)")
	flags.StringSliceVar(&app.cfg.Languages, runtimesvc.FlagLang, app.cfg.Languages, "Languages to start servers for (go,rust,clangd,haskell,ts,lua,python)")
	flags.BoolVar(&app.noPreview, runtimesvc.FlagNoPreview, false, "Disable preview while moving through current-file results")
	flags.BoolVar(&app.cfg.Builtin, "builtin", false, "Use the built-in Go symbol provider instead of gopls")
	flags.StringArrayVar(&app.cfg.Ignore, "ignore", nil, "Glob the built-in provider skips (repeatable)")

	root.AddCommand(
		newFileCmd(app),
		newWorkspaceCmd(app),
		newOutlineCmd(app),
		newCompDBCmd(app),
		newLSPCmd(app),
		newKindsCmd(),
		newRunCmd(app),
		newInitCmd(app),
	)
	return root
}

// effectiveConfig merges the workspace file into the flag values, the same
// way runtime.New does, for commands that run without a runtime.
func (a *cli) effectiveConfig(cmd *cobra.Command) (runtimesvc.Config, error) {
	cfg := a.cfg
	ws, err := runtimesvc.LoadWorkspaceConfig(cfg.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("workspace config: %w", err)
	}
	cfg.Apply(ws, cmd.Flags().Changed)
	return cfg, nil
}

// runWithRuntime builds a runtime for cmd, runs fn and closes it.
func (a *cli) runWithRuntime(cmd *cobra.Command, opts runtimesvc.Options, fn func(context.Context, *runtimesvc.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.FlagChanged == nil {
		opts.FlagChanged = cmd.Flags().Changed
	}
	if opts.Notifier == nil {
		opts.Notifier = &runtimesvc.WriterNotifier{W: cmd.ErrOrStderr()}
	}
	rt, err := runtimesvc.New(ctx, a.cfg, opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}
