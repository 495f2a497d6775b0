package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lexcodex/sisearch/framework"
	runtimesvc "github.com/lexcodex/sisearch/internal/sisearch/runtime"
	"github.com/lexcodex/sisearch/internal/sisearch/tui"
)

// positionValue parses a one-based LINE[:COL] caret flag.
type positionValue struct {
	pos framework.Position
}

var _ pflag.Value = (*positionValue)(nil)

func (p *positionValue) String() string {
	return fmt.Sprintf("%d:%d", p.pos.Line+1, p.pos.Character+1)
}

func (p *positionValue) Set(value string) error {
	lineText, colText, hasCol := strings.Cut(value, ":")
	line, err := strconv.Atoi(lineText)
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line %q", lineText)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colText)
		if err != nil || col < 1 {
			return fmt.Errorf("invalid column %q", colText)
		}
	}
	p.pos = framework.Position{Line: line - 1, Character: col - 1}
	return nil
}

func (p *positionValue) Type() string { return "line[:col]" }

// searchFlags are shared by the picker commands.
type searchFlags struct {
	at     positionValue
	filter string
	first  bool
	open   bool
}

func (f *searchFlags) bind(flags *pflag.FlagSet) {
	flags.Var(&f.at, "at", "Caret position in the document")
	flags.StringVar(&f.filter, "filter", "", "Print the items matching this query instead of opening the picker")
	flags.BoolVar(&f.first, "first", false, "With --filter, jump to the first match")
	flags.BoolVar(&f.open, "open", false, "Open the accepted location in $EDITOR")
}

// headless reports whether the picker should run without a UI.
func (f *searchFlags) headless(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("filter") || f.first {
		return true
	}
	return !term.IsTerminal(int(os.Stderr.Fd()))
}

func newFileCmd(app *cli) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Search the symbols of one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.search(cmd, &flags, tui.ModeFile, args[0], framework.CommandSearchDocSymbols)
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

func newWorkspaceCmd(app *cli) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "workspace [path]",
		Short: "Search symbols across the workspace",
		Long:  "Search symbols across the workspace. The optional path is the document shown behind the picker.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document := ""
			if len(args) == 1 {
				document = args[0]
			}
			return app.search(cmd, &flags, tui.ModeWorkspace, document, framework.CommandSearchWorkspaceSymbols)
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

func newOutlineCmd(app *cli) *cobra.Command {
	var at positionValue
	var watch bool
	cmd := &cobra.Command{
		Use:   "outline <path>",
		Short: "Browse a document outline in a sidebar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWithRuntime(cmd, runtimesvc.Options{}, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				res, err := tui.Run(ctx, rt, tui.Options{Mode: tui.ModeOutline, File: args[0], Caret: at.pos, Watch: watch})
				printMessages(cmd.ErrOrStderr(), res.Messages)
				return err
			})
		},
	}
	cmd.Flags().Var(&at, "at", "Caret position in the document")
	cmd.Flags().BoolVar(&watch, "watch", true, "Refresh the outline when the file changes")
	return cmd
}

func (a *cli) search(cmd *cobra.Command, flags *searchFlags, mode tui.Mode, document, commandID string) error {
	if flags.headless(cmd) {
		if document == "" {
			document = a.cfg.Workspace
		}
		return a.searchHeadless(cmd, flags, document, commandID)
	}
	if document == "" {
		return errors.New("the picker needs a document to display; pass a path or use --filter")
	}
	return a.runWithRuntime(cmd, runtimesvc.Options{}, func(ctx context.Context, rt *runtimesvc.Runtime) error {
		res, err := tui.Run(ctx, rt, tui.Options{Mode: mode, File: document, Caret: flags.at.pos})
		printMessages(cmd.ErrOrStderr(), res.Messages)
		if err != nil {
			return err
		}
		if res.Accepted == nil {
			return nil
		}
		return acceptLocation(ctx, cmd, flags.open, res.Accepted.Target)
	})
}

func (a *cli) searchHeadless(cmd *cobra.Command, flags *searchFlags, document, commandID string) error {
	editor := runtimesvc.NewDocumentEditor(document, flags.at.pos)
	opts := runtimesvc.Options{Editors: editor}
	return a.runWithRuntime(cmd, opts, func(ctx context.Context, rt *runtimesvc.Runtime) error {
		var session *framework.Session
		rt.OnSession(func(s *framework.Session) { session = s })
		if err := rt.Execute(ctx, commandID); err != nil {
			return err
		}
		if session == nil {
			return nil
		}
		items := session.SetQuery(flags.filter)
		if !flags.first {
			session.Cancel()
			printItems(cmd.OutOrStdout(), items)
			return nil
		}
		if len(items) == 0 {
			session.Cancel()
			return fmt.Errorf("no symbol matches %q", flags.filter)
		}
		if _, err := session.Accept(items[:1]); err != nil {
			return err
		}
		return acceptLocation(ctx, cmd, flags.open, items[0].Target)
	})
}

// printItems writes one "glyph name  path:line:col" row per item.
func printItems(w io.Writer, items []framework.Item) {
	for _, item := range items {
		fmt.Fprintf(w, "%s  %s\n", item.Label, framework.FormatLocation(item.Target))
	}
}

func printMessages(w io.Writer, messages []string) {
	for _, msg := range messages {
		fmt.Fprintln(w, msg)
	}
}

// acceptLocation prints loc for editor integration and optionally opens it.
func acceptLocation(ctx context.Context, cmd *cobra.Command, open bool, loc framework.Location) error {
	fmt.Fprintln(cmd.OutOrStdout(), framework.FormatLocation(loc))
	if !open {
		return nil
	}
	return openInEditor(ctx, loc)
}

func openInEditor(ctx context.Context, loc framework.Location) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return errors.New("set $EDITOR to open the result")
	}
	fields := strings.Fields(editor)
	args := append(fields[1:], fmt.Sprintf("+%d", loc.Range.Start.Line+1), loc.Path)
	c := exec.CommandContext(ctx, fields[0], args...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
