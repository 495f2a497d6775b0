package framework

import (
	"context"
	"log"
)

// User-facing informational messages.
const (
	MsgNoActiveEditor = "No active editor."
	MsgNoSymbols      = "Cannot find symbols."
	MsgNoRootDirs     = "No root directories found."
	MsgNoRootInput    = "Has not input root directory"
)

// SymbolProvider supplies symbols from an external language analysis source.
// A nil slice with a nil error means the provider had nothing to report.
type SymbolProvider interface {
	DocumentSymbols(ctx context.Context, path string) ([]DocumentSymbol, error)
	WorkspaceSymbols(ctx context.Context, query string) ([]WorkspaceSymbol, error)
}

// DecorationStyle selects how a decoration is rendered.
type DecorationStyle int

const (
	// DecorationWholeLine highlights every line the range touches.
	DecorationWholeLine DecorationStyle = iota
)

// Decoration is a transient overlay that must be disposed by its owner.
type Decoration interface {
	Range() Range
	Dispose()
}

// Decorator renders decorations over an editor buffer.
type Decorator interface {
	Decorate(r Range, style DecorationStyle) Decoration
}

// Navigator moves the editor view and caret.
type Navigator interface {
	// RevealCenter scrolls r into the center of the view.
	RevealCenter(r Range)
	// SetCaret moves the caret to p and collapses any selection.
	SetCaret(p Position)
	// Open switches the editor to the document at loc.Path.
	Open(loc Location) error
}

// Editor is the focused editable document.
type Editor interface {
	Navigator
	Decorator
	Document() string
	Caret() Position
}

// EditorAccessor returns the currently focused editor, if any.
type EditorAccessor interface {
	ActiveEditor() (Editor, bool)
}

// EditorFunc adapts a function to EditorAccessor.
type EditorFunc func() (Editor, bool)

// ActiveEditor implements EditorAccessor.
func (f EditorFunc) ActiveEditor() (Editor, bool) { return f() }

// Notifier shows informational messages to the user.
type Notifier interface {
	Info(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Info implements Notifier.
func (f NotifierFunc) Info(msg string) { f(msg) }

// Prompter asks the user for a line of text. ok is false when the user
// dismissed the prompt.
type Prompter interface {
	Prompt(ctx context.Context, prompt, initial string) (value string, ok bool, err error)
}

// Settings carries the configuration values the commands consult.
type Settings struct {
	EnablePreview bool
	CompileDB     CompileDBSettings
}

// DefaultSettings returns the settings used when no configuration is present.
func DefaultSettings() Settings {
	return Settings{
		EnablePreview: true,
		CompileDB: CompileDBSettings{
			Tool:    DefaultCompileDBTool,
			Variant: CompileDBVariantAll,
		},
	}
}

// Workspace names the open workspace and its root folders.
type Workspace struct {
	Name  string
	Roots []string
}

// Host bundles the collaborators commands use so the core never reaches for
// global state.
type Host struct {
	Editors   EditorAccessor
	Symbols   SymbolProvider
	Notifier  Notifier
	Prompter  Prompter
	Runner    CommandRunner
	Settings  Settings
	Workspace Workspace
	Logger    *log.Logger
}

func (h *Host) logger() *log.Logger {
	if h == nil || h.Logger == nil {
		return log.Default()
	}
	return h.Logger
}

func (h *Host) info(msg string) {
	h.logger().Printf("info: %s", msg)
	if h != nil && h.Notifier != nil {
		h.Notifier.Info(msg)
	}
}

func (h *Host) activeEditor() (Editor, bool) {
	if h == nil || h.Editors == nil {
		return nil, false
	}
	ed, ok := h.Editors.ActiveEditor()
	if !ok || ed == nil {
		return nil, false
	}
	return ed, true
}
