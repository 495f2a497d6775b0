package framework

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Command identifiers exposed to the host.
const (
	CommandSearchDocSymbols       = "si_like_search.search_doc_symbols"
	CommandSearchWorkspaceSymbols = "si_like_search.search_workspace_symbols"
	CommandGenCompileDB           = "si_like_search.jia_gen_compdb"
	CommandOutlineRefresh         = "si_like_search.refresh"
	CommandOutlineSearch          = "si_like_search.search"
)

// workspaceWildcard is retried when the empty query returns nothing.
const workspaceWildcard = "*"

// CommandHandler runs a registered command.
type CommandHandler func(ctx context.Context) error

// CommandRegistry binds command identifiers to handlers.
type CommandRegistry struct {
	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

// NewCommandRegistry returns an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{handlers: make(map[string]CommandHandler)}
}

// Register binds id to handler. Identifiers may be registered once.
func (r *CommandRegistry) Register(id string, handler CommandHandler) error {
	if id == "" {
		return errors.New("command id required")
	}
	if handler == nil {
		return fmt.Errorf("command %s: handler required", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[id]; exists {
		return fmt.Errorf("command %s already registered", id)
	}
	r.handlers[id] = handler
	return nil
}

// Execute runs the handler bound to id.
func (r *CommandRegistry) Execute(ctx context.Context, id string) error {
	r.mu.RLock()
	handler, ok := r.handlers[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown command %s", id)
	}
	return handler(ctx)
}

// IDs lists the registered identifiers in sorted order.
func (r *CommandRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SearchCurrentFile fetches the active document's symbols and opens a picker
// session over them. It returns a nil session after reporting why when there
// is nothing to search.
func SearchCurrentFile(ctx context.Context, host *Host) (*Session, error) {
	editor, ok := host.activeEditor()
	if !ok {
		host.info(MsgNoActiveEditor)
		return nil, nil
	}
	if host.Symbols == nil {
		host.info(MsgNoSymbols)
		return nil, nil
	}
	document := editor.Document()
	raw, err := host.Symbols.DocumentSymbols(ctx, document)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		host.logger().Printf("document symbols for %s: %v", document, err)
		raw = nil
	}
	if raw == nil {
		host.info(MsgNoSymbols)
		return nil, nil
	}
	symbols := Flatten(FromDocumentSymbols(document, raw))
	return openSession(host, ScopeCurrentFile, symbols, editor), nil
}

// SearchWorkspace fetches every workspace symbol and opens a picker session
// over them in provider order.
func SearchWorkspace(ctx context.Context, host *Host) (*Session, error) {
	editor, ok := host.activeEditor()
	if !ok {
		host.info(MsgNoActiveEditor)
		return nil, nil
	}
	if host.Symbols == nil {
		host.info(MsgNoSymbols)
		return nil, nil
	}
	raw, err := host.Symbols.WorkspaceSymbols(ctx, "")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		host.logger().Printf("workspace symbols: %v", err)
	}
	if len(raw) == 0 {
		raw, err = host.Symbols.WorkspaceSymbols(ctx, workspaceWildcard)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			host.logger().Printf("workspace symbols %q: %v", workspaceWildcard, err)
			raw = nil
		}
	}
	if raw == nil {
		host.info(MsgNoSymbols)
		return nil, nil
	}
	return openSession(host, ScopeWorkspace, FromWorkspaceSymbols(raw), editor), nil
}

func openSession(host *Host, scope Scope, symbols []Symbol, editor Editor) *Session {
	session := NewSession(SessionOptions{
		Scope:         scope,
		Symbols:       symbols,
		Editor:        editor,
		EnablePreview: host.Settings.EnablePreview,
		Logger:        host.logger(),
	})
	session.Open()
	return session
}

// SearchOutline prompts for a query and filters the outline with it. A
// dismissed prompt clears the filter.
func SearchOutline(ctx context.Context, host *Host, outline *Outline) error {
	if outline == nil {
		return errors.New("outline missing")
	}
	query := ""
	if host.Prompter != nil {
		value, ok, err := host.Prompter.Prompt(ctx, "Search symbols...", outline.Query())
		if err != nil {
			return err
		}
		if ok {
			query = value
		}
	}
	outline.Filter(query)
	return nil
}
