package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/lexcodex/sisearch/framework"
	"github.com/lexcodex/sisearch/tools"
)

// Options supplies the collaborators a front end owns. Nil fields get
// terminal defaults.
type Options struct {
	// Provider replaces the language servers described by the config.
	Provider framework.SymbolProvider
	Editors  framework.EditorAccessor
	Notifier framework.Notifier
	Prompter framework.Prompter
	Runner   framework.CommandRunner
	// FlagChanged reports flags set on the command line so file values do
	// not override them.
	FlagChanged func(flag string) bool
	// LogWriter receives log output in addition to the log file.
	LogWriter io.Writer
}

// Runtime wires configuration, logging, symbol providers and the command
// registry for one sisearch invocation.
type Runtime struct {
	Config    Config
	Logger    *log.Logger
	Host      *framework.Host
	Commands  *framework.CommandRegistry
	Outline   *framework.Outline
	Workspace WorkspaceConfig

	mu        sync.Mutex
	onSession func(*framework.Session)

	logFile io.Closer
	cleanup func()
}

// New builds a runtime. Language servers start here and stay up until Close.
func New(ctx context.Context, cfg Config, opts Options) (*Runtime, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	var sink io.Writer = logFile
	if opts.LogWriter != nil {
		sink = io.MultiWriter(logFile, opts.LogWriter)
	}
	logger := log.New(sink, "sisearch ", log.LstdFlags|log.Lmicroseconds)

	workspaceCfg, err := LoadWorkspaceConfig(cfg.ConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			_ = logFile.Close()
			return nil, fmt.Errorf("workspace config: %w", err)
		}
		workspaceCfg = WorkspaceConfig{}
	}
	cfg.Apply(workspaceCfg, opts.FlagChanged)

	rt := &Runtime{
		Config:    cfg,
		Logger:    logger,
		Commands:  framework.NewCommandRegistry(),
		Workspace: workspaceCfg,
		logFile:   logFile,
		cleanup:   func() {},
	}

	provider := opts.Provider
	if provider == nil {
		proxy, cleanup, err := tools.NewProxyForLanguages(ctx, cfg.Languages, tools.ProxyOptions{
			Root:      cfg.Workspace,
			Overrides: cfg.Servers,
			Builtin:   cfg.Builtin,
			Ignore:    cfg.Ignore,
			Logger:    logger,
		})
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
		provider = proxy
		rt.cleanup = cleanup
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewStderrNotifier()
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = LinePrompter{}
	}
	runner := opts.Runner
	if runner == nil {
		runner = framework.NewTerminalRunner()
	}
	rt.Host = &framework.Host{
		Editors:  opts.Editors,
		Symbols:  provider,
		Notifier: notifier,
		Prompter: prompter,
		Runner:   runner,
		Settings: cfg.Settings(),
		Workspace: framework.Workspace{
			Name:  cfg.WorkspaceName(),
			Roots: append([]string(nil), cfg.Roots...),
		},
		Logger: logger,
	}
	rt.Outline = framework.NewOutline(framework.EditorFunc(rt.activeEditor), provider, logger)
	if err := rt.registerCommands(); err != nil {
		_ = rt.Close()
		return nil, err
	}
	logger.Printf("runtime ready workspace=%s roots=%d languages=%v preview=%t", cfg.Workspace, len(cfg.Roots), cfg.Languages, cfg.EnablePreview)
	return rt, nil
}

func (r *Runtime) activeEditor() (framework.Editor, bool) {
	if r.Host == nil || r.Host.Editors == nil {
		return nil, false
	}
	return r.Host.Editors.ActiveEditor()
}

// OnSession registers the front end that drives opened picker sessions.
func (r *Runtime) OnSession(fn func(*framework.Session)) {
	r.mu.Lock()
	r.onSession = fn
	r.mu.Unlock()
}

func (r *Runtime) deliver(session *framework.Session) {
	r.mu.Lock()
	fn := r.onSession
	r.mu.Unlock()
	if fn == nil {
		r.Logger.Printf("[picker %s] no front end attached; cancelling", session.ID)
		session.Cancel()
		return
	}
	fn(session)
}

func (r *Runtime) registerCommands() error {
	handlers := map[string]framework.CommandHandler{
		framework.CommandSearchDocSymbols: func(ctx context.Context) error {
			session, err := framework.SearchCurrentFile(ctx, r.Host)
			if err != nil || session == nil {
				return err
			}
			r.deliver(session)
			return nil
		},
		framework.CommandSearchWorkspaceSymbols: func(ctx context.Context) error {
			session, err := framework.SearchWorkspace(ctx, r.Host)
			if err != nil || session == nil {
				return err
			}
			r.deliver(session)
			return nil
		},
		framework.CommandGenCompileDB: func(ctx context.Context) error {
			return framework.GenerateCompileDB(ctx, r.Host)
		},
		framework.CommandOutlineRefresh: func(ctx context.Context) error {
			return r.Outline.Refresh(ctx)
		},
		framework.CommandOutlineSearch: func(ctx context.Context) error {
			return framework.SearchOutline(ctx, r.Host, r.Outline)
		},
	}
	for id, handler := range handlers {
		if err := r.Commands.Register(id, handler); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a registered command by identifier.
func (r *Runtime) Execute(ctx context.Context, id string) error {
	r.Logger.Printf("execute %s", id)
	if err := r.Commands.Execute(ctx, id); err != nil {
		r.Logger.Printf("execute %s: %v", id, err)
		return err
	}
	return nil
}

// Close releases resources managed by runtime.
func (r *Runtime) Close() error {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
	if r.logFile != nil {
		err := r.logFile.Close()
		r.logFile = nil
		return err
	}
	return nil
}
