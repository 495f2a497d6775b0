package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ServerOverride replaces the command line of a known language server.
type ServerOverride struct {
	Command string   `yaml:"command" toml:"command"`
	Args    []string `yaml:"args" toml:"args"`
}

// LSPDescriptor captures metadata needed to start and register an LSP client.
type LSPDescriptor struct {
	ID         string
	Command    string
	Args       []string
	LanguageID string
	Extensions []string
	// Builtin serves the language without a server process when Command is
	// not installed.
	Builtin func(opts ProxyOptions, logger *log.Logger) LSPClient
}

var lspDescriptorMap = map[string]LSPDescriptor{}

func init() {
	addDescriptor([]string{"go", "gopls"}, LSPDescriptor{
		ID: "go", Command: "gopls", Args: []string{"serve"}, LanguageID: "go", Extensions: []string{"go"},
		Builtin: func(opts ProxyOptions, logger *log.Logger) LSPClient {
			provider := NewGoSymbolProvider(opts.Root, logger)
			provider.Ignore = opts.Ignore
			return provider
		},
	})
	addDescriptor([]string{"rust", "rs", "rust-analyzer"}, LSPDescriptor{
		ID: "rust", Command: "rust-analyzer", LanguageID: "rust", Extensions: []string{"rs"},
	})
	addDescriptor([]string{"clang", "clangd", "c", "cpp", "cc"}, LSPDescriptor{
		ID: "clangd", Command: "clangd", LanguageID: "c", Extensions: []string{"c", "h", "cpp", "hpp", "cc", "cxx"},
	})
	addDescriptor([]string{"haskell", "hls"}, LSPDescriptor{
		ID: "haskell", Command: "haskell-language-server-wrapper", Args: []string{"--lsp"}, LanguageID: "haskell", Extensions: []string{"hs"},
	})
	addDescriptor([]string{"ts", "typescript"}, LSPDescriptor{
		ID: "ts", Command: "typescript-language-server", Args: []string{"--stdio"}, LanguageID: "typescript", Extensions: []string{"ts", "tsx"},
	})
	addDescriptor([]string{"js", "javascript"}, LSPDescriptor{
		ID: "javascript", Command: "typescript-language-server", Args: []string{"--stdio"}, LanguageID: "javascript", Extensions: []string{"js", "jsx"},
	})
	addDescriptor([]string{"lua"}, LSPDescriptor{
		ID: "lua", Command: "lua-language-server", LanguageID: "lua", Extensions: []string{"lua"},
	})
	addDescriptor([]string{"python", "py", "pylsp"}, LSPDescriptor{
		ID: "python", Command: "pylsp", LanguageID: "python", Extensions: []string{"py"},
	})
}

func addDescriptor(keys []string, desc LSPDescriptor) {
	for _, key := range keys {
		lspDescriptorMap[strings.ToLower(key)] = desc
	}
}

// LookupLSPDescriptor finds the descriptor for a given key/alias.
func LookupLSPDescriptor(language string) (LSPDescriptor, bool) {
	desc, ok := lspDescriptorMap[strings.ToLower(language)]
	return desc, ok
}

// SupportedLSPKeys lists known aliases in sorted order.
func SupportedLSPKeys() []string {
	keys := make([]string, 0, len(lspDescriptorMap))
	for key := range lspDescriptorMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SuggestLanguage returns the known alias closest to key, or "" when nothing
// is within two edits.
func SuggestLanguage(key string) string {
	key = strings.ToLower(key)
	best, bestDist := "", 3
	for _, candidate := range SupportedLSPKeys() {
		if dist := levenshtein.ComputeDistance(key, candidate); dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best
}

// UnknownLanguageError reports an unsupported language key.
func UnknownLanguageError(key string) error {
	if hint := SuggestLanguage(key); hint != "" {
		return fmt.Errorf("unsupported language %s (did you mean %s?)", key, hint)
	}
	return fmt.Errorf("unsupported language %s", key)
}

// InferLanguageByExtension returns a language key given a file path.
func InferLanguageByExtension(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, key := range SupportedLSPKeys() {
		desc := lspDescriptorMap[key]
		if key != desc.ID {
			continue
		}
		for _, candidate := range desc.Extensions {
			if candidate == ext {
				return desc.ID
			}
		}
	}
	return ext
}

// ProxyOptions configures NewProxyForLanguages.
type ProxyOptions struct {
	Root      string
	Overrides map[string]ServerOverride
	// Builtin forces built-in providers where the descriptor has one.
	Builtin bool
	// Ignore lists glob patterns built-in providers skip.
	Ignore []string
	Logger *log.Logger
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// NewProxyForLanguages starts one client per language and registers its
// extensions. Languages sharing a descriptor share the client. Cleanup closes
// every client.
func NewProxyForLanguages(ctx context.Context, languages []string, opts ProxyOptions) (*Proxy, func(), error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	proxy := NewProxy()
	cleanup := func() {
		if err := proxy.Close(); err != nil {
			logger.Printf("close language servers: %v", err)
		}
	}
	started := map[string]bool{}
	for _, language := range languages {
		desc, ok := LookupLSPDescriptor(language)
		if !ok {
			cleanup()
			return nil, nil, UnknownLanguageError(language)
		}
		if started[desc.ID] {
			continue
		}
		client, err := startClient(ctx, desc, opts, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		started[desc.ID] = true
		for _, ext := range desc.Extensions {
			proxy.Register(ext, client)
		}
	}
	return proxy, cleanup, nil
}

func startClient(ctx context.Context, desc LSPDescriptor, opts ProxyOptions, logger *log.Logger) (LSPClient, error) {
	command, args := desc.Command, desc.Args
	override, overridden := opts.Overrides[desc.ID]
	if overridden && override.Command != "" {
		command, args = override.Command, override.Args
	}
	if desc.Builtin != nil && (opts.Builtin || (!overridden && !installed(command))) {
		logger.Printf("using built-in %s symbols", desc.ID)
		return desc.Builtin(opts, logger), nil
	}
	if command == "" {
		return nil, errors.New("language server command required for " + desc.ID)
	}
	logger.Printf("starting %s: %s %s", desc.ID, command, strings.Join(args, " "))
	return NewProcessLSPClient(ctx, ProcessLSPConfig{
		Command:    command,
		Args:       args,
		RootDir:    opts.Root,
		LanguageID: desc.LanguageID,
		Logger:     logger,
	})
}

func installed(command string) bool {
	if command == "" {
		return false
	}
	_, err := lookPath(command)
	return err == nil
}
