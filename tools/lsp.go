package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexcodex/sisearch/framework"
)

// LSPClient is a symbol source backed by a language server or a built-in
// parser.
type LSPClient interface {
	DocumentSymbols(ctx context.Context, file string) ([]framework.DocumentSymbol, error)
	WorkspaceSymbols(ctx context.Context, query string) ([]framework.WorkspaceSymbol, error)
	Close() error
}

// Proxy routes document requests to the client registered for the file's
// extension and fans workspace requests out to every distinct client.
type Proxy struct {
	mu      sync.RWMutex
	clients map[string]LSPClient
	order   []LSPClient
}

// NewProxy creates an empty proxy.
func NewProxy() *Proxy {
	return &Proxy{clients: make(map[string]LSPClient)}
}

// Register binds a client to a file extension (without the dot).
func (p *Proxy) Register(ext string, client LSPClient) {
	if client == nil {
		return
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[ext] = client
	for _, existing := range p.order {
		if existing == client {
			return
		}
	}
	p.order = append(p.order, client)
}

// Extensions lists the registered extensions.
func (p *Proxy) Extensions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.clients))
	for ext := range p.clients {
		out = append(out, ext)
	}
	return out
}

func (p *Proxy) clientForFile(file string) (LSPClient, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[ext]
	if !ok {
		return nil, fmt.Errorf("no LSP client for extension %s", ext)
	}
	return client, nil
}

// DocumentSymbols implements framework.SymbolProvider.
func (p *Proxy) DocumentSymbols(ctx context.Context, file string) ([]framework.DocumentSymbol, error) {
	client, err := p.clientForFile(file)
	if err != nil {
		return nil, err
	}
	return client.DocumentSymbols(ctx, file)
}

// WorkspaceSymbols implements framework.SymbolProvider. Results keep client
// registration order. A nil result means no client reported anything.
func (p *Proxy) WorkspaceSymbols(ctx context.Context, query string) ([]framework.WorkspaceSymbol, error) {
	p.mu.RLock()
	clients := append([]LSPClient(nil), p.order...)
	p.mu.RUnlock()
	if len(clients) == 0 {
		return nil, errors.New("no LSP clients registered")
	}
	var result []framework.WorkspaceSymbol
	var errs []error
	for _, client := range clients {
		symbols, err := client.WorkspaceSymbols(ctx, query)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if symbols != nil && result == nil {
			result = make([]framework.WorkspaceSymbol, 0, len(symbols))
		}
		result = append(result, symbols...)
	}
	if result == nil && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}

// Close shuts down every registered client.
func (p *Proxy) Close() error {
	p.mu.Lock()
	clients := p.order
	p.order = nil
	p.clients = make(map[string]LSPClient)
	p.mu.Unlock()
	var errs []error
	for _, client := range clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
