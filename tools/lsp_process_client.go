package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/lexcodex/sisearch/framework"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// shutdownTimeout bounds the polite shutdown/exit exchange on Close.
const shutdownTimeout = 2 * time.Second

// ProcessLSPConfig defines the configuration for spinning up a language server process.
type ProcessLSPConfig struct {
	Command    string
	Args       []string
	RootDir    string
	LanguageID string
	Logger     *log.Logger
}

// ProcessLSPClient speaks LSP over a byte stream, usually a child process's
// stdio.
type ProcessLSPClient struct {
	cfg         ProcessLSPConfig
	cmd         *exec.Cmd
	conn        *jsonrpc2.Conn
	cancel      context.CancelFunc
	logger      *log.Logger
	mu          sync.Mutex
	openedFiles map[protocol.DocumentURI]bool
	closeOnce   sync.Once
}

// NewProcessLSPClient launches the configured language server and performs the LSP handshake.
func NewProcessLSPClient(ctx context.Context, cfg ProcessLSPConfig) (*ProcessLSPClient, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required for LSP client")
	}
	if cfg.LanguageID == "" {
		return nil, errors.New("language id is required for LSP client")
	}
	absRoot, err := absRoot(cfg.RootDir)
	if err != nil {
		return nil, err
	}
	cfg.RootDir = absRoot

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = absRoot

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}

	client := newStreamClient(procCtx, cancel, &stdioReadWriteCloser{reader: stdout, writer: stdin}, cfg)
	client.cmd = cmd
	go client.drainStderr(stderr)

	if err := client.initialize(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initialize %s: %w", cfg.Command, err)
	}
	return client, nil
}

// NewStreamLSPClient performs the LSP handshake over an existing stream.
// The client owns rwc and closes it on Close.
func NewStreamLSPClient(ctx context.Context, rwc io.ReadWriteCloser, cfg ProcessLSPConfig) (*ProcessLSPClient, error) {
	if cfg.LanguageID == "" {
		return nil, errors.New("language id is required for LSP client")
	}
	root, err := absRoot(cfg.RootDir)
	if err != nil {
		return nil, err
	}
	cfg.RootDir = root
	connCtx, cancel := context.WithCancel(context.Background())
	client := newStreamClient(connCtx, cancel, rwc, cfg)
	if err := client.initialize(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return client, nil
}

func absRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func newStreamClient(ctx context.Context, cancel context.CancelFunc, rwc io.ReadWriteCloser, cfg ProcessLSPConfig) *ProcessLSPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	client := &ProcessLSPClient{
		cfg:         cfg,
		cancel:      cancel,
		logger:      logger,
		openedFiles: make(map[protocol.DocumentURI]bool),
	}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	client.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(client.handle))
	return client
}

// handle answers server-initiated traffic. Requests the client does not
// implement get MethodNotFound, except the few servers block on.
func (c *ProcessLSPClient) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "window/logMessage", "window/showMessage":
		var params protocol.LogMessageParams
		if req.Params != nil && json.Unmarshal(*req.Params, &params) == nil {
			c.logger.Printf("[lsp %s] %s", c.cfg.LanguageID, params.Message)
		}
		return nil, nil
	case "window/workDoneProgress/create", "client/registerCapability", "client/unregisterCapability":
		return nil, nil
	case "workspace/configuration":
		var params protocol.ConfigurationParams
		if req.Params != nil && json.Unmarshal(*req.Params, &params) == nil {
			return make([]interface{}, len(params.Items)), nil
		}
		return []interface{}{}, nil
	}
	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
}

func (c *ProcessLSPClient) drainStderr(r io.Reader) {
	logger := log.New(c.logger.Writer(), c.logger.Prefix()+"["+c.cfg.Command+"] ", c.logger.Flags())
	_, _ = io.Copy(logWriter{logger}, r)
}

func (c *ProcessLSPClient) initialize(ctx context.Context) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(pathToURI(c.cfg.RootDir)),
		ClientInfo: &protocol.ClientInfo{
			Name:    "sisearch",
			Version: "0.1",
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
				},
			},
			Workspace: &protocol.WorkspaceClientCapabilities{
				Symbol: &protocol.WorkspaceClientCapabilitiesSymbol{},
			},
		},
	}
	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return c.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// Close asks the server to exit, then terminates the connection and process.
func (c *ProcessLSPClient) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		if c.conn != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := c.conn.Call(ctx, "shutdown", nil, nil); err == nil {
				_ = c.conn.Notify(ctx, "exit", nil)
			}
			cancel()
			_ = c.conn.Close()
		}
		if c.cancel != nil {
			c.cancel()
		}
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
			_, _ = c.cmd.Process.Wait()
		}
	})
	return nil
}

func (c *ProcessLSPClient) ensureOpen(ctx context.Context, file string) error {
	uri := protocol.DocumentURI(pathToURI(file))
	c.mu.Lock()
	if c.openedFiles[uri] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(c.cfg.LanguageID),
			Version:    1,
			Text:       string(data),
		},
	}
	if err := c.conn.Notify(ctx, "textDocument/didOpen", params); err != nil {
		return err
	}
	c.mu.Lock()
	c.openedFiles[uri] = true
	c.mu.Unlock()
	return nil
}

// DocumentSymbols returns the symbol tree of file. Servers answering with
// flat SymbolInformation lists get each entry as a childless root. A null
// response yields a nil slice.
func (c *ProcessLSPClient) DocumentSymbols(ctx context.Context, file string) ([]framework.DocumentSymbol, error) {
	if err := c.ensureOpen(ctx, file); err != nil {
		return nil, err
	}
	params := protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(pathToURI(file))},
	}
	var raw json.RawMessage
	if err := c.conn.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	return decodeDocumentSymbols(raw)
}

func decodeDocumentSymbols(raw json.RawMessage) ([]framework.DocumentSymbol, error) {
	if isNull(raw) {
		return nil, nil
	}
	var peek []struct {
		Location json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, fmt.Errorf("document symbol response not understood: %w", err)
	}
	if len(peek) > 0 && len(peek[0].Location) > 0 {
		var infos []protocol.SymbolInformation
		if err := json.Unmarshal(raw, &infos); err != nil {
			return nil, fmt.Errorf("document symbol response not understood: %w", err)
		}
		out := make([]framework.DocumentSymbol, 0, len(infos))
		for _, info := range infos {
			rng := convertRange(info.Location.Range)
			out = append(out, framework.DocumentSymbol{
				Name:           info.Name,
				Kind:           framework.Kind(int(info.Kind)),
				Range:          rng,
				SelectionRange: rng,
			})
		}
		return out, nil
	}
	var docs []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("document symbol response not understood: %w", err)
	}
	return convertDocumentSymbols(docs), nil
}

// WorkspaceSymbols runs workspace/symbol with query.
func (c *ProcessLSPClient) WorkspaceSymbols(ctx context.Context, query string) ([]framework.WorkspaceSymbol, error) {
	params := protocol.WorkspaceSymbolParams{Query: query}
	var raw json.RawMessage
	if err := c.conn.Call(ctx, "workspace/symbol", params, &raw); err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var resp []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("workspace symbol response not understood: %w", err)
	}
	result := make([]framework.WorkspaceSymbol, 0, len(resp))
	for _, sym := range resp {
		result = append(result, framework.WorkspaceSymbol{
			Name: sym.Name,
			Kind: framework.Kind(int(sym.Kind)),
			Location: framework.Location{
				Path:  uriToPath(string(sym.Location.URI)),
				Range: convertRange(sym.Location.Range),
			},
			ContainerName: sym.ContainerName,
		})
	}
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func convertDocumentSymbols(symbols []protocol.DocumentSymbol) []framework.DocumentSymbol {
	if symbols == nil {
		return nil
	}
	out := make([]framework.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, framework.DocumentSymbol{
			Name:           sym.Name,
			Kind:           framework.Kind(int(sym.Kind)),
			Range:          convertRange(sym.Range),
			SelectionRange: convertRange(sym.SelectionRange),
			Children:       convertDocumentSymbols(sym.Children),
		})
	}
	return out
}

func convertRange(r protocol.Range) framework.Range {
	return framework.Range{
		Start: framework.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   framework.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}

// logWriter forwards each written chunk to a logger line by line.
type logWriter struct {
	logger *log.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.logger.Print(line)
		}
	}
	return len(p), nil
}

func pathToURI(path string) string {
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ReplaceAll(path, "\\", "/")
		return "file:///" + strings.ReplaceAll(path, ":", "%3A")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func uriToPath(uri string) string {
	if parsed, err := url.Parse(uri); err == nil && parsed.Scheme == "file" {
		path := parsed.Path
		if runtime.GOOS == "windows" {
			path = strings.TrimPrefix(path, "/")
		}
		return filepath.FromSlash(path)
	}
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.ReplaceAll(uri, "%3A", ":")
	return filepath.FromSlash(uri)
}
