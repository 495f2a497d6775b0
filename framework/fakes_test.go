package framework

import (
	"context"
	"sync"
)

type fakeDecoration struct {
	rng      Range
	disposed bool
	owner    *fakeEditor
}

func (d *fakeDecoration) Range() Range { return d.rng }

func (d *fakeDecoration) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	d.owner.live--
}

type fakeEditor struct {
	document    string
	caret       Position
	reveals     []Range
	opened      []Location
	decorations []*fakeDecoration
	live        int
}

func newFakeEditor(document string, caret Position) *fakeEditor {
	return &fakeEditor{document: document, caret: caret}
}

func (e *fakeEditor) Document() string    { return e.document }
func (e *fakeEditor) Caret() Position     { return e.caret }
func (e *fakeEditor) SetCaret(p Position) { e.caret = p }
func (e *fakeEditor) RevealCenter(r Range) {
	e.reveals = append(e.reveals, r)
}

func (e *fakeEditor) Open(loc Location) error {
	e.opened = append(e.opened, loc)
	e.document = loc.Path
	return nil
}

func (e *fakeEditor) Decorate(r Range, _ DecorationStyle) Decoration {
	d := &fakeDecoration{rng: r, owner: e}
	e.decorations = append(e.decorations, d)
	e.live++
	return d
}

type fakeProvider struct {
	mu        sync.Mutex
	docs      map[string][]DocumentSymbol
	docErr    error
	workspace map[string][]WorkspaceSymbol
	queries   []string
	docCalls  int
}

func (p *fakeProvider) DocumentSymbols(_ context.Context, path string) ([]DocumentSymbol, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docCalls++
	if p.docErr != nil {
		return nil, p.docErr
	}
	return p.docs[path], nil
}

func (p *fakeProvider) WorkspaceSymbols(_ context.Context, query string) ([]WorkspaceSymbol, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	return p.workspace[query], nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Info(msg string) { n.messages = append(n.messages, msg) }

func sym(name string, line int, children ...Symbol) Symbol {
	return Symbol{
		Name:     name,
		Kind:     KindFunction,
		Range:    Range{Start: Position{Line: line}, End: Position{Line: line + 1}},
		Target:   Location{Path: "main.go", Range: Collapsed(Position{Line: line, Character: 5})},
		Children: children,
	}
}

func docSym(name string, line int, children ...DocumentSymbol) DocumentSymbol {
	return DocumentSymbol{
		Name:           name,
		Kind:           KindFunction,
		Range:          Range{Start: Position{Line: line}, End: Position{Line: line + 2}},
		SelectionRange: Range{Start: Position{Line: line, Character: 5}, End: Position{Line: line, Character: 5 + len(name)}},
		Children:       children,
	}
}

func names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Symbol.Name)
	}
	return out
}
