package framework

import (
	"context"
	"log"
	"sync"
)

// OutlineItem is one entry of the outline list.
type OutlineItem struct {
	Name string
}

// Outline keeps the symbol names of the active document as a change
// notifying list. Refreshes may overlap; only the most recently issued one
// is applied.
type Outline struct {
	editors EditorAccessor
	symbols SymbolProvider
	logger  *log.Logger

	mu        sync.Mutex
	all       []OutlineItem
	filtered  []OutlineItem
	query     string
	issued    uint64
	listeners []func()
}

// NewOutline creates an empty outline. Call Refresh to load it.
func NewOutline(editors EditorAccessor, symbols SymbolProvider, logger *log.Logger) *Outline {
	if logger == nil {
		logger = log.Default()
	}
	return &Outline{
		editors: editors,
		symbols: symbols,
		logger:  logger,
	}
}

// OnChange registers fn to run after every change of the visible list.
func (o *Outline) OnChange(fn func()) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

// Refresh re-fetches the active document's symbols and waits for the result.
func (o *Outline) Refresh(ctx context.Context) error {
	return o.Begin()(ctx)
}

// Begin issues a refresh and returns the step that fetches and applies it.
// The returned function may run on another goroutine; its result is dropped
// if a newer refresh was issued in the meantime.
func (o *Outline) Begin() func(context.Context) error {
	o.mu.Lock()
	o.issued++
	gen := o.issued
	o.mu.Unlock()

	var editor Editor
	if o.editors != nil {
		if ed, ok := o.editors.ActiveEditor(); ok && ed != nil {
			editor = ed
		}
	}
	if editor == nil || o.symbols == nil {
		return func(context.Context) error {
			o.apply(gen, []OutlineItem{})
			return nil
		}
	}
	path := editor.Document()
	return func(ctx context.Context) error {
		symbols, err := o.symbols.DocumentSymbols(ctx, path)
		if err != nil {
			o.logger.Printf("[outline] refresh %s: %v", path, err)
			return err
		}
		items := make([]OutlineItem, 0, len(symbols))
		for _, sym := range symbols {
			items = append(items, OutlineItem{Name: sym.Name})
		}
		o.apply(gen, items)
		return nil
	}
}

func (o *Outline) apply(gen uint64, items []OutlineItem) {
	o.mu.Lock()
	if gen != o.issued {
		o.mu.Unlock()
		o.logger.Printf("[outline] dropped stale refresh %d (latest %d)", gen, o.issued)
		return
	}
	o.all = items
	o.filtered = items
	o.query = ""
	listeners := append([]func(){}, o.listeners...)
	o.mu.Unlock()
	notify(listeners)
}

// Filter narrows the visible list to names matching query.
func (o *Outline) Filter(query string) {
	o.mu.Lock()
	tokens := Tokenize(query)
	filtered := make([]OutlineItem, 0, len(o.all))
	for _, item := range o.all {
		if MatchTokens(tokens, item.Name) {
			filtered = append(filtered, item)
		}
	}
	o.filtered = filtered
	o.query = query
	listeners := append([]func(){}, o.listeners...)
	o.mu.Unlock()
	notify(listeners)
}

// Items returns the visible entries.
func (o *Outline) Items() []OutlineItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]OutlineItem(nil), o.filtered...)
}

// All returns every entry regardless of the filter.
func (o *Outline) All() []OutlineItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]OutlineItem(nil), o.all...)
}

// Query returns the active filter.
func (o *Outline) Query() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.query
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
