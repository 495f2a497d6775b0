package runtime

import (
	"errors"
	"sync"

	"github.com/lexcodex/sisearch/framework"
)

// DocumentEditor is a headless editor over one document at a time. It keeps
// the caret and the last revealed range but draws nothing.
type DocumentEditor struct {
	mu          sync.Mutex
	path        string
	caret       framework.Position
	revealed    framework.Range
	decorations map[*documentDecoration]struct{}
}

// NewDocumentEditor opens path with the caret at caret.
func NewDocumentEditor(path string, caret framework.Position) *DocumentEditor {
	return &DocumentEditor{
		path:        path,
		caret:       caret,
		revealed:    framework.Collapsed(caret),
		decorations: make(map[*documentDecoration]struct{}),
	}
}

// ActiveEditor implements framework.EditorAccessor.
func (e *DocumentEditor) ActiveEditor() (framework.Editor, bool) {
	if e == nil || e.Document() == "" {
		return nil, false
	}
	return e, true
}

func (e *DocumentEditor) Document() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

func (e *DocumentEditor) Caret() framework.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caret
}

func (e *DocumentEditor) SetCaret(p framework.Position) {
	e.mu.Lock()
	e.caret = p
	e.mu.Unlock()
}

func (e *DocumentEditor) RevealCenter(r framework.Range) {
	e.mu.Lock()
	e.revealed = r
	e.mu.Unlock()
}

// Revealed returns the range last scrolled into view.
func (e *DocumentEditor) Revealed() framework.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revealed
}

func (e *DocumentEditor) Open(loc framework.Location) error {
	if loc.Path == "" {
		return errors.New("location has no path")
	}
	e.mu.Lock()
	e.path = loc.Path
	e.mu.Unlock()
	return nil
}

func (e *DocumentEditor) Decorate(r framework.Range, style framework.DecorationStyle) framework.Decoration {
	d := &documentDecoration{editor: e, rng: r}
	e.mu.Lock()
	e.decorations[d] = struct{}{}
	e.mu.Unlock()
	return d
}

// LiveDecorations counts decorations not yet disposed.
func (e *DocumentEditor) LiveDecorations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.decorations)
}

type documentDecoration struct {
	editor *DocumentEditor
	rng    framework.Range
}

func (d *documentDecoration) Range() framework.Range { return d.rng }

func (d *documentDecoration) Dispose() {
	d.editor.mu.Lock()
	delete(d.editor.decorations, d)
	d.editor.mu.Unlock()
}
