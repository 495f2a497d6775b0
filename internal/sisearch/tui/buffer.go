package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/lexcodex/sisearch/framework"
)

// Buffer is a read-only view of one document. It is the editor the picker
// and outline drive: the caret, the scroll position and the line
// decorations all live here.
type Buffer struct {
	mu          sync.Mutex
	path        string
	lines       []string
	highlighted []string
	caret       framework.Position
	top         int
	height      int
	decorations map[*lineDecoration]struct{}
	chromaStyle string
}

// NewBuffer loads path and reveals caret.
func NewBuffer(path string, caret framework.Position, chromaStyle string) (*Buffer, error) {
	b := &Buffer{
		caret:       caret,
		height:      20,
		decorations: make(map[*lineDecoration]struct{}),
		chromaStyle: chromaStyle,
	}
	if err := b.load(path); err != nil {
		return nil, err
	}
	b.reveal(framework.Collapsed(caret))
	return b, nil
}

func (b *Buffer) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	source := strings.ReplaceAll(string(data), "\r\n", "\n")
	b.path = path
	b.lines = strings.Split(source, "\n")
	b.highlighted = highlightLines(path, source, b.chromaStyle)
	return nil
}

// Reload re-reads the current document from disk.
func (b *Buffer) Reload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(b.path)
}

// ActiveEditor implements framework.EditorAccessor.
func (b *Buffer) ActiveEditor() (framework.Editor, bool) {
	if b == nil {
		return nil, false
	}
	return b, true
}

func (b *Buffer) Document() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

func (b *Buffer) Caret() framework.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caret
}

func (b *Buffer) SetCaret(p framework.Position) {
	b.mu.Lock()
	b.caret = p
	b.mu.Unlock()
}

// RevealCenter scrolls so r's first line sits in the middle of the view.
func (b *Buffer) RevealCenter(r framework.Range) {
	b.mu.Lock()
	b.reveal(r)
	b.mu.Unlock()
}

func (b *Buffer) reveal(r framework.Range) {
	top := r.Start.Line - b.height/2
	if limit := len(b.lines) - b.height; top > limit {
		top = limit
	}
	if top < 0 {
		top = 0
	}
	b.top = top
}

// Open switches the buffer to loc's document.
func (b *Buffer) Open(loc framework.Location) error {
	if loc.Path == "" {
		return errors.New("location has no path")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if loc.Path == b.path {
		return nil
	}
	if err := b.load(loc.Path); err != nil {
		return err
	}
	b.top = 0
	b.caret = framework.Position{}
	return nil
}

func (b *Buffer) Decorate(r framework.Range, style framework.DecorationStyle) framework.Decoration {
	d := &lineDecoration{buffer: b, rng: r}
	b.mu.Lock()
	b.decorations[d] = struct{}{}
	b.mu.Unlock()
	return d
}

// Top returns the first visible line.
func (b *Buffer) Top() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.top
}

// LiveDecorations counts decorations not yet disposed.
func (b *Buffer) LiveDecorations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.decorations)
}

// SetHeight sets the number of visible lines.
func (b *Buffer) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	b.mu.Lock()
	b.height = h
	b.mu.Unlock()
}

func (b *Buffer) decorated(line int) bool {
	for d := range b.decorations {
		if line >= d.rng.Start.Line && line <= d.rng.End.Line {
			return true
		}
	}
	return false
}

// Render draws the visible lines with a line-number gutter.
func (b *Buffer) Render(st styles, width int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	numWidth := len(fmt.Sprint(len(b.lines)))
	textWidth := width - numWidth - 3
	if textWidth < 1 {
		textWidth = 1
	}
	clip := lipgloss.NewStyle().MaxWidth(textWidth)
	var out strings.Builder
	end := b.top + b.height
	if end > len(b.lines) {
		end = len(b.lines)
	}
	for i := b.top; i < end; i++ {
		marker := " "
		if i == b.caret.Line {
			marker = st.caret.Render(">")
		}
		out.WriteString(st.gutter.Render(fmt.Sprintf("%*d", numWidth, i+1)))
		out.WriteString(marker + " ")
		if b.decorated(i) {
			text := runewidth.Truncate(expandTabs(b.lines[i]), textWidth, "…")
			out.WriteString(st.decoration.Render(runewidth.FillRight(text, textWidth)))
		} else if i < len(b.highlighted) {
			out.WriteString(clip.Render(expandTabs(b.highlighted[i])))
		} else {
			out.WriteString(runewidth.Truncate(expandTabs(b.lines[i]), textWidth, "…"))
		}
		if i < end-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

type lineDecoration struct {
	buffer *Buffer
	rng    framework.Range
}

func (d *lineDecoration) Range() framework.Range { return d.rng }

func (d *lineDecoration) Dispose() {
	d.buffer.mu.Lock()
	delete(d.buffer.decorations, d)
	d.buffer.mu.Unlock()
}
