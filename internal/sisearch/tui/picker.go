package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/lexcodex/sisearch/framework"
)

// pickerState renders one open session and translates keys into session
// transitions.
type pickerState struct {
	session *framework.Session
	input   textinput.Model
	items   []framework.Item
	cursor  int
	offset  int
}

func newPickerState(session *framework.Session) *pickerState {
	input := textinput.New()
	input.Placeholder = session.Scope().Placeholder()
	input.Prompt = "> "
	input.CharLimit = 256
	input.Focus()
	p := &pickerState{
		session: session,
		input:   input,
		items:   session.Items(),
	}
	p.activate()
	return p
}

// activate reports the highlighted row, if any, to the session.
func (p *pickerState) activate() {
	if len(p.items) == 0 {
		p.session.ActiveChanged(nil)
		return
	}
	p.session.ActiveChanged([]framework.Item{p.items[p.cursor]})
}

func (p *pickerState) selected() []framework.Item {
	if len(p.items) == 0 {
		return nil
	}
	return []framework.Item{p.items[p.cursor]}
}

func (p *pickerState) move(delta int) {
	if len(p.items) == 0 {
		return
	}
	next := p.cursor + delta
	if next < 0 {
		next = 0
	}
	if next >= len(p.items) {
		next = len(p.items) - 1
	}
	if next == p.cursor {
		return
	}
	p.cursor = next
	p.activate()
}

type pickerOutcome int

const (
	pickerContinue pickerOutcome = iota
	pickerAccepted
	pickerClosed
)

// handleKey applies msg and reports whether the session ended.
func (p *pickerState) handleKey(msg tea.KeyMsg) (pickerOutcome, tea.Cmd, error) {
	switch msg.String() {
	case "esc", "ctrl+c":
		p.session.Cancel()
		return pickerClosed, nil, nil
	case "enter":
		ok, err := p.session.Accept(p.selected())
		if !ok {
			return pickerContinue, nil, nil
		}
		return pickerAccepted, nil, err
	case "up", "ctrl+p", "shift+tab":
		p.move(-1)
		return pickerContinue, nil, nil
	case "down", "ctrl+n", "tab":
		p.move(1)
		return pickerContinue, nil, nil
	case "pgup":
		p.move(-10)
		return pickerContinue, nil, nil
	case "pgdown":
		p.move(10)
		return pickerContinue, nil, nil
	}
	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if value := p.input.Value(); value != before {
		p.items = p.session.SetQuery(value)
		p.cursor, p.offset = 0, 0
		p.activate()
	}
	return pickerContinue, cmd, nil
}

// render draws the query line and up to rows list entries.
func (p *pickerState) render(st styles, width, rows int) string {
	var out strings.Builder
	out.WriteString(st.title.Render(p.session.Scope().Placeholder()))
	out.WriteString(st.status.Render(" " + countLabel(len(p.items))))
	out.WriteByte('\n')
	out.WriteString(p.input.View())
	if rows < 1 {
		return out.String()
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+rows {
		p.offset = p.cursor - rows + 1
	}
	end := p.offset + rows
	if end > len(p.items) {
		end = len(p.items)
	}
	for i := p.offset; i < end; i++ {
		out.WriteByte('\n')
		out.WriteString(renderRow(st, p.items[i], i == p.cursor, p.session.Scope(), width))
	}
	return out.String()
}

func renderRow(st styles, item framework.Item, active bool, scope framework.Scope, width int) string {
	glyph := item.Symbol.Kind.Glyph()
	name := item.Symbol.Name
	detail := ""
	if scope == framework.ScopeWorkspace {
		detail = framework.FormatLocation(item.Target)
	} else if item.Symbol.Container != "" {
		detail = item.Symbol.Container
	}
	avail := width - 4 - runewidth.StringWidth(glyph) - 1
	if detail != "" {
		detail = runewidth.Truncate(detail, avail/2, "…")
		avail -= runewidth.StringWidth(detail) + 2
	}
	if avail < 1 {
		avail = 1
	}
	name = runewidth.Truncate(name, avail, "…")
	line := st.glyph.Render(glyph) + " " + name
	if detail != "" {
		line += "  " + st.location.Render(detail)
	}
	if active {
		return st.selected.String() + line
	}
	return st.row.Render(line)
}

func countLabel(n int) string {
	if n == 1 {
		return "1 symbol"
	}
	return strconv.Itoa(n) + " symbols"
}
