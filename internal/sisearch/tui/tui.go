package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/sisearch/framework"
	runtimesvc "github.com/lexcodex/sisearch/internal/sisearch/runtime"
)

// Mode enumerates the entry points.
type Mode int

const (
	ModeFile Mode = iota
	ModeWorkspace
	ModeOutline
)

// Options configure the Bubble Tea program.
type Options struct {
	Mode  Mode
	File  string
	Caret framework.Position
	// Watch refreshes the outline when the document changes on disk.
	Watch  bool
	Output io.Writer
}

// Result reports how the program ended.
type Result struct {
	Accepted *framework.Item
	// Messages are the informational messages shown while running.
	Messages []string
}

// Run launches the Bubble Tea UI over opts.File.
func Run(ctx context.Context, rt *runtimesvc.Runtime, opts Options) (Result, error) {
	st := detectStyles()
	buffer, err := NewBuffer(opts.File, opts.Caret, st.chroma)
	if err != nil {
		return Result{}, err
	}
	link := &bridge{}
	rt.Host.Editors = buffer
	rt.Host.Prompter = programPrompter{bridge: link}
	rt.Host.Notifier = programNotifier{bridge: link}
	rt.OnSession(func(s *framework.Session) {
		if !link.Send(sessionMsg{session: s}) {
			s.Cancel()
		}
	})
	rt.Outline.OnChange(func() { link.Send(outlineChangedMsg{}) })

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	m := newModel(ctx, rt, buffer, st, link, opts.Mode)
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithOutput(output),
		tea.WithReportFocus(),
	)
	link.bind(program.Send)

	if opts.Watch {
		watcher, err := newDocWatcher(rt.Logger)
		if err == nil {
			err = watcher.Watch(opts.File, func(msg fileChangedMsg) { link.Send(msg) })
		}
		if err != nil {
			rt.Logger.Printf("[watch] disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	final, err := program.Run()
	link.bind(nil)
	if fm, ok := final.(model); ok {
		if fm.prompt != nil {
			fm.prompt.dismiss()
		}
		if fm.picker != nil && !fm.picker.session.State().Terminal() {
			fm.picker.session.Cancel()
		}
		if err == nil {
			err = fm.err
		}
		return Result{Accepted: fm.accepted, Messages: fm.messages}, err
	}
	return Result{}, err
}

type sessionMsg struct {
	session *framework.Session
}

type commandDoneMsg struct {
	id  string
	err error
}

type outlineChangedMsg struct{}

type outlineEntry struct {
	name string
}

func (e outlineEntry) Title() string       { return e.name }
func (e outlineEntry) Description() string { return "" }
func (e outlineEntry) FilterValue() string { return e.name }

type model struct {
	ctx     context.Context
	runtime *runtimesvc.Runtime
	buffer  *Buffer
	styles  styles
	bridge  *bridge
	mode    Mode

	width  int
	height int

	picker  *pickerState
	outline list.Model
	prompt  *promptState
	help    helpState

	pending  int
	status   string
	failed   bool
	messages []string
	accepted *framework.Item
	err      error
}

func newModel(ctx context.Context, rt *runtimesvc.Runtime, buffer *Buffer, st styles, link *bridge, mode Mode) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	outline := list.New(nil, delegate, 30, 20)
	outline.Title = "Symbols"
	outline.SetFilteringEnabled(false)
	outline.SetShowHelp(false)
	outline.SetShowStatusBar(false)
	outline.DisableQuitKeybindings()
	return model{
		ctx:     ctx,
		runtime: rt,
		buffer:  buffer,
		styles:  st,
		bridge:  link,
		mode:    mode,
		outline: outline,
		help:    newHelpState(st.dark),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	switch m.mode {
	case ModeWorkspace:
		return m.execute(framework.CommandSearchWorkspaceSymbols)
	case ModeOutline:
		return m.refreshOutline()
	default:
		return m.execute(framework.CommandSearchDocSymbols)
	}
}

func (m model) execute(id string) tea.Cmd {
	ctx, rt := m.ctx, m.runtime
	return func() tea.Msg {
		return commandDoneMsg{id: id, err: rt.Execute(ctx, id)}
	}
}

// refreshOutline issues the refresh now so later ones supersede it, and
// fetches off the event loop.
func (m model) refreshOutline() tea.Cmd {
	fetch := m.runtime.Outline.Begin()
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg{id: framework.CommandOutlineRefresh, err: fetch(ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case sessionMsg:
		m.picker = newPickerState(msg.session)
		m.layout()
		return m, nil
	case commandDoneMsg:
		return m.commandDone(msg)
	case statusMsg:
		m.status, m.failed = string(msg), false
		m.messages = append(m.messages, string(msg))
		return m, nil
	case promptRequestMsg:
		if m.prompt != nil {
			m.prompt.dismiss()
		}
		m.prompt = newPromptState(msg, m.styles)
		return m, nil
	case outlineChangedMsg:
		return m, m.syncOutline()
	case fileChangedMsg:
		if err := m.buffer.Reload(); err != nil {
			m.status, m.failed = err.Error(), true
			return m, nil
		}
		if m.mode == ModeOutline {
			return m, m.refreshOutline()
		}
		return m, nil
	case tea.BlurMsg:
		if m.picker != nil {
			m.picker.session.Hide()
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) commandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.mode != ModeOutline {
			m.err = fmt.Errorf("%s: %w", msg.id, msg.err)
			return m, tea.Quit
		}
		m.status, m.failed = msg.err.Error(), true
		return m, nil
	}
	if m.mode != ModeOutline && m.picker == nil {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		done, cmd := m.prompt.handleKey(msg)
		if done {
			m.prompt = nil
		}
		return m, cmd
	}
	if m.help.open {
		switch msg.String() {
		case "?", "esc", "q":
			m.help.open = false
			return m, nil
		}
		var cmd tea.Cmd
		m.help.viewport, cmd = m.help.viewport.Update(msg)
		return m, cmd
	}
	if m.picker != nil {
		outcome, cmd, err := m.picker.handleKey(msg)
		switch outcome {
		case pickerAccepted:
			if item, ok := m.picker.session.Accepted(); ok {
				m.accepted = &item
			}
			m.err = err
			return m, tea.Quit
		case pickerClosed:
			return m, tea.Quit
		}
		return m, cmd
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.help.open = true
		return m, nil
	case "r":
		return m, m.refreshOutline()
	case "/":
		return m, m.execute(framework.CommandOutlineSearch)
	}
	var cmd tea.Cmd
	m.outline, cmd = m.outline.Update(msg)
	return m, cmd
}

func (m *model) syncOutline() tea.Cmd {
	entries := m.runtime.Outline.Items()
	items := make([]list.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, outlineEntry{name: entry.Name})
	}
	title := "Symbols"
	if query := m.runtime.Outline.Query(); query != "" {
		title = fmt.Sprintf("Symbols /%s", query)
	}
	m.outline.Title = title
	return m.outline.SetItems(items)
}

const pickerRows = 10

func (m *model) layout() {
	bufferHeight := m.height - 2
	if m.picker != nil {
		bufferHeight = m.height - pickerRows - 4
	}
	m.buffer.SetHeight(bufferHeight)
	m.outline.SetSize(m.sidebarWidth(), m.height-2)
	m.help.resize(m.width, m.height-2)
}

func (m model) sidebarWidth() int {
	w := m.width / 3
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) View() string {
	if m.help.open {
		return m.help.viewport.View() + "\n" + m.styles.status.Render("? or esc to close")
	}
	var body string
	switch {
	case m.picker != nil:
		body = m.picker.render(m.styles, m.width, pickerRows) + "\n" + m.buffer.Render(m.styles, m.width)
	case m.mode == ModeOutline:
		sidebar := m.styles.border.Render(m.outline.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", m.buffer.Render(m.styles, m.width-m.sidebarWidth()-2))
	default:
		body = m.styles.status.Render("Loading symbols...")
	}
	return body + "\n" + m.footer()
}

func (m model) footer() string {
	if m.prompt != nil {
		return m.prompt.input.View()
	}
	if m.failed && m.status != "" {
		return m.styles.status.Render(m.buffer.Document()+"  ·  ") + m.styles.err.Render(m.status)
	}
	parts := []string{m.buffer.Document()}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return m.styles.status.Render(strings.Join(parts, "  ·  "))
}
