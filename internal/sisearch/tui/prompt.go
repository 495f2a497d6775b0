package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// bridge carries messages from command goroutines into the program.
type bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func (b *bridge) bind(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *bridge) Send(msg tea.Msg) bool {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

type promptReply struct {
	value string
	ok    bool
}

type promptRequestMsg struct {
	prompt  string
	initial string
	reply   chan promptReply
}

type statusMsg string

// programPrompter asks for input through a modal line in the running
// program.
type programPrompter struct {
	bridge *bridge
}

func (p programPrompter) Prompt(ctx context.Context, prompt, initial string) (string, bool, error) {
	req := promptRequestMsg{prompt: prompt, initial: initial, reply: make(chan promptReply, 1)}
	if !p.bridge.Send(req) {
		return "", false, nil
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case reply := <-req.reply:
		return reply.value, reply.ok, nil
	}
}

// programNotifier shows messages in the status line.
type programNotifier struct {
	bridge *bridge
}

func (n programNotifier) Info(msg string) {
	n.bridge.Send(statusMsg(msg))
}

type promptState struct {
	req   promptRequestMsg
	input textinput.Model
}

func newPromptState(req promptRequestMsg, st styles) *promptState {
	input := textinput.New()
	input.Prompt = req.prompt + ": "
	input.PromptStyle = st.prompt
	input.SetValue(req.initial)
	input.CursorEnd()
	input.Focus()
	return &promptState{req: req, input: input}
}

// handleKey returns true once the prompt has been answered.
func (p *promptState) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "enter":
		p.req.reply <- promptReply{value: p.input.Value(), ok: true}
		return true, nil
	case "esc", "ctrl+c":
		p.req.reply <- promptReply{}
		return true, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return false, cmd
}

// dismiss answers an abandoned prompt so its caller never blocks.
func (p *promptState) dismiss() {
	select {
	case p.req.reply <- promptReply{}:
	default:
	}
}
