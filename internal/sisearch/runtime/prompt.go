package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/peterh/liner"
)

// LinePrompter prompts on the controlling terminal with an editable,
// pre-filled line. Ctrl+C and Ctrl+D dismiss the prompt.
type LinePrompter struct {
	// Out receives a newline after a dismissed prompt.
	Out io.Writer
}

// Prompt implements framework.Prompter.
func (p LinePrompter) Prompt(ctx context.Context, prompt, initial string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	value, err := line.PromptWithSuggestion(prompt+": ", initial, -1)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
		out := p.Out
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintln(out)
		return "", false, nil
	default:
		return "", false, err
	}
}

// WriterNotifier prints informational messages, one per line.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

// NewStderrNotifier reports on standard error.
func NewStderrNotifier() *WriterNotifier {
	return &WriterNotifier{W: os.Stderr}
}

// Info implements framework.Notifier.
func (n *WriterNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.W == nil {
		return
	}
	fmt.Fprintln(n.W, msg)
}
