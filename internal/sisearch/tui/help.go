package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# sisearch

## Picker

| Key | Action |
|---|---|
| type | filter; every word must appear in the name |
| up / down, ctrl+p / ctrl+n | move the highlight (previews in file scope) |
| enter | jump to the highlighted symbol |
| esc, ctrl+c | cancel and restore the view |

## Outline

| Key | Action |
|---|---|
| r | refresh from the language server |
| / | filter the outline |
| ? | toggle this help |
| q | quit |
`

type helpState struct {
	open     bool
	viewport viewport.Model
	rendered string
}

func newHelpState(dark bool) helpState {
	style := "light"
	if dark {
		style = "dark"
	}
	rendered := helpMarkdown
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(72),
	); err == nil {
		if out, err := renderer.Render(helpMarkdown); err == nil {
			rendered = out
		}
	}
	vp := viewport.New(80, 20)
	vp.SetContent(rendered)
	return helpState{viewport: vp, rendered: rendered}
}

func (h *helpState) resize(width, height int) {
	h.viewport.Width = width
	h.viewport.Height = height
}
