package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type styles struct {
	dark       bool
	title      lipgloss.Style
	prompt     lipgloss.Style
	row        lipgloss.Style
	selected   lipgloss.Style
	glyph      lipgloss.Style
	location   lipgloss.Style
	gutter     lipgloss.Style
	caret      lipgloss.Style
	decoration lipgloss.Style
	status     lipgloss.Style
	err        lipgloss.Style
	border     lipgloss.Style
	chroma     string
}

func newStyles(dark bool) styles {
	accent := lipgloss.Color("#0969da")
	muted := lipgloss.Color("#57606a")
	highlight := lipgloss.Color("#fff8c5")
	chromaStyle := "github"
	if dark {
		accent = lipgloss.Color("#58a6ff")
		muted = lipgloss.Color("#8b949e")
		highlight = lipgloss.Color("#3b3620")
		chromaStyle = "monokai"
	}
	return styles{
		dark:       dark,
		title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		prompt:     lipgloss.NewStyle().Foreground(accent),
		row:        lipgloss.NewStyle().PaddingLeft(2),
		selected:   lipgloss.NewStyle().Bold(true).Foreground(accent).SetString("› "),
		glyph:      lipgloss.NewStyle().Foreground(accent),
		location:   lipgloss.NewStyle().Foreground(muted),
		gutter:     lipgloss.NewStyle().Foreground(muted),
		caret:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		decoration: lipgloss.NewStyle().Background(highlight),
		status:     lipgloss.NewStyle().Foreground(muted).Italic(true),
		err:        lipgloss.NewStyle().Foreground(lipgloss.Color("#cf222e")).Bold(true),
		border:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(muted),
		chroma:     chromaStyle,
	}
}

// detectStyles picks the palette from the terminal background.
func detectStyles() styles {
	return newStyles(termenv.HasDarkBackground())
}

// highlightLines renders source with chroma and splits the result per line.
// It falls back to the plain lines when highlighting fails or changes the
// line count.
func highlightLines(path, source, styleName string) []string {
	plain := strings.Split(source, "\n")
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return plain
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return plain
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < len(plain) {
		return plain
	}
	return lines[:len(plain)]
}
