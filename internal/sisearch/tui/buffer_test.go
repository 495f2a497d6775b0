package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/sisearch/framework"
)

func TestBufferRevealCenterClamps(t *testing.T) {
	buffer, err := NewBuffer(writeLines(t, 30), framework.Position{}, "monokai")
	require.NoError(t, err)
	buffer.SetHeight(10)

	buffer.RevealCenter(framework.Collapsed(framework.Position{Line: 15}))
	require.Equal(t, 10, buffer.Top())
	buffer.RevealCenter(framework.Collapsed(framework.Position{Line: 2}))
	require.Equal(t, 0, buffer.Top())
	buffer.RevealCenter(framework.Collapsed(framework.Position{Line: 29}))
	require.Equal(t, 21, buffer.Top())
}

func TestBufferOpenSwitchesDocument(t *testing.T) {
	first := writeLines(t, 5)
	second := filepath.Join(t.TempDir(), "other.go")
	require.NoError(t, os.WriteFile(second, []byte("package other\n\nfunc Other() {}\n"), 0o644))

	buffer, err := NewBuffer(first, framework.Position{Line: 3}, "monokai")
	require.NoError(t, err)
	require.NoError(t, buffer.Open(framework.Location{Path: second}))
	require.Equal(t, second, buffer.Document())
	require.Equal(t, framework.Position{}, buffer.Caret())

	require.Error(t, buffer.Open(framework.Location{Path: filepath.Join(t.TempDir(), "missing.go")}))
	require.Equal(t, second, buffer.Document())
	require.Error(t, buffer.Open(framework.Location{}))
}

func TestBufferRenderMarksCaretAndDecorations(t *testing.T) {
	buffer, err := NewBuffer(writeLines(t, 5), framework.Position{Line: 1}, "monokai")
	require.NoError(t, err)
	buffer.SetHeight(3)
	d := buffer.Decorate(framework.Collapsed(framework.Position{Line: 2}), framework.DecorationWholeLine)

	out := buffer.Render(newStyles(true), 40)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], ">")
	require.Contains(t, lines[2], "line 2")
	require.Equal(t, d.Range().Start.Line, 2)

	d.Dispose()
	require.Zero(t, buffer.LiveDecorations())
}

func TestBufferMissingFile(t *testing.T) {
	_, err := NewBuffer(filepath.Join(t.TempDir(), "nope.txt"), framework.Position{}, "monokai")
	require.Error(t, err)
}

func TestRenderRowTruncatesToWidth(t *testing.T) {
	item := framework.Item{Symbol: framework.Symbol{Name: strings.Repeat("x", 80), Kind: framework.KindFunction}}
	row := renderRow(newStyles(false), item, false, framework.ScopeCurrentFile, 30)
	require.Contains(t, row, "…")
	require.Contains(t, row, framework.KindFunction.Glyph())
}

func TestHighlightLinesKeepsLineCount(t *testing.T) {
	source := "package main\n\nfunc main() {}\n"
	lines := highlightLines("main.go", source, "monokai")
	require.Len(t, lines, 4)
}
