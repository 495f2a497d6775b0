package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func outlineNames(items []OutlineItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestOutlineRefreshLoadsTopLevelNames(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	provider := &fakeProvider{docs: map[string][]DocumentSymbol{
		"main.go": {docSym("Server", 1, docSym("Start", 2)), docSym("main", 10)},
	}}
	outline := NewOutline(EditorFunc(func() (Editor, bool) { return editor, true }), provider, quietLogger)
	changes := 0
	outline.OnChange(func() { changes++ })

	require.NoError(t, outline.Refresh(context.Background()))
	require.Equal(t, []string{"Server", "main"}, outlineNames(outline.Items()))
	require.Equal(t, outline.All(), outline.Items())
	require.Equal(t, 1, changes)
}

func TestOutlineWithoutEditorIsEmpty(t *testing.T) {
	provider := &fakeProvider{}
	outline := NewOutline(EditorFunc(func() (Editor, bool) { return nil, false }), provider, quietLogger)
	changes := 0
	outline.OnChange(func() { changes++ })
	require.NoError(t, outline.Refresh(context.Background()))
	require.Empty(t, outline.Items())
	require.Equal(t, 0, provider.docCalls)
	require.Equal(t, 1, changes)
}

func TestOutlineFilterUsesMatcher(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	provider := &fakeProvider{docs: map[string][]DocumentSymbol{
		"main.go": {docSym("handleRequest", 1), docSym("RequestHandler", 5), docSym("main", 10)},
	}}
	outline := NewOutline(EditorFunc(func() (Editor, bool) { return editor, true }), provider, quietLogger)
	require.NoError(t, outline.Refresh(context.Background()))

	outline.Filter("handle REQ")
	require.Equal(t, []string{"handleRequest", "RequestHandler"}, outlineNames(outline.Items()))
	require.Equal(t, "handle REQ", outline.Query())
	require.Len(t, outline.All(), 3)

	outline.Filter("")
	require.Len(t, outline.Items(), 3)

	outline.Filter("main")
	require.NoError(t, outline.Refresh(context.Background()))
	require.Len(t, outline.Items(), 3)
	require.Empty(t, outline.Query())
}

func TestOutlineDropsStaleRefresh(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	provider := &fakeProvider{docs: map[string][]DocumentSymbol{
		"main.go": {docSym("old", 1)},
	}}
	outline := NewOutline(EditorFunc(func() (Editor, bool) { return editor, true }), provider, quietLogger)

	stale := outline.Begin()
	fresh := outline.Begin()

	provider.docs["main.go"] = []DocumentSymbol{docSym("new", 1)}
	require.NoError(t, fresh(context.Background()))
	require.Equal(t, []string{"new"}, outlineNames(outline.Items()))

	provider.docs["main.go"] = []DocumentSymbol{docSym("old", 1)}
	require.NoError(t, stale(context.Background()))
	require.Equal(t, []string{"new"}, outlineNames(outline.Items()))
}

func TestOutlineRefreshErrorKeepsState(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	provider := &fakeProvider{docs: map[string][]DocumentSymbol{"main.go": {docSym("keep", 1)}}}
	outline := NewOutline(EditorFunc(func() (Editor, bool) { return editor, true }), provider, quietLogger)
	require.NoError(t, outline.Refresh(context.Background()))

	provider.docErr = errors.New("server gone")
	require.Error(t, outline.Refresh(context.Background()))
	require.Equal(t, []string{"keep"}, outlineNames(outline.Items()))
}
