package framework

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

var quietLogger = log.New(io.Discard, "", 0)

func newTestSession(editor *fakeEditor, scope Scope, preview bool) *Session {
	symbols := Flatten([]Symbol{sym("fooBar", 10), sym("bazFoo", 3), sym("qux", 7)})
	return NewSession(SessionOptions{
		Scope:         scope,
		Symbols:       symbols,
		Editor:        editor,
		EnablePreview: preview,
		Logger:        quietLogger,
	})
}

func TestSessionOpenShowsEverything(t *testing.T) {
	editor := newFakeEditor("main.go", Position{Line: 4, Character: 2})
	s := newTestSession(editor, ScopeCurrentFile, true)
	require.Equal(t, StateIdle, s.State())

	items := s.Open()
	require.Equal(t, StateOpen, s.State())
	require.Equal(t, []string{"bazFoo", "qux", "fooBar"}, names(items))
	require.Equal(t, KindFunction.Glyph()+" bazFoo", items[0].Label)
	require.Equal(t, Position{Line: 4, Character: 2}, s.Origin())
	require.NotEmpty(t, s.ID)
}

func TestSessionSetQueryIsIdempotent(t *testing.T) {
	s := newTestSession(newFakeEditor("main.go", Position{}), ScopeCurrentFile, true)
	s.Open()
	first := s.SetQuery("foo")
	require.Equal(t, []string{"bazFoo", "fooBar"}, names(first))
	second := s.SetQuery("foo")
	require.Equal(t, first, second)
	require.Equal(t, "foo", s.Query())

	require.Empty(t, s.SetQuery("nothing"))
	require.Len(t, s.SetQuery(""), 3)
}

func TestSessionFirstActivationDoesNotPreview(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	s := newTestSession(editor, ScopeCurrentFile, true)
	items := s.Open()

	s.ActiveChanged(items[:1])
	require.Empty(t, editor.decorations)
	require.Nil(t, s.Decoration())

	s.ActiveChanged(items[1:2])
	require.Len(t, editor.decorations, 1)
	require.Equal(t, 1, editor.live)
	require.Equal(t, items[1].Preview, editor.decorations[0].Range())
	require.Equal(t, items[1].Preview, editor.reveals[len(editor.reveals)-1])

	s.ActiveChanged(items[2:3])
	require.Len(t, editor.decorations, 2)
	require.True(t, editor.decorations[0].disposed)
	require.Equal(t, 1, editor.live)
}

func TestSessionActiveChangedIgnoresEmpty(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	s := newTestSession(editor, ScopeCurrentFile, true)
	items := s.Open()
	s.ActiveChanged(nil)
	s.ActiveChanged(items[:1])
	require.Empty(t, editor.decorations)
}

func TestSessionPreviewGatedOnScopeAndSetting(t *testing.T) {
	for _, tc := range []struct {
		scope   Scope
		preview bool
	}{
		{ScopeWorkspace, true},
		{ScopeCurrentFile, false},
	} {
		editor := newFakeEditor("main.go", Position{})
		s := newTestSession(editor, tc.scope, tc.preview)
		items := s.Open()
		s.ActiveChanged(items[:1])
		s.ActiveChanged(items[1:2])
		s.ActiveChanged(items[2:3])
		require.Empty(t, editor.decorations)
		require.False(t, s.PreviewEnabled())
	}
}

func TestSessionAcceptWithoutSelectionIsNoop(t *testing.T) {
	editor := newFakeEditor("main.go", Position{Line: 1})
	s := newTestSession(editor, ScopeCurrentFile, true)
	s.Open()
	s.SetQuery("foo")

	ok, err := s.Accept(nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateOpen, s.State())
	require.Equal(t, "foo", s.Query())
	require.Equal(t, Position{Line: 1}, editor.caret)
	require.Empty(t, editor.reveals)
}

func TestSessionAcceptJumpsAndDisposes(t *testing.T) {
	editor := newFakeEditor("main.go", Position{Line: 1})
	disposed := 0
	s := NewSession(SessionOptions{
		Scope:         ScopeCurrentFile,
		Symbols:       []Symbol{sym("alpha", 2), sym("beta", 9)},
		Editor:        editor,
		EnablePreview: true,
		Logger:        quietLogger,
		OnDispose:     func() { disposed++ },
	})
	items := s.Open()
	s.ActiveChanged(items[:1])
	s.ActiveChanged(items[1:2])
	require.Equal(t, 1, editor.live)

	ok, err := s.Accept(items[1:2])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateAccepted, s.State())
	require.Equal(t, Position{Line: 9, Character: 5}, editor.caret)
	require.Equal(t, Collapsed(Position{Line: 9, Character: 5}), editor.reveals[len(editor.reveals)-1])
	require.Equal(t, 0, editor.live)
	require.Equal(t, 1, disposed)
	require.Empty(t, editor.opened)

	accepted, ok := s.Accepted()
	require.True(t, ok)
	require.Equal(t, "beta", accepted.Symbol.Name)

	reveals := len(editor.reveals)
	s.Cancel()
	require.Equal(t, StateAccepted, s.State())
	require.Len(t, editor.reveals, reveals)
	require.Equal(t, 1, disposed)
}

func TestSessionAcceptOpensOtherDocument(t *testing.T) {
	editor := newFakeEditor("main.go", Position{})
	target := Location{Path: "other.go", Range: Collapsed(Position{Line: 3, Character: 1})}
	s := NewSession(SessionOptions{
		Scope:   ScopeWorkspace,
		Symbols: []Symbol{{Name: "Other", Kind: KindStruct, Range: target.Range, Target: target}},
		Editor:  editor,
		Logger:  quietLogger,
	})
	items := s.Open()
	ok, err := s.Accept(items)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []Location{target}, editor.opened)
	require.Equal(t, Position{Line: 3, Character: 1}, editor.caret)
}

func TestSessionCancelRestoresView(t *testing.T) {
	origin := Position{Line: 42, Character: 7}
	editor := newFakeEditor("main.go", origin)
	s := newTestSession(editor, ScopeCurrentFile, true)
	items := s.Open()
	s.SetQuery("foo")
	s.ActiveChanged(items[:1])
	s.ActiveChanged(items[1:2])

	s.Cancel()
	require.Equal(t, StateCancelled, s.State())
	require.Equal(t, Collapsed(origin), editor.reveals[len(editor.reveals)-1])
	require.Equal(t, 0, editor.live)
	require.Equal(t, origin, editor.caret)
}

func TestSessionCancelWithoutPreviewLeavesView(t *testing.T) {
	editor := newFakeEditor("main.go", Position{Line: 42})
	s := newTestSession(editor, ScopeCurrentFile, false)
	s.Open()
	s.SetQuery("foo")
	s.Cancel()
	require.Equal(t, StateCancelled, s.State())
	require.Empty(t, editor.reveals)
}

func TestSessionHide(t *testing.T) {
	editor := newFakeEditor("main.go", Position{Line: 2})
	s := newTestSession(editor, ScopeCurrentFile, true)
	s.Open()
	s.Hide()
	require.Equal(t, StateHidden, s.State())
	require.True(t, s.State().Terminal())
	require.Equal(t, []Range{Collapsed(Position{Line: 2})}, editor.reveals)

	require.Len(t, s.SetQuery("zzz"), 3)
	require.Empty(t, s.Query())
	ok, _ := s.Accept(s.Items())
	require.False(t, ok)
}
