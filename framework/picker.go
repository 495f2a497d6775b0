package framework

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Scope selects where a picker session sources its symbols.
type Scope int

const (
	ScopeCurrentFile Scope = iota
	ScopeWorkspace
)

// Placeholder is the hint shown in an empty query box.
func (s Scope) Placeholder() string {
	if s == ScopeWorkspace {
		return "Search symbols in Workspace"
	}
	return "Search symbols in current file"
}

func (s Scope) String() string {
	if s == ScopeWorkspace {
		return "workspace"
	}
	return "file"
}

// SessionState tracks the lifecycle of one picker session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateOpen
	StateAccepted
	StateCancelled
	StateHidden
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateAccepted:
		return "accepted"
	case StateCancelled:
		return "cancelled"
	case StateHidden:
		return "hidden"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateAccepted || s == StateCancelled || s == StateHidden
}

// Item is one row of the picker list.
type Item struct {
	Label   string
	Symbol  Symbol
	Preview Range
	Target  Location
}

func newItem(sym Symbol) Item {
	return Item{
		Label:   Label(sym),
		Symbol:  sym,
		Preview: sym.Range,
		Target:  sym.Target,
	}
}

// SessionOptions configures a picker session.
type SessionOptions struct {
	Scope Scope
	// Symbols are the candidates in display order. Current-file callers pass
	// the flattened list.
	Symbols       []Symbol
	Editor        Editor
	EnablePreview bool
	Logger        *log.Logger
	// OnDispose releases UI resources owned outside the session. It runs once
	// on the first terminal transition.
	OnDispose func()
}

// Session is the state machine behind one interactive symbol search. Its
// methods are meant to be called from a single event loop.
type Session struct {
	ID string

	scope      Scope
	editor     Editor
	restore    bool
	preview    bool
	candidates []Symbol
	items      []Item
	query      string
	state      SessionState
	origin     Position

	activations int
	decoration  Decoration
	onDispose   func()
	logger      *log.Logger

	accepted *Item
}

// NewSession builds an idle session. Call Open to populate it.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	candidates := make([]Symbol, len(opts.Symbols))
	copy(candidates, opts.Symbols)
	return &Session{
		ID:         uuid.NewString(),
		scope:      opts.Scope,
		editor:     opts.Editor,
		restore:    opts.EnablePreview,
		preview:    opts.EnablePreview && opts.Scope == ScopeCurrentFile,
		candidates: candidates,
		state:      StateIdle,
		onDispose:  opts.OnDispose,
		logger:     logger,
	}
}

// Open records the caret position and shows the unfiltered list.
func (s *Session) Open() []Item {
	if s.state != StateIdle {
		return s.Items()
	}
	if s.editor != nil {
		s.origin = s.editor.Caret()
	}
	s.state = StateOpen
	s.items = s.filter("")
	s.logger.Printf("[picker %s] open scope=%s candidates=%d preview=%t", s.ID, s.scope, len(s.candidates), s.preview)
	return s.Items()
}

// SetQuery re-filters every candidate against query and replaces the list.
func (s *Session) SetQuery(query string) []Item {
	if s.state != StateOpen {
		return s.Items()
	}
	s.query = query
	s.items = s.filter(query)
	return s.Items()
}

func (s *Session) filter(query string) []Item {
	matches := FilterSymbols(query, s.candidates)
	items := make([]Item, 0, len(matches))
	for _, sym := range matches {
		items = append(items, newItem(sym))
	}
	return items
}

// ActiveChanged reacts to a change of the highlighted row. The first
// activation reflects the default highlight and never previews.
func (s *Session) ActiveChanged(active []Item) {
	if s.state != StateOpen || !s.preview || len(active) == 0 {
		return
	}
	s.activations++
	if s.activations == 1 {
		return
	}
	s.disposeDecoration()
	if s.editor == nil {
		return
	}
	target := active[0].Preview
	s.decoration = s.editor.Decorate(target, DecorationWholeLine)
	s.editor.RevealCenter(target)
}

// Accept jumps to the first selected item and closes the session. It reports
// false and changes nothing when the selection is empty.
func (s *Session) Accept(selected []Item) (bool, error) {
	if s.state != StateOpen || len(selected) == 0 {
		return false, nil
	}
	item := selected[0]
	s.accepted = &item
	s.state = StateAccepted
	var err error
	if s.editor != nil {
		err = s.jump(item.Target)
	}
	s.dispose()
	s.logger.Printf("[picker %s] accept %q at %s", s.ID, item.Symbol.Name, FormatLocation(item.Target))
	return true, err
}

func (s *Session) jump(loc Location) error {
	if loc.Path != "" && loc.Path != s.editor.Document() {
		if err := s.editor.Open(loc); err != nil {
			return fmt.Errorf("open %s: %w", loc.Path, err)
		}
	}
	start := loc.Range.Start
	s.editor.SetCaret(start)
	s.editor.RevealCenter(Collapsed(start))
	return nil
}

// Cancel dismisses the session explicitly without accepting.
func (s *Session) Cancel() {
	s.close(StateCancelled)
}

// Hide dismisses the session because the picker lost focus.
func (s *Session) Hide() {
	s.close(StateHidden)
}

func (s *Session) close(state SessionState) {
	if s.state.Terminal() {
		return
	}
	wasOpen := s.state == StateOpen
	s.state = state
	if wasOpen && s.restore && s.editor != nil {
		s.editor.RevealCenter(Collapsed(s.origin))
	}
	s.dispose()
	s.logger.Printf("[picker %s] %s", s.ID, state)
}

func (s *Session) dispose() {
	s.disposeDecoration()
	if s.onDispose != nil {
		fn := s.onDispose
		s.onDispose = nil
		fn()
	}
}

func (s *Session) disposeDecoration() {
	if s.decoration != nil {
		s.decoration.Dispose()
		s.decoration = nil
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Scope returns where the candidates came from.
func (s *Session) Scope() Scope { return s.scope }

// Query returns the last query applied.
func (s *Session) Query() string { return s.query }

// Origin returns the caret position recorded when the session opened.
func (s *Session) Origin() Position { return s.origin }

// PreviewEnabled reports whether highlighted rows are previewed.
func (s *Session) PreviewEnabled() bool { return s.preview }

// Decoration returns the live preview decoration, if any.
func (s *Session) Decoration() Decoration { return s.decoration }

// Accepted returns the accepted item once the session reaches StateAccepted.
func (s *Session) Accepted() (Item, bool) {
	if s.accepted == nil {
		return Item{}, false
	}
	return *s.accepted, true
}

// Items returns a copy of the displayed list.
func (s *Session) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// FormatLocation renders loc as path:line:column with one-based numbers.
func FormatLocation(loc Location) string {
	return fmt.Sprintf("%s:%d:%d", loc.Path, loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}
