package framework

// Position follows the LSP specification: zero-based line and character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range describes a span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Collapsed returns a zero-width range at p.
func Collapsed(p Position) Range {
	return Range{Start: p, End: p}
}

// Location describes a file and range.
type Location struct {
	Path  string `json:"path"`
	Range Range  `json:"range"`
}

// Symbol is the normalized record every component operates on, whichever
// provider shape it was ingested from.
type Symbol struct {
	Name      string
	Kind      Kind
	Range     Range
	Target    Location
	Children  []Symbol
	Container string
}

// RawSymbol is one of the two shapes a provider reports: DocumentSymbol or
// WorkspaceSymbol.
type RawSymbol interface {
	rawSymbol()
}

// DocumentSymbol is a node of the symbol tree reported for one document.
type DocumentSymbol struct {
	Name           string
	Kind           Kind
	Range          Range
	SelectionRange Range
	Children       []DocumentSymbol
}

// WorkspaceSymbol is a flat workspace-wide search hit.
type WorkspaceSymbol struct {
	Name          string
	Kind          Kind
	Location      Location
	ContainerName string
}

func (DocumentSymbol) rawSymbol()  {}
func (WorkspaceSymbol) rawSymbol() {}

// Normalize converts a raw provider symbol into a Symbol. path names the
// document a DocumentSymbol belongs to and is ignored for workspace symbols.
func Normalize(raw RawSymbol, path string) Symbol {
	switch sym := raw.(type) {
	case DocumentSymbol:
		out := Symbol{
			Name:   sym.Name,
			Kind:   sym.Kind,
			Range:  sym.Range,
			Target: Location{Path: path, Range: sym.SelectionRange},
		}
		if len(sym.Children) > 0 {
			out.Children = FromDocumentSymbols(path, sym.Children)
		}
		return out
	case WorkspaceSymbol:
		return Symbol{
			Name:      sym.Name,
			Kind:      sym.Kind,
			Range:     sym.Location.Range,
			Target:    sym.Location,
			Container: sym.ContainerName,
		}
	default:
		return Symbol{}
	}
}

// FromDocumentSymbols normalizes a document symbol tree, keeping its nesting.
func FromDocumentSymbols(path string, roots []DocumentSymbol) []Symbol {
	out := make([]Symbol, 0, len(roots))
	for _, sym := range roots {
		out = append(out, Normalize(sym, path))
	}
	return out
}

// FromWorkspaceSymbols normalizes a flat workspace symbol list in provider order.
func FromWorkspaceSymbols(list []WorkspaceSymbol) []Symbol {
	out := make([]Symbol, 0, len(list))
	for _, sym := range list {
		out = append(out, Normalize(sym, ""))
	}
	return out
}
