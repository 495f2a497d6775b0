package tools

import (
	"context"
	goast "go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lexcodex/sisearch/framework"
)

// skippedDirs are never walked for workspace symbols.
var skippedDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// GoSymbolProvider reads Go declarations with go/parser. It serves .go files
// when gopls is unavailable.
type GoSymbolProvider struct {
	Root string
	// Ignore holds glob patterns, relative to Root, excluded from the
	// workspace walk.
	Ignore []string
	Logger *log.Logger
}

// NewGoSymbolProvider returns a provider rooted at root.
func NewGoSymbolProvider(root string, logger *log.Logger) *GoSymbolProvider {
	if logger == nil {
		logger = log.Default()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &GoSymbolProvider{Root: root, Logger: logger}
}

// DocumentSymbols returns the top-level declarations of file. Struct fields,
// interface methods and methods declared in the same file nest under their
// type.
func (p *GoSymbolProvider) DocumentSymbols(ctx context.Context, file string) ([]framework.DocumentSymbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	src := &goSource{fset: token.NewFileSet(), text: text}
	parsed, err := parser.ParseFile(src.fset, file, text, parser.SkipObjectResolution)
	if parsed == nil {
		return nil, err
	}
	if err != nil {
		p.Logger.Printf("[go symbols] partial parse of %s: %v", file, err)
	}
	return goDeclarations(src, parsed), nil
}

// WorkspaceSymbols walks Root and returns every declaration whose name
// matches query. The empty query and "*" match everything.
func (p *GoSymbolProvider) WorkspaceSymbols(ctx context.Context, query string) ([]framework.WorkspaceSymbol, error) {
	if query == "*" {
		query = ""
	}
	result := []framework.WorkspaceSymbol{}
	err := filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if path != p.Root && (skippedDirs[name] || strings.HasPrefix(name, ".") || p.ignored(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || p.ignored(path) {
			return nil
		}
		symbols, parseErr := p.DocumentSymbols(ctx, path)
		if parseErr != nil {
			p.Logger.Printf("[go symbols] skip %s: %v", path, parseErr)
			return nil
		}
		collectWorkspaceSymbols(&result, path, "", symbols, query)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *GoSymbolProvider) ignored(path string) bool {
	if len(p.Ignore) == 0 {
		return false
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return false
	}
	return framework.MatchAnyGlob(p.Ignore, rel)
}

// Close is a no-op.
func (p *GoSymbolProvider) Close() error { return nil }

func collectWorkspaceSymbols(dst *[]framework.WorkspaceSymbol, path, container string, symbols []framework.DocumentSymbol, query string) {
	for _, sym := range symbols {
		if framework.Matches(query, sym.Name) {
			*dst = append(*dst, framework.WorkspaceSymbol{
				Name:          sym.Name,
				Kind:          sym.Kind,
				Location:      framework.Location{Path: path, Range: sym.SelectionRange},
				ContainerName: container,
			})
		}
		collectWorkspaceSymbols(dst, path, sym.Name, sym.Children, query)
	}
}

func goDeclarations(src *goSource, file *goast.File) []framework.DocumentSymbol {
	symbols := []framework.DocumentSymbol{}
	types := map[string]int{}
	for _, decl := range file.Decls {
		gen, ok := decl.(*goast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			switch s := spec.(type) {
			case *goast.TypeSpec:
				sym := goTypeSymbol(src, gen, s)
				types[s.Name.Name] = len(symbols)
				symbols = append(symbols, sym)
			case *goast.ValueSpec:
				kind := framework.KindVariable
				if gen.Tok == token.CONST {
					kind = framework.KindConstant
				}
				for _, name := range s.Names {
					if name.Name == "_" {
						continue
					}
					symbols = append(symbols, framework.DocumentSymbol{
						Name:           name.Name,
						Kind:           kind,
						Range:          nodeRange(src, s),
						SelectionRange: nodeRange(src, name),
					})
				}
			}
		}
	}
	var funcs []framework.DocumentSymbol
	for _, decl := range file.Decls {
		fn, ok := decl.(*goast.FuncDecl)
		if !ok {
			continue
		}
		sym := framework.DocumentSymbol{
			Name:           fn.Name.Name,
			Kind:           framework.KindFunction,
			Range:          nodeRange(src, fn),
			SelectionRange: nodeRange(src, fn.Name),
		}
		if fn.Recv == nil || len(fn.Recv.List) == 0 {
			funcs = append(funcs, sym)
			continue
		}
		sym.Kind = framework.KindMethod
		if idx, ok := types[receiverTypeName(fn.Recv.List[0].Type)]; ok {
			symbols[idx].Children = append(symbols[idx].Children, sym)
			continue
		}
		funcs = append(funcs, sym)
	}
	return sortedByLine(append(symbols, funcs...))
}

func goTypeSymbol(src *goSource, gen *goast.GenDecl, spec *goast.TypeSpec) framework.DocumentSymbol {
	rng := nodeRange(src, spec)
	if len(gen.Specs) == 1 {
		rng = nodeRange(src, gen)
	}
	sym := framework.DocumentSymbol{
		Name:           spec.Name.Name,
		Kind:           framework.KindClass,
		Range:          rng,
		SelectionRange: nodeRange(src, spec.Name),
	}
	switch t := spec.Type.(type) {
	case *goast.StructType:
		sym.Kind = framework.KindStruct
		sym.Children = fieldSymbols(src, t.Fields, framework.KindField)
	case *goast.InterfaceType:
		sym.Kind = framework.KindInterface
		sym.Children = fieldSymbols(src, t.Methods, framework.KindMethod)
	}
	return sym
}

func fieldSymbols(src *goSource, fields *goast.FieldList, kind framework.Kind) []framework.DocumentSymbol {
	if fields == nil {
		return nil
	}
	var out []framework.DocumentSymbol
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			name := receiverTypeName(field.Type)
			if name == "" {
				continue
			}
			embeddedKind := kind
			if _, isFunc := field.Type.(*goast.FuncType); !isFunc && kind == framework.KindMethod {
				embeddedKind = framework.KindInterface
			}
			out = append(out, framework.DocumentSymbol{
				Name:           name,
				Kind:           embeddedKind,
				Range:          nodeRange(src, field),
				SelectionRange: nodeRange(src, field.Type),
			})
			continue
		}
		for _, name := range field.Names {
			out = append(out, framework.DocumentSymbol{
				Name:           name.Name,
				Kind:           kind,
				Range:          nodeRange(src, field),
				SelectionRange: nodeRange(src, name),
			})
		}
	}
	return out
}

// receiverTypeName strips pointers, generic arguments and package selectors.
func receiverTypeName(expr goast.Expr) string {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name
	case *goast.StarExpr:
		return receiverTypeName(t.X)
	case *goast.IndexExpr:
		return receiverTypeName(t.X)
	case *goast.IndexListExpr:
		return receiverTypeName(t.X)
	case *goast.SelectorExpr:
		return t.Sel.Name
	case *goast.ParenExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

func nodeRange(src *goSource, node goast.Node) framework.Range {
	return framework.Range{
		Start: position(src, node.Pos()),
		End:   position(src, node.End()),
	}
}

// goSource pairs a parsed file with its bytes so columns can be reported in
// UTF-16 code units.
type goSource struct {
	fset *token.FileSet
	text []byte
}

func position(src *goSource, pos token.Pos) framework.Position {
	p := src.fset.Position(pos)
	line := max(p.Line-1, 0)
	start := p.Offset - (p.Column - 1)
	if p.Column < 1 || start < 0 || p.Offset > len(src.text) {
		return framework.Position{Line: line}
	}
	return framework.Position{Line: line, Character: utf16Len(src.text[start:p.Offset])}
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}

func sortedByLine(symbols []framework.DocumentSymbol) []framework.DocumentSymbol {
	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].Range.Start.Line < symbols[j].Range.Start.Line
	})
	return symbols
}
