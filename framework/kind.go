package framework

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind enumerates symbol kinds using LSP numbering.
type Kind int

const (
	KindFile Kind = iota + 1
	KindModule
	KindNamespace
	KindPackage
	KindClass
	KindMethod
	KindProperty
	KindField
	KindConstructor
	KindEnum
	KindInterface
	KindFunction
	KindVariable
	KindConstant
	KindString
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindKey
	KindNull
	KindEnumMember
	KindStruct
	KindEvent
	KindOperator
	KindTypeParameter
)

// MiscGlyph marks kinds outside the known set.
const MiscGlyph = "•"

type kindInfo struct {
	name  string
	glyph string
}

var kindTable = map[Kind]kindInfo{
	KindFile:          {"file", "≡"},
	KindModule:        {"module", "▣"},
	KindNamespace:     {"namespace", "§"},
	KindPackage:       {"package", "▤"},
	KindClass:         {"class", "◆"},
	KindMethod:        {"method", "ƒ"},
	KindProperty:      {"property", "◇"},
	KindField:         {"field", "◈"},
	KindConstructor:   {"constructor", "⊕"},
	KindEnum:          {"enum", "∈"},
	KindInterface:     {"interface", "◎"},
	KindFunction:      {"function", "λ"},
	KindVariable:      {"variable", "ν"},
	KindConstant:      {"constant", "π"},
	KindString:        {"string", "“"},
	KindNumber:        {"number", "#"},
	KindBoolean:       {"boolean", "◐"},
	KindArray:         {"array", "▥"},
	KindObject:        {"object", "○"},
	KindKey:           {"key", "⚷"},
	KindNull:          {"null", "∅"},
	KindEnumMember:    {"enum-member", "∋"},
	KindStruct:        {"struct", "▧"},
	KindEvent:         {"event", "↯"},
	KindOperator:      {"operator", "±"},
	KindTypeParameter: {"type-parameter", "τ"},
}

// Known reports whether k is part of the closed kind set.
func (k Kind) Known() bool {
	_, ok := kindTable[k]
	return ok
}

// Glyph returns the icon shown in front of a symbol name.
func (k Kind) Glyph() string {
	if info, ok := kindTable[k]; ok {
		return info.glyph
	}
	return MiscGlyph
}

// String returns the lower-case kind name, or "misc" for unknown values.
func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return "misc"
}

// Title renders the kind name for display, e.g. "Enum Member".
func (k Kind) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(k.String(), "-", " "))
}

// Kinds lists every known kind in numeric order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTable))
	for k := KindFile; k <= KindTypeParameter; k++ {
		out = append(out, k)
	}
	return out
}

// Label composes the picker label for a symbol.
func Label(sym Symbol) string {
	return sym.Kind.Glyph() + " " + sym.Name
}
