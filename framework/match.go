package framework

import "strings"

// Tokenize lower-cases the query and splits it on runs of whitespace. A blank
// query yields no tokens.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchTokens reports whether every token occurs in name, ignoring case.
// Tokens are expected to be lower-case already, as produced by Tokenize.
func MatchTokens(tokens []string, name string) bool {
	if len(tokens) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, tok := range tokens {
		if !strings.Contains(lower, tok) {
			return false
		}
	}
	return true
}

// Matches reports whether name satisfies every whitespace-separated token of
// query. Token order does not matter.
func Matches(query, name string) bool {
	return MatchTokens(Tokenize(query), name)
}

// FilterSymbols keeps the symbols whose names match query, preserving order.
func FilterSymbols(query string, symbols []Symbol) []Symbol {
	tokens := Tokenize(query)
	out := make([]Symbol, 0, len(symbols))
	for _, sym := range symbols {
		if MatchTokens(tokens, sym.Name) {
			out = append(out, sym)
		}
	}
	return out
}
