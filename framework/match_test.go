package framework

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	require.Empty(t, Tokenize(""))
	require.Empty(t, Tokenize("   \t "))
	require.Equal(t, []string{"foo", "bar"}, Tokenize("  Foo \t  BAR  "))
}

func TestMatches(t *testing.T) {
	cases := []struct {
		query string
		name  string
		want  bool
	}{
		{"Foo  bar", "xFooYbarZ", true},
		{"foo", "FOO", true},
		{"", "anything", true},
		{"   ", "anything", true},
		{"bar foo", "foobar", true},
		{"baz", "foobar", false},
		{"oba", "foobar", true},
		{"foo qux", "foobar", false},
		{" foo ", "foobar", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Matches(tc.query, tc.name), "%q vs %q", tc.query, tc.name)
	}
}

func TestMatchAddingTokenNeverWidens(t *testing.T) {
	candidates := []string{"fooBar", "bazFoo", "qux", "FooBarBaz", "barn"}
	base := []string{"foo"}
	narrower := []string{"foo", "bar"}
	for _, name := range candidates {
		if MatchTokens(narrower, name) {
			require.True(t, MatchTokens(base, name), name)
		}
	}
}
