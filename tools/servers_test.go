package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupLSPDescriptorAliases(t *testing.T) {
	desc, ok := LookupLSPDescriptor("GOPLS")
	require.True(t, ok)
	require.Equal(t, "go", desc.ID)
	require.Equal(t, []string{"serve"}, desc.Args)

	desc, ok = LookupLSPDescriptor("cpp")
	require.True(t, ok)
	require.Equal(t, "clangd", desc.Command)

	_, ok = LookupLSPDescriptor("cobol")
	require.False(t, ok)
}

func TestSuggestLanguage(t *testing.T) {
	require.Equal(t, "python", SuggestLanguage("pyton"))
	require.Equal(t, "gopls", SuggestLanguage("gopl"))
	require.Empty(t, SuggestLanguage("zzzzzzzz"))
	require.ErrorContains(t, UnknownLanguageError("pyton"), "did you mean python")
	require.NotContains(t, UnknownLanguageError("zzzzzzzz").Error(), "did you mean")
}

func TestInferLanguageByExtension(t *testing.T) {
	require.Equal(t, "go", InferLanguageByExtension("main.go"))
	require.Equal(t, "clangd", InferLanguageByExtension("/src/a.hpp"))
	require.Equal(t, "ts", InferLanguageByExtension("view.tsx"))
	require.Equal(t, "javascript", InferLanguageByExtension("app.js"))
	require.Equal(t, "md", InferLanguageByExtension("README.md"))
	require.Empty(t, InferLanguageByExtension("Makefile"))
}

func TestNewProxyForLanguagesFallsBackToBuiltin(t *testing.T) {
	original := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { lookPath = original })

	proxy, cleanup, err := NewProxyForLanguages(context.Background(), []string{"go", "gopls"}, ProxyOptions{
		Root:   t.TempDir(),
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	defer cleanup()
	require.Equal(t, []string{"go"}, proxy.Extensions())
	client, err := proxy.clientForFile("x.go")
	require.NoError(t, err)
	require.IsType(t, &GoSymbolProvider{}, client)
}

func TestNewProxyForLanguagesForcedBuiltin(t *testing.T) {
	proxy, cleanup, err := NewProxyForLanguages(context.Background(), []string{"go"}, ProxyOptions{
		Root:    t.TempDir(),
		Builtin: true,
		Ignore:  []string{"gen/**"},
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	defer cleanup()
	client, err := proxy.clientForFile("main.go")
	require.NoError(t, err)
	require.IsType(t, &GoSymbolProvider{}, client)
	require.Equal(t, []string{"gen/**"}, client.(*GoSymbolProvider).Ignore)
}

func TestNewProxyForLanguagesUnknown(t *testing.T) {
	_, _, err := NewProxyForLanguages(context.Background(), []string{"pyton"}, ProxyOptions{Logger: quietLogger()})
	require.ErrorContains(t, err, "did you mean python")
}
