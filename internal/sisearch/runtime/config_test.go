package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/sisearch/framework"
	"github.com/lexcodex/sisearch/tools"
)

func TestNormalizeResolvesPathsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Workspace: dir,
		LogPath:   "logs/out.log",
		Roots:     []string{"src", "/abs/lib"},
		Languages: []string{"Go, clangd", "go"},
	}
	require.NoError(t, cfg.Normalize())
	require.Equal(t, filepath.Join(dir, "logs", "out.log"), cfg.LogPath)
	require.Equal(t, []string{filepath.Join(dir, "src"), filepath.Clean("/abs/lib")}, cfg.Roots)
	require.Equal(t, []string{"go", "clangd"}, cfg.Languages)
	require.Equal(t, filepath.Join(dir, ".sisearch", "config.yaml"), cfg.ConfigPath)
	require.Equal(t, framework.DefaultCompileDBTool, cfg.CompileDB.Tool)
	require.Equal(t, framework.CompileDBVariantAll, cfg.CompileDB.Variant)
}

func TestNormalizeDefaultsRootsToWorkspace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace = t.TempDir()
	require.NoError(t, cfg.Normalize())
	require.Equal(t, []string{cfg.Workspace}, cfg.Roots)
	require.Equal(t, filepath.Join(cfg.Workspace, ".sisearch", "sisearch.log"), cfg.LogPath)
	require.True(t, cfg.Settings().EnablePreview)
}

func TestNormalizeRequiresWorkspace(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.Normalize())
}

func TestLoadWorkspaceConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`enable_preview: false
language: clangd
roots: [src, third_party]
ignore: ["**/*.pb.go"]
compdb:
  tool: jia
  variant: a
servers:
  clangd:
    command: /opt/clangd
    args: [--background-index]
`), 0o644))
	ws, err := LoadWorkspaceConfig(path)
	require.NoError(t, err)
	require.NotNil(t, ws.EnablePreview)
	require.False(t, *ws.EnablePreview)
	require.Equal(t, "clangd", ws.Language)
	require.Equal(t, []string{"src", "third_party"}, ws.Roots)
	require.Equal(t, []string{"**/*.pb.go"}, ws.Ignore)
	require.Equal(t, "a", ws.CompileDB.Variant)
	require.Equal(t, "/opt/clangd", ws.Servers["clangd"].Command)
	require.Equal(t, []string{"--background-index"}, ws.Servers["clangd"].Args)
}

func TestLoadWorkspaceConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`enable_preview = true
language = "go"
roots = ["."]

[compdb]
variant = "all"

[servers.go]
command = "gopls"
args = ["serve", "-rpc.trace"]
`), 0o644))
	ws, err := LoadWorkspaceConfig(path)
	require.NoError(t, err)
	require.True(t, *ws.EnablePreview)
	require.Equal(t, "all", ws.CompileDB.Variant)
	require.Equal(t, []string{"serve", "-rpc.trace"}, ws.Servers["go"].Args)
}

func TestLoadWorkspaceConfigMissing(t *testing.T) {
	_, err := LoadWorkspaceConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindWorkspaceConfigPrefersExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".sisearch"), 0o755))
	toml := filepath.Join(dir, ".sisearch", "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("language = \"go\"\n"), 0o644))
	require.Equal(t, toml, FindWorkspaceConfig(dir))
}

func TestApplyRespectsChangedFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workspace = dir
	require.NoError(t, cfg.Normalize())

	off := false
	ws := WorkspaceConfig{
		EnablePreview: &off,
		Language:      "rust",
		Roots:         []string{"crates"},
		CompileDB:     framework.CompileDBSettings{Variant: framework.CompileDBVariantShort},
		Servers:       map[string]tools.ServerOverride{"rs": {Command: "ra"}},
	}
	changed := map[string]bool{FlagLang: true}
	cfg.Apply(ws, func(flag string) bool { return changed[flag] })

	require.False(t, cfg.EnablePreview)
	require.Equal(t, []string{"go"}, cfg.Languages)
	require.Equal(t, []string{filepath.Join(dir, "crates")}, cfg.Roots)
	require.Equal(t, framework.CompileDBVariantShort, cfg.CompileDB.Variant)
	require.Equal(t, "ra", cfg.Servers["rust"].Command)
}

func TestSaveWorkspaceConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workspace = dir
	require.NoError(t, cfg.Normalize())
	path := filepath.Join(dir, ".sisearch", "config.yaml")
	require.NoError(t, SaveWorkspaceConfig(path, cfg.Snapshot()))

	ws, err := LoadWorkspaceConfig(path)
	require.NoError(t, err)
	require.True(t, *ws.EnablePreview)
	require.Equal(t, "go", ws.Language)
	require.Error(t, SaveWorkspaceConfig(filepath.Join(dir, "c.toml"), ws))
}
