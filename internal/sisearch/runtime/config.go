package runtime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/sisearch/framework"
	"github.com/lexcodex/sisearch/tools"
)

const configDir = ".sisearch"

// Config captures every knob shared across the sisearch commands. Flags bind
// directly onto its fields.
type Config struct {
	Workspace     string
	ConfigPath    string
	LogPath       string
	Roots         []string
	Languages     []string
	EnablePreview bool
	// Builtin forces the go/parser provider for Go files.
	Builtin bool
	// Ignore lists glob patterns the built-in provider skips.
	Ignore    []string
	CompileDB framework.CompileDBSettings
	Servers   map[string]tools.ServerOverride
}

// DefaultConfig infers sensible defaults based on the current working
// directory. Errors from os.Getwd are ignored so callers can override manually.
// The log path is derived from the workspace by Normalize.
func DefaultConfig() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	settings := framework.DefaultSettings()
	return Config{
		Workspace:     cwd,
		Languages:     []string{"go"},
		EnablePreview: settings.EnablePreview,
		CompileDB:     settings.CompileDB,
	}
}

// Normalize ensures every filesystem path is absolute and fills missing
// defaults so runtime initialization never has to re-check the same invariants.
func (c *Config) Normalize() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	absWorkspace, err := filepath.Abs(c.Workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	c.Workspace = absWorkspace
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.Workspace, configDir, "sisearch.log")
	}
	c.LogPath = c.resolve(c.LogPath)
	if c.ConfigPath == "" {
		c.ConfigPath = FindWorkspaceConfig(c.Workspace)
	} else {
		c.ConfigPath = c.resolve(c.ConfigPath)
	}
	if len(c.Roots) == 0 {
		c.Roots = []string{c.Workspace}
	}
	for i, root := range c.Roots {
		c.Roots[i] = c.resolve(root)
	}
	c.Languages = normalizeLanguages(c.Languages)
	if c.CompileDB.Tool == "" {
		c.CompileDB.Tool = framework.DefaultCompileDBTool
	}
	if c.CompileDB.Variant == "" {
		c.CompileDB.Variant = framework.CompileDBVariantAll
	}
	return nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Workspace, path)
}

func normalizeLanguages(languages []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(languages))
	for _, entry := range languages {
		for _, lang := range strings.Split(entry, ",") {
			lang = strings.ToLower(strings.TrimSpace(lang))
			if lang == "" || seen[lang] {
				continue
			}
			seen[lang] = true
			out = append(out, lang)
		}
	}
	return out
}

// Settings projects the configuration onto the values commands consult.
func (c Config) Settings() framework.Settings {
	return framework.Settings{
		EnablePreview: c.EnablePreview,
		CompileDB:     c.CompileDB,
	}
}

// WorkspaceName is the display name of the workspace.
func (c Config) WorkspaceName() string {
	return filepath.Base(c.Workspace)
}

// WorkspaceConfig is the persisted per-workspace configuration. Unset fields
// leave the corresponding Config value alone.
type WorkspaceConfig struct {
	EnablePreview *bool                           `yaml:"enable_preview,omitempty" toml:"enable_preview"`
	Language      string                          `yaml:"language,omitempty" toml:"language"`
	Roots         []string                        `yaml:"roots,omitempty" toml:"roots"`
	Ignore        []string                        `yaml:"ignore,omitempty" toml:"ignore"`
	CompileDB     framework.CompileDBSettings     `yaml:"compdb,omitempty" toml:"compdb"`
	Servers       map[string]tools.ServerOverride `yaml:"servers,omitempty" toml:"servers"`
}

// FindWorkspaceConfig returns the first existing config file under the
// workspace, or the default YAML location when none exists.
func FindWorkspaceConfig(workspace string) string {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		path := filepath.Join(workspace, configDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(workspace, configDir, "config.yaml")
}

// LoadWorkspaceConfig loads the configuration from disk, choosing the decoder
// by extension. Missing files surface os.ErrNotExist.
func LoadWorkspaceConfig(path string) (WorkspaceConfig, error) {
	if path == "" {
		return WorkspaceConfig{}, fmt.Errorf("config path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WorkspaceConfig{}, err
	}
	var cfg WorkspaceConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return WorkspaceConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return WorkspaceConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// SaveWorkspaceConfig persists cfg as YAML.
func SaveWorkspaceConfig(path string, cfg WorkspaceConfig) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return errors.New("writing TOML config is not supported; use config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Flag names consulted by Apply.
const (
	FlagNoPreview     = "no-preview"
	FlagLang          = "lang"
	FlagRoot          = "root"
	FlagCompDBTool    = "tool"
	FlagCompDBVariant = "variant"
)

// Apply copies file values into c unless the matching flag was set on the
// command line.
func (c *Config) Apply(ws WorkspaceConfig, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	if ws.EnablePreview != nil && !changed(FlagNoPreview) {
		c.EnablePreview = *ws.EnablePreview
	}
	if ws.Language != "" && !changed(FlagLang) {
		c.Languages = normalizeLanguages([]string{ws.Language})
	}
	if len(ws.Roots) > 0 && !changed(FlagRoot) {
		c.Roots = make([]string, 0, len(ws.Roots))
		for _, root := range ws.Roots {
			c.Roots = append(c.Roots, c.resolve(root))
		}
	}
	if len(ws.Ignore) > 0 {
		c.Ignore = append(c.Ignore, ws.Ignore...)
	}
	if ws.CompileDB.Tool != "" && !changed(FlagCompDBTool) {
		c.CompileDB.Tool = ws.CompileDB.Tool
	}
	if ws.CompileDB.Variant != "" && !changed(FlagCompDBVariant) {
		c.CompileDB.Variant = ws.CompileDB.Variant
	}
	if len(ws.Servers) > 0 {
		if c.Servers == nil {
			c.Servers = make(map[string]tools.ServerOverride, len(ws.Servers))
		}
		for lang, override := range ws.Servers {
			key := strings.ToLower(lang)
			if desc, ok := tools.LookupLSPDescriptor(key); ok {
				key = desc.ID
			}
			c.Servers[key] = override
		}
	}
}

// Snapshot renders c as a workspace file.
func (c Config) Snapshot() WorkspaceConfig {
	preview := c.EnablePreview
	return WorkspaceConfig{
		EnablePreview: &preview,
		Language:      strings.Join(c.Languages, ","),
		Roots:         append([]string(nil), c.Roots...),
		Ignore:        append([]string(nil), c.Ignore...),
		CompileDB:     c.CompileDB,
		Servers:       c.Servers,
	}
}
