package framework

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Compile database generator defaults.
const (
	DefaultCompileDBTool   = "jia"
	CompileDBVariantAll    = "all"
	CompileDBVariantShort  = "a"
	compileDBPrompt        = "Please input the root directory"
	compileDBTerminalTitle = "Jia Gen compdb for %s"
)

// CompileDBSettings selects the generator binary and its subcommand.
type CompileDBSettings struct {
	Tool    string `yaml:"tool" toml:"tool"`
	Variant string `yaml:"variant" toml:"variant"`
}

// NearestSrcDir walks upward from path and returns the first directory named
// "src", or path itself when no ancestor carries that name.
func NearestSrcDir(path string) string {
	start := filepath.Clean(path)
	current := start
	for {
		if filepath.Base(current) == "src" {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return start
		}
		current = parent
	}
}

// CompileDBCommandLine builds "<tool> <variant> <root>..." with roots quoted
// where the shell would otherwise split or expand them.
func CompileDBCommandLine(settings CompileDBSettings, roots []string) (string, error) {
	tool := strings.TrimSpace(settings.Tool)
	if tool == "" {
		tool = DefaultCompileDBTool
	}
	variant := strings.TrimSpace(settings.Variant)
	if variant == "" {
		variant = CompileDBVariantAll
	}
	if variant != CompileDBVariantAll && variant != CompileDBVariantShort {
		return "", fmt.Errorf("unknown compile database variant %q", variant)
	}
	if len(roots) == 0 {
		return "", errors.New("at least one root directory is required")
	}
	parts := []string{tool, variant}
	for _, root := range roots {
		quoted, err := syntax.Quote(root, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", root, err)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " "), nil
}

// GenerateCompileDB asks for a working directory, then runs the generator
// over every workspace root in a terminal.
func GenerateCompileDB(ctx context.Context, host *Host) error {
	roots := host.Workspace.Roots
	if len(roots) == 0 {
		host.info(MsgNoRootDirs)
		return nil
	}
	if host.Prompter == nil || host.Runner == nil {
		return errors.New("compile database generation needs a prompter and a terminal runner")
	}
	line, err := CompileDBCommandLine(host.Settings.CompileDB, roots)
	if err != nil {
		return err
	}
	workdir, ok, err := host.Prompter.Prompt(ctx, compileDBPrompt, NearestSrcDir(roots[0]))
	if err != nil {
		return fmt.Errorf("prompt working directory: %w", err)
	}
	if !ok {
		host.info(MsgNoRootInput)
		return nil
	}
	req := CommandRequest{
		Name:    fmt.Sprintf(compileDBTerminalTitle, host.Workspace.Name),
		Workdir: workdir,
		Line:    line,
	}
	host.logger().Printf("[compdb] running %q in %s", line, workdir)
	if err := host.Runner.Run(ctx, req); err != nil {
		return fmt.Errorf("run %s: %w", line, err)
	}
	host.info("Execute Command: " + line)
	return nil
}
