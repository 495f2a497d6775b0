package framework

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearestSrcDir(t *testing.T) {
	require.Equal(t, "/home/dev/project/src", NearestSrcDir("/home/dev/project/src/module/lib"))
	require.Equal(t, "/home/dev/project/src", NearestSrcDir("/home/dev/project/src"))
	require.Equal(t, "/home/src", NearestSrcDir("/home/src/a/src2"))
	require.Equal(t, "/home/dev/project", NearestSrcDir("/home/dev/project/"))
	require.Equal(t, "/", NearestSrcDir("/"))
}

func TestCompileDBCommandLine(t *testing.T) {
	line, err := CompileDBCommandLine(CompileDBSettings{}, []string{"/work/a", "/work/b"})
	require.NoError(t, err)
	require.Equal(t, "jia all /work/a /work/b", line)

	line, err = CompileDBCommandLine(CompileDBSettings{Tool: "jia", Variant: CompileDBVariantShort}, []string{"/work/a"})
	require.NoError(t, err)
	require.Equal(t, "jia a /work/a", line)

	line, err = CompileDBCommandLine(CompileDBSettings{}, []string{"/work/my project"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "jia all "))
	require.NotEqual(t, "jia all /work/my project", line)
	require.Contains(t, line, "my project")

	_, err = CompileDBCommandLine(CompileDBSettings{Variant: "bogus"}, []string{"/work/a"})
	require.Error(t, err)
	_, err = CompileDBCommandLine(CompileDBSettings{}, nil)
	require.Error(t, err)
}

type recordingRunner struct {
	requests []CommandRequest
	err      error
}

func (r *recordingRunner) Run(_ context.Context, req CommandRequest) error {
	r.requests = append(r.requests, req)
	return r.err
}

func compdbHost(roots []string, prompter Prompter, runner CommandRunner, notifier *recordingNotifier) *Host {
	return &Host{
		Notifier:  notifier,
		Prompter:  prompter,
		Runner:    runner,
		Settings:  DefaultSettings(),
		Workspace: Workspace{Name: "demo", Roots: roots},
		Logger:    quietLogger,
	}
}

func TestGenerateCompileDBRunsCommand(t *testing.T) {
	notifier := &recordingNotifier{}
	prompter := &scriptedPrompter{value: "/home/dev/src", ok: true}
	runner := &recordingRunner{}
	host := compdbHost([]string{"/home/dev/src/app", "/home/dev/src/lib"}, prompter, runner, notifier)

	require.NoError(t, GenerateCompileDB(context.Background(), host))
	require.Equal(t, []string{"/home/dev/src"}, prompter.initial)
	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	require.Equal(t, "Jia Gen compdb for demo", req.Name)
	require.Equal(t, "/home/dev/src", req.Workdir)
	require.Equal(t, "jia all /home/dev/src/app /home/dev/src/lib", req.Line)
	require.Equal(t, []string{"Execute Command: jia all /home/dev/src/app /home/dev/src/lib"}, notifier.messages)
}

func TestGenerateCompileDBNoRoots(t *testing.T) {
	notifier := &recordingNotifier{}
	prompter := &scriptedPrompter{}
	runner := &recordingRunner{}
	require.NoError(t, GenerateCompileDB(context.Background(), compdbHost(nil, prompter, runner, notifier)))
	require.Equal(t, []string{MsgNoRootDirs}, notifier.messages)
	require.Empty(t, prompter.prompts)
	require.Empty(t, runner.requests)
}

func TestGenerateCompileDBPromptCancelled(t *testing.T) {
	notifier := &recordingNotifier{}
	runner := &recordingRunner{}
	host := compdbHost([]string{"/work/a"}, &scriptedPrompter{ok: false}, runner, notifier)
	require.NoError(t, GenerateCompileDB(context.Background(), host))
	require.Equal(t, []string{MsgNoRootInput}, notifier.messages)
	require.Empty(t, runner.requests)
}

func TestGenerateCompileDBRunnerError(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit 1")}
	host := compdbHost([]string{"/work/a"}, &scriptedPrompter{value: "/work", ok: true}, runner, &recordingNotifier{})
	require.Error(t, GenerateCompileDB(context.Background(), host))
}

func TestTerminalRunnerRunsInWorkdir(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder
	runner := &TerminalRunner{Shell: "/bin/sh", Stdout: &out, Stderr: &out}
	err := runner.Run(context.Background(), CommandRequest{
		Name:    "sample",
		Workdir: dir,
		Line:    "touch marker && echo done",
	})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "marker"))
	require.NoError(t, err)
	require.Contains(t, out.String(), "== sample ==")
	require.Contains(t, out.String(), "$ touch marker && echo done")
	require.Contains(t, out.String(), "done")

	require.Error(t, runner.Run(context.Background(), CommandRequest{Line: ""}))
	require.Error(t, runner.Run(context.Background(), CommandRequest{Line: "true", Workdir: filepath.Join(dir, "missing")}))
}
