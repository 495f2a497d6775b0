package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// CommandRequest describes a shell command line sent to a named terminal.
type CommandRequest struct {
	Name    string
	Workdir string
	Line    string
	Env     []string
	Timeout time.Duration
}

// CommandRunner executes command lines on behalf of a command flow.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) error
}

// TerminalRunner runs command lines through a shell attached to the
// current terminal.
type TerminalRunner struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewTerminalRunner returns a runner using $SHELL (or /bin/sh) and the
// process's standard streams.
func NewTerminalRunner() *TerminalRunner {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &TerminalRunner{
		Shell:  shell,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run prints the terminal banner and executes req.Line in req.Workdir.
func (r *TerminalRunner) Run(ctx context.Context, req CommandRequest) error {
	if r == nil {
		return errors.New("terminal runner missing")
	}
	if req.Line == "" {
		return errors.New("command line required")
	}
	if req.Workdir != "" {
		info, err := os.Stat(req.Workdir)
		if err != nil {
			return fmt.Errorf("workdir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workdir %s is not a directory", req.Workdir)
		}
	}
	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	if req.Name != "" {
		fmt.Fprintf(stdout, "== %s ==\n", req.Name)
	}
	fmt.Fprintf(stdout, "$ %s\n", req.Line)

	execCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(execCtx, shell, "-c", req.Line)
	cmd.Dir = req.Workdir
	cmd.Env = append(os.Environ(), req.Env...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
