// Package process launches test executables and classifies how they ended.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// KillGrace bounds how long Spawn waits for the output pipes to close after
// the process was killed. Grandchildren that inherited the pipes would
// otherwise keep the run alive.
const KillGrace = time.Second

// Command is a single process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string

	// Stdout, if set, receives a copy of the process's standard output in
	// addition to the spawner's own sink.
	Stdout io.Writer
}

// String renders the command line, quoting arguments that contain spaces.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Spawner runs a command to completion. It returns nil on success and a
// *Failure otherwise.
type Spawner interface {
	Spawn(ctx context.Context, cmd Command) error
}

// FailureKind classifies a process failure.
type FailureKind int

const (
	// FailureExit means the process exited with a non-zero status.
	FailureExit FailureKind = iota
	// FailureSignal means the process was terminated by a signal.
	FailureSignal
	// FailureSpawn means the process could not be started.
	FailureSpawn
	// FailureTimeout means the process was killed after exceeding its deadline.
	FailureTimeout
	// FailureInterrupted means the process was killed because the run was
	// cancelled. It says nothing about the test itself.
	FailureInterrupted
)

func (k FailureKind) String() string {
	switch k {
	case FailureExit:
		return "exit"
	case FailureSignal:
		return "signal"
	case FailureSpawn:
		return "spawn"
	case FailureTimeout:
		return "timeout"
	case FailureInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Failure describes why a process did not succeed.
type Failure struct {
	Kind     FailureKind
	Command  Command
	ExitCode int    // valid when Kind == FailureExit
	Signal   string // valid when Kind == FailureSignal
	Err      error  // underlying error
}

func (f *Failure) Error() string {
	return f.Hint()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Code returns the process exit code, if the process exited on its own.
func (f *Failure) Code() (int, bool) {
	if f.Kind == FailureExit {
		return f.ExitCode, true
	}
	return 0, false
}

// Hint returns a human-readable description of the failure.
func (f *Failure) Hint() string {
	switch f.Kind {
	case FailureSpawn:
		return fmt.Sprintf("could not execute process `%s` (never executed): %v", f.Command, f.Err)
	case FailureSignal:
		return fmt.Sprintf("process didn't exit successfully: `%s` (signal: %s)", f.Command, f.Signal)
	case FailureTimeout:
		return fmt.Sprintf("process didn't exit successfully: `%s` (timed out)", f.Command)
	case FailureInterrupted:
		return fmt.Sprintf("process didn't exit successfully: `%s` (interrupted)", f.Command)
	default:
		return fmt.Sprintf("process didn't exit successfully: `%s` (exit status: %d)", f.Command, f.ExitCode)
	}
}

// Interrupted reports whether err is a failure caused by cancellation.
func Interrupted(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailureInterrupted
}

// AsFailure returns the *Failure in err's chain, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ExecSpawner runs commands with os/exec, streaming their output.
type ExecSpawner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecSpawner creates a spawner that streams to the given writers.
// Nil writers default to os.Stdout and os.Stderr.
func NewExecSpawner(stdout, stderr io.Writer) *ExecSpawner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ExecSpawner{Stdout: stdout, Stderr: stderr}
}

// Spawn runs cmd and blocks until it exits. When ctx ends, the process and
// everything it started are killed.
func (s *ExecSpawner) Spawn(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = nil
	c.WaitDelay = KillGrace
	killGroupOnCancel(c)

	stdout := s.Stdout
	if cmd.Stdout != nil {
		stdout = io.MultiWriter(s.Stdout, cmd.Stdout)
	}
	c.Stdout = stdout
	c.Stderr = s.Stderr

	// Environment precedence: command env overrides the inherited environment.
	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, k+"="+v)
		}
	}

	if err := c.Start(); err != nil {
		return &Failure{Kind: FailureSpawn, Command: cmd, Err: err}
	}
	return Classify(ctx, cmd, c.Wait())
}

// Classify converts the result of waiting on a process into a *Failure.
// A nil error stays nil.
func Classify(ctx context.Context, cmd Command, err error) error {
	if err == nil {
		return nil
	}
	if ctx != nil {
		switch ctxErr := ctx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			return &Failure{Kind: FailureTimeout, Command: cmd, Err: ctxErr}
		case errors.Is(ctxErr, context.Canceled):
			return &Failure{Kind: FailureInterrupted, Command: cmd, Err: ctxErr}
		}
	}

	// The process itself succeeded; only a leftover child held its output.
	if errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return &Failure{Kind: FailureSpawn, Command: cmd, Err: err}
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return &Failure{
			Kind:    FailureSignal,
			Command: cmd,
			Signal:  fmt.Sprintf("%d, %s", int(ws.Signal()), ws.Signal()),
			Err:     err,
		}
	}

	return &Failure{Kind: FailureExit, Command: cmd, ExitCode: exitErr.ExitCode(), Err: err}
}
