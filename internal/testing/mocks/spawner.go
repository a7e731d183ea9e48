// Package mocks provides shared test doubles for measuretests packages.
package mocks

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"

	"github.com/AndreyAkinshin/measuretests/internal/process"
)

// Behavior scripts how a spawned command behaves.
type Behavior struct {
	// Duration advances the fake clock while the command "runs".
	Duration time.Duration
	// ExitCode, if non-zero, makes the command fail with that status.
	ExitCode int
	// Signal, if set, makes the command fail as if killed by a signal.
	Signal string
	// SpawnErr, if set, makes the command fail to start.
	SpawnErr error
	// Output is written to the command's tee writer.
	Output string
}

// Spawner implements process.Spawner for testing.
// Use NewSpawner() to create instances with a fluent builder API.
type Spawner struct {
	clock     *fakeclock.FakeClock
	byPath    map[string]Behavior
	fallback  Behavior
	perCall   func(n int, cmd process.Command) (Behavior, bool)
	mu        sync.Mutex
	calls     []process.Command
	callCount map[string]int
}

// NewSpawner creates a spawner that advances clock (may be nil) by each
// command's scripted duration.
func NewSpawner(clock *fakeclock.FakeClock) *Spawner {
	return &Spawner{
		clock:     clock,
		byPath:    make(map[string]Behavior),
		callCount: make(map[string]int),
	}
}

// WithBehavior scripts commands whose program is path.
func (s *Spawner) WithBehavior(path string, b Behavior) *Spawner {
	s.byPath[path] = b
	return s
}

// WithDefault scripts commands without a path-specific behavior.
func (s *Spawner) WithDefault(b Behavior) *Spawner {
	s.fallback = b
	return s
}

// WithFunc overrides behaviors per call. n is the zero-based index of the
// call for that program. Returning false falls back to the scripted behavior.
func (s *Spawner) WithFunc(fn func(n int, cmd process.Command) (Behavior, bool)) *Spawner {
	s.perCall = fn
	return s
}

// Spawn implements process.Spawner.
func (s *Spawner) Spawn(ctx context.Context, cmd process.Command) error {
	s.mu.Lock()
	n := s.callCount[cmd.Path]
	s.callCount[cmd.Path] = n + 1
	s.calls = append(s.calls, cmd)
	b, ok := s.byPath[cmd.Path]
	if !ok {
		b = s.fallback
	}
	if s.perCall != nil {
		if override, ok := s.perCall(n, cmd); ok {
			b = override
		}
	}
	s.mu.Unlock()

	if b.SpawnErr != nil {
		return &process.Failure{Kind: process.FailureSpawn, Command: cmd, Err: b.SpawnErr}
	}
	if s.clock != nil && b.Duration > 0 {
		s.clock.Increment(b.Duration)
	}
	if cmd.Stdout != nil && b.Output != "" {
		_, _ = io.WriteString(cmd.Stdout, b.Output)
	}
	// Like a killed process, a command whose context ended fails.
	if err := ctx.Err(); err != nil {
		kind := process.FailureInterrupted
		if errors.Is(err, context.DeadlineExceeded) {
			kind = process.FailureTimeout
		}
		return &process.Failure{Kind: kind, Command: cmd, Err: err}
	}
	switch {
	case b.Signal != "":
		return &process.Failure{Kind: process.FailureSignal, Command: cmd, Signal: b.Signal}
	case b.ExitCode != 0:
		return &process.Failure{Kind: process.FailureExit, Command: cmd, ExitCode: b.ExitCode}
	}
	return nil
}

// Calls returns every spawned command in order.
func (s *Spawner) Calls() []process.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]process.Command, len(s.calls))
	copy(result, s.calls)
	return result
}

// CallCount returns how many times path was spawned.
func (s *Spawner) CallCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount[path]
}

// Paths returns the program of every spawned command in order.
func (s *Spawner) Paths() []string {
	calls := s.Calls()
	paths := make([]string, len(calls))
	for i, c := range calls {
		paths[i] = c.Path
	}
	return paths
}
