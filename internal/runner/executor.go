package runner

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/AndreyAkinshin/measuretests/internal/config"
	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/process"
	"github.com/AndreyAkinshin/measuretests/internal/target"
	"github.com/AndreyAkinshin/measuretests/internal/testparser"
)

// Options configures how the executor runs one target.
type Options struct {
	Filter      string
	Args        []string
	RunCount    int
	Warmup      time.Duration
	Quiet       bool
	TimeFailing bool
	Timeout     time.Duration
}

// OptionsFrom derives executor options from a run configuration.
func OptionsFrom(cfg *config.RunConfiguration) Options {
	return Options{
		Filter:      cfg.TestNameFilter,
		Args:        cfg.PassThroughArgs,
		RunCount:    cfg.RunCount,
		Warmup:      cfg.Warmup(),
		Quiet:       cfg.Quiet,
		TimeFailing: cfg.TimeFailing,
		Timeout:     cfg.RunTimeout,
	}
}

// timed reports whether warmup and statistics apply.
func (o Options) timed() bool {
	return o.RunCount > 1
}

// RunOutcome is the result of executing a target once.
type RunOutcome struct {
	Started  time.Time
	Duration time.Duration
	Warmup   bool
	Failure  *process.Failure // nil on success
	Counts   testparser.TestCounts
}

// TargetOutcome holds every run of one target in execution order.
type TargetOutcome struct {
	Target target.Target
	Runs   []RunOutcome
}

// Failure returns the first failed run's failure, or nil.
func (o TargetOutcome) Failure() *process.Failure {
	for _, r := range o.Runs {
		if r.Failure != nil {
			return r.Failure
		}
	}
	return nil
}

// Failed reports whether any run failed.
func (o TargetOutcome) Failed() bool {
	return o.Failure() != nil
}

// Measured returns the durations of non-warmup runs.
func (o TargetOutcome) Measured() []time.Duration {
	var result []time.Duration
	for _, r := range o.Runs {
		if !r.Warmup {
			result = append(result, r.Duration)
		}
	}
	return result
}

// WarmupRuns returns the number of runs discarded as warmup.
func (o TargetOutcome) WarmupRuns() int {
	n := 0
	for _, r := range o.Runs {
		if r.Warmup {
			n++
		}
	}
	return n
}

// LastCounts returns the parsed harness counts of the last run.
func (o TargetOutcome) LastCounts() testparser.TestCounts {
	if len(o.Runs) == 0 {
		return testparser.TestCounts{}
	}
	return o.Runs[len(o.Runs)-1].Counts
}

// Executor runs a single target one or more times.
type Executor struct {
	spawner process.Spawner
	clock   clock.Clock
	out     *output.Writer
	workDir string
	parser  testparser.CargoParser
}

// NewExecutor creates an executor. workDir is used to shorten displayed
// executable paths and may be empty.
func NewExecutor(spawner process.Spawner, clk clock.Clock, out *output.Writer, workDir string) *Executor {
	return &Executor{spawner: spawner, clock: clk, out: out, workDir: workDir}
}

// Command builds the invocation of t: the target's base program, then the
// filter, then the pass-through arguments, then --quiet for targets using
// the libtest harness.
func Command(t target.Target, opts Options) process.Command {
	program, args := t.Program()
	if opts.Filter != "" {
		args = append(args, opts.Filter)
	}
	args = append(args, opts.Args...)
	if opts.Quiet && t.Harness {
		args = append(args, "--quiet")
	}
	return process.Command{Path: program, Args: args, Dir: t.WorkDir(), Env: t.Env}
}

// Execute runs t up to opts.RunCount times, sequentially.
//
// When timing with a warmup window, a run that starts within the window of
// the first run's start is a warmup run. If every run of the budget was a
// warmup run, further runs are made until one starts after the window.
// Unless opts.TimeFailing is set, a target is not repeated after a failure.
// A run cut short by cancellation of ctx is dropped from the outcome.
func (e *Executor) Execute(ctx context.Context, t target.Target, opts Options) TargetOutcome {
	outcome := TargetOutcome{Target: t}
	cmd := Command(t, opts)

	e.out.Status("Running", "%s", e.display(t))
	e.out.VerboseStatus("Running", "`%s`", cmd)

	warmup := opts.timed() && opts.Warmup > 0
	var first time.Time
	measured := 0

	for i := 0; ; i++ {
		if i >= opts.RunCount && (!warmup || measured > 0) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		run := e.runOnce(ctx, cmd, opts.Timeout, t.Harness)
		if run.Failure != nil && (run.Failure.Kind == process.FailureInterrupted || ctx.Err() != nil) {
			break
		}
		if i == 0 {
			first = run.Started
		}
		run.Warmup = warmup && run.Started.Sub(first) < opts.Warmup
		if !run.Warmup {
			measured++
		}
		if opts.timed() {
			e.out.VerboseStatus("Timed", "run %d of %s: %s%s", i+1, t.Describe(), run.Duration, warmupSuffix(run.Warmup))
		}
		outcome.Runs = append(outcome.Runs, run)

		if run.Failure != nil && !opts.TimeFailing {
			break
		}
	}
	return outcome
}

// runOnce spawns cmd once. Only harness output is captured for parsing;
// other executables keep writing straight to the console.
func (e *Executor) runOnce(ctx context.Context, cmd process.Command, timeout time.Duration, harness bool) RunOutcome {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var captured bytes.Buffer
	if harness {
		cmd.Stdout = &captured
	}

	start := e.clock.Now()
	err := e.spawner.Spawn(runCtx, cmd)
	run := RunOutcome{
		Started:  start,
		Duration: e.clock.Now().Sub(start),
		Counts:   e.parser.Parse(captured.String()),
	}
	if run.Duration < 0 {
		run.Duration = 0
	}
	if err != nil {
		f, ok := process.AsFailure(err)
		if !ok {
			f = &process.Failure{Kind: process.FailureSpawn, Command: cmd, Err: err}
		}
		run.Failure = f
	}
	return run
}

// display returns the executable path relative to the working directory,
// or the doc-test command line.
func (e *Executor) display(t target.Target) string {
	if t.DocTest != nil {
		program, args := t.Program()
		return fmt.Sprintf("%s %s (%s)", filepath.Base(program), strings.Join(args[:len(args)-1], " "), t.Describe())
	}
	if e.workDir != "" {
		if rel, err := filepath.Rel(e.workDir, t.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return t.Path
}

func warmupSuffix(warmup bool) string {
	if warmup {
		return " (warmup)"
	}
	return ""
}
