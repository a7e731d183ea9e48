// Package runner executes compiled test targets in a deterministic order,
// applies the fail-fast policy and aggregates outcomes and timings.
package runner

import (
	"context"
	"errors"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	"github.com/AndreyAkinshin/measuretests/internal/config"
	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/process"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Runner orchestrates building and executing test targets.
type Runner struct {
	builder  build.Builder
	executor *Executor
	clock    clock.Clock
	out      *output.Writer
	newID    func() uuid.UUID
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock sets the time source used for timing and timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithWorkDir sets the directory executable paths are displayed relative to.
func WithWorkDir(dir string) Option {
	return func(r *Runner) { r.executor.workDir = dir }
}

// WithRunID fixes the run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(r *Runner) { r.newID = func() uuid.UUID { return id } }
}

// New creates a Runner.
func New(builder build.Builder, spawner process.Spawner, out *output.Writer, opts ...Option) *Runner {
	if out == nil {
		out = output.New()
	}
	r := &Runner{
		builder: builder,
		clock:   clock.NewClock(),
		out:     out,
		newID:   uuid.New,
	}
	r.executor = NewExecutor(spawner, r.clock, out, "")
	for _, opt := range opts {
		opt(r)
	}
	r.executor.clock = r.clock
	return r
}

// Run validates cfg, builds the selected targets and executes them.
// Configuration and build errors are returned before anything runs.
func (r *Runner) Run(ctx context.Context, cfg *config.RunConfiguration) (*Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	targets, err := r.builder.Build(ctx, build.RequestFrom(cfg))
	if err != nil {
		var me *merrors.MeasureError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, merrors.Build(err)
	}

	return r.RunTargets(ctx, cfg, targets)
}

// RunTargets executes an already built target list. With NoRun set it
// returns an empty successful result without spawning anything.
// The returned error is non-nil only for invalid input or interruption;
// test failures are reported through Result.Err.
func (r *Runner) RunTargets(ctx context.Context, cfg *config.RunConfiguration, targets []target.Target) (*Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := target.Validate(targets); err != nil {
		return nil, merrors.ConfigWrap(err, "invalid target list")
	}

	agg := NewAggregator(r.newID(), r.clock.Now(), cfg.RunCount, cfg.WarmupSeconds)
	sorted := target.Sorted(targets)

	if cfg.NoRun {
		for _, t := range sorted {
			r.out.Status("Executable", "%s", r.executor.display(t))
		}
		return agg.Finalize(r.clock.Now()), nil
	}

	opts := OptionsFrom(cfg)
	ff := NewFailFast(cfg.FailFast)
	for _, t := range sorted {
		if ctx.Err() != nil {
			break
		}

		outcome := r.executor.Execute(ctx, t, opts)
		if ctx.Err() != nil && len(outcome.Runs) == 0 {
			break
		}
		agg.Record(outcome)

		if f := outcome.Failure(); f != nil {
			r.out.TargetFailed(t.Describe(), f.Hint())
		}
		if ff.Observe(outcome.Failed()) == StateStopped {
			break
		}
	}

	result := agg.Finalize(r.clock.Now())
	if err := ctx.Err(); err != nil {
		return result, merrors.Wrap(err, "test run interrupted")
	}
	return result, nil
}
