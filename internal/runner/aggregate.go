package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/AndreyAkinshin/measuretests/internal/process"
	"github.com/AndreyAkinshin/measuretests/internal/target"
	"github.com/AndreyAkinshin/measuretests/internal/testparser"
	"github.com/AndreyAkinshin/measuretests/internal/timing"
)

// Mode classifies a finished run by its number of failures.
type Mode int

const (
	ModeNone Mode = iota
	ModeSingleFailure
	ModeMultipleFailures
)

func (m Mode) String() string {
	switch m {
	case ModeSingleFailure:
		return "single-failure"
	case ModeMultipleFailures:
		return "multiple-failures"
	default:
		return "none"
	}
}

// TargetFailure is the first failure of one target.
type TargetFailure struct {
	Target      target.Identity
	Failure     *process.Failure
	FailedTests []string // test cases reported failed by the harness
}

// Attempt summarizes one attempted target.
type Attempt struct {
	Target     target.Target
	Runs       int
	WarmupRuns int
	Failed     bool
	Counts     testparser.TestCounts // harness counts of the last run
}

// Result is the aggregated outcome of an orchestration run.
type Result struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time

	RunCount      int
	WarmupSeconds int

	// Attempted lists the targets that were executed, in execution order.
	Attempted []Attempt

	// Failures holds one entry per failed target, in execution order.
	Failures []TargetFailure

	// Timings is populated only when each target runs more than once.
	Timings map[target.Identity]timing.Summary
}

// Mode derives the classification from the number of failures.
func (r *Result) Mode() Mode {
	switch len(r.Failures) {
	case 0:
		return ModeNone
	case 1:
		return ModeSingleFailure
	default:
		return ModeMultipleFailures
	}
}

// Success reports whether no target failed.
func (r *Result) Success() bool {
	return len(r.Failures) == 0
}

// Err returns nil on success or a *TestError describing the failures.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	return &TestError{Failures: r.Failures}
}

// Counts sums the harness counts of every attempted target.
func (r *Result) Counts() testparser.TestCounts {
	var total testparser.TestCounts
	for _, a := range r.Attempted {
		total.Add(&a.Counts)
	}
	return total
}

// Aggregator accumulates target outcomes into a Result. It is owned by
// the orchestration loop.
type Aggregator struct {
	result *Result
	timed  bool
}

// NewAggregator creates an aggregator for a run with the given id and
// start time. Timing summaries are recorded when runCount > 1.
func NewAggregator(id uuid.UUID, started time.Time, runCount, warmupSeconds int) *Aggregator {
	return &Aggregator{
		result: &Result{
			RunID:         id,
			Started:       started,
			RunCount:      runCount,
			WarmupSeconds: warmupSeconds,
			Timings:       make(map[target.Identity]timing.Summary),
		},
		timed: runCount > 1,
	}
}

// Record adds one target's outcome. A failing target still contributes
// its measured runs to the timing summary.
func (a *Aggregator) Record(o TargetOutcome) {
	attempt := Attempt{
		Target:     o.Target,
		Runs:       len(o.Runs),
		WarmupRuns: o.WarmupRuns(),
		Failed:     o.Failed(),
		Counts:     o.LastCounts(),
	}
	a.result.Attempted = append(a.result.Attempted, attempt)

	if f := o.Failure(); f != nil {
		a.result.Failures = append(a.result.Failures, TargetFailure{
			Target:      o.Target.Identity,
			Failure:     f,
			FailedTests: failedTests(o),
		})
	}

	if a.timed && len(o.Runs) > 0 {
		a.result.Timings[o.Target.Identity] = timing.Summarize(o.Measured(), o.WarmupRuns())
	}
}

func failedTests(o TargetOutcome) []string {
	for _, r := range o.Runs {
		if r.Failure != nil {
			return r.Counts.FailedNames()
		}
	}
	return nil
}

// Finalize stamps the finish time and returns the result.
func (a *Aggregator) Finalize(finished time.Time) *Result {
	a.result.Finished = finished
	return a.result
}
