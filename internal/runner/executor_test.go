package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/process"
	"github.com/AndreyAkinshin/measuretests/internal/target"
	"github.com/AndreyAkinshin/measuretests/internal/testing/mocks"
)

func exe(pkg string, kind target.Kind, name string) target.Target {
	return target.Target{
		Identity: target.Identity{Package: pkg, Kind: kind, Name: name},
		Path:     "/ws/target/debug/deps/" + name,
		Harness:  true,
	}
}

func quietWriter() *output.Writer {
	return output.NewWithWriters(io.Discard, io.Discard, false)
}

func newTestExecutor(spawner *mocks.Spawner, clk *fakeclock.FakeClock) *Executor {
	return NewExecutor(spawner, clk, quietWriter(), "")
}

func TestCommand(t *testing.T) {
	t.Parallel()
	doc := target.Target{
		Identity: target.Identity{Package: "pkga", Kind: target.KindDoctest, Name: "pkga"},
		Harness:  true,
		DocTest:  &target.Invocation{Program: "cargo", Args: []string{"test", "--doc", "--package", "pkga"}, Dir: "/ws"},
	}
	custom := exe("pkga", target.KindTest, "golden")
	custom.Harness = false

	tests := []struct {
		name     string
		target   target.Target
		opts     Options
		wantPath string
		wantArgs []string
	}{
		{
			name:     "bare",
			target:   exe("pkga", target.KindTest, "t1"),
			opts:     Options{},
			wantPath: "/ws/target/debug/deps/t1",
			wantArgs: nil,
		},
		{
			name:     "filter then args then quiet",
			target:   exe("pkga", target.KindTest, "t1"),
			opts:     Options{Filter: "parses", Args: []string{"--nocapture", "--test-threads=1"}, Quiet: true},
			wantPath: "/ws/target/debug/deps/t1",
			wantArgs: []string{"parses", "--nocapture", "--test-threads=1", "--quiet"},
		},
		{
			name:     "custom harness never gets quiet",
			target:   custom,
			opts:     Options{Filter: "x", Quiet: true},
			wantPath: "/ws/target/debug/deps/golden",
			wantArgs: []string{"x"},
		},
		{
			name:     "doc test separator",
			target:   doc,
			opts:     Options{Filter: "add", Args: []string{"--nocapture"}, Quiet: true},
			wantPath: "cargo",
			wantArgs: []string{"test", "--doc", "--package", "pkga", "--", "add", "--nocapture", "--quiet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := Command(tt.target, tt.opts)
			if cmd.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", cmd.Path, tt.wantPath)
			}
			if diff := cmp.Diff(tt.wantArgs, cmd.Args); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := Command(doc, Options{}).Dir; got != "/ws" {
		t.Errorf("doc test Dir = %q, want /ws", got)
	}
}

func TestExecute_SingleRun(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).WithDefault(mocks.Behavior{Duration: 250 * time.Millisecond})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindLib, "p"), Options{RunCount: 1, Warmup: time.Hour})

	if len(o.Runs) != 1 {
		t.Fatalf("len(Runs) = %d, want 1", len(o.Runs))
	}
	if o.Runs[0].Warmup {
		t.Error("single run marked as warmup")
	}
	if o.Runs[0].Duration != 250*time.Millisecond {
		t.Errorf("Duration = %v, want 250ms", o.Runs[0].Duration)
	}
}

func TestExecute_FiveRunsNoWarmup(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).WithDefault(mocks.Behavior{Duration: 10 * time.Millisecond})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"), Options{RunCount: 5})

	measured := o.Measured()
	if len(measured) != 5 {
		t.Fatalf("len(Measured()) = %d, want 5", len(measured))
	}
	for i, d := range measured {
		if d < 0 {
			t.Errorf("Measured()[%d] = %v, want non-negative", i, d)
		}
	}
	if spawner.CallCount("/ws/target/debug/deps/t") != 5 {
		t.Errorf("CallCount = %d, want 5", spawner.CallCount("/ws/target/debug/deps/t"))
	}
}

func TestExecute_FiveRunsRealClockNonNegative(t *testing.T) {
	t.Parallel()
	spawner := mocks.NewSpawner(nil)
	o := NewExecutor(spawner, realClock(), quietWriter(), "").Execute(context.Background(), exe("p", target.KindTest, "t"), Options{RunCount: 5})

	if len(o.Measured()) != 5 {
		t.Fatalf("len(Measured()) = %d, want 5", len(o.Measured()))
	}
	for _, d := range o.Measured() {
		if d < 0 {
			t.Errorf("duration %v is negative", d)
		}
	}
}

func TestExecute_WarmupDiscardsFirstRuns(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).WithDefault(mocks.Behavior{Duration: time.Second})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"),
		Options{RunCount: 10, Warmup: 3 * time.Second})

	if len(o.Runs) != 10 {
		t.Fatalf("len(Runs) = %d, want 10", len(o.Runs))
	}
	if got := len(o.Measured()); got != 7 {
		t.Errorf("len(Measured()) = %d, want 7", got)
	}
	if got := o.WarmupRuns(); got != 3 {
		t.Errorf("WarmupRuns() = %d, want 3", got)
	}
	for i, r := range o.Runs {
		if want := i < 3; r.Warmup != want {
			t.Errorf("Runs[%d].Warmup = %v, want %v", i, r.Warmup, want)
		}
	}
}

func TestExecute_WarmupExtendsBudget(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).WithDefault(mocks.Behavior{Duration: time.Second})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"),
		Options{RunCount: 2, Warmup: 5 * time.Second})

	// Runs start at 0s..4s inside the window; the run starting at 5s is measured.
	if len(o.Runs) != 6 {
		t.Errorf("len(Runs) = %d, want 6", len(o.Runs))
	}
	if got := len(o.Measured()); got != 1 {
		t.Errorf("len(Measured()) = %d, want 1", got)
	}
}

func TestExecute_WarmupFailureStillCounts(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).WithDefault(mocks.Behavior{Duration: time.Second, ExitCode: 101})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"),
		Options{RunCount: 10, Warmup: 3 * time.Second})

	if !o.Failed() {
		t.Fatal("Failed() = false for a failing warmup run")
	}
	if len(o.Runs) != 1 || !o.Runs[0].Warmup {
		t.Errorf("Runs = %+v, want one failed warmup run", o.Runs)
	}
}

func TestExecute_StopsRepeatingAfterFailure(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).
		WithDefault(mocks.Behavior{Duration: time.Millisecond}).
		WithFunc(func(n int, _ process.Command) (mocks.Behavior, bool) {
			return mocks.Behavior{Duration: time.Millisecond, ExitCode: 3}, n == 1
		})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"), Options{RunCount: 5})

	if len(o.Runs) != 2 {
		t.Errorf("len(Runs) = %d, want 2 (stop after the failing second run)", len(o.Runs))
	}
	if f := o.Failure(); f == nil || f.ExitCode != 3 {
		t.Errorf("Failure() = %+v, want exit 3", f)
	}
}

func TestExecute_TimeFailingCompletesRuns(t *testing.T) {
	t.Parallel()
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	spawner := mocks.NewSpawner(clk).
		WithFunc(func(n int, _ process.Command) (mocks.Behavior, bool) {
			if n == 0 {
				return mocks.Behavior{Duration: time.Millisecond, ExitCode: 7}, true
			}
			return mocks.Behavior{Duration: time.Millisecond, ExitCode: 9}, true
		})

	o := newTestExecutor(spawner, clk).Execute(context.Background(), exe("p", target.KindTest, "t"),
		Options{RunCount: 4, TimeFailing: true})

	if len(o.Runs) != 4 {
		t.Errorf("len(Runs) = %d, want 4", len(o.Runs))
	}
	if f := o.Failure(); f == nil || f.ExitCode != 7 {
		t.Errorf("Failure() = %+v, want the first failure (exit 7)", f)
	}
}

func TestExecute_SpawnFailure(t *testing.T) {
	t.Parallel()
	spawner := mocks.NewSpawner(nil).WithDefault(mocks.Behavior{SpawnErr: io.ErrUnexpectedEOF})

	o := NewExecutor(spawner, realClock(), quietWriter(), "").Execute(context.Background(), exe("p", target.KindTest, "t"), Options{RunCount: 3})

	f := o.Failure()
	if f == nil || f.Kind != process.FailureSpawn {
		t.Fatalf("Failure() = %+v, want spawn failure", f)
	}
	if !strings.Contains(f.Hint(), "never executed") {
		t.Errorf("Hint() = %q", f.Hint())
	}
}

func TestExecute_ParsesHarnessOutput(t *testing.T) {
	t.Parallel()
	spawner := mocks.NewSpawner(nil).WithDefault(mocks.Behavior{
		Output: "running 3 tests\ntest a ... ok\ntest b ... FAILED\n\ntest result: FAILED. 2 passed; 1 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.01s\n",
		ExitCode: 101,
	})

	o := NewExecutor(spawner, realClock(), quietWriter(), "").Execute(context.Background(), exe("p", target.KindTest, "t"), Options{RunCount: 1})

	counts := o.LastCounts()
	if counts.Passed != 2 || counts.Failed != 1 {
		t.Errorf("LastCounts() = %+v, want 2 passed, 1 failed", counts)
	}
	if diff := cmp.Diff([]string{"b"}, counts.FailedNames()); diff != "" {
		t.Errorf("FailedNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_CanceledContext(t *testing.T) {
	t.Parallel()
	spawner := mocks.NewSpawner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewExecutor(spawner, realClock(), quietWriter(), "").Execute(ctx, exe("p", target.KindTest, "t"), Options{RunCount: 3})
	if len(o.Runs) != 0 || len(spawner.Calls()) != 0 {
		t.Errorf("executed %d runs after cancellation", len(o.Runs))
	}
}

func TestExecute_InterruptedRunIsDropped(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	spawner := mocks.NewSpawner(nil).WithFunc(func(n int, _ process.Command) (mocks.Behavior, bool) {
		if n == 1 {
			cancel()
		}
		return mocks.Behavior{}, false
	})

	o := NewExecutor(spawner, realClock(), quietWriter(), "").Execute(ctx, exe("p", target.KindTest, "t"), Options{RunCount: 5})
	if len(o.Runs) != 1 {
		t.Fatalf("len(Runs) = %d, want only the run completed before cancellation", len(o.Runs))
	}
	if o.Failed() {
		t.Errorf("outcome failed after cancellation: %v", o.Failure())
	}
	if len(spawner.Calls()) != 2 {
		t.Errorf("spawned %d times, want 2", len(spawner.Calls()))
	}
}

func TestExecute_CapturesOnlyHarnessOutput(t *testing.T) {
	t.Parallel()
	spawner := mocks.NewSpawner(nil)
	e := NewExecutor(spawner, realClock(), quietWriter(), "")

	harness := exe("p", target.KindTest, "libtest")
	custom := exe("p", target.KindTest, "custom")
	custom.Harness = false
	e.Execute(context.Background(), harness, Options{RunCount: 1})
	e.Execute(context.Background(), custom, Options{RunCount: 1})

	calls := spawner.Calls()
	if calls[0].Stdout == nil {
		t.Error("harness output is not captured")
	}
	if calls[1].Stdout != nil {
		t.Error("non-harness output is captured, want direct console output")
	}
}

func TestExecute_StatusLines(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	w := output.NewWithWriters(io.Discard, &stderr, false)
	w.SetVerbose(true)

	e := NewExecutor(mocks.NewSpawner(nil), realClock(), w, "/ws")
	e.Execute(context.Background(), exe("p", target.KindTest, "t1"), Options{RunCount: 1, Filter: "f"})

	out := stderr.String()
	if !strings.Contains(out, "Running target/debug/deps/t1") {
		t.Errorf("missing relative Running line:\n%s", out)
	}
	if !strings.Contains(out, "`/ws/target/debug/deps/t1 f`") {
		t.Errorf("missing verbose command line:\n%s", out)
	}
}
