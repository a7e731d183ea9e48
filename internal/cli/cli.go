// Package cli implements the measuretests command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"code.cloudfoundry.org/clock"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	"github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/process"
)

// Version is set at build time.
var Version = "dev"

// App bundles the process-level dependencies of one invocation.
// Zero-valued fields fall back to the real environment.
type App struct {
	Out    *output.Writer
	Getenv func(string) string
	Dir    string

	// Spawner runs test executables; nil uses process.ExecSpawner.
	Spawner process.Spawner
	// Builder overrides the detected build backend.
	Builder build.Builder
	Clock   clock.Clock
}

// Run executes the CLI with the given arguments and returns an exit code.
// SIGINT and SIGTERM cancel the run; the partial report is still printed.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{}
	return app.Run(ctx, args)
}

func (a *App) defaults() error {
	if a.Out == nil {
		a.Out = output.New()
	}
	if a.Getenv == nil {
		a.Getenv = os.Getenv
	}
	if a.Dir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		a.Dir = dir
	}
	if a.Clock == nil {
		a.Clock = clock.NewClock()
	}
	return nil
}

// Run parses args and executes the test run.
func (a *App) Run(ctx context.Context, args []string) int {
	if err := a.defaults(); err != nil {
		output.New().ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	out := a.Out

	opts, err := parseArgs(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		out.Hint("For more information, try '--help'.")
		return errors.ExitConfigError
	}

	switch {
	case opts.Help:
		printUsage(out)
		return 0
	case opts.Version:
		out.Println("measuretests %s", Version)
		return 0
	case opts.Completions != "":
		return printCompletion(out, opts.Completions)
	}

	return a.test(ctx, opts)
}

func printUsage(w *output.Writer) {
	w.HelpTitle("measuretests - run cargo test targets repeatedly and report their timings")

	w.HelpSection("Usage:")
	w.HelpUsage("measuretests [OPTIONS] [TESTNAME] [-- <ARGS>...]")
	w.HelpUsage("cargo measuretests [OPTIONS] [TESTNAME] [-- <ARGS>...]")

	w.HelpSection("Arguments:")
	w.HelpFlag("[TESTNAME]", "If specified, only run tests containing this string in their names", flagWidth)
	w.HelpFlag("[ARGS]...", "Arguments for the test binary", flagWidth)

	for _, group := range flagGroups {
		w.HelpSection(group)
		for _, spec := range flagSpecs {
			if spec.Group == group {
				w.HelpFlag(flagLabel(spec), spec.Help, flagWidth)
			}
		}
	}

	w.HelpSection("Environment:")
	w.HelpEnvVar("MEASURETESTS_RUNS", "Default for --runs", 20)
	w.HelpEnvVar("MEASURETESTS_WARMUP", "Default for --warmup", 20)
	w.HelpEnvVar("CARGO", "Cargo executable to build with", 20)

	w.HelpSection("Examples:")
	w.HelpExample("cargo measuretests", "Run the default targets 32 times each")
	w.HelpExample("cargo measuretests --runs 10 --warmup 2 --test 'int_*'", "Time integration tests, discarding the first 2 seconds")
	w.HelpExample("cargo measuretests --no-fail-fast --format json parser -- --nocapture", "Run every target, filter by name, emit JSON")
	w.HelpExample("measuretests --targets-file targets.json --report timings.yaml", "Time pre-built executables without cargo")
	w.Println("")
}

// flagWidth aligns flag descriptions in help output.
const flagWidth = 30

func flagLabel(spec flagSpec) string {
	label := "    --" + spec.Long
	if spec.Short != "" {
		label = fmt.Sprintf("-%s, --%s", spec.Short, spec.Long)
	}
	if spec.Value != "" {
		label += " " + spec.Value
	}
	return label
}
