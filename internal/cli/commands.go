package cli

import (
	"context"
	"fmt"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	"github.com/AndreyAkinshin/measuretests/internal/config"
	"github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/process"
	"github.com/AndreyAkinshin/measuretests/internal/project"
	"github.com/AndreyAkinshin/measuretests/internal/report"
	"github.com/AndreyAkinshin/measuretests/internal/runner"
)

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(out *output.Writer, cfg *config.RunConfiguration) {
	out.SetQuiet(cfg.Quiet)
	out.SetVerbose(cfg.Verbose)
}

// loadProject loads the project configuration and handles errors uniformly.
// Returns the project and exit code 0 on success, or nil and the error's exit code.
func (a *App) loadProject() (*project.Project, int) {
	proj, err := project.LoadProject(a.Dir, a.Getenv)
	if err != nil {
		a.Out.ErrorPrefix("%v", err)
		return nil, errors.GetExitCode(err)
	}
	for _, w := range proj.Warnings {
		a.Out.Warning("%s", w)
	}
	return proj, 0
}

// test resolves the configuration, builds and runs the selected targets,
// renders the report and maps the outcome to an exit code.
func (a *App) test(ctx context.Context, opts *Options) int {
	out := a.Out

	proj, exitCode := a.loadProject()
	if proj == nil {
		return exitCode
	}

	cfg := proj.Config
	opts.Apply(cfg, a.Dir)
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	applyVerbosityToOutput(out, cfg)

	builder, err := a.builder(proj)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	spawner := a.Spawner
	if spawner == nil {
		// Keep stdout parseable when it carries a structured report.
		harnessOut := out.Stdout()
		if cfg.Report.Format != "table" {
			harnessOut = out.Stderr()
		}
		spawner = process.NewExecSpawner(harnessOut, out.Stderr())
	}

	r := runner.New(builder, spawner, out, runner.WithClock(a.Clock), runner.WithWorkDir(a.Dir))
	result, runErr := r.Run(ctx, cfg)
	if result == nil {
		out.ErrorPrefix("%v", runErr)
		return errors.GetExitCode(runErr)
	}

	if !cfg.NoRun {
		if err := a.writeReports(cfg, result); err != nil {
			out.ErrorPrefix("%v", err)
			return errors.GetExitCode(err)
		}
	}

	if runErr != nil {
		out.ErrorPrefix("%v", runErr)
		return errors.GetExitCode(runErr)
	}
	if err := result.Err(); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return errors.ExitSuccess
}

func (a *App) builder(proj *project.Project) (build.Builder, error) {
	if a.Builder != nil {
		return a.Builder, nil
	}
	return proj.Builder(a.Out.Stderr())
}

// writeReports renders the result to stdout and the configured files.
// The table and summary are console output and respect quiet mode;
// structured formats always go to stdout.
func (a *App) writeReports(cfg *config.RunConfiguration, result *runner.Result) error {
	out := a.Out
	format := cfg.Report.Format

	switch format {
	case "json", "yaml":
		if err := report.Write(out.Stdout(), format, result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	default:
		if !out.Quiet() {
			if cfg.Timed() && len(result.Attempted) > 0 {
				out.Println("")
				if err := report.WriteTable(out.Stdout(), result); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}
			report.PrintSummary(out, result)
		}
	}

	if cfg.Report.Path != "" {
		if err := report.WriteFile(cfg.Report.Path, format, result); err != nil {
			return err
		}
		out.Status("Report", "%s", cfg.Report.Path)
	}
	if cfg.Report.MetricsPath != "" {
		if err := report.WriteMetrics(cfg.Report.MetricsPath, result); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		out.Status("Metrics", "%s", cfg.Report.MetricsPath)
	}
	return nil
}
