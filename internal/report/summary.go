package report

import (
	"github.com/AndreyAkinshin/measuretests/internal/output"
	"github.com/AndreyAkinshin/measuretests/internal/runner"
)

// PrintSummary prints the aggregated harness counts and the failed targets
// with their failing test cases.
func PrintSummary(out *output.Writer, r *runner.Result) {
	counts := r.Counts()

	out.SummaryHeader("Test Summary")
	out.SummaryItem("Run", r.RunID.String())
	out.SummaryItem("Targets", printer.Sprintf("%d", len(r.Attempted)))
	if counts.Parsed {
		out.SummaryPassed("Passed", printer.Sprintf("%d", counts.Passed))
		if counts.Failed > 0 {
			out.SummaryFailed("Failed", printer.Sprintf("%d", counts.Failed))
		}
		if counts.Skipped > 0 {
			out.SummaryItem("Ignored", printer.Sprintf("%d", counts.Skipped))
		}
		if counts.Filtered > 0 {
			out.SummaryItem("Filtered out", printer.Sprintf("%d", counts.Filtered))
		}
	}
	out.SummaryItem("Elapsed", formatDuration(r.Finished.Sub(r.Started)))

	if len(r.Failures) > 0 {
		out.Println("")
		out.Println("  Failed targets:")
		for _, f := range r.Failures {
			out.SummaryFailed("    "+f.Target.Describe(), failureHint(f))
			for _, name := range f.FailedTests {
				out.Println("        %s", name)
			}
		}
	}

	if r.Success() {
		out.FinalSuccess("test result: ok. %s", plural(len(r.Attempted), "target"))
	} else {
		out.FinalFailure("test result: FAILED. %s of %s", plural(len(r.Failures), "target"), printer.Sprintf("%d", len(r.Attempted)))
	}
}

func failureHint(f runner.TargetFailure) string {
	if f.Failure == nil {
		return ""
	}
	return f.Failure.Hint()
}
