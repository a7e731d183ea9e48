package runner

import (
	"fmt"
	"strings"

	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// TestError reports failed test targets.
type TestError struct {
	Failures []TargetFailure
}

func (e *TestError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("test failed, to rerun pass `%s`\n\nCaused by:\n  %s", rerunArgs(f.Target), f.Failure.Hint())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d targets failed:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n    `%s`", rerunArgs(f.Target))
	}
	return b.String()
}

// ExitCode propagates a single failing process's exit code. Multiple
// failures, signals and spawn errors map to the generic test failure code.
func (e *TestError) ExitCode() int {
	if len(e.Failures) == 1 && e.Failures[0].Failure != nil {
		if code, ok := e.Failures[0].Failure.Code(); ok && code != 0 {
			return code
		}
	}
	return merrors.ExitTestFailure
}

// Unwrap exposes the single underlying process failure.
func (e *TestError) Unwrap() error {
	if len(e.Failures) == 1 && e.Failures[0].Failure != nil {
		return e.Failures[0].Failure
	}
	return nil
}

func rerunArgs(id target.Identity) string {
	return fmt.Sprintf("-p %s %s", id.Package, id.RerunFlag())
}
