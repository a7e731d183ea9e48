package config

import (
	"fmt"
	"slices"
	"strings"

	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// ReportFormats lists the accepted report formats.
var ReportFormats = []string{"table", "json", "yaml"}

// ValidationError represents an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExitCode classifies validation errors as configuration errors.
func (e *ValidationError) ExitCode() int {
	return merrors.ExitConfigError
}

// Conflict messages for doc-test mode.
const (
	ErrDocWithSelection = "can't mix --doc with other target selecting options"
	ErrDocWithNoRun     = "can't skip running doc tests with --no-run"
)

// Validate rejects contradictory or out-of-range settings. It runs before
// any build or execution step.
func Validate(cfg *RunConfiguration) error {
	sel := cfg.Build.Selection
	if sel.Doc {
		if sel.IsExplicit() {
			return merrors.Config(ErrDocWithSelection)
		}
		if cfg.NoRun {
			return merrors.Config(ErrDocWithNoRun)
		}
	}
	if err := sel.Validate(); err != nil {
		return merrors.ConfigWrap(err, "invalid target selection")
	}

	if cfg.RunCount < 1 {
		return &ValidationError{Field: "runs", Message: fmt.Sprintf("must be at least 1, got %d", cfg.RunCount)}
	}
	if cfg.WarmupSeconds < 0 {
		return &ValidationError{Field: "warmup", Message: fmt.Sprintf("must not be negative, got %d", cfg.WarmupSeconds)}
	}
	if cfg.RunTimeout < 0 {
		return &ValidationError{Field: "timeout", Message: "must not be negative"}
	}
	if cfg.Build.Jobs < 0 {
		return &ValidationError{Field: "jobs", Message: fmt.Sprintf("must not be negative, got %d", cfg.Build.Jobs)}
	}
	if !slices.Contains(ReportFormats, cfg.Report.Format) {
		return &ValidationError{
			Field:   "report.format",
			Message: fmt.Sprintf("unknown format %q (valid: %s)", cfg.Report.Format, strings.Join(ReportFormats, ", ")),
		}
	}
	return nil
}

// Normalize applies the derived defaults of a validated configuration:
// naming a test without an explicit target selection runs the library,
// every binary and every integration test.
func Normalize(cfg *RunConfiguration) {
	sel := cfg.Build.Selection
	if cfg.TestNameFilter != "" && !sel.Doc && !sel.IsExplicit() {
		cfg.Build.Selection = target.DefaultSelection()
	}
}
