// Package errors provides structured error types and exit codes for measuretests.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0   // Success
	ExitRuntimeError     = 1   // Runtime error (interrupted, I/O failure, etc.)
	ExitConfigError      = 2   // Configuration error (conflicting flags, invalid config file, etc.)
	ExitEnvironmentError = 3   // Environment error (cargo not installed, etc.)
	ExitTestFailure      = 101 // Test or build failure without a more specific process exit code
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindBuild
)

// String returns a lowercase name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	case KindBuild:
		return "build"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MeasureError is the base error type for measuretests.
type MeasureError struct {
	Kind    ErrorKind
	Message string
	Target  string // Target identity if applicable
	Command string // Command line if applicable
	Cause   error  // Underlying error
}

func (e *MeasureError) Error() string {
	if e.Target != "" && e.Command != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Target, e.Command, e.Message)
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s", e.Target, e.Message)
	}
	return e.Message
}

func (e *MeasureError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *MeasureError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	case KindBuild:
		return ExitTestFailure
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *MeasureError {
	return &MeasureError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *MeasureError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *MeasureError {
	return &MeasureError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *MeasureError {
	return Config(fmt.Sprintf(format, args...))
}

// ConfigWrap wraps an error as a configuration error.
func ConfigWrap(err error, message string) *MeasureError {
	return &MeasureError{
		Kind:    KindConfig,
		Message: fmt.Sprintf("%s: %v", message, err),
		Cause:   err,
	}
}

// Environment creates a new environment error.
func Environment(message string) *MeasureError {
	return &MeasureError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *MeasureError {
	return Environment(fmt.Sprintf(format, args...))
}

// Build wraps a build collaborator failure. The cause is surfaced verbatim.
func Build(err error) *MeasureError {
	msg := "build failed"
	if err != nil {
		msg = err.Error()
	}
	return &MeasureError{
		Kind:    KindBuild,
		Message: msg,
		Cause:   err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *MeasureError {
	return &MeasureError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// TargetError creates an error for a specific target.
func TargetError(target, command, message string) *MeasureError {
	return &MeasureError{
		Kind:    KindRuntime,
		Target:  target,
		Command: command,
		Message: message,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *MeasureError {
	return &MeasureError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether err is or wraps a MeasureError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var me *MeasureError
	if errors.As(err, &me) {
		return me.Kind == kind
	}
	return false
}

// exitCoder is implemented by errors that carry their own exit code,
// such as aggregated test failures.
type exitCoder interface {
	ExitCode() int
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitRuntimeError
}
