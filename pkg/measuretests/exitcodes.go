// Package measuretests provides public constants for external tools
// integrating with measuretests.
package measuretests

// Exit codes returned by the measuretests CLI.
// These constants allow external tools to check exit codes symbolically
// rather than using magic numbers.
const (
	// ExitSuccess indicates every selected test target passed.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure unrelated to test outcomes (interrupted run, I/O error, etc.).
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (conflicting options, invalid measuretests.json, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (cargo unavailable, etc.).
	ExitEnvError = 3

	// ExitTestFailure is returned when tests failed and no process exit code
	// could be propagated, or when several targets failed. It matches cargo's
	// exit code for failed test runs. A single failing target propagates its
	// own exit code instead.
	ExitTestFailure = 101
)
