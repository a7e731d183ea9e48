// Package target describes compiled test executables and their deterministic ordering.
package target

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the kind of compilation target a test executable was built from.
// The declaration order is the ordinal used for sorting.
type Kind int

const (
	KindLib Kind = iota
	KindBin
	KindTest
	KindExample
	KindBench
	KindDoctest
)

var kindNames = [...]string{
	KindLib:     "lib",
	KindBin:     "bin",
	KindTest:    "test",
	KindExample: "example",
	KindBench:   "bench",
	KindDoctest: "doctest",
}

// String returns the cargo name of the kind (e.g., "lib", "test").
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a cargo target kind name to a Kind.
// Library crate types ("rlib", "cdylib", "proc-macro", ...) map to KindLib.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "lib", "rlib", "dylib", "cdylib", "staticlib", "proc-macro":
		return KindLib, true
	case "bin":
		return KindBin, true
	case "test":
		return KindTest, true
	case "example":
		return KindExample, true
	case "bench":
		return KindBench, true
	case "doctest":
		return KindDoctest, true
	}
	return 0, false
}

// ValidKinds returns the names of all kinds in ordinal order.
func ValidKinds() []string {
	names := make([]string, len(kindNames))
	copy(names, kindNames[:])
	return names
}

// Identity uniquely identifies a target within one run.
type Identity struct {
	Package string `json:"package" yaml:"package"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Name    string `json:"name" yaml:"name"`
}

// String formats the identity as "package/kind/name".
func (id Identity) String() string {
	return id.Package + "/" + id.Kind.String() + "/" + id.Name
}

// Describe formats the identity for human-readable messages,
// e.g. `pkga (test "t2")`.
func (id Identity) Describe() string {
	if id.Kind == KindLib || id.Kind == KindDoctest {
		return fmt.Sprintf("%s (%s)", id.Package, id.Kind)
	}
	return fmt.Sprintf("%s (%s %q)", id.Package, id.Kind, id.Name)
}

// RerunFlag returns the selection flag that reruns only this target.
func (id Identity) RerunFlag() string {
	switch id.Kind {
	case KindLib:
		return "--lib"
	case KindDoctest:
		return "--doc"
	default:
		return fmt.Sprintf("--%s %s", id.Kind, id.Name)
	}
}

// MarshalText implements encoding.TextMarshaler for Kind.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Kind.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("invalid target kind %q (valid: %s)", string(b), strings.Join(ValidKinds(), ", "))
	}
	*k = parsed
	return nil
}

// Invocation describes how to run a target that has no standalone executable,
// such as documentation tests that are driven through cargo.
type Invocation struct {
	Program string   `json:"program"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`
}

// Target is one compiled test executable.
type Target struct {
	Identity

	// Path is the absolute path of the executable. Empty for doc tests.
	Path string `json:"path,omitempty"`

	// Harness is true when the executable uses the default libtest harness,
	// which understands flags such as --quiet.
	Harness bool `json:"harness"`

	// DocTest is set for documentation test targets instead of Path.
	DocTest *Invocation `json:"doctest,omitempty"`

	// Dir is the working directory for the process. Empty means the
	// orchestrator's working directory.
	Dir string `json:"dir,omitempty"`

	// Env holds additional environment variables for the process.
	Env map[string]string `json:"env,omitempty"`
}

// Program returns the executable to launch and its fixed leading arguments.
// For doc tests the fixed arguments end with the "--" separator so that
// the filter and pass-through arguments reach the test harness.
func (t Target) Program() (string, []string) {
	if t.DocTest != nil {
		args := make([]string, len(t.DocTest.Args))
		copy(args, t.DocTest.Args)
		if len(args) == 0 || args[len(args)-1] != "--" {
			args = append(args, "--")
		}
		return t.DocTest.Program, args
	}
	return t.Path, nil
}

// WorkDir returns the working directory the target should run in.
func (t Target) WorkDir() string {
	if t.DocTest != nil && t.DocTest.Dir != "" {
		return t.DocTest.Dir
	}
	return t.Dir
}

// Compare orders identities by (Package, Kind, Name).
// Returns a negative number, zero or a positive number.
func Compare(a, b Identity) int {
	if c := strings.Compare(a.Package, b.Package); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

// Sort orders targets deterministically by (Package, Kind, Name) in place.
// The sort is stable, so sorting an already sorted list is a no-op.
func Sort(targets []Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		return Compare(targets[i].Identity, targets[j].Identity) < 0
	})
}

// Sorted returns a sorted copy of targets, leaving the input untouched.
func Sorted(targets []Target) []Target {
	result := make([]Target, len(targets))
	copy(result, targets)
	Sort(result)
	return result
}

// DuplicateError reports a target identity that appears more than once.
type DuplicateError struct {
	Identity Identity
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate test target %s", e.Identity.Describe())
}

// Validate checks that every target has a unique identity and something to run.
func Validate(targets []Target) error {
	seen := make(map[Identity]bool, len(targets))
	for _, t := range targets {
		if seen[t.Identity] {
			return &DuplicateError{Identity: t.Identity}
		}
		seen[t.Identity] = true

		if t.Path == "" && t.DocTest == nil {
			return fmt.Errorf("test target %s has neither an executable path nor a doc-test invocation", t.Describe())
		}
	}
	return nil
}
