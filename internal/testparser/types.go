// Package testparser extracts result counts from libtest harness output.
package testparser

import "time"

// FailedTest holds information about a single failed test case.
type FailedTest struct {
	Name   string // test path, e.g. "tests::parses_empty"
	Reason string // first panic line, if captured
}

// TestCounts holds parsed test result counts.
type TestCounts struct {
	Passed      int
	Failed      int
	Skipped     int
	Filtered    int
	Total       int
	Parsed      bool          // true if at least one summary line was found
	Elapsed     time.Duration // sum of the harness's own "finished in" times
	FailedTests []FailedTest
}

// Add adds another TestCounts to this one, aggregating the counts.
// Parsed is sticky: once any added result was parsed the aggregate is too.
func (tc *TestCounts) Add(other *TestCounts) {
	if other == nil {
		return
	}
	tc.Passed += other.Passed
	tc.Failed += other.Failed
	tc.Skipped += other.Skipped
	tc.Filtered += other.Filtered
	tc.Total += other.Total
	tc.Elapsed += other.Elapsed
	tc.FailedTests = append(tc.FailedTests, other.FailedTests...)
	if other.Parsed {
		tc.Parsed = true
	}
}

// FailedNames returns the names of failed test cases in output order.
func (tc *TestCounts) FailedNames() []string {
	names := make([]string, len(tc.FailedTests))
	for i, f := range tc.FailedTests {
		names[i] = f.Name
	}
	return names
}
