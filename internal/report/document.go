// Package report renders the outcome of a test run: a timing table, a
// console summary, JSON and YAML documents and a Prometheus textfile.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/measuretests/internal/runner"
	"github.com/AndreyAkinshin/measuretests/internal/testparser"
	"github.com/AndreyAkinshin/measuretests/internal/timing"
)

// Document is the serializable form of a runner.Result. Targets appear in
// execution order.
type Document struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Started       time.Time     `json:"started" yaml:"started"`
	Finished      time.Time     `json:"finished" yaml:"finished"`
	RunCount      int           `json:"run_count" yaml:"run_count"`
	WarmupSeconds int           `json:"warmup_seconds" yaml:"warmup_seconds"`
	Mode          string        `json:"mode" yaml:"mode"`
	Success       bool          `json:"success" yaml:"success"`
	Tests         Counts        `json:"tests" yaml:"tests"`
	Targets       []TargetEntry `json:"targets" yaml:"targets"`
}

// Counts mirrors the harness counts of one or more runs.
type Counts struct {
	Passed   int `json:"passed" yaml:"passed"`
	Failed   int `json:"failed" yaml:"failed"`
	Ignored  int `json:"ignored" yaml:"ignored"`
	Filtered int `json:"filtered_out" yaml:"filtered_out"`
	Total    int `json:"total" yaml:"total"`
}

// TargetEntry describes one attempted target.
type TargetEntry struct {
	Package     string   `json:"package" yaml:"package"`
	Kind        string   `json:"kind" yaml:"kind"`
	Name        string   `json:"name" yaml:"name"`
	Path        string   `json:"path,omitempty" yaml:"path,omitempty"`
	Runs        int      `json:"runs" yaml:"runs"`
	WarmupRuns  int      `json:"warmup_runs" yaml:"warmup_runs"`
	Failed      bool     `json:"failed" yaml:"failed"`
	Failure     string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	ExitCode    *int     `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	FailedTests []string `json:"failed_tests,omitempty" yaml:"failed_tests,omitempty"`
	Tests       *Counts  `json:"tests,omitempty" yaml:"tests,omitempty"`
	Timing      *Timing  `json:"timing,omitempty" yaml:"timing,omitempty"`
}

// Timing holds a timing summary in seconds.
type Timing struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Total  float64 `json:"total" yaml:"total"`
}

// NewDocument converts a result into its serializable form.
func NewDocument(r *runner.Result) *Document {
	doc := &Document{
		RunID:         r.RunID.String(),
		Started:       r.Started,
		Finished:      r.Finished,
		RunCount:      r.RunCount,
		WarmupSeconds: r.WarmupSeconds,
		Mode:          r.Mode().String(),
		Success:       r.Success(),
		Tests:         countsOf(r.Counts()),
		Targets:       make([]TargetEntry, 0, len(r.Attempted)),
	}

	failures := make(map[string]runner.TargetFailure, len(r.Failures))
	for _, f := range r.Failures {
		failures[f.Target.String()] = f
	}

	for _, a := range r.Attempted {
		entry := TargetEntry{
			Package:    a.Target.Package,
			Kind:       a.Target.Kind.String(),
			Name:       a.Target.Name,
			Path:       a.Target.Path,
			Runs:       a.Runs,
			WarmupRuns: a.WarmupRuns,
			Failed:     a.Failed,
		}
		if a.Counts.Parsed {
			c := countsOf(a.Counts)
			entry.Tests = &c
		}
		if f, ok := failures[a.Target.String()]; ok && f.Failure != nil {
			entry.Failure = f.Failure.Hint()
			entry.FailedTests = f.FailedTests
			if code, ok := f.Failure.Code(); ok {
				entry.ExitCode = &code
			}
		}
		if s, ok := r.Timings[a.Target.Identity]; ok {
			entry.Timing = timingOf(s)
		}
		doc.Targets = append(doc.Targets, entry)
	}
	return doc
}

func countsOf(c testparser.TestCounts) Counts {
	return Counts{
		Passed:   c.Passed,
		Failed:   c.Failed,
		Ignored:  c.Skipped,
		Filtered: c.Filtered,
		Total:    c.Total,
	}
}

func timingOf(s timing.Summary) *Timing {
	return &Timing{
		Count:  s.Count,
		Mean:   s.Mean.Seconds(),
		Median: s.Median.Seconds(),
		Min:    s.Min.Seconds(),
		Max:    s.Max.Seconds(),
		Total:  s.Total.Seconds(),
	}
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes the document as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders r in the given format: "table", "json" or "yaml".
func Write(w io.Writer, format string, r *runner.Result) error {
	switch format {
	case "json":
		return WriteJSON(w, NewDocument(r))
	case "yaml":
		return WriteYAML(w, NewDocument(r))
	case "table", "":
		return WriteTable(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// FileFormat picks the export format of a report file. An explicit json
// or yaml format wins; otherwise the extension decides: YAML for .yaml and
// .yml, JSON for anything else.
func FileFormat(format, path string) string {
	if format == "json" || format == "yaml" {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// WriteFile exports r to path. See FileFormat for how the format is chosen.
func WriteFile(path, format string, r *runner.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Write(f, FileFormat(format, path), r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
