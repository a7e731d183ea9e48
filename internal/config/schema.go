// Package config provides the run configuration and the measuretests.json
// project file.
package config

import (
	"time"

	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// RunConfiguration is the immutable configuration of one orchestration run.
type RunConfiguration struct {
	// TestNameFilter is passed as the first positional argument to every
	// test executable. Empty means unset.
	TestNameFilter string

	// PassThroughArgs are forwarded verbatim after the filter.
	PassThroughArgs []string

	FailFast bool
	NoRun    bool

	// RunCount is how many times each target is executed (at least 1).
	RunCount int

	// WarmupSeconds is the window, measured from the first run's start,
	// during which started runs are excluded from timing statistics.
	WarmupSeconds int

	Quiet   bool
	Verbose bool

	// TimeFailing keeps repeating a target after it failed so that its
	// timing summary covers the full run count.
	TimeFailing bool

	// RunTimeout bounds a single invocation. Zero disables the timeout.
	RunTimeout time.Duration

	Build  BuildOptions
	Report ReportOptions

	// TargetsFile, when set, names a JSON file listing pre-built targets.
	// The cargo build step is skipped.
	TargetsFile string
}

// Warmup returns the warmup window as a duration.
func (c *RunConfiguration) Warmup() time.Duration {
	return time.Duration(c.WarmupSeconds) * time.Second
}

// Timed reports whether timing statistics are collected (more than one run).
func (c *RunConfiguration) Timed() bool {
	return c.RunCount > 1
}

// BuildOptions are forwarded to the build service.
type BuildOptions struct {
	Selection         target.Selection
	Release           bool
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	Triple            string
	Jobs              int
	ManifestPath      string
}

// ReportOptions control how the final report is rendered and exported.
type ReportOptions struct {
	Format      string // "table", "json" or "yaml"
	Path        string // report file written in addition to stdout
	MetricsPath string // Prometheus textfile; empty disables export
}

// FileConfig is the on-disk measuretests.json format. Pointer fields
// distinguish "unset" from zero values.
type FileConfig struct {
	Runs        *int             `json:"runs,omitempty"`
	Warmup      *int             `json:"warmup,omitempty"`
	FailFast    *bool            `json:"fail_fast,omitempty"`
	TimeFailing *bool            `json:"time_failing,omitempty"`
	Timeout     string           `json:"timeout,omitempty"`
	Quiet       *bool            `json:"quiet,omitempty"`
	Args        []string         `json:"args,omitempty"`
	Build       *FileBuildConfig `json:"build,omitempty"`
	Report      *FileReport      `json:"report,omitempty"`
}

// FileBuildConfig holds default build flags.
type FileBuildConfig struct {
	Release           *bool    `json:"release,omitempty"`
	Features          []string `json:"features,omitempty"`
	AllFeatures       *bool    `json:"all_features,omitempty"`
	NoDefaultFeatures *bool    `json:"no_default_features,omitempty"`
	Target            string   `json:"target,omitempty"`
	Jobs              *int     `json:"jobs,omitempty"`
}

// FileReport holds default report settings.
type FileReport struct {
	Format  string `json:"format,omitempty"`
	Path    string `json:"path,omitempty"`
	Metrics string `json:"metrics,omitempty"`
}
