package config

import (
	"fmt"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultRunCount      = 32
	DefaultWarmupSeconds = 0
	DefaultReportFormat  = "table"

	// FileName is the project configuration file looked up next to Cargo.toml.
	FileName = "measuretests.json"

	EnvRuns   = "MEASURETESTS_RUNS"
	EnvWarmup = "MEASURETESTS_WARMUP"
)

// Default returns the configuration used when nothing is overridden.
func Default() *RunConfiguration {
	return &RunConfiguration{
		FailFast:      true,
		RunCount:      DefaultRunCount,
		WarmupSeconds: DefaultWarmupSeconds,
		Report:        ReportOptions{Format: DefaultReportFormat},
	}
}

// ApplyFile overlays values set in the project file onto cfg.
func ApplyFile(cfg *RunConfiguration, fc *FileConfig) error {
	if fc == nil {
		return nil
	}
	if fc.Runs != nil {
		cfg.RunCount = *fc.Runs
	}
	if fc.Warmup != nil {
		cfg.WarmupSeconds = *fc.Warmup
	}
	if fc.FailFast != nil {
		cfg.FailFast = *fc.FailFast
	}
	if fc.TimeFailing != nil {
		cfg.TimeFailing = *fc.TimeFailing
	}
	if fc.Quiet != nil {
		cfg.Quiet = *fc.Quiet
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return &ValidationError{Field: "timeout", Message: fmt.Sprintf("invalid duration %q", fc.Timeout)}
		}
		cfg.RunTimeout = d
	}
	if len(fc.Args) > 0 {
		cfg.PassThroughArgs = append([]string(nil), fc.Args...)
	}
	applyFileBuild(&cfg.Build, fc.Build)
	applyFileReport(&cfg.Report, fc.Report)
	return nil
}

func applyFileBuild(opts *BuildOptions, fb *FileBuildConfig) {
	if fb == nil {
		return
	}
	if fb.Release != nil {
		opts.Release = *fb.Release
	}
	if len(fb.Features) > 0 {
		opts.Features = append([]string(nil), fb.Features...)
	}
	if fb.AllFeatures != nil {
		opts.AllFeatures = *fb.AllFeatures
	}
	if fb.NoDefaultFeatures != nil {
		opts.NoDefaultFeatures = *fb.NoDefaultFeatures
	}
	if fb.Target != "" {
		opts.Triple = fb.Target
	}
	if fb.Jobs != nil {
		opts.Jobs = *fb.Jobs
	}
}

func applyFileReport(opts *ReportOptions, fr *FileReport) {
	if fr == nil {
		return
	}
	if fr.Format != "" {
		opts.Format = fr.Format
	}
	if fr.Path != "" {
		opts.Path = fr.Path
	}
	if fr.Metrics != "" {
		opts.MetricsPath = fr.Metrics
	}
}

// ApplyEnv overlays MEASURETESTS_* environment variables onto cfg.
// Malformed values are ignored and reported as warnings.
func ApplyEnv(cfg *RunConfiguration, getenv func(string) string) []string {
	var warnings []string
	if v := getenv(EnvRuns); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s value %q (not a number), ignored", EnvRuns, v))
		} else {
			cfg.RunCount = n
		}
	}
	if v := getenv(EnvWarmup); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s value %q (not a number), ignored", EnvWarmup, v))
		} else {
			cfg.WarmupSeconds = n
		}
	}
	return warnings
}
