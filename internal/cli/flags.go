package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AndreyAkinshin/measuretests/internal/config"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Options holds the parsed command line.
type Options struct {
	Help        bool
	Version     bool
	Completions string

	TestName string
	Args     []string // everything after --

	NoRun       bool
	NoFailFast  bool
	TimeFailing bool
	Runs        *int
	Warmup      *int
	Timeout     *time.Duration

	Doc      bool
	Lib      bool
	Bins     bool
	Bin      []string
	Tests    bool
	Test     []string
	Examples bool
	Example  []string
	Benches  bool
	Bench    []string

	Release           bool
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	Triple            string
	Jobs              *int
	ManifestPath      string

	Format      string
	Report      string
	Metrics     string
	TargetsFile string

	Quiet   bool
	Verbose bool
}

// flagSpec describes one command-line flag. Boolean flags have no Value
// placeholder.
type flagSpec struct {
	Long  string
	Short string
	Value string
	Help  string
	Group string
	set   func(o *Options, value string) error
}

// Help sections in display order.
const (
	groupSelection   = "Target Selection:"
	groupCompilation = "Compilation:"
	groupMeasurement = "Measurement:"
	groupOutput      = "Output:"
)

var flagGroups = []string{groupSelection, groupCompilation, groupMeasurement, groupOutput}

func setTrue(field func(*Options) *bool) func(*Options, string) error {
	return func(o *Options, _ string) error {
		*field(o) = true
		return nil
	}
}

func appendValue(field func(*Options) *[]string) func(*Options, string) error {
	return func(o *Options, v string) error {
		*field(o) = append(*field(o), v)
		return nil
	}
}

func setString(field func(*Options) *string) func(*Options, string) error {
	return func(o *Options, v string) error {
		*field(o) = v
		return nil
	}
}

func setInt(field func(*Options) **int) func(*Options, string) error {
	return func(o *Options, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		*field(o) = &n
		return nil
	}
}

var flagSpecs = []flagSpec{
	{Long: "lib", Help: "Test only this package's library", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Lib })},
	{Long: "bin", Value: "<NAME>", Help: "Test only the specified binary (glob patterns allowed)", Group: groupSelection, set: appendValue(func(o *Options) *[]string { return &o.Bin })},
	{Long: "bins", Help: "Test all binaries", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Bins })},
	{Long: "test", Value: "<NAME>", Help: "Test only the specified test target", Group: groupSelection, set: appendValue(func(o *Options) *[]string { return &o.Test })},
	{Long: "tests", Help: "Test all targets with test = true", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Tests })},
	{Long: "example", Value: "<NAME>", Help: "Test only the specified example", Group: groupSelection, set: appendValue(func(o *Options) *[]string { return &o.Example })},
	{Long: "examples", Help: "Test all examples", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Examples })},
	{Long: "bench", Value: "<NAME>", Help: "Test only the specified bench target", Group: groupSelection, set: appendValue(func(o *Options) *[]string { return &o.Bench })},
	{Long: "benches", Help: "Test all benches", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Benches })},
	{Long: "doc", Help: "Test only this library's documentation", Group: groupSelection, set: setTrue(func(o *Options) *bool { return &o.Doc })},
	{Long: "targets-file", Value: "<FILE>", Help: "Run pre-built targets listed in a JSON file instead of invoking cargo", Group: groupSelection, set: setString(func(o *Options) *string { return &o.TargetsFile })},

	{Long: "release", Help: "Build artifacts in release mode, with optimizations", Group: groupCompilation, set: setTrue(func(o *Options) *bool { return &o.Release })},
	{Long: "features", Value: "<FEATURES>", Help: "Space or comma separated list of features to activate", Group: groupCompilation, set: func(o *Options, v string) error {
		o.Features = append(o.Features, splitFeatures(v)...)
		return nil
	}},
	{Long: "all-features", Help: "Activate all available features", Group: groupCompilation, set: setTrue(func(o *Options) *bool { return &o.AllFeatures })},
	{Long: "no-default-features", Help: "Do not activate the default feature", Group: groupCompilation, set: setTrue(func(o *Options) *bool { return &o.NoDefaultFeatures })},
	{Long: "target", Value: "<TRIPLE>", Help: "Build for the target triple", Group: groupCompilation, set: setString(func(o *Options) *string { return &o.Triple })},
	{Long: "jobs", Short: "j", Value: "<N>", Help: "Number of parallel build jobs", Group: groupCompilation, set: setInt(func(o *Options) **int { return &o.Jobs })},
	{Long: "manifest-path", Value: "<PATH>", Help: "Path to Cargo.toml", Group: groupCompilation, set: setString(func(o *Options) *string { return &o.ManifestPath })},
	{Long: "no-run", Help: "Compile, but don't run tests", Group: groupCompilation, set: setTrue(func(o *Options) *bool { return &o.NoRun })},

	{Long: "runs", Value: "<N>", Help: "Execute every target N times (default 32)", Group: groupMeasurement, set: setInt(func(o *Options) **int { return &o.Runs })},
	{Long: "warmup", Value: "<SECS>", Help: "Exclude runs started within SECS of the first run from timings", Group: groupMeasurement, set: setInt(func(o *Options) **int { return &o.Warmup })},
	{Long: "time-failing", Help: "Keep repeating a target after it failed", Group: groupMeasurement, set: setTrue(func(o *Options) *bool { return &o.TimeFailing })},
	{Long: "timeout", Value: "<DURATION>", Help: "Kill a single run after DURATION (e.g. 30s, 5m)", Group: groupMeasurement, set: func(o *Options, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("not a duration")
		}
		o.Timeout = &d
		return nil
	}},
	{Long: "no-fail-fast", Help: "Run all targets regardless of failure", Group: groupMeasurement, set: setTrue(func(o *Options) *bool { return &o.NoFailFast })},

	{Long: "format", Value: "<FORMAT>", Help: "Report format: table, json or yaml", Group: groupOutput, set: setString(func(o *Options) *string { return &o.Format })},
	{Long: "report", Value: "<FILE>", Help: "Also write the report to FILE (JSON or YAML)", Group: groupOutput, set: setString(func(o *Options) *string { return &o.Report })},
	{Long: "metrics", Value: "<FILE>", Help: "Write timings as a Prometheus textfile", Group: groupOutput, set: setString(func(o *Options) *string { return &o.Metrics })},
	{Long: "quiet", Short: "q", Help: "Display one character per test instead of one line", Group: groupOutput, set: setTrue(func(o *Options) *bool { return &o.Quiet })},
	{Long: "verbose", Short: "v", Help: "Print the command line of every run", Group: groupOutput, set: setTrue(func(o *Options) *bool { return &o.Verbose })},
	{Long: "completions", Value: "<SHELL>", Help: "Print a completion script for bash, zsh or fish", Group: groupOutput, set: setString(func(o *Options) *string { return &o.Completions })},
	{Long: "help", Short: "h", Help: "Show this help", Group: groupOutput, set: setTrue(func(o *Options) *bool { return &o.Help })},
	{Long: "version", Short: "V", Help: "Show version", Group: groupOutput, set: setTrue(func(o *Options) *bool { return &o.Version })},
}

func lookupFlag(name string) (flagSpec, bool) {
	for _, spec := range flagSpecs {
		if name == "--"+spec.Long || (spec.Short != "" && name == "-"+spec.Short) {
			return spec, true
		}
	}
	return flagSpec{}, false
}

// splitFeatures splits a cargo --features value on commas and whitespace.
func splitFeatures(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// parseArgs manually parses the command line.
//
// Manual parsing is used instead of the stdlib flag package because flags
// and the TESTNAME positional may be interleaved, and arguments after --
// must be preserved verbatim for the test executables.
func parseArgs(args []string) (*Options, error) {
	// Invoked as `cargo measuretests`, cargo passes the subcommand name first.
	if len(args) > 0 && args[0] == "measuretests" {
		args = args[1:]
	}

	opts := &Options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			opts.Args = append([]string(nil), args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			if opts.TestName != "" {
				return nil, fmt.Errorf("unexpected argument '%s' found", arg)
			}
			opts.TestName = arg
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		spec, ok := lookupFlag(name)
		if !ok {
			return nil, fmt.Errorf("unexpected argument '%s' found", arg)
		}
		if spec.Value == "" {
			if hasValue {
				return nil, fmt.Errorf("%s does not take a value", name)
			}
			_ = spec.set(opts, "")
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value %s", name, spec.Value)
			}
			i++
			value = args[i]
		}
		if err := spec.set(opts, value); err != nil {
			return nil, fmt.Errorf("invalid value '%s' for '%s': %v", value, name, err)
		}
	}

	if opts.Quiet && opts.Verbose {
		return nil, fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return opts, nil
}

// Apply overlays the command line onto cfg. Relative paths are resolved
// against dir.
func (o *Options) Apply(cfg *config.RunConfiguration, dir string) {
	cfg.TestNameFilter = o.TestName
	cfg.PassThroughArgs = append(cfg.PassThroughArgs, o.Args...)

	if o.NoFailFast {
		cfg.FailFast = false
	}
	if o.NoRun {
		cfg.NoRun = true
	}
	if o.TimeFailing {
		cfg.TimeFailing = true
	}
	if o.Runs != nil {
		cfg.RunCount = *o.Runs
	}
	if o.Warmup != nil {
		cfg.WarmupSeconds = *o.Warmup
	}
	if o.Timeout != nil {
		cfg.RunTimeout = *o.Timeout
	}
	if o.Quiet {
		cfg.Quiet = true
	}
	if o.Verbose {
		cfg.Verbose = true
		cfg.Quiet = false
	}

	cfg.Build.Selection = target.Selection{
		Lib:      o.Lib,
		Bins:     target.Rule{All: o.Bins, Patterns: o.Bin},
		Tests:    target.Rule{All: o.Tests, Patterns: o.Test},
		Examples: target.Rule{All: o.Examples, Patterns: o.Example},
		Benches:  target.Rule{All: o.Benches, Patterns: o.Bench},
		Doc:      o.Doc,
	}
	if o.Release {
		cfg.Build.Release = true
	}
	cfg.Build.Features = append(cfg.Build.Features, o.Features...)
	if o.AllFeatures {
		cfg.Build.AllFeatures = true
	}
	if o.NoDefaultFeatures {
		cfg.Build.NoDefaultFeatures = true
	}
	if o.Triple != "" {
		cfg.Build.Triple = o.Triple
	}
	if o.Jobs != nil {
		cfg.Build.Jobs = *o.Jobs
	}
	if o.ManifestPath != "" {
		cfg.Build.ManifestPath = absPath(dir, o.ManifestPath)
	}

	if o.Format != "" {
		cfg.Report.Format = o.Format
	}
	if o.Report != "" {
		cfg.Report.Path = absPath(dir, o.Report)
	}
	if o.Metrics != "" {
		cfg.Report.MetricsPath = absPath(dir, o.Metrics)
	}
	if o.TargetsFile != "" {
		cfg.TargetsFile = absPath(dir, o.TargetsFile)
	}
}

func absPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
