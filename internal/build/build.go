// Package build compiles test targets and lists the resulting executables.
package build

import (
	"context"
	"strconv"

	"github.com/AndreyAkinshin/measuretests/internal/config"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Request describes what to compile.
type Request struct {
	Selection         target.Selection
	Release           bool
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	Triple            string
	Jobs              int
	ManifestPath      string
}

// RequestFrom derives a build request from a run configuration.
func RequestFrom(cfg *config.RunConfiguration) Request {
	b := cfg.Build
	return Request{
		Selection:         b.Selection,
		Release:           b.Release,
		Features:          b.Features,
		AllFeatures:       b.AllFeatures,
		NoDefaultFeatures: b.NoDefaultFeatures,
		Triple:            b.Triple,
		Jobs:              b.Jobs,
		ManifestPath:      b.ManifestPath,
	}
}

// Builder compiles the selected targets.
//
// On success the returned targets have unique identities and carry either an
// absolute executable path or a doc-test invocation. Their order is
// unspecified. A non-nil error means nothing may be executed.
type Builder interface {
	Build(ctx context.Context, req Request) ([]target.Target, error)
}

// Flags renders the build options shared by every cargo invocation,
// excluding target selection.
func (r Request) Flags() []string {
	var args []string
	if r.Release {
		args = append(args, "--release")
	}
	for _, f := range r.Features {
		args = append(args, "--features", f)
	}
	if r.AllFeatures {
		args = append(args, "--all-features")
	}
	if r.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if r.Triple != "" {
		args = append(args, "--target", r.Triple)
	}
	if r.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(r.Jobs))
	}
	if r.ManifestPath != "" {
		args = append(args, "--manifest-path", r.ManifestPath)
	}
	return args
}

// SelectionFlags renders the target-selection flags for cargo. Rules with
// glob patterns compile every target of that kind; the patterns are applied
// to the artifacts afterwards.
func (r Request) SelectionFlags() []string {
	sel := r.Selection
	if sel.Doc {
		return []string{"--lib"}
	}
	if !sel.IsExplicit() {
		return nil
	}

	var args []string
	if sel.Lib {
		args = append(args, "--lib")
	}
	args = append(args, ruleFlags("bin", sel.Bins)...)
	args = append(args, ruleFlags("test", sel.Tests)...)
	args = append(args, ruleFlags("example", sel.Examples)...)
	args = append(args, ruleFlags("bench", sel.Benches)...)
	return args
}

func ruleFlags(kind string, r target.Rule) []string {
	if !r.IsSet() {
		return nil
	}
	if r.All || r.HasGlob() {
		return []string{"--" + kind + "s"}
	}
	args := make([]string, 0, 2*len(r.Patterns))
	for _, p := range r.Patterns {
		args = append(args, "--"+kind, p)
	}
	return args
}
