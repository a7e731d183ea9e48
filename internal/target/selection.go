package target

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule selects targets of one kind: none, all, or those whose names match
// at least one pattern. Patterns use glob syntax ("int_*", "api/**").
type Rule struct {
	All      bool     `json:"all,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

// IsSet reports whether the rule selects anything.
func (r Rule) IsSet() bool {
	return r.All || len(r.Patterns) > 0
}

// Matches reports whether the rule selects a target named name.
func (r Rule) Matches(name string) bool {
	if r.All {
		return true
	}
	for _, p := range r.Patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// HasGlob reports whether any pattern contains glob metacharacters.
func (r Rule) HasGlob() bool {
	for _, p := range r.Patterns {
		if hasMeta(p) {
			return true
		}
	}
	return false
}

// Validate checks that every pattern is well-formed.
func (r Rule) Validate() error {
	for _, p := range r.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid target pattern %q", p)
		}
	}
	return nil
}

func hasMeta(p string) bool {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*', '?', '[', '{', '\\':
			return true
		}
	}
	return false
}

// Selection is the target-selection filter passed to the build collaborator.
// The zero value is the default selection.
type Selection struct {
	Lib      bool `json:"lib,omitempty"`
	Bins     Rule `json:"bins,omitempty"`
	Tests    Rule `json:"tests,omitempty"`
	Examples Rule `json:"examples,omitempty"`
	Benches  Rule `json:"benches,omitempty"`
	Doc      bool `json:"doc,omitempty"`
}

// IsExplicit reports whether any target-kind selector was given.
// Doc-only mode is not counted.
func (s Selection) IsExplicit() bool {
	return s.Lib || s.Bins.IsSet() || s.Tests.IsSet() || s.Examples.IsSet() || s.Benches.IsSet()
}

// DefaultSelection selects what a plain test run compiles and runs:
// library unit tests, the unit tests of every binary and every integration test.
func DefaultSelection() Selection {
	return Selection{
		Lib:   true,
		Bins:  Rule{All: true},
		Tests: Rule{All: true},
	}
}

// Effective resolves the zero-value default into the concrete default selection.
func (s Selection) Effective() Selection {
	if s.Doc {
		return Selection{Doc: true}
	}
	if !s.IsExplicit() {
		return DefaultSelection()
	}
	return s
}

// Matches reports whether the selection includes target t.
func (s Selection) Matches(t Target) bool {
	eff := s.Effective()
	switch t.Kind {
	case KindLib:
		return eff.Lib
	case KindBin:
		return eff.Bins.Matches(t.Name)
	case KindTest:
		return eff.Tests.Matches(t.Name)
	case KindExample:
		return eff.Examples.Matches(t.Name)
	case KindBench:
		return eff.Benches.Matches(t.Name)
	case KindDoctest:
		return eff.Doc
	}
	return false
}

// Filter returns the targets matched by the selection, preserving order.
func (s Selection) Filter(targets []Target) []Target {
	var result []Target
	for _, t := range targets {
		if s.Matches(t) {
			result = append(result, t)
		}
	}
	return result
}

// Validate checks every rule's patterns.
func (s Selection) Validate() error {
	for _, r := range []Rule{s.Bins, s.Tests, s.Examples, s.Benches} {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
