package target

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRule_Matches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rule Rule
		in   string
		want bool
	}{
		{"none", Rule{}, "t1", false},
		{"all", Rule{All: true}, "anything", true},
		{"exact", Rule{Patterns: []string{"t1"}}, "t1", true},
		{"exact miss", Rule{Patterns: []string{"t1"}}, "t10", false},
		{"glob", Rule{Patterns: []string{"int_*"}}, "int_api", true},
		{"glob miss", Rule{Patterns: []string{"int_*"}}, "unit_api", false},
		{"alternation", Rule{Patterns: []string{"{a,b}"}}, "b", true},
		{"second pattern", Rule{Patterns: []string{"x", "y?"}}, "yz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.in); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRule_HasGlobAndValidate(t *testing.T) {
	t.Parallel()
	if (Rule{Patterns: []string{"plain"}}).HasGlob() {
		t.Error("HasGlob(plain) = true")
	}
	if !(Rule{Patterns: []string{"plain", "int_*"}}).HasGlob() {
		t.Error("HasGlob(int_*) = false")
	}
	if err := (Rule{Patterns: []string{"[abc"}}).Validate(); err == nil {
		t.Error("Validate([abc) = nil, want error")
	}
}

func TestSelection_IsExplicit(t *testing.T) {
	t.Parallel()
	if (Selection{}).IsExplicit() {
		t.Error("zero Selection is explicit")
	}
	if (Selection{Doc: true}).IsExplicit() {
		t.Error("doc-only Selection is explicit")
	}
	if !(Selection{Lib: true}).IsExplicit() {
		t.Error("--lib Selection is not explicit")
	}
	if !(Selection{Benches: Rule{Patterns: []string{"b"}}}).IsExplicit() {
		t.Error("--bench b Selection is not explicit")
	}
}

func TestSelection_Filter(t *testing.T) {
	t.Parallel()
	all := []Target{
		mk("p", KindLib, "p"),
		mk("p", KindBin, "cli"),
		mk("p", KindTest, "int_api"),
		mk("p", KindTest, "smoke"),
		mk("p", KindExample, "demo"),
		mk("p", KindBench, "perf"),
		{Identity: Identity{"p", KindDoctest, "p"}, DocTest: &Invocation{Program: "cargo"}},
	}

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{
			name: "default",
			sel:  Selection{},
			want: []string{"p/lib/p", "p/bin/cli", "p/test/int_api", "p/test/smoke"},
		},
		{
			name: "tests glob",
			sel:  Selection{Tests: Rule{Patterns: []string{"int_*"}}},
			want: []string{"p/test/int_api"},
		},
		{
			name: "examples and benches",
			sel:  Selection{Examples: Rule{All: true}, Benches: Rule{All: true}},
			want: []string{"p/example/demo", "p/bench/perf"},
		},
		{
			name: "doc only",
			sel:  Selection{Doc: true},
			want: []string{"p/doctest/p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.sel.Filter(all))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
