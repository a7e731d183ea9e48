package build

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Cargo builds test targets with `cargo test --no-run` and reads the
// produced executables from cargo's JSON messages.
type Cargo struct {
	// Program is the cargo executable. Empty means $CARGO, then "cargo".
	Program string

	// Dir is the directory cargo runs in.
	Dir string

	// Stderr receives cargo's progress and rendered diagnostics.
	Stderr io.Writer

	manifests manifestCache
}

// NewCargo creates a cargo builder running in dir.
func NewCargo(dir string, stderr io.Writer) *Cargo {
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Cargo{Dir: dir, Stderr: stderr}
}

func (c *Cargo) program() (string, error) {
	name := c.Program
	if name == "" {
		name = os.Getenv("CARGO")
	}
	if name == "" {
		name = "cargo"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", merrors.Environmentf("cargo is not available: %v", err)
	}
	return path, nil
}

// Args returns the cargo arguments used to compile the request.
func (c *Cargo) Args(req Request) []string {
	args := []string{"test", "--no-run", "--message-format=json-render-diagnostics"}
	args = append(args, req.SelectionFlags()...)
	return append(args, req.Flags()...)
}

// Build compiles the selected targets and returns their executables.
func (c *Cargo) Build(ctx context.Context, req Request) ([]target.Target, error) {
	program, err := c.program()
	if err != nil {
		return nil, err
	}

	args := c.Args(req)
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = c.Dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, merrors.Build(fmt.Errorf("could not compile test targets: `%s %s` exited with status %d",
				filepath.Base(program), strings.Join(args, " "), exitErr.ExitCode()))
		}
		return nil, merrors.Build(fmt.Errorf("could not run cargo: %w", err))
	}

	artifacts, err := ParseArtifacts(&stdout)
	if err != nil {
		return nil, merrors.Build(err)
	}

	if req.Selection.Doc {
		return c.docTargets(program, req, artifacts), nil
	}
	return req.Selection.Filter(c.targets(artifacts)), nil
}

func (c *Cargo) targets(artifacts []Artifact) []target.Target {
	var result []target.Target
	for _, a := range artifacts {
		t, ok := a.TestTarget()
		if !ok {
			continue
		}
		if m := c.manifests.get(a.ManifestPath); m != nil {
			t.Harness = m.harness(t.Kind, t.Name)
		}
		result = append(result, t)
	}
	return result
}

// docTargets emits one synthetic doc-test target per library package.
func (c *Cargo) docTargets(program string, req Request, artifacts []Artifact) []target.Target {
	var result []target.Target
	seen := make(map[string]bool)
	for _, a := range artifacts {
		t, ok := a.TestTarget()
		if !ok || t.Kind != target.KindLib || seen[t.Package] {
			continue
		}
		seen[t.Package] = true

		args := []string{"test", "--doc", "--package", t.Package}
		args = append(args, req.Flags()...)
		args = append(args, "--")

		result = append(result, target.Target{
			Identity: target.Identity{Package: t.Package, Kind: target.KindDoctest, Name: t.Name},
			Harness:  true,
			DocTest:  &target.Invocation{Program: program, Args: args, Dir: c.Dir},
		})
	}
	return result
}

// Artifact is a cargo "compiler-artifact" JSON message.
type Artifact struct {
	Reason       string `json:"reason"`
	PackageID    string `json:"package_id"`
	ManifestPath string `json:"manifest_path"`
	Target       struct {
		Kind       []string `json:"kind"`
		CrateTypes []string `json:"crate_types"`
		Name       string   `json:"name"`
		SrcPath    string   `json:"src_path"`
	} `json:"target"`
	Profile struct {
		Test bool `json:"test"`
	} `json:"profile"`
	Executable *string `json:"executable"`
}

// TestTarget converts a test executable artifact into a target. It returns
// false for artifacts that are not test executables, such as build scripts
// and dependency libraries.
func (a Artifact) TestTarget() (target.Target, bool) {
	if a.Reason != "compiler-artifact" || a.Executable == nil || *a.Executable == "" || !a.Profile.Test {
		return target.Target{}, false
	}
	if len(a.Target.Kind) == 0 {
		return target.Target{}, false
	}
	kind, ok := target.ParseKind(a.Target.Kind[0])
	if !ok {
		return target.Target{}, false
	}

	pkg := PackageName(a.PackageID)
	t := target.Target{
		Identity: target.Identity{Package: pkg, Kind: kind, Name: a.Target.Name},
		Path:     *a.Executable,
		Harness:  true,
	}
	if a.ManifestPath != "" {
		dir := filepath.Dir(a.ManifestPath)
		t.Dir = dir
		t.Env = map[string]string{
			"CARGO_MANIFEST_DIR": dir,
			"CARGO_PKG_NAME":     pkg,
		}
	}
	return t, true
}

// ParseArtifacts reads cargo's line-delimited JSON messages and returns
// the compiler-artifact messages. Non-JSON lines are ignored.
func ParseArtifacts(r io.Reader) ([]Artifact, error) {
	var artifacts []Artifact
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var a Artifact
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("malformed cargo message: %w", err)
		}
		if a.Reason == "compiler-artifact" {
			artifacts = append(artifacts, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cargo output: %w", err)
	}
	return artifacts, nil
}

// PackageName extracts the package name from a cargo package ID. Both the
// legacy "name version (source)" form and the package ID spec form
// "source#name@version" are understood.
func PackageName(id string) string {
	if i := strings.IndexByte(id, '#'); i >= 0 {
		frag := id[i+1:]
		if j := strings.IndexByte(frag, '@'); j >= 0 {
			return frag[:j]
		}
		// "path+file:///ws/pkga#0.1.0": the name is the last path segment.
		src := id[:i]
		if q := strings.IndexByte(src, '?'); q >= 0 {
			src = src[:q]
		}
		src = strings.TrimRight(src, "/")
		return src[strings.LastIndexByte(src, '/')+1:]
	}
	if i := strings.IndexByte(id, ' '); i >= 0 {
		return id[:i]
	}
	return id
}
