// Package integration runs measuretests end to end against real executables.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/measuretests/internal/cli"
	"github.com/AndreyAkinshin/measuretests/internal/output"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script targets require a POSIX shell")
	}
}

// script is a fake test executable.
type script struct {
	Package string
	Kind    string
	Name    string
	Body    string
	Harness bool
}

// passing prints libtest-style output for a successful run.
func passing(pkg, kind, name string) script {
	return script{Package: pkg, Kind: kind, Name: name, Harness: true, Body: `echo "running 2 tests"
echo "test a ... ok"
echo "test b ... ok"
echo ""
echo "test result: ok. 2 passed; 0 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.00s"`}
}

// failing prints libtest-style output for a failed run and exits with code.
func failing(pkg, kind, name, code string) script {
	return script{Package: pkg, Kind: kind, Name: name, Harness: true, Body: `echo "running 2 tests"
echo "test a ... ok"
echo "test math::adds ... FAILED"
echo ""
echo "test result: FAILED. 1 passed; 1 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.00s"
exit ` + code}
}

// workspace writes the scripts and a targets file listing them into a
// temp dir and returns the dir.
func workspace(t *testing.T, scripts ...script) string {
	t.Helper()
	dir := t.TempDir()
	type entry struct {
		Package string `json:"package"`
		Kind    string `json:"kind"`
		Name    string `json:"name"`
		Path    string `json:"path"`
		Harness bool   `json:"harness"`
	}
	entries := make([]entry, 0, len(scripts))
	for _, s := range scripts {
		rel := filepath.Join("bin", s.Package+"-"+s.Kind+"-"+s.Name+".sh")
		writeFile(t, filepath.Join(dir, rel), "#!/bin/sh\n"+s.Body+"\n", 0o755)
		entries = append(entries, entry{Package: s.Package, Kind: s.Kind, Name: s.Name, Path: rel, Harness: s.Harness})
	}
	data, err := json.MarshalIndent(map[string]any{"targets": entries}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "targets.json"), string(data), 0o644)
	return dir
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

// result captures one CLI invocation.
type result struct {
	code   int
	stdout string
	stderr string
}

// run invokes the CLI in dir with real process spawning and a real clock.
func run(t *testing.T, dir string, env map[string]string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := &cli.App{
		Out:    output.NewWithWriters(&stdout, &stderr, false),
		Getenv: func(k string) string { return env[k] },
		Dir:    dir,
	}
	code := app.Run(t.Context(), args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}
