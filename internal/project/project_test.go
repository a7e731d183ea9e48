package project

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func noEnv(string) string { return "" }

func TestFindRootFrom_Found(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"demo\"\n")

	found, err := FindRootFrom(root)
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if found != root {
		t.Errorf("FindRootFrom() = %q, want %q", found, root)
	}
}

func TestFindRootFrom_FoundFromSubdir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "measuretests.json"), `{"runs": 4}`)

	subdir := filepath.Join(root, "src", "module", "deep")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindRootFrom(subdir)
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if found != root {
		t.Errorf("FindRootFrom() = %q, want %q", found, root)
	}
}

func TestFindRootFrom_NearestManifestWins(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[workspace]\n")
	member := filepath.Join(root, "crates", "core")
	writeFile(t, filepath.Join(member, "Cargo.toml"), "[package]\nname = \"core\"\n")

	found, err := FindRootFrom(filepath.Join(member))
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if found != member {
		t.Errorf("FindRootFrom() = %q, want %q", found, member)
	}
}

func TestFindRootFrom_NotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := FindRootFrom(dir)
	if err != ErrNoProjectRoot {
		t.Errorf("FindRootFrom() error = %v, want ErrNoProjectRoot", err)
	}
}

func TestLoadProjectFrom_Defaults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	proj, err := LoadProjectFrom(root, noEnv)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	if proj.HasConfigFile() {
		t.Error("HasConfigFile() = true without measuretests.json")
	}
	if proj.Config.RunCount != 32 || !proj.Config.FailFast {
		t.Errorf("Config = %+v, want defaults", proj.Config)
	}
}

func TestLoadProjectFrom_FileAndEnv(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "measuretests.json"), `{"runs": 8, "warmup": 2, "fail_fast": false, "colour": "red"}`)

	env := map[string]string{"MEASURETESTS_RUNS": "12"}
	proj, err := LoadProjectFrom(root, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	if !proj.HasConfigFile() {
		t.Error("HasConfigFile() = false")
	}
	cfg := proj.Config
	if cfg.RunCount != 12 || cfg.WarmupSeconds != 2 || cfg.FailFast {
		t.Errorf("Config = runs %d, warmup %d, fail_fast %v; want 12, 2, false", cfg.RunCount, cfg.WarmupSeconds, cfg.FailFast)
	}
	if len(proj.Warnings) != 1 || !strings.Contains(proj.Warnings[0], `"colour"`) {
		t.Errorf("Warnings = %v, want one unknown-field warning", proj.Warnings)
	}
}

func TestLoadProjectFrom_ReportPathsRelativeToRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "m.prom")
	writeFile(t, filepath.Join(root, "measuretests.json"), `{"report": {"path": "target/timings.json", "metrics": "`+filepath.ToSlash(abs)+`"}}`)

	proj, err := LoadProjectFrom(root, noEnv)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	if want := filepath.Join(root, "target", "timings.json"); proj.Config.Report.Path != want {
		t.Errorf("Report.Path = %q, want %q", proj.Config.Report.Path, want)
	}
	if proj.Config.Report.MetricsPath != abs {
		t.Errorf("Report.MetricsPath = %q, want %q", proj.Config.Report.MetricsPath, abs)
	}
}

func TestLoadProjectFrom_InvalidFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "measuretests.json"), `{"runs": "many"}`)

	_, err := LoadProjectFrom(root, noEnv)
	if err == nil {
		t.Fatal("LoadProjectFrom() expected error for invalid file")
	}
	if code := merrors.GetExitCode(err); code != merrors.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, merrors.ExitConfigError)
	}
}

func TestLoadProject_WithoutMarkers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	proj, err := LoadProject(dir, noEnv)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if proj.Root != dir {
		t.Errorf("Root = %q, want %q", proj.Root, dir)
	}
}

func TestProject_ManifestPath(t *testing.T) {
	t.Parallel()
	proj, err := LoadProjectFrom("/work/crate", noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := proj.ManifestPath(), filepath.Join("/work/crate", "Cargo.toml"); got != want {
		t.Errorf("ManifestPath() = %q, want %q", got, want)
	}
	proj.Config.Build.ManifestPath = "/elsewhere/Cargo.toml"
	if got := proj.ManifestPath(); got != "/elsewhere/Cargo.toml" {
		t.Errorf("ManifestPath() = %q, want override", got)
	}
}

func TestProject_DetectBackend(t *testing.T) {
	t.Parallel()

	crate := t.TempDir()
	writeFile(t, filepath.Join(crate, "Cargo.toml"), "[package]\nname = \"demo\"\n")
	proj, err := LoadProjectFrom(crate, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if b, err := proj.DetectBackend(); err != nil || b != BackendCargo {
		t.Errorf("DetectBackend() = (%v, %v), want cargo", b, err)
	}
	proj.Config.TargetsFile = "targets.json"
	if b, err := proj.DetectBackend(); err != nil || b != BackendStatic {
		t.Errorf("DetectBackend() with targets file = (%v, %v), want targets-file", b, err)
	}

	empty, err := LoadProjectFrom(t.TempDir(), noEnv)
	if err != nil {
		t.Fatal(err)
	}
	_, err = empty.DetectBackend()
	if !merrors.IsKind(err, merrors.KindEnvironment) {
		t.Errorf("DetectBackend() without manifest error = %v, want environment error", err)
	}
}

func TestProject_Builder(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"demo\"\n")
	writeFile(t, filepath.Join(root, "targets.json"),
		`{"targets": [{"package": "demo", "kind": "test", "name": "t1", "path": "bin/t1"}]}`)

	proj, err := LoadProjectFrom(root, noEnv)
	if err != nil {
		t.Fatal(err)
	}

	b, err := proj.Builder(io.Discard)
	if err != nil {
		t.Fatalf("Builder() error = %v", err)
	}
	if cargo, ok := b.(*build.Cargo); !ok || cargo.Dir != root {
		t.Errorf("Builder() = %T, want *build.Cargo rooted at %s", b, root)
	}

	proj.Config.TargetsFile = "targets.json"
	b, err = proj.Builder(io.Discard)
	if err != nil {
		t.Fatalf("Builder() with targets file error = %v", err)
	}
	static, ok := b.(*build.Static)
	if !ok || len(static.Targets) != 1 {
		t.Fatalf("Builder() = %T, want *build.Static with one target", b)
	}
	if want := filepath.Join(root, "bin", "t1"); static.Targets[0].Path != want {
		t.Errorf("Path = %q, want %q", static.Targets[0].Path, want)
	}

	proj.Config.TargetsFile = "missing.json"
	if _, err := proj.Builder(io.Discard); err == nil || errors.Is(err, ErrNoProjectRoot) {
		t.Errorf("Builder() with missing targets file error = %v", err)
	}
}
