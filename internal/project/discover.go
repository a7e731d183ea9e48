package project

import (
	"io"
	"path/filepath"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
)

// Backend identifies where the target list comes from.
type Backend int

const (
	// BackendCargo compiles targets with `cargo test --no-run`.
	BackendCargo Backend = iota
	// BackendStatic reads a prebuilt target list from a JSON file.
	BackendStatic
)

func (b Backend) String() string {
	if b == BackendStatic {
		return "targets-file"
	}
	return "cargo"
}

// DetectBackend picks the build backend. An explicit targets file wins;
// otherwise a cargo manifest is required.
func (p *Project) DetectBackend() (Backend, error) {
	if p.Config.TargetsFile != "" {
		return BackendStatic, nil
	}
	if exists(p.ManifestPath()) {
		return BackendCargo, nil
	}
	return BackendCargo, merrors.Environmentf("could not find `%s` in `%s` or any parent directory", ManifestFileName, p.Root)
}

// Builder returns the build collaborator for the detected backend.
// Compiler diagnostics are streamed to stderr.
func (p *Project) Builder(stderr io.Writer) (build.Builder, error) {
	backend, err := p.DetectBackend()
	if err != nil {
		return nil, err
	}
	if backend == BackendStatic {
		return build.LoadStatic(p.targetsFile())
	}
	return build.NewCargo(p.Root, stderr), nil
}

// targetsFile resolves a relative targets file against the project root.
func (p *Project) targetsFile() string {
	path := p.Config.TargetsFile
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}
