package project

import (
	"errors"
	"path/filepath"

	"github.com/AndreyAkinshin/measuretests/internal/config"
	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
)

// Project represents a located crate or workspace with its resolved configuration.
type Project struct {
	Root     string
	Config   *config.RunConfiguration
	Warnings []string

	hasConfigFile bool
}

// LoadProject finds and loads a project starting at dir. A directory
// without any project marker is still usable with a targets file, so it
// becomes the root in that case.
func LoadProject(dir string, getenv func(string) string) (*Project, error) {
	root, err := FindRootFrom(dir)
	if errors.Is(err, ErrNoProjectRoot) {
		root, err = filepath.Abs(dir)
	}
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root, getenv)
}

// LoadProjectFrom resolves the configuration of the project rooted at root:
// defaults, then measuretests.json if present, then the environment.
func LoadProjectFrom(root string, getenv func(string) string) (*Project, error) {
	p := &Project{Root: root, hasConfigFile: exists(filepath.Join(root, config.FileName))}

	path := ""
	if p.hasConfigFile {
		path = p.ConfigPath()
	}
	cfg, warnings, err := config.Resolve(path, getenv)
	p.Warnings = warnings
	if err != nil {
		return nil, merrors.ConfigWrap(err, "failed to load configuration")
	}
	p.Config = cfg
	p.resolvePaths()
	return p, nil
}

// resolvePaths anchors file paths from measuretests.json at the project root.
func (p *Project) resolvePaths() {
	for _, path := range []*string{&p.Config.Report.Path, &p.Config.Report.MetricsPath} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(p.Root, *path)
		}
	}
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, config.FileName)
}

// HasConfigFile reports whether measuretests.json was loaded.
func (p *Project) HasConfigFile() bool {
	return p.hasConfigFile
}

// ManifestPath returns the manifest cargo is pointed at: the configured
// --manifest-path, or Cargo.toml in the project root.
func (p *Project) ManifestPath() string {
	if p.Config != nil && p.Config.Build.ManifestPath != "" {
		return p.Config.Build.ManifestPath
	}
	return filepath.Join(p.Root, ManifestFileName)
}
