// Package project locates the crate or workspace a test run operates on
// and loads its configuration.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/measuretests/internal/config"
)

// ManifestFileName is the name of the cargo package manifest.
const ManifestFileName = "Cargo.toml"

// ErrNoProjectRoot is returned when neither Cargo.toml nor measuretests.json is found.
var ErrNoProjectRoot = errors.New("could not find `Cargo.toml` or `measuretests.json` in the current directory or any parent directory")

// FindRoot walks up from the current working directory until it finds a
// project marker.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds a directory
// containing Cargo.toml or measuretests.json. The nearest one wins.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if exists(filepath.Join(dir, ManifestFileName)) || exists(filepath.Join(dir, config.FileName)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
