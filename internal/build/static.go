package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	merrors "github.com/AndreyAkinshin/measuretests/internal/errors"
	"github.com/AndreyAkinshin/measuretests/internal/schema"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Static serves a fixed list of already compiled targets.
type Static struct {
	Targets []target.Target
}

// Build returns the targets matched by the request's selection.
func (s *Static) Build(ctx context.Context, req Request) ([]target.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return req.Selection.Filter(s.Targets), nil
}

// targetsFile is the on-disk format read by LoadStatic.
type targetsFile struct {
	Targets []target.Target `json:"targets"`
}

// LoadStatic reads a JSON target list. Relative executable paths and
// working directories are resolved against the file's directory.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merrors.ConfigWrap(err, "failed to read targets file")
	}
	if err := schema.ValidateTargets(data); err != nil {
		return nil, merrors.ConfigWrap(err, path)
	}

	var f targetsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, merrors.ConfigWrap(err, "failed to parse targets file")
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	for i := range f.Targets {
		t := &f.Targets[i]
		if t.Path != "" && !filepath.IsAbs(t.Path) {
			t.Path = filepath.Join(base, t.Path)
		}
		if t.Dir != "" && !filepath.IsAbs(t.Dir) {
			t.Dir = filepath.Join(base, t.Dir)
		}
	}
	return &Static{Targets: f.Targets}, nil
}
