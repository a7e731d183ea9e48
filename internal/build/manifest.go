package build

import (
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// manifest is the subset of Cargo.toml that affects how tests are run.
type manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib     *manifestTarget  `toml:"lib"`
	Bin     []manifestTarget `toml:"bin"`
	Test    []manifestTarget `toml:"test"`
	Example []manifestTarget `toml:"example"`
	Bench   []manifestTarget `toml:"bench"`
}

type manifestTarget struct {
	Name    string `toml:"name"`
	Harness *bool  `toml:"harness"`
}

func decodeManifest(path string) (*manifest, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// harness reports whether the target uses the libtest harness. Targets
// not mentioned in the manifest use the default harness.
func (m *manifest) harness(kind target.Kind, name string) bool {
	var candidates []manifestTarget
	switch kind {
	case target.KindLib, target.KindDoctest:
		if m.Lib != nil && m.Lib.Harness != nil {
			return *m.Lib.Harness
		}
		return true
	case target.KindBin:
		candidates = m.Bin
	case target.KindTest:
		candidates = m.Test
	case target.KindExample:
		candidates = m.Example
	case target.KindBench:
		candidates = m.Bench
	}
	for _, c := range candidates {
		if c.Name == name && c.Harness != nil {
			return *c.Harness
		}
	}
	return true
}

// manifestCache decodes each Cargo.toml at most once.
type manifestCache struct {
	mu     sync.Mutex
	byPath map[string]*manifest
}

// get returns the decoded manifest, or nil if it cannot be read. An
// unreadable manifest leaves every target on the default harness.
func (c *manifestCache) get(path string) *manifest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byPath == nil {
		c.byPath = make(map[string]*manifest)
	}
	if m, ok := c.byPath[path]; ok {
		return m
	}
	m, err := decodeManifest(path)
	if err != nil {
		m = nil
	}
	c.byPath[path] = m
	return m
}
