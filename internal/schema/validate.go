// Package schema provides JSON schema validation for measuretests input files.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/measuretests/schema"
)

var (
	configSchema  *jsonschema.Schema
	targetsSchema *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		var err error
		if configSchema, err = compileEmbedded(compiler, "config.schema.json"); err != nil {
			compileErr = err
			return
		}
		if targetsSchema, err = compileEmbedded(compiler, "targets.schema.json"); err != nil {
			compileErr = err
			return
		}
	})

	return compileErr
}

func compileEmbedded(compiler *jsonschema.Compiler, name string) (*jsonschema.Schema, error) {
	data, err := schemafs.FS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add %s resource: %w", name, err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

// ValidateConfig validates measuretests.json data against the config schema.
func ValidateConfig(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(configSchema, data, "config")
}

// ValidateTargets validates a pre-built target list against the targets schema.
func ValidateTargets(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(targetsSchema, data, "targets file")
}

func validate(s *jsonschema.Schema, data []byte, what string) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}

	return nil
}
