package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// LoadWithWarnings parses project file data and returns any unknown field warnings.
func LoadWithWarnings(path string, data []byte) (*FileConfig, []string, error) {
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	warnings := detectUnknownFields(data)

	return &fc, warnings, nil
}

// detectUnknownFields compares raw JSON with known struct fields.
func detectUnknownFields(data []byte) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	warnings := unknownKeys(raw, reflect.TypeOf(FileConfig{}), "at root level")

	nested := map[string]reflect.Type{
		"build":  reflect.TypeOf(FileBuildConfig{}),
		"report": reflect.TypeOf(FileReport{}),
	}
	for _, section := range []string{"build", "report"} {
		sectionRaw, ok := raw[section]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(sectionRaw, &fields); err != nil {
			continue
		}
		warnings = append(warnings, unknownKeys(fields, nested[section], fmt.Sprintf("in %q", section))...)
	}

	return warnings
}

func unknownKeys(raw map[string]json.RawMessage, t reflect.Type, where string) []string {
	known := getJSONFields(t)
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var warnings []string
	for _, key := range keys {
		if key == "$schema" {
			continue
		}
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q %s (ignored)", key, where))
		}
	}
	return warnings
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = true
		}
	}
	return fields
}
