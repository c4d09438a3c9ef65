package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FromYAML reads a schema document and builds it through the same validation
// path as Build; no rule lives only in the serialized path.
func FromYAML(r io.Reader) (*IndexSchema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema: read: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	return Build(raw)
}

// FromJSON builds a schema from a JSON document.
func FromJSON(r io.Reader) (*IndexSchema, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("schema: parse json: %w", err)
	}
	return Build(raw)
}

// FromFile loads a schema from a .yaml/.yml or .json file.
func FromFile(path string) (*IndexSchema, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("schema: open %s: %w", path, err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".json":
		return FromJSON(f)
	case ".yaml", ".yml":
		return FromYAML(f)
	default:
		return nil, fmt.Errorf("schema: unsupported file extension %q", filepath.Ext(path))
	}
}
