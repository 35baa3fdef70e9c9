package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Load parses a JSON Schema document from raw JSON bytes.
func Load(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	return s, nil
}

// LoadFile reads and parses a schema document. Files with a .yaml or .yml
// extension are converted to JSON first; note that this conversion does not
// preserve key order, so the property-order guarantee only holds for JSON
// sources.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-supplied schema paths is the point.
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	if isYAMLFile(path) {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("convert %q to JSON: %w", path, err)
		}
	}

	s, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}

	return s, nil
}

func isYAMLFile(f string) bool {
	ext := filepath.Ext(f)

	return ext == ".yaml" || ext == ".yml"
}
