package tool

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// registryFile is the YAML shape of a tool registry file.
type registryFile struct {
	Tools []Spec `yaml:"tools"`
}

// LoadFile reads a registry from a YAML file. A missing file yields an empty
// registry (not an error), so a daemon can start before any tools are
// installed.
func LoadFile(path string) (*Registry, error) {
	reg := NewRegistry()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from trusted config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("read tool registry %s: %w", path, err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tool registry %s: %w", path, err)
	}

	for _, s := range f.Tools {
		if err := reg.Register(s); err != nil {
			return nil, fmt.Errorf("tool registry %s: %w", path, err)
		}
	}

	return reg, nil
}
