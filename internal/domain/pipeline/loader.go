package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toolweaver/toolweaver/internal/port/invoker"
)

// Definition is a declarative pipeline loaded from YAML. Definitions are
// plain data; Build instantiates an executable Pipeline from one.
type Definition struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// Validate checks the definition for structural correctness, including the
// acyclicity of its dependency graph.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New("pipeline id is required")
	}
	if d.Name == "" {
		return errors.New("pipeline name is required")
	}
	return validateSteps(d.Steps)
}

// Build instantiates a Pipeline from the definition.
func (d *Definition) Build(inv invoker.Invoker) *Pipeline {
	p := New(d.Name, inv)
	for _, s := range d.Steps {
		p.AddStep(s)
	}
	return p
}

// LoadFromFile reads a single Definition from a YAML file.
func LoadFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		return nil, fmt.Errorf("read pipeline file %s: %w", path, err)
	}

	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse pipeline file %s: %w", path, err)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("validate pipeline file %s: %w", path, err)
	}

	return &d, nil
}

// LoadFromDirectory reads all .yaml/.yml files from a directory into a map
// keyed by definition id. A missing directory returns an empty map.
func LoadFromDirectory(dir string) (map[string]*Definition, error) {
	defs := make(map[string]*Definition)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defs, nil
		}
		return nil, fmt.Errorf("read pipeline directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		d, err := LoadFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, ok := defs[d.ID]; ok {
			return nil, fmt.Errorf("pipeline directory %s: duplicate pipeline id %q", dir, d.ID)
		}
		defs[d.ID] = d
	}

	return defs, nil
}
