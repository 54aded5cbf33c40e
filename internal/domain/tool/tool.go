// Package tool defines the static registry mapping logical tool identifiers
// to installed executables. Resolution happens at call time; unknown ids fail
// fast without spawning anything.
package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toolweaver/toolweaver/internal/domain"
	"github.com/toolweaver/toolweaver/internal/domain/rpc"
)

// Spec describes one installed tool: how to start its process and what it is.
type Spec struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Validate checks that the spec has the fields required to spawn a process.
func (s *Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: tool id is required", domain.ErrValidation)
	}
	if s.Command == "" {
		return fmt.Errorf("%w: tool %q: command is required", domain.ErrValidation, s.ID)
	}
	return nil
}

// Registry is a static mapping from logical tool id to Spec.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Spec)}
}

// Register adds or replaces a tool spec.
func (r *Registry) Register(s Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[s.ID] = s
	return nil
}

// Resolve looks up a tool by id. Unknown ids fail with rpc.ErrNotInstalled.
func (r *Registry) Resolve(id string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tools[id]
	if !ok {
		return Spec{}, fmt.Errorf("tool %q: %w", id, rpc.ErrNotInstalled)
	}
	return s, nil
}

// List returns all registered specs sorted by id.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.tools))
	for _, s := range r.tools {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
