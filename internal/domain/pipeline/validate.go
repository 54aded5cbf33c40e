package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoSteps       = errors.New("pipeline must have at least one step")
	ErrStepName      = errors.New("step name is required")
	ErrStepTool      = errors.New("step tool_id is required")
	ErrDuplicateStep = errors.New("duplicate step name")
	ErrUnknownDep    = errors.New("step dependency references unknown step")
	ErrDAGCycle      = errors.New("step dependencies contain a cycle")
)

// Validate checks the step list once it is finalized: names present and
// unique, tool ids set, every dependency referencing a known step, and the
// dependency graph acyclic (Kahn's algorithm). Execute does not call this
// implicitly — a cyclic pipeline run unvalidated simply never satisfies the
// cycle's steps.
func (p *Pipeline) Validate() error {
	return validateSteps(p.steps)
}

func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("step %d: %w", i, ErrStepName)
		}
		if s.ToolID == "" {
			return fmt.Errorf("step %q: %w", s.Name, ErrStepTool)
		}
		if _, ok := index[s.Name]; ok {
			return fmt.Errorf("step %q: %w", s.Name, ErrDuplicateStep)
		}
		index[s.Name] = i
	}

	n := len(steps)
	inDegree := make([]int, n)
	adj := make([][]int, n)

	for i, s := range steps {
		for _, dep := range s.DependsOn {
			j, ok := index[dep]
			if !ok {
				return fmt.Errorf("step %q depends on %q: %w", s.Name, dep, ErrUnknownDep)
			}
			if j == i {
				return fmt.Errorf("step %q depends on itself: %w", s.Name, ErrDAGCycle)
			}
			adj[j] = append(adj[j], i)
			inDegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != n {
		return ErrDAGCycle
	}
	return nil
}
