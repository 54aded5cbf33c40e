// Package pipeline executes ordered lists of named steps against an injected
// invoker. Steps run strictly in insertion order; declared dependencies gate a
// step on its predecessors' results but never reorder execution. An individual
// step failure is recorded and execution continues, so partial results surface
// even when one tool fails.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/toolweaver/toolweaver/internal/port/invoker"
)

// ErrDependency indicates a step's declared dependency produced no result,
// so the step was skipped without invoking its tool.
var ErrDependency = errors.New("dependency not satisfied")

// Step is one named unit of work bound to a tool and an action.
type Step struct {
	Name      string         `json:"name" yaml:"name"`
	ToolID    string         `json:"tool_id" yaml:"tool_id"`
	Action    string         `json:"action" yaml:"action"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// StepResult records one step's outcome. Data is set only on success.
type StepResult struct {
	Name      string          `json:"name"`
	ToolID    string          `json:"tool_id"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"duration"`
}

// Result is the outcome of one Execute call. Success is true iff Errors is
// empty; successful step results remain retrievable even when it is not.
type Result struct {
	Steps         []StepResult  `json:"steps"`
	TotalDuration time.Duration `json:"total_duration"`
	Success       bool          `json:"success"`
	Errors        []string      `json:"errors,omitempty"`
}

// Pipeline is a reusable, sequentially-executed list of steps.
// It is not safe for concurrent use.
type Pipeline struct {
	name    string
	inv     invoker.Invoker
	steps   []Step
	results map[string]StepResult // successful steps only
}

// New creates an empty pipeline executing through inv.
func New(name string, inv invoker.Invoker) *Pipeline {
	return &Pipeline{
		name:    name,
		inv:     inv,
		results: make(map[string]StepResult),
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Steps returns the steps in insertion order.
func (p *Pipeline) Steps() []Step { return p.steps }

// AddStep appends a step and returns the pipeline for chaining.
func (p *Pipeline) AddStep(s Step) *Pipeline {
	p.steps = append(p.steps, s)
	return p
}

// Execute runs every step in insertion order. A step whose dependencies have
// no successful result is skipped with a dependency error; a step whose
// invocation fails records that error. Neither halts the remaining steps.
func (p *Pipeline) Execute(ctx context.Context) *Result {
	start := time.Now()
	res := &Result{Steps: make([]StepResult, 0, len(p.steps))}

	for _, step := range p.steps {
		sr := p.runStep(ctx, step)
		res.Steps = append(res.Steps, sr)
		if sr.Success {
			p.results[step.Name] = sr
		} else {
			res.Errors = append(res.Errors, fmt.Sprintf("step %q: %s", step.Name, sr.Error))
		}
	}

	res.TotalDuration = time.Since(start)
	res.Success = len(res.Errors) == 0
	return res
}

// runStep executes one step, resolving its input from dependencies or params.
func (p *Pipeline) runStep(ctx context.Context, step Step) StepResult {
	sr := StepResult{
		Name:      step.Name,
		ToolID:    step.ToolID,
		Timestamp: time.Now(),
	}

	input, err := p.stepInput(step)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}

	begin := time.Now()
	data, err := p.inv.Invoke(ctx, step.ToolID, step.Action, input)
	sr.Duration = time.Since(begin)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}

	sr.Success = true
	sr.Data = data
	return sr
}

// stepInput returns the invocation input: the ordered dependency outputs when
// DependsOn is non-empty, the step's own params otherwise.
func (p *Pipeline) stepInput(step Step) (any, error) {
	if len(step.DependsOn) == 0 {
		return step.Params, nil
	}

	inputs := make([]json.RawMessage, 0, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		dr, ok := p.results[dep]
		if !ok {
			return nil, fmt.Errorf("%w: no result from step %q", ErrDependency, dep)
		}
		inputs = append(inputs, dr.Data)
	}
	return inputs, nil
}

// Result returns the recorded result of a successfully executed step.
func (p *Pipeline) Result(name string) (StepResult, bool) {
	sr, ok := p.results[name]
	return sr, ok
}

// AllResults returns a copy of all successful step results by name.
func (p *Pipeline) AllResults() map[string]StepResult {
	out := make(map[string]StepResult, len(p.results))
	for k, v := range p.results {
		out[k] = v
	}
	return out
}

// Clear resets steps and results so the pipeline can be rebuilt and reused.
func (p *Pipeline) Clear() {
	p.steps = nil
	p.results = make(map[string]StepResult)
}
