// Package workflow executes conditional step sequences against in-process
// tools. Unlike pipeline, no child process is involved: the named tool is
// looked up in a caller-supplied registry and called directly, threading an
// accumulating results object from step to step.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InputKey is the reserved key under which Run's initial data appears in the
// accumulated results.
const InputKey = "input"

// ErrUnknownTool indicates a step named a tool absent from the registry.
var ErrUnknownTool = errors.New("unknown workflow tool")

// Tool is an in-process analysis capability invoked directly by the workflow.
type Tool interface {
	Call(ctx context.Context, action string, results Results, config map[string]any) (any, error)
}

// ToolFunc adapts a function to the Tool interface.
type ToolFunc func(ctx context.Context, action string, results Results, config map[string]any) (any, error)

// Call invokes f.
func (f ToolFunc) Call(ctx context.Context, action string, results Results, config map[string]any) (any, error) {
	return f(ctx, action, results, config)
}

// Registry maps tool ids to in-process tool objects.
type Registry map[string]Tool

// Condition decides at runtime whether a step executes, given every result
// accumulated so far. A false return skips the step silently.
type Condition func(results Results) bool

// Outcome is one executed step's contribution to the results object.
type Outcome struct {
	Data     any           `json:"data"`
	Duration time.Duration `json:"duration"`
}

// Results accumulates one Outcome per executed step, plus the initial data
// under InputKey. Steps share it mutably: a mutation one step makes to nested
// data is visible to every later step.
type Results map[string]Outcome

// Data returns the data recorded under name, or nil.
func (r Results) Data(name string) any {
	return r[name].Data
}

// Step is one named unit of in-process work.
type Step struct {
	Name      string
	ToolID    string
	Action    string
	Config    map[string]any
	Condition Condition
}

// Metrics summarizes one Run call.
type Metrics struct {
	TotalDuration time.Duration `json:"total_duration"`
	Executed      int           `json:"executed"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
}

// RunResult is the outcome of one Run call.
type RunResult struct {
	WorkflowName string   `json:"workflow_name"`
	Results      Results  `json:"results"`
	Metrics      Metrics  `json:"metrics"`
	Errors       []string `json:"errors,omitempty"`
}

// Workflow is an ordered list of conditional steps.
type Workflow struct {
	name  string
	steps []Step
}

// New creates an empty workflow.
func New(name string) *Workflow {
	return &Workflow{name: name}
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// Step appends a step and returns the workflow for chaining. config and
// condition may be nil.
func (w *Workflow) Step(name, toolID, action string, config map[string]any, condition Condition) *Workflow {
	w.steps = append(w.steps, Step{
		Name:      name,
		ToolID:    toolID,
		Action:    action,
		Config:    config,
		Condition: condition,
	})
	return w
}

// Run executes the steps in insertion order against the given registry.
// A step whose condition returns false is omitted silently: no result entry,
// no error. A step whose tool is missing or fails records an error and
// execution continues.
func (w *Workflow) Run(ctx context.Context, registry Registry, initialData any) *RunResult {
	start := time.Now()
	res := &RunResult{
		WorkflowName: w.name,
		Results:      Results{InputKey: {Data: initialData}},
	}

	for _, step := range w.steps {
		if step.Condition != nil && !step.Condition(res.Results) {
			res.Metrics.Skipped++
			continue
		}

		t, ok := registry[step.ToolID]
		if !ok {
			res.Metrics.Failed++
			res.Errors = append(res.Errors,
				fmt.Sprintf("step %q: %s: %q", step.Name, ErrUnknownTool, step.ToolID))
			continue
		}

		begin := time.Now()
		data, err := t.Call(ctx, step.Action, res.Results, step.Config)
		elapsed := time.Since(begin)
		if err != nil {
			res.Metrics.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("step %q: %v", step.Name, err))
			continue
		}

		res.Results[step.Name] = Outcome{Data: data, Duration: elapsed}
		res.Metrics.Executed++
	}

	res.Metrics.TotalDuration = time.Since(start)
	return res
}
