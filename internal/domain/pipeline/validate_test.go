package pipeline

import (
	"errors"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	p := New("valid", nil).
		AddStep(Step{Name: "a", ToolID: "t"}).
		AddStep(Step{Name: "b", ToolID: "t", DependsOn: []string{"a"}}).
		AddStep(Step{Name: "c", ToolID: "t", DependsOn: []string{"a", "b"}})

	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
}

func TestValidate_NoSteps(t *testing.T) {
	if err := New("empty", nil).Validate(); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got: %v", err)
	}
}

func TestValidate_MissingName(t *testing.T) {
	p := New("p", nil).AddStep(Step{ToolID: "t"})
	if err := p.Validate(); !errors.Is(err, ErrStepName) {
		t.Fatalf("expected ErrStepName, got: %v", err)
	}
}

func TestValidate_MissingTool(t *testing.T) {
	p := New("p", nil).AddStep(Step{Name: "a"})
	if err := p.Validate(); !errors.Is(err, ErrStepTool) {
		t.Fatalf("expected ErrStepTool, got: %v", err)
	}
}

func TestValidate_DuplicateStepName(t *testing.T) {
	p := New("p", nil).
		AddStep(Step{Name: "a", ToolID: "t"}).
		AddStep(Step{Name: "a", ToolID: "t"})
	if err := p.Validate(); !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("expected ErrDuplicateStep, got: %v", err)
	}
}

func TestValidate_UnknownDependency(t *testing.T) {
	p := New("p", nil).AddStep(Step{Name: "a", ToolID: "t", DependsOn: []string{"ghost"}})
	if err := p.Validate(); !errors.Is(err, ErrUnknownDep) {
		t.Fatalf("expected ErrUnknownDep, got: %v", err)
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	p := New("p", nil).AddStep(Step{Name: "a", ToolID: "t", DependsOn: []string{"a"}})
	if err := p.Validate(); !errors.Is(err, ErrDAGCycle) {
		t.Fatalf("expected ErrDAGCycle, got: %v", err)
	}
}

func TestValidate_Cycle(t *testing.T) {
	p := New("p", nil).
		AddStep(Step{Name: "a", ToolID: "t", DependsOn: []string{"c"}}).
		AddStep(Step{Name: "b", ToolID: "t", DependsOn: []string{"a"}}).
		AddStep(Step{Name: "c", ToolID: "t", DependsOn: []string{"b"}})
	if err := p.Validate(); !errors.Is(err, ErrDAGCycle) {
		t.Fatalf("expected ErrDAGCycle, got: %v", err)
	}
}

func TestValidate_DiamondIsAcyclic(t *testing.T) {
	p := New("p", nil).
		AddStep(Step{Name: "root", ToolID: "t"}).
		AddStep(Step{Name: "left", ToolID: "t", DependsOn: []string{"root"}}).
		AddStep(Step{Name: "right", ToolID: "t", DependsOn: []string{"root"}}).
		AddStep(Step{Name: "join", ToolID: "t", DependsOn: []string{"left", "right"}})
	if err := p.Validate(); err != nil {
		t.Fatalf("diamond graph should validate: %v", err)
	}
}
