package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/toolweaver/toolweaver/internal/port/invoker"
)

// recordingInvoker records every call and answers from a canned table.
type recordingInvoker struct {
	calls   []string
	inputs  map[string]any
	results map[string]json.RawMessage
	errs    map[string]error
}

func newRecordingInvoker() *recordingInvoker {
	return &recordingInvoker{
		inputs:  make(map[string]any),
		results: make(map[string]json.RawMessage),
		errs:    make(map[string]error),
	}
}

func (ri *recordingInvoker) Invoke(_ context.Context, toolID, action string, arguments any) (json.RawMessage, error) {
	key := toolID + "/" + action
	ri.calls = append(ri.calls, key)
	ri.inputs[key] = arguments
	if err, ok := ri.errs[key]; ok {
		return nil, err
	}
	if data, ok := ri.results[key]; ok {
		return data, nil
	}
	return json.RawMessage(`{}`), nil
}

func TestExecute_RunsStepsInInsertionOrder(t *testing.T) {
	ri := newRecordingInvoker()
	p := New("order", ri).
		AddStep(Step{Name: "c", ToolID: "t3", Action: "run"}).
		AddStep(Step{Name: "a", ToolID: "t1", Action: "run"}).
		AddStep(Step{Name: "b", ToolID: "t2", Action: "run"})

	res := p.Execute(context.Background())

	if !res.Success {
		t.Fatalf("expected success, got errors: %v", res.Errors)
	}
	want := []string{"t3/run", "t1/run", "t2/run"}
	if len(ri.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(ri.calls))
	}
	for i, call := range want {
		if ri.calls[i] != call {
			t.Errorf("call %d: expected %s, got %s", i, call, ri.calls[i])
		}
	}
}

func TestExecute_ContinuesPastFailure(t *testing.T) {
	ri := newRecordingInvoker()
	ri.errs["bad/run"] = errors.New("tool exploded")

	p := New("resilient", ri).
		AddStep(Step{Name: "first", ToolID: "ok", Action: "run"}).
		AddStep(Step{Name: "second", ToolID: "bad", Action: "run"}).
		AddStep(Step{Name: "third", ToolID: "ok", Action: "run"})

	res := p.Execute(context.Background())

	if res.Success {
		t.Fatal("expected overall failure")
	}
	if len(res.Steps) != 3 {
		t.Fatalf("expected 3 step results, got %d", len(res.Steps))
	}
	if !res.Steps[0].Success || res.Steps[1].Success || !res.Steps[2].Success {
		t.Fatalf("unexpected success pattern: %+v", res.Steps)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "second") {
		t.Errorf("error should name the failed step: %s", res.Errors[0])
	}
}

func TestExecute_FailedDependencySkipsDependent(t *testing.T) {
	ri := newRecordingInvoker()
	ri.errs["bad/run"] = errors.New("no good")

	p := New("deps", ri).
		AddStep(Step{Name: "a", ToolID: "bad", Action: "run"}).
		AddStep(Step{Name: "b", ToolID: "ok", Action: "run"}).
		AddStep(Step{Name: "c", ToolID: "never", Action: "run", DependsOn: []string{"a"}})

	res := p.Execute(context.Background())

	if res.Success {
		t.Fatal("expected overall failure")
	}
	// c must be skipped without invoking its tool.
	for _, call := range ri.calls {
		if call == "never/run" {
			t.Fatal("dependent step should not invoke its tool")
		}
	}
	skipped := res.Steps[2]
	if skipped.Success {
		t.Fatal("dependent step should fail")
	}
	if !strings.Contains(skipped.Error, ErrDependency.Error()) {
		t.Errorf("expected dependency error, got: %s", skipped.Error)
	}
	if !strings.Contains(skipped.Error, `"a"`) {
		t.Errorf("dependency error should name the failed dependency: %s", skipped.Error)
	}
	// b is unaffected.
	if !res.Steps[1].Success {
		t.Error("independent step should succeed")
	}
}

func TestExecute_DependencyOutputsBecomeInput(t *testing.T) {
	ri := newRecordingInvoker()
	ri.results["parse/run"] = json.RawMessage(`{"ast":true}`)
	ri.results["scan/run"] = json.RawMessage(`{"issues":2}`)

	p := New("fanin", ri).
		AddStep(Step{Name: "parse", ToolID: "parse", Action: "run"}).
		AddStep(Step{Name: "scan", ToolID: "scan", Action: "run"}).
		AddStep(Step{Name: "merge", ToolID: "merge", Action: "run", DependsOn: []string{"parse", "scan"}})

	res := p.Execute(context.Background())
	if !res.Success {
		t.Fatalf("expected success, got: %v", res.Errors)
	}

	input, ok := ri.inputs["merge/run"].([]json.RawMessage)
	if !ok {
		t.Fatalf("expected []json.RawMessage input, got %T", ri.inputs["merge/run"])
	}
	if len(input) != 2 {
		t.Fatalf("expected 2 dependency outputs, got %d", len(input))
	}
	if string(input[0]) != `{"ast":true}` || string(input[1]) != `{"issues":2}` {
		t.Errorf("dependency outputs out of order: %s, %s", input[0], input[1])
	}
}

func TestExecute_ParamsBecomeInputWithoutDeps(t *testing.T) {
	ri := newRecordingInvoker()
	params := map[string]any{"file": "main.go", "strict": true}

	p := New("params", ri).
		AddStep(Step{Name: "lint", ToolID: "lint", Action: "run", Params: params})

	if res := p.Execute(context.Background()); !res.Success {
		t.Fatalf("expected success, got: %v", res.Errors)
	}

	got, ok := ri.inputs["lint/run"].(map[string]any)
	if !ok {
		t.Fatalf("expected map input, got %T", ri.inputs["lint/run"])
	}
	if got["file"] != "main.go" {
		t.Errorf("params not passed through: %v", got)
	}
}

func TestResult_OnlySuccessfulStepsRetrievable(t *testing.T) {
	ri := newRecordingInvoker()
	ri.errs["bad/run"] = errors.New("nope")

	p := New("results", ri).
		AddStep(Step{Name: "good", ToolID: "ok", Action: "run"}).
		AddStep(Step{Name: "bad", ToolID: "bad", Action: "run"})
	p.Execute(context.Background())

	if _, ok := p.Result("good"); !ok {
		t.Error("successful step result should be retrievable")
	}
	if _, ok := p.Result("bad"); ok {
		t.Error("failed step result should not be retrievable")
	}
	if all := p.AllResults(); len(all) != 1 {
		t.Errorf("expected 1 stored result, got %d", len(all))
	}
}

func TestClear_ResetsForReuse(t *testing.T) {
	ri := newRecordingInvoker()
	p := New("reuse", ri).AddStep(Step{Name: "s", ToolID: "t", Action: "run"})
	p.Execute(context.Background())

	p.Clear()

	if len(p.Steps()) != 0 {
		t.Error("steps should be cleared")
	}
	if len(p.AllResults()) != 0 {
		t.Error("results should be cleared")
	}

	p.AddStep(Step{Name: "s2", ToolID: "t", Action: "run"})
	if res := p.Execute(context.Background()); !res.Success || len(res.Steps) != 1 {
		t.Errorf("pipeline should be reusable after Clear: %+v", res)
	}
}

func TestExecute_EmptyPipelineSucceeds(t *testing.T) {
	p := New("empty", newRecordingInvoker())
	res := p.Execute(context.Background())
	if !res.Success || len(res.Steps) != 0 {
		t.Errorf("empty pipeline should trivially succeed: %+v", res)
	}
}

func TestExecute_InvokerFuncAdapter(t *testing.T) {
	inv := invoker.Func(func(_ context.Context, toolID, action string, _ any) (json.RawMessage, error) {
		return json.RawMessage(fmt.Sprintf(`{"tool":%q,"action":%q}`, toolID, action)), nil
	})

	p := New("adapter", inv).AddStep(Step{Name: "s", ToolID: "echo", Action: "say"})
	res := p.Execute(context.Background())

	if !res.Success {
		t.Fatalf("expected success: %v", res.Errors)
	}
	if string(res.Steps[0].Data) != `{"tool":"echo","action":"say"}` {
		t.Errorf("unexpected data: %s", res.Steps[0].Data)
	}
}
