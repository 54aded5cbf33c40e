package rpc

import (
	"encoding/json"
	"testing"
)

func TestNewRequest_WireShape(t *testing.T) {
	req := NewRequest("abc", "analyze", map[string]any{"file": "a.js"})

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["jsonrpc"] != Version {
		t.Errorf("wrong version: %v", decoded["jsonrpc"])
	}
	if decoded["method"] != MethodToolsCall {
		t.Errorf("wrong method: %v", decoded["method"])
	}
	params, _ := decoded["params"].(map[string]any)
	if params["name"] != "analyze" {
		t.Errorf("action should map to params.name: %v", params)
	}
}

func TestResponse_ErrorUnmarshal(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":"no such action"}}`

	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil {
		t.Fatal("expected error payload")
	}
	if resp.Error.Code != -32601 || resp.Error.Message != "no such action" {
		t.Errorf("unexpected error: %+v", resp.Error)
	}
	if resp.Error.Error() == "" {
		t.Error("Error() should produce a message")
	}
}
