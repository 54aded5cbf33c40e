package tool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/toolweaver/toolweaver/internal/domain"
	"github.com/toolweaver/toolweaver/internal/domain/rpc"
)

func TestRegister_AndResolve(t *testing.T) {
	r := NewRegistry()
	spec := Spec{ID: "eslint", Command: "eslint-rpc", Args: []string{"--stdio"}}
	if err := r.Register(spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Resolve("eslint")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Command != "eslint-rpc" || len(got.Args) != 1 {
		t.Errorf("unexpected spec: %+v", got)
	}
}

func TestResolve_UnknownIsNotInstalled(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("ghost")
	if !errors.Is(err, rpc.ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got: %v", err)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Spec{Command: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing id should fail validation: %v", err)
	}
	if err := r.Register(Spec{ID: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing command should fail validation: %v", err)
	}
}

func TestRegister_ReplacesExisting(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Spec{ID: "t", Command: "old"})
	_ = r.Register(Spec{ID: "t", Command: "new"})

	got, _ := r.Resolve("t")
	if got.Command != "new" {
		t.Errorf("re-register should replace: %+v", got)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 tool, got %d", r.Len())
	}
}

func TestList_SortedByID(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Spec{ID: "zeta", Command: "z"})
	_ = r.Register(Spec{ID: "alpha", Command: "a"})
	_ = r.Register(Spec{ID: "mid", Command: "m"})

	list := r.List()
	if len(list) != 3 || list[0].ID != "alpha" || list[1].ID != "mid" || list[2].ID != "zeta" {
		t.Errorf("list not sorted: %+v", list)
	}
}

func TestLoadFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	yaml := `tools:
  - id: eslint
    name: ESLint
    command: eslint-rpc
    args: ["--stdio"]
    env:
      NODE_ENV: production
  - id: gosec
    command: gosec-rpc
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 tools, got %d", reg.Len())
	}
	spec, err := reg.Resolve("eslint")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Env["NODE_ENV"] != "production" {
		t.Errorf("env not parsed: %+v", spec.Env)
	}
}

func TestLoadFile_MissingYieldsEmptyRegistry(t *testing.T) {
	reg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d", reg.Len())
	}
}

func TestLoadFile_InvalidSpecFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  - id: broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("spec without command should fail")
	}
}
