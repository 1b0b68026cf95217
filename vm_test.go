package selfcore

import "testing"

// newTestVM builds a VM with a small heap, suitable for exercising GC and
// stack-overflow edge cases without allocating thousands of cells per test.
func newTestVM(t *testing.T) *VM {
	t.Helper()
	cfg := DefaultConfig()
	cfg.EdenCells = 64
	cfg.SurvivorCells = 64
	cfg.OldInitialCells = 64
	vm := NewVM(cfg)
	if err := vm.PrepareWorld(); err != nil {
		t.Fatalf("PrepareWorld: %v", err)
	}
	return vm
}

func TestPrepareWorldGlobals(t *testing.T) {
	vm := newTestVM(t)
	globals := []struct {
		name string
		v    Value
	}{
		{"Lobby", vm.Lobby},
		{"Nil", vm.Nil},
		{"True", vm.True},
		{"False", vm.False},
		{"IntegerTraits", vm.IntegerTraits},
		{"FloatTraits", vm.FloatTraits},
		{"NilTraits", vm.NilTraits},
	}
	for _, g := range globals {
		t.Run(g.name, func(t *testing.T) {
			if g.v == 0 {
				t.Fatalf("%s is the zero Value", g.name)
			}
			if !g.v.IsRef() {
				t.Fatalf("%s is not an object reference", g.name)
			}
		})
	}
}

func TestLobbySlots(t *testing.T) {
	vm := newTestVM(t)
	for _, name := range []string{"nil", "true", "false"} {
		t.Run(name, func(t *testing.T) {
			res, err := vm.Lookup(vm.Lobby, name, Read)
			if err != nil {
				t.Fatalf("lookup %s: %v", name, err)
			}
			if !res.Found {
				t.Fatalf("lobby has no slot %q", name)
			}
		})
	}
}

func TestNilTrueFalseAreDistinct(t *testing.T) {
	vm := newTestVM(t)
	if vm.Nil == vm.True || vm.Nil == vm.False || vm.True == vm.False {
		t.Fatal("nil, true, and false must be pairwise distinct singletons")
	}
}

// TestExecuteScriptEmpty exercises the top-level script path (spec.md §8
// invariant 6: "Upon completing execute_script, the activation stack depth
// equals zero").
func TestExecuteScriptEmpty(t *testing.T) {
	vm := newTestVM(t)
	v, rerr := vm.ExecuteScript(&Script{})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if v != vm.Nil {
		t.Fatalf("empty script should evaluate to nil, got %v", v)
	}
	if vm.Stack.Depth() != 0 {
		t.Fatalf("activation stack depth after execute_script = %d, want 0", vm.Stack.Depth())
	}
}

// TestExecuteScriptNumberLiteral is the smallest possible non-trivial
// script: a single statement evaluating to an integer.
func TestExecuteScriptNumberLiteral(t *testing.T) {
	vm := newTestVM(t)
	script := &Script{Statements: []Statement{
		{Expression: &NumberNode{IntValue: 42}},
	}}
	v, rerr := vm.ExecuteScript(script)
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if !v.IsInt() || asInt(v) != 42 {
		t.Fatalf("got %v, want integer 42", v)
	}
	if vm.Stack.Depth() != 0 {
		t.Fatalf("activation stack depth after execute_script = %d, want 0", vm.Stack.Depth())
	}
}
