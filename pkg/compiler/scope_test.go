package compiler

import (
	"strings"
	"testing"
)

func TestScopeShadowing(t *testing.T) {
	table := NewSymbolTable()
	table.Define(Symbol{Name: "x", Kind: SymVariable, Type: TypeInt})

	table.EnterScope()
	table.Define(Symbol{Name: "x", Kind: SymVariable, Type: TypeFloat})

	sym, ok := table.Resolve("x")
	if !ok || !sym.Type.IsEqual(TypeFloat) {
		t.Fatalf("inner x = %v, want float", sym.Type)
	}

	table.ExitScope()
	sym, ok = table.Resolve("x")
	if !ok || !sym.Type.IsEqual(TypeInt) {
		t.Fatalf("outer x = %v, want int", sym.Type)
	}
}

func TestScopeOuterVisibility(t *testing.T) {
	table := NewSymbolTable()
	table.Define(Symbol{Name: "g", Kind: SymVariable, Type: TypeLong})
	table.EnterScope()
	table.EnterScope()
	if _, ok := table.Resolve("g"); !ok {
		t.Error("global should be visible from a nested scope")
	}
	if _, ok := table.Current().ResolveLocal("g"); ok {
		t.Error("ResolveLocal must not see outer scopes")
	}
}

func TestScopeRedefinitionOverwrites(t *testing.T) {
	table := NewSymbolTable()
	table.Define(Symbol{Name: "f", Kind: SymFunction, Type: TypeInt})
	table.Define(Symbol{Name: "f", Kind: SymVariable, Type: TypeChar})
	sym, _ := table.Resolve("f")
	if sym.Kind != SymVariable {
		t.Errorf("kind = %v, want the later definition to win", sym.Kind)
	}
}

// Popping the global scope is a no-op, never a crash.
func TestScopeExitAtGlobal(t *testing.T) {
	table := NewSymbolTable()
	table.ExitScope()
	if table.Current() != table.Global() {
		t.Error("current scope should remain the global scope")
	}
}

func TestSymbolTableDump(t *testing.T) {
	table := NewSymbolTable()
	table.Define(Symbol{Name: "main", Kind: SymFunction, Type: NewFunctionType(TypeInt, nil, false)})
	table.EnterScope()
	table.Define(Symbol{Name: "i", Kind: SymVariable, Type: TypeInt})

	dump := table.String()
	if !strings.Contains(dump, "Globals") {
		t.Error("dump should label the global scope")
	}
	if !strings.Contains(dump, "main") || !strings.Contains(dump, "i") {
		t.Errorf("dump missing symbols:\n%s", dump)
	}
}
