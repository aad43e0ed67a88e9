package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// SymbolKind classifies what a name refers to.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymParameter
	SymStruct
	SymEnum
	SymEnumValue
)

var symbolKindNames = [...]string{
	SymVariable:  "variable",
	SymFunction:  "function",
	SymParameter: "parameter",
	SymStruct:    "struct",
	SymEnum:      "enum",
	SymEnumValue: "enum value",
}

func (k SymbolKind) String() string { return symbolKindNames[k] }

// Symbol is one named entity visible in a scope.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Type   Type
	Line   int
	Column int

	// EnumValue holds the member's constant when Kind is SymEnumValue.
	EnumValue int64
}

// Scope maps names to symbols and links to its parent, so lookup walks
// outward and inner declarations shadow outer ones.
type Scope struct {
	parent  *Scope
	symbols map[string]Symbol
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]Symbol)}
}

// Define inserts sym into this scope. Redefining a name in the same
// scope silently overwrites it.
func (s *Scope) Define(sym Symbol) {
	s.symbols[sym.Name] = sym
}

// Resolve looks name up in this scope and then the parent chain.
func (s *Scope) Resolve(name string) (Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// ResolveLocal looks name up in this scope only.
func (s *Scope) ResolveLocal(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

func (s *Scope) Parent() *Scope { return s.parent }

// SymbolTable owns the scope stack for one compilation unit. Push/pop
// is tied 1:1 to block, function body, and for-loop boundaries.
type SymbolTable struct {
	global  *Scope
	current *Scope
}

func NewSymbolTable() *SymbolTable {
	g := NewScope(nil)
	return &SymbolTable{global: g, current: g}
}

func (t *SymbolTable) Global() *Scope  { return t.global }
func (t *SymbolTable) Current() *Scope { return t.current }

func (t *SymbolTable) EnterScope() {
	t.current = NewScope(t.current)
}

func (t *SymbolTable) ExitScope() {
	if t.current.parent != nil {
		t.current = t.current.parent
	}
}

// Define inserts sym into the current scope.
func (t *SymbolTable) Define(sym Symbol) { t.current.Define(sym) }

// Resolve walks from the current scope up to the global one.
func (t *SymbolTable) Resolve(name string) (Symbol, bool) {
	return t.current.Resolve(name)
}

// String returns a deterministically ordered dump of the scope chain,
// innermost first.
func (t *SymbolTable) String() string {
	var sb strings.Builder
	depth := 0
	for sc := t.current; sc != nil; sc = sc.parent {
		label := fmt.Sprintf("Scope %d", depth)
		if sc == t.global {
			label = "Globals"
		}
		fmt.Fprintf(&sb, "%s:\n", label)
		names := make([]string, 0, len(sc.symbols))
		for name := range sc.symbols {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sym := sc.symbols[name]
			fmt.Fprintf(&sb, "  %-20s  %s %s\n", name, sym.Kind, sym.Type)
		}
		depth++
	}
	return sb.String()
}
