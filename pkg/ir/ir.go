// Package ir is an in-memory, LLVM-shaped instruction set the code
// generator lowers into: typed values, basic blocks with explicit
// terminators, phi merges, and a deterministic textual form.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind discriminates IR types.
type TypeKind int

const (
	VoidKind TypeKind = iota
	I1Kind
	I8Kind
	I16Kind
	I32Kind
	I64Kind
	FloatKind
	DoubleKind
	PtrKind
	StructKind
	ArrayKind
	FuncKind
)

// Type describes an IR value type. Types are immutable after
// construction and may be freely shared.
type Type struct {
	Kind TypeKind

	Elem *Type // pointee for PtrKind, element for ArrayKind
	Len  int   // element count for ArrayKind

	Name   string  // tag for StructKind
	Fields []*Type // ordered field types for StructKind

	Return   *Type   // for FuncKind
	Params   []*Type // for FuncKind
	Variadic bool    // for FuncKind
}

var (
	Void   = &Type{Kind: VoidKind}
	I1     = &Type{Kind: I1Kind}
	I8     = &Type{Kind: I8Kind}
	I16    = &Type{Kind: I16Kind}
	I32    = &Type{Kind: I32Kind}
	I64    = &Type{Kind: I64Kind}
	Float  = &Type{Kind: FloatKind}
	Double = &Type{Kind: DoubleKind}
)

func PointerTo(elem *Type) *Type { return &Type{Kind: PtrKind, Elem: elem} }

func ArrayOf(elem *Type, n int) *Type { return &Type{Kind: ArrayKind, Elem: elem, Len: n} }

func StructOf(name string, fields []*Type) *Type {
	return &Type{Kind: StructKind, Name: name, Fields: fields}
}

func FuncOf(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: FuncKind, Return: ret, Params: params, Variadic: variadic}
}

func (t *Type) IsInteger() bool {
	switch t.Kind {
	case I1Kind, I8Kind, I16Kind, I32Kind, I64Kind:
		return true
	}
	return false
}

func (t *Type) IsFloat() bool { return t.Kind == FloatKind || t.Kind == DoubleKind }

func (t *Type) IsPointer() bool { return t.Kind == PtrKind }

func (t *Type) IsVoid() bool { return t.Kind == VoidKind }

// Bits returns the width of an integer type.
func (t *Type) Bits() int {
	switch t.Kind {
	case I1Kind:
		return 1
	case I8Kind:
		return 8
	case I16Kind:
		return 16
	case I32Kind:
		return 32
	case I64Kind:
		return 64
	}
	return 0
}

func (t *Type) String() string {
	switch t.Kind {
	case VoidKind:
		return "void"
	case I1Kind:
		return "i1"
	case I8Kind:
		return "i8"
	case I16Kind:
		return "i16"
	case I32Kind:
		return "i32"
	case I64Kind:
		return "i64"
	case FloatKind:
		return "float"
	case DoubleKind:
		return "double"
	case PtrKind:
		return "ptr"
	case StructKind:
		return "%" + t.Name
	case ArrayKind:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case FuncKind:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		if t.Variadic {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.Return, strings.Join(parts, ", "))
	}
	return "?"
}

// Value is anything an instruction can consume: constants, globals,
// parameters, and other instructions' results.
type Value interface {
	Type() *Type
	// Operand is the value's textual operand form: %t3, 42, @g, null.
	Operand() string
}

// typed renders "type operand" for instruction argument lists.
func typed(v Value) string { return v.Type().String() + " " + v.Operand() }

//
// Constants
//

type ConstInt struct {
	Typ *Type
	Val int64
}

func NewConstInt(t *Type, v int64) *ConstInt { return &ConstInt{Typ: t, Val: v} }

func (c *ConstInt) Type() *Type     { return c.Typ }
func (c *ConstInt) Operand() string { return strconv.FormatInt(c.Val, 10) }

// True and False are the i1 constants.
var (
	True  = &ConstInt{Typ: I1, Val: 1}
	False = &ConstInt{Typ: I1, Val: 0}
)

type ConstFloat struct {
	Typ *Type
	Val float64
}

func NewConstFloat(t *Type, v float64) *ConstFloat { return &ConstFloat{Typ: t, Val: v} }

func (c *ConstFloat) Type() *Type { return c.Typ }

func (c *ConstFloat) Operand() string {
	s := strconv.FormatFloat(c.Val, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type ConstNull struct {
	Typ *Type // pointer type
}

func NewConstNull(t *Type) *ConstNull { return &ConstNull{Typ: t} }

func (c *ConstNull) Type() *Type     { return c.Typ }
func (c *ConstNull) Operand() string { return "null" }

// ZeroValue returns the zero constant of t, used for implicit returns
// and zero-initialized globals.
func ZeroValue(t *Type) Value {
	switch {
	case t.IsInteger():
		return &ConstInt{Typ: t, Val: 0}
	case t.IsFloat():
		return &ConstFloat{Typ: t, Val: 0}
	case t.IsPointer():
		return &ConstNull{Typ: t}
	}
	return &ConstInt{Typ: I64, Val: 0}
}

//
// Globals
//

// Global is a module-level variable. Its value form is the address, so
// Type() is a pointer; ValueType is what is stored there.
type Global struct {
	name      string
	ValueType *Type
	Init      Value  // nil means zeroinitializer
	Str       string // non-empty for private string constants
	Const     bool
	Private   bool
}

func (g *Global) Type() *Type     { return PointerTo(g.ValueType) }
func (g *Global) Operand() string { return "@" + g.name }
func (g *Global) Name() string    { return g.name }

//
// Parameters
//

type Param struct {
	name string
	typ  *Type
}

func (p *Param) Type() *Type     { return p.typ }
func (p *Param) Operand() string { return "%" + p.name }
func (p *Param) Name() string    { return p.name }

//
// Instructions
//

// Op enumerates instruction opcodes. The mnemonic is the textual form.
type Op string

const (
	OpAlloca Op = "alloca"
	OpLoad   Op = "load"
	OpStore  Op = "store"
	OpGEP    Op = "getelementptr"

	OpAdd  Op = "add"
	OpSub  Op = "sub"
	OpMul  Op = "mul"
	OpSDiv Op = "sdiv"
	OpUDiv Op = "udiv"
	OpSRem Op = "srem"
	OpURem Op = "urem"
	OpAnd  Op = "and"
	OpOr   Op = "or"
	OpXor  Op = "xor"
	OpShl  Op = "shl"
	OpAShr Op = "ashr"
	OpLShr Op = "lshr"

	OpFAdd Op = "fadd"
	OpFSub Op = "fsub"
	OpFMul Op = "fmul"
	OpFDiv Op = "fdiv"
	OpFRem Op = "frem"
	OpFNeg Op = "fneg"

	OpICmp Op = "icmp"
	OpFCmp Op = "fcmp"

	OpTrunc    Op = "trunc"
	OpSExt     Op = "sext"
	OpZExt     Op = "zext"
	OpSIToFP   Op = "sitofp"
	OpUIToFP   Op = "uitofp"
	OpFPToSI   Op = "fptosi"
	OpFPToUI   Op = "fptoui"
	OpFPExt    Op = "fpext"
	OpFPTrunc  Op = "fptrunc"
	OpBitcast  Op = "bitcast"
	OpIntToPtr Op = "inttoptr"
	OpPtrToInt Op = "ptrtoint"

	OpBr     Op = "br"
	OpCondBr Op = "condbr"
	OpRet    Op = "ret"
	OpPhi    Op = "phi"
	OpCall   Op = "call"
)

// Instr is one instruction. Its result (if any) is itself a Value.
type Instr struct {
	Op   Op
	name string // SSA result name, empty when the result is void
	typ  *Type  // result type; Void when none

	Args []Value

	Pred      string   // icmp/fcmp predicate
	Blocks    []*Block // br/condbr targets; phi incoming blocks
	Callee    string   // call target symbol
	ElemType  *Type    // pointee/element type for load, gep, alloca
	CallType  *Type    // function type for call
	Incomings []Value  // phi incoming values, parallel to Blocks
}

func (in *Instr) Type() *Type     { return in.typ }
func (in *Instr) Operand() string { return "%" + in.name }

// Block is a basic block: a labeled instruction sequence that must end
// in exactly one terminator.
type Block struct {
	name   string
	Instrs []*Instr
	fn     *Func
}

func (b *Block) Name() string  { return b.name }
func (b *Block) Parent() *Func { return b.fn }

// Terminator returns the block's terminating instruction, or nil if
// the block is not yet terminated.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	switch last.Op {
	case OpBr, OpCondBr, OpRet:
		return last
	}
	return nil
}

// Successors returns the blocks this block can branch to.
func (b *Block) Successors() []*Block {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.Blocks
}

// Func is one function: signature plus body blocks. A Func with no
// blocks is an external declaration.
type Func struct {
	name   string
	typ    *Type // FuncKind
	Params []*Param
	Blocks []*Block

	nextTemp   int
	blockNames map[string]int
}

func (f *Func) Name() string    { return f.name }
func (f *Func) FuncType() *Type { return f.typ }

// NewBlock appends a fresh block labeled hint; a repeated hint gets a
// numeric suffix so labels stay unique within the function.
func (f *Func) NewBlock(hint string) *Block {
	if f.blockNames == nil {
		f.blockNames = make(map[string]int)
	}
	name := hint
	if n := f.blockNames[hint]; n > 0 {
		name = hint + strconv.Itoa(n)
	}
	f.blockNames[hint]++
	b := &Block{name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Func) nextTempName() string {
	n := fmt.Sprintf("t%d", f.nextTemp)
	f.nextTemp++
	return n
}

// Module is one compilation unit's worth of IR.
type Module struct {
	Name    string
	Structs []*Type
	Globals []*Global
	Funcs   []*Func
}

func NewModule(name string) *Module { return &Module{Name: name} }

// DeclareStruct registers a named struct type body for emission.
func (m *Module) DeclareStruct(t *Type) { m.Structs = append(m.Structs, t) }

// NewGlobal adds a module-level variable.
func (m *Module) NewGlobal(name string, valueType *Type, init Value, isConst bool) *Global {
	g := &Global{name: name, ValueType: valueType, Init: init, Const: isConst}
	m.Globals = append(m.Globals, g)
	return g
}

// NewStringConstant interns a private NUL-terminated string global.
func (m *Module) NewStringConstant(name, s string) *Global {
	g := &Global{
		name:      name,
		ValueType: ArrayOf(I8, len(s)+1),
		Str:       s,
		Const:     true,
		Private:   true,
	}
	m.Globals = append(m.Globals, g)
	return g
}

// NewFunc adds a function with named parameters. Until a block is
// added it renders as an external declaration.
func (m *Module) NewFunc(name string, typ *Type, paramNames []string) *Func {
	f := &Func{name: name, typ: typ}
	for i, pt := range typ.Params {
		pname := fmt.Sprintf("arg%d", i)
		if i < len(paramNames) {
			pname = paramNames[i]
		}
		f.Params = append(f.Params, &Param{name: pname, typ: pt})
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

// Func looks a function up by name.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}

// VerifyFunction checks structural validity: every block terminated,
// and every phi's incoming count matching the block's predecessors.
func VerifyFunction(f *Func) error {
	if len(f.Blocks) == 0 {
		return nil
	}
	preds := make(map[*Block]int)
	for _, b := range f.Blocks {
		if b.Terminator() == nil {
			return fmt.Errorf("function %s: block %%%s has no terminator", f.name, b.name)
		}
		for _, s := range b.Successors() {
			preds[s]++
		}
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Op != OpPhi {
				continue
			}
			if len(in.Incomings) != preds[b] {
				return fmt.Errorf("function %s: phi in %%%s has %d incomings, block has %d predecessors",
					f.name, b.name, len(in.Incomings), preds[b])
			}
		}
	}
	return nil
}
