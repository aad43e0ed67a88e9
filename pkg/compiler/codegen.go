package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"dscc/pkg/ir"
)

// CodeGen walks the type-annotated AST and lowers every declaration
// into an ir.Module. It mirrors the analyzer's scoping with a stack of
// name-to-storage maps, and threads each expression's result as a
// direct return value (every genExpr call produces exactly one value).
type CodeGen struct {
	reporter *Reporter
	module   *ir.Module
	builder  *ir.Builder

	fn      *ir.Func
	retType Type // current function's declared return type

	breakTarget    *ir.Block
	continueTarget *ir.Block

	scopes  []map[string]ir.Value // storage locations, innermost last
	globals map[string]ir.Value

	funcs      map[string]*ir.Type // symbol -> ir function type
	funcSigs   map[string]*FunctionType
	structIR   map[string]*ir.Type
	enumConsts map[string]int64
	strings    map[string]*ir.Global
}

func NewCodeGen(rep *Reporter) *CodeGen {
	return &CodeGen{
		reporter:   rep,
		builder:    ir.NewBuilder(),
		globals:    make(map[string]ir.Value),
		funcs:      make(map[string]*ir.Type),
		funcSigs:   make(map[string]*FunctionType),
		structIR:   make(map[string]*ir.Type),
		enumConsts: make(map[string]int64),
		strings:    make(map[string]*ir.Global),
	}
}

// Generate lowers the unit in three passes: signatures, struct bodies,
// and enum constants first, then global variables (whose initializers
// may name enum members declared later in the file), then bodies.
func (cg *CodeGen) Generate(unit *CompilationUnit) *ir.Module {
	cg.module = ir.NewModule(unit.Filename)
	cg.declareRuntime()

	for _, decl := range unit.Decls {
		cg.collectDecl(decl)
	}
	for _, decl := range unit.Decls {
		if d, ok := decl.(*VarDecl); ok {
			cg.genGlobalVar(d)
		}
	}
	for _, decl := range unit.Decls {
		cg.genDecl(decl)
	}
	return cg.module
}

// declareRuntime emits external declarations for the runtime library.
func (cg *CodeGen) declareRuntime() {
	for _, rf := range runtimeFuncs {
		irType := cg.convertFuncType(rf.typ)
		cg.module.NewFunc(rf.name, irType, nil)
		cg.funcs[rf.name] = irType
		cg.funcSigs[rf.name] = rf.typ
	}
}

// collectDecl registers signatures, struct bodies, and enum constants
// ahead of global and body generation.
func (cg *CodeGen) collectDecl(decl Decl) {
	switch d := decl.(type) {
	case *StructDecl:
		if d.Type.IsComplete() {
			st := cg.convertType(d.Type)
			cg.module.DeclareStruct(st)
		}
	case *EnumDecl:
		// Enum members become read-only global constants; uses of a
		// member substitute the underlying integer directly.
		base := cg.convertType(d.Base)
		for _, v := range d.Values {
			cg.enumConsts[v.Name] = v.Value
			cg.module.NewGlobal(d.Name+"."+v.Name, base, ir.NewConstInt(base, v.Value), true)
		}
	case *FuncDecl:
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name
		}
		irType := cg.convertFuncType(d.Type)
		cg.module.NewFunc(d.Name, irType, names)
		cg.funcs[d.Name] = irType
		cg.funcSigs[d.Name] = d.Type
	case *MethodDecl:
		sig := methodFuncType(d)
		names := make([]string, 0, len(d.Params)+1)
		names = append(names, "self")
		for _, p := range d.Params {
			names = append(names, p.Name)
		}
		irType := cg.convertFuncType(sig)
		cg.module.NewFunc(d.Name, irType, names)
		cg.funcs[d.Name] = irType
		cg.funcSigs[d.Name] = sig
	}
}

func (cg *CodeGen) genDecl(decl Decl) {
	switch d := decl.(type) {
	case *FuncDecl:
		cg.genFunctionBody(d.Name, d.Type, d.Params, nil, d.Body)
	case *MethodDecl:
		self := &ParamDecl{Name: "self", Type: d.Receiver}
		cg.genFunctionBody(d.Name, methodFuncType(d), d.Params, self, d.Body)
	case *StructDecl, *EnumDecl:
		// Registered during collection.
	case *VarDecl:
		// Globals were emitted ahead of bodies.
	}
}

//
// Types
//

// convertType maps a source type onto its IR representation. Unsized
// arrays lower to pointers (they only occur where arrays decay).
func (cg *CodeGen) convertType(t Type) *ir.Type {
	switch tt := t.(type) {
	case *BasicType:
		switch tt.Kind() {
		case TypeVoidKind:
			return ir.Void
		case TypeBoolKind:
			return ir.I1
		case TypeCharKind:
			return ir.I8
		case TypeShortKind:
			return ir.I16
		case TypeIntKind:
			return ir.I32
		case TypeLongKind:
			return ir.I64
		case TypeFloatKind:
			return ir.Float
		case TypeDoubleKind:
			return ir.Double
		}
	case *PointerType:
		return ir.PointerTo(cg.convertType(tt.Pointee))
	case *ArrayType:
		if !tt.Sized {
			return ir.PointerTo(cg.convertType(tt.Elem))
		}
		return ir.ArrayOf(cg.convertType(tt.Elem), tt.Count)
	case *StructType:
		if st, ok := cg.structIR[tt.Name()]; ok {
			return st
		}
		fields := make([]*ir.Type, len(tt.Fields()))
		for i, f := range tt.Fields() {
			fields[i] = cg.convertType(f.Type)
		}
		st := ir.StructOf(tt.Name(), fields)
		cg.structIR[tt.Name()] = st
		return st
	case *EnumType:
		return cg.convertType(tt.Base())
	case *FunctionType:
		return cg.convertFuncType(tt)
	}
	return ir.I32
}

func (cg *CodeGen) convertFuncType(ft *FunctionType) *ir.Type {
	params := make([]*ir.Type, len(ft.Params))
	for i, p := range ft.Params {
		// Array parameters decay to pointers.
		if at, ok := p.(*ArrayType); ok {
			params[i] = ir.PointerTo(cg.convertType(at.Elem))
			continue
		}
		params[i] = cg.convertType(p)
	}
	return ir.FuncOf(cg.convertType(ft.Return), params, ft.Variadic)
}

//
// Storage scopes
//

func (cg *CodeGen) pushScope() {
	cg.scopes = append(cg.scopes, make(map[string]ir.Value))
}

func (cg *CodeGen) popScope() {
	cg.scopes = cg.scopes[:len(cg.scopes)-1]
}

func (cg *CodeGen) defineStorage(name string, addr ir.Value) {
	cg.scopes[len(cg.scopes)-1][name] = addr
}

// lookupStorage finds a variable's storage, innermost scope first,
// then globals.
func (cg *CodeGen) lookupStorage(name string) (ir.Value, bool) {
	for i := len(cg.scopes) - 1; i >= 0; i-- {
		if v, ok := cg.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := cg.globals[name]
	return v, ok
}

//
// Declarations
//

func (cg *CodeGen) genGlobalVar(d *VarDecl) {
	valueType := cg.convertType(d.Type)
	var init ir.Value
	if d.Init != nil {
		init = cg.constantInit(d.Init, d.Type)
		if init == nil {
			cg.reporter.Errorf(d.Line, d.Column,
				"global initializer for %q must be a constant", d.Name)
		}
	}
	g := cg.module.NewGlobal(d.Name, valueType, init, false)
	cg.globals[d.Name] = g
}

// constantInit evaluates the small constant-expression subset allowed
// in global initializers: literals and enum members.
func (cg *CodeGen) constantInit(e Expr, target Type) ir.Value {
	switch lit := e.(type) {
	case *LiteralExpr:
		switch lit.LitKind {
		case LitInt:
			n, err := strconv.ParseInt(lit.Value, 0, 64)
			if err != nil {
				return nil
			}
			return ir.NewConstInt(cg.convertType(target), n)
		case LitFloat:
			f, err := strconv.ParseFloat(strings.TrimRight(lit.Value, "fF"), 64)
			if err != nil {
				return nil
			}
			return ir.NewConstFloat(cg.convertType(target), f)
		case LitChar:
			if lit.Value == "" {
				return nil
			}
			return ir.NewConstInt(cg.convertType(target), int64(lit.Value[0]))
		case LitBool:
			if lit.Value == "true" {
				return ir.NewConstInt(cg.convertType(target), 1)
			}
			return ir.NewConstInt(cg.convertType(target), 0)
		case LitNull:
			return ir.NewConstNull(cg.convertType(target))
		}
	case *VarExpr:
		if v, ok := cg.enumConsts[lit.Name]; ok {
			return ir.NewConstInt(cg.convertType(target), v)
		}
	}
	return nil
}

// genFunctionBody lowers one function or method: entry block,
// parameter spill slots so parameters are mutable like locals, the
// body, and an implicit return when control falls off the end.
func (cg *CodeGen) genFunctionBody(name string, sig *FunctionType, params []*ParamDecl, self *ParamDecl, body *BlockStmt) {
	if body == nil {
		return // forward declaration stays a declare line
	}
	fn := cg.module.Func(name)
	if fn == nil {
		return
	}
	prevFn, prevRet := cg.fn, cg.retType
	cg.fn = fn
	cg.retType = sig.Return

	entry := fn.NewBlock("entry")
	cg.builder.SetInsertPoint(entry)
	cg.pushScope()

	all := params
	if self != nil {
		all = append([]*ParamDecl{self}, params...)
	}
	for i, p := range all {
		slot := cg.builder.CreateAlloca(fn.Params[i].Type())
		cg.builder.CreateStore(fn.Params[i], slot)
		cg.defineStorage(p.Name, slot)
	}

	cg.genStmts(body.Stmts)

	// Synthesize the implicit return on any fall-through path.
	if cg.builder.InsertBlock().Terminator() == nil {
		if sig.Return.Kind() == TypeVoidKind {
			cg.builder.CreateRetVoid()
		} else {
			cg.builder.CreateRet(ir.ZeroValue(cg.convertType(sig.Return)))
		}
	}

	cg.popScope()
	cg.fn, cg.retType = prevFn, prevRet

	if err := ir.VerifyFunction(fn); err != nil {
		cg.reporter.Errorf(0, 0, "internal: %v", err)
	}
}

func (cg *CodeGen) genLocalVar(d *VarDecl) {
	slot := cg.builder.CreateAlloca(cg.convertType(d.Type))
	cg.defineStorage(d.Name, slot)
	if d.Init != nil {
		val := cg.genExpr(d.Init)
		val = cg.castValue(val, d.Init.Type(), d.Type)
		cg.builder.CreateStore(val, slot)
	}
}

//
// Statements
//

// genStmts lowers a statement list, dropping anything after the block
// has been terminated by a return, break, or continue.
func (cg *CodeGen) genStmts(stmts []Stmt) {
	for _, s := range stmts {
		if cg.builder.InsertBlock().Terminator() != nil {
			return
		}
		cg.genStmt(s)
	}
}

func (cg *CodeGen) genStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		cg.genExpr(s.Expr)
	case *BlockStmt:
		cg.pushScope()
		cg.genStmts(s.Stmts)
		cg.popScope()
	case *IfStmt:
		cg.genIf(s)
	case *WhileStmt:
		cg.genWhile(s)
	case *ForStmt:
		cg.genFor(s)
	case *BreakStmt:
		if cg.breakTarget == nil {
			cg.reporter.Error(s.Line, s.Column, "break statement outside of loop")
			return
		}
		cg.builder.CreateBr(cg.breakTarget)
	case *ContinueStmt:
		if cg.continueTarget == nil {
			cg.reporter.Error(s.Line, s.Column, "continue statement outside of loop")
			return
		}
		cg.builder.CreateBr(cg.continueTarget)
	case *ReturnStmt:
		if s.Expr != nil {
			val := cg.genExpr(s.Expr)
			val = cg.castValue(val, s.Expr.Type(), cg.retType)
			cg.builder.CreateRet(val)
			return
		}
		cg.builder.CreateRetVoid()
	case *DeclStmt:
		if d, ok := s.Decl.(*VarDecl); ok {
			cg.genLocalVar(d)
		}
	}
}

func (cg *CodeGen) genIf(s *IfStmt) {
	cond := cg.convertToBoolean(cg.genExpr(s.Cond))

	thenBlock := cg.fn.NewBlock("then")
	var elseBlock *ir.Block
	mergeBlock := cg.fn.NewBlock("ifcont")

	if s.Else != nil {
		elseBlock = cg.fn.NewBlock("else")
		cg.builder.CreateCondBr(cond, thenBlock, elseBlock)
	} else {
		cg.builder.CreateCondBr(cond, thenBlock, mergeBlock)
	}

	cg.builder.SetInsertPoint(thenBlock)
	cg.genStmt(s.Then)
	if cg.builder.InsertBlock().Terminator() == nil {
		cg.builder.CreateBr(mergeBlock)
	}

	if s.Else != nil {
		cg.builder.SetInsertPoint(elseBlock)
		cg.genStmt(s.Else)
		if cg.builder.InsertBlock().Terminator() == nil {
			cg.builder.CreateBr(mergeBlock)
		}
	}

	cg.builder.SetInsertPoint(mergeBlock)
}

func (cg *CodeGen) genWhile(s *WhileStmt) {
	condBlock := cg.fn.NewBlock("while.cond")
	bodyBlock := cg.fn.NewBlock("while.body")
	endBlock := cg.fn.NewBlock("while.end")

	cg.builder.CreateBr(condBlock)

	prevBreak, prevContinue := cg.breakTarget, cg.continueTarget
	cg.breakTarget, cg.continueTarget = endBlock, condBlock

	cg.builder.SetInsertPoint(condBlock)
	cond := cg.convertToBoolean(cg.genExpr(s.Cond))
	cg.builder.CreateCondBr(cond, bodyBlock, endBlock)

	cg.builder.SetInsertPoint(bodyBlock)
	cg.genStmt(s.Body)
	if cg.builder.InsertBlock().Terminator() == nil {
		cg.builder.CreateBr(condBlock)
	}

	cg.builder.SetInsertPoint(endBlock)
	cg.breakTarget, cg.continueTarget = prevBreak, prevContinue
}

func (cg *CodeGen) genFor(s *ForStmt) {
	cg.pushScope()

	condBlock := cg.fn.NewBlock("for.cond")
	bodyBlock := cg.fn.NewBlock("for.body")
	incBlock := cg.fn.NewBlock("for.inc")
	endBlock := cg.fn.NewBlock("for.end")

	if s.Init != nil {
		cg.genStmt(s.Init)
	}
	cg.builder.CreateBr(condBlock)

	prevBreak, prevContinue := cg.breakTarget, cg.continueTarget
	cg.breakTarget, cg.continueTarget = endBlock, incBlock

	cg.builder.SetInsertPoint(condBlock)
	if s.Cond != nil {
		cond := cg.convertToBoolean(cg.genExpr(s.Cond))
		cg.builder.CreateCondBr(cond, bodyBlock, endBlock)
	} else {
		cg.builder.CreateBr(bodyBlock)
	}

	cg.builder.SetInsertPoint(bodyBlock)
	cg.genStmt(s.Body)
	if cg.builder.InsertBlock().Terminator() == nil {
		cg.builder.CreateBr(incBlock)
	}

	cg.builder.SetInsertPoint(incBlock)
	if s.Inc != nil {
		cg.genExpr(s.Inc)
	}
	cg.builder.CreateBr(condBlock)

	cg.builder.SetInsertPoint(endBlock)
	cg.breakTarget, cg.continueTarget = prevBreak, prevContinue

	cg.popScope()
}

//
// Expressions
//

// genExpr lowers one expression and returns its single result value.
func (cg *CodeGen) genExpr(expr Expr) ir.Value {
	switch e := expr.(type) {
	case *LiteralExpr:
		return cg.genLiteral(e)
	case *VarExpr:
		return cg.genVar(e)
	case *BinaryExpr:
		return cg.genBinary(e)
	case *UnaryExpr:
		return cg.genUnary(e)
	case *AssignExpr:
		return cg.genAssign(e)
	case *CallExpr:
		return cg.genCall(e)
	case *MessageExpr:
		return cg.genMessage(e)
	case *MemberExpr:
		return cg.genMember(e)
	case *SubscriptExpr:
		return cg.genSubscript(e)
	case *CastExpr:
		v := cg.genExpr(e.Operand)
		return cg.castValue(v, e.Operand.Type(), e.TargetType)
	}
	return ir.NewConstInt(ir.I32, 0)
}

func (cg *CodeGen) genLiteral(e *LiteralExpr) ir.Value {
	switch e.LitKind {
	case LitInt:
		n, err := strconv.ParseInt(e.Value, 0, 64)
		if err != nil {
			cg.errorAt(e, "invalid integer literal %q", e.Value)
			n = 0
		}
		return ir.NewConstInt(cg.convertType(e.Type()), n)
	case LitFloat:
		f, err := strconv.ParseFloat(strings.TrimRight(e.Value, "fF"), 64)
		if err != nil {
			cg.errorAt(e, "invalid float literal %q", e.Value)
			f = 0
		}
		return ir.NewConstFloat(cg.convertType(e.Type()), f)
	case LitChar:
		var c int64
		if e.Value != "" {
			c = int64(e.Value[0])
		}
		return ir.NewConstInt(ir.I8, c)
	case LitString:
		return cg.internString(e.Value)
	case LitBool:
		if e.Value == "true" {
			return ir.True
		}
		return ir.False
	case LitNull:
		return ir.NewConstNull(ir.PointerTo(ir.Void))
	}
	return ir.NewConstInt(ir.I32, 0)
}

// internString returns the address of a private NUL-terminated global,
// one per distinct literal.
func (cg *CodeGen) internString(s string) ir.Value {
	if g, ok := cg.strings[s]; ok {
		return g
	}
	g := cg.module.NewStringConstant(fmt.Sprintf(".str%d", len(cg.strings)), s)
	cg.strings[s] = g
	return g
}

// genVar loads a variable's value. Enum members substitute their
// constant; sized-array variables evaluate to their address (decay),
// while an unsized array parameter's storage already holds a pointer
// and is loaded like any other local.
func (cg *CodeGen) genVar(e *VarExpr) ir.Value {
	if v, ok := cg.enumConsts[e.Name]; ok {
		return ir.NewConstInt(cg.convertType(e.Type()), v)
	}
	addr, ok := cg.lookupStorage(e.Name)
	if !ok {
		cg.errorAt(e, "unknown variable %q", e.Name)
		return ir.NewConstInt(ir.I32, 0)
	}
	if at, ok := e.Type().(*ArrayType); ok && at.Sized {
		return addr
	}
	return cg.builder.CreateLoad(cg.convertType(e.Type()), addr)
}

func (cg *CodeGen) genBinary(e *BinaryExpr) ir.Value {
	switch e.Op {
	case OpLogicalAnd:
		return cg.genShortCircuit(e, true)
	case OpLogicalOr:
		return cg.genShortCircuit(e, false)
	}

	left := cg.genExpr(e.Left)
	right := cg.genExpr(e.Right)

	switch e.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return cg.genComparison(e, left, right)
	}

	// Arithmetic and bitwise results carry the common type; bring both
	// operands up to it first.
	resType := e.Type()
	left = cg.castValue(left, e.Left.Type(), resType)
	right = cg.castValue(right, e.Right.Type(), resType)

	isFloat := IsFloat(resType)
	unsigned := IsUnsigned(resType)

	switch e.Op {
	case OpAdd:
		if isFloat {
			return cg.builder.CreateFAdd(left, right)
		}
		return cg.builder.CreateAdd(left, right)
	case OpSub:
		if isFloat {
			return cg.builder.CreateFSub(left, right)
		}
		return cg.builder.CreateSub(left, right)
	case OpMul:
		if isFloat {
			return cg.builder.CreateFMul(left, right)
		}
		return cg.builder.CreateMul(left, right)
	case OpDiv:
		if isFloat {
			return cg.builder.CreateFDiv(left, right)
		}
		if unsigned {
			return cg.builder.CreateUDiv(left, right)
		}
		return cg.builder.CreateSDiv(left, right)
	case OpMod:
		if isFloat {
			return cg.builder.CreateFRem(left, right)
		}
		if unsigned {
			return cg.builder.CreateURem(left, right)
		}
		return cg.builder.CreateSRem(left, right)
	case OpBitAnd:
		return cg.builder.CreateAnd(left, right)
	case OpBitOr:
		return cg.builder.CreateOr(left, right)
	case OpBitXor:
		return cg.builder.CreateXor(left, right)
	case OpShl:
		return cg.builder.CreateShl(left, right)
	case OpShr:
		if unsigned {
			return cg.builder.CreateLShr(left, right)
		}
		return cg.builder.CreateAShr(left, right)
	}

	cg.errorAt(e, "unsupported binary operator %q", e.Op.String())
	return ir.NewConstInt(ir.I32, 0)
}

// genComparison converts both operands to their common type, then
// picks the sign- and float-aware predicate.
func (cg *CodeGen) genComparison(e *BinaryExpr, left, right ir.Value) ir.Value {
	operandType := commonType(e.Left.Type(), e.Right.Type())
	if IsPointer(e.Left.Type()) || IsPointer(e.Right.Type()) {
		operandType = e.Left.Type()
		if !IsPointer(operandType) {
			operandType = e.Right.Type()
		}
	}
	left = cg.castValue(left, e.Left.Type(), operandType)
	right = cg.castValue(right, e.Right.Type(), operandType)

	if IsFloat(operandType) {
		pred := map[BinaryOp]string{
			OpEq: "oeq", OpNe: "one", OpLt: "olt", OpLe: "ole", OpGt: "ogt", OpGe: "oge",
		}[e.Op]
		return cg.builder.CreateFCmp(pred, left, right)
	}

	unsigned := IsUnsigned(operandType) || IsPointer(operandType)
	var pred string
	switch e.Op {
	case OpEq:
		pred = "eq"
	case OpNe:
		pred = "ne"
	case OpLt:
		pred = "slt"
		if unsigned {
			pred = "ult"
		}
	case OpLe:
		pred = "sle"
		if unsigned {
			pred = "ule"
		}
	case OpGt:
		pred = "sgt"
		if unsigned {
			pred = "ugt"
		}
	case OpGe:
		pred = "sge"
		if unsigned {
			pred = "uge"
		}
	}
	return cg.builder.CreateICmp(pred, left, right)
}

// genShortCircuit lowers && and || with real control flow: the right
// operand is evaluated only when the left side has not already decided
// the result, and a phi merges the short-circuited constant with the
// right side's boolean value.
func (cg *CodeGen) genShortCircuit(e *BinaryExpr, isAnd bool) ir.Value {
	leftBool := cg.convertToBoolean(cg.genExpr(e.Left))
	leftBlock := cg.builder.InsertBlock()

	prefix := "and"
	shortVal := ir.False
	if !isAnd {
		prefix = "or"
		shortVal = ir.True
	}
	rhsBlock := cg.fn.NewBlock(prefix + ".rhs")
	endBlock := cg.fn.NewBlock(prefix + ".end")

	if isAnd {
		cg.builder.CreateCondBr(leftBool, rhsBlock, endBlock)
	} else {
		cg.builder.CreateCondBr(leftBool, endBlock, rhsBlock)
	}

	cg.builder.SetInsertPoint(rhsBlock)
	rightBool := cg.convertToBoolean(cg.genExpr(e.Right))
	rhsEnd := cg.builder.InsertBlock()
	cg.builder.CreateBr(endBlock)

	cg.builder.SetInsertPoint(endBlock)
	phi := cg.builder.CreatePhi(ir.I1)
	phi.AddIncoming(shortVal, leftBlock)
	phi.AddIncoming(rightBool, rhsEnd)
	return phi
}

func (cg *CodeGen) genUnary(e *UnaryExpr) ir.Value {
	switch e.Op {
	case OpNeg:
		v := cg.genExpr(e.Operand)
		if IsFloat(e.Operand.Type()) {
			return cg.builder.CreateFNeg(v)
		}
		return cg.builder.CreateNeg(v)
	case OpBitNot:
		v := cg.genExpr(e.Operand)
		return cg.builder.CreateXor(v, ir.NewConstInt(v.Type(), -1))
	case OpNot:
		b := cg.convertToBoolean(cg.genExpr(e.Operand))
		return cg.builder.CreateXor(b, ir.True)
	case OpDeref:
		ptr := cg.genExpr(e.Operand)
		return cg.builder.CreateLoad(cg.convertType(e.Type()), ptr)
	case OpAddr:
		addr, ok := cg.getLValue(e.Operand)
		if !ok {
			return ir.NewConstNull(ir.PointerTo(ir.Void))
		}
		return addr
	case OpPreInc, OpPreDec, OpPostInc, OpPostDec:
		return cg.genIncDec(e)
	}
	cg.errorAt(e, "unsupported unary operator")
	return ir.NewConstInt(ir.I32, 0)
}

// genIncDec computes the l-value once, does the load-adjust-store, and
// yields the old value for postfix forms, the new one for prefix.
func (cg *CodeGen) genIncDec(e *UnaryExpr) ir.Value {
	addr, ok := cg.getLValue(e.Operand)
	if !ok {
		return ir.NewConstInt(ir.I32, 0)
	}
	opType := e.Operand.Type()
	irType := cg.convertType(opType)
	oldVal := cg.builder.CreateLoad(irType, addr)

	inc := e.Op == OpPreInc || e.Op == OpPostInc
	var newVal ir.Value
	switch {
	case IsFloat(opType):
		one := ir.NewConstFloat(irType, 1)
		if inc {
			newVal = cg.builder.CreateFAdd(oldVal, one)
		} else {
			newVal = cg.builder.CreateFSub(oldVal, one)
		}
	case IsPointer(opType):
		step := int64(1)
		if !inc {
			step = -1
		}
		pointee := cg.convertType(opType.(*PointerType).Pointee)
		newVal = cg.builder.CreateGEP(pointee, oldVal, ir.NewConstInt(ir.I64, step))
	default:
		one := ir.NewConstInt(irType, 1)
		if inc {
			newVal = cg.builder.CreateAdd(oldVal, one)
		} else {
			newVal = cg.builder.CreateSub(oldVal, one)
		}
	}
	cg.builder.CreateStore(newVal, addr)

	if e.Op == OpPostInc || e.Op == OpPostDec {
		return oldVal
	}
	return newVal
}

func (cg *CodeGen) genAssign(e *AssignExpr) ir.Value {
	val := cg.genExpr(e.Value)
	val = cg.castValue(val, e.Value.Type(), e.Target.Type())
	addr, ok := cg.getLValue(e.Target)
	if !ok {
		return val
	}
	cg.builder.CreateStore(val, addr)
	return val
}

// genCall lowers a direct call. The callee must be a plain function
// name; arguments are converted to the declared parameter types.
func (cg *CodeGen) genCall(e *CallExpr) ir.Value {
	callee, ok := e.Callee.(*VarExpr)
	if !ok {
		cg.errorAt(e, "indirect calls are not supported")
		return ir.NewConstInt(ir.I32, 0)
	}
	return cg.genCallTo(e, callee.Name, nil, e.Args)
}

// genMessage lowers a message send as a static call to the flattened
// selector with the receiver as the first argument.
func (cg *CodeGen) genMessage(e *MessageExpr) ir.Value {
	return cg.genCallTo(e, e.Selector, e.Receiver, e.Args)
}

func (cg *CodeGen) genCallTo(e Expr, name string, receiver Expr, args []Expr) ir.Value {
	irType, ok := cg.funcs[name]
	sig := cg.funcSigs[name]
	if !ok || sig == nil {
		cg.errorAt(e, "unknown function %q", name)
		return ir.NewConstInt(ir.I32, 0)
	}

	all := args
	if receiver != nil {
		all = append([]Expr{receiver}, args...)
	}
	vals := make([]ir.Value, len(all))
	for i, arg := range all {
		v := cg.genExpr(arg)
		if i < len(sig.Params) {
			v = cg.castValue(v, arg.Type(), sig.Params[i])
		}
		vals[i] = v
	}
	return cg.builder.CreateCall(irType, name, vals...)
}

func (cg *CodeGen) genMember(e *MemberExpr) ir.Value {
	addr, ok := cg.getLValue(e)
	if !ok {
		return ir.NewConstInt(ir.I32, 0)
	}
	return cg.builder.CreateLoad(cg.convertType(e.Type()), addr)
}

func (cg *CodeGen) genSubscript(e *SubscriptExpr) ir.Value {
	addr, ok := cg.getLValue(e)
	if !ok {
		return ir.NewConstInt(ir.I32, 0)
	}
	// A partial index into a multi-dimensional array yields the
	// sub-array address, not a load.
	if e.Type().Kind() == TypeArrayKind {
		return addr
	}
	return cg.builder.CreateLoad(cg.convertType(e.Type()), addr)
}

//
// L-values
//

// getLValue returns the address of an assignable expression: a
// variable, subscript, member access, or pointer dereference. Any
// other shape is a reported error, never a crash.
func (cg *CodeGen) getLValue(expr Expr) (ir.Value, bool) {
	switch e := expr.(type) {
	case *VarExpr:
		addr, ok := cg.lookupStorage(e.Name)
		if !ok {
			cg.errorAt(e, "unknown variable %q", e.Name)
			return nil, false
		}
		return addr, true
	case *SubscriptExpr:
		base := cg.genExpr(e.Array)
		index := cg.genExpr(e.Index)
		index = cg.castValue(index, e.Index.Type(), TypeLong)
		return cg.builder.CreateGEP(cg.convertType(e.Type()), base, index), true
	case *MemberExpr:
		objAddr, ok := cg.getLValue(e.Object)
		if !ok {
			return nil, false
		}
		st, sok := e.Object.Type().(*StructType)
		if !sok {
			cg.errorAt(e, "member access on non-struct value")
			return nil, false
		}
		idx := st.FieldIndex(e.Field)
		if idx < 0 {
			cg.errorAt(e, "struct %q has no field %q", st.Name(), e.Field)
			return nil, false
		}
		irStruct := cg.convertType(st)
		return cg.builder.CreateStructGEP(irStruct, objAddr, idx), true
	case *UnaryExpr:
		if e.Op == OpDeref {
			return cg.genExpr(e.Operand), true
		}
	}
	cg.errorAt(expr, "expression is not an lvalue")
	return nil, false
}

//
// Conversions
//

// convertToBoolean is type-directed: integers and floats compare
// against zero, pointers against null, and i1 passes through. Invoked
// at every condition site and by the logical operators.
func (cg *CodeGen) convertToBoolean(v ir.Value) ir.Value {
	t := v.Type()
	switch {
	case t.Kind == ir.I1Kind:
		return v
	case t.IsInteger():
		return cg.builder.CreateICmp("ne", v, ir.NewConstInt(t, 0))
	case t.IsFloat():
		return cg.builder.CreateFCmp("one", v, ir.NewConstFloat(t, 0))
	case t.IsPointer():
		return cg.builder.CreateICmp("ne", v, ir.NewConstNull(t))
	}
	cg.reporter.Errorf(0, 0, "internal: cannot convert %s to boolean", t)
	return ir.False
}

// castValue converts v from one source type to another, selecting the
// instruction from the full conversion matrix: integer resize
// (trunc/sext/zext), int/float moves (sitofp/uitofp/fptosi/fptoui),
// float resize (fpext/fptrunc), and pointer/integer reinterpretation
// (bitcast/inttoptr/ptrtoint).
func (cg *CodeGen) castValue(v ir.Value, from, to Type) ir.Value {
	if from == nil || to == nil || from.IsEqual(to) {
		return v
	}
	src := v.Type()
	dst := cg.convertType(to)

	switch {
	case src.IsInteger() && dst.IsInteger():
		if src.Bits() == dst.Bits() {
			return v
		}
		if src.Bits() > dst.Bits() {
			if dst.Kind == ir.I1Kind {
				// Narrowing to bool is a zero test, not a bit slice.
				return cg.convertToBoolean(v)
			}
			return cg.builder.CreateCast(ir.OpTrunc, v, dst)
		}
		if IsUnsigned(from) || from.Kind() == TypeBoolKind {
			return cg.builder.CreateCast(ir.OpZExt, v, dst)
		}
		return cg.builder.CreateCast(ir.OpSExt, v, dst)
	case src.IsInteger() && dst.IsFloat():
		if IsUnsigned(from) {
			return cg.builder.CreateCast(ir.OpUIToFP, v, dst)
		}
		return cg.builder.CreateCast(ir.OpSIToFP, v, dst)
	case src.IsFloat() && dst.IsInteger():
		if IsUnsigned(to) {
			return cg.builder.CreateCast(ir.OpFPToUI, v, dst)
		}
		return cg.builder.CreateCast(ir.OpFPToSI, v, dst)
	case src.IsFloat() && dst.IsFloat():
		if src.Kind == ir.FloatKind && dst.Kind == ir.DoubleKind {
			return cg.builder.CreateCast(ir.OpFPExt, v, dst)
		}
		if src.Kind == ir.DoubleKind && dst.Kind == ir.FloatKind {
			return cg.builder.CreateCast(ir.OpFPTrunc, v, dst)
		}
		return v
	case src.IsPointer() && dst.IsPointer():
		return cg.builder.CreateCast(ir.OpBitcast, v, dst)
	case src.IsInteger() && dst.IsPointer():
		return cg.builder.CreateCast(ir.OpIntToPtr, v, dst)
	case src.IsPointer() && dst.IsInteger():
		return cg.builder.CreateCast(ir.OpPtrToInt, v, dst)
	}
	return v
}

func (cg *CodeGen) errorAt(expr Expr, format string, args ...any) {
	line, col := expr.Pos()
	cg.reporter.Errorf(line, col, format, args...)
}
