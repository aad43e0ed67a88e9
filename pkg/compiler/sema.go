package compiler

import "strings"

// Analyzer runs semantic analysis over a compilation unit in two
// passes: collect gathers every top-level symbol so forward references
// resolve, then each declaration body is checked with full scope
// tracking. Violations are accumulated in the reporter and analysis
// continues, so one run surfaces every detectable semantic error.
type Analyzer struct {
	reporter *Reporter
	symbols  *SymbolTable

	loopDepth   int
	currentFunc *FunctionType // nil outside a function or method body
}

func NewAnalyzer(rep *Reporter) *Analyzer {
	return &Analyzer{
		reporter: rep,
		symbols:  NewSymbolTable(),
	}
}

// Symbols exposes the table for tests and for the driver's -v dump.
func (a *Analyzer) Symbols() *SymbolTable { return a.symbols }

// Analyze checks the whole unit. Diagnostics land in the reporter;
// callers consult Reporter.HasErrors before generating code.
func (a *Analyzer) Analyze(unit *CompilationUnit) {
	a.declareRuntime()
	for _, decl := range unit.Decls {
		a.collect(decl)
	}
	for _, decl := range unit.Decls {
		a.checkDecl(decl)
	}
}

// declareRuntime predeclares the external runtime functions so calls
// to them type-check. A user declaration of the same name overrides.
func (a *Analyzer) declareRuntime() {
	for _, rf := range runtimeFuncs {
		a.symbols.Define(Symbol{Name: rf.name, Kind: SymFunction, Type: rf.typ})
	}
}

// collect inserts one top-level declaration's symbol without
// descending into bodies, permitting forward references.
func (a *Analyzer) collect(decl Decl) {
	switch d := decl.(type) {
	case *VarDecl:
		a.symbols.Define(Symbol{
			Name: d.Name, Kind: SymVariable, Type: d.Type,
			Line: d.Line, Column: d.Column,
		})
	case *FuncDecl:
		a.symbols.Define(Symbol{
			Name: d.Name, Kind: SymFunction, Type: d.Type,
			Line: d.Line, Column: d.Column,
		})
	case *MethodDecl:
		a.symbols.Define(Symbol{
			Name: d.Name, Kind: SymFunction, Type: methodFuncType(d),
			Line: d.Line, Column: d.Column,
		})
	case *StructDecl:
		a.symbols.Define(Symbol{
			Name: d.Name, Kind: SymStruct, Type: d.Type,
			Line: d.Line, Column: d.Column,
		})
	case *EnumDecl:
		a.symbols.Define(Symbol{
			Name: d.Name, Kind: SymEnum, Type: d.Type,
			Line: d.Line, Column: d.Column,
		})
		// Members are plain named integer constants.
		for _, v := range d.Values {
			a.symbols.Define(Symbol{
				Name: v.Name, Kind: SymEnumValue, Type: d.Type,
				EnumValue: v.Value, Line: d.Line, Column: d.Column,
			})
		}
	}
}

// methodFuncType is the method's linkage signature: the receiver is a
// synthetic first parameter ahead of the declared ones.
func methodFuncType(d *MethodDecl) *FunctionType {
	params := make([]Type, 0, len(d.Type.Params)+1)
	params = append(params, d.Receiver)
	params = append(params, d.Type.Params...)
	return NewFunctionType(d.Type.Return, params, d.Type.Variadic)
}

//
// Declarations
//

func (a *Analyzer) checkDecl(decl Decl) {
	switch d := decl.(type) {
	case *VarDecl:
		a.checkVarDecl(d)
	case *FuncDecl:
		a.checkFunctionBody(d.Type, d.Params, nil, d.Body)
	case *MethodDecl:
		self := &ParamDecl{Name: "self", Type: d.Receiver, Line: d.Line, Column: d.Column}
		a.checkFunctionBody(d.Type, d.Params, self, d.Body)
	case *StructDecl, *EnumDecl:
		// Layout and values were resolved at parse time.
	}
}

func (a *Analyzer) checkVarDecl(d *VarDecl) {
	if d.Type.Kind() == TypeVoidKind {
		a.reporter.Errorf(d.Line, d.Column, "variable %q has void type", d.Name)
	}
	if d.Init != nil {
		initType := a.checkExpr(d.Init)
		if !compatible(d.Type, initType) {
			a.reporter.Errorf(d.Line, d.Column,
				"cannot initialize %q of type %s with value of type %s",
				d.Name, d.Type, initType)
		}
	}
	a.symbols.Define(Symbol{
		Name: d.Name, Kind: SymVariable, Type: d.Type,
		Line: d.Line, Column: d.Column,
	})
}

// checkFunctionBody checks a function or method body. self is non-nil
// for methods and enters scope ahead of the declared parameters.
func (a *Analyzer) checkFunctionBody(typ *FunctionType, params []*ParamDecl, self *ParamDecl, body *BlockStmt) {
	if body == nil {
		return // forward declaration
	}
	prevFunc := a.currentFunc
	a.currentFunc = typ
	a.symbols.EnterScope()

	if self != nil {
		a.symbols.Define(Symbol{
			Name: self.Name, Kind: SymParameter, Type: self.Type,
			Line: self.Line, Column: self.Column,
		})
	}
	for _, p := range params {
		a.symbols.Define(Symbol{
			Name: p.Name, Kind: SymParameter, Type: p.Type,
			Line: p.Line, Column: p.Column,
		})
	}
	for _, stmt := range body.Stmts {
		a.checkStmt(stmt)
	}

	a.symbols.ExitScope()
	a.currentFunc = prevFunc
}

//
// Statements
//

func (a *Analyzer) checkStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		a.checkExpr(s.Expr)
	case *BlockStmt:
		a.symbols.EnterScope()
		for _, inner := range s.Stmts {
			a.checkStmt(inner)
		}
		a.symbols.ExitScope()
	case *IfStmt:
		a.checkCondition(s.Cond)
		a.checkStmt(s.Then)
		if s.Else != nil {
			a.checkStmt(s.Else)
		}
	case *WhileStmt:
		a.checkCondition(s.Cond)
		a.loopDepth++
		a.checkStmt(s.Body)
		a.loopDepth--
	case *ForStmt:
		// The init variable is visible through the whole loop.
		a.symbols.EnterScope()
		if s.Init != nil {
			a.checkStmt(s.Init)
		}
		if s.Cond != nil {
			a.checkCondition(s.Cond)
		}
		if s.Inc != nil {
			a.checkExpr(s.Inc)
		}
		a.loopDepth++
		a.checkStmt(s.Body)
		a.loopDepth--
		a.symbols.ExitScope()
	case *BreakStmt:
		if a.loopDepth == 0 {
			a.reporter.Error(s.Line, s.Column, "break statement outside of loop")
		}
	case *ContinueStmt:
		if a.loopDepth == 0 {
			a.reporter.Error(s.Line, s.Column, "continue statement outside of loop")
		}
	case *ReturnStmt:
		a.checkReturn(s)
	case *DeclStmt:
		if d, ok := s.Decl.(*VarDecl); ok {
			a.checkVarDecl(d)
		}
	}
}

// checkCondition requires a scalar condition type; conditions are
// boolean-converted at lowering time.
func (a *Analyzer) checkCondition(cond Expr) {
	t := a.checkExpr(cond)
	if !IsScalar(t) {
		line, col := cond.Pos()
		a.reporter.Errorf(line, col, "condition has non-scalar type %s", t)
	}
}

func (a *Analyzer) checkReturn(s *ReturnStmt) {
	if a.currentFunc == nil {
		a.reporter.Error(s.Line, s.Column, "return statement outside of function")
		return
	}
	retType := a.currentFunc.Return
	if s.Expr == nil {
		if retType.Kind() != TypeVoidKind {
			a.reporter.Errorf(s.Line, s.Column,
				"non-void function must return a value of type %s", retType)
		}
		return
	}
	if retType.Kind() == TypeVoidKind {
		a.reporter.Error(s.Line, s.Column, "void function cannot return a value")
		a.checkExpr(s.Expr)
		return
	}
	exprType := a.checkExpr(s.Expr)
	if !compatible(retType, exprType) {
		a.reporter.Errorf(s.Line, s.Column,
			"cannot return value of type %s from function returning %s",
			exprType, retType)
	}
}

//
// Expressions
//

// errorType is the recovery type assigned after a reported expression
// error, keeping later checks from cascading.
var errorType Type = TypeInt

// checkExpr resolves and returns the expression's type, annotating the
// node. Every violation is reported with the node's position.
func (a *Analyzer) checkExpr(expr Expr) Type {
	t := a.resolveExpr(expr)
	expr.SetType(t)
	return t
}

func (a *Analyzer) errorAt(expr Expr, format string, args ...any) Type {
	line, col := expr.Pos()
	a.reporter.Errorf(line, col, format, args...)
	return errorType
}

func (a *Analyzer) resolveExpr(expr Expr) Type {
	switch e := expr.(type) {
	case *LiteralExpr:
		return literalType(e)
	case *VarExpr:
		sym, ok := a.symbols.Resolve(e.Name)
		if !ok {
			return a.errorAt(e, "undefined symbol %q", e.Name)
		}
		return sym.Type
	case *BinaryExpr:
		return a.checkBinary(e)
	case *UnaryExpr:
		return a.checkUnary(e)
	case *AssignExpr:
		return a.checkAssign(e)
	case *CallExpr:
		return a.checkCall(e)
	case *MessageExpr:
		return a.checkMessage(e)
	case *MemberExpr:
		return a.checkMember(e)
	case *SubscriptExpr:
		return a.checkSubscript(e)
	case *CastExpr:
		a.checkExpr(e.Operand)
		return e.TargetType
	}
	return a.errorAt(expr, "unsupported expression")
}

func literalType(e *LiteralExpr) Type {
	switch e.LitKind {
	case LitInt:
		return TypeInt
	case LitFloat:
		// An explicit f/F suffix selects float; otherwise double.
		if strings.HasSuffix(e.Value, "f") || strings.HasSuffix(e.Value, "F") {
			return TypeFloat
		}
		return TypeDouble
	case LitChar:
		return TypeChar
	case LitString:
		return charPtr
	case LitBool:
		return TypeBool
	case LitNull:
		return voidPtr
	}
	return errorType
}

func (a *Analyzer) checkBinary(e *BinaryExpr) Type {
	left := a.checkExpr(e.Left)
	right := a.checkExpr(e.Right)

	switch e.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		// Mixed integer/float operands promote through commonType.
		if !IsNumeric(left) || !IsNumeric(right) {
			return a.errorAt(e, "invalid operands to %q (%s and %s)", e.Op.String(), left, right)
		}
		if e.Op == OpMod && (!IsInteger(left) || !IsInteger(right)) {
			return a.errorAt(e, "operands to %q must be integers", e.Op.String())
		}
		return commonType(left, right)
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		if !IsInteger(left) || !IsInteger(right) {
			return a.errorAt(e, "operands to %q must be integers (%s and %s)", e.Op.String(), left, right)
		}
		return commonType(left, right)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		if !compatible(left, right) && !(IsNumeric(left) && IsNumeric(right)) {
			return a.errorAt(e, "cannot compare %s with %s", left, right)
		}
		return TypeBool
	case OpLogicalAnd, OpLogicalOr:
		// Operands are boolean-converted at lowering time, so they must
		// be scalar.
		if !IsScalar(left) {
			a.errorAt(e.Left, "operand to %q must be scalar, got %s", e.Op.String(), left)
		}
		if !IsScalar(right) {
			a.errorAt(e.Right, "operand to %q must be scalar, got %s", e.Op.String(), right)
		}
		return TypeBool
	}
	return a.errorAt(e, "unsupported binary operator")
}

func (a *Analyzer) checkUnary(e *UnaryExpr) Type {
	operand := a.checkExpr(e.Operand)

	switch e.Op {
	case OpNeg:
		if !IsNumeric(operand) {
			return a.errorAt(e, "operand to unary '-' must be numeric, got %s", operand)
		}
		return operand
	case OpBitNot:
		if !IsInteger(operand) {
			return a.errorAt(e, "operand to '~' must be an integer, got %s", operand)
		}
		return operand
	case OpNot:
		if !IsScalar(operand) {
			return a.errorAt(e, "operand to '!' must be scalar, got %s", operand)
		}
		return TypeBool
	case OpPreInc, OpPreDec, OpPostInc, OpPostDec:
		if !IsNumeric(operand) && !IsPointer(operand) {
			return a.errorAt(e, "operand to %q must be numeric, got %s", e.Op.String(), operand)
		}
		if !isAssignTarget(e.Operand) {
			return a.errorAt(e, "operand to %q is not an lvalue", e.Op.String())
		}
		return operand
	case OpDeref:
		pt, ok := operand.(*PointerType)
		if !ok {
			return a.errorAt(e, "cannot dereference non-pointer type %s", operand)
		}
		return pt.Pointee
	case OpAddr:
		return NewPointerType(operand)
	}
	return a.errorAt(e, "unsupported unary operator")
}

func (a *Analyzer) checkAssign(e *AssignExpr) Type {
	target := a.checkExpr(e.Target)
	value := a.checkExpr(e.Value)
	if !compatible(target, value) {
		return a.errorAt(e, "cannot assign value of type %s to target of type %s", value, target)
	}
	if e.Override != nil {
		return e.Override
	}
	return target
}

// checkCall validates the call against the resolved signature:
// argument count (at least the fixed arity for variadic functions)
// and per-argument compatibility. The call's type is the declared
// return type.
func (a *Analyzer) checkCall(e *CallExpr) Type {
	calleeType := a.checkExpr(e.Callee)
	ft, ok := calleeType.(*FunctionType)
	if !ok {
		return a.errorAt(e, "called object is not a function (type %s)", calleeType)
	}
	return a.checkCallArgs(e, ft, e.Args, nil)
}

// checkMessage resolves the flattened selector as a function whose
// first parameter receives the message receiver.
func (a *Analyzer) checkMessage(e *MessageExpr) Type {
	sym, ok := a.symbols.Resolve(e.Selector)
	if !ok || sym.Kind != SymFunction {
		return a.errorAt(e, "undefined method %q", e.Selector)
	}
	ft, ok := sym.Type.(*FunctionType)
	if !ok {
		return a.errorAt(e, "%q is not callable", e.Selector)
	}
	return a.checkCallArgs(e, ft, e.Args, e.Receiver)
}

func (a *Analyzer) checkCallArgs(e Expr, ft *FunctionType, args []Expr, receiver Expr) Type {
	all := args
	if receiver != nil {
		all = append([]Expr{receiver}, args...)
	}
	if ft.Variadic {
		if len(all) < len(ft.Params) {
			return a.errorAt(e, "too few arguments: expected at least %d, got %d",
				len(ft.Params), len(all))
		}
	} else if len(all) != len(ft.Params) {
		return a.errorAt(e, "wrong number of arguments: expected %d, got %d",
			len(ft.Params), len(all))
	}
	for i, arg := range all {
		argType := a.checkExpr(arg)
		if i < len(ft.Params) && !compatible(ft.Params[i], argType) {
			line, col := arg.Pos()
			a.reporter.Errorf(line, col,
				"argument %d has type %s, expected %s", i+1, argType, ft.Params[i])
		}
	}
	return ft.Return
}

func (a *Analyzer) checkMember(e *MemberExpr) Type {
	objType := a.checkExpr(e.Object)
	st, ok := objType.(*StructType)
	if !ok {
		return a.errorAt(e, "member access on non-struct type %s", objType)
	}
	if !st.IsComplete() {
		return a.errorAt(e, "member access on incomplete struct %q", st.Name())
	}
	idx := st.FieldIndex(e.Field)
	if idx < 0 {
		return a.errorAt(e, "struct %q has no field %q", st.Name(), e.Field)
	}
	return st.Fields()[idx].Type
}

// checkSubscript requires an integer index and an array-or-pointer
// base. Bounds are not checked, statically or dynamically.
func (a *Analyzer) checkSubscript(e *SubscriptExpr) Type {
	baseType := a.checkExpr(e.Array)
	indexType := a.checkExpr(e.Index)
	if !IsInteger(indexType) {
		a.errorAt(e, "array index must be an integer, got %s", indexType)
	}
	switch t := baseType.(type) {
	case *ArrayType:
		return t.Elem
	case *PointerType:
		return t.Pointee
	}
	return a.errorAt(e, "cannot subscript value of type %s", baseType)
}

//
// Compatibility and promotion
//

// compatible implements the language's deliberately permissive rules:
// identical types, any two integer kinds, any two float kinds, and any
// pointer with void* in either direction. Looser than C by design.
func compatible(a, b Type) bool {
	if a.IsEqual(b) {
		return true
	}
	if IsInteger(a) && IsInteger(b) {
		return true
	}
	if IsFloat(a) && IsFloat(b) {
		return true
	}
	if IsPointer(a) && IsPointer(b) && (IsVoidPointer(a) || IsVoidPointer(b)) {
		return true
	}
	// A sized array satisfies an unsized array of the same element type;
	// unsized arrays only occur in parameter position, where arrays
	// decay to pointers anyway.
	if at, ok := a.(*ArrayType); ok {
		if bt, ok := b.(*ArrayType); ok {
			return at.Elem.IsEqual(bt.Elem) && (!at.Sized || !bt.Sized)
		}
	}
	return false
}

// commonType picks the result type of an arithmetic operation: the
// wider float wins outright, otherwise the wider integer rank
// (long > int > short > char); at equal rank an unsigned operand makes
// the result unsigned.
func commonType(a, b Type) Type {
	if a.Kind() == TypeDoubleKind || b.Kind() == TypeDoubleKind {
		return TypeDouble
	}
	if a.Kind() == TypeFloatKind || b.Kind() == TypeFloatKind {
		return TypeFloat
	}
	ra, rb := integerRank(a), integerRank(b)
	wider := a
	if rb > ra {
		wider = b
	} else if rb == ra && IsUnsigned(b) {
		wider = b
	}
	if IsUnsigned(a) || IsUnsigned(b) {
		switch wider.Kind() {
		case TypeCharKind:
			return TypeUChar
		case TypeShortKind:
			return TypeUShort
		case TypeIntKind, TypeEnumKind, TypeBoolKind:
			return TypeUInt
		case TypeLongKind:
			return TypeULong
		}
	}
	// Enum and bool operands promote to plain int.
	switch wider.Kind() {
	case TypeEnumKind, TypeBoolKind:
		return TypeInt
	}
	return wider
}
