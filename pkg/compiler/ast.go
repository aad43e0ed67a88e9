package compiler

import (
	"fmt"
	"strings"
)

// The AST is a closed set of node kinds in three families: Expr, Stmt,
// and Decl. Consumers (sema, codegen) dispatch with exhaustive type
// switches; adding a node kind means updating every switch.

// Expr is an expression node. Its type is nil until semantic analysis
// resolves it.
type Expr interface {
	exprNode()
	Type() Type
	SetType(Type)
	Pos() (line, col int)
	String() string
}

// Stmt is a statement node; statements carry no type.
type Stmt interface {
	stmtNode()
}

// Decl is a declaration node carrying a name and a type.
type Decl interface {
	declNode()
	DeclName() string
}

// exprBase supplies the type slot and source position common to all
// expression nodes.
type exprBase struct {
	typ    Type
	Line   int
	Column int
}

func (e *exprBase) exprNode()            {}
func (e *exprBase) Type() Type           { return e.typ }
func (e *exprBase) SetType(t Type)       { e.typ = t }
func (e *exprBase) Pos() (line, col int) { return e.Line, e.Column }

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd        BinaryOp = iota // +
	OpSub                        // -
	OpMul                        // *
	OpDiv                        // /
	OpMod                        // %
	OpBitAnd                     // &
	OpBitOr                      // |
	OpBitXor                     // ^
	OpShl                        // <<
	OpShr                        // >>
	OpEq                         // ==
	OpNe                         // !=
	OpLt                         // <
	OpLe                         // <=
	OpGt                         // >
	OpGe                         // >=
	OpLogicalAnd                 // &&
	OpLogicalOr                  // ||
)

var binaryOpNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpLogicalAnd: "&&", OpLogicalOr: "||",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// UnaryOp enumerates unary operators, including the four
// increment/decrement forms.
type UnaryOp int

const (
	OpNeg     UnaryOp = iota // -x
	OpNot                    // !x
	OpBitNot                 // ~x
	OpDeref                  // *x
	OpAddr                   // &x
	OpPreInc                 // ++x
	OpPreDec                 // --x
	OpPostInc                // x++
	OpPostDec                // x--
)

var unaryOpNames = [...]string{
	OpNeg: "-", OpNot: "!", OpBitNot: "~", OpDeref: "*", OpAddr: "&",
	OpPreInc: "++", OpPreDec: "--", OpPostInc: "++", OpPostDec: "--",
}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// LiteralKind enumerates literal expression variants.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitBool
	LitNull
)

//
// Expressions
//

type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// LiteralExpr carries the interpreted text of the literal: for LitChar
// the processed character, for LitString the escape-processed contents.
type LiteralExpr struct {
	exprBase
	LitKind LiteralKind
	Value   string
}

type VarExpr struct {
	exprBase
	Name string
}

// AssignExpr's type is the target's type unless Override was supplied
// at construction.
type AssignExpr struct {
	exprBase
	Target   Expr
	Value    Expr
	Override Type
}

type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// MessageExpr is the bracketed send form. Selector is already the
// underscore-flattened name; the receiver becomes the callee's first
// argument at lowering time. No dynamic dispatch is involved.
type MessageExpr struct {
	exprBase
	Receiver Expr
	Selector string
	Args     []Expr
}

type MemberExpr struct {
	exprBase
	Object Expr
	Field  string
}

type SubscriptExpr struct {
	exprBase
	Array Expr
	Index Expr
}

type CastExpr struct {
	exprBase
	TargetType Type
	Operand    Expr
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *UnaryExpr) String() string {
	switch e.Op {
	case OpPostInc, OpPostDec:
		return fmt.Sprintf("(%s%s)", e.Operand, e.Op)
	}
	return fmt.Sprintf("(%s%s)", e.Op, e.Operand)
}

func (e *LiteralExpr) String() string {
	switch e.LitKind {
	case LitString:
		return fmt.Sprintf("%q", e.Value)
	case LitChar:
		return fmt.Sprintf("'%s'", e.Value)
	}
	return e.Value
}

func (e *VarExpr) String() string { return e.Name }

func (e *AssignExpr) String() string {
	return fmt.Sprintf("(%s = %s)", e.Target, e.Value)
}

func (e *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", e.Callee, exprList(e.Args))
}

func (e *MessageExpr) String() string {
	return fmt.Sprintf("[%s %s(%s)]", e.Receiver, e.Selector, exprList(e.Args))
}

func (e *MemberExpr) String() string {
	return fmt.Sprintf("%s.%s", e.Object, e.Field)
}

func (e *SubscriptExpr) String() string {
	return fmt.Sprintf("%s[%s]", e.Array, e.Index)
}

func (e *CastExpr) String() string {
	return fmt.Sprintf("(%s)%s", e.TargetType, e.Operand)
}

func exprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

//
// Statements
//

type ExprStmt struct {
	Expr Expr
}

type BlockStmt struct {
	Stmts []Stmt
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
}

// ForStmt: Init, Cond, and Inc may each be nil.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Inc  Expr
	Body Stmt
}

type BreakStmt struct {
	Line   int
	Column int
}

type ContinueStmt struct {
	Line   int
	Column int
}

type ReturnStmt struct {
	Expr   Expr // nil for a bare return
	Line   int
	Column int
}

type DeclStmt struct {
	Decl Decl
}

func (*ExprStmt) stmtNode()     {}
func (*BlockStmt) stmtNode()    {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*DeclStmt) stmtNode()     {}

//
// Declarations
//

type VarDecl struct {
	Name   string
	Type   Type
	Init   Expr // may be nil
	Line   int
	Column int
}

type ParamDecl struct {
	Name   string
	Type   Type
	Line   int
	Column int
}

// FuncDecl with a nil Body is a forward declaration.
type FuncDecl struct {
	Name   string
	Type   *FunctionType
	Params []*ParamDecl
	Body   *BlockStmt
	Line   int
	Column int
}

// MethodDecl's Name is the selector already flattened at parse time
// (colon-separated parts joined with underscores). The receiver is
// prepended as a synthetic first parameter when lowering.
type MethodDecl struct {
	Name     string
	Type     *FunctionType
	Receiver Type
	Params   []*ParamDecl
	Body     *BlockStmt
	Line     int
	Column   int
}

// StructDecl with no fields and no body is a forward declaration; its
// Type stays incomplete.
type StructDecl struct {
	Name   string
	Type   *StructType
	Fields []StructField
	Line   int
	Column int
}

type EnumDecl struct {
	Name   string
	Type   *EnumType
	Base   Type
	Values []EnumValue
	Line   int
	Column int
}

func (*VarDecl) declNode()    {}
func (*ParamDecl) declNode()  {}
func (*FuncDecl) declNode()   {}
func (*MethodDecl) declNode() {}
func (*StructDecl) declNode() {}
func (*EnumDecl) declNode()   {}

func (d *VarDecl) DeclName() string    { return d.Name }
func (d *ParamDecl) DeclName() string  { return d.Name }
func (d *FuncDecl) DeclName() string   { return d.Name }
func (d *MethodDecl) DeclName() string { return d.Name }
func (d *StructDecl) DeclName() string { return d.Name }
func (d *EnumDecl) DeclName() string   { return d.Name }

// CompilationUnit is the root of one parsed source file.
type CompilationUnit struct {
	Filename string
	Decls    []Decl
}
