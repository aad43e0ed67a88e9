package compiler

import (
	"io"
	"testing"
)

func parseUnit(t *testing.T, src string) (*CompilationUnit, *Reporter) {
	t.Helper()
	rep := NewReporter("test.ds")
	lex := NewLexer("test.ds", src, rep)
	lex.SetErrorWriter(io.Discard)
	return NewParser(lex, rep).Parse(), rep
}

// parseExpr parses a single expression by wrapping it in a function and
// pulling it back out of the only statement.
func parseExpr(t *testing.T, src string) Expr {
	t.Helper()
	unit, rep := parseUnit(t, "void f() { "+src+"; }")
	if rep.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, rep.Diagnostics())
	}
	fn := unit.Decls[0].(*FuncDecl)
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Stmts))
	}
	return fn.Body.Stmts[0].(*ExprStmt).Expr
}

// TestParsePrecedence checks operator binding through the AST's
// fully-parenthesized string form.
func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"x << 1 + 2", "(x << (1 + 2))"},
		{"1 < 2 == true", "((1 < 2) == true)"},
		{"a & b == c", "(a & (b == c))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"a = b = 1", "(a = (b = 1))"},
		{"-x * y", "((-x) * y)"},
		{"!a && b", "((!a) && b)"},
		{"*p++", "(*(p++))"},
		{"- -x", "(-(-x))"},
		{"a[i + 1]", "a[(i + 1)]"},
		{"p->x.y", "(*p).x.y"},
		{"f(1, 2)[0]", "f(1, 2)[0]"},
		{"(x) * y", "(x * y)"},
		{"(int)x * y", "((int)x * y)"},
		{"(float*)p", "(float*)p"},
		{"x += 2", "(x = (x + 2))"},
		{"n <<= 1", "(n = (n << 1))"},
		{"a.b -= c", "(a.b = (a.b - c))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseExpr(t, tt.input)
			if got := expr.String(); got != tt.expected {
				t.Errorf("parsed %q as %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseMessageSend(t *testing.T) {
	tests := []struct {
		input    string
		selector string
		argCount int
	}{
		{"[obj length]", "length", 0},
		{"[p setX: 3]", "setX", 1},
		{"[p moveX: 1 y: 2]", "moveX_y", 2},
		{"[p insert_at: v index: i]", "insert_at_index", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			msg, ok := parseExpr(t, tt.input).(*MessageExpr)
			if !ok {
				t.Fatalf("expected MessageExpr")
			}
			if msg.Selector != tt.selector {
				t.Errorf("selector = %q, want %q", msg.Selector, tt.selector)
			}
			if len(msg.Args) != tt.argCount {
				t.Errorf("args = %d, want %d", len(msg.Args), tt.argCount)
			}
		})
	}
}

func TestParseNestedMessage(t *testing.T) {
	msg, ok := parseExpr(t, "[[p clone] moveX: 1 y: 2]").(*MessageExpr)
	if !ok {
		t.Fatalf("expected MessageExpr")
	}
	inner, ok := msg.Receiver.(*MessageExpr)
	if !ok {
		t.Fatalf("receiver should be a nested MessageExpr, got %T", msg.Receiver)
	}
	if inner.Selector != "clone" {
		t.Errorf("inner selector = %q, want %q", inner.Selector, "clone")
	}
}

func TestParseStructDeclaration(t *testing.T) {
	unit, rep := parseUnit(t, `
struct Point {
	int x;
	int y;
	char tag;
};
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	decl := unit.Decls[0].(*StructDecl)
	if decl.Name != "Point" {
		t.Errorf("name = %q, want Point", decl.Name)
	}
	if !decl.Type.IsComplete() {
		t.Fatal("struct should be complete after definition")
	}
	if len(decl.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(decl.Fields))
	}
	if decl.Type.FieldIndex("tag") != 2 {
		t.Errorf("FieldIndex(tag) = %d, want 2", decl.Type.FieldIndex("tag"))
	}
}

// A forward declaration and a later definition must resolve to the same
// type object.
func TestParseStructForwardReference(t *testing.T) {
	unit, rep := parseUnit(t, `
struct Node;
struct Node* head;
struct Node { int value; struct Node* next; };
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	fwd := unit.Decls[0].(*StructDecl)
	vardecl := unit.Decls[1].(*VarDecl)
	def := unit.Decls[2].(*StructDecl)
	if fwd.Type != def.Type {
		t.Error("forward declaration and definition have distinct type objects")
	}
	pt := vardecl.Type.(*PointerType)
	if pt.Pointee.(*StructType) != def.Type {
		t.Error("pointer variable does not reference the shared struct type")
	}
	if !def.Type.IsComplete() {
		t.Error("struct should be complete after definition")
	}
}

func TestParseEnumDeclaration(t *testing.T) {
	unit, rep := parseUnit(t, `enum Color { RED, GREEN = 10, BLUE };`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	decl := unit.Decls[0].(*EnumDecl)
	want := []EnumValue{{"RED", 0}, {"GREEN", 10}, {"BLUE", 11}}
	if len(decl.Values) != len(want) {
		t.Fatalf("values = %v, want %v", decl.Values, want)
	}
	for i, w := range want {
		if decl.Values[i] != w {
			t.Errorf("member %d = %v, want %v", i, decl.Values[i], w)
		}
	}
}

func TestParseEnumNegativeAndNonLiteral(t *testing.T) {
	unit, rep := parseUnit(t, `enum E { A = -2, B, C = x };`)
	decl := unit.Decls[0].(*EnumDecl)
	want := []EnumValue{{"A", -2}, {"B", -1}, {"C", 0}}
	for i, w := range want {
		if decl.Values[i] != w {
			t.Errorf("member %d = %v, want %v", i, decl.Values[i], w)
		}
	}
	// "C = x" is not an integer literal: one diagnostic, value defaults.
	if rep.ErrorCount() != 1 {
		t.Errorf("error count = %d, want 1: %v", rep.ErrorCount(), rep.Diagnostics())
	}
}

func TestParseMethodDeclaration(t *testing.T) {
	unit, rep := parseUnit(t, `
void [struct Point*] moveX: int dx y: int dy {
	return;
}
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	decl := unit.Decls[0].(*MethodDecl)
	if decl.Name != "moveX_y" {
		t.Errorf("flattened name = %q, want moveX_y", decl.Name)
	}
	if len(decl.Params) != 2 || decl.Params[0].Name != "dx" || decl.Params[1].Name != "dy" {
		t.Errorf("params = %v", decl.Params)
	}
	recv, ok := decl.Receiver.(*PointerType)
	if !ok {
		t.Fatalf("receiver should be a pointer, got %T", decl.Receiver)
	}
	if _, ok := recv.Pointee.(*StructType); !ok {
		t.Errorf("receiver pointee should be a struct, got %T", recv.Pointee)
	}
}

func TestParseUnaryMethodDeclaration(t *testing.T) {
	unit, rep := parseUnit(t, `int [struct Point*] length { return 0; }`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	decl := unit.Decls[0].(*MethodDecl)
	if decl.Name != "length" || len(decl.Params) != 0 {
		t.Errorf("got name %q with %d params", decl.Name, len(decl.Params))
	}
}

func TestParseFunctionForms(t *testing.T) {
	unit, rep := parseUnit(t, `
int add(int a, int b);
int add(int a, int b) { return a + b; }
void log(char* fmt, ...);
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	fwd := unit.Decls[0].(*FuncDecl)
	def := unit.Decls[1].(*FuncDecl)
	variadic := unit.Decls[2].(*FuncDecl)
	if fwd.Body != nil {
		t.Error("forward declaration should have nil body")
	}
	if def.Body == nil {
		t.Error("definition should have a body")
	}
	if !variadic.Type.Variadic {
		t.Error("expected variadic function type")
	}
}

func TestParseArrayDeclarations(t *testing.T) {
	unit, rep := parseUnit(t, `
int buf[10];
void fill(int data[], int n) {}
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	buf := unit.Decls[0].(*VarDecl).Type.(*ArrayType)
	if !buf.Sized || buf.Count != 10 {
		t.Errorf("buf type = %v, want int[10]", buf)
	}
	param := unit.Decls[1].(*FuncDecl).Params[0].Type.(*ArrayType)
	if param.Sized {
		t.Errorf("parameter array should be unsized, got %v", param)
	}
}

func TestParseUnsignedTypes(t *testing.T) {
	unit, rep := parseUnit(t, `
unsigned int a;
unsigned char b;
unsigned c;
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	wants := []Type{TypeUInt, TypeUChar, TypeUInt}
	for i, w := range wants {
		got := unit.Decls[i].(*VarDecl).Type
		if !got.IsEqual(w) {
			t.Errorf("decl %d type = %v, want %v", i, got, w)
		}
	}
}

func TestParseUnsignedFloatRejected(t *testing.T) {
	_, rep := parseUnit(t, `unsigned float x;`)
	if rep.ErrorCount() == 0 {
		t.Fatal("expected an error for unsigned float")
	}
}

// Two independent syntax errors in one block must each be reported:
// recovery resumes at the statement boundary after the first.
func TestParseRecoveryWithinBlock(t *testing.T) {
	unit, rep := parseUnit(t, `
int main() {
	int x = ;
	x = 1;
	int y = *;
	return x;
}
`)
	if rep.ErrorCount() != 2 {
		t.Fatalf("error count = %d, want 2: %v", rep.ErrorCount(), rep.Diagnostics())
	}
	fn := unit.Decls[0].(*FuncDecl)
	// The two well-formed statements survive.
	if len(fn.Body.Stmts) != 2 {
		t.Errorf("surviving statements = %d, want 2", len(fn.Body.Stmts))
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, rep := parseUnit(t, `
void f() {
	1 = 2;
}
`)
	if rep.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1: %v", rep.ErrorCount(), rep.Diagnostics())
	}
	if rep.Diagnostics()[0].Message != "invalid assignment target" {
		t.Errorf("unexpected message %q", rep.Diagnostics()[0].Message)
	}
}

func TestParseTopLevelRecovery(t *testing.T) {
	unit, rep := parseUnit(t, `
$$$
int ok() { return 1; }
`)
	if !rep.HasErrors() {
		t.Fatal("expected errors for garbage at top level")
	}
	found := false
	for _, d := range unit.Decls {
		if fn, ok := d.(*FuncDecl); ok && fn.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("declaration after garbage was not recovered")
	}
}

// A stray closing brace between declarations is reported once and
// skipped; parsing continues with the next declaration.
func TestParseTopLevelStrayBrace(t *testing.T) {
	unit, rep := parseUnit(t, `
int f() { return 0; }
}
int g() { return 1; }
`)
	if rep.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1: %v", rep.ErrorCount(), rep.Diagnostics())
	}
	if len(unit.Decls) != 2 {
		t.Fatalf("declarations = %d, want 2", len(unit.Decls))
	}
	if name := unit.Decls[1].(*FuncDecl).Name; name != "g" {
		t.Errorf("second declaration = %q, want g", name)
	}
}

func TestParseForLoopForms(t *testing.T) {
	unit, rep := parseUnit(t, `
void f() {
	for (int i = 0; i < 10; i++) {}
	for (;;) { break; }
}
`)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	fn := unit.Decls[0].(*FuncDecl)
	full := fn.Body.Stmts[0].(*ForStmt)
	if full.Init == nil || full.Cond == nil || full.Inc == nil {
		t.Error("full for loop should have all three clauses")
	}
	empty := fn.Body.Stmts[1].(*ForStmt)
	if empty.Init != nil || empty.Cond != nil || empty.Inc != nil {
		t.Error("for(;;) should have no clauses")
	}
}
