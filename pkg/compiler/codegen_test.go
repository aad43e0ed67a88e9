package compiler

import (
	"strings"
	"testing"

	"dscc/pkg/ir"
)

// compileModule runs the full pipeline and fails the test on any
// diagnostic.
func compileModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	module, rep := Compile("test.ds", src, Options{})
	if module == nil {
		t.Fatalf("compile failed: %v", rep.Diagnostics())
	}
	return module
}

func compileIR(t *testing.T, src string) string {
	t.Helper()
	return compileModule(t, src).String()
}

func wantIR(t *testing.T, got string, substrs ...string) {
	t.Helper()
	for _, s := range substrs {
		if !strings.Contains(got, s) {
			t.Errorf("generated IR missing %q:\n%s", s, got)
		}
	}
}

func TestGenArithmetic(t *testing.T) {
	code := compileIR(t, `
int calc(int a, int b) {
	return a * b + a / b - a % b;
}
`)
	wantIR(t, code,
		"define i32 @calc(i32 %a, i32 %b)",
		"mul i32", "sdiv i32", "srem i32", "add i32", "sub i32",
		"ret i32",
	)
}

func TestGenUnsignedOperations(t *testing.T) {
	code := compileIR(t, `
unsigned int f(unsigned int a, unsigned int b) {
	unsigned int q = a / b;
	unsigned int r = a % b;
	unsigned int s = a >> 2;
	bool lt = a < b;
	return q;
}
`)
	wantIR(t, code, "udiv i32", "urem i32", "lshr i32", "icmp ult i32")
	if strings.Contains(code, "sdiv") || strings.Contains(code, "ashr") {
		t.Errorf("unsigned arithmetic used signed instructions:\n%s", code)
	}
}

func TestGenFloatOperations(t *testing.T) {
	code := compileIR(t, `
double f(double a, double b) {
	bool c = a < b;
	return a * b + a;
}
`)
	wantIR(t, code, "fmul double", "fadd double", "fcmp olt double", "ret double")
}

// Mixed-type arithmetic converts both operands up to the common type
// before the operation.
func TestGenImplicitPromotion(t *testing.T) {
	code := compileIR(t, `
double f(int n, double d) {
	return n + d;
}
`)
	wantIR(t, code, "sitofp i32", "fadd double")
}

func TestGenImplicitReturn(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Void", `void f() { int x = 1; }`, "ret void"},
		{"Int Zero", `int f() { int x = 1; }`, "ret i32 0"},
		{"Double Zero", `double f() { }`, "ret double 0.0"},
		{"Pointer Null", `int* f() { }`, "ret ptr null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantIR(t, compileIR(t, tt.src), tt.want)
		})
	}
}

// && evaluates its right side in a separate block reached by one
// conditional branch, and merges through a phi.
func TestGenShortCircuitAnd(t *testing.T) {
	module := compileModule(t, `
bool f(int a, int b) {
	return a != 0 && b != 0;
}
`)
	fn := module.Func("f")
	if fn == nil {
		t.Fatal("function f not generated")
	}
	var names []string
	for _, b := range fn.Blocks {
		names = append(names, b.Name())
	}
	want := []string{"entry", "and.rhs", "and.end"}
	if len(names) != len(want) {
		t.Fatalf("blocks = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("blocks = %v, want %v", names, want)
		}
	}

	code := module.String()
	wantIR(t, code, "br i1", "phi i1 [ 0, %entry ]")
}

func TestGenShortCircuitOr(t *testing.T) {
	code := compileIR(t, `
bool f(int a, int b) {
	return a != 0 || b != 0;
}
`)
	wantIR(t, code, "or.rhs", "or.end", "phi i1 [ 1, %entry ]")
}

// Conditions are boolean-converted by type: integers compare against
// zero, pointers against null.
func TestGenConditionConversion(t *testing.T) {
	code := compileIR(t, `
void f(int n, int* p) {
	if (n) { putchar(49); }
	while (p) { break; }
}
`)
	wantIR(t, code, "icmp ne i32", "icmp ne ptr")
}

func TestGenIfElseShape(t *testing.T) {
	code := compileIR(t, `
int f(int n) {
	if (n > 0) {
		return 1;
	} else {
		return 2;
	}
}
`)
	wantIR(t, code, "then:", "else:", "icmp sgt i32", "ret i32 1", "ret i32 2")
}

func TestGenWhileLoop(t *testing.T) {
	code := compileIR(t, `
int sum(int n) {
	int total = 0;
	while (n > 0) {
		total = total + n;
		n = n - 1;
	}
	return total;
}
`)
	wantIR(t, code,
		"br label %while.cond",
		"while.body:",
		"while.end:",
		"icmp sgt i32",
	)
}

func TestGenForLoopWithBreakContinue(t *testing.T) {
	code := compileIR(t, `
int f() {
	int total = 0;
	for (int i = 0; i < 10; i++) {
		if (i == 3) { continue; }
		if (i == 7) { break; }
		total = total + i;
	}
	return total;
}
`)
	wantIR(t, code, "for.cond", "for.body", "for.inc", "for.end")
}

func TestGenStringLiteral(t *testing.T) {
	code := compileIR(t, `
void f() {
	puts("hi");
}
`)
	wantIR(t, code,
		`@.str0 = private constant [3 x i8] c"hi\00"`,
		"call i32 @puts(ptr @.str0)",
	)
}

// Identical string literals share one interned global.
func TestGenStringInterning(t *testing.T) {
	code := compileIR(t, `
void f() {
	puts("x");
	puts("x");
}
`)
	if strings.Contains(code, "@.str1") {
		t.Errorf("duplicate literal was not interned:\n%s", code)
	}
}

// Enum members lower to read-only globals, and every use site
// substitutes the constant directly.
func TestGenEnumConstants(t *testing.T) {
	code := compileIR(t, `
enum Color { RED, GREEN = 10, BLUE };

int f() {
	return BLUE;
}
`)
	wantIR(t, code,
		"@Color.RED = constant i32 0",
		"@Color.GREEN = constant i32 10",
		"@Color.BLUE = constant i32 11",
		"ret i32 11",
	)
}

func TestGenStructAccess(t *testing.T) {
	code := compileIR(t, `
struct Point { int x; int y; };

int f() {
	struct Point p;
	p.y = 5;
	return p.y;
}
`)
	wantIR(t, code,
		"%Point = type { i32, i32 }",
		"alloca %Point",
		"getelementptr %Point",
		"store i32 5",
	)
}

func TestGenMethodAndMessage(t *testing.T) {
	code := compileIR(t, `
struct Point { int x; int y; };

void [struct Point*] moveX: int dx y: int dy {
	self->x = self->x + dx;
	self->y = self->y + dy;
}

void f(struct Point* p) {
	[p moveX: 1 y: 2];
}
`)
	wantIR(t, code,
		"define void @moveX_y(ptr %self, i32 %dx, i32 %dy)",
		"call void @moveX_y(ptr",
	)
}

func TestGenPointerOperations(t *testing.T) {
	code := compileIR(t, `
int f(int* p) {
	*p = 41;
	int v = *p;
	int* q = &v;
	return *q;
}
`)
	wantIR(t, code, "store i32 41", "load i32, ptr")
}

func TestGenSubscript(t *testing.T) {
	code := compileIR(t, `
int f() {
	int buf[4];
	buf[2] = 9;
	return buf[2];
}
`)
	wantIR(t, code, "alloca [4 x i32]", "getelementptr i32", "store i32 9")
}

func TestGenCasts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Int To Double", `double f(int x) { return (double)x; }`, "sitofp i32"},
		{"Double To Int", `int f(double x) { return (int)x; }`, "fptosi double"},
		{"Int To Long", `long f(int x) { return (long)x; }`, "sext i32"},
		{"Unsigned Widening", `long f(unsigned int x) { return (long)x; }`, "zext i32"},
		{"Long To Int", `int f(long x) { return (int)x; }`, "trunc i64"},
		{"Float To Double", `double f(float x) { return (double)x; }`, "fpext float"},
		{"Int To Pointer", `int* f(long x) { return (int*)x; }`, "inttoptr i64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantIR(t, compileIR(t, tt.src), tt.want)
		})
	}
}

// x++ yields the value before the increment; the new value is stored.
func TestGenPostIncrement(t *testing.T) {
	code := compileIR(t, `
int f() {
	int x = 5;
	int old = x++;
	return old;
}
`)
	wantIR(t, code, "add i32", "store i32")
}

func TestGenGlobalVariables(t *testing.T) {
	code := compileIR(t, `
int counter = 42;
int uninitialized;

int f() {
	counter = counter + 1;
	return counter;
}
`)
	wantIR(t, code,
		"@counter = global i32 42",
		"@uninitialized = global i32 zeroinitializer",
		"load i32, ptr @counter",
	)
}

// A global initializer may name an enum member declared later in the
// file.
func TestGenGlobalEnumInitializer(t *testing.T) {
	code := compileIR(t, `
int first = GREEN;

enum Color { RED, GREEN = 10 };
`)
	wantIR(t, code, "@first = global i32 10")
}

// Array arguments decay to the element pointer at the call boundary,
// and an array parameter is indexed through that pointer.
func TestGenArrayArgumentDecay(t *testing.T) {
	code := compileIR(t, `
int sum(int values[], int n) {
	return values[0] + n;
}

int f() {
	int buf[4];
	return sum(buf, 4);
}
`)
	wantIR(t, code,
		"define i32 @sum(ptr %values, i32 %n)",
		"call i32 @sum(ptr",
	)
}

func TestGenRuntimeDeclarations(t *testing.T) {
	code := compileIR(t, `
void f() {
	void* p = malloc(8);
	free(p);
}
`)
	wantIR(t, code, "declare ptr @malloc", "declare void @free", "call ptr @malloc(i64")
}

// Nothing is generated when the front end reported errors.
func TestGenSkippedOnErrors(t *testing.T) {
	module, rep := Compile("test.ds", `void f() { undeclared = 1; }`, Options{})
	if module != nil {
		t.Fatal("module should be nil after semantic errors")
	}
	if !rep.HasErrors() {
		t.Fatal("expected errors")
	}
}

// Every generated function passes structural verification; spot-check
// a function with dense control flow.
func TestGenVerifiedControlFlow(t *testing.T) {
	module := compileModule(t, `
int f(int n) {
	int total = 0;
	for (int i = 0; i < n; i++) {
		if (i % 2 == 0 && i != 4) {
			total = total + i;
		} else {
			total = total - 1;
		}
		while (total > 100) { total = total / 2; }
	}
	return total;
}
`)
	if err := ir.VerifyFunction(module.Func("f")); err != nil {
		t.Fatalf("verification failed: %v", err)
	}
}
