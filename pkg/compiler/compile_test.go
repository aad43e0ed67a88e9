package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompileEndToEnd(t *testing.T) {
	module, rep := Compile("prog.ds", `
int fib(int n) {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
`, Options{})
	if module == nil {
		t.Fatalf("compile failed: %v", rep.Diagnostics())
	}
	code := module.String()
	if !strings.Contains(code, "define i32 @fib(i32 %n)") {
		t.Errorf("missing fib definition:\n%s", code)
	}
	if !strings.Contains(code, "call i32 @fib(i32") {
		t.Errorf("missing recursive call:\n%s", code)
	}
}

// All diagnostics from every stage land in one reporter, in source
// order, and the summary line reflects the totals.
func TestCompileDiagnosticOutput(t *testing.T) {
	_, rep := Compile("prog.ds", `
void f() {
	int x = ;
	y = 1;
}
`, Options{})
	if rep.ErrorCount() != 2 {
		t.Fatalf("error count = %d, want 2: %v", rep.ErrorCount(), rep.Diagnostics())
	}

	var buf bytes.Buffer
	rep.Print(&buf)
	out := buf.String()
	if !strings.Contains(out, "prog.ds:3:") {
		t.Errorf("first diagnostic missing position:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "2 error(s) generated.") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

func TestCompileVerboseLog(t *testing.T) {
	var log bytes.Buffer
	module, _ := Compile("prog.ds", `int main() { return 0; }`, Options{Verbose: true, Log: &log})
	if module == nil {
		t.Fatal("compile failed")
	}
	out := log.String()
	for _, want := range []string{"parsed prog.ds", "analyzed prog.ds", "generated"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose log missing %q:\n%s", want, out)
		}
	}
}

// A lexical error flows through the same reporter as later stages and
// suppresses code generation.
func TestCompileLexicalError(t *testing.T) {
	module, rep := Compile("prog.ds", `void f() { int x = 1 @ 2; }`, Options{})
	if module != nil {
		t.Fatal("module should be nil")
	}
	found := false
	for _, d := range rep.Diagnostics() {
		if strings.Contains(d.Message, "unexpected character") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing lexer diagnostic: %v", rep.Diagnostics())
	}
}
