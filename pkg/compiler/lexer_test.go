package compiler

import (
	"io"
	"reflect"
	"testing"
)

// lexAll scans src to end of input, returning every token including the
// END_OF_FILE sentinel and the reporter that accumulated any errors.
func lexAll(t *testing.T, src string) ([]Token, *Reporter) {
	t.Helper()
	rep := NewReporter("test.ds")
	lex := NewLexer("test.ds", src, rep)
	lex.SetErrorWriter(io.Discard)
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == END_OF_FILE {
			return toks, rep
		}
	}
}

type tokenShape struct {
	Kind   TokenKind
	Lexeme string
}

func shapes(toks []Token) []tokenShape {
	out := make([]tokenShape, 0, len(toks)-1)
	for _, tok := range toks {
		if tok.Kind == END_OF_FILE {
			break
		}
		out = append(out, tokenShape{tok.Kind, tok.Lexeme})
	}
	return out
}

func TestLexTokenStreams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenShape
	}{
		{
			name:  "Operators",
			input: "+ - * / % & | ^ ~ ! = < > == != <= >= << >> && ||",
			expected: []tokenShape{
				{PLUS, "+"}, {MINUS, "-"}, {STAR, "*"}, {SLASH, "/"}, {PERCENT, "%"},
				{AMP, "&"}, {PIPE, "|"}, {CARET, "^"}, {TILDE, "~"}, {BANG, "!"},
				{EQUAL, "="}, {LESS, "<"}, {GREATER, ">"},
				{EQUAL_EQUAL, "=="}, {BANG_EQUAL, "!="}, {LESS_EQUAL, "<="}, {GREATER_EQUAL, ">="},
				{LESS_LESS, "<<"}, {GREATER_GREATER, ">>"}, {AMP_AMP, "&&"}, {PIPE_PIPE, "||"},
			},
		},
		{
			name:  "Compound Assignment",
			input: "+= -= *= /= %= &= |= ^= <<= >>=",
			expected: []tokenShape{
				{PLUS_EQUAL, "+="}, {MINUS_EQUAL, "-="}, {STAR_EQUAL, "*="},
				{SLASH_EQUAL, "/="}, {PERCENT_EQUAL, "%="}, {AMP_EQUAL, "&="},
				{PIPE_EQUAL, "|="}, {CARET_EQUAL, "^="},
				{LESS_LESS_EQUAL, "<<="}, {GREATER_GREATER_EQUAL, ">>="},
			},
		},
		{
			name:  "Maximal Munch",
			input: "a<<=b a<<b a<=b a<b x-->y x- ->y",
			expected: []tokenShape{
				{IDENTIFIER, "a"}, {LESS_LESS_EQUAL, "<<="}, {IDENTIFIER, "b"},
				{IDENTIFIER, "a"}, {LESS_LESS, "<<"}, {IDENTIFIER, "b"},
				{IDENTIFIER, "a"}, {LESS_EQUAL, "<="}, {IDENTIFIER, "b"},
				{IDENTIFIER, "a"}, {LESS, "<"}, {IDENTIFIER, "b"},
				{IDENTIFIER, "x"}, {MINUS_MINUS, "--"}, {GREATER, ">"}, {IDENTIFIER, "y"},
				{IDENTIFIER, "x"}, {MINUS, "-"}, {ARROW, "->"}, {IDENTIFIER, "y"},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "int if else while for return structName _under_score do const",
			expected: []tokenShape{
				{KW_INT, "int"}, {KW_IF, "if"}, {KW_ELSE, "else"},
				{KW_WHILE, "while"}, {KW_FOR, "for"}, {KW_RETURN, "return"},
				{IDENTIFIER, "structName"}, {IDENTIFIER, "_under_score"},
				{KW_DO, "do"}, {KW_CONST, "const"},
			},
		},
		{
			name:  "Literal Keywords",
			input: "true false null",
			expected: []tokenShape{
				{KW_TRUE, "true"}, {KW_FALSE, "false"}, {KW_NULL, "null"},
			},
		},
		{
			name:  "Integers",
			input: "123 0 0x1A 0Xff",
			expected: []tokenShape{
				{INT_LITERAL, "123"}, {INT_LITERAL, "0"},
				{INT_LITERAL, "0x1A"}, {INT_LITERAL, "0Xff"},
			},
		},
		{
			name:  "Floats",
			input: "1.5 0.25 2e10 3.5e-2 1.0f 2f",
			expected: []tokenShape{
				{FLOAT_LITERAL, "1.5"}, {FLOAT_LITERAL, "0.25"},
				{FLOAT_LITERAL, "2e10"}, {FLOAT_LITERAL, "3.5e-2"},
				{FLOAT_LITERAL, "1.0f"}, {FLOAT_LITERAL, "2f"},
			},
		},
		{
			name:  "Member Access Is Not A Float",
			input: "p.x",
			expected: []tokenShape{
				{IDENTIFIER, "p"}, {DOT, "."}, {IDENTIFIER, "x"},
			},
		},
		{
			name:  "Comments",
			input: "x // line comment\n y /* block */ z",
			expected: []tokenShape{
				{IDENTIFIER, "x"}, {IDENTIFIER, "y"}, {IDENTIFIER, "z"},
			},
		},
		{
			name:  "Message Send",
			input: "[p setX: 3]",
			expected: []tokenShape{
				{LEFT_BRACKET, "["}, {IDENTIFIER, "p"}, {IDENTIFIER, "setX"},
				{COLON, ":"}, {INT_LITERAL, "3"}, {RIGHT_BRACKET, "]"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, rep := lexAll(t, tt.input)
			if rep.HasErrors() {
				t.Fatalf("unexpected errors: %v", rep.Diagnostics())
			}
			got := shapes(toks)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("tokens mismatch\ngot:  %v\nwant: %v", got, tt.expected)
			}
		})
	}
}

func TestLexStringAndCharValues(t *testing.T) {
	toks, rep := lexAll(t, `"hello\n" "tab\t" 'a' '\n' '\\'`)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	want := []string{"hello\n", "tab\t", "a", "\n", "\\"}
	for i, w := range want {
		if toks[i].Value != w {
			t.Errorf("token %d: Value = %q, want %q", i, toks[i].Value, w)
		}
	}
}

// Float suffixes are preserved in the lexeme but stripped from the
// interpreted value.
func TestLexFloatSuffixStripped(t *testing.T) {
	toks, _ := lexAll(t, "1.5f")
	if toks[0].Lexeme != "1.5f" || toks[0].Value != "1.5" {
		t.Errorf("got lexeme %q value %q, want lexeme \"1.5f\" value \"1.5\"", toks[0].Lexeme, toks[0].Value)
	}
}

func TestLexPositions(t *testing.T) {
	toks, _ := lexAll(t, "int x;\n  y = 1;")
	want := []struct {
		line, col int
	}{
		{1, 1}, {1, 5}, {1, 6},
		{2, 3}, {2, 5}, {2, 7}, {2, 8},
	}
	for i, w := range want {
		if toks[i].Line != w.line || toks[i].Column != w.col {
			t.Errorf("token %d (%s): at %d:%d, want %d:%d",
				i, toks[i].Kind, toks[i].Line, toks[i].Column, w.line, w.col)
		}
	}
}

// Malformed input is reported but never aborts the scan: every error
// case below still reaches END_OF_FILE and produces later tokens.
func TestLexErrorRecovery(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErrors int
		wantAfter  TokenKind // a token that must still appear after the error
	}{
		{"Unexpected Character", "@ x", 1, IDENTIFIER},
		{"Unterminated String", "\"abc\n x", 1, IDENTIFIER},
		{"Empty Char", "'' x", 1, IDENTIFIER},
		{"Unknown Escape", `"a\q" x`, 1, IDENTIFIER},
		{"Unterminated Block Comment", "/* start", 1, END_OF_FILE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, rep := lexAll(t, tt.input)
			if rep.ErrorCount() != tt.wantErrors {
				t.Errorf("error count = %d, want %d: %v",
					rep.ErrorCount(), tt.wantErrors, rep.Diagnostics())
			}
			found := false
			for _, tok := range toks {
				if tok.Kind == tt.wantAfter {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("token %v not found after error; got %v", tt.wantAfter, toks)
			}
		})
	}
}

// The lexer keeps handing back the sentinel once input is exhausted.
func TestLexStableEOF(t *testing.T) {
	rep := NewReporter("test.ds")
	lex := NewLexer("test.ds", "x", rep)
	lex.Next()
	for i := 0; i < 3; i++ {
		if tok := lex.Next(); tok.Kind != END_OF_FILE {
			t.Fatalf("call %d after exhaustion: got %v, want END_OF_FILE", i, tok.Kind)
		}
	}
}
