package compiler

import (
	"fmt"
	"io"
	"os"
)

// keywords maps source text to its keyword TokenKind.
var keywords = map[string]TokenKind{
	"if":       KW_IF,
	"else":     KW_ELSE,
	"while":    KW_WHILE,
	"for":      KW_FOR,
	"do":       KW_DO,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"return":   KW_RETURN,
	"void":     KW_VOID,
	"bool":     KW_BOOL,
	"char":     KW_CHAR,
	"short":    KW_SHORT,
	"int":      KW_INT,
	"long":     KW_LONG,
	"float":    KW_FLOAT,
	"double":   KW_DOUBLE,
	"unsigned": KW_UNSIGNED,
	"struct":   KW_STRUCT,
	"enum":     KW_ENUM,
	"const":    KW_CONST,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
	"null":     KW_NULL,
}

// Lexer holds all mutable state for a single scanning pass over src.
// It provides exactly one token of lookahead via Peek.
type Lexer struct {
	file      string
	src       []byte
	pos       int // index of the next byte to consume
	line      int // current 1-based source line
	col       int // current 1-based source column
	lineStart int // index of the first byte of the current line

	peeked   *Token
	reporter *Reporter
	errw     io.Writer
}

// NewLexer creates a lexer over src. Lexical errors are recorded in rep
// and printed with a caret pointer; scanning always continues to end of input.
func NewLexer(file, src string, rep *Reporter) *Lexer {
	return &Lexer{
		file:     file,
		src:      []byte(src),
		line:     1,
		col:      1,
		reporter: rep,
		errw:     os.Stderr,
	}
}

// SetErrorWriter redirects the caret error printout (stderr by default).
func (l *Lexer) SetErrorWriter(w io.Writer) { l.errw = w }

// Filename returns the name of the file being lexed.
func (l *Lexer) Filename() string { return l.file }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

// Next consumes and returns the next token. After end of input it
// keeps returning the END_OF_FILE sentinel.
func (l *Lexer) Next() Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.scan()
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByte2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
		l.lineStart = l.pos
	} else {
		l.col++
	}
	return b
}

// match consumes the next byte and returns true if it equals b.
func (l *Lexer) match(b byte) bool {
	if l.peekByte() != b {
		return false
	}
	l.advance()
	return true
}

// currentLineText returns the text of the line containing index pos.
func (l *Lexer) currentLineText(start int) string {
	end := start
	for end < len(l.src) && l.src[end] != '\n' {
		end++
	}
	return string(l.src[start:end])
}

// errorAt records a lexical error and prints the offending line with a
// caret under the given column. Lexing never aborts on malformed input.
func (l *Lexer) errorAt(line, col, lineStart int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.reporter.Error(line, col, msg)
	fmt.Fprintf(l.errw, "%s:%d:%d: error: %s\n", l.file, line, col, msg)
	text := l.currentLineText(lineStart)
	fmt.Fprintln(l.errw, text)
	for i := 1; i < col; i++ {
		fmt.Fprint(l.errw, " ")
	}
	fmt.Fprintln(l.errw, "^")
}

func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// skipTrivia discards whitespace and both comment styles.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		switch b := l.peekByte(); {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekByte2() == '/':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		case b == '/' && l.peekByte2() == '*':
			startLine, startCol, startLS := l.line, l.col, l.lineStart
			l.advance() // /
			l.advance() // *
			closed := false
			for l.pos < len(l.src) {
				if l.peekByte() == '*' && l.peekByte2() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				l.errorAt(startLine, startCol, startLS, "unterminated block comment")
			}
		default:
			return
		}
	}
}

// scan produces the next token from the input.
func (l *Lexer) scan() Token {
	l.skipTrivia()

	line, col, lineStart := l.line, l.col, l.lineStart
	if l.pos >= len(l.src) {
		return Token{Kind: END_OF_FILE, Line: line, Column: col}
	}

	b := l.peekByte()
	switch {
	case isAlpha(b):
		return l.scanIdent(line, col)
	case isDigit(b):
		return l.scanNumber(line, col)
	case b == '"':
		return l.scanString(line, col, lineStart)
	case b == '\'':
		return l.scanChar(line, col, lineStart)
	}

	l.advance()
	mk := func(kind TokenKind, lexeme string) Token {
		return Token{Kind: kind, Lexeme: lexeme, Value: lexeme, Line: line, Column: col}
	}

	switch b {
	case '(':
		return mk(LEFT_PAREN, "(")
	case ')':
		return mk(RIGHT_PAREN, ")")
	case '[':
		return mk(LEFT_BRACKET, "[")
	case ']':
		return mk(RIGHT_BRACKET, "]")
	case '{':
		return mk(LEFT_BRACE, "{")
	case '}':
		return mk(RIGHT_BRACE, "}")
	case '.':
		return mk(DOT, ".")
	case ',':
		return mk(COMMA, ",")
	case ';':
		return mk(SEMICOLON, ";")
	case ':':
		return mk(COLON, ":")
	case '?':
		return mk(QUESTION, "?")
	case '~':
		return mk(TILDE, "~")
	case '+':
		if l.match('+') {
			return mk(PLUS_PLUS, "++")
		}
		if l.match('=') {
			return mk(PLUS_EQUAL, "+=")
		}
		return mk(PLUS, "+")
	case '-':
		if l.match('-') {
			return mk(MINUS_MINUS, "--")
		}
		if l.match('>') {
			return mk(ARROW, "->")
		}
		if l.match('=') {
			return mk(MINUS_EQUAL, "-=")
		}
		return mk(MINUS, "-")
	case '*':
		if l.match('=') {
			return mk(STAR_EQUAL, "*=")
		}
		return mk(STAR, "*")
	case '/':
		if l.match('=') {
			return mk(SLASH_EQUAL, "/=")
		}
		return mk(SLASH, "/")
	case '%':
		if l.match('=') {
			return mk(PERCENT_EQUAL, "%=")
		}
		return mk(PERCENT, "%")
	case '&':
		if l.match('&') {
			return mk(AMP_AMP, "&&")
		}
		if l.match('=') {
			return mk(AMP_EQUAL, "&=")
		}
		return mk(AMP, "&")
	case '|':
		if l.match('|') {
			return mk(PIPE_PIPE, "||")
		}
		if l.match('=') {
			return mk(PIPE_EQUAL, "|=")
		}
		return mk(PIPE, "|")
	case '^':
		if l.match('=') {
			return mk(CARET_EQUAL, "^=")
		}
		return mk(CARET, "^")
	case '!':
		if l.match('=') {
			return mk(BANG_EQUAL, "!=")
		}
		return mk(BANG, "!")
	case '=':
		if l.match('=') {
			return mk(EQUAL_EQUAL, "==")
		}
		return mk(EQUAL, "=")
	case '<':
		if l.peekByte() == '<' {
			l.advance()
			if l.match('=') {
				return mk(LESS_LESS_EQUAL, "<<=")
			}
			return mk(LESS_LESS, "<<")
		}
		if l.match('=') {
			return mk(LESS_EQUAL, "<=")
		}
		return mk(LESS, "<")
	case '>':
		if l.peekByte() == '>' {
			l.advance()
			if l.match('=') {
				return mk(GREATER_GREATER_EQUAL, ">>=")
			}
			return mk(GREATER_GREATER, ">>")
		}
		if l.match('=') {
			return mk(GREATER_EQUAL, ">=")
		}
		return mk(GREATER, ">")
	}

	l.errorAt(line, col, lineStart, "unexpected character %q", string(b))
	return mk(UNKNOWN, string(b))
}

// scanIdent collects a full identifier or keyword token.
func (l *Lexer) scanIdent(line, col int) Token {
	start := l.pos
	for l.pos < len(l.src) && (isAlpha(l.peekByte()) || isDigit(l.peekByte())) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	kind := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		kind = kw
	}
	return Token{Kind: kind, Lexeme: lexeme, Value: lexeme, Line: line, Column: col}
}

// scanNumber collects an integer or float literal. A literal is a float
// when it has a fractional part, an exponent, or an f/F suffix; hex
// literals (0x...) are always integers.
func (l *Lexer) scanNumber(line, col int) Token {
	start := l.pos

	if l.peekByte() == '0' && (l.peekByte2() == 'x' || l.peekByte2() == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && isHexDigit(l.peekByte()) {
			l.advance()
		}
		lexeme := string(l.src[start:l.pos])
		return Token{Kind: INT_LITERAL, Lexeme: lexeme, Value: lexeme, Line: line, Column: col}
	}

	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advance()
	}

	isFloat := false
	if l.peekByte() == '.' && isDigit(l.peekByte2()) {
		isFloat = true
		l.advance() // .
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		next := l.peekByte2()
		hasSign := next == '+' || next == '-'
		digitPos := l.pos + 1
		if hasSign {
			digitPos++
		}
		if digitPos < len(l.src) && isDigit(l.src[digitPos]) {
			isFloat = true
			l.advance() // e
			if hasSign {
				l.advance()
			}
			for l.pos < len(l.src) && isDigit(l.peekByte()) {
				l.advance()
			}
		}
	}

	numEnd := l.pos
	if l.peekByte() == 'f' || l.peekByte() == 'F' {
		isFloat = true
		l.advance()
	}

	lexeme := string(l.src[start:l.pos])
	value := string(l.src[start:numEnd]) // suffix stripped
	kind := INT_LITERAL
	if isFloat {
		kind = FLOAT_LITERAL
	}
	return Token{Kind: kind, Lexeme: lexeme, Value: value, Line: line, Column: col}
}

// escape translates the character following a backslash.
func (l *Lexer) escape(line, col, lineStart int) (byte, bool) {
	switch e := l.advance(); e {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	default:
		l.errorAt(line, col, lineStart, "unknown escape sequence '\\%s'", string(e))
		return e, false
	}
}

// scanString collects a string literal, processing escapes into Value.
func (l *Lexer) scanString(line, col, lineStart int) Token {
	start := l.pos
	l.advance() // opening "
	var value []byte

	for {
		if l.pos >= len(l.src) || l.peekByte() == '\n' {
			l.errorAt(line, col, lineStart, "unterminated string literal")
			break
		}
		b := l.advance()
		if b == '"' {
			break
		}
		if b == '\\' {
			e, _ := l.escape(line, col, lineStart)
			value = append(value, e)
			continue
		}
		value = append(value, b)
	}

	return Token{
		Kind:   STRING_LITERAL,
		Lexeme: string(l.src[start:l.pos]),
		Value:  string(value),
		Line:   line,
		Column: col,
	}
}

// scanChar collects a character literal, processing the same escape set
// as string literals.
func (l *Lexer) scanChar(line, col, lineStart int) Token {
	start := l.pos
	l.advance() // opening '
	var value byte

	switch {
	case l.pos >= len(l.src) || l.peekByte() == '\n':
		l.errorAt(line, col, lineStart, "unterminated character literal")
	case l.peekByte() == '\'':
		l.errorAt(line, col, lineStart, "empty character literal")
		l.advance()
		return Token{Kind: CHAR_LITERAL, Lexeme: "''", Value: "", Line: line, Column: col}
	default:
		b := l.advance()
		if b == '\\' {
			value, _ = l.escape(line, col, lineStart)
		} else {
			value = b
		}
		if !l.match('\'') {
			l.errorAt(line, col, lineStart, "unterminated character literal")
		}
	}

	return Token{
		Kind:   CHAR_LITERAL,
		Lexeme: string(l.src[start:l.pos]),
		Value:  string(value),
		Line:   line,
		Column: col,
	}
}
