package compiler

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	END_OF_FILE TokenKind = iota // sentinel: end of input

	// Literals
	IDENTIFIER     // variable / function / selector name
	INT_LITERAL    // decimal or 0x-prefixed integer literal
	FLOAT_LITERAL  // literal with fraction, exponent, or f/F suffix
	CHAR_LITERAL   // character literal 'c'
	STRING_LITERAL // string literal "..."

	// Keywords
	KW_IF       // "if"
	KW_ELSE     // "else"
	KW_WHILE    // "while"
	KW_FOR      // "for"
	KW_DO       // "do" (reserved)
	KW_BREAK    // "break"
	KW_CONTINUE // "continue"
	KW_RETURN   // "return"
	KW_VOID     // "void"
	KW_BOOL     // "bool"
	KW_CHAR     // "char"
	KW_SHORT    // "short"
	KW_INT      // "int"
	KW_LONG     // "long"
	KW_FLOAT    // "float"
	KW_DOUBLE   // "double"
	KW_UNSIGNED // "unsigned"
	KW_STRUCT   // "struct"
	KW_ENUM     // "enum"
	KW_CONST    // "const" (reserved)
	KW_TRUE     // "true"
	KW_FALSE    // "false"
	KW_NULL     // "null"

	// Operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	AMP     // & (binary bitwise AND, or unary address-of)
	PIPE    // |
	CARET   // ^
	TILDE   // ~
	BANG    // !
	EQUAL   // =
	LESS    // <
	GREATER // >

	// Compound operators (order matters for maximal munch in the lexer)
	PLUS_PLUS             // ++
	MINUS_MINUS           // --
	ARROW                 // ->
	PLUS_EQUAL            // +=
	MINUS_EQUAL           // -=
	STAR_EQUAL            // *=
	SLASH_EQUAL           // /=
	PERCENT_EQUAL         // %=
	AMP_EQUAL             // &=
	PIPE_EQUAL            // |=
	CARET_EQUAL           // ^=
	EQUAL_EQUAL           // ==
	BANG_EQUAL            // !=
	LESS_EQUAL            // <=
	GREATER_EQUAL         // >=
	LESS_LESS             // <<
	GREATER_GREATER       // >>
	LESS_LESS_EQUAL       // <<=
	GREATER_GREATER_EQUAL // >>=
	AMP_AMP               // &&
	PIPE_PIPE             // ||

	// Punctuation
	DOT           // .
	COMMA         // ,
	SEMICOLON     // ;
	COLON         // :
	QUESTION      // ?
	LEFT_PAREN    // (
	RIGHT_PAREN   // )
	LEFT_BRACKET  // [
	RIGHT_BRACKET // ]
	LEFT_BRACE    // {
	RIGHT_BRACE   // }

	UNKNOWN // unrecognized character
)

// tokenNames is indexed by TokenKind.
var tokenNames = [...]string{
	END_OF_FILE:           "END_OF_FILE",
	IDENTIFIER:            "IDENTIFIER",
	INT_LITERAL:           "INT_LITERAL",
	FLOAT_LITERAL:         "FLOAT_LITERAL",
	CHAR_LITERAL:          "CHAR_LITERAL",
	STRING_LITERAL:        "STRING_LITERAL",
	KW_IF:                 "KW_IF",
	KW_ELSE:               "KW_ELSE",
	KW_WHILE:              "KW_WHILE",
	KW_FOR:                "KW_FOR",
	KW_DO:                 "KW_DO",
	KW_BREAK:              "KW_BREAK",
	KW_CONTINUE:           "KW_CONTINUE",
	KW_RETURN:             "KW_RETURN",
	KW_VOID:               "KW_VOID",
	KW_BOOL:               "KW_BOOL",
	KW_CHAR:               "KW_CHAR",
	KW_SHORT:              "KW_SHORT",
	KW_INT:                "KW_INT",
	KW_LONG:               "KW_LONG",
	KW_FLOAT:              "KW_FLOAT",
	KW_DOUBLE:             "KW_DOUBLE",
	KW_UNSIGNED:           "KW_UNSIGNED",
	KW_STRUCT:             "KW_STRUCT",
	KW_ENUM:               "KW_ENUM",
	KW_CONST:              "KW_CONST",
	KW_TRUE:               "KW_TRUE",
	KW_FALSE:              "KW_FALSE",
	KW_NULL:               "KW_NULL",
	PLUS:                  "PLUS",
	MINUS:                 "MINUS",
	STAR:                  "STAR",
	SLASH:                 "SLASH",
	PERCENT:               "PERCENT",
	AMP:                   "AMP",
	PIPE:                  "PIPE",
	CARET:                 "CARET",
	TILDE:                 "TILDE",
	BANG:                  "BANG",
	EQUAL:                 "EQUAL",
	LESS:                  "LESS",
	GREATER:               "GREATER",
	PLUS_PLUS:             "PLUS_PLUS",
	MINUS_MINUS:           "MINUS_MINUS",
	ARROW:                 "ARROW",
	PLUS_EQUAL:            "PLUS_EQUAL",
	MINUS_EQUAL:           "MINUS_EQUAL",
	STAR_EQUAL:            "STAR_EQUAL",
	SLASH_EQUAL:           "SLASH_EQUAL",
	PERCENT_EQUAL:         "PERCENT_EQUAL",
	AMP_EQUAL:             "AMP_EQUAL",
	PIPE_EQUAL:            "PIPE_EQUAL",
	CARET_EQUAL:           "CARET_EQUAL",
	EQUAL_EQUAL:           "EQUAL_EQUAL",
	BANG_EQUAL:            "BANG_EQUAL",
	LESS_EQUAL:            "LESS_EQUAL",
	GREATER_EQUAL:         "GREATER_EQUAL",
	LESS_LESS:             "LESS_LESS",
	GREATER_GREATER:       "GREATER_GREATER",
	LESS_LESS_EQUAL:       "LESS_LESS_EQUAL",
	GREATER_GREATER_EQUAL: "GREATER_GREATER_EQUAL",
	AMP_AMP:               "AMP_AMP",
	PIPE_PIPE:             "PIPE_PIPE",
	DOT:                   "DOT",
	COMMA:                 "COMMA",
	SEMICOLON:             "SEMICOLON",
	COLON:                 "COLON",
	QUESTION:              "QUESTION",
	LEFT_PAREN:            "LEFT_PAREN",
	RIGHT_PAREN:           "RIGHT_PAREN",
	LEFT_BRACKET:          "LEFT_BRACKET",
	RIGHT_BRACKET:         "RIGHT_BRACKET",
	LEFT_BRACE:            "LEFT_BRACE",
	RIGHT_BRACE:           "RIGHT_BRACE",
	UNKNOWN:               "UNKNOWN",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexical unit produced by the Lexer.
// Lexeme is the exact source text; Value is the interpreted text
// (escape-processed for char/string literals, otherwise equal to Lexeme).
type Token struct {
	Kind   TokenKind
	Lexeme string
	Value  string
	Line   int // 1-based source line
	Column int // 1-based source column
}

func (t Token) String() string {
	return fmt.Sprintf("%-16s %-14q  %d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}

// isTypeKeyword reports whether k can begin a type
// (used to disambiguate casts from grouping and declarations from statements).
func isTypeKeyword(k TokenKind) bool {
	switch k {
	case KW_VOID, KW_BOOL, KW_CHAR, KW_SHORT, KW_INT, KW_LONG,
		KW_FLOAT, KW_DOUBLE, KW_UNSIGNED, KW_STRUCT, KW_ENUM:
		return true
	}
	return false
}
