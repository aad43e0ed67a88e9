package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes tokens from the Lexer and builds a CompilationUnit.
//
// Grammar (expression precedence, low to high):
//
//	expression     = assignment
//	assignment     = logical_or (("=" | compound-assign) assignment)?
//	logical_or     = logical_and ("||" logical_and)*
//	logical_and    = bitwise_or ("&&" bitwise_or)*
//	bitwise_or     = bitwise_xor ("|" bitwise_xor)*
//	bitwise_xor    = bitwise_and ("^" bitwise_and)*
//	bitwise_and    = equality ("&" equality)*
//	equality       = relational (("==" | "!=") relational)*
//	relational     = shift (("<" | "<=" | ">" | ">=") shift)*
//	shift          = additive (("<<" | ">>") additive)*
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/" | "%") unary)*
//	unary          = ("!" | "-" | "~" | "*" | "&" | "++" | "--") unary | postfix
//	postfix        = primary ("(" args ")" | "[" expr "]" | "." IDENT | "->" IDENT | "++" | "--")*
//	primary        = literal | IDENTIFIER | "(" expression ")" | "(" type ")" unary | message
//	message        = "[" expression IDENT (":" expression (IDENT ":" expression)*)? "]"
//
// A parenthesized expression that starts with a type keyword is a cast,
// never a grouping; the single-token lookahead after "(" decides.
//
// Parse never partial-fails: each syntax error is recorded as a
// diagnostic, the parser synchronizes to the next statement or
// declaration boundary, and parsing continues, so one pass surfaces
// every detectable syntax error.
type Parser struct {
	lex      *Lexer
	reporter *Reporter

	// Struct and enum tags are memoized by name so every reference to
	// the same tag resolves to the identical Type object, which is what
	// makes forward references work.
	structTypes map[string]*StructType
	enumTypes   map[string]*EnumType
}

func NewParser(lex *Lexer, rep *Reporter) *Parser {
	return &Parser{
		lex:         lex,
		reporter:    rep,
		structTypes: make(map[string]*StructType),
		enumTypes:   make(map[string]*EnumType),
	}
}

// syntaxError carries the position the error originated at.
type syntaxError struct {
	line, col int
	msg       string
}

func (e *syntaxError) Error() string { return e.msg }

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &syntaxError{line: tok.Line, col: tok.Column, msg: fmt.Sprintf(format, args...)}
}

// report records err as a diagnostic.
func (p *Parser) report(err error) {
	if se, ok := err.(*syntaxError); ok {
		p.reporter.Error(se.line, se.col, se.msg)
		return
	}
	p.reporter.Error(0, 0, err.Error())
}

func (p *Parser) peek() Token    { return p.lex.Peek() }
func (p *Parser) advance() Token { return p.lex.Next() }

func (p *Parser) check(kind TokenKind) bool { return p.peek().Kind == kind }

// match consumes the current token if it has the given kind.
func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, p.errorf(tok, "expected %s, got %q", what, tok.Lexeme)
	}
	return p.advance(), nil
}

// synchronize skips tokens to the next probable statement or
// declaration boundary: just past a semicolon, or right before a
// keyword that can start a new statement or declaration.
func (p *Parser) synchronize() {
	for {
		switch p.peek().Kind {
		case END_OF_FILE, RIGHT_BRACE:
			return
		case SEMICOLON:
			p.advance()
			return
		case KW_IF, KW_WHILE, KW_FOR, KW_RETURN, KW_BREAK, KW_CONTINUE,
			KW_VOID, KW_BOOL, KW_CHAR, KW_SHORT, KW_INT, KW_LONG,
			KW_FLOAT, KW_DOUBLE, KW_UNSIGNED, KW_STRUCT, KW_ENUM:
			return
		}
		p.advance()
	}
}

// Parse consumes the whole token stream and returns the compilation
// unit. It always returns a unit; syntax errors are in the reporter.
func (p *Parser) Parse() *CompilationUnit {
	unit := &CompilationUnit{Filename: p.lex.Filename()}
	for !p.check(END_OF_FILE) {
		before := p.peek()
		decl, err := p.parseDeclaration()
		if err != nil {
			p.report(err)
			p.synchronize()
			// Recovery must make progress: a brace, or the same token
			// that already failed, cannot start a declaration.
			tok := p.peek()
			if tok.Kind == RIGHT_BRACE ||
				(tok.Kind != END_OF_FILE && tok.Line == before.Line && tok.Column == before.Column) {
				p.advance()
			}
			continue
		}
		if decl != nil {
			unit.Decls = append(unit.Decls, decl)
		}
	}
	return unit
}

//
// Types
//

// structType returns the memoized struct type for a tag, creating an
// incomplete one on first reference.
func (p *Parser) structType(name string) *StructType {
	if st, ok := p.structTypes[name]; ok {
		return st
	}
	st := NewStructType(name)
	p.structTypes[name] = st
	return st
}

// enumType returns the memoized enum type for a tag. Enums are int-based.
func (p *Parser) enumType(name string) *EnumType {
	if et, ok := p.enumTypes[name]; ok {
		return et
	}
	et := NewEnumType(name, TypeInt)
	p.enumTypes[name] = et
	return et
}

// parseType parses a full type: optional "unsigned", a primitive
// keyword or struct/enum tag reference, then any number of trailing
// "*" for pointer nesting.
func (p *Parser) parseType() (Type, error) {
	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	return p.parsePointerSuffix(base), nil
}

func (p *Parser) parsePointerSuffix(base Type) Type {
	t := base
	for p.match(STAR) {
		t = NewPointerType(t)
	}
	return t
}

func (p *Parser) parseBaseType() (Type, error) {
	tok := p.peek()
	unsigned := false
	if tok.Kind == KW_UNSIGNED {
		p.advance()
		unsigned = true
		tok = p.peek()
	}

	switch tok.Kind {
	case KW_VOID:
		p.advance()
		if unsigned {
			return nil, p.errorf(tok, "'unsigned' cannot qualify 'void'")
		}
		return TypeVoid, nil
	case KW_BOOL:
		p.advance()
		if unsigned {
			return nil, p.errorf(tok, "'unsigned' cannot qualify 'bool'")
		}
		return TypeBool, nil
	case KW_CHAR:
		p.advance()
		if unsigned {
			return TypeUChar, nil
		}
		return TypeChar, nil
	case KW_SHORT:
		p.advance()
		if unsigned {
			return TypeUShort, nil
		}
		return TypeShort, nil
	case KW_INT:
		p.advance()
		if unsigned {
			return TypeUInt, nil
		}
		return TypeInt, nil
	case KW_LONG:
		p.advance()
		if unsigned {
			return TypeULong, nil
		}
		return TypeLong, nil
	case KW_FLOAT, KW_DOUBLE:
		p.advance()
		if unsigned {
			return nil, p.errorf(tok, "'unsigned' cannot qualify %q", tok.Lexeme)
		}
		if tok.Kind == KW_FLOAT {
			return TypeFloat, nil
		}
		return TypeDouble, nil
	case KW_STRUCT:
		p.advance()
		name, err := p.expect(IDENTIFIER, "struct name")
		if err != nil {
			return nil, err
		}
		return p.structType(name.Lexeme), nil
	case KW_ENUM:
		p.advance()
		name, err := p.expect(IDENTIFIER, "enum name")
		if err != nil {
			return nil, err
		}
		return p.enumType(name.Lexeme), nil
	}
	if unsigned {
		// Bare "unsigned" means unsigned int.
		return TypeUInt, nil
	}
	return nil, p.errorf(tok, "expected type, got %q", tok.Lexeme)
}

// parseArraySuffix applies zero or more [N] / [] suffixes to elem.
// Only integer-literal sizes are supported.
func (p *Parser) parseArraySuffix(elem Type) (Type, error) {
	for p.check(LEFT_BRACKET) {
		p.advance()
		if p.match(RIGHT_BRACKET) {
			elem = NewUnsizedArrayType(elem)
			continue
		}
		sizeTok, err := p.expect(INT_LITERAL, "array size")
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.ParseInt(sizeTok.Value, 0, 64)
		if convErr != nil || n < 0 {
			return nil, p.errorf(sizeTok, "invalid array size %q", sizeTok.Lexeme)
		}
		if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
			return nil, err
		}
		elem = NewArrayType(elem, int(n))
	}
	return elem, nil
}

//
// Declarations
//

// parseDeclaration parses one top-level declaration: a struct or enum
// definition, or a typed declarator that resolves to a method,
// function, or variable.
func (p *Parser) parseDeclaration() (Decl, error) {
	switch p.peek().Kind {
	case KW_STRUCT:
		structTok := p.advance()
		nameTok, err := p.expect(IDENTIFIER, "struct name")
		if err != nil {
			return nil, err
		}
		if p.check(LEFT_BRACE) || p.check(SEMICOLON) {
			return p.parseStructDeclaration(structTok, nameTok)
		}
		// "struct Foo" used as a type in a declarator.
		typ := p.parsePointerSuffix(p.structType(nameTok.Lexeme))
		return p.parseDeclarator(typ)
	case KW_ENUM:
		enumTok := p.advance()
		nameTok, err := p.expect(IDENTIFIER, "enum name")
		if err != nil {
			return nil, err
		}
		if p.check(LEFT_BRACE) {
			return p.parseEnumDeclaration(enumTok, nameTok)
		}
		typ := p.parsePointerSuffix(p.enumType(nameTok.Lexeme))
		return p.parseDeclarator(typ)
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return p.parseDeclarator(typ)
}

// parseDeclarator disambiguates a declaration whose type has been
// parsed: a leading "[" signals a method; an identifier followed by
// "(" signals a function; otherwise it is a variable.
func (p *Parser) parseDeclarator(typ Type) (Decl, error) {
	if p.check(LEFT_BRACKET) {
		return p.parseMethodDeclaration(typ)
	}
	nameTok, err := p.expect(IDENTIFIER, "declaration name")
	if err != nil {
		return nil, err
	}
	if p.check(LEFT_PAREN) {
		return p.parseFunctionDeclaration(typ, nameTok)
	}
	return p.parseVariableDeclaration(typ, nameTok)
}

// parseStructDeclaration parses a definition body or forward
// declaration; "struct <name>" and the tag name are already consumed.
func (p *Parser) parseStructDeclaration(structTok, nameTok Token) (Decl, error) {
	st := p.structType(nameTok.Lexeme)
	decl := &StructDecl{
		Name:   nameTok.Lexeme,
		Type:   st,
		Line:   structTok.Line,
		Column: structTok.Column,
	}

	if p.match(SEMICOLON) {
		// Forward declaration: the tag stays incomplete.
		return decl, nil
	}

	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	var fields []StructField
	for !p.check(RIGHT_BRACE) && !p.check(END_OF_FILE) {
		fieldType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fieldName, err := p.expect(IDENTIFIER, "field name")
		if err != nil {
			return nil, err
		}
		fieldType, err = p.parseArraySuffix(fieldType)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';' after field"); err != nil {
			return nil, err
		}
		fields = append(fields, StructField{Name: fieldName.Lexeme, Type: fieldType})
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';' after struct declaration"); err != nil {
		return nil, err
	}

	st.SetComplete(fields)
	decl.Fields = fields
	return decl, nil
}

// parseEnumDeclaration parses an enum definition; "enum <name>" is
// already consumed. Members get sequential values starting at 0; an
// explicit "= <int-literal>" resets the counter. Anything richer than
// an integer literal is a reported error and the member defaults to 0.
func (p *Parser) parseEnumDeclaration(enumTok, nameTok Token) (Decl, error) {
	et := p.enumType(nameTok.Lexeme)

	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}

	var values []EnumValue
	next := int64(0)
	for !p.check(RIGHT_BRACE) && !p.check(END_OF_FILE) {
		memberTok, err := p.expect(IDENTIFIER, "enum member name")
		if err != nil {
			return nil, err
		}
		value := next
		if p.match(EQUAL) {
			neg := p.match(MINUS)
			if p.check(INT_LITERAL) {
				litTok := p.advance()
				n, convErr := strconv.ParseInt(litTok.Value, 0, 64)
				if convErr != nil {
					return nil, p.errorf(litTok, "invalid enum value %q", litTok.Lexeme)
				}
				if neg {
					n = -n
				}
				value = n
			} else {
				p.report(p.errorf(p.peek(), "enum value must be an integer literal"))
				value = 0
			}
		}
		values = append(values, EnumValue{Name: memberTok.Lexeme, Value: value})
		next = value + 1

		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';' after enum declaration"); err != nil {
		return nil, err
	}

	et.SetValues(values)
	return &EnumDecl{
		Name:   nameTok.Lexeme,
		Type:   et,
		Base:   et.Base(),
		Values: values,
		Line:   enumTok.Line,
		Column: enumTok.Column,
	}, nil
}

// parseParameterList parses "(" [type name {"," type name}] [", ..."] ")".
func (p *Parser) parseParameterList() ([]*ParamDecl, bool, error) {
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, false, err
	}
	var params []*ParamDecl
	variadic := false
	if !p.check(RIGHT_PAREN) {
		for {
			if p.check(DOT) {
				// "..." spelled as three dots.
				for i := 0; i < 3; i++ {
					if _, err := p.expect(DOT, "'...'"); err != nil {
						return nil, false, err
					}
				}
				variadic = true
				break
			}
			paramType, err := p.parseType()
			if err != nil {
				return nil, false, err
			}
			nameTok, err := p.expect(IDENTIFIER, "parameter name")
			if err != nil {
				return nil, false, err
			}
			paramType, err = p.parseArraySuffix(paramType)
			if err != nil {
				return nil, false, err
			}
			params = append(params, &ParamDecl{
				Name:   nameTok.Lexeme,
				Type:   paramType,
				Line:   nameTok.Line,
				Column: nameTok.Column,
			})
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// parseFunctionDeclaration parses the remainder of a function once the
// return type and name are known. A ";" instead of a body makes it a
// forward declaration.
func (p *Parser) parseFunctionDeclaration(retType Type, nameTok Token) (Decl, error) {
	params, variadic, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}

	paramTypes := make([]Type, len(params))
	for i, pd := range params {
		paramTypes[i] = pd.Type
	}
	decl := &FuncDecl{
		Name:   nameTok.Lexeme,
		Type:   NewFunctionType(retType, paramTypes, variadic),
		Params: params,
		Line:   nameTok.Line,
		Column: nameTok.Column,
	}

	if p.match(SEMICOLON) {
		return decl, nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

// parseMethodDeclaration parses the receiver-bracket method form:
//
//	int [struct Point*] length { ... }
//	void [struct Point*] moveX: int dx y: int dy { ... }
//
// Selector parts are flattened with underscores into the method's one
// linkage name (moveX_y) right here at declaration time.
func (p *Parser) parseMethodDeclaration(retType Type) (Decl, error) {
	open, err := p.expect(LEFT_BRACKET, "'['")
	if err != nil {
		return nil, err
	}
	receiver, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_BRACKET, "']' after receiver type"); err != nil {
		return nil, err
	}

	firstTok, err := p.expect(IDENTIFIER, "selector")
	if err != nil {
		return nil, err
	}
	selectorParts := []string{firstTok.Lexeme}
	var params []*ParamDecl

	if p.match(COLON) {
		for {
			paramType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			nameTok, err := p.expect(IDENTIFIER, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, &ParamDecl{
				Name:   nameTok.Lexeme,
				Type:   paramType,
				Line:   nameTok.Line,
				Column: nameTok.Column,
			})
			if !p.check(IDENTIFIER) {
				break
			}
			partTok := p.advance()
			selectorParts = append(selectorParts, partTok.Lexeme)
			if _, err := p.expect(COLON, "':' after selector part"); err != nil {
				return nil, err
			}
		}
	}

	paramTypes := make([]Type, len(params))
	for i, pd := range params {
		paramTypes[i] = pd.Type
	}
	decl := &MethodDecl{
		Name:     strings.Join(selectorParts, "_"),
		Type:     NewFunctionType(retType, paramTypes, false),
		Receiver: receiver,
		Params:   params,
		Line:     open.Line,
		Column:   open.Column,
	}

	if p.match(SEMICOLON) {
		return decl, nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

// parseVariableDeclaration parses the remainder of a variable once the
// type and name are known: optional array suffix, optional initializer.
func (p *Parser) parseVariableDeclaration(typ Type, nameTok Token) (Decl, error) {
	typ, err := p.parseArraySuffix(typ)
	if err != nil {
		return nil, err
	}
	decl := &VarDecl{
		Name:   nameTok.Lexeme,
		Type:   typ,
		Line:   nameTok.Line,
		Column: nameTok.Column,
	}
	if p.match(EQUAL) {
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expect(SEMICOLON, "';' after declaration"); err != nil {
		return nil, err
	}
	return decl, nil
}

//
// Statements
//

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Kind {
	case LEFT_BRACE:
		return p.parseBlock()
	case KW_IF:
		return p.parseIf()
	case KW_WHILE:
		return p.parseWhile()
	case KW_FOR:
		return p.parseFor()
	case KW_RETURN:
		tok := p.advance()
		stmt := &ReturnStmt{Line: tok.Line, Column: tok.Column}
		if !p.check(SEMICOLON) {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			stmt.Expr = expr
		}
		if _, err := p.expect(SEMICOLON, "';' after return"); err != nil {
			return nil, err
		}
		return stmt, nil
	case KW_BREAK:
		tok := p.advance()
		if _, err := p.expect(SEMICOLON, "';' after break"); err != nil {
			return nil, err
		}
		return &BreakStmt{Line: tok.Line, Column: tok.Column}, nil
	case KW_CONTINUE:
		tok := p.advance()
		if _, err := p.expect(SEMICOLON, "';' after continue"); err != nil {
			return nil, err
		}
		return &ContinueStmt{Line: tok.Line, Column: tok.Column}, nil
	}

	if isTypeKeyword(p.peek().Kind) {
		return p.parseLocalDeclaration()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';' after expression"); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// parseLocalDeclaration parses a variable declaration statement.
func (p *Parser) parseLocalDeclaration() (Stmt, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IDENTIFIER, "variable name")
	if err != nil {
		return nil, err
	}
	decl, err := p.parseVariableDeclaration(typ, nameTok)
	if err != nil {
		return nil, err
	}
	return &DeclStmt{Decl: decl}, nil
}

// parseBlock parses "{" stmt* "}" with per-statement error recovery,
// so several bad statements in one block each produce a diagnostic.
func (p *Parser) parseBlock() (*BlockStmt, error) {
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	block := &BlockStmt{}
	for !p.check(RIGHT_BRACE) && !p.check(END_OF_FILE) {
		stmt, err := p.parseStatement()
		if err != nil {
			p.report(err)
			p.synchronize()
			continue
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	p.advance() // if
	if _, err := p.expect(LEFT_PAREN, "'(' after if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{Cond: cond, Then: then}
	if p.match(KW_ELSE) {
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = els
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.advance() // while
	if _, err := p.expect(LEFT_PAREN, "'(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	p.advance() // for
	if _, err := p.expect(LEFT_PAREN, "'(' after for"); err != nil {
		return nil, err
	}
	stmt := &ForStmt{}

	// Init clause: declaration, expression, or empty.
	switch {
	case p.match(SEMICOLON):
	case isTypeKeyword(p.peek().Kind):
		init, err := p.parseLocalDeclaration()
		if err != nil {
			return nil, err
		}
		stmt.Init = init
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';' after for initializer"); err != nil {
			return nil, err
		}
		stmt.Init = &ExprStmt{Expr: expr}
	}

	if !p.check(SEMICOLON) {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Cond = cond
	}
	if _, err := p.expect(SEMICOLON, "';' after for condition"); err != nil {
		return nil, err
	}

	if !p.check(RIGHT_PAREN) {
		inc, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Inc = inc
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

//
// Expressions
//

func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

// compoundAssignOps maps a compound-assignment token to the binary
// operator it desugars to: "a op= b" becomes "a = a op b" sharing the
// target subtree.
var compoundAssignOps = map[TokenKind]BinaryOp{
	PLUS_EQUAL:            OpAdd,
	MINUS_EQUAL:           OpSub,
	STAR_EQUAL:            OpMul,
	SLASH_EQUAL:           OpDiv,
	PERCENT_EQUAL:         OpMod,
	AMP_EQUAL:             OpBitAnd,
	PIPE_EQUAL:            OpBitOr,
	CARET_EQUAL:           OpBitXor,
	LESS_LESS_EQUAL:       OpShl,
	GREATER_GREATER_EQUAL: OpShr,
}

// parseAssignment is right-associative: the RHS is parsed as another
// full assignment. The LHS is validated after the fact to be a
// variable, subscript, or member expression; anything else is a
// reported error and parsing continues.
func (p *Parser) parseAssignment() (Expr, error) {
	expr, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.Kind == EQUAL {
		p.advance()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if !isAssignTarget(expr) {
			p.report(p.errorf(tok, "invalid assignment target"))
			return expr, nil
		}
		return &AssignExpr{
			exprBase: exprBase{Line: tok.Line, Column: tok.Column},
			Target:   expr,
			Value:    value,
		}, nil
	}
	if op, ok := compoundAssignOps[tok.Kind]; ok {
		p.advance()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if !isAssignTarget(expr) {
			p.report(p.errorf(tok, "invalid assignment target"))
			return expr, nil
		}
		return &AssignExpr{
			exprBase: exprBase{Line: tok.Line, Column: tok.Column},
			Target:   expr,
			Value: &BinaryExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Op:       op,
				Left:     expr,
				Right:    value,
			},
		}, nil
	}

	return expr, nil
}

func isAssignTarget(e Expr) bool {
	switch t := e.(type) {
	case *VarExpr, *SubscriptExpr, *MemberExpr:
		return true
	case *UnaryExpr:
		return t.Op == OpDeref
	}
	return false
}

// binaryLevel parses one left-associative precedence tier: it parses
// one operand at the next-higher level, then keeps consuming operators
// from ops and folding leftward.
func (p *Parser) binaryLevel(next func() (Expr, error), ops map[TokenKind]BinaryOp) (Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, ok := ops[tok.Kind]
		if !ok {
			return expr, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{
			exprBase: exprBase{Line: tok.Line, Column: tok.Column},
			Op:       op,
			Left:     expr,
			Right:    right,
		}
	}
}

var (
	logicalOrOps  = map[TokenKind]BinaryOp{PIPE_PIPE: OpLogicalOr}
	logicalAndOps = map[TokenKind]BinaryOp{AMP_AMP: OpLogicalAnd}
	bitOrOps      = map[TokenKind]BinaryOp{PIPE: OpBitOr}
	bitXorOps     = map[TokenKind]BinaryOp{CARET: OpBitXor}
	bitAndOps     = map[TokenKind]BinaryOp{AMP: OpBitAnd}
	equalityOps   = map[TokenKind]BinaryOp{EQUAL_EQUAL: OpEq, BANG_EQUAL: OpNe}
	relationalOps = map[TokenKind]BinaryOp{
		LESS: OpLt, LESS_EQUAL: OpLe, GREATER: OpGt, GREATER_EQUAL: OpGe,
	}
	shiftOps          = map[TokenKind]BinaryOp{LESS_LESS: OpShl, GREATER_GREATER: OpShr}
	additiveOps       = map[TokenKind]BinaryOp{PLUS: OpAdd, MINUS: OpSub}
	multiplicativeOps = map[TokenKind]BinaryOp{STAR: OpMul, SLASH: OpDiv, PERCENT: OpMod}
)

func (p *Parser) parseLogicalOr() (Expr, error) {
	return p.binaryLevel(p.parseLogicalAnd, logicalOrOps)
}

func (p *Parser) parseLogicalAnd() (Expr, error) {
	return p.binaryLevel(p.parseBitwiseOr, logicalAndOps)
}

func (p *Parser) parseBitwiseOr() (Expr, error) {
	return p.binaryLevel(p.parseBitwiseXor, bitOrOps)
}

func (p *Parser) parseBitwiseXor() (Expr, error) {
	return p.binaryLevel(p.parseBitwiseAnd, bitXorOps)
}

// Unary & (address-of) is handled in parseUnary and never reaches here.
func (p *Parser) parseBitwiseAnd() (Expr, error) {
	return p.binaryLevel(p.parseEquality, bitAndOps)
}

func (p *Parser) parseEquality() (Expr, error) {
	return p.binaryLevel(p.parseRelational, equalityOps)
}

func (p *Parser) parseRelational() (Expr, error) {
	return p.binaryLevel(p.parseShift, relationalOps)
}

func (p *Parser) parseShift() (Expr, error) {
	return p.binaryLevel(p.parseAdditive, shiftOps)
}

func (p *Parser) parseAdditive() (Expr, error) {
	return p.binaryLevel(p.parseMultiplicative, additiveOps)
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.binaryLevel(p.parseUnary, multiplicativeOps)
}

var prefixOps = map[TokenKind]UnaryOp{
	BANG:        OpNot,
	MINUS:       OpNeg,
	TILDE:       OpBitNot,
	STAR:        OpDeref,
	AMP:         OpAddr,
	PLUS_PLUS:   OpPreInc,
	MINUS_MINUS: OpPreDec,
}

// parseUnary handles prefix operators, which recurse into unary so
// chains like **p and !!x parse.
func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if op, ok := prefixOps[tok.Kind]; ok {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			exprBase: exprBase{Line: tok.Line, Column: tok.Column},
			Op:       op,
			Operand:  operand,
		}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles call, subscript, member access, and postfix
// increment/decrement in a left-to-right loop. "->" desugars into a
// synthetic deref plus a member access.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case LEFT_PAREN:
			p.advance()
			var args []Expr
			if !p.check(RIGHT_PAREN) {
				for {
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.match(COMMA) {
						break
					}
				}
			}
			if _, err := p.expect(RIGHT_PAREN, "')' after arguments"); err != nil {
				return nil, err
			}
			expr = &CallExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Callee:   expr,
				Args:     args,
			}
		case LEFT_BRACKET:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RIGHT_BRACKET, "']' after index"); err != nil {
				return nil, err
			}
			expr = &SubscriptExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Array:    expr,
				Index:    index,
			}
		case DOT:
			p.advance()
			field, err := p.expect(IDENTIFIER, "field name")
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Object:   expr,
				Field:    field.Lexeme,
			}
		case ARROW:
			p.advance()
			field, err := p.expect(IDENTIFIER, "field name")
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Object: &UnaryExpr{
					exprBase: exprBase{Line: tok.Line, Column: tok.Column},
					Op:       OpDeref,
					Operand:  expr,
				},
				Field: field.Lexeme,
			}
		case PLUS_PLUS:
			p.advance()
			expr = &UnaryExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Op:       OpPostInc,
				Operand:  expr,
			}
		case MINUS_MINUS:
			p.advance()
			expr = &UnaryExpr{
				exprBase: exprBase{Line: tok.Line, Column: tok.Column},
				Op:       OpPostDec,
				Operand:  expr,
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	base := exprBase{Line: tok.Line, Column: tok.Column}

	switch tok.Kind {
	case INT_LITERAL:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitInt, Value: tok.Value}, nil
	case FLOAT_LITERAL:
		// The exact lexeme is kept so the f/F suffix can select the
		// literal's type downstream.
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitFloat, Value: tok.Lexeme}, nil
	case CHAR_LITERAL:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitChar, Value: tok.Value}, nil
	case STRING_LITERAL:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitString, Value: tok.Value}, nil
	case KW_TRUE:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitBool, Value: "true"}, nil
	case KW_FALSE:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitBool, Value: "false"}, nil
	case KW_NULL:
		p.advance()
		return &LiteralExpr{exprBase: base, LitKind: LitNull, Value: "null"}, nil
	case IDENTIFIER:
		p.advance()
		return &VarExpr{exprBase: base, Name: tok.Lexeme}, nil
	case LEFT_PAREN:
		p.advance()
		// A type keyword right after "(" makes this a cast, not a
		// grouping. This one-token disambiguation is load-bearing.
		if isTypeKeyword(p.peek().Kind) {
			targetType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RIGHT_PAREN, "')' after cast type"); err != nil {
				return nil, err
			}
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &CastExpr{exprBase: base, TargetType: targetType, Operand: operand}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case LEFT_BRACKET:
		return p.parseMessage()
	}

	return nil, p.errorf(tok, "expected expression, got %q", tok.Lexeme)
}

// parseMessage parses "[receiver selector]" or
// "[receiver part: arg part2: arg2 ...]". The colon-separated selector
// parts are concatenated with underscores into the flattened call
// target; there is no dynamic dispatch behind this syntax.
func (p *Parser) parseMessage() (Expr, error) {
	open, err := p.expect(LEFT_BRACKET, "'['")
	if err != nil {
		return nil, err
	}
	receiver, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	firstTok, err := p.expect(IDENTIFIER, "selector")
	if err != nil {
		return nil, err
	}
	selectorParts := []string{firstTok.Lexeme}
	var args []Expr

	if p.match(COLON) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.check(IDENTIFIER) {
				break
			}
			partTok := p.advance()
			selectorParts = append(selectorParts, partTok.Lexeme)
			if _, err := p.expect(COLON, "':' after selector part"); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(RIGHT_BRACKET, "']' after message"); err != nil {
		return nil, err
	}

	return &MessageExpr{
		exprBase: exprBase{Line: open.Line, Column: open.Column},
		Receiver: receiver,
		Selector: strings.Join(selectorParts, "_"),
		Args:     args,
	}, nil
}
