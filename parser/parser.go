// Copyright 2024 Slash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser implements the recursive descent parser for slash.
//
// The parser does not stop at the first error: it records the error,
// advances one token and keeps going, collecting up to MaxParseErrors
// errors so a single run reports as much as possible.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slash-lang/slash/ast"
	"github.com/slash-lang/slash/token"
)

// MaxParseErrors bounds how many errors a single parse collects.
const MaxParseErrors = 64

// ErrorKind classifies parse errors.
type ErrorKind int

const (
	// ErrGeneric is any parse error without special handling.
	ErrGeneric ErrorKind = iota

	// ErrExpectedRBrace means a block was not terminated. The REPL
	// driver uses this class to ask for a continuation line instead of
	// failing the input.
	ErrExpectedRBrace
)

// Error is a single parse error.
type Error struct {
	Msg    string
	Failed token.Token
	Kind   ErrorKind
}

// Error returns the string representation of the parse error.
func (e *Error) Error() string {
	return "[line " + strconv.Itoa(e.Failed.Line+1) + "]: Error during parsing: " + e.Msg
}

// Result is the outcome of parsing a token stream.
type Result struct {
	Stmts  []ast.Stmt
	Errors []*Error
}

// HadError tells if parsing found any error.
func (r Result) HadError() bool { return len(r.Errors) > 0 }

// LastError returns the last recorded error, or nil.
func (r Result) LastError() *Error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

type parser struct {
	tokens     []token.Token
	pos        int
	sourceLine int
	errs       []*Error

	// aborted is set when MaxParseErrors is reached.
	aborted bool
}

// Parse parses the given token stream into a list of statements.
func Parse(tokens []token.Token) Result {
	p := &parser{tokens: tokens}

	var stmts []ast.Stmt

	p.ignore(token.Newline)
	for !p.check(token.EOF) && !p.aborted {
		stmts = append(stmts, p.declaration())
	}

	log.Trace().
		Str("action", "Parse()").
		Int("statements", len(stmts)).
		Int("errors", len(p.errs)).
		Msg("parsed token stream")

	return Result{Stmts: stmts, Errors: p.errs}
}

/*
 * helpers
 */

func (p *parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() token.Token {
	if p.pos == 0 {
		return token.Token{Type: token.Error}
	}
	return p.tokens[p.pos-1]
}

func (p *parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *parser) advance() token.Token {
	t := p.peek()
	p.sourceLine = t.Line
	if !p.isAtEnd() {
		p.pos++
	}
	return t
}

func (p *parser) backup() {
	if p.pos == 0 {
		p.errorf(ErrGeneric, "Internal error: attempted to backup at pos 0")
		return
	}
	p.pos--
}

func (p *parser) checkAt(step int, types ...token.Type) bool {
	idx := p.pos + step
	if idx < 0 || idx >= len(p.tokens) {
		return false
	}
	for _, t := range types {
		if p.tokens[idx].Type == t {
			return true
		}
	}
	return false
}

func (p *parser) check(types ...token.Type) bool {
	return p.checkAt(0, types...)
}

// checkArgEnd tells if the current token terminates a command argument
// list.
func (p *parser) checkArgEnd() bool {
	return p.check(token.Newline, token.EOF, token.Pipe, token.PipePipe,
		token.Greater, token.GreaterGreater, token.Less, token.Anp,
		token.AnpAnp, token.RParen, token.RBrace)
}

func (p *parser) match(types ...token.Type) bool {
	if p.check(types...) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) consume(expected token.Type, errMsg string) token.Token {
	if !p.check(expected) {
		kind := ErrGeneric
		if expected == token.RBrace {
			kind = ErrExpectedRBrace
		}
		p.errorf(kind, "%s", errMsg)
		// un-consume the token before we advance again below
		p.backup()
	}
	return p.advance()
}

func (p *parser) ignore(t token.Type) {
	for p.check(t) {
		p.advance()
	}
}

func (p *parser) errorf(kind ErrorKind, format string, args ...interface{}) {
	if p.aborted {
		return
	}
	failed := p.peek()
	// Edge case where we failed on a newline or the eof. Moving to the
	// previous token keeps the reported position on the expected line.
	if (failed.Type == token.EOF || failed.Type == token.Newline) && p.pos != 0 {
		failed = p.tokens[p.pos-1]
	}

	p.errs = append(p.errs, &Error{
		Msg:    fmt.Sprintf(format, args...),
		Failed: failed,
		Kind:   kind,
	})

	if len(p.errs) >= MaxParseErrors {
		p.aborted = true
		return
	}

	p.advance()
}

/*
 * grammar functions
 */

func (p *parser) newline() {
	p.consume(token.Newline, "Expected newline or semicolon")
	p.ignore(token.Newline)
}

// exprPromotion terminates an expression statement: either a newline or
// one of the tokens that continue the statement at a higher level.
func (p *parser) exprPromotion() {
	if p.check(token.RBrace, token.AnpAnp, token.PipePipe) {
		return
	}
	p.newline()
}

func (p *parser) declaration() ast.Stmt {
	p.ignore(token.Newline)
	var stmt ast.Stmt
	if p.match(token.Var) {
		stmt = p.varDecl()
	} else {
		stmt = p.andOr()
	}
	p.ignore(token.Newline)
	return stmt
}

func (p *parser) varDecl() ast.Stmt {
	// came from 'var'
	name := p.consume(token.Ident, "Expected variable name")

	if p.match(token.Equal) {
		initializer := p.topLevelExpr()
		p.exprPromotion()
		return &ast.VarStmt{
			Base:        p.base(),
			Name:        name.Lexeme,
			Initializer: initializer,
		}
	}

	if !p.check(token.Comma) {
		p.errorf(ErrGeneric, "Expected variable definition")
		return &ast.VarStmt{Base: p.base(), Name: name.Lexeme}
	}

	names := []string{name.Lexeme}
	for p.match(token.Comma) {
		name = p.consume(token.Ident, "Expected variable name")
		names = append(names, name.Lexeme)
	}
	p.consume(token.Equal, "Expected variable definition")
	return &ast.SeqVarStmt{
		Base:        p.base(),
		Names:       names,
		Initializer: p.topLevelExpr(),
	}
}

func (p *parser) andOr() ast.Stmt {
	left := p.statement()
	for p.match(token.AnpAnp, token.PipePipe) {
		op := p.previous().Type
		left = &ast.BinaryStmt{
			Base:      p.base(),
			Left:      left,
			Op:        op,
			RightStmt: p.statement(),
		}
	}
	return left
}

func (p *parser) statement() ast.Stmt {
	switch {
	case p.match(token.Loop):
		return p.loopStmt()
	case p.match(token.Assert):
		return p.assertStmt()
	case p.match(token.If):
		return p.ifStmt()
	case p.match(token.TextLit, token.Dot):
		return p.pipelineStmt()
	case p.match(token.LBrace):
		return p.block()
	case p.match(token.Break, token.Continue, token.Return):
		return p.abruptStmt()
	}
	return p.assignmentStmt()
}

func (p *parser) loopStmt() ast.Stmt {
	// came from 'loop'
	if p.match(token.Ident) {
		// loop IDENTIFIER in expression { ... }
		varName := p.previous()
		p.consume(token.In, "Expected 'in' keyword to continue loop statement")
		// iterability of the expression is checked at runtime
		iterable := p.topLevelExpr()
		p.consume(token.LBrace, "Expected block '{' after loop condition")
		return &ast.IterLoopStmt{
			Base:     p.base(),
			VarName:  varName.Lexeme,
			Iterable: iterable,
			Body:     p.block().(*ast.BlockStmt),
		}
	}

	condition := p.expression()
	p.consume(token.LBrace, "Expected '{' after loop condition")
	return &ast.LoopStmt{
		Base:      p.base(),
		Condition: condition,
		Body:      p.block().(*ast.BlockStmt),
	}
}

func (p *parser) assertStmt() ast.Stmt {
	// came from 'assert'
	stmt := &ast.AssertStmt{Base: p.base(), Expr: p.topLevelExpr()}
	p.exprPromotion()
	return stmt
}

func (p *parser) ifStmt() ast.Stmt {
	// came from 'if' or 'elif'
	stmt := &ast.IfStmt{Base: p.base(), Condition: p.expression()}
	p.consume(token.LBrace, "Expected '{' after if-statement")
	stmt.Then = p.block().(*ast.BlockStmt)

	p.ignore(token.Newline)
	if p.match(token.Elif) {
		stmt.Else = p.ifStmt()
	} else if p.match(token.Else) {
		p.consume(token.LBrace, "Expected '{' after else-statement")
		stmt.Else = p.block()
	}

	return stmt
}

func (p *parser) pipelineStmt() ast.Stmt {
	// came from a text literal or '.'
	left := p.cmdStmt()
	if p.match(token.Greater, token.GreaterGreater, token.Less) {
		return p.redirectStmt(left)
	}

	if !p.match(token.Pipe) {
		return left
	}

	if !p.match(token.Dot) {
		p.consume(token.TextLit, "Expected shell command after pipe symbol")
	}
	return &ast.PipelineStmt{
		Base:  p.base(),
		Left:  left.(*ast.CmdStmt),
		Right: p.pipelineStmt(),
	}
}

func (p *parser) redirectStmt(left ast.Stmt) ast.Stmt {
	// already consumed the command and the operator
	return &ast.BinaryStmt{
		Base:      p.base(),
		Left:      left,
		Op:        p.previous().Type,
		RightExpr: p.expression(),
	}
}

func (p *parser) cmdStmt() ast.Stmt {
	// came from a text literal or '.'
	stmt := &ast.CmdStmt{Base: p.base(), Name: p.previous().Lexeme}
	for !p.checkArgEnd() && !p.aborted {
		stmt.Args = append(stmt.Args, p.single())
	}
	return stmt
}

func (p *parser) block() ast.Stmt {
	// came from '{'
	stmt := &ast.BlockStmt{Base: p.base()}
	p.ignore(token.Newline)

	for !p.check(token.RBrace) && !p.isAtEnd() && !p.aborted {
		stmt.Statements = append(stmt.Statements, p.declaration())
	}

	p.consume(token.RBrace, "Expected '}' to terminate block")
	return stmt
}

func (p *parser) assignmentStmt() ast.Stmt {
	expr := p.topLevelExpr()
	if !p.match(token.Equal, token.PlusEqual, token.MinusEqual, token.StarEqual,
		token.StarStarEqual, token.SlashEqual, token.SlashSlashEqual,
		token.PercentEqual) {
		stmt := &ast.ExpressionStmt{Base: p.base(), Expression: expr}
		p.exprPromotion()
		return stmt
	}

	op := p.previous().Type
	value := p.topLevelExpr()
	p.exprPromotion()
	return &ast.AssignStmt{Base: p.base(), Target: expr, Op: op, Value: value}
}

func (p *parser) abruptStmt() ast.Stmt {
	stmt := &ast.AbruptStmt{Base: p.base(), Kind: p.previous().Type}
	if stmt.Kind == token.Return && !p.check(token.Newline) {
		stmt.ReturnExpr = p.expression()
	}
	return stmt
}

/*
 * expressions
 */

func (p *parser) topLevelExpr() ast.Expr {
	expr := p.expression()
	if p.match(token.Comma) {
		seq := p.sequence(token.Newline)
		// edge case: the top level sequence must not consume the
		// terminating newline
		if p.previous().Type == token.Newline {
			p.backup()
		}
		seq.Seq = append([]ast.Expr{expr}, seq.Seq...)
		return seq
	}
	return expr
}

func (p *parser) expression() ast.Expr {
	return p.logicalOr()
}

func (p *parser) sequence(terminator token.Type) *ast.SequenceExpr {
	expr := &ast.SequenceExpr{Base: p.base()}
	for !p.aborted {
		if p.match(terminator) {
			break
		}
		p.ignore(token.Newline)
		expr.Seq = append(expr.Seq, p.expression())
		if terminator != token.Newline {
			p.ignore(token.Newline)
		}
		if p.match(terminator) {
			break
		}
		if !p.match(token.Comma) {
			break
		}
	}
	return expr
}

func (p *parser) binaryLevel(next func() ast.Expr, ops ...token.Type) ast.Expr {
	expr := next()
	for p.match(ops...) {
		op := p.previous().Type
		right := next()
		expr = &ast.BinaryExpr{Base: p.base(), Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *parser) logicalOr() ast.Expr {
	return p.binaryLevel(p.logicalAnd, token.Or)
}

func (p *parser) logicalAnd() ast.Expr {
	return p.binaryLevel(p.equality, token.And)
}

func (p *parser) equality() ast.Expr {
	return p.binaryLevel(p.comparison, token.EqualEqual, token.BangEqual)
}

func (p *parser) comparison() ast.Expr {
	return p.binaryLevel(p.term, token.Greater, token.GreaterEqual, token.Less,
		token.LessEqual)
}

func (p *parser) term() ast.Expr {
	return p.binaryLevel(p.factor, token.Minus, token.Plus)
}

func (p *parser) factor() ast.Expr {
	return p.binaryLevel(p.exponentiation, token.Slash, token.SlashSlash,
		token.Star, token.Percent)
}

func (p *parser) exponentiation() ast.Expr {
	return p.binaryLevel(p.unary, token.StarStar)
}

func (p *parser) unary() ast.Expr {
	if !p.match(token.Not, token.Minus) {
		return p.single()
	}
	return &ast.UnaryExpr{Base: p.base(), Op: p.previous().Type, Right: p.unary()}
}

// single parses a grouping/subshell/subscript/access/primary and then the
// postfix operators `in`, `..`, `as` and call.
func (p *parser) single() ast.Expr {
	var left ast.Expr
	if p.match(token.LParen) {
		if p.check(token.TextLit, token.Dot) {
			left = p.subshell()
		} else {
			p.backup()
			left = p.subscript()
		}
	} else if p.check(token.DotDot) {
		// a leading range initializer '..expr' is rewritten as '0..expr'
		left = &ast.NumberLiteral{Base: p.base(), Value: 0}
	} else {
		left = p.subscript()
	}

	// postfix: calls and casts bind tighter than `in` and `..`, so
	// `f(x) as T in y` groups as `((f(x)) as T) in y`
	for !p.aborted {
		if p.match(token.LParen) {
			call := &ast.CallExpr{Base: p.base(), Callee: left}
			if !p.match(token.RParen) {
				call.Args = p.sequence(token.RParen)
			}
			left = call
			continue
		}
		if p.match(token.As) {
			cast := &ast.CastExpr{Base: p.base(), Expr: left}
			if !p.match(token.Ident, token.StrKw, token.NumKw, token.BoolKw, token.NoneKw) {
				p.errorf(ErrGeneric, "Expected type name after cast")
				return nil
			}
			cast.TypeName = p.previous().Lexeme
			left = cast
			continue
		}
		break
	}

	if p.match(token.In) {
		return &ast.BinaryExpr{
			Base:  p.base(),
			Left:  left,
			Op:    token.In,
			Right: p.expression(),
		}
	}

	if p.match(token.DotDot) {
		return &ast.BinaryExpr{
			Base:  p.base(),
			Left:  left,
			Op:    token.DotDot,
			Right: p.expression(),
		}
	}

	return left
}

func (p *parser) subshell() ast.Expr {
	// came from '('
	if !p.match(token.TextLit, token.Dot) {
		p.backup()
		p.consume(token.TextLit, "Expected command after subshell begin")
	}
	expr := &ast.SubshellExpr{Base: p.base(), Stmt: p.pipelineStmt()}
	p.consume(token.RParen, "Expected ')' after subshell")
	return expr
}

func (p *parser) subscript() ast.Expr {
	expr := p.access()
	for p.match(token.LBracket) {
		index := p.expression()
		p.consume(token.RBracket, "Expected ']' after variable subscript")
		expr = &ast.SubscriptExpr{Base: p.base(), Target: expr, Index: index}
	}
	return expr
}

func (p *parser) access() ast.Expr {
	if !p.match(token.Access) {
		return p.primary()
	}
	return &ast.AccessExpr{Base: p.base(), Name: p.previous().Lexeme}
}

func (p *parser) primary() ast.Expr {
	switch {
	case p.match(token.True, token.False):
		return &ast.BoolLiteral{Base: p.base(), Value: p.previous().Type == token.True}
	case p.match(token.Number):
		return p.number()
	case p.match(token.LBracket):
		return p.list()
	case p.match(token.AtLBracket):
		return p.mapLit()
	case p.match(token.LParen):
		return p.grouping()
	case p.match(token.Func):
		return p.funcDef()
	}

	if !p.match(token.String, token.TextLit) {
		p.errorf(ErrGeneric, "Not a valid primary type")
		return nil
	}

	t := p.previous()
	if t.Type == token.TextLit {
		return &ast.TextLiteral{Base: p.base(), Text: t.Lexeme}
	}
	return &ast.StrExpr{Base: p.base(), Value: t.Lexeme}
}

func (p *parser) number() ast.Expr {
	t := p.previous()
	value, err := parseNumber(t.Lexeme)
	if err != nil {
		p.errorf(ErrGeneric, "Invalid number literal")
	}
	return &ast.NumberLiteral{Base: p.base(), Value: value}
}

// parseNumber converts a number lexeme, handling '_' digit separators
// and 0x/0b base prefixes.
func parseNumber(lexeme string) (float64, error) {
	s := strings.ReplaceAll(lexeme, "_", "")
	if len(s) > 2 {
		switch s[:2] {
		case "0x", "0X":
			n, err := strconv.ParseInt(s[2:], 16, 64)
			return float64(n), err
		case "0b", "0B":
			n, err := strconv.ParseInt(s[2:], 2, 64)
			return float64(n), err
		}
	}
	return strconv.ParseFloat(s, 64)
}

func (p *parser) list() ast.Expr {
	// came from '['
	expr := &ast.ListExpr{Base: p.base()}
	if !p.match(token.RBracket) {
		expr.Elems = p.sequence(token.RBracket)
	}
	return expr
}

func (p *parser) mapLit() ast.Expr {
	// came from '@['
	expr := &ast.MapExpr{Base: p.base()}
	if p.match(token.RBracket) {
		return expr
	}

	for !p.aborted {
		key := p.expression()
		p.consume(token.Colon, "Expected ':' to denote value for key in map expression")
		value := p.expression()
		expr.Entries = append(expr.Entries, ast.KeyValue{Key: key, Value: value})
		p.ignore(token.Newline)
		if !p.match(token.Comma) {
			break
		}
		p.ignore(token.Newline)
		if p.check(token.RBracket) {
			break
		}
	}

	p.consume(token.RBracket, "Expected ']' to terminate map")
	return expr
}

func (p *parser) grouping() ast.Expr {
	// came from '('
	expr := p.expression()
	if p.match(token.Comma) {
		seq := p.sequence(token.RParen)
		seq.Seq = append([]ast.Expr{expr}, seq.Seq...)
		return seq
	}
	p.consume(token.RParen, "Expected ')' after grouping expression")
	return &ast.GroupingExpr{Base: p.base(), Expr: expr}
}

func (p *parser) funcDef() ast.Expr {
	expr := &ast.FunctionExpr{Base: p.base()}
	if p.check(token.Ident) {
		expr.Params = p.params()
	}
	p.consume(token.LBrace, "Expected '{' to open function body")
	expr.Body = p.block().(*ast.BlockStmt)
	return expr
}

func (p *parser) params() []string {
	var params []string
	for !p.aborted {
		p.ignore(token.Newline)
		p.consume(token.Ident, "Expected parameter name")
		params = append(params, p.previous().Lexeme)
		p.ignore(token.Newline)
		if p.check(token.RBrace) || !p.match(token.Comma) {
			break
		}
	}
	return params
}

func (p *parser) base() ast.Base {
	return ast.Base{Line: p.sourceLine}
}
