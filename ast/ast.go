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

// Package ast defines the abstract syntax tree of the slash language.
//
// There are two node families: Expr for expressions and Stmt for
// statements. Every node carries the source line it starts on for
// diagnostics.
package ast

import "github.com/slash-lang/slash/token"

// Node is the interface implemented by every AST node.
type Node interface {
	// SourceLine is the line (zero based) the node starts on.
	SourceLine() int
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type Base struct {
	Line int
}

func (b Base) SourceLine() int { return b.Line }


/*
 * Expressions
 */

// UnaryExpr is `not expr` or `-expr`.
type UnaryExpr struct {
	Base
	Op    token.Type
	Right Expr
}

// BinaryExpr is `left op right` for arithmetic, comparison, logical,
// `in` and `..` operators.
type BinaryExpr struct {
	Base
	Left  Expr
	Op    token.Type
	Right Expr
}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	Base
	Value bool
}

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	Base
	Value float64
}

// TextLiteral is a bare word: a command name or a command argument.
// Tilde expansion and quoting only apply when it is converted to a str.
type TextLiteral struct {
	Base
	Text string
}

// AccessExpr reads a variable: `$name` or `$?`.
type AccessExpr struct {
	Base
	// Name of the variable, without the leading '$'.
	Name string
}

// SubscriptExpr is `expr[index]`.
type SubscriptExpr struct {
	Base
	Target Expr
	Index  Expr
}

// SubshellExpr is `( stmt )`: the statement executes with its stdout
// captured into a str.
type SubshellExpr struct {
	Base
	Stmt Stmt
}

// StrExpr is a quoted string literal.
type StrExpr struct {
	Base
	Value string
}

// ListExpr is `[a, b, ...]`. Elems is nil for the empty list.
type ListExpr struct {
	Base
	Elems *SequenceExpr
}

// FunctionExpr is `func a, b { body }`.
type FunctionExpr struct {
	Base
	Params []string
	Body   *BlockStmt
}

// KeyValue is a single `key: value` entry of a map literal.
type KeyValue struct {
	Key   Expr
	Value Expr
}

// MapExpr is `@[k: v, ...]`.
type MapExpr struct {
	Base
	Entries []KeyValue
}

// SequenceExpr is a comma separated sequence of expressions. It is the
// source of tuple literals and of parallel assignment unpacking.
type SequenceExpr struct {
	Base
	Seq []Expr
}

// GroupingExpr is `( expr )`.
type GroupingExpr struct {
	Base
	Expr Expr
}

// CastExpr is `expr as type`.
type CastExpr struct {
	Base
	Expr     Expr
	TypeName string
}

// CallExpr is `callee(args...)`. Args is nil when no arguments are
// passed.
type CallExpr struct {
	Base
	Callee Expr
	Args   *SequenceExpr
}

func (*UnaryExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*BoolLiteral) exprNode()   {}
func (*NumberLiteral) exprNode() {}
func (*TextLiteral) exprNode()   {}
func (*AccessExpr) exprNode()    {}
func (*SubscriptExpr) exprNode() {}
func (*SubshellExpr) exprNode()  {}
func (*StrExpr) exprNode()       {}
func (*ListExpr) exprNode()      {}
func (*FunctionExpr) exprNode()  {}
func (*MapExpr) exprNode()       {}
func (*SequenceExpr) exprNode()  {}
func (*GroupingExpr) exprNode()  {}
func (*CastExpr) exprNode()      {}
func (*CallExpr) exprNode()      {}

/*
 * Statements
 */

// ExpressionStmt is a bare expression used as a statement. Its value is
// printed, except for call expressions.
type ExpressionStmt struct {
	Base
	Expression Expr
}

// VarStmt is `var name = initializer`.
type VarStmt struct {
	Base
	Name        string
	Initializer Expr
}

// SeqVarStmt is `var a, b, c = initializer`, binding names in parallel.
type SeqVarStmt struct {
	Base
	Names       []string
	Initializer Expr
}

// LoopStmt is `loop condition { body }`.
type LoopStmt struct {
	Base
	Condition Expr
	Body      *BlockStmt
}

// IterLoopStmt is `loop name in iterable { body }`.
type IterLoopStmt struct {
	Base
	VarName  string
	Iterable Expr
	Body     *BlockStmt
}

// IfStmt is `if cond { } elif ... else { }`. Else is either *IfStmt for
// elif chains or *BlockStmt for the final else, or nil.
type IfStmt struct {
	Base
	Condition Expr
	Then      *BlockStmt
	Else      Stmt
}

// CmdStmt is an external command or builtin invocation.
type CmdStmt struct {
	Base
	Name string
	Args []Expr
}

// AssignStmt assigns to a variable, a subscript or a sequence of
// variables (unpacking).
type AssignStmt struct {
	Base
	Target Expr
	Op     token.Type
	Value  Expr
}

// BlockStmt is `{ stmts }`.
type BlockStmt struct {
	Base
	Statements []Stmt
}

// PipelineStmt is `left | right` where right is a CmdStmt, another
// PipelineStmt or a redirect.
type PipelineStmt struct {
	Base
	Left  *CmdStmt
	Right Stmt
}

// AssertStmt is `assert expr`.
type AssertStmt struct {
	Base
	Expr Expr
}

// BinaryStmt is either `left && right` / `left || right` chaining, or a
// redirection `cmd > expr`, `cmd >> expr`, `cmd < expr`. For chaining
// RightStmt is set, for redirections RightExpr is.
type BinaryStmt struct {
	Base
	Left      Stmt
	Op        token.Type
	RightStmt Stmt
	RightExpr Expr
}

// AbruptStmt is `break`, `continue` or `return [expr]`.
type AbruptStmt struct {
	Base
	Kind token.Type
	// ReturnExpr is only set for `return expr`.
	ReturnExpr Expr
}

func (*ExpressionStmt) stmtNode() {}
func (*VarStmt) stmtNode()        {}
func (*SeqVarStmt) stmtNode()     {}
func (*LoopStmt) stmtNode()       {}
func (*IterLoopStmt) stmtNode()   {}
func (*IfStmt) stmtNode()         {}
func (*CmdStmt) stmtNode()        {}
func (*AssignStmt) stmtNode()     {}
func (*BlockStmt) stmtNode()      {}
func (*PipelineStmt) stmtNode()   {}
func (*AssertStmt) stmtNode()     {}
func (*BinaryStmt) stmtNode()     {}
func (*AbruptStmt) stmtNode()     {}
