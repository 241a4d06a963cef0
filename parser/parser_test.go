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

package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/madlambda/spells/assert"
	"github.com/slash-lang/slash/ast"
	"github.com/slash-lang/slash/lexer"
	"github.com/slash-lang/slash/parser"
	"github.com/slash-lang/slash/token"
)

func parse(t *testing.T, src string) parser.Result {
	t.Helper()
	lexResult := lexer.Lex(src)
	assert.IsTrue(t, !lexResult.HadError(), "unexpected lex errors: %v",
		lexResult.Errors.AsError())
	return parser.Parse(lexResult.Tokens)
}

func parseOne(t *testing.T, src string) ast.Stmt {
	t.Helper()
	result := parse(t, src)
	assert.EqualInts(t, 0, len(result.Errors), "unexpected parse errors: %v",
		result.Errors)
	assert.EqualInts(t, 1, len(result.Stmts), "statement count mismatch")
	return result.Stmts[0]
}

func TestParseVarDecl(t *testing.T) {
	stmt := parseOne(t, "var x = 1 + 2\n")

	varStmt, ok := stmt.(*ast.VarStmt)
	assert.IsTrue(t, ok, "expected *ast.VarStmt, got %T", stmt)
	assert.EqualStrings(t, "x", varStmt.Name)

	binary, ok := varStmt.Initializer.(*ast.BinaryExpr)
	assert.IsTrue(t, ok, "expected *ast.BinaryExpr, got %T", varStmt.Initializer)
	assert.EqualInts(t, int(token.Plus), int(binary.Op))
}

func TestParsePrecedence(t *testing.T) {
	stmt := parseOne(t, "var x = 2 + 3 * 4\n")

	varStmt := stmt.(*ast.VarStmt)
	plus, ok := varStmt.Initializer.(*ast.BinaryExpr)
	assert.IsTrue(t, ok, "expected binary initializer")
	assert.EqualInts(t, int(token.Plus), int(plus.Op))

	// multiplication binds tighter and ends up on the right
	mul, ok := plus.Right.(*ast.BinaryExpr)
	assert.IsTrue(t, ok, "expected binary right operand")
	assert.EqualInts(t, int(token.Star), int(mul.Op))
}

func TestParseSeqVarDecl(t *testing.T) {
	stmt := parseOne(t, "var a, b = 1, 2\n")

	seqVar, ok := stmt.(*ast.SeqVarStmt)
	assert.IsTrue(t, ok, "expected *ast.SeqVarStmt, got %T", stmt)
	assert.EqualInts(t, 2, len(seqVar.Names))
	assert.EqualStrings(t, "a", seqVar.Names[0])
	assert.EqualStrings(t, "b", seqVar.Names[1])

	seq, ok := seqVar.Initializer.(*ast.SequenceExpr)
	assert.IsTrue(t, ok, "expected sequence initializer, got %T", seqVar.Initializer)
	assert.EqualInts(t, 2, len(seq.Seq))
}

func TestParseCmd(t *testing.T) {
	stmt := parseOne(t, "grep -rs --color=auto pattern\n")

	cmd, ok := stmt.(*ast.CmdStmt)
	assert.IsTrue(t, ok, "expected *ast.CmdStmt, got %T", stmt)
	assert.EqualStrings(t, "grep", cmd.Name)
	assert.EqualInts(t, 3, len(cmd.Args))
}

func TestParsePipeline(t *testing.T) {
	stmt := parseOne(t, "ls | grep foo | wc -l\n")

	pipeline, ok := stmt.(*ast.PipelineStmt)
	assert.IsTrue(t, ok, "expected *ast.PipelineStmt, got %T", stmt)
	assert.EqualStrings(t, "ls", pipeline.Left.Name)

	inner, ok := pipeline.Right.(*ast.PipelineStmt)
	assert.IsTrue(t, ok, "expected nested pipeline, got %T", pipeline.Right)
	assert.EqualStrings(t, "grep", inner.Left.Name)

	last, ok := inner.Right.(*ast.CmdStmt)
	assert.IsTrue(t, ok, "expected final command, got %T", inner.Right)
	assert.EqualStrings(t, "wc", last.Name)
}

func TestParseRedirect(t *testing.T) {
	type testcase struct {
		name  string
		input string
		op    token.Type
	}

	for _, tc := range []testcase{
		{name: "truncate", input: "echo hi > out.txt\n", op: token.Greater},
		{name: "append", input: "echo hi >> out.txt\n", op: token.GreaterGreater},
		{name: "read", input: "wc -l < in.txt\n", op: token.Less},
	} {
		t.Run(tc.name, func(t *testing.T) {
			stmt := parseOne(t, tc.input)
			binary, ok := stmt.(*ast.BinaryStmt)
			assert.IsTrue(t, ok, "expected *ast.BinaryStmt, got %T", stmt)
			assert.EqualInts(t, int(tc.op), int(binary.Op))
			_, ok = binary.Left.(*ast.CmdStmt)
			assert.IsTrue(t, ok, "expected command on the left")
			assert.IsTrue(t, binary.RightExpr != nil, "expected redirect target")
		})
	}
}

func TestParseIfElifElse(t *testing.T) {
	stmt := parseOne(t, "if $a { echo a } elif $b { echo b } else { echo c }\n")

	ifStmt, ok := stmt.(*ast.IfStmt)
	assert.IsTrue(t, ok, "expected *ast.IfStmt, got %T", stmt)

	elif, ok := ifStmt.Else.(*ast.IfStmt)
	assert.IsTrue(t, ok, "expected elif chain, got %T", ifStmt.Else)

	_, ok = elif.Else.(*ast.BlockStmt)
	assert.IsTrue(t, ok, "expected final else block, got %T", elif.Else)
}

func TestParseLoops(t *testing.T) {
	stmt := parseOne(t, "loop $x < 10 { echo hi }\n")
	_, ok := stmt.(*ast.LoopStmt)
	assert.IsTrue(t, ok, "expected *ast.LoopStmt, got %T", stmt)

	stmt = parseOne(t, "loop i in 0..5 { echo $i }\n")
	iterLoop, ok := stmt.(*ast.IterLoopStmt)
	assert.IsTrue(t, ok, "expected *ast.IterLoopStmt, got %T", stmt)
	assert.EqualStrings(t, "i", iterLoop.VarName)

	rng, ok := iterLoop.Iterable.(*ast.BinaryExpr)
	assert.IsTrue(t, ok, "expected range expression, got %T", iterLoop.Iterable)
	assert.EqualInts(t, int(token.DotDot), int(rng.Op))
}

func TestParseLeadingRangeGetsZeroStart(t *testing.T) {
	stmt := parseOne(t, "loop i in ..5 { echo $i }\n")
	iterLoop := stmt.(*ast.IterLoopStmt)

	rng := iterLoop.Iterable.(*ast.BinaryExpr)
	start, ok := rng.Left.(*ast.NumberLiteral)
	assert.IsTrue(t, ok, "expected synthesized zero, got %T", rng.Left)
	assert.IsTrue(t, start.Value == 0, "expected 0, got %v", start.Value)
}

func TestParseMapLiteral(t *testing.T) {
	stmt := parseOne(t, "var m = @[\"a\": 1, \"b\": 2]\n")

	varStmt := stmt.(*ast.VarStmt)
	mapExpr, ok := varStmt.Initializer.(*ast.MapExpr)
	assert.IsTrue(t, ok, "expected *ast.MapExpr, got %T", varStmt.Initializer)
	assert.EqualInts(t, 2, len(mapExpr.Entries))
}

func TestParseSubshellVsGrouping(t *testing.T) {
	stmt := parseOne(t, "var s = (echo hello)\n")
	varStmt := stmt.(*ast.VarStmt)
	_, ok := varStmt.Initializer.(*ast.SubshellExpr)
	assert.IsTrue(t, ok, "expected subshell, got %T", varStmt.Initializer)

	stmt = parseOne(t, "var g = (1 + 2)\n")
	varStmt = stmt.(*ast.VarStmt)
	_, ok = varStmt.Initializer.(*ast.GroupingExpr)
	assert.IsTrue(t, ok, "expected grouping, got %T", varStmt.Initializer)
}

func TestParseFunctionAndCall(t *testing.T) {
	stmt := parseOne(t, "var f = func x, y { return $x }\n")
	varStmt := stmt.(*ast.VarStmt)
	fn, ok := varStmt.Initializer.(*ast.FunctionExpr)
	assert.IsTrue(t, ok, "expected function, got %T", varStmt.Initializer)
	assert.EqualInts(t, 2, len(fn.Params))

	stmt = parseOne(t, "$f(21)\n")
	exprStmt := stmt.(*ast.ExpressionStmt)
	call, ok := exprStmt.Expression.(*ast.CallExpr)
	assert.IsTrue(t, ok, "expected call, got %T", exprStmt.Expression)
	assert.EqualInts(t, 1, len(call.Args.Seq))
}

func TestParseCastGroupsBeforeIn(t *testing.T) {
	// `x as T in y` groups as `(x as T) in y`
	stmt := parseOne(t, "var r = $x as str in $y\n")
	varStmt := stmt.(*ast.VarStmt)

	in, ok := varStmt.Initializer.(*ast.BinaryExpr)
	assert.IsTrue(t, ok, "expected `in` at the top, got %T", varStmt.Initializer)
	assert.EqualInts(t, int(token.In), int(in.Op))

	_, ok = in.Left.(*ast.CastExpr)
	assert.IsTrue(t, ok, "expected cast on the left, got %T", in.Left)
}

func TestParseAssignments(t *testing.T) {
	type testcase struct {
		name  string
		input string
		op    token.Type
	}

	for _, tc := range []testcase{
		{name: "plain", input: "$x = 1\n", op: token.Equal},
		{name: "plus", input: "$x += 1\n", op: token.PlusEqual},
		{name: "pow", input: "$x **= 2\n", op: token.StarStarEqual},
		{name: "subscript", input: "$m[\"k\"] = 3\n", op: token.Equal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			stmt := parseOne(t, tc.input)
			assign, ok := stmt.(*ast.AssignStmt)
			assert.IsTrue(t, ok, "expected *ast.AssignStmt, got %T", stmt)
			assert.EqualInts(t, int(tc.op), int(assign.Op))
		})
	}
}

func TestParseAndOrChain(t *testing.T) {
	stmt := parseOne(t, "ls && echo yes || echo no\n")

	binary, ok := stmt.(*ast.BinaryStmt)
	assert.IsTrue(t, ok, "expected *ast.BinaryStmt, got %T", stmt)
	assert.EqualInts(t, int(token.PipePipe), int(binary.Op))

	inner, ok := binary.Left.(*ast.BinaryStmt)
	assert.IsTrue(t, ok, "expected nested chain, got %T", binary.Left)
	assert.EqualInts(t, int(token.AnpAnp), int(inner.Op))
}

func TestParseExpectedRBraceClass(t *testing.T) {
	result := parse(t, "if true {\n")
	assert.IsTrue(t, result.HadError(), "expected a parse error")

	last := result.LastError()
	assert.IsTrue(t, last.Kind == parser.ErrExpectedRBrace,
		"expected the expected-rbrace error class, got %q", last.Msg)
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	result := parse(t, "var = 1\nvar = 2\n")
	assert.IsTrue(t, len(result.Errors) >= 2,
		"expected at least 2 errors, got %d", len(result.Errors))
}

func TestParseErrorLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < parser.MaxParseErrors*2; i++ {
		sb.WriteString(fmt.Sprintf("var = %d\n", i))
	}

	result := parse(t, sb.String())
	assert.IsTrue(t, result.HadError(), "expected parse errors")
	assert.IsTrue(t, len(result.Errors) <= parser.MaxParseErrors,
		"error count %d over the bound", len(result.Errors))
}
