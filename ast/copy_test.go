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

package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/madlambda/spells/assert"
	"github.com/slash-lang/slash/ast"
	"github.com/slash-lang/slash/lexer"
	"github.com/slash-lang/slash/parser"
)

func parseStmts(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	lexResult := lexer.Lex(src)
	assert.IsTrue(t, !lexResult.HadError(), "unexpected lex errors")
	parseResult := parser.Parse(lexResult.Tokens)
	assert.EqualInts(t, 0, len(parseResult.Errors), "unexpected parse errors: %v",
		parseResult.Errors)
	return parseResult.Stmts
}

func TestCopyStmtIsDeeplyEqual(t *testing.T) {
	type testcase struct {
		name string
		src  string
	}

	for _, tc := range []testcase{
		{name: "var with arithmetic", src: "var x = 1 + 2 * 3\n"},
		{name: "function definition", src: "var f = func a, b { return $a + $b }\n"},
		{name: "iter loop with break", src: "loop i in 0..5 { if $i == 3 { break } }\n"},
		{name: "pipeline with redirect", src: "ls | grep foo > out.txt\n"},
		{name: "map and subscript", src: "var m = @[\"a\": 1]; $m[\"b\"] = 2\n"},
		{name: "tuple unpack", src: "var a, b = 1, 2\n"},
		{name: "subshell capture", src: "var s = (echo hello)\n"},
		{name: "cast", src: "var n = \"10\" as num\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, stmt := range parseStmts(t, tc.src) {
				copied := ast.CopyStmt(stmt)
				if diff := cmp.Diff(stmt, copied); diff != "" {
					t.Fatalf("deep copy mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestCopyStmtIsIndependent(t *testing.T) {
	stmts := parseStmts(t, "var f = func x { return $x * 2 }\n")
	original := stmts[0].(*ast.VarStmt)
	copied := ast.CopyStmt(original).(*ast.VarStmt)

	// mutating the original must not leak into the copy
	fn := original.Initializer.(*ast.FunctionExpr)
	fn.Params[0] = "mutated"
	fn.Body.Statements[0] = &ast.AssertStmt{}

	copiedFn := copied.Initializer.(*ast.FunctionExpr)
	assert.EqualStrings(t, "x", copiedFn.Params[0])
	_, isReturn := copiedFn.Body.Statements[0].(*ast.AbruptStmt)
	assert.IsTrue(t, isReturn, "copied body was mutated through the original")
}
