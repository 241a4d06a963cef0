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

package interp_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/madlambda/spells/assert"
	"github.com/slash-lang/slash/interp"
	"github.com/slash-lang/slash/lexer"
	"github.com/slash-lang/slash/parser"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, src string) runResult {
	t.Helper()

	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}

	lexResult := lexer.Lex(src)
	assert.IsTrue(t, !lexResult.HadError(), "unexpected lex errors: %v",
		lexResult.Errors.AsError())
	parseResult := parser.Parse(lexResult.Tokens)
	assert.EqualInts(t, 0, len(parseResult.Errors), "unexpected parse errors: %v",
		parseResult.Errors)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	ip := interp.New([]string{"slash"}, strings.NewReader(""), stdout, stderr)
	defer ip.Close()

	code := ip.Run(parseResult.Stmts)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestArithmeticAndTruthiness(t *testing.T) {
	result := run(t, "var x = 2 + 3 * 4\nassert $x == 14\nassert $x\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
	assert.EqualStrings(t, "", result.stdout)
}

func TestSubshellCapture(t *testing.T) {
	result := run(t, "var s = (echo hello)\nassert $s == \"hello\"\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestIterLoopRangeWithBreak(t *testing.T) {
	result := run(t, "var n = 0\nloop i in 0..5 { $n += $i; if $i == 3 { break } }\nassert $n == 6\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestMapSubscriptAssignAndIn(t *testing.T) {
	src := `var m = @["a": 1, "b": 2]
$m["c"] = 3
assert "c" in $m
assert $m["c"] == 3
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestFunctionClosureByCopy(t *testing.T) {
	result := run(t, "var f = func x { return $x * 2 }\nassert $f(21) == 42\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestExpressionStatementPrints(t *testing.T) {
	result := run(t, "1 + 2\n")
	assert.EqualInts(t, 0, result.code)
	assert.EqualStrings(t, "3\n", result.stdout)
}

func TestStringConcatAndCompare(t *testing.T) {
	src := `var a = "foo" + "bar"
assert $a == "foobar"
assert "foo" < "fop"
assert "ba" in $a
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestNumberSemantics(t *testing.T) {
	src := `assert 7 // 2 == 3
assert 2 ** 10 == 1024
assert -7 % 3 == 2
assert 0xff == 255
assert 0b1010 == 10
assert 1_000 == 1000
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	result := run(t, "var x = 1 / 0\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "[Slash Runtime Error]"),
		"stderr: %s", result.stderr)
}

func TestRuntimeErrorRecoversPerStatement(t *testing.T) {
	// the failing statement sets $? to 1 and the next statement runs
	result := run(t, "var x = 1 / 0\nassert $? == 1\necho ok\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
	assert.IsTrue(t, strings.Contains(result.stdout, "ok\n"), "stdout: %s", result.stdout)
}

func TestMissingOperatorIsRuntimeError(t *testing.T) {
	result := run(t, "var x = true + false\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "'+' operator not defined for type 'bool'"),
		"stderr: %s", result.stderr)
}

func TestTypeMismatchIsRuntimeError(t *testing.T) {
	result := run(t, "var x = 1 + \"one\"\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "type mismatch"),
		"stderr: %s", result.stderr)
}

func TestNoneComparesFalsey(t *testing.T) {
	// none on the left of a binary operation with a non-none right
	// short-circuits to false
	result := run(t, "assert not ($undefined == 1)\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestVarRedefinitionIsRuntimeError(t *testing.T) {
	result := run(t, "var x = 1\nvar x = 2\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "Redefinition of 'x'"),
		"stderr: %s", result.stderr)
}

func TestAssignToUndefinedIsRuntimeError(t *testing.T) {
	result := run(t, "$nope = 1\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "Variable 'nope' is not defined"),
		"stderr: %s", result.stderr)
}

func TestListSemantics(t *testing.T) {
	src := `var l = [1, 2] + [3]
assert $l == [1, 2, 3]
assert $l[0] == 1
$l[2] = 9
assert $l[2] == 9
assert 9 in $l
assert not (4 in $l)
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestTupleSemantics(t *testing.T) {
	src := `var t = (1, "a", true)
assert $t[1] == "a"
assert "a" in $t
var a, b = (1, 2)
assert $a == 1
assert $b == 2
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestTupleKeysInMap(t *testing.T) {
	src := `var m = @[(1, 2): "pair"]
assert $m[(1, 2)] == "pair"
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestStrSubscriptAndSlice(t *testing.T) {
	src := `var s = "hello"
assert $s[1] == "e"
assert $s[1..3] == "el"
$s[0] = "j"
assert $s == "jello"
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestRangeSemantics(t *testing.T) {
	src := `var r = 0..5
assert $r[2] == 2
assert 2 in $r
var d = 5..0
assert $d[1] == 4
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestWhileLoop(t *testing.T) {
	src := `var n = 0
loop $n < 5 { $n += 1 }
assert $n == 5
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestIterLoopOverList(t *testing.T) {
	src := `var total = 0
loop x in [1, 2, 3] { $total += $x }
assert $total == 6
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestIterLoopOverStrSplitsOnIFS(t *testing.T) {
	src := `var words = 0
loop w in "a b c" { $words += 1 }
assert $words == 3
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestIterLoopOverMapIteratesKeys(t *testing.T) {
	src := `var keys = []
loop k in @["a": 1, "b": 2] { $keys += [$k] }
assert $keys == ["a", "b"]
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestDescendingRangeIteratesZeroTimes(t *testing.T) {
	src := `var n = 0
loop i in 5..0 { $n += 1 }
assert $n == 0
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestCasts(t *testing.T) {
	src := `assert "10" as num == 10
assert 10 as str == "10"
assert (1, 2) as tuple == (1, 2)
assert "" as bool == false
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestSubshellAsBoolUsesExitCode(t *testing.T) {
	// the run's exit code is that of the last command, so the command
	// exiting 0 runs last
	src := `assert not ((sh -c "exit 1") as bool)
assert (ls) as bool
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestExitCodeTracking(t *testing.T) {
	result := run(t, "sh -c \"exit 1\"\nassert $? == 1\nsh -c \"exit 0\"\nassert $? == 0\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestAndOrCommandChaining(t *testing.T) {
	result := run(t, "true && echo yes\nfalse || echo no\nfalse && echo never\n")
	assert.IsTrue(t, strings.Contains(result.stdout, "yes\n"), "stdout: %s", result.stdout)
	assert.IsTrue(t, strings.Contains(result.stdout, "no\n"), "stdout: %s", result.stdout)
	assert.IsTrue(t, !strings.Contains(result.stdout, "never"), "stdout: %s", result.stdout)
}

func TestPipeline(t *testing.T) {
	result := run(t, "var n = (echo hello | wc -c)\nassert $n as num == 6\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestRedirects(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	src := `echo one > "` + out + `"
echo two >> "` + out + `"
`
	result := run(t, src)
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)

	data, err := os.ReadFile(out)
	assert.NoError(t, err, "reading redirect target")
	assert.EqualStrings(t, "one\ntwo\n", string(data))

	result = run(t, `var n = (wc -l < "`+out+`")`+"\nassert $n as num == 2\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestCommandNotFound(t *testing.T) {
	result := run(t, "definitely-not-a-command-xyz\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "not found"), "stderr: %s", result.stderr)
}

func TestWhichBuiltin(t *testing.T) {
	result := run(t, "which cd\n")
	assert.EqualInts(t, 0, result.code)
	assert.EqualStrings(t, "cd: slash builtin\n", result.stdout)
}

func TestExitBuiltin(t *testing.T) {
	result := run(t, "exit 3\necho never\n")
	assert.EqualInts(t, 3, result.code)
	assert.IsTrue(t, !strings.Contains(result.stdout, "never"), "stdout: %s", result.stdout)
}

func TestReadBuiltin(t *testing.T) {
	src := "read answer\nassert $answer == \"forty two\"\n"

	lexResult := lexer.Lex(src)
	assert.IsTrue(t, !lexResult.HadError(), "unexpected lex errors")
	parseResult := parser.Parse(lexResult.Tokens)
	assert.EqualInts(t, 0, len(parseResult.Errors), "unexpected parse errors")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	ip := interp.New([]string{"slash"}, strings.NewReader("forty two\n"), stdout, stderr)
	defer ip.Close()

	code := ip.Run(parseResult.Stmts)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr.String())
}

func TestAssertFailure(t *testing.T) {
	result := run(t, "assert false\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "Assertion failed"),
		"stderr: %s", result.stderr)
}

func TestFunctionArityMismatch(t *testing.T) {
	result := run(t, "var f = func a, b { return $a }\n$f(1)\n")
	assert.EqualInts(t, 1, result.code)
	assert.IsTrue(t, strings.Contains(result.stderr, "arguments"),
		"stderr: %s", result.stderr)
}

func TestEnvironmentIsMirrored(t *testing.T) {
	t.Setenv("SLASH_TEST_VALUE", "mirrored")
	result := run(t, "assert $SLASH_TEST_VALUE == \"mirrored\"\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestSlashVersionIsDefined(t *testing.T) {
	result := run(t, "assert $SLASH_VERSION\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}

func TestPositionalArgs(t *testing.T) {
	src := "assert $0 == \"slash\"\nassert $1 == \"first\"\n"

	lexResult := lexer.Lex(src)
	assert.IsTrue(t, !lexResult.HadError(), "unexpected lex errors")
	parseResult := parser.Parse(lexResult.Tokens)
	assert.EqualInts(t, 0, len(parseResult.Errors), "unexpected parse errors")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	ip := interp.New([]string{"slash", "first"}, strings.NewReader(""), stdout, stderr)
	defer ip.Close()

	code := ip.Run(parseResult.Stmts)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr.String())
}

func TestTildeExpansionOnTextConversion(t *testing.T) {
	// tilde lives inside text literals and expands when the text is
	// converted to a str, here while building the echo argv
	t.Setenv("HOME", "/home/slashtest")
	result := run(t, "var p = (echo ~/notes)\nassert $p == \"/home/slashtest/notes\"\n")
	assert.EqualInts(t, 0, result.code, "stderr: %s", result.stderr)
}
