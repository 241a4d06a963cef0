package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/madlambda/spells/assert"
	"github.com/slash-lang/slash/cmd/slash/cli"
)

func runCLI(t *testing.T, args []string, stdin string) (int, string, string) {
	t.Helper()

	// keep host configuration out of the test
	t.Setenv("SLASH_CONFIG_DIR", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := cli.Run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCommandString(t *testing.T) {
	code, stdout, stderr := runCLI(t, []string{"-c", "echo hello"}, "")
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.EqualStrings(t, "hello\n", stdout)
}

func TestRunCommandStringExitCode(t *testing.T) {
	code, _, _ := runCLI(t, []string{"-c", "exit 4"}, "")
	assert.EqualInts(t, 4, code)
}

func TestRunCommandStringRuntimeError(t *testing.T) {
	code, _, stderr := runCLI(t, []string{"-c", "var x = 1 / 0"}, "")
	assert.EqualInts(t, 1, code)
	assert.IsTrue(t, strings.Contains(stderr, "[Slash Runtime Error]"),
		"stderr: %s", stderr)
}

func TestRunCommandStringLexError(t *testing.T) {
	code, _, stderr := runCLI(t, []string{"-c", "var x = \"unterminated"}, "")
	assert.EqualInts(t, 1, code)
	assert.IsTrue(t, strings.Contains(stderr, "Unterminated string literal"),
		"stderr: %s", stderr)
}

func TestRunCommandStringParseError(t *testing.T) {
	code, _, stderr := runCLI(t, []string{"-c", "var = 1"}, "")
	assert.EqualInts(t, 1, code)
	assert.IsTrue(t, strings.Contains(stderr, "Error during parsing"),
		"stderr: %s", stderr)
}

func TestRunScriptFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script.slash")
	src := "assert $1 == \"first\"\necho from-script\n"
	assert.NoError(t, os.WriteFile(script, []byte(src), 0o644), "writing script")

	code, stdout, stderr := runCLI(t, []string{script, "first"}, "")
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.EqualStrings(t, "from-script\n", stdout)
}

func TestRunMissingScriptFile(t *testing.T) {
	code, _, stderr := runCLI(t, []string{"/definitely/not/there.slash"}, "")
	assert.EqualInts(t, 1, code)
	assert.IsTrue(t, strings.Contains(stderr, "could not read file"),
		"stderr: %s", stderr)
}

func TestREPLExecutesStatements(t *testing.T) {
	code, stdout, stderr := runCLI(t, nil, "var x = 40 + 2\necho $x\n")
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.IsTrue(t, strings.Contains(stdout, "42\n"), "stdout: %s", stdout)
}

func TestREPLContinuation(t *testing.T) {
	stdin := "if true {\necho ok\n}\n"
	code, stdout, stderr := runCLI(t, nil, stdin)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)

	// the prompt switches to the continuation prompt after the open
	// block and back once it closes
	assert.IsTrue(t, strings.Contains(stdout, "-> "), "stdout: %s", stdout)
	assert.IsTrue(t, strings.Contains(stdout, ".. "), "stdout: %s", stdout)
	assert.IsTrue(t, strings.Contains(stdout, "ok\n"), "stdout: %s", stdout)
}

func TestREPLRecoversAfterRuntimeError(t *testing.T) {
	stdin := "var x = 1 / 0\nassert $? == 1\necho recovered\n"
	code, stdout, stderr := runCLI(t, nil, stdin)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.IsTrue(t, strings.Contains(stderr, "[Slash Runtime Error]"),
		"stderr: %s", stderr)
	assert.IsTrue(t, strings.Contains(stdout, "recovered\n"), "stdout: %s", stdout)
}

func TestREPLExit(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "exit 7\necho never\n")
	assert.EqualInts(t, 7, code)
	assert.IsTrue(t, !strings.Contains(stdout, "never"), "stdout: %s", stdout)
}

func TestREPLStatePersistsAcrossCommands(t *testing.T) {
	stdin := "var x = 1\n$x += 1\nassert $x == 2\necho done\n"
	code, stdout, stderr := runCLI(t, nil, stdin)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.IsTrue(t, strings.Contains(stdout, "done\n"), "stdout: %s", stdout)
}

func TestREPLFunctionSurvivesReset(t *testing.T) {
	// the function body is deep copied at definition time, so calling
	// it on a later command (after the defining AST is gone) works
	stdin := "var f = func x { return $x * 2 }\nassert $f(21) == 42\necho called\n"
	code, stdout, stderr := runCLI(t, nil, stdin)
	assert.EqualInts(t, 0, code, "stderr: %s", stderr)
	assert.IsTrue(t, strings.Contains(stdout, "called\n"), "stdout: %s", stdout)
}

func TestVersionFlag(t *testing.T) {
	code, _, _ := runCLI(t, []string{"--version"}, "")
	assert.EqualInts(t, 0, code)
}
