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

package interp

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/slash-lang/slash/ast"
)

// builtinFunc is the signature shared by every builtin. The arguments
// arrive unevaluated so builtins like `read` can inspect the raw text.
// The return value becomes the exit code.
type builtinFunc func(ip *Interpreter, args []ast.Expr) int

var builtins map[string]builtinFunc

func init() {
	// populated in init to break the initialization cycle between the
	// table and the which builtin consulting it
	builtins = map[string]builtinFunc{
		"which": builtinWhich,
		"cd":    builtinCd,
		"vars":  builtinVars,
		"exit":  builtinExit,
		"read":  builtinRead,
		".":     builtinDot,
		"time":  builtinTime,
	}
}

func (ip *Interpreter) eprintf(format string, args ...interface{}) {
	fmt.Fprintf(ip.streamCtx.Err, format, args...)
}

func builtinWhich(ip *Interpreter, args []ast.Expr) int {
	if len(args) == 0 {
		ip.eprintf("which: no argument received\n")
		return 1
	}

	argv := ip.argvFromExprs(args[:1])
	name := argv[0]

	path := ip.getOrThrow("PATH")
	if !path.Value.IsStr() {
		ip.eprintf("which: PATH variable should be type '%s' not '%s'\n",
			strType.Name, path.Value.T.Name)
		return 1
	}

	result := which(name, path.Value.AsStr().S)
	switch result.Kind {
	case WhichBuiltin:
		ip.print(name + ": slash builtin\n")
	case WhichExtern:
		ip.print(result.Path + "\n")
	case WhichNotFound:
		ip.print(name + " not found\n")
		return 1
	}
	return 0
}

func builtinCd(ip *Interpreter, args []ast.Expr) int {
	if len(args) == 0 {
		ip.eprintf("cd: no argument received\n")
		return 1
	}

	argv := ip.argvFromExprs(args[:1])
	if err := os.Chdir(argv[0]); err != nil {
		ip.eprintf("cd: %s\n", err)
		return 1
	}
	return 0
}

func builtinVars(ip *Interpreter, args []ast.Expr) int {
	for scope := ip.scope; scope != nil; scope = scope.enclosing {
		for name, value := range scope.vars {
			ip.print(name + "=")
			verifyTrait(value.T.Print != nil,
				"print not defined for type '%s'", value.T.Name)
			value.T.Print(ip, value)
			ip.print("\n")
		}
	}
	return 0
}

func builtinExit(ip *Interpreter, args []ast.Expr) int {
	if len(args) == 0 {
		panic(exitRequest{code: 0})
	}

	arg := ip.eval(args[0])
	switch {
	case arg.IsNum():
		panic(exitRequest{code: int(arg.Num)})
	case arg.IsText():
		code, err := strconv.Atoi(strings.TrimSpace(arg.Text))
		if err != nil {
			panic(exitRequest{code: 2})
		}
		panic(exitRequest{code: code})
	}
	panic(exitRequest{code: 2})
}

func builtinRead(ip *Interpreter, args []ast.Expr) int {
	// usage: read VARIABLE
	if len(args) == 0 {
		ip.eprintf("read: no argument received\n")
		return 1
	}
	if len(args) > 1 {
		ip.eprintf("read: too many arguments received, expected one\n")
		return 1
	}

	arg := ip.eval(args[0])
	if !arg.IsText() {
		ip.eprintf("read: expected argument to be text, not '%s'\n", arg.T.Name)
		return 1
	}

	ip.print(">>> ")
	line, err := ip.stdin.ReadString('\n')
	if err != nil && line == "" {
		return 1
	}
	line = strings.TrimRight(line, "\n")

	ip.scope.Define(arg.Text, ip.newStr(line))
	return 0
}

// builtinDot executes commands from a file in the working directory:
// `. file` runs `./file`.
func builtinDot(ip *Interpreter, args []ast.Expr) int {
	if len(args) == 0 {
		ip.eprintf(".: not enough arguments\n")
		return 1
	}

	first, ok := args[0].(*ast.TextLiteral)
	if !ok {
		ip.eprintf(".: expected file name\n")
		return 1
	}

	ip.execProgramStub("./"+first.Text, args[1:])
	return ip.prevExitCode
}

func builtinTime(ip *Interpreter, args []ast.Expr) int {
	if len(args) == 0 {
		ip.eprintf("time: no argument received\n")
		return 1
	}

	argv := ip.argvFromExprs(args)

	path := ip.getOrThrow("PATH")
	if !path.Value.IsStr() {
		ip.eprintf("time: PATH variable should be type '%s' not '%s'\n",
			strType.Name, path.Value.T.Name)
		return 1
	}
	result := which(argv[0], path.Value.AsStr().S)
	if result.Kind != WhichExtern {
		ip.eprintf("time: command '%s' not found\n", argv[0])
		return 1
	}
	argv[0] = result.Path

	start := time.Now()
	ctx := &ip.streamCtx
	cmd := exec.Cmd{
		Path:   argv[0],
		Args:   argv,
		Env:    os.Environ(),
		Stdin:  ctx.In,
		Stdout: ctx.Out,
		Stderr: ctx.Err,
	}

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			ip.eprintf("time: %s\n", err)
			return 1
		}
	}

	real := time.Since(start).Seconds()
	var user, sys float64
	if cmd.ProcessState != nil {
		user = cmd.ProcessState.UserTime().Seconds()
		sys = cmd.ProcessState.SystemTime().Seconds()
	}
	ip.print(fmt.Sprintf("real\t%.3f\n", real))
	ip.print(fmt.Sprintf("user\t%.3f\n", user))
	ip.print(fmt.Sprintf("sys\t%.3f\n", sys))

	return exitCode
}
