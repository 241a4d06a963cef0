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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/slash-lang/slash/ast"
	"github.com/slash-lang/slash/errors"
	"github.com/slash-lang/slash/token"
)

// Interpreter executes slash programs by walking their AST. It owns the
// scope chain, the garbage collector, the type registry and the stream
// context. A single Interpreter survives across REPL commands so state
// accumulates between them.
type Interpreter struct {
	globals *Scope
	scope   *Scope

	gc           gc
	typeRegister map[string]*TypeInfo

	streamCtx StreamCtx
	execRes   execResult

	prevExitCode int
	sourceLine   int
	exited       bool

	// stdin held separately from the stream context so builtins reading
	// interactive input are unaffected by redirections.
	stdin *bufio.Reader

	defaultIn  io.Reader
	defaultOut io.Writer
	defaultErr io.Writer
}

type execResultType int

const (
	rtNormal execResultType = iota
	rtBreak
	rtContinue
	rtReturn
)

// execResult threads abrupt control flow (break/continue/return) out of
// block execution towards the loop or function that consumes it.
type execResult struct {
	typ        execResultType
	returnExpr ast.Expr
}

// New creates an interpreter with globals seeded from the process
// environment and the given positional arguments.
func New(argv []string, stdin io.Reader, stdout, stderr io.Writer) *Interpreter {
	ip := &Interpreter{
		globals:      newGlobals(argv),
		typeRegister: make(map[string]*TypeInfo),
		defaultIn:    stdin,
		defaultOut:   stdout,
		defaultErr:   stderr,
		stdin:        bufio.NewReader(stdin),
	}
	ip.scope = ip.globals
	ip.gc.init(ip)
	ip.streamCtx = StreamCtx{In: stdin, Out: stdout, Err: stderr}
	ip.sourceLine = -1

	for _, t := range []*TypeInfo{
		boolType, numType, rangeType, textLitType,
		listType, tupleType, strType, mapType, noneType,
	} {
		if t.Truthy == nil || t.Eq == nil {
			internalf("type '%s' misses a mandatory trait", t.Name)
		}
		ip.typeRegister[t.Name] = t
	}

	log.Debug().
		Str("action", "interp.New()").
		Str("session", uuid.NewString()).
		Msg("interpreter session started")

	return ip
}

// TuneGC overrides the collector thresholds. Zero values keep the
// built-in defaults.
func (ip *Interpreter) TuneGC(minRunBytes, growFactor int) {
	if minRunBytes > 0 {
		ip.gc.minRun = minRunBytes
	}
	if growFactor > 0 {
		ip.gc.growFactor = growFactor
	}
	ip.gc.nextRun = ip.gc.bytesManaging * ip.gc.growFactor
	if ip.gc.nextRun < ip.gc.minRun {
		ip.gc.nextRun = ip.gc.minRun
	}
}

// Exited tells if an exit builtin ran.
func (ip *Interpreter) Exited() bool { return ip.exited }

// ExitCode returns the exit code of the last executed command.
func (ip *Interpreter) ExitCode() int { return ip.prevExitCode }

// Close releases every object still tracked by the GC.
func (ip *Interpreter) Close() {
	ip.gc.collectAll()
}

// Run executes the given statements and returns the resulting exit
// code. A runtime error aborts the offending statement, resets the
// interpreter transient state, sets `$?` to 1 and the next statement is
// attempted.
func (ip *Interpreter) Run(stmts []ast.Stmt) int {
	for _, stmt := range stmts {
		if ip.exited {
			break
		}
		ip.runOne(stmt)
	}
	return ip.prevExitCode
}

func (ip *Interpreter) runOne(stmt ast.Stmt) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch v := r.(type) {
		case runtimeError:
			ip.reportRuntimeError(v.err)
			ip.resetFromError()
			ip.setExitCode(1)
		case exitRequest:
			ip.exited = true
			ip.prevExitCode = v.code
		default:
			panic(r)
		}
	}()

	ip.exec(stmt)
}

func (ip *Interpreter) reportRuntimeError(err *errors.Error) {
	fmt.Fprintf(ip.streamCtx.Err, "[Slash Runtime Error]: %s\n", err.Description)
}

// resetFromError restores the interpreter to a clean state after a
// runtime error unwound the evaluator: shadow stack and barriers are
// dropped, every non-global scope is destroyed and the stream context
// returns to the stdio defaults.
func (ip *Interpreter) resetFromError() {
	ip.gc.resetAfterError()
	ip.scope = ip.globals
	ip.streamCtx.reset(ip.defaultIn, ip.defaultOut, ip.defaultErr)
	ip.execRes = execResult{}
	ip.sourceLine = -1
}

func (ip *Interpreter) setExitCode(code int) {
	ip.prevExitCode = code
	ip.globals.Assign("?", NumValue(float64(code)))
}

func (ip *Interpreter) print(s string) {
	io.WriteString(ip.streamCtx.Out, s)
}

func (ip *Interpreter) consumeExecResult() execResult {
	tmp := ip.execRes
	ip.execRes = execResult{}
	return tmp
}

func (ip *Interpreter) execBlockBody(block *ast.BlockStmt) execResult {
	for _, stmt := range block.Statements {
		ip.exec(stmt)
		if ip.execRes.typ != rtNormal {
			return ip.consumeExecResult()
		}
	}
	return execResult{}
}

/*
 * expression evaluation
 */

func (ip *Interpreter) eval(expr ast.Expr) Value {
	ip.sourceLine = expr.SourceLine()
	switch e := expr.(type) {
	case *ast.UnaryExpr:
		return ip.evalUnary(e)
	case *ast.BinaryExpr:
		return ip.evalBinary(e)
	case *ast.BoolLiteral:
		return BoolValue(e.Value)
	case *ast.NumberLiteral:
		return NumValue(e.Value)
	case *ast.TextLiteral:
		return TextValue(e.Text)
	case *ast.AccessExpr:
		return ip.evalAccess(e)
	case *ast.SubscriptExpr:
		return ip.evalSubscript(e)
	case *ast.SubshellExpr:
		return ip.evalSubshell(e)
	case *ast.StrExpr:
		return ip.newStr(e.Value)
	case *ast.ListExpr:
		return ip.evalList(e)
	case *ast.FunctionExpr:
		return ip.evalFunction(e)
	case *ast.MapExpr:
		return ip.evalMap(e)
	case *ast.SequenceExpr:
		return ip.evalTuple(e)
	case *ast.GroupingExpr:
		return ip.eval(e.Expr)
	case *ast.CastExpr:
		return ip.evalCast(e)
	case *ast.CallExpr:
		return ip.evalCall(e)
	}
	throwf("Internal error: expression type not recognized")
	return None
}

func (ip *Interpreter) evalUnary(expr *ast.UnaryExpr) Value {
	right := ip.eval(expr.Right)
	switch expr.Op {
	case token.Not:
		verifyTrait(right.T.UnaryNot != nil,
			"'not' operator not defined for type '%s'", right.T.Name)
		return right.T.UnaryNot(right)
	case token.Minus:
		verifyTrait(right.T.UnaryMinus != nil,
			"Unary '-' not defined for type '%s'", right.T.Name)
		return right.T.UnaryMinus(right)
	}
	throwf("Internal error: unsupported unary operator parsed correctly")
	return None
}

func (ip *Interpreter) evalBinary(expr *ast.BinaryExpr) Value {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()

	left := ip.eval(expr.Left)

	// logical operators short-circuit on truthiness
	if expr.Op == token.And {
		if !left.T.Truthy(left) {
			return BoolValue(false)
		}
		right := ip.eval(expr.Right)
		return BoolValue(right.T.Truthy(right))
	}

	if expr.Op == token.Or {
		if left.T.Truthy(left) {
			return BoolValue(true)
		}
		right := ip.eval(expr.Right)
		return BoolValue(right.T.Truthy(right))
	}

	right := ip.eval(expr.Right)

	// range initializer
	if expr.Op == token.DotDot {
		if !(left.IsIntNum() && right.IsIntNum()) {
			throwf("Bad range initializer")
		}
		return Value{T: rangeType, Rng: Range{Start: int(left.Num), End: int(right.Num)}}
	}

	// left "in" right
	if expr.Op == token.In {
		verifyTrait(right.T.ItemIn != nil,
			"'in' operator not defined for type '%s'", right.T.Name)
		return BoolValue(right.T.ItemIn(right, left))
	}

	return ip.evalBinaryOperators(left, right, expr.Op)
}

func (ip *Interpreter) evalBinaryOperators(left, right Value, op token.Type) Value {
	if left.IsNone() && !right.IsNone() {
		return BoolValue(false)
	}

	if !TypeEq(left, right) {
		throwf("Binary operation failed: type mismatch between '%s' and '%s'",
			left.T.Name, right.T.Name)
	}

	switch op {
	case token.Greater:
		verifyTrait(left.T.Cmp != nil, "'>' operator not defined for type '%s'", left.T.Name)
		return BoolValue(left.T.Cmp(left, right) > 0)
	case token.GreaterEqual:
		verifyTrait(left.T.Cmp != nil, "'>=' operator not defined for type '%s'", left.T.Name)
		return BoolValue(left.T.Cmp(left, right) >= 0)
	case token.Less:
		verifyTrait(left.T.Cmp != nil, "'<' operator not defined for type '%s'", left.T.Name)
		return BoolValue(left.T.Cmp(left, right) < 0)
	case token.LessEqual:
		verifyTrait(left.T.Cmp != nil, "'<=' operator not defined for type '%s'", left.T.Name)
		return BoolValue(left.T.Cmp(left, right) <= 0)
	case token.Plus, token.PlusEqual:
		verifyTrait(left.T.Plus != nil, "'+' operator not defined for type '%s'", left.T.Name)
		return left.T.Plus(ip, left, right)
	case token.Minus, token.MinusEqual:
		verifyTrait(left.T.Minus != nil, "'-' operator not defined for type '%s'", left.T.Name)
		return left.T.Minus(left, right)
	case token.Slash, token.SlashEqual:
		verifyTrait(left.T.Div != nil, "'/' operator not defined for type '%s'", left.T.Name)
		return left.T.Div(left, right)
	case token.SlashSlash, token.SlashSlashEqual:
		verifyTrait(left.T.IntDiv != nil, "'//' operator not defined for type '%s'", left.T.Name)
		return left.T.IntDiv(left, right)
	case token.Percent, token.PercentEqual:
		verifyTrait(left.T.Mod != nil, "'%%' operator not defined for type '%s'", left.T.Name)
		return left.T.Mod(left, right)
	case token.Star, token.StarEqual:
		verifyTrait(left.T.Mul != nil, "'*' operator not defined for type '%s'", left.T.Name)
		return left.T.Mul(ip, left, right)
	case token.StarStar, token.StarStarEqual:
		verifyTrait(left.T.Pow != nil, "'**' operator not defined for type '%s'", left.T.Name)
		return left.T.Pow(left, right)
	case token.EqualEqual:
		return BoolValue(left.T.Eq(left, right))
	case token.BangEqual:
		return BoolValue(!left.T.Eq(left, right))
	}

	throwf("Unrecognized binary operator")
	return None
}

func (ip *Interpreter) evalAccess(expr *ast.AccessExpr) Value {
	// reading an undefined variable yields none, same behaviour as
	// POSIX shells
	sv, ok := ip.scope.Get(expr.Name)
	if !ok {
		return None
	}
	return sv.Value
}

func (ip *Interpreter) evalSubscript(expr *ast.SubscriptExpr) Value {
	value := ip.eval(expr.Target)
	index := ip.eval(expr.Index)
	verifyTrait(value.T.ItemGet != nil,
		"'[]' operator not defined for type '%s'", value.T.Name)
	return value.T.ItemGet(ip, value, index)
}

func (ip *Interpreter) evalSubshell(expr *ast.SubshellExpr) Value {
	r, w, err := os.Pipe()
	if err != nil {
		throwf("Could not create pipe: %s", err)
	}

	ctx := &ip.streamCtx
	originalOut := ctx.Out
	ctx.Out = w

	ip.exec(expr.Stmt)
	_ = w.Close()
	ctx.Out = originalOut

	captured, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		throwf("Could not read subshell output: %s", err)
	}

	// a single trailing newline is stripped from the capture
	if len(captured) > 0 && captured[len(captured)-1] == '\n' {
		captured = captured[:len(captured)-1]
	}
	return ip.newStr(string(captured))
}

func (ip *Interpreter) evalList(expr *ast.ListExpr) Value {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()

	list := ip.newList()
	if expr.Elems == nil {
		return ObjValue(list)
	}
	for _, elem := range expr.Elems.Seq {
		ip.listAppend(list, ip.eval(elem))
	}
	return ObjValue(list)
}

func (ip *Interpreter) evalTuple(expr *ast.SequenceExpr) Value {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()

	tuple := ip.newTuple(len(expr.Seq))
	for i, elem := range expr.Seq {
		tuple.Items[i] = ip.eval(elem)
	}
	return ObjValue(tuple)
}

func (ip *Interpreter) evalMap(expr *ast.MapExpr) Value {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()

	m := ip.newMap()
	for _, entry := range expr.Entries {
		k := ip.eval(entry.Key)
		v := ip.eval(entry.Value)
		m.Put(ip, k, v)
	}
	return ObjValue(m)
}

func (ip *Interpreter) evalFunction(expr *ast.FunctionExpr) Value {
	// The AST is torn down between REPL commands, so the function value
	// must own copies of its parameter list and body block.
	params := make([]string, len(expr.Params))
	copy(params, expr.Params)
	body := ast.CopyStmt(expr.Body).(*ast.BlockStmt)
	return Value{T: functionType, Fn: &Function{Params: params, Body: body}}
}

func (ip *Interpreter) evalCast(expr *ast.CastExpr) Value {
	value := ip.eval(expr.Expr)
	// When the operand is a subshell and the target type is bool, the
	// subshell exit code determines the result.
	if ip.typeRegister[expr.TypeName] == boolType {
		if _, isSubshell := expr.Expr.(*ast.SubshellExpr); isSubshell {
			return BoolValue(ip.prevExitCode == 0)
		}
	}
	return ip.cast(value, expr.TypeName)
}

func (ip *Interpreter) evalCall(expr *ast.CallExpr) Value {
	callee := ip.eval(expr.Callee)
	if !callee.IsFunction() {
		throwf("Can not call value of type '%s'", callee.T.Name)
	}

	function := callee.Fn
	callParams := 0
	if expr.Args != nil {
		callParams = len(expr.Args.Seq)
	}
	if len(function.Params) != callParams {
		throwf("Function takes '%d' arguments, but '%d' were given",
			len(function.Params), callParams)
	}

	functionScope := newScope(ip.scope)
	ip.scope = functionScope
	for i, param := range function.Params {
		ip.scope.Define(param, ip.eval(expr.Args.Seq[i]))
	}

	returnValue := None
	result := ip.execBlockBody(function.Body)
	if result.typ == rtReturn && result.returnExpr != nil {
		returnValue = ip.eval(result.returnExpr)
	}
	ip.scope = functionScope.enclosing
	return returnValue
}

/*
 * statement execution
 */

func (ip *Interpreter) exec(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarStmt:
		ip.execVar(s)
	case *ast.SeqVarStmt:
		ip.execSeqVar(s)
	case *ast.ExpressionStmt:
		ip.execExpr(s)
	case *ast.CmdStmt:
		ip.execCmd(s)
	case *ast.LoopStmt:
		ip.execLoop(s)
	case *ast.IterLoopStmt:
		ip.execIterLoop(s)
	case *ast.IfStmt:
		ip.execIf(s)
	case *ast.BlockStmt:
		ip.execBlock(s)
	case *ast.AssignStmt:
		ip.execAssign(s)
	case *ast.PipelineStmt:
		ip.execPipeline(s)
	case *ast.AssertStmt:
		ip.execAssert(s)
	case *ast.BinaryStmt:
		ip.execBinary(s)
	case *ast.AbruptStmt:
		ip.execAbrupt(s)
	default:
		throwf("Internal error: statement type not recognized")
	}
}

func (ip *Interpreter) execExpr(stmt *ast.ExpressionStmt) {
	value := ip.eval(stmt.Expression)
	if _, isCall := stmt.Expression.(*ast.CallExpr); isCall {
		return
	}

	verifyTrait(value.T.Print != nil, "print not defined for type '%s'", value.T.Name)
	value.T.Print(ip, value)
	ip.print("\n")
}

func (ip *Interpreter) execVar(stmt *ast.VarStmt) {
	// the name must not already be defined in this exact scope
	if current, ok := ip.scope.Get(stmt.Name); ok && current.Scope == ip.scope {
		throwf("Redefinition of '%s'", stmt.Name)
	}
	value := ip.eval(stmt.Initializer)
	ip.scope.Define(stmt.Name, value)
}

func (ip *Interpreter) execSeqVar(stmt *ast.SeqVarStmt) {
	defineFresh := func(name string, value Value) {
		if current, ok := ip.scope.Get(name); ok && current.Scope == ip.scope {
			throwf("Redefinition of '%s'", name)
		}
		ip.scope.Define(name, value)
	}

	if initializer, ok := stmt.Initializer.(*ast.SequenceExpr); ok {
		if len(stmt.Names) != len(initializer.Seq) {
			throwf("Unpacking only supported for collections of the same size")
		}
		for i, name := range stmt.Names {
			defineFresh(name, ip.eval(initializer.Seq[i]))
		}
		return
	}

	value := ip.eval(stmt.Initializer)
	if value.T != tupleType {
		throwf("Multiple variable declaration only supported for tuples")
	}
	tuple := value.AsTuple()
	if len(stmt.Names) != len(tuple.Items) {
		throwf("Unpacking only supported for collections of the same size")
	}
	for i, name := range stmt.Names {
		defineFresh(name, tuple.Items[i])
	}
}

// argvFromExprs evaluates command argument expressions into their str
// representations. The barrier keeps every intermediate rooted while
// later arguments allocate.
func (ip *Interpreter) argvFromExprs(exprs []ast.Expr) []string {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()

	argv := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		value := ip.eval(expr)
		verifyTrait(value.T.ToStr != nil,
			"Could not take 'to_str' of type '%s'", value.T.Name)
		argv = append(argv, value.T.ToStr(ip, value).AsStr().S)
	}
	return argv
}

func (ip *Interpreter) execProgramStub(programPath string, args []ast.Expr) {
	argv := append([]string{programPath}, ip.argvFromExprs(args)...)
	exitCode := execProgram(&ip.streamCtx, argv)
	ip.setExitCode(exitCode)
}

func (ip *Interpreter) execCmd(stmt *ast.CmdStmt) {
	path := ip.getOrThrow("PATH")
	if !path.Value.IsStr() {
		throwf("PATH variable should be type '%s' not '%s'",
			strType.Name, path.Value.T.Name)
	}

	result := which(stmt.Name, path.Value.AsStr().S)
	switch result.Kind {
	case WhichNotFound:
		throwErrf(ErrCommandNotFound, "Command '%s' not found", stmt.Name)
	case WhichExtern:
		ip.execProgramStub(result.Path, stmt.Args)
	case WhichBuiltin:
		ip.setExitCode(result.Builtin(ip, stmt.Args))
	}
}

func (ip *Interpreter) execIf(stmt *ast.IfStmt) {
	condition := ip.eval(stmt.Condition)
	if condition.T.Truthy(condition) {
		ip.exec(stmt.Then)
	} else if stmt.Else != nil {
		ip.exec(stmt.Else)
	}
}

// execBlock executes a block in a fresh scope. Loops execute their
// bodies through execBlockBody instead so the per-iteration scope can
// be reset cheaply.
func (ip *Interpreter) execBlock(stmt *ast.BlockStmt) {
	blockScope := newScope(ip.scope)
	ip.scope = blockScope

	// permeate any abrupt control flow
	ip.execRes = ip.execBlockBody(stmt)

	ip.scope = blockScope.enclosing
}

func (ip *Interpreter) execSubscriptAssign(stmt *ast.AssignStmt) {
	subscript := stmt.Target.(*ast.SubscriptExpr)
	// assigning into an inline literal would have no observable effect
	access, ok := subscript.Target.(*ast.AccessExpr)
	if !ok {
		return
	}

	accessIndex := ip.eval(subscript.Index)
	newValue := ip.eval(stmt.Value)

	current := ip.getOrThrow(access.Name)
	self := current.Value

	if stmt.Op == token.Equal {
		verifyTrait(self.T.ItemAssign != nil,
			"Item assignment not defined for type '%s'", self.T.Name)
		self.T.ItemAssign(ip, self, accessIndex, newValue)
		return
	}

	currentItem := ip.evalSubscript(subscript)
	newValue = ip.evalBinaryOperators(currentItem, newValue, stmt.Op)
	verifyTrait(self.T.ItemAssign != nil,
		"Item assignment not defined for type '%s'", self.T.Name)
	self.T.ItemAssign(ip, self, accessIndex, newValue)
}

func (ip *Interpreter) execAssignUnpack(stmt *ast.AssignStmt) {
	left := stmt.Target.(*ast.SequenceExpr)
	right, ok := stmt.Value.(*ast.SequenceExpr)
	if !ok {
		throwf("Unpacking only supported for literal sequences")
	}
	if len(left.Seq) != len(right.Seq) {
		throwf("Unpacking only supported for collections of the same size")
	}

	// eval the whole right side before any assignment happens
	values := make([]Value, len(right.Seq))
	for i, expr := range right.Seq {
		values[i] = ip.eval(expr)
	}

	for i, target := range left.Seq {
		access, ok := target.(*ast.AccessExpr)
		if !ok {
			throwf("Can not assign to literal value")
		}
		variable := ip.getOrThrow(access.Name)
		variable.Scope.Assign(access.Name, values[i])
	}
}

func (ip *Interpreter) execAssign(stmt *ast.AssignStmt) {
	switch stmt.Target.(type) {
	case *ast.SubscriptExpr:
		ip.execSubscriptAssign(stmt)
		return
	case *ast.SequenceExpr:
		ip.execAssignUnpack(stmt)
		return
	}

	access, ok := stmt.Target.(*ast.AccessExpr)
	if !ok {
		throwf("Can not assign to a literal")
	}

	variable := ip.getOrThrow(access.Name)
	newValue := ip.eval(stmt.Value)

	if stmt.Op == token.Equal {
		variable.Scope.Assign(access.Name, newValue)
		return
	}
	newValue = ip.evalBinaryOperators(variable.Value, newValue, stmt.Op)
	variable.Scope.Assign(access.Name, newValue)
}

func (ip *Interpreter) execPipeline(stmt *ast.PipelineStmt) {
	r, w, err := os.Pipe()
	if err != nil {
		throwf("Could not create pipe: %s", err)
	}

	ctx := &ip.streamCtx
	finalOut := ctx.Out

	ctx.Out = w
	ip.execCmd(stmt.Left)

	ctx.pushFd(r)
	ctx.pushFd(w)

	ctx.Out = finalOut
	originalIn := ctx.In
	ctx.In = r

	ip.exec(stmt.Right)

	ctx.In = originalIn
	ctx.popFd()
	ctx.popFd()
	_ = w.Close()
	_ = r.Close()
}

func (ip *Interpreter) execAssert(stmt *ast.AssertStmt) {
	result := ip.eval(stmt.Expr)
	if !result.T.Truthy(result) {
		throwf("Assertion failed")
	}
}

func (ip *Interpreter) execLoop(stmt *ast.LoopStmt) {
	blockScope := newScope(ip.scope)
	ip.scope = blockScope

	condition := ip.eval(stmt.Condition)
	for condition.T.Truthy(condition) {
		result := ip.execBlockBody(stmt.Body)
		if result.typ == rtBreak {
			break
		}
		if result.typ == rtContinue {
			blockScope.Reset()
			condition = ip.eval(stmt.Condition)
			continue
		}
		blockScope.Reset()
		condition = ip.eval(stmt.Condition)
	}

	ip.scope = blockScope.enclosing
}

func (ip *Interpreter) execIterLoopList(stmt *ast.IterLoopStmt, iterable *List) {
	ip.scope.Define(stmt.VarName, None)
	for i := 0; i < len(iterable.Items); i++ {
		ip.scope.Assign(stmt.VarName, iterable.Items[i])
		result := ip.execBlockBody(stmt.Body)
		ip.scope.Reset()
		if result.typ == rtBreak {
			break
		}
	}
}

func (ip *Interpreter) execIterLoopTuple(stmt *ast.IterLoopStmt, iterable *Tuple) {
	ip.scope.Define(stmt.VarName, None)
	for _, item := range iterable.Items {
		ip.scope.Assign(stmt.VarName, item)
		result := ip.execBlockBody(stmt.Body)
		ip.scope.Reset()
		if result.typ == rtBreak {
			break
		}
	}
}

func (ip *Interpreter) execIterLoopMap(stmt *ast.IterLoopStmt, iterable *Map) {
	if iterable.Len() == 0 {
		return
	}
	keys := iterable.Keys()
	ip.scope.Define(stmt.VarName, None)
	for _, key := range keys {
		ip.scope.Assign(stmt.VarName, key)
		result := ip.execBlockBody(stmt.Body)
		ip.scope.Reset()
		if result.typ == rtBreak {
			break
		}
	}
}

func (ip *Interpreter) execIterLoopStr(stmt *ast.IterLoopStmt, iterable *Str) {
	ifs := ip.getOrThrow("IFS")
	if !ifs.Value.IsStr() {
		throwf("$IFS has to be of type 'str', but got '%s'", ifs.Value.T.Name)
	}

	substrings := ip.strSplitAny(iterable.S, ifs.Value.AsStr().S)
	ip.gc.shadowPush(substrings)
	ip.execIterLoopList(stmt, substrings)
	ip.gc.shadowPop()
}

// strSplitAny splits s on any byte of separators, dropping empty
// substrings. The returned list is freshly allocated and must be rooted
// by the caller.
func (ip *Interpreter) strSplitAny(s, separators string) *List {
	list := ip.newList()
	ip.gc.shadowPush(list)
	defer ip.gc.shadowPop()

	start := 0
	for i := 0; i < len(s); i++ {
		isSep := false
		for j := 0; j < len(separators); j++ {
			if s[i] == separators[j] {
				isSep = true
				break
			}
		}
		if !isSep {
			continue
		}
		if i > start {
			ip.listAppend(list, ip.newStr(s[start:i]))
		}
		start = i + 1
	}
	if start < len(s) {
		ip.listAppend(list, ip.newStr(s[start:]))
	}
	return list
}

func (ip *Interpreter) execIterLoopRange(stmt *ast.IterLoopStmt, iterable Range) {
	if iterable.Start >= iterable.End {
		return
	}

	ip.scope.Define(stmt.VarName, NumValue(float64(iterable.Start)))
	for i := iterable.Start; i != iterable.End; i++ {
		ip.scope.Assign(stmt.VarName, NumValue(float64(i)))
		result := ip.execBlockBody(stmt.Body)
		ip.scope.Reset()
		ip.scope.Assign(stmt.VarName, NumValue(float64(i + 1)))
		if result.typ == rtBreak {
			break
		}
	}
}

func (ip *Interpreter) execIterLoop(stmt *ast.IterLoopStmt) {
	loopScope := newScope(ip.scope)
	ip.scope = loopScope

	underlying := ip.eval(stmt.Iterable)
	if underlying.IsObj() {
		ip.gc.shadowPush(underlying.Obj)
	}

	switch {
	case underlying.T == rangeType:
		ip.execIterLoopRange(stmt, underlying.Rng)
	case underlying.T == listType:
		ip.execIterLoopList(stmt, underlying.AsList())
	case underlying.T == tupleType:
		ip.execIterLoopTuple(stmt, underlying.AsTuple())
	case underlying.T == mapType:
		ip.execIterLoopMap(stmt, underlying.AsMap())
	case underlying.T == strType:
		ip.execIterLoopStr(stmt, underlying.AsStr())
	default:
		if underlying.IsObj() {
			ip.gc.shadowPop()
		}
		ip.scope = loopScope.enclosing
		throwErrf(ErrNotIterable, "Type '%s' can not be iterated over", underlying.T.Name)
	}

	if underlying.IsObj() {
		ip.gc.shadowPop()
	}
	ip.scope = loopScope.enclosing
}

func (ip *Interpreter) execAndOr(stmt *ast.BinaryStmt) {
	// When the left side is an expression statement its truthiness is
	// the predicate, otherwise the exit code of the command is.
	var predicate bool
	if left, ok := stmt.Left.(*ast.ExpressionStmt); ok {
		value := ip.eval(left.Expression)
		verifyTrait(value.T.Truthy != nil,
			"&& or || failed because truthy is not defined for type '%s'", value.T.Name)
		predicate = value.T.Truthy(value)
	} else {
		ip.exec(stmt.Left)
		predicate = ip.prevExitCode == 0
	}

	if (stmt.Op == token.AnpAnp && predicate) || (stmt.Op == token.PipePipe && !predicate) {
		ip.exec(stmt.RightStmt)
	}
}

func (ip *Interpreter) execRedirect(stmt *ast.BinaryStmt) {
	value := ip.eval(stmt.RightExpr)
	verifyTrait(value.T.ToStr != nil,
		"Redirection failed because to_str is not defined for type '%s'", value.T.Name)
	fileName := value.T.ToStr(ip, value).AsStr().S

	ctx := &ip.streamCtx
	originalIn := ctx.In
	originalOut := ctx.Out

	var (
		file       *os.File
		err        error
		newWriteFd = true
	)
	switch stmt.Op {
	case token.Greater:
		file, err = os.Create(fileName)
	case token.GreaterGreater:
		file, err = os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	case token.Less:
		file, err = os.Open(fileName)
		newWriteFd = false
	}
	if err != nil {
		throwf("Could not open file '%s'", fileName)
	}

	defer func() {
		_ = file.Close()
		ctx.In = originalIn
		ctx.Out = originalOut
	}()

	if newWriteFd {
		ctx.Out = file
	} else {
		ctx.In = file
	}
	ip.execCmd(stmt.Left.(*ast.CmdStmt))
}

func (ip *Interpreter) execBinary(stmt *ast.BinaryStmt) {
	if stmt.Op == token.AnpAnp || stmt.Op == token.PipePipe {
		ip.execAndOr(stmt)
	} else {
		ip.execRedirect(stmt)
	}
}

func (ip *Interpreter) execAbrupt(stmt *ast.AbruptStmt) {
	result := execResult{typ: rtBreak}
	switch stmt.Kind {
	case token.Continue:
		result.typ = rtContinue
	case token.Return:
		result.typ = rtReturn
		result.returnExpr = stmt.ReturnExpr
	}
	ip.execRes = result
}
