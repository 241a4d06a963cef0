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

// Package interp implements the slash tree-walking interpreter: the
// value system with its per-type operator and trait tables, the lexical
// scope chain, the tracked-object mark-sweep garbage collector, the
// evaluator and the stream/exec engine driving external processes and
// builtins.
package interp

import (
	"math"

	"github.com/slash-lang/slash/ast"
)

// Value is a slash value: a small tagged variant. The tag is the type
// info pointer, which is never nil on a valid value. Object-kinded
// values additionally carry a pointer to the heap object registered
// with the garbage collector.
type Value struct {
	T *TypeInfo

	Bool bool
	Num  float64
	Rng  Range
	Text string
	Fn   *Function
	Obj  Obj
}

// Range is a half open range of integers. Start may be greater than End,
// in which case iterating it produces zero elements.
type Range struct {
	Start int
	End   int
}

// Function is a user defined function. Params and Body are deep copied
// out of the transient AST at definition time so they survive REPL
// resets.
type Function struct {
	Params []string
	Body   *ast.BlockStmt
}

// Obj is a heap allocated slash object tracked by the GC.
type Obj interface {
	header() *objHeader
}

// objHeader is embedded by every heap object type.
type objHeader struct {
	t       *TypeInfo
	marked  bool
	managed bool
}

func (h *objHeader) header() *objHeader { return h }

// Str is a heap allocated string object.
type Str struct {
	objHeader
	S string
}

// List is a growable sequence of values.
type List struct {
	objHeader
	Items []Value
}

// Tuple is a fixed size sequence of values.
type Tuple struct {
	objHeader
	Items []Value
}

// ObjValue wraps a heap object into a value.
func ObjValue(o Obj) Value {
	return Value{T: o.header().t, Obj: o}
}

// None is the none singleton.
var None = Value{T: noneType}

// BoolValue builds a bool value.
func BoolValue(b bool) Value { return Value{T: boolType, Bool: b} }

// NumValue builds a num value.
func NumValue(n float64) Value { return Value{T: numType, Num: n} }

// TextValue builds a text literal value.
func TextValue(s string) Value { return Value{T: textLitType, Text: s} }

// IsNone tells if the value is the none singleton.
func (v Value) IsNone() bool { return v.T == noneType }

// IsNum tells if the value is a num.
func (v Value) IsNum() bool { return v.T == numType }

// IsIntNum tells if the value is a num holding an integer.
func (v Value) IsIntNum() bool {
	return v.IsNum() && math.Floor(v.Num) == v.Num
}

// IsObj tells if the value points to a heap object.
func (v Value) IsObj() bool { return v.Obj != nil }

// IsStr tells if the value is a str object.
func (v Value) IsStr() bool { return v.T == strType }

// IsText tells if the value is a text literal.
func (v Value) IsText() bool { return v.T == textLitType }

// IsFunction tells if the value is a function.
func (v Value) IsFunction() bool { return v.T == functionType }

// AsStr returns the underlying str object. The caller must know the
// value is a str.
func (v Value) AsStr() *Str { return v.Obj.(*Str) }

// AsList returns the underlying list object.
func (v Value) AsList() *List { return v.Obj.(*List) }

// AsTuple returns the underlying tuple object.
func (v Value) AsTuple() *Tuple { return v.Obj.(*Tuple) }

// AsMap returns the underlying map object.
func (v Value) AsMap() *Map { return v.Obj.(*Map) }

// TypeEq tells if both values share the same type info.
func TypeEq(a, b Value) bool { return a.T == b.T }

// TypeInfo is the per-type function table: operators, traits and the
// object lifecycle hook. Truthy and Eq are mandatory for every type,
// every other entry may be nil and invoking a missing one is a runtime
// error.
type TypeInfo struct {
	Name string

	// operators
	Plus       func(ip *Interpreter, self, other Value) Value
	Minus      func(self, other Value) Value
	Mul        func(ip *Interpreter, self, other Value) Value
	Div        func(self, other Value) Value
	IntDiv     func(self, other Value) Value
	Pow        func(self, other Value) Value
	Mod        func(self, other Value) Value
	UnaryMinus func(self Value) Value
	UnaryNot   func(self Value) Value

	// traits
	Print      func(ip *Interpreter, self Value)
	ToStr      func(ip *Interpreter, self Value) Value
	ItemGet    func(ip *Interpreter, self, index Value) Value
	ItemAssign func(ip *Interpreter, self, index, other Value)
	ItemIn     func(self, other Value) bool
	Truthy     func(self Value) bool
	Eq         func(self, other Value) bool
	Cmp        func(self, other Value) int
	Hash       func(self Value) int

	// ObjSize reports the managed size in bytes of a heap object of
	// this type. Nil for inline types.
	ObjSize func(o Obj) int
}
