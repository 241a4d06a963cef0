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
	"os"
	"strconv"
	"strings"

	"github.com/slash-lang/slash"
)

// Scope is a lexically nested environment. A new scope is created for
// function calls, blocks and loop bodies and destroyed on exit.
type Scope struct {
	enclosing *Scope
	depth     int
	vars      map[string]Value
}

// ScopeAndValue is the result of a variable lookup: the owning scope
// plus the value found in it.
type ScopeAndValue struct {
	Scope *Scope
	Value Value
}

func newScope(enclosing *Scope) *Scope {
	depth := 0
	if enclosing != nil {
		depth = enclosing.depth + 1
	}
	return &Scope{
		enclosing: enclosing,
		depth:     depth,
		vars:      make(map[string]Value),
	}
}

// Define binds name to value in this scope, shadowing any definition in
// an enclosing scope.
func (s *Scope) Define(name string, value Value) {
	if value.T == nil {
		value = None
	}
	s.vars[name] = value
}

// Assign writes value for name in this specific scope.
func (s *Scope) Assign(name string, value Value) {
	s.vars[name] = value
}

// Get walks the scope chain looking for name.
func (s *Scope) Get(name string) (ScopeAndValue, bool) {
	for scope := s; scope != nil; scope = scope.enclosing {
		if value, ok := scope.vars[name]; ok {
			return ScopeAndValue{Scope: scope, Value: value}, true
		}
	}
	return ScopeAndValue{}, false
}

// Reset clears every binding of the scope. Used between loop iterations
// to drop per-iteration bindings cheaply.
func (s *Scope) Reset() {
	for name := range s.vars {
		delete(s.vars, name)
	}
}

// getOrThrow resolves name or raises a runtime error.
func (ip *Interpreter) getOrThrow(name string) ScopeAndValue {
	sv, ok := ip.scope.Get(name)
	if !ok {
		throwf("Variable '%s' is not defined", name)
	}
	return sv
}

// newGlobals seeds the global scope: the whole process environment,
// IFS, SLASH_VERSION, the previous exit code and the positional
// arguments as string-valued names "0".."N".
func newGlobals(argv []string) *Scope {
	globals := newScope(nil)

	for _, entry := range os.Environ() {
		pos := strings.IndexByte(entry, '=')
		if pos < 0 {
			continue
		}
		globals.Define(entry[:pos], newUnmanagedStr(entry[pos+1:]))
	}

	globals.Define("IFS", newUnmanagedStr("\n\t "))
	globals.Define("SLASH_VERSION", newUnmanagedStr(slash.Version()))

	// '?' holds the exit code of the previous command
	globals.Define("?", NumValue(0))

	for i, arg := range argv {
		globals.Define(strconv.Itoa(i), newUnmanagedStr(arg))
	}

	return globals
}
