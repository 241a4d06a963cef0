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

// Package errors provides the error type used across the whole slash
// codebase and helpers for building and inspecting them.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the core error type of slash.
// It can carry an error kind, the source position where the error was
// detected and an underlying error.
type Error struct {
	// Kind of the error.
	Kind Kind

	// Pos is the source position related to the error, if any.
	Pos Pos

	// Description of the error.
	Description string

	// Err is the underlying error, if any.
	Err error
}

// Kind defines the kind of an error.
type Kind string

const (
	// ErrLex represents errors detected while scanning source code.
	ErrLex Kind = "syntax error"

	// ErrParse represents errors detected while parsing a token stream.
	ErrParse Kind = "parse error"

	// ErrRuntime represents errors raised while executing a program.
	ErrRuntime Kind = "runtime error"

	// ErrIO represents errors interacting with the file system or
	// child processes.
	ErrIO Kind = "io error"
)

// Pos is a position in slash source code. Columns are relative to the
// beginning of the line. The zero value means "no position".
type Pos struct {
	Line     int
	StartCol int
	EndCol   int
}

// IsSet tells if the position carries actual source information.
func (p Pos) IsSet() bool { return p.Line > 0 || p.EndCol > 0 }

// E builds an error value from its arguments.
// There must be at least one argument or it will panic.
//
// The supported types are (in order of precedence):
//
//   - Kind: the error kind.
//   - Pos: the source position.
//   - error: the underlying error that triggered this one.
//   - string: the format string used together with any remaining args.
//
// When the description is empty the underlying error description is
// promoted, and when the description, the kind and the underlying error
// are all absent the error is considered malformed (E panics, as this is
// a programming error).
func E(args ...interface{}) *Error {
	if len(args) == 0 {
		panic("errors.E called with no arguments")
	}

	e := &Error{}
	format := ""
	var fmtargs []interface{}

	for i, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case Pos:
			e.Pos = a
		case *Error:
			errcopy := *a
			e.Err = &errcopy
		case error:
			e.Err = a
		case string:
			format = a
			fmtargs = args[i+1:]
			goto done
		default:
			panic(fmt.Errorf("errors.E: unsupported argument type %T", arg))
		}
	}

done:
	if format != "" {
		e.Description = fmt.Sprintf(format, fmtargs...)
	}

	if e.Kind == "" {
		var underlying *Error
		if errors.As(e.Err, &underlying) {
			e.Kind = underlying.Kind
		}
	}

	if e.Description == "" && e.Err == nil && e.Kind == "" {
		panic(errors.New("errors.E: invalid empty error"))
	}
	return e
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	var parts []string
	if e.Kind != "" {
		parts = append(parts, string(e.Kind))
	}
	if e.Pos.IsSet() {
		parts = append(parts, fmt.Sprintf("[line %d]", e.Pos.Line))
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Detailed returns a detailed string representation of the error.
func (e *Error) Detailed() string { return e.Error() }

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is tells if target matches this error.
// Two *Error values match when their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && e.Kind != t.Kind {
		return false
	}
	return true
}

// IsKind tells if err (or any of its wrapped errors) is of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == k {
		return true
	}
	return IsKind(e.Err, k)
}

// Is is the same as the stdlib errors.Is, re-exported for convenience so
// callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is the same as the stdlib errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }
