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

	"github.com/madlambda/spells/errutil"
	"github.com/slash-lang/slash/errors"
)

// Sentinel errors raised by the interpreter. They are carried inside
// the runtime error so callers can match on them with errors.Is.
const (
	ErrCommandNotFound errutil.Error = "command not found"
	ErrNotIterable     errutil.Error = "type can not be iterated over"
)

// runtimeError is the non-local control transfer used to abort the
// current statement on a runtime error. It unwinds via panic and is
// recovered at the top of the statement executor, where the interpreter
// is reset and execution continues with the next statement.
type runtimeError struct {
	err *errors.Error
}

// throwf raises a runtime error from code with no interpreter at hand.
// The raised error carries no source position.
func throwf(format string, args ...interface{}) {
	panic(runtimeError{err: errors.E(append([]interface{}{errors.ErrRuntime, format}, args...)...)})
}

// throwErrf is throwf with a sentinel error attached, so the raised
// runtime error matches the sentinel through errors.Is.
func throwErrf(sentinel error, format string, args ...interface{}) {
	panic(runtimeError{err: errors.E(append([]interface{}{errors.ErrRuntime, sentinel, format}, args...)...)})
}

// exitRequest unwinds the interpreter when the exit builtin runs.
type exitRequest struct {
	code int
}

func verifyTrait(ok bool, format string, args ...interface{}) {
	if !ok {
		throwf(format, args...)
	}
}

func internalf(format string, args ...interface{}) {
	panic(fmt.Errorf("internal error: "+format, args...))
}
