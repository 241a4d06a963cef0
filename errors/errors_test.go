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

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/madlambda/spells/assert"
	"github.com/slash-lang/slash/errors"
)

func TestErrorString(t *testing.T) {
	type testcase struct {
		name string
		err  *errors.Error
		want string
	}

	for _, tc := range []testcase{
		{
			name: "kind and description",
			err:  errors.E(errors.ErrLex, "unexpected character"),
			want: "syntax error: unexpected character",
		},
		{
			name: "kind, position and description",
			err:  errors.E(errors.ErrParse, errors.Pos{Line: 3, StartCol: 0, EndCol: 2}, "bad token"),
			want: "parse error: [line 3]: bad token",
		},
		{
			name: "format args",
			err:  errors.E(errors.ErrRuntime, "no trait on type '%s'", "map"),
			want: "runtime error: no trait on type 'map'",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualStrings(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := errors.E(errors.ErrRuntime, "boom")
	assert.IsTrue(t, errors.IsKind(err, errors.ErrRuntime), "kind must match")
	assert.IsTrue(t, !errors.IsKind(err, errors.ErrParse), "wrong kind must not match")

	wrapped := errors.E(err, "wrapping")
	assert.IsTrue(t, errors.IsKind(wrapped, errors.ErrRuntime),
		"kind must match through wrapping")
}

func TestErrorUnwrap(t *testing.T) {
	underlying := stderrors.New("io failed")
	err := errors.E(errors.ErrIO, underlying, "reading file")
	assert.IsTrue(t, stderrors.Is(err, underlying), "wrapped error must match errors.Is")
}

func TestKindIsPromotedFromWrapped(t *testing.T) {
	inner := errors.E(errors.ErrLex, "bad char")
	outer := errors.E(inner, "while scanning")
	assert.IsTrue(t, errors.IsKind(outer, errors.ErrLex), "kind must be promoted")
}

func TestList(t *testing.T) {
	errs := errors.L()
	assert.IsTrue(t, errs.AsError() == nil, "empty list is not an error")

	errs.Append(nil)
	assert.IsTrue(t, errs.AsError() == nil, "nil appends are ignored")

	errs.Append(errors.E(errors.ErrParse, "first"))
	errs.Append(errors.E(errors.ErrParse, "second"))
	assert.IsTrue(t, errs.AsError() != nil, "non-empty list is an error")
	assert.EqualInts(t, 2, len(errs.Errors()))

	other := errors.L(errors.E(errors.ErrLex, "third"))
	errs.Append(other)
	assert.EqualInts(t, 3, len(errs.Errors()), "lists must merge flat")
}

func TestListAppendWrap(t *testing.T) {
	errs := errors.L()
	errs.AppendWrap(errors.ErrRuntime, fmt.Errorf("plain"))
	assert.IsTrue(t, errors.IsKind(errs.AsError(), errors.ErrRuntime),
		"wrapped errors must carry the kind")
}
