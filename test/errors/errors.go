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

// Package errors provides test assertions over slash error values.
// It understands the two shapes slash errors come in: a single
// *errors.Error carrying a kind and a wrap chain, and an *errors.List
// aggregating several of them.
package errors

import (
	"testing"

	"github.com/slash-lang/slash/errors"
)

// AssertIsKind fails the test unless err carries kind k, either
// directly, through its wrap chain, or on any entry of an error list.
func AssertIsKind(t *testing.T, err error, k errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %q, got nil", k)
	}
	if errors.IsKind(err, k) {
		return
	}
	for _, entry := range listEntries(err) {
		if errors.IsKind(entry, k) {
			return
		}
	}
	t.Fatalf("error[%s] does not carry kind %q", detail(err), k)
}

// Assert fails the test unless err matches target (in the errors.Is
// sense), searching error list entries as well.
func Assert(t *testing.T, err, target error) {
	t.Helper()
	if errors.Is(err, target) {
		return
	}
	for _, entry := range listEntries(err) {
		if errors.Is(entry, target) {
			return
		}
	}
	t.Fatalf("error[%s] does not match target[%s]", detail(err), detail(target))
}

func listEntries(err error) []error {
	var list *errors.List
	if errors.As(err, &list) {
		return list.Errors()
	}
	return nil
}

func detail(err error) string {
	if err == nil {
		return "<nil>"
	}
	if e, ok := err.(interface{ Detailed() string }); ok {
		return e.Detailed()
	}
	return err.Error()
}
