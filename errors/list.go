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

package errors

import (
	"strconv"
	"strings"
)

// List is an error that aggregates multiple errors.
// The zero value is not valid, use L to build one.
type List struct {
	errs []error
}

// L builds a List from the given errors, ignoring nil values.
func L(errs ...error) *List {
	list := &List{}
	for _, err := range errs {
		list.Append(err)
	}
	return list
}

// Append appends errors on the list, ignoring nil values.
// Appending a *List merges its errors into this one.
func (l *List) Append(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if el, ok := err.(*List); ok {
			l.errs = append(l.errs, el.errs...)
			continue
		}
		l.errs = append(l.errs, err)
	}
}

// AppendWrap appends errs wrapping each of them on the given kind.
func (l *List) AppendWrap(kind Kind, errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if el, ok := err.(*List); ok {
			l.AppendWrap(kind, el.errs...)
			continue
		}
		l.Append(E(kind, err))
	}
}

// Errors returns all errors on the list.
func (l *List) Errors() []error {
	return l.errs
}

// AsError returns the list itself when it has errors and nil otherwise,
// so it can be returned directly from functions building lists.
func (l *List) AsError() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Error returns the string representation of the first error on the
// list, plus a counter of how many other errors there are.
func (l *List) Error() string {
	if len(l.errs) == 0 {
		return "empty error list"
	}
	if len(l.errs) == 1 {
		return l.errs[0].Error()
	}
	return l.errs[0].Error() + " (and " + strconv.Itoa(len(l.errs)-1) + " more errors)"
}

// Detailed returns a string representation with all errors, one per line.
func (l *List) Detailed() string {
	details := make([]string, 0, len(l.errs))
	for _, err := range l.errs {
		details = append(details, err.Error())
	}
	return strings.Join(details, "\n")
}

// Is tells if any error on the list matches target.
func (l *List) Is(target error) bool {
	for _, err := range l.errs {
		if Is(err, target) {
			return true
		}
	}
	return false
}

// As finds the first error on the list matching target.
func (l *List) As(target interface{}) bool {
	for _, err := range l.errs {
		if As(err, target) {
			return true
		}
	}
	return false
}
