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

// Package slash provides the version of the slash interpreter.
package slash

import hclversion "github.com/hashicorp/go-version"

// version is the current version of the slash interpreter.
// It must be a valid semantic version.
const version = "0.2.0"

// Version returns the slash version.
// It is a programming error to make the version
// an invalid semantic version (it will panic).
func Version() string {
	semver, err := hclversion.NewSemver(version)
	if err != nil {
		panic(err)
	}
	return semver.String()
}
