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

import "strconv"

// cast converts value to the type registered under typeName.
func (ip *Interpreter) cast(value Value, typeName string) Value {
	newType, ok := ip.typeRegister[typeName]
	if !ok {
		throwf("Unknown type name '%s' in cast", typeName)
	}

	// casting to the type the value already has does nothing
	if newType == value.T {
		return value
	}

	switch newType {
	case strType:
		verifyTrait(value.T.ToStr != nil,
			"Could not cast to 'str' because type '%s' does not implement the to_str trait",
			value.T.Name)
		return value.T.ToStr(ip, value)
	case numType:
		if value.T != strType {
			throwf("Cast from '%s' to num is not supported", value.T.Name)
		}
		n, err := strconv.ParseFloat(value.AsStr().S, 64)
		if err != nil {
			throwf("Could not parse '%s' as num", value.AsStr().S)
		}
		return NumValue(n)
	case boolType:
		verifyTrait(value.T.Truthy != nil,
			"Could not cast to 'bool' because type '%s' does not implement the truthy trait",
			value.T.Name)
		return BoolValue(value.T.Truthy(value))
	}

	throwf("Cast from '%s' to '%s' is not supported", value.T.Name, typeName)
	return None
}
