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

// Map is the slash map object: insertion ordered entries with a
// hash index on the side. Keys must implement the hash trait.
type Map struct {
	objHeader

	entries []mapEntry
	// index maps a key hash to candidate entry positions.
	index map[int][]int
}

type mapEntry struct {
	key   Value
	value Value
}

func (m *Map) init() {
	m.entries = nil
	m.index = make(map[int][]int)
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

func keyHash(key Value) int {
	if key.T.Hash == nil {
		throwf("Unhashable type '%s'", key.T.Name)
	}
	return key.T.Hash(key)
}

func (m *Map) find(key Value) int {
	h := keyHash(key)
	for _, idx := range m.index[h] {
		candidate := m.entries[idx].key
		if TypeEq(candidate, key) && candidate.T.Eq(candidate, key) {
			return idx
		}
	}
	return -1
}

// Put inserts or replaces the value for key.
func (m *Map) Put(ip *Interpreter, key, value Value) {
	if idx := m.find(key); idx >= 0 {
		m.entries[idx].value = value
		return
	}
	h := keyHash(key)
	m.entries = append(m.entries, mapEntry{key: key, value: value})
	m.index[h] = append(m.index[h], len(m.entries)-1)
	ip.gc.grow(mapEntryBytes)
}

// Get returns the value stored under key, or none.
func (m *Map) Get(key Value) Value {
	if idx := m.find(key); idx >= 0 {
		return m.entries[idx].value
	}
	return None
}

// Keys returns all keys in insertion order.
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, entry := range m.entries {
		keys[i] = entry.key
	}
	return keys
}
