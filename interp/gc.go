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

import "github.com/rs/zerolog/log"

// Tuning of the collector. A run happens at the first allocation after
// bytesManaging crosses nextRun.
const (
	gcMinRun         = 1 << 16
	gcHeapGrowFactor = 2
)

// Approximate per-slot costs used for the managed byte accounting.
const (
	objHeaderBytes = 24
	valueBytes     = 64
	mapEntryBytes  = 2*valueBytes + 16
)

// gc is a precise tracing mark-sweep collector over the objects the
// interpreter registers with it. Roots are every variable of every live
// scope plus the shadow stack. Sweeping severs an object's payload and
// drops it from the tracked set.
//
// Any routine that builds a composite object element by element must
// wrap the construction in barrierStart/barrierEnd: while a barrier is
// active every new object is auto-rooted on the shadow stack, so a
// collection triggered mid-construction can not reclaim the
// intermediates.
type gc struct {
	ip *Interpreter

	objs        []Obj
	grayStack   []Obj
	shadowStack []Obj

	bytesManaging int
	nextRun       int
	minRun        int
	growFactor    int

	barrier             int
	shadowLenPreBarrier int
}

func (g *gc) init(ip *Interpreter) {
	g.ip = ip
	g.objs = nil
	g.grayStack = nil
	g.shadowStack = nil
	g.bytesManaging = 0
	g.minRun = gcMinRun
	g.growFactor = gcHeapGrowFactor
	g.nextRun = g.minRun
	g.barrier = 0
	g.shadowLenPreBarrier = 0
}

// grow accounts for size managed bytes and may trigger a collection.
// Every allocation point is a safe point.
func (g *gc) grow(size int) {
	g.bytesManaging += size
	if g.bytesManaging > g.nextRun {
		g.run()
	}
}

func (g *gc) register(o Obj) {
	h := o.header()
	h.marked = true
	h.managed = true
	g.objs = append(g.objs, o)
	if g.barrier > 0 {
		g.shadowPush(o)
	}
}

func (g *gc) shadowPush(o Obj) {
	g.shadowStack = append(g.shadowStack, o)
}

func (g *gc) shadowPop() {
	if len(g.shadowStack) == 0 {
		internalf("gc: shadow pop on empty stack")
	}
	g.shadowStack = g.shadowStack[:len(g.shadowStack)-1]
}

func (g *gc) barrierStart() {
	g.barrier++
	if g.barrier == 1 {
		g.shadowLenPreBarrier = len(g.shadowStack)
	}
}

func (g *gc) barrierEnd() {
	g.barrier--
	if g.barrier == 0 {
		g.shadowStack = g.shadowStack[:g.shadowLenPreBarrier]
	}
}

// resetAfterError discards all transient rooting state. Called when a
// runtime error unwinds the evaluator.
func (g *gc) resetAfterError() {
	g.shadowStack = g.shadowStack[:0]
	g.barrier = 0
}

func (g *gc) visitObj(o Obj) {
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	g.grayStack = append(g.grayStack, o)
}

func (g *gc) visitValue(v Value) {
	if v.IsObj() && v.Obj.header().managed {
		g.visitObj(v.Obj)
	}
}

func (g *gc) blacken(o Obj) {
	switch obj := o.(type) {
	case *Map:
		for _, entry := range obj.entries {
			g.visitValue(entry.key)
			g.visitValue(entry.value)
		}
	case *List:
		for _, item := range obj.Items {
			g.visitValue(item)
		}
	case *Tuple:
		for _, item := range obj.Items {
			g.visitValue(item)
		}
	case *Str:
		// strs have no outgoing references
	default:
		internalf("gc: blacken not implemented for %T", o)
	}
}

func (g *gc) markRoots() {
	for _, o := range g.shadowStack {
		g.visitObj(o)
	}
	for scope := g.ip.scope; scope != nil; scope = scope.enclosing {
		for _, value := range scope.vars {
			g.visitValue(value)
		}
	}
}

func (g *gc) traceReferences() {
	for len(g.grayStack) != 0 {
		o := g.grayStack[len(g.grayStack)-1]
		g.grayStack = g.grayStack[:len(g.grayStack)-1]
		g.blacken(o)
	}
}

// finalize releases the payload of an object and adjusts the byte
// accounting. The Go allocator reclaims the memory once the object is
// dropped from the tracked set.
func (g *gc) finalize(o Obj) {
	if sizer := o.header().t.ObjSize; sizer != nil {
		g.bytesManaging -= sizer(o)
	}
	switch obj := o.(type) {
	case *Map:
		obj.entries = nil
		obj.index = nil
	case *List:
		obj.Items = nil
	case *Tuple:
		obj.Items = nil
	case *Str:
		obj.S = ""
	}
}

func (g *gc) sweep() {
	kept := g.objs[:0]
	for _, o := range g.objs {
		h := o.header()
		if !h.marked && h.managed {
			g.finalize(o)
			continue
		}
		kept = append(kept, o)
	}
	g.objs = kept
}

func (g *gc) reset() {
	g.nextRun = g.bytesManaging * g.growFactor
	if g.nextRun < g.minRun {
		g.nextRun = g.minRun
	}
	for _, o := range g.objs {
		o.header().marked = false
	}
}

func (g *gc) run() {
	pre := g.bytesManaging
	g.markRoots()
	g.traceReferences()
	g.sweep()
	g.reset()

	log.Trace().
		Str("action", "gc.run()").
		Int("freedBytes", pre-g.bytesManaging).
		Int("bytesManaging", g.bytesManaging).
		Int("tracked", len(g.objs)).
		Msg("collection finished")
}

// collectAll unconditionally releases every managed object. Used at
// interpreter shutdown.
func (g *gc) collectAll() {
	for _, o := range g.objs {
		if o.header().managed {
			g.finalize(o)
		}
	}
	g.objs = nil
}

/*
 * object constructors
 */

func (ip *Interpreter) newStr(s string) Value {
	str := &Str{S: s}
	str.t = strType
	ip.gc.grow(objHeaderBytes + len(s))
	ip.gc.register(str)
	return ObjValue(str)
}

// newUnmanagedStr builds a str whose lifetime is external to the GC,
// used for globals seeded from the process environment.
func newUnmanagedStr(s string) Value {
	str := &Str{S: s}
	str.t = strType
	str.managed = false
	return ObjValue(str)
}

func (ip *Interpreter) newList() *List {
	list := &List{}
	list.t = listType
	ip.gc.grow(objHeaderBytes)
	ip.gc.register(list)
	return list
}

func (ip *Interpreter) listAppend(list *List, v Value) {
	list.Items = append(list.Items, v)
	ip.gc.grow(valueBytes)
}

func (ip *Interpreter) newTuple(size int) *Tuple {
	tuple := &Tuple{}
	tuple.t = tupleType
	if size > 0 {
		tuple.Items = make([]Value, size)
	}
	ip.gc.grow(objHeaderBytes + size*valueBytes)
	ip.gc.register(tuple)
	return tuple
}

func (ip *Interpreter) newMap() *Map {
	m := &Map{}
	m.t = mapType
	m.init()
	ip.gc.grow(objHeaderBytes)
	ip.gc.register(m)
	return m
}
