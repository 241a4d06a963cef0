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
	"math"
	"strconv"
	"strings"
)

/*
 * bool impl
 */

func boolUnaryNot(self Value) Value {
	return BoolValue(!self.Bool)
}

func boolPrint(ip *Interpreter, self Value) {
	if self.Bool {
		ip.print("true")
	} else {
		ip.print("false")
	}
}

func boolToStr(ip *Interpreter, self Value) Value {
	if self.Bool {
		return ip.newStr("true")
	}
	return ip.newStr("false")
}

func boolTruthy(self Value) bool { return self.Bool }

func boolEq(self, other Value) bool { return self.Bool == other.Bool }

func boolCmp(self, other Value) int {
	if self.Bool == other.Bool {
		return 0
	}
	if self.Bool {
		return 1
	}
	return -1
}

func boolHash(self Value) int {
	if self.Bool {
		return 1
	}
	return 0
}

/*
 * num impl
 */

func numPlus(ip *Interpreter, self, other Value) Value {
	return NumValue(self.Num + other.Num)
}

func numMinus(self, other Value) Value {
	return NumValue(self.Num - other.Num)
}

func numMul(ip *Interpreter, self, other Value) Value {
	return NumValue(self.Num * other.Num)
}

func numDiv(self, other Value) Value {
	if other.Num == 0 {
		throwf("Division by zero error")
	}
	return NumValue(self.Num / other.Num)
}

func numIntDiv(self, other Value) Value {
	if other.Num == 0 {
		throwf("Division by zero error")
	}
	return NumValue(math.Trunc(self.Num / other.Num))
}

func numPow(self, other Value) Value {
	return NumValue(math.Pow(self.Num, other.Num))
}

func numMod(self, other Value) Value {
	if other.Num == 0 {
		throwf("Modulo by zero error")
	}
	m := math.Mod(self.Num, other.Num)
	// same behaviour as we tend to see in maths
	if m < 0 && other.Num > 0 {
		m += other.Num
	}
	return NumValue(m)
}

func numUnaryMinus(self Value) Value { return NumValue(-self.Num) }

func numUnaryNot(self Value) Value { return BoolValue(!numTruthy(self)) }

// FormatNum renders a num the way slash prints it: integers without a
// fractional part, everything else as a float.
func FormatNum(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func numPrint(ip *Interpreter, self Value) {
	ip.print(FormatNum(self.Num))
}

func numToStr(ip *Interpreter, self Value) Value {
	return ip.newStr(FormatNum(self.Num))
}

func numTruthy(self Value) bool { return self.Num != 0 }

func numEq(self, other Value) bool { return self.Num == other.Num }

func numCmp(self, other Value) int {
	switch {
	case self.Num > other.Num:
		return 1
	case self.Num < other.Num:
		return -1
	}
	return 0
}

func numHash(self Value) int {
	if self.IsIntNum() {
		return int(self.Num)
	}
	return int(math.Float64bits(self.Num))
}

/*
 * range impl
 */

func rangeString(r Range) string {
	return fmt.Sprintf("%d -> %d", r.Start, r.End)
}

func rangePrint(ip *Interpreter, self Value) {
	ip.print(rangeString(self.Rng))
}

func rangeToStr(ip *Interpreter, self Value) Value {
	return ip.newStr(rangeString(self.Rng))
}

func rangeItemGet(ip *Interpreter, self, other Value) Value {
	if !other.IsNum() {
		throwf("Can not use '%s' as a range index", other.T.Name)
	}
	if !other.IsIntNum() {
		throwf("Range index can not be a floating point number: '%v'", other.Num)
	}
	r := self.Rng
	idx := int(other.Num)
	size := r.End - r.Start
	if size < 0 {
		size = -size
	}
	if idx < 0 || idx >= size {
		throwf("Range index out of range. Has size '%d', tried to get item at index '%d'",
			size, idx)
	}

	if r.End > r.Start {
		return NumValue(float64(r.Start + idx))
	}
	return NumValue(float64(r.Start - idx))
}

func rangeItemIn(self, other Value) bool {
	if !other.IsNum() || !other.IsIntNum() {
		return false
	}
	// descending ranges are deliberately not considered here
	offset := self.Rng.Start + int(other.Num)
	return offset < self.Rng.End
}

func rangeTruthy(Value) bool { return true }

func rangeEq(self, other Value) bool {
	return self.Rng == other.Rng
}

/*
 * text_lit impl
 */

func textLitToStr(ip *Interpreter, self Value) Value {
	var sb strings.Builder
	for i := 0; i < len(self.Text); i++ {
		c := self.Text[i]
		if c == '~' {
			if home, ok := ip.scope.Get("HOME"); ok && home.Value.IsStr() {
				sb.WriteString(home.Value.AsStr().S)
				continue
			}
		}
		sb.WriteByte(c)
	}
	return ip.newStr(sb.String())
}

/*
 * function impl
 */

func functionPrint(ip *Interpreter, self Value) {
	ip.print("<function>")
}

/*
 * map impl
 */

func mapUnaryNot(self Value) Value {
	return BoolValue(!mapTruthy(self))
}

func mapPrint(ip *Interpreter, self Value) {
	m := self.AsMap()
	ip.print("@[")
	for i, entry := range m.entries {
		entry.key.T.Print(ip, entry.key)
		ip.print(": ")
		entry.value.T.Print(ip, entry.value)
		if i != len(m.entries)-1 {
			ip.print(", ")
		}
	}
	ip.print("]")
}

func mapItemGet(ip *Interpreter, self, other Value) Value {
	return self.AsMap().Get(other)
}

func mapItemAssign(ip *Interpreter, self, index, other Value) {
	self.AsMap().Put(ip, index, other)
}

func mapItemIn(self, other Value) bool {
	return !self.AsMap().Get(other).IsNone()
}

func mapTruthy(self Value) bool { return self.AsMap().Len() != 0 }

func mapEq(self, other Value) bool {
	a := self.AsMap()
	b := other.AsMap()
	if a.Len() != b.Len() {
		return false
	}

	for _, key := range a.Keys() {
		entryA := a.Get(key)
		entryB := b.Get(key)
		if !TypeEq(entryA, entryB) {
			return false
		}
		if !entryA.T.Eq(entryA, entryB) {
			return false
		}
	}
	return true
}

func mapObjSize(o Obj) int {
	return objHeaderBytes + o.(*Map).Len()*mapEntryBytes
}

/*
 * list impl
 */

func listPlus(ip *Interpreter, self, other Value) Value {
	ip.gc.barrierStart()
	defer ip.gc.barrierEnd()
	newList := ip.newList()

	a := self.AsList()
	newList.Items = append(newList.Items, a.Items...)
	b := other.AsList()
	newList.Items = append(newList.Items, b.Items...)
	ip.gc.grow(len(newList.Items) * valueBytes)
	return ObjValue(newList)
}

func listUnaryNot(self Value) Value {
	return BoolValue(!listTruthy(self))
}

func listPrint(ip *Interpreter, self Value) {
	list := self.AsList()
	ip.print("[")
	for i, item := range list.Items {
		verifyTrait(item.T.Print != nil, "print not defined for type '%s'", item.T.Name)
		item.T.Print(ip, item)
		if i != len(list.Items)-1 {
			ip.print(", ")
		}
	}
	ip.print("]")
}

func listItemGet(ip *Interpreter, self, other Value) Value {
	if !other.IsNum() {
		throwf("Can not use '%s' as a list index", other.T.Name)
	}
	if !other.IsIntNum() {
		throwf("List index can not be a floating point number: '%v'", other.Num)
	}

	list := self.AsList()
	index := int(other.Num)
	if index < 0 || index >= len(list.Items) {
		throwf("List index '%d' out of range for list with len '%d'", index, len(list.Items))
	}
	return list.Items[index]
}

func listItemAssign(ip *Interpreter, self, index, other Value) {
	if !index.IsNum() {
		throwf("Can not use '%s' as a list index", index.T.Name)
	}
	if !index.IsIntNum() {
		throwf("List index can not be a floating point number: '%v'", index.Num)
	}

	list := self.AsList()
	idx := int(index.Num)
	if idx < 0 || idx >= len(list.Items) {
		throwf("List index '%d' out of range for list with len '%d'", idx, len(list.Items))
	}
	list.Items[idx] = other
}

func listItemIn(self, other Value) bool {
	for _, item := range self.AsList().Items {
		if TypeEq(item, other) && item.T.Eq(item, other) {
			return true
		}
	}
	return false
}

func listTruthy(self Value) bool { return len(self.AsList().Items) != 0 }

func listEq(self, other Value) bool {
	a := self.AsList()
	b := other.AsList()
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		itemA := a.Items[i]
		itemB := b.Items[i]
		if !TypeEq(itemA, itemB) {
			return false
		}
		if !itemA.T.Eq(itemA, itemB) {
			return false
		}
	}
	return true
}

func listObjSize(o Obj) int {
	return objHeaderBytes + cap(o.(*List).Items)*valueBytes
}

/*
 * tuple impl
 */

func tuplePlus(ip *Interpreter, self, other Value) Value {
	a := self.AsTuple()
	b := other.AsTuple()
	newTuple := ip.newTuple(len(a.Items) + len(b.Items))
	copy(newTuple.Items, a.Items)
	copy(newTuple.Items[len(a.Items):], b.Items)
	return ObjValue(newTuple)
}

func tupleUnaryNot(self Value) Value {
	return BoolValue(!tupleTruthy(self))
}

func tuplePrint(ip *Interpreter, self Value) {
	tuple := self.AsTuple()
	ip.print("(")
	for i, item := range tuple.Items {
		verifyTrait(item.T.Print != nil, "print not defined for type '%s'", item.T.Name)
		item.T.Print(ip, item)
		if i != len(tuple.Items)-1 || i == 0 {
			ip.print(",")
		}
	}
	ip.print(")")
}

func tupleItemGet(ip *Interpreter, self, other Value) Value {
	if !other.IsNum() {
		throwf("Can not use '%s' as a tuple index", other.T.Name)
	}
	if !other.IsIntNum() {
		throwf("Tuple index can not be a floating point number: '%v'", other.Num)
	}

	tuple := self.AsTuple()
	index := int(other.Num)
	if index < 0 || index >= len(tuple.Items) {
		throwf("Tuple index '%d' out of range for tuple with len '%d'", index, len(tuple.Items))
	}
	return tuple.Items[index]
}

func tupleItemIn(self, other Value) bool {
	for _, item := range self.AsTuple().Items {
		if TypeEq(item, other) && item.T.Eq(item, other) {
			return true
		}
	}
	return false
}

func tupleTruthy(self Value) bool { return len(self.AsTuple().Items) != 0 }

func tupleEq(self, other Value) bool {
	a := self.AsTuple()
	b := other.AsTuple()
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !TypeEq(a.Items[i], b.Items[i]) {
			return false
		}
		if !a.Items[i].T.Eq(a.Items[i], b.Items[i]) {
			return false
		}
	}
	return true
}

func tupleHash(self Value) int {
	hash := 5381
	for _, item := range self.AsTuple().Items {
		verifyTrait(item.T.Hash != nil, "Unhashable type '%s'", item.T.Name)
		hash += ((hash << 5) + hash) + item.T.Hash(item)
	}
	return hash
}

func tupleObjSize(o Obj) int {
	return objHeaderBytes + len(o.(*Tuple).Items)*valueBytes
}

/*
 * str impl
 */

func strPlus(ip *Interpreter, self, other Value) Value {
	return ip.newStr(self.AsStr().S + other.AsStr().S)
}

func strUnaryNot(self Value) Value {
	return BoolValue(!strTruthy(self))
}

func strPrint(ip *Interpreter, self Value) {
	ip.print("\"" + self.AsStr().S + "\"")
}

func strToStr(ip *Interpreter, self Value) Value { return self }

func strItemGet(ip *Interpreter, self, other Value) Value {
	str := self.AsStr()

	var start, end int
	switch {
	case other.IsNum():
		if !other.IsIntNum() {
			throwf("Index can not be a floating point number: '%v'", other.Num)
		}
		start = int(other.Num)
		end = start + 1
		if start < 0 || start >= len(str.S) {
			throwf("Index out of range. String has len '%d', tried to get item at index '%d'",
				len(str.S), start)
		}
	case other.T == rangeType:
		start = other.Rng.Start
		end = other.Rng.End
		if start > end {
			throwf("Reversed range can not be used to get item from string")
		}
		if start < 0 || end > len(str.S) {
			throwf("Range '%s' out of range for string with len '%d'",
				rangeString(other.Rng), len(str.S))
		}
	default:
		throwf("Can not use '%s' as an index", other.T.Name)
	}

	return ip.newStr(str.S[start:end])
}

func strItemAssign(ip *Interpreter, self, index, other Value) {
	if !other.IsStr() {
		throwf("Can only assign a str into a str")
	}
	if !index.IsNum() || !index.IsIntNum() {
		throwf("Str index can not be a floating point number")
	}

	str := self.AsStr()
	idx := int(index.Num)
	if idx < 0 || idx >= len(str.S) {
		throwf("Str index '%d' out of range for str with len '%d'", idx, len(str.S))
	}

	replacement := other.AsStr()
	if len(replacement.S) != 1 {
		throwf("Can only assign a string of length one")
	}
	str.S = str.S[:idx] + replacement.S + str.S[idx+1:]
}

func strItemIn(self, other Value) bool {
	if !other.IsStr() {
		return false
	}
	return strings.Contains(self.AsStr().S, other.AsStr().S)
}

func strTruthy(self Value) bool { return len(self.AsStr().S) != 0 }

func strCmp(self, other Value) int {
	return strings.Compare(self.AsStr().S, other.AsStr().S)
}

func strEq(self, other Value) bool { return strCmp(self, other) == 0 }

func strHash(self Value) int {
	const a = 1327217885
	k := 5381
	s := self.AsStr().S
	for i := 0; i < len(s); i++ {
		k += ((k << 5) + k) + int(s[i])
	}
	return k * a
}

func strObjSize(o Obj) int {
	return objHeaderBytes + len(o.(*Str).S)
}

/*
 * none impl
 */

func nonePrint(ip *Interpreter, self Value) {
	ip.print("none")
}

func noneToStr(ip *Interpreter, self Value) Value {
	return ip.newStr("none")
}

func noneTruthy(Value) bool { return false }

func noneEq(Value, Value) bool { return true }

/*
 * type infos
 */

var (
	boolType     = &TypeInfo{}
	numType      = &TypeInfo{}
	rangeType    = &TypeInfo{}
	textLitType  = &TypeInfo{}
	functionType = &TypeInfo{}
	mapType      = &TypeInfo{}
	listType     = &TypeInfo{}
	tupleType    = &TypeInfo{}
	strType      = &TypeInfo{}
	noneType     = &TypeInfo{}
)

// The TypeInfo values above and the functions they reference (e.g.
// boolUnaryNot -> BoolValue -> boolType) are mutually dependent, so their
// fields are populated here, after every package-level var has been
// created, instead of in the var declarations themselves.
func init() {
	*boolType = TypeInfo{
		Name:     "bool",
		UnaryNot: boolUnaryNot,
		Print:    boolPrint,
		ToStr:    boolToStr,
		Truthy:   boolTruthy,
		Eq:       boolEq,
		Cmp:      boolCmp,
		Hash:     boolHash,
	}

	*numType = TypeInfo{
		Name:       "num",
		Plus:       numPlus,
		Minus:      numMinus,
		Mul:        numMul,
		Div:        numDiv,
		IntDiv:     numIntDiv,
		Pow:        numPow,
		Mod:        numMod,
		UnaryMinus: numUnaryMinus,
		UnaryNot:   numUnaryNot,
		Print:      numPrint,
		ToStr:      numToStr,
		Truthy:     numTruthy,
		Eq:         numEq,
		Cmp:        numCmp,
		Hash:       numHash,
	}

	*rangeType = TypeInfo{
		Name:    "range",
		Print:   rangePrint,
		ToStr:   rangeToStr,
		ItemGet: rangeItemGet,
		ItemIn:  rangeItemIn,
		Truthy:  rangeTruthy,
		Eq:      rangeEq,
	}

	*textLitType = TypeInfo{
		Name:  "text",
		ToStr: textLitToStr,
		// text literals must be converted before anything else applies
		Truthy: func(Value) bool { return true },
		Eq:     func(a, b Value) bool { return a.Text == b.Text },
	}

	*functionType = TypeInfo{
		Name:   "function",
		Print:  functionPrint,
		Truthy: func(Value) bool { return true },
		Eq:     func(a, b Value) bool { return a.Fn == b.Fn },
	}

	*mapType = TypeInfo{
		Name:       "map",
		UnaryNot:   mapUnaryNot,
		Print:      mapPrint,
		ItemGet:    mapItemGet,
		ItemAssign: mapItemAssign,
		ItemIn:     mapItemIn,
		Truthy:     mapTruthy,
		Eq:         mapEq,
		ObjSize:    mapObjSize,
	}

	*listType = TypeInfo{
		Name:       "list",
		Plus:       listPlus,
		UnaryNot:   listUnaryNot,
		Print:      listPrint,
		ItemGet:    listItemGet,
		ItemAssign: listItemAssign,
		ItemIn:     listItemIn,
		Truthy:     listTruthy,
		Eq:         listEq,
		ObjSize:    listObjSize,
	}

	*tupleType = TypeInfo{
		Name:     "tuple",
		Plus:     tuplePlus,
		UnaryNot: tupleUnaryNot,
		Print:    tuplePrint,
		ItemGet:  tupleItemGet,
		ItemIn:   tupleItemIn,
		Truthy:   tupleTruthy,
		Eq:       tupleEq,
		Hash:     tupleHash,
		ObjSize:  tupleObjSize,
	}

	*strType = TypeInfo{
		Name:       "str",
		Plus:       strPlus,
		UnaryNot:   strUnaryNot,
		Print:      strPrint,
		ToStr:      strToStr,
		ItemGet:    strItemGet,
		ItemAssign: strItemAssign,
		ItemIn:     strItemIn,
		Truthy:     strTruthy,
		Eq:         strEq,
		Cmp:        strCmp,
		Hash:       strHash,
		ObjSize:    strObjSize,
	}

	*noneType = TypeInfo{
		Name:   "none",
		Print:  nonePrint,
		ToStr:  noneToStr,
		Truthy: noneTruthy,
		Eq:     noneEq,
	}
}
