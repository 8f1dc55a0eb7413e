package msgpack

import (
	"bytes"
	"math"
	"math/big"
	"strconv"
)

// Kind identifies the wire type held by a Value
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pair is one key/value entry of a map, kept in wire order
type Pair struct {
	Key Value
	Val Value
}

// Value is an immutable decoded MessagePack value
// Integers are exact: int64 when representable, *big.Int above MaxInt64
type Value struct {
	kind  Kind
	b     bool
	i     int64
	big   *big.Int // non-nil only for integers outside int64
	f     float64
	f32   bool // float was 32-bit on the wire
	s     string
	raw   []byte
	items []Value
	pairs []Pair
}

// ===== CONSTRUCTORS =====

func Nil() Value            { return Value{kind: KindNil} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Float64(f float64) Value {
	return Value{kind: KindFloat, f: f}
}
func Float32(f float32) Value {
	return Value{kind: KindFloat, f: float64(f), f32: true}
}

// Uint builds an integer value, promoting to big.Int above MaxInt64
func Uint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Value{kind: KindInt, big: new(big.Int).SetUint64(u)}
}

// BigInt builds an integer value, normalizing to int64 when it fits
func BigInt(n *big.Int) Value {
	if n.IsInt64() {
		return Int(n.Int64())
	}
	return Value{kind: KindInt, big: new(big.Int).Set(n)}
}

// Bytes builds a binary value; the slice is copied
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: bytes.Clone(b)}
}

func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

func Map(pairs ...Pair) Value {
	return Value{kind: KindMap, pairs: pairs}
}

// P is shorthand for a string-keyed Pair
func P(key string, val Value) Pair {
	return Pair{Key: String(key), Val: val}
}

// ===== ACCESSORS =====

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNil() bool     { return v.kind == KindNil }
func (v Value) IsFloat32() bool { return v.kind == KindFloat && v.f32 }

// Bool returns the boolean and whether v is a bool
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Int returns the integer when v is an integer representable as int64
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt || v.big != nil {
		return 0, false
	}
	return v.i, true
}

// Uint returns the integer when v is a non-negative integer representable as uint64
func (v Value) Uint() (uint64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	if v.big != nil {
		if v.big.IsUint64() {
			return v.big.Uint64(), true
		}
		return 0, false
	}
	if v.i < 0 {
		return 0, false
	}
	return uint64(v.i), true
}

// BigInt returns a copy of the integer at arbitrary precision
func (v Value) BigInt() (*big.Int, bool) {
	if v.kind != KindInt {
		return nil, false
	}
	if v.big != nil {
		return new(big.Int).Set(v.big), true
	}
	return big.NewInt(v.i), true
}

// IsBig reports integers that do not fit int64
func (v Value) IsBig() bool {
	return v.kind == KindInt && v.big != nil
}

// Float returns floats directly and converts integers, possibly losing precision
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		if v.big != nil {
			f, _ := new(big.Float).SetInt(v.big).Float64()
			return f, true
		}
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the text of a string value
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Bytes returns the payload of a binary value; callers must not modify it
func (v Value) Bytes() ([]byte, bool) {
	return v.raw, v.kind == KindBytes
}

// Len returns element count for arrays and maps, byte length for strings and binaries
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindMap:
		return len(v.pairs)
	case KindString:
		return len(v.s)
	case KindBytes:
		return len(v.raw)
	}
	return 0
}

// Items returns array elements; callers must not modify the slice
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Pairs returns map entries in wire order; callers must not modify the slice
func (v Value) Pairs() []Pair {
	if v.kind != KindMap {
		return nil
	}
	return v.pairs
}

// Get looks up a string key in a map, returning the first match in wire order
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if p.Key.kind == KindString && p.Key.s == key {
			return p.Val, true
		}
	}
	return Value{}, false
}

// Lookup finds a map entry whose key equals k
func (v Value) Lookup(k Value) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if p.Key.Equal(k) {
			return p.Val, true
		}
	}
	return Value{}, false
}

// Text renders integers exactly in base 10
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		if v.big != nil {
			return v.big.String()
		}
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return v.s
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNil:
		return "nil"
	}
	return v.kind.String()
}

// Equal compares values structurally. Float width is ignored, NaN equals NaN
// Map comparison is order-sensitive
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		if v.big != nil || o.big != nil {
			if v.big == nil || o.big == nil {
				return false
			}
			return v.big.Cmp(o.big) == 0
		}
		return v.i == o.i
	case KindFloat:
		if math.IsNaN(v.f) && math.IsNaN(o.f) {
			return true
		}
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(o.pairs[i].Key) || !v.pairs[i].Val.Equal(o.pairs[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}
