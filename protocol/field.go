package protocol

import (
	"math"

	"github.com/lixenwraith/radarterm/msgpack"
)

// Field readers are lenient: a missing or mistyped field reads as the zero value

func str(m msgpack.Value, key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}

// optStr reports presence separately so callers can distinguish absent from empty
func optStr(m msgpack.Value, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.Str()
}

func num(m msgpack.Value, key string) float64 {
	f, _ := optNum(m, key)
	return f
}

// optNum reads a finite number, integers convert to float
func optNum(m msgpack.Value, key string) (float64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func integer(m msgpack.Value, key string) int64 {
	v, ok := m.Get(key)
	if !ok {
		return 0
	}
	if i, ok := v.Int(); ok {
		return i
	}
	// Integral floats are common from JSON-origin payloads
	if f, ok := v.Float(); ok && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

func boolean(m msgpack.Value, key string) bool {
	b := optBool(m, key)
	return b != nil && *b
}

// optBool returns nil unless the key holds an actual boolean
func optBool(m msgpack.Value, key string) *bool {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	b, ok := v.Bool()
	if !ok {
		return nil
	}
	return &b
}

// ident renders an identifier exactly, whether sent as integer or string
func ident(m msgpack.Value, key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	switch v.Kind() {
	case msgpack.KindString, msgpack.KindInt, msgpack.KindFloat:
		return v.Text()
	}
	return ""
}

func mapping(m msgpack.Value, key string) (msgpack.Value, bool) {
	v, ok := m.Get(key)
	if !ok || v.Kind() != msgpack.KindMap {
		return msgpack.Value{}, false
	}
	return v, true
}

func list(m msgpack.Value, key string) []msgpack.Value {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return v.Items()
}

func strList(m msgpack.Value, key string) []string {
	items := list(m, key)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.Str(); ok {
			out = append(out, s)
		}
	}
	return out
}
