package msgpack

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnencodable is returned for integers outside the uint64/int64 wire range
var ErrUnencodable = errors.New("msgpack: integer out of wire range")

// Encode serializes v using the shortest form for every value
func Encode(v Value) ([]byte, error) {
	return Append(nil, v)
}

// MustEncode is Encode for values known to be in range, panics otherwise
func MustEncode(v Value) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Append appends the encoding of v to dst
func Append(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNil:
		return append(dst, 0xc0), nil

	case KindBool:
		if v.b {
			return append(dst, 0xc3), nil
		}
		return append(dst, 0xc2), nil

	case KindInt:
		if v.big != nil {
			if v.big.Sign() < 0 || !v.big.IsUint64() {
				return dst, ErrUnencodable
			}
			return appendUint(dst, v.big.Uint64()), nil
		}
		if v.i >= 0 {
			return appendUint(dst, uint64(v.i)), nil
		}
		return appendNegInt(dst, v.i), nil

	case KindFloat:
		if v.f32 {
			dst = append(dst, 0xca)
			return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v.f))), nil
		}
		dst = append(dst, 0xcb)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.f)), nil

	case KindString:
		n := len(v.s)
		switch {
		case n <= 31:
			dst = append(dst, 0xa0|byte(n))
		case n <= math.MaxUint8:
			dst = append(dst, 0xd9, byte(n))
		case n <= math.MaxUint16:
			dst = append(dst, 0xda)
			dst = binary.BigEndian.AppendUint16(dst, uint16(n))
		default:
			dst = append(dst, 0xdb)
			dst = binary.BigEndian.AppendUint32(dst, uint32(n))
		}
		return append(dst, v.s...), nil

	case KindBytes:
		n := len(v.raw)
		switch {
		case n <= math.MaxUint8:
			dst = append(dst, 0xc4, byte(n))
		case n <= math.MaxUint16:
			dst = append(dst, 0xc5)
			dst = binary.BigEndian.AppendUint16(dst, uint16(n))
		default:
			dst = append(dst, 0xc6)
			dst = binary.BigEndian.AppendUint32(dst, uint32(n))
		}
		return append(dst, v.raw...), nil

	case KindArray:
		dst = appendHeader(dst, len(v.items), 0x90, 0xdc)
		var err error
		for _, item := range v.items {
			if dst, err = Append(dst, item); err != nil {
				return dst, err
			}
		}
		return dst, nil

	case KindMap:
		dst = appendHeader(dst, len(v.pairs), 0x80, 0xde)
		var err error
		for _, p := range v.pairs {
			if dst, err = Append(dst, p.Key); err != nil {
				return dst, err
			}
			if dst, err = Append(dst, p.Val); err != nil {
				return dst, err
			}
		}
		return dst, nil
	}
	return dst, ErrUnencodable
}

// appendHeader writes a container header: fix form, 16-bit or 32-bit length
func appendHeader(dst []byte, n int, fix, wide byte) []byte {
	switch {
	case n <= 15:
		return append(dst, fix|byte(n))
	case n <= math.MaxUint16:
		dst = append(dst, wide)
		return binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, wide+1)
		return binary.BigEndian.AppendUint32(dst, uint32(n))
	}
}

func appendUint(dst []byte, u uint64) []byte {
	switch {
	case u <= 0x7f:
		return append(dst, byte(u))
	case u <= math.MaxUint8:
		return append(dst, 0xcc, byte(u))
	case u <= math.MaxUint16:
		dst = append(dst, 0xcd)
		return binary.BigEndian.AppendUint16(dst, uint16(u))
	case u <= math.MaxUint32:
		dst = append(dst, 0xce)
		return binary.BigEndian.AppendUint32(dst, uint32(u))
	default:
		dst = append(dst, 0xcf)
		return binary.BigEndian.AppendUint64(dst, u)
	}
}

func appendNegInt(dst []byte, i int64) []byte {
	switch {
	case i >= -32:
		return append(dst, byte(int8(i)))
	case i >= math.MinInt8:
		return append(dst, 0xd0, byte(int8(i)))
	case i >= math.MinInt16:
		dst = append(dst, 0xd1)
		return binary.BigEndian.AppendUint16(dst, uint16(int16(i)))
	case i >= math.MinInt32:
		dst = append(dst, 0xd2)
		return binary.BigEndian.AppendUint32(dst, uint32(int32(i)))
	default:
		dst = append(dst, 0xd3)
		return binary.BigEndian.AppendUint64(dst, uint64(i))
	}
}
