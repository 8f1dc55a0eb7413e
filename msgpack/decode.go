package msgpack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxDepth bounds container nesting so hostile input cannot exhaust the stack
const MaxDepth = 512

var (
	ErrTruncated  = errors.New("buffer truncated")
	ErrUnknownTag = errors.New("unrecognized tag")
	ErrTooDeep    = errors.New("nesting too deep")
)

// DecodeError reports where decoding stopped and why
type DecodeError struct {
	Offset int  // position of the failing read
	Tag    byte // tag of the value being decoded
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("msgpack: %v at offset %d (tag 0x%02x)", e.Err, e.Offset, e.Tag)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses exactly one value from the start of buf
// Bytes after the first complete value are ignored
func Decode(buf []byte) (Value, error) {
	v, _, err := DecodePrefix(buf)
	return v, err
}

// DecodePrefix parses one value and returns the number of bytes it occupied
func DecodePrefix(buf []byte) (Value, int, error) {
	d := decoder{buf: buf}
	v, err := d.value(0)
	if err != nil {
		return Value{}, d.off, err
	}
	return v, d.off, nil
}

// decoder is a single-pass cursor over an immutable buffer
type decoder struct {
	buf []byte
	off int
	tag byte
}

func (d *decoder) fail(err error) error {
	return &DecodeError{Offset: d.off, Tag: d.tag, Err: err}
}

// take consumes n bytes, failing without advancing if fewer remain
func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.off < n {
		return nil, d.fail(ErrTruncated)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// length reads a length prefix of the given width in bytes
func (d *decoder) length(width int) (int, error) {
	switch width {
	case 1:
		n, err := d.u8()
		return int(n), err
	case 2:
		n, err := d.u16()
		return int(n), err
	default:
		n, err := d.u32()
		return int(n), err
	}
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, d.fail(ErrTooDeep)
	}

	tag, err := d.u8()
	if err != nil {
		return Value{}, err
	}
	d.tag = tag

	// Tag-embedded forms
	switch {
	case tag <= 0x7f:
		return Int(int64(tag)), nil
	case tag >= 0xe0:
		return Int(int64(int8(tag))), nil
	case tag&0xf0 == 0x80:
		return d.mapBody(int(tag&0x0f), depth)
	case tag&0xf0 == 0x90:
		return d.arrayBody(int(tag&0x0f), depth)
	case tag&0xe0 == 0xa0:
		return d.str(int(tag & 0x1f))
	}

	switch tag {
	case 0xc0:
		return Nil(), nil
	case 0xc2:
		return Bool(false), nil
	case 0xc3:
		return Bool(true), nil

	case 0xc4, 0xc5, 0xc6:
		n, err := d.length(1 << (tag - 0xc4))
		if err != nil {
			return Value{}, err
		}
		b, err := d.take(n)
		if err != nil {
			return Value{}, err
		}
		return Bytes(b), nil

	case 0xca:
		bits, err := d.u32()
		if err != nil {
			return Value{}, err
		}
		return Float32(math.Float32frombits(bits)), nil
	case 0xcb:
		bits, err := d.u64()
		if err != nil {
			return Value{}, err
		}
		return Float64(math.Float64frombits(bits)), nil

	case 0xcc:
		n, err := d.u8()
		return Int(int64(n)), err
	case 0xcd:
		n, err := d.u16()
		return Int(int64(n)), err
	case 0xce:
		n, err := d.u32()
		return Int(int64(n)), err
	case 0xcf:
		n, err := d.u64()
		if err != nil {
			return Value{}, err
		}
		return Uint(n), nil

	case 0xd0:
		n, err := d.u8()
		return Int(int64(int8(n))), err
	case 0xd1:
		n, err := d.u16()
		return Int(int64(int16(n))), err
	case 0xd2:
		n, err := d.u32()
		return Int(int64(int32(n))), err
	case 0xd3:
		n, err := d.u64()
		return Int(int64(n)), err

	case 0xd9, 0xda, 0xdb:
		n, err := d.length(1 << (tag - 0xd9))
		if err != nil {
			return Value{}, err
		}
		return d.str(n)

	case 0xdc, 0xdd:
		n, err := d.length(2 << (tag - 0xdc))
		if err != nil {
			return Value{}, err
		}
		return d.arrayBody(n, depth)

	case 0xde, 0xdf:
		n, err := d.length(2 << (tag - 0xde))
		if err != nil {
			return Value{}, err
		}
		return d.mapBody(n, depth)
	}

	// Rewind so Offset points at the offending tag
	d.off--
	return Value{}, d.fail(ErrUnknownTag)
}

func (d *decoder) str(n int) (Value, error) {
	b, err := d.take(n)
	if err != nil {
		return Value{}, err
	}
	return String(string(b)), nil
}

// capHint bounds preallocation by remaining input, every element needs at least one byte
func (d *decoder) capHint(n, perElem int) int {
	remaining := (len(d.buf) - d.off) / perElem
	if n > remaining {
		return remaining
	}
	return n
}

func (d *decoder) arrayBody(n, depth int) (Value, error) {
	items := make([]Value, 0, d.capHint(n, 1))
	for i := 0; i < n; i++ {
		v, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return Value{kind: KindArray, items: items}, nil
}

func (d *decoder) mapBody(n, depth int) (Value, error) {
	pairs := make([]Pair, 0, d.capHint(n, 2))
	for i := 0; i < n; i++ {
		k, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		pairs = append(pairs, Pair{Key: k, Val: v})
	}
	return Value{kind: KindMap, pairs: pairs}, nil
}
