package network

import (
	"encoding/binary"
	"errors"
	"io"
)

// Kind identifies what a TCP frame carries
type Kind uint8

const (
	KindSnapshot Kind = 0x11 // MessagePack payload
	KindControl  Kind = 0x12 // JSON payload
)

// Header precedes every frame on a TCP stream
// Fixed 8 bytes: [Kind:1][Flags:1][Seq:4][Len:2]
const HeaderSize = 8

// MaxPayload is the largest payload a single frame can carry
const MaxPayload = 65535

// Header flags
const (
	FlagNone       uint8 = 0x00
	FlagCompressed uint8 = 0x02 // reserved, rejected on read
)

var (
	ErrPayloadTooLarge   = errors.New("payload exceeds maximum size")
	ErrUnknownKind       = errors.New("unknown frame kind")
	ErrCompressed        = errors.New("compressed frames are not supported")
	ErrUnsupportedScheme = errors.New("unsupported address scheme")
)

// Message is one framed unit on a TCP stream
type Message struct {
	Kind    Kind
	Flags   uint8
	Seq     uint32
	Payload []byte
}

// Encode writes the header and payload
func (m *Message) Encode(w io.Writer) error {
	payloadLen := len(m.Payload)
	if payloadLen > MaxPayload {
		return ErrPayloadTooLarge
	}

	var header [HeaderSize]byte
	header[0] = byte(m.Kind)
	header[1] = m.Flags
	binary.BigEndian.PutUint32(header[2:6], m.Seq)
	binary.BigEndian.PutUint16(header[6:8], uint16(payloadLen))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one message; a clean end of stream before the header returns io.EOF
func Decode(r io.Reader) (*Message, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	m := &Message{
		Kind:  Kind(header[0]),
		Flags: header[1],
		Seq:   binary.BigEndian.Uint32(header[2:6]),
	}
	payloadLen := binary.BigEndian.Uint16(header[6:8])

	if payloadLen > 0 {
		m.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return m, nil
}

// Frame converts a TCP message into a session frame
func (m *Message) Frame() (Frame, error) {
	if m.Flags&FlagCompressed != 0 {
		return Frame{}, ErrCompressed
	}
	switch m.Kind {
	case KindSnapshot:
		return Frame{Data: m.Payload}, nil
	case KindControl:
		return Frame{Data: m.Payload, Text: true}, nil
	}
	return Frame{}, ErrUnknownKind
}

// NewMessage creates a frame of the given kind
func NewMessage(k Kind, seq uint32, payload []byte) *Message {
	return &Message{Kind: k, Seq: seq, Payload: payload}
}
