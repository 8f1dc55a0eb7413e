package network

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one inbound payload handed to the session
type Frame struct {
	Data []byte
	Text bool // text WebSocket frame or TCP control frame
	At   time.Time
}

// Conn is an established inbound stream
type Conn interface {
	// Read blocks for the next frame
	Read() (Frame, error)
	Close() error
	Scheme() Scheme
}

// wsConn reads binary and text messages off a WebSocket
type wsConn struct {
	conn        *websocket.Conn
	readTimeout time.Duration
	closeOnce   sync.Once
}

func newWSConn(conn *websocket.Conn, cfg *Config) *wsConn {
	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}
	c := &wsConn{conn: conn, readTimeout: cfg.ReadTimeout}
	conn.SetPingHandler(func(data string) error {
		c.extendDeadline()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	return c
}

func (c *wsConn) extendDeadline() {
	if c.readTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}

func (c *wsConn) Read() (Frame, error) {
	for {
		c.extendDeadline()
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		switch mt {
		case websocket.BinaryMessage:
			return Frame{Data: data, At: time.Now()}, nil
		case websocket.TextMessage:
			return Frame{Data: data, Text: true, At: time.Now()}, nil
		}
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) Scheme() Scheme { return SchemeWS }

// tcpConn reads length-framed messages off a byte stream
type tcpConn struct {
	conn        net.Conn
	reader      *bufio.Reader
	readTimeout time.Duration
	lastSeq     uint32
	seen        bool
	closeOnce   sync.Once
}

func newTCPConn(conn net.Conn, cfg *Config) *tcpConn {
	size := cfg.ReadBufferSize
	if size <= 0 {
		size = 64 * 1024
	}
	return &tcpConn{
		conn:        conn,
		reader:      bufio.NewReaderSize(conn, size),
		readTimeout: cfg.ReadTimeout,
	}
}

// Read skips frames whose sequence does not advance
func (c *tcpConn) Read() (Frame, error) {
	for {
		if c.readTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		msg, err := Decode(c.reader)
		if err != nil {
			return Frame{}, err
		}
		if c.seen && msg.Seq <= c.lastSeq {
			continue
		}
		c.lastSeq, c.seen = msg.Seq, true

		f, err := msg.Frame()
		if err != nil {
			if errors.Is(err, ErrUnknownKind) {
				continue
			}
			return Frame{}, fmt.Errorf("frame %d: %w", msg.Seq, err)
		}
		f.At = time.Now()
		return f, nil
	}
}

func (c *tcpConn) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}

func (c *tcpConn) Scheme() Scheme { return SchemeTCP }
