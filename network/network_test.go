package network

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/radarterm/status"
)

func TestMessage_EncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	in := NewMessage(KindSnapshot, 7, []byte{0x81, 0xa1, 'a', 0x01})
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() != HeaderSize+4 {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), HeaderSize+4)
	}
	if got := buf.Bytes()[:HeaderSize]; !bytes.Equal(got, []byte{0x11, 0, 0, 0, 0, 7, 0, 4}) {
		t.Errorf("header = % x", got)
	}

	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Kind != KindSnapshot || out.Seq != 7 || !bytes.Equal(out.Payload, in.Payload) {
		t.Errorf("decoded %+v", out)
	}
	if _, err := Decode(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("empty stream: %v, want EOF", err)
	}
}

func TestMessage_Errors(t *testing.T) {
	if err := NewMessage(KindSnapshot, 1, make([]byte, MaxPayload+1)).Encode(io.Discard); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("oversize: %v", err)
	}

	truncated := []byte{0x11, 0, 0, 0, 0, 1, 0, 10, 'x'}
	if _, err := Decode(bytes.NewReader(truncated)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated payload: %v", err)
	}

	tests := []struct {
		msg  Message
		want error
		text bool
	}{
		{Message{Kind: KindSnapshot}, nil, false},
		{Message{Kind: KindControl}, nil, true},
		{Message{Kind: 0x7f}, ErrUnknownKind, false},
		{Message{Kind: KindSnapshot, Flags: FlagCompressed}, ErrCompressed, false},
	}
	for _, tc := range tests {
		f, err := tc.msg.Frame()
		if !errors.Is(err, tc.want) {
			t.Errorf("kind %#x flags %#x: err %v, want %v", tc.msg.Kind, tc.msg.Flags, err, tc.want)
			continue
		}
		if err == nil && f.Text != tc.text {
			t.Errorf("kind %#x: text = %v", tc.msg.Kind, f.Text)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		addr   string
		scheme Scheme
		target string
		ok     bool
	}{
		{"ws://localhost:8765/ws", SchemeWS, "ws://localhost:8765/ws", true},
		{"WSS://example.com/feed", SchemeWS, "wss://example.com/feed", true},
		{"tcp://127.0.0.1:9000", SchemeTCP, "127.0.0.1:9000", true},
		{"http://example.com", 0, "", false},
		{"ws:///nohost", 0, "", false},
	}
	for _, tc := range tests {
		scheme, target, err := Resolve(tc.addr)
		if (err == nil) != tc.ok {
			t.Errorf("Resolve(%q) err = %v", tc.addr, err)
			continue
		}
		if tc.ok && (scheme != tc.scheme || target != tc.target) {
			t.Errorf("Resolve(%q) = %v %q, want %v %q", tc.addr, scheme, target, tc.scheme, tc.target)
		}
	}
	if _, _, err := Resolve("ftp://x"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("ftp: %v", err)
	}
}

func TestQueue_DropsOldest(t *testing.T) {
	reg := status.NewRegistry()
	q := NewQueue(2, reg)
	for i := byte(1); i <= 4; i++ {
		q.Push(Frame{Data: []byte{i}})
	}
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}
	for _, want := range []byte{3, 4} {
		if f := <-q.C(); f.Data[0] != want {
			t.Errorf("got frame %d, want %d", f.Data[0], want)
		}
	}
	if n := reg.Counters.Get(status.FramesDropped).Load(); n != 2 {
		t.Errorf("dropped = %d, want 2", n)
	}
	if n := reg.Counters.Get(status.BytesIn).Load(); n != 4 {
		t.Errorf("bytes = %d, want 4", n)
	}
}

func TestQueue_KeepsControlFrames(t *testing.T) {
	reg := status.NewRegistry()
	q := NewQueue(3, reg)
	q.Push(Frame{Data: []byte{1}, Text: true})
	q.Push(Frame{Data: []byte{2}})
	q.Push(Frame{Data: []byte{3}, Text: true})
	q.Push(Frame{Data: []byte{4}})
	q.Push(Frame{Data: []byte{5}})

	var got []byte
	for q.Len() > 0 {
		got = append(got, (<-q.C()).Data[0])
	}
	if string(got) != string([]byte{1, 3, 5}) {
		t.Errorf("frames = %v, want [1 3 5]", got)
	}
	if n := reg.Counters.Get(status.FramesDropped).Load(); n != 2 {
		t.Errorf("dropped = %d, want 2", n)
	}

	// Only control frames pending: the oldest goes
	for i := byte(1); i <= 4; i++ {
		q.Push(Frame{Data: []byte{i}, Text: true})
	}
	if f := <-q.C(); f.Data[0] != 2 {
		t.Errorf("oldest kept control = %d, want 2", f.Data[0])
	}
}

var upgrader = websocket.Upgrader{}

// wsServer sends each message in order then holds the connection open until the client leaves
func wsServer(t *testing.T, msgs ...func(*websocket.Conn) error) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, send := range msgs {
			if err := send(conn); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func binaryMsg(b []byte) func(*websocket.Conn) error {
	return func(c *websocket.Conn) error { return c.WriteMessage(websocket.BinaryMessage, b) }
}

func textMsg(s string) func(*websocket.Conn) error {
	return func(c *websocket.Conn) error { return c.WriteMessage(websocket.TextMessage, []byte(s)) }
}

func TestDial_WebSocket(t *testing.T) {
	srv := wsServer(t, binaryMsg([]byte{0x80}), textMsg(`{"type":"status"}`))

	cfg := DefaultConfig()
	cfg.Address = wsURL(srv)
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if conn.Scheme() != SchemeWS {
		t.Errorf("scheme = %v", conn.Scheme())
	}
	f, err := conn.Read()
	if err != nil || f.Text || !bytes.Equal(f.Data, []byte{0x80}) {
		t.Fatalf("binary frame = %+v, %v", f, err)
	}
	f, err = conn.Read()
	if err != nil || !f.Text || string(f.Data) != `{"type":"status"}` {
		t.Fatalf("text frame = %+v, %v", f, err)
	}
}

func TestDial_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		NewMessage(KindSnapshot, 1, []byte{0x80}).Encode(conn)
		NewMessage(KindSnapshot, 1, []byte{0x81}).Encode(conn) // stale sequence
		NewMessage(0x55, 2, []byte{0x00}).Encode(conn)         // unknown kind
		NewMessage(KindControl, 3, []byte(`{}`)).Encode(conn)
	}()

	cfg := DefaultConfig()
	cfg.Address = "tcp://" + ln.Addr().String()
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	f, err := conn.Read()
	if err != nil || f.Text || f.Data[0] != 0x80 {
		t.Fatalf("first frame = %+v, %v", f, err)
	}
	f, err = conn.Read()
	if err != nil || !f.Text || string(f.Data) != `{}` {
		t.Fatalf("second frame = %+v, %v", f, err)
	}
	if _, err := conn.Read(); err == nil {
		t.Error("expected EOF after server close")
	}
}

func TestClient_RunDeliversAndStops(t *testing.T) {
	srv := wsServer(t, binaryMsg([]byte{1}), binaryMsg([]byte{2}))

	reg := status.NewRegistry()
	cfg := DefaultConfig()
	cfg.Address = wsURL(srv)
	c := NewClient(cfg, reg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	for _, want := range []byte{1, 2} {
		select {
		case f := <-c.Frames():
			if f.Data[0] != want {
				t.Errorf("frame %d, want %d", f.Data[0], want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
	if !c.IsConnected() {
		t.Error("not marked connected")
	}
	if got := reg.Labels.Get(status.Transport).Load(); got != "websocket" {
		t.Errorf("transport label = %q", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if c.IsConnected() {
		t.Error("still marked connected after stop")
	}
	if err := c.Run(context.Background()); err == nil {
		t.Error("second Run should fail")
	}
}

func TestClient_Redials(t *testing.T) {
	reg := status.NewRegistry()
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	c := NewClient(cfg, reg)

	calls := 0
	c.dial = func(ctx context.Context, _ *Config) (Conn, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("refused")
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for reg.Counters.Get(status.Reconnects).Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
	if calls < 2 {
		t.Errorf("dial attempts = %d, want >= 2", calls)
	}
}
