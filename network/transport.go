package network

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/radarterm/status"
)

// Dial connects to cfg.Address using the transport its scheme names
func Dial(ctx context.Context, cfg *Config) (Conn, error) {
	scheme, target, err := Resolve(cfg.Address)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeTCP:
		dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", target, err)
		}
		return newTCPConn(conn, cfg), nil

	default:
		dialer := websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.ConnectTimeout,
			TLSClientConfig:  cfg.TLS,
			ReadBufferSize:   cfg.ReadBufferSize,
		}
		conn, resp, err := dialer.DialContext(ctx, target, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", target, err)
		}
		return newWSConn(conn, cfg), nil
	}
}

// Queue is a bounded frame channel that keeps the newest frames
// It supports one producer. A full queue drops its oldest pending snapshot frame;
// text (control) frames are only dropped when nothing else is pending
type Queue struct {
	ch      chan Frame
	metrics *status.Registry
	pending []Frame
}

// NewQueue creates a queue holding at most size frames
func NewQueue(size int, metrics *status.Registry) *Queue {
	if size < 1 {
		size = 1
	}
	if metrics == nil {
		metrics = status.NewRegistry()
	}
	return &Queue{ch: make(chan Frame, size), metrics: metrics}
}

// Push enqueues f, evicting a pending frame when full
func (q *Queue) Push(f Frame) {
	q.metrics.Counters.Get(status.BytesIn).Add(int64(len(f.Data)))
	select {
	case q.ch <- f:
		return
	default:
	}

	// Drain, evict one, refill in order; the consumer only ever frees space meanwhile
	q.pending = q.pending[:0]
	for drained := false; !drained; {
		select {
		case old := <-q.ch:
			q.pending = append(q.pending, old)
		default:
			drained = true
		}
	}
	if len(q.pending) == cap(q.ch) {
		victim := 0
		for i, old := range q.pending {
			if !old.Text {
				victim = i
				break
			}
		}
		q.pending = append(q.pending[:victim], q.pending[victim+1:]...)
		q.metrics.Counters.Get(status.FramesDropped).Add(1)
	}
	for _, old := range q.pending {
		q.ch <- old
	}
	q.ch <- f
}

// C is the consumer side
func (q *Queue) C() <-chan Frame {
	return q.ch
}

// Len returns the number of pending frames
func (q *Queue) Len() int {
	return len(q.ch)
}
