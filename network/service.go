package network

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/radarterm/status"
)

// Client keeps a connection to the broadcast server and feeds its frames into a queue
// Reader goroutines only copy frames; decoding happens on the consumer side
type Client struct {
	config  *Config
	queue   *Queue
	metrics *status.Registry
	dial    func(context.Context, *Config) (Conn, error)

	mu   sync.Mutex
	conn Conn

	running atomic.Bool
	done    chan struct{}
}

// NewClient creates a client delivering into a queue of cfg.QueueSize frames
func NewClient(cfg *Config, metrics *status.Registry) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = status.NewRegistry()
	}
	return &Client{
		config:  cfg,
		queue:   NewQueue(cfg.QueueSize, metrics),
		metrics: metrics,
		dial:    Dial,
		done:    make(chan struct{}),
	}
}

// Frames is the channel the event loop selects on
func (c *Client) Frames() <-chan Frame {
	return c.queue.C()
}

// Done is closed once Run returns
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Run connects and reads until ctx is cancelled, redialing after RetryDelay on failure
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("client already running")
	}
	defer close(c.done)

	connected := c.metrics.Flags.Get(status.Connected)
	attempt := 0
	for {
		if attempt > 0 {
			c.metrics.Counters.Get(status.Reconnects).Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
		attempt++

		conn, err := c.dial(ctx, c.config)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[network] %v", err)
			continue
		}

		c.setConn(conn)
		connected.Store(true)
		c.metrics.Labels.Get(status.Transport).Store(conn.Scheme().String())
		log.Printf("[network] connected to %s (%s)", c.config.Address, conn.Scheme())

		err = c.readLoop(ctx, conn)

		connected.Store(false)
		c.setConn(nil)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[network] connection lost: %v", err)
	}
}

// readLoop copies frames into the queue until the connection fails
func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		f, err := conn.Read()
		if err != nil {
			return err
		}
		c.queue.Push(f)
	}
}

func (c *Client) setConn(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Close drops the current connection; Run redials unless its context is done
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// IsConnected reports whether a connection is currently established
func (c *Client) IsConnected() bool {
	return c.metrics.Flags.Get(status.Connected).Load()
}
