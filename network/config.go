package network

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Scheme selects the transport for an address
type Scheme uint8

const (
	SchemeWS  Scheme = iota // ws:// or wss://
	SchemeTCP               // tcp://, length-framed
)

func (s Scheme) String() string {
	switch s {
	case SchemeWS:
		return "websocket"
	case SchemeTCP:
		return "tcp"
	}
	return "unknown"
}

// Config holds network configuration
type Config struct {
	// Address to connect to: ws://, wss:// or tcp://
	Address string

	// TLS configuration for wss:// (nil = system defaults)
	TLS *tls.Config

	// Timing
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration // zero disables the read deadline
	RetryDelay     time.Duration

	// Buffer sizes
	ReadBufferSize int
	QueueSize      int
	ReadLimit      int64 // max inbound message size
}

// DefaultConfig returns defaults suited to a local broadcast server
func DefaultConfig() *Config {
	return &Config{
		Address:        "ws://127.0.0.1:8765/ws",
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    30 * time.Second,
		RetryDelay:     2 * time.Second,
		ReadBufferSize: 64 * 1024,
		QueueSize:      8,
		ReadLimit:      16 << 20,
	}
}

// Resolve splits an address into its transport scheme and dial target
// WebSocket targets keep their full URL; TCP targets become host:port
func Resolve(address string) (Scheme, string, error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return 0, "", fmt.Errorf("parse address %q: %w", address, err)
	}
	if u.Host == "" {
		return 0, "", fmt.Errorf("address %q: missing host", address)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return SchemeWS, u.String(), nil
	case "tcp":
		return SchemeTCP, u.Host, nil
	}
	return 0, "", fmt.Errorf("address %q: %w", address, ErrUnsupportedScheme)
}
