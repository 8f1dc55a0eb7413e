// Package status holds process-wide counters shared between reader goroutines and the render loop
package status

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// Well-known metric keys
const (
	FramesIn       = "frames.in"
	FramesDropped  = "frames.dropped"
	BytesIn        = "bytes.in"
	DecodeFailures = "decode.failures"
	JSONFallbacks  = "decode.json_fallbacks"
	UnknownTypes   = "messages.unknown"
	Reconnects     = "network.reconnects"

	DecodeMs      = "decode.ms"
	ServerParseMs = "server.parse_ms"
	RenderFPS     = "render.fps"
	DemoSpeed     = "demo.speed_pct"
	UpdateRate    = "session.update_rate"

	Connected = "network.connected"

	Transport = "network.transport"
	MapName   = "session.map"
)

// Set is a lazily populated keyed collection of metrics of one type
// Lookups after the first are lock-free on the returned pointer
type Set[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

func newSet[T any]() *Set[T] {
	return &Set[T]{items: make(map[string]*T)}
}

// Get returns the metric for key, creating it on first use
func (s *Set[T]) Get(key string) *T {
	s.mu.RLock()
	ptr, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return ptr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ptr, ok := s.items[key]; ok {
		return ptr
	}
	ptr = new(T)
	s.items[key] = ptr
	return ptr
}

// Has reports whether key was ever requested
func (s *Set[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Each visits metrics in key order
func (s *Set[T]) Each(fn func(key string, m *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range slices.Sorted(maps.Keys(s.items)) {
		fn(k, s.items[k])
	}
}

func (s *Set[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Registry groups metric sets by value type
type Registry struct {
	Counters *Set[atomic.Int64]
	Gauges   *Set[Float]
	Flags    *Set[atomic.Bool]
	Labels   *Set[Label]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: newSet[atomic.Int64](),
		Gauges:   newSet[Float](),
		Flags:    newSet[atomic.Bool](),
		Labels:   newSet[Label](),
	}
}

// Len returns the number of registered metrics of all types
func (r *Registry) Len() int {
	return r.Counters.Len() + r.Gauges.Len() + r.Flags.Len() + r.Labels.Len()
}

// Dump writes every metric as "key value" lines, used for the exit log
func (r *Registry) Dump(w io.Writer) {
	r.Counters.Each(func(k string, m *atomic.Int64) { fmt.Fprintf(w, "%s %d\n", k, m.Load()) })
	r.Gauges.Each(func(k string, m *Float) { fmt.Fprintf(w, "%s %.3f\n", k, m.Load()) })
	r.Flags.Each(func(k string, m *atomic.Bool) { fmt.Fprintf(w, "%s %t\n", k, m.Load()) })
	r.Labels.Each(func(k string, m *Label) { fmt.Fprintf(w, "%s %q\n", k, m.Load()) })
}
