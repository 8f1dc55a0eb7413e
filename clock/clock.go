// Package clock supplies the time base for trackers and the render loop
package clock

import (
	"sync"
	"time"
)

// Clock is anything that can report the current time
type Clock interface {
	Now() time.Time
}

// Real reads the system clock with its monotonic component
type Real struct{}

// NewReal creates a system clock
func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

// Mock is a manually driven clock for tests
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock creates a mock clock starting at start
func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set jumps to t
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Millis converts a duration to fractional milliseconds
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
