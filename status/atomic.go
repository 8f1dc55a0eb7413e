package status

import (
	"math"
	"sync/atomic"
)

// Float is an atomic float64, zero value reads 0
type Float struct {
	bits atomic.Uint64
}

func (f *Float) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *Float) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Smooth folds v into an exponential moving average with weight alpha
// The first sample is stored as-is
func (f *Float) Smooth(v, alpha float64) float64 {
	for {
		old := f.bits.Load()
		next := v
		if old != 0 {
			prev := math.Float64frombits(old)
			next = prev + (v-prev)*alpha
		}
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// MaxLabelLen caps stored labels so the status bar stays bounded
const MaxLabelLen = 32

// Label is an atomic short string
type Label struct {
	ptr atomic.Pointer[string]
}

func (l *Label) Store(s string) {
	if len(s) > MaxLabelLen {
		s = s[:MaxLabelLen]
	}
	l.ptr.Store(&s)
}

func (l *Label) Load() string {
	if p := l.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
