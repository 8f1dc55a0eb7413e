package interp

import (
	"math"
	"time"
)

const (
	DefaultInterval = 800 * time.Millisecond
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = 2000 * time.Millisecond

	// pollFactor stretches a declared poll interval to absorb server jitter
	pollFactor = 1.2

	historySize = 100
)

// Smoother tracks snapshot arrivals and derives the smoothing interval
type Smoother struct {
	interval time.Duration
	poll     time.Duration // zero until the server declares one
	arrivals []time.Time
}

// NewSmoother creates a smoother at the default interval
func NewSmoother() *Smoother {
	return &Smoother{
		interval: DefaultInterval,
		arrivals: make([]time.Time, 0, historySize+1),
	}
}

// Observe records an arrival; pollSeconds is the server-declared poll interval or zero
func (s *Smoother) Observe(at time.Time, pollSeconds float64) {
	if pollSeconds > 0 {
		s.poll = time.Duration(math.Round(pollSeconds * float64(time.Second)))
	}

	if n := len(s.arrivals); n > 0 {
		if gap := at.Sub(s.arrivals[n-1]); gap > 0 {
			s.interval = clamp(gap)
		}
	}
	if s.poll > 0 {
		s.interval = clamp(time.Duration(math.Round(float64(s.poll) * pollFactor)))
	}

	s.arrivals = append(s.arrivals, at)
	if len(s.arrivals) > historySize {
		copy(s.arrivals, s.arrivals[1:])
		s.arrivals = s.arrivals[:historySize]
	}
}

// Interval returns the current smoothing interval
func (s *Smoother) Interval() time.Duration {
	return s.interval
}

// lastArrival returns the most recent arrival time
func (s *Smoother) lastArrival() (time.Time, bool) {
	if len(s.arrivals) == 0 {
		return time.Time{}, false
	}
	return s.arrivals[len(s.arrivals)-1], true
}

// Rate returns arrivals per second across the retained history
func (s *Smoother) Rate() float64 {
	n := len(s.arrivals)
	if n < 2 {
		return 0
	}
	span := s.arrivals[n-1].Sub(s.arrivals[0])
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span.Seconds()
}

// history returns the number of retained arrival samples
func (s *Smoother) history() int {
	return len(s.arrivals)
}

// Reset forgets arrivals and the declared poll interval
func (s *Smoother) Reset() {
	s.interval = DefaultInterval
	s.poll = 0
	s.arrivals = s.arrivals[:0]
}

func clamp(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}
