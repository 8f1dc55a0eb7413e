// Package trail keeps a short rolling position history per player
package trail

import (
	"time"

	"github.com/lixenwraith/radarterm/protocol"
)

// MaxSamples is the trail length; the oldest sample is evicted on overflow
const MaxSamples = 12

// Sample is one recorded world position
type Sample struct {
	X, Y float64
	At   time.Time
}

// Trail is the recent history of one identity, oldest first
type Trail struct {
	Key     string
	Team    protocol.Team
	Samples []Sample
}

// Tracker owns every trail; it is not safe for concurrent use
type Tracker struct {
	trails map[string]*Trail
	order  []string // first-seen order for deterministic iteration
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{trails: make(map[string]*Trail)}
}

// Update appends each player's position and deletes trails of absent identities
func (t *Tracker) Update(players []protocol.Player, now time.Time) {
	present := make(map[string]struct{}, len(players))

	for _, p := range players {
		key := p.Key()
		present[key] = struct{}{}

		tr, ok := t.trails[key]
		if !ok {
			tr = &Trail{Key: key, Samples: make([]Sample, 0, MaxSamples)}
			t.trails[key] = tr
			t.order = append(t.order, key)
		}
		tr.Team = p.Team

		if len(tr.Samples) == MaxSamples {
			copy(tr.Samples, tr.Samples[1:])
			tr.Samples = tr.Samples[:MaxSamples-1]
		}
		tr.Samples = append(tr.Samples, Sample{X: p.X, Y: p.Y, At: now})
	}

	kept := t.order[:0]
	for _, key := range t.order {
		if _, ok := present[key]; ok {
			kept = append(kept, key)
			continue
		}
		delete(t.trails, key)
	}
	t.order = kept
}

// Get returns one trail by identity key
func (t *Tracker) Get(key string) (*Trail, bool) {
	tr, ok := t.trails[key]
	return tr, ok
}

// Each visits trails in first-seen order
func (t *Tracker) Each(fn func(*Trail)) {
	for _, key := range t.order {
		fn(t.trails[key])
	}
}

// Len returns the number of tracked identities
func (t *Tracker) Len() int {
	return len(t.trails)
}

// Reset drops all trails
func (t *Tracker) Reset() {
	clear(t.trails)
	t.order = t.order[:0]
}
