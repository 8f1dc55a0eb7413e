// Package interp blends the two most recent snapshots into display positions
package interp

import (
	"time"

	"github.com/lixenwraith/radarterm/protocol"
)

// Display is one player's position for the current render frame
type Display struct {
	Player       protocol.Player // current-snapshot record
	X, Y, Z      float64
	Interpolated bool // false when the raw current position was used
}

// Positions computes display positions for every player in cur
// Players are matched to prev by identity key; z always comes from cur
func Positions(cur, prev *protocol.Snapshot, lastReceive, now time.Time, interval time.Duration, enabled bool) []Display {
	if cur == nil {
		return nil
	}
	out := make([]Display, len(cur.Players))

	var before map[string]*protocol.Player
	if enabled && prev != nil && len(prev.Players) > 0 {
		before = make(map[string]*protocol.Player, len(prev.Players))
		for i := range prev.Players {
			before[prev.Players[i].Key()] = &prev.Players[i]
		}
	}
	f := Fraction(lastReceive, now, interval)

	for i, p := range cur.Players {
		d := Display{Player: p, X: p.X, Y: p.Y, Z: p.Z}
		if old, ok := before[p.Key()]; ok {
			d.X = Lerp(old.X, p.X, f)
			d.Y = Lerp(old.Y, p.Y, f)
			d.Interpolated = true
		}
		out[i] = d
	}
	return out
}

// Fraction returns clamp((now - from) / interval, 0, 1); a non-positive interval yields 1
func Fraction(from, now time.Time, interval time.Duration) float64 {
	if interval <= 0 {
		return 1
	}
	f := float64(now.Sub(from)) / float64(interval)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Lerp interpolates linearly from a to b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
