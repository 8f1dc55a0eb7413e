// Package effect tracks short-lived visual state derived from game events:
// world-positioned area effects, per-player status flags and the bomb advisory
package effect

import (
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/radarterm/protocol"
)

// Event kinds with a fixed lifetime, anything else is ignored
var ttl = map[string]time.Duration{
	"hegrenade_detonate":    1200 * time.Millisecond,
	"flashbang_detonate":    800 * time.Millisecond,
	"smokegrenade_detonate": 18000 * time.Millisecond,
	"smokegrenade_expired":  1500 * time.Millisecond,
	"molotov_detonate":      7000 * time.Millisecond,
	"decoy_detonate":        3000 * time.Millisecond,
	"weapon_fire":           250 * time.Millisecond,
	"player_hurt":           600 * time.Millisecond,
	"player_blind":          1500 * time.Millisecond,
	"bomb_planted":          4000 * time.Millisecond,
	"bomb_defused":          4000 * time.Millisecond,
	"bomb_exploded":         4000 * time.Millisecond,
}

var advisoryText = map[string]string{
	"bomb_planted":  "Bomb planted",
	"bomb_defused":  "Bomb defused",
	"bomb_exploded": "Bomb exploded",
}

// TTL returns the lifetime for an event kind
func TTL(kind string) (time.Duration, bool) {
	d, ok := ttl[kind]
	return d, ok
}

// FlagKind is a per-player transient condition
type FlagKind uint8

const (
	FlagFlash FlagKind = iota
	FlagShoot
	FlagHurt
	flagCount
)

func (k FlagKind) String() string {
	switch k {
	case FlagFlash:
		return "flash"
	case FlagShoot:
		return "shoot"
	case FlagHurt:
		return "hurt"
	}
	return "flag(" + strconv.Itoa(int(k)) + ")"
}

// AreaEffect is a world-positioned marker with a fixed lifetime
type AreaEffect struct {
	Kind    string
	X, Y, Z float64
	Created time.Time
	Expires time.Time
}

// Advisory is a raised bomb lifecycle banner
type Advisory struct {
	Kind    string
	Text    string
	Expires time.Time
}

// flagSet holds one expiry per FlagKind, zero time means unset
type flagSet [flagCount]time.Time

func (f *flagSet) empty() bool {
	for _, t := range f {
		if !t.IsZero() {
			return false
		}
	}
	return true
}

// seenCap bounds replay suppression memory
const seenCap = 256

// Tracker owns all ephemeral state; it is not safe for concurrent use
type Tracker struct {
	effects []AreaEffect
	flags   map[string]*flagSet

	advisory        string
	advisoryExpires time.Time

	// Servers resend recent events with every snapshot; ticked events are applied once
	seen      map[string]struct{}
	seenOrder []string
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		flags: make(map[string]*flagSet),
		seen:  make(map[string]struct{}),
	}
}

// Ingest applies a snapshot's events at time now, then prunes everything expired
// Returns the advisories raised by this call
func (t *Tracker) Ingest(events []protocol.Event, now time.Time) []Advisory {
	var raised []Advisory

	for _, ev := range events {
		life, ok := ttl[ev.Type]
		if !ok {
			continue
		}
		if t.replayed(ev) {
			continue
		}
		expires := now.Add(life)

		switch {
		case strings.HasSuffix(ev.Type, "_detonate") || strings.HasSuffix(ev.Type, "_expired"):
			if !ev.HasPos {
				continue
			}
			t.effects = append(t.effects, AreaEffect{
				Kind:    ev.Type,
				X:       ev.X,
				Y:       ev.Y,
				Z:       ev.Z,
				Created: now,
				Expires: expires,
			})
		case ev.Type == "weapon_fire":
			t.setFlag(ev.Player, FlagShoot, expires)
		case ev.Type == "player_hurt":
			t.setFlag(ev.Victim, FlagHurt, expires)
		case ev.Type == "player_blind":
			t.setFlag(ev.Player, FlagFlash, expires)
		case strings.HasPrefix(ev.Type, "bomb_"):
			t.advisory = advisoryText[ev.Type]
			t.advisoryExpires = expires
			raised = append(raised, Advisory{Kind: ev.Type, Text: t.advisory, Expires: expires})
		}
	}

	t.Prune(now)
	return raised
}

// replayed records ticked events and reports ones already applied
func (t *Tracker) replayed(ev protocol.Event) bool {
	if ev.Tick == 0 {
		return false
	}
	sig := ev.Type + "|" + strconv.FormatInt(ev.Tick, 10) + "|" + ev.Player + "|" + ev.Victim +
		"|" + strconv.FormatFloat(ev.X, 'g', -1, 64) + "|" + strconv.FormatFloat(ev.Y, 'g', -1, 64)
	if _, ok := t.seen[sig]; ok {
		return true
	}
	t.seen[sig] = struct{}{}
	t.seenOrder = append(t.seenOrder, sig)
	if len(t.seenOrder) > seenCap {
		delete(t.seen, t.seenOrder[0])
		t.seenOrder = t.seenOrder[1:]
	}
	return false
}

func (t *Tracker) setFlag(name string, kind FlagKind, expires time.Time) {
	if name == "" {
		return
	}
	fs, ok := t.flags[name]
	if !ok {
		fs = &flagSet{}
		t.flags[name] = fs
	}
	fs[kind] = expires
}

// Prune drops effects and flags whose expiry is at or before now
func (t *Tracker) Prune(now time.Time) {
	kept := t.effects[:0]
	for _, e := range t.effects {
		if e.Expires.After(now) {
			kept = append(kept, e)
		}
	}
	clear(t.effects[len(kept):])
	t.effects = kept

	for name, fs := range t.flags {
		for k := range fs {
			if !fs[k].IsZero() && !fs[k].After(now) {
				fs[k] = time.Time{}
			}
		}
		if fs.empty() {
			delete(t.flags, name)
		}
	}
}

// Effects returns the area effects still live at now
func (t *Tracker) Effects(now time.Time) []AreaEffect {
	out := make([]AreaEffect, 0, len(t.effects))
	for _, e := range t.effects {
		if e.Expires.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// Flag reports whether a player's flag is active at now
func (t *Tracker) Flag(name string, kind FlagKind, now time.Time) bool {
	if kind >= flagCount {
		return false
	}
	fs, ok := t.flags[name]
	if !ok {
		return false
	}
	return fs[kind].After(now)
}

// flagged returns the number of players holding at least one flag record
func (t *Tracker) flagged() int {
	return len(t.flags)
}

// Advisory returns the bomb banner text while it is unexpired
func (t *Tracker) Advisory(now time.Time) (string, bool) {
	if t.advisory == "" || !t.advisoryExpires.After(now) {
		return "", false
	}
	return t.advisory, true
}

// Reset forgets all tracked state, used on map change
func (t *Tracker) Reset() {
	t.effects = nil
	clear(t.flags)
	clear(t.seen)
	t.seenOrder = nil
	t.advisory = ""
	t.advisoryExpires = time.Time{}
}
