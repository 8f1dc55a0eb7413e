// Package audio synthesizes short cues for match events through beep
package audio

import (
	"errors"
	"time"
)

// Cue identifies a synthesized sound
type Cue int

const (
	CuePlanted  Cue = iota // bomb planted, rising two-tone alarm
	CueDefused             // bomb defused, falling chime
	CueExploded            // bomb exploded, noise burst with low rumble
	CueConnect             // transport connected
	cueCount
)

func (c Cue) String() string {
	switch c {
	case CuePlanted:
		return "planted"
	case CueDefused:
		return "defused"
	case CueExploded:
		return "exploded"
	case CueConnect:
		return "connect"
	}
	return "unknown"
}

// CueForAdvisory maps a bomb advisory kind to its cue
func CueForAdvisory(kind string) (Cue, bool) {
	switch kind {
	case "bomb_planted":
		return CuePlanted, true
	case "bomb_defused":
		return CueDefused, true
	case "bomb_exploded":
		return CueExploded, true
	}
	return 0, false
}

// Cue timing
const (
	plantedNoteDuration = 120 * time.Millisecond
	plantedAttack       = 5 * time.Millisecond
	plantedRelease      = 40 * time.Millisecond

	defusedNoteDuration = 180 * time.Millisecond
	defusedAttack       = 5 * time.Millisecond
	defusedRelease      = 120 * time.Millisecond

	explodedDuration = 600 * time.Millisecond
	explodedAttack   = 2 * time.Millisecond
	explodedRelease  = 450 * time.Millisecond

	connectDuration = 80 * time.Millisecond
	connectAttack   = 5 * time.Millisecond
	connectRelease  = 50 * time.Millisecond
)

var ErrDisabled = errors.New("audio disabled")
