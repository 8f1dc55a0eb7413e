package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates a fixed-length raw wave
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a finite wave generator
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1.0
			if o.phase >= 0.5 {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies linear attack and release to a stream
type envelope struct {
	streamer     beep.Streamer
	position     int
	attack       int
	release      int
	releaseStart int
	total        int
}

// NewEnvelope shapes s over duration with linear attack and release ramps
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	return &envelope{
		streamer:     s,
		attack:       att,
		release:      rel,
		releaseStart: max(total-rel, att),
		total:        total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.position >= e.releaseStart && e.release > 0 {
			vol = max(float64(e.total-e.position)/float64(e.release), 0)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales a stream linearly; zero or less is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

func tone(freq float64, wave WaveType, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(NewOscillator(freq, d, wave, rate), d, attack, release, rate)
}

// CreatePlantedSound is two rising square notes repeated twice
func CreatePlantedSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	note := func(f float64) beep.Streamer {
		return tone(f, WaveSquare, plantedNoteDuration, plantedAttack, plantedRelease, rate)
	}
	seq := beep.Seq(note(660), note(880), note(660), note(880))
	return newVolume(seq, 0.5*cfg.volume(CuePlanted))
}

// CreateDefusedSound is a falling sine chime with an octave overtone
func CreateDefusedSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	chime := func(f float64) beep.Streamer {
		return beep.Take(rate.N(defusedNoteDuration), beep.Mix(
			newVolume(tone(f, WaveSine, defusedNoteDuration, defusedAttack, defusedRelease, rate), 0.7),
			newVolume(tone(2*f, WaveSine, defusedNoteDuration, defusedAttack, defusedRelease, rate), 0.3),
		))
	}
	seq := beep.Seq(chime(1046.5), chime(784), chime(523.25))
	return newVolume(seq, cfg.volume(CueDefused))
}

// CreateExplodedSound is a noise burst over a saw rumble
func CreateExplodedSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	// Mix alone may keep streaming silence, Take bounds it
	mixed := beep.Take(rate.N(explodedDuration), beep.Mix(
		newVolume(tone(0, WaveNoise, explodedDuration, explodedAttack, explodedRelease, rate), 0.6),
		newVolume(tone(55, WaveSaw, explodedDuration, explodedAttack, explodedRelease, rate), 0.4),
	))
	return newVolume(mixed, cfg.volume(CueExploded))
}

// CreateConnectSound is a single short blip
func CreateConnectSound(cfg *Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	return newVolume(tone(1320, WaveSine, connectDuration, connectAttack, connectRelease, rate), cfg.volume(CueConnect))
}

// GetSoundEffect returns a fresh streamer for cue, nil when unknown
func GetSoundEffect(cue Cue, cfg *Config) beep.Streamer {
	switch cue {
	case CuePlanted:
		return CreatePlantedSound(cfg)
	case CueDefused:
		return CreateDefusedSound(cfg)
	case CueExploded:
		return CreateExplodedSound(cfg)
	case CueConnect:
		return CreateConnectSound(cfg)
	}
	return nil
}
