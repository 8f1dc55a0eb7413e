package audio

import (
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// SoundManager plays cues through a single mixer on the speaker
// Every method is safe to call before Initialize or after Cleanup
type SoundManager struct {
	mu          sync.Mutex
	config      *Config
	mixer       *beep.Mixer
	ctrl        *beep.Ctrl
	initialized bool
	played      [cueCount]int
	last        [cueCount]time.Time
	minGap      time.Duration
}

// NewSoundManager creates a manager for cfg; nil uses DefaultConfig
func NewSoundManager(cfg *Config) *SoundManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	mixer := &beep.Mixer{}
	return &SoundManager{
		config: cfg,
		mixer:  mixer,
		ctrl:   &beep.Ctrl{Streamer: mixer},
		minGap: 250 * time.Millisecond,
	}
}

// Initialize opens the speaker; it returns ErrDisabled when the config turns audio off
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if !sm.config.Enabled {
		return ErrDisabled
	}

	rate := beep.SampleRate(sm.config.SampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(sm.ctrl)
	sm.initialized = true
	log.Printf("[audio] speaker ready at %d Hz", sm.config.SampleRate)
	return nil
}

// Cleanup stops playback and releases the speaker
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	sm.ctrl.Paused = true
	sm.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	sm.initialized = false
}

// Play queues cue on the mixer; repeats of the same cue inside minGap are dropped
func (sm *SoundManager) Play(cue Cue) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || cue < 0 || cue >= cueCount {
		return false
	}
	now := time.Now()
	if now.Sub(sm.last[cue]) < sm.minGap {
		return false
	}

	s := GetSoundEffect(cue, sm.config)
	if s == nil {
		return false
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()

	sm.last[cue] = now
	sm.played[cue]++
	return true
}

// SetPaused mutes or resumes all output
func (sm *SoundManager) SetPaused(paused bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.ctrl.Paused = paused
	speaker.Unlock()
}

// Played returns how many times cue was queued
func (sm *SoundManager) Played(cue Cue) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if cue < 0 || cue >= cueCount {
		return 0
	}
	return sm.played[cue]
}

// IsInitialized reports whether the speaker is open
func (sm *SoundManager) IsInitialized() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized
}
