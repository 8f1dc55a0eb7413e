package audio

import (
	"errors"
	"testing"
)

// TestSoundManagerGracefulDegradation verifies operations don't panic when not initialized
func TestSoundManagerGracefulDegradation(t *testing.T) {
	sm := NewSoundManager(nil)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Sound operations panicked without initialization: %v", r)
		}
	}()

	if sm.Play(CuePlanted) {
		t.Error("Play succeeded without a speaker")
	}
	sm.SetPaused(true)
	sm.Cleanup()
	if sm.Played(CuePlanted) != 0 {
		t.Error("uninitialized play was counted")
	}
}

func TestSoundManagerDisabled(t *testing.T) {
	sm := NewSoundManager(DefaultConfig())
	if err := sm.Initialize(); !errors.Is(err, ErrDisabled) {
		t.Errorf("Initialize = %v, want ErrDisabled", err)
	}
	if sm.IsInitialized() {
		t.Error("disabled manager reports initialized")
	}
}

// TestSoundManagerInitialization may fail without an audio device; that is not a failure
func TestSoundManagerInitialization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	sm := NewSoundManager(cfg)

	if err := sm.Initialize(); err != nil {
		t.Logf("Sound initialization failed (expected in test environment): %v", err)
		return
	}
	if err := sm.Initialize(); err != nil {
		t.Errorf("Second initialization should be a no-op, got: %v", err)
	}

	if !sm.Play(CueDefused) {
		t.Error("first play rejected")
	}
	if sm.Play(CueDefused) {
		t.Error("repeat inside the gap accepted")
	}
	if sm.Played(CueDefused) != 1 {
		t.Errorf("Played = %d, want 1", sm.Played(CueDefused))
	}
	sm.Cleanup()
	if sm.Play(CueDefused) {
		t.Error("play after cleanup accepted")
	}
}
