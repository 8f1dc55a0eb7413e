package audio

// Config controls playback; loaded from the [audio] config section
type Config struct {
	Enabled      bool
	MasterVolume float64 // 0..1
	SampleRate   int
	CueVolumes   [cueCount]float64
}

// DefaultConfig returns audio disabled with moderate volumes
func DefaultConfig() *Config {
	cfg := &Config{
		MasterVolume: 0.5,
		SampleRate:   44100,
	}
	for i := range cfg.CueVolumes {
		cfg.CueVolumes[i] = 1.0
	}
	cfg.CueVolumes[CueConnect] = 0.4
	return cfg
}

// SetMasterVolume stores v clamped to 0..1
func (c *Config) SetMasterVolume(v float64) {
	c.MasterVolume = min(max(v, 0), 1)
}

func (c *Config) volume(cue Cue) float64 {
	if cue < 0 || cue >= cueCount {
		return 0
	}
	return c.CueVolumes[cue] * c.MasterVolume
}
