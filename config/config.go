// Package config loads client settings from a TOML file overlaid by command-line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/radarterm/audio"
	"github.com/lixenwraith/radarterm/network"
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/session"
)

// DefaultPath is read when -config is not given; a missing file there is not an error
const DefaultPath = "radarterm.toml"

// Duration decodes TOML strings such as "5s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Network struct {
	Address        string   `toml:"address"`
	ConnectTimeout Duration `toml:"connect_timeout"`
	ReadTimeout    Duration `toml:"read_timeout"`
	RetryDelay     Duration `toml:"retry_delay"`
	QueueSize      int      `toml:"queue_size"`
}

type Client struct {
	EnableTrails    bool `toml:"enable_trails"`
	EnableSmoothing bool `toml:"enable_smoothing"`
	FPS             int  `toml:"fps"`
	Debug           bool `toml:"debug"`
}

type Radar struct {
	DotSize        float64 `toml:"dot_size"`
	BombSize       float64 `toml:"bomb_size"`
	ShowAllyNames  bool    `toml:"show_ally_names"`
	ShowEnemyNames bool    `toml:"show_enemy_names"`
	ShowViewCones  bool    `toml:"show_view_cones"`
	ShowBomb       bool    `toml:"show_bomb"`
	ShowTrails     bool    `toml:"show_trails"`
	ShowGrid       bool    `toml:"show_grid"`
	TeamFilter     string  `toml:"team_filter"`
	ViewRotation   float64 `toml:"view_rotation"`
}

type Audio struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

type Maps struct {
	ImageDir string `toml:"image_dir"`
}

// Config is the full client configuration
type Config struct {
	Network Network `toml:"network"`
	Client  Client  `toml:"client"`
	Radar   Radar   `toml:"radar"`
	Audio   Audio   `toml:"audio"`
	Maps    Maps    `toml:"maps"`
}

// Default returns the built-in configuration
func Default() *Config {
	net := network.DefaultConfig()
	rs := render.DefaultSettings()
	return &Config{
		Network: Network{
			Address:        net.Address,
			ConnectTimeout: Duration{net.ConnectTimeout},
			ReadTimeout:    Duration{net.ReadTimeout},
			RetryDelay:     Duration{net.RetryDelay},
			QueueSize:      net.QueueSize,
		},
		Client: Client{
			EnableTrails:    true,
			EnableSmoothing: true,
			FPS:             30,
		},
		Radar: Radar{
			DotSize:        rs.DotSize,
			BombSize:       rs.BombSize,
			ShowAllyNames:  rs.ShowAllyNames,
			ShowEnemyNames: rs.ShowEnemyNames,
			ShowViewCones:  rs.ShowViewCones,
			ShowBomb:       rs.ShowBomb,
			ShowTrails:     rs.ShowTrails,
			ShowGrid:       true,
			TeamFilter:     rs.TeamFilter.String(),
			ViewRotation:   rs.ViewRotation,
		},
		Audio: Audio{Volume: audio.DefaultConfig().MasterVolume},
		Maps:  Maps{ImageDir: "maps"},
	}
}

// Load reads path over the defaults; keys absent from the file keep their default
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if _, _, err := network.Resolve(c.Network.Address); err != nil {
		return err
	}
	if _, err := render.ParseTeamFilter(c.Radar.TeamFilter); err != nil {
		return err
	}
	if c.Client.FPS < 1 || c.Client.FPS > 240 {
		return fmt.Errorf("fps %d out of range 1..240", c.Client.FPS)
	}
	if c.Network.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.Network.QueueSize)
	}
	if c.Radar.DotSize <= 0 || c.Radar.BombSize <= 0 {
		return errors.New("dot_size and bomb_size must be positive")
	}
	return nil
}

// Parse builds the configuration from command-line arguments
// The file named by -config (or DefaultPath when present) is loaded first, explicitly set flags override it
func Parse(args []string) (*Config, error) {
	fset := flag.NewFlagSet("radarterm", flag.ContinueOnError)
	var (
		path   = fset.String("config", "", "path to TOML config file")
		addr   = fset.String("addr", "", "server address (ws://, wss:// or tcp://)")
		debug  = fset.Bool("debug", false, "write logs to logs/radarterm.log")
		sound  = fset.Bool("sound", false, "enable audio cues")
		fps    = fset.Int("fps", 0, "render frame rate")
		mapDir = fset.String("map-dir", "", "directory holding radar images")
	)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	switch {
	case *path != "":
		loaded, err := Load(*path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(DefaultPath); err == nil {
			loaded, err := Load(DefaultPath)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", DefaultPath, err)
		}
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Network.Address = *addr
		case "debug":
			cfg.Client.Debug = *debug
		case "sound":
			cfg.Audio.Enabled = *sound
		case "fps":
			cfg.Client.FPS = *fps
		case "map-dir":
			cfg.Maps.ImageDir = *mapDir
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NetworkConfig converts the [network] section
func (c *Config) NetworkConfig() *network.Config {
	nc := network.DefaultConfig()
	nc.Address = c.Network.Address
	nc.ConnectTimeout = c.Network.ConnectTimeout.Duration
	nc.ReadTimeout = c.Network.ReadTimeout.Duration
	nc.RetryDelay = c.Network.RetryDelay.Duration
	nc.QueueSize = c.Network.QueueSize
	return nc
}

// RenderSettings converts the [radar] section; call after Validate
func (c *Config) RenderSettings() render.Settings {
	filter, _ := render.ParseTeamFilter(c.Radar.TeamFilter)
	return render.Settings{
		DotSize:        c.Radar.DotSize,
		BombSize:       c.Radar.BombSize,
		ShowAllyNames:  c.Radar.ShowAllyNames,
		ShowEnemyNames: c.Radar.ShowEnemyNames,
		ShowViewCones:  c.Radar.ShowViewCones,
		ShowBomb:       c.Radar.ShowBomb,
		ShowTrails:     c.Radar.ShowTrails,
		TeamFilter:     filter,
		ViewRotation:   c.Radar.ViewRotation,
	}
}

// SessionOptions converts the [client] processing toggles
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		EnableTrails:    c.Client.EnableTrails,
		EnableSmoothing: c.Client.EnableSmoothing,
	}
}

// AudioConfig converts the [audio] section
func (c *Config) AudioConfig() *audio.Config {
	ac := audio.DefaultConfig()
	ac.Enabled = c.Audio.Enabled
	ac.SetMasterVolume(c.Audio.Volume)
	return ac
}

// FrameInterval is the render ticker period
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(max(c.Client.FPS, 1))
}
