package main

import (
	"log"
	"math"

	"github.com/lixenwraith/radarterm/audio"
	"github.com/lixenwraith/radarterm/clock"
	"github.com/lixenwraith/radarterm/effect"
	"github.com/lixenwraith/radarterm/mapimage"
	"github.com/lixenwraith/radarterm/network"
	"github.com/lixenwraith/radarterm/render"
	"github.com/lixenwraith/radarterm/render/renderers"
	"github.com/lixenwraith/radarterm/session"
	"github.com/lixenwraith/radarterm/status"
	"github.com/lixenwraith/radarterm/terminal"
)

// app owns everything touched by the event loop; only the loop goroutine may call it
type app struct {
	term     terminal.Terminal
	clk      clock.Clock
	session  *session.Session
	metrics  *status.Registry
	orch     *render.Orchestrator
	settings render.Settings

	players  *renderers.PlayersRenderer
	grid     *renderers.GridRenderer
	textures *mapimage.Cache
	sound    *audio.SoundManager

	textureWarning string
	wasConnected   bool
	muted          bool

	frame         int64
	width, height int
}

type appConfig struct {
	settings render.Settings
	options  session.Options
	mapDir   string
	showGrid bool
}

func newApp(term terminal.Terminal, clk clock.Clock, metrics *status.Registry, sound *audio.SoundManager, cfg appConfig) *app {
	if sound == nil {
		sound = audio.NewSoundManager(nil)
	}
	w, h := term.Size()
	a := &app{
		term:     term,
		clk:      clk,
		session:  session.New(clk, metrics, cfg.options),
		metrics:  metrics,
		orch:     render.NewOrchestrator(term, w, h),
		settings: cfg.settings,
		players:  renderers.NewPlayersRenderer(),
		grid:     renderers.NewGridRenderer(),
		textures: mapimage.NewCache(cfg.mapDir),
		sound:    sound,
		width:    w,
		height:   h,
	}
	a.grid.SetVisible(cfg.showGrid)

	a.orch.Register(renderers.NewBackgroundRenderer(a.textures), render.PriorityBackground)
	a.orch.Register(a.grid, render.PriorityGrid)
	a.orch.Register(renderers.NewEffectsRenderer(), render.PriorityEffects)
	a.orch.Register(renderers.NewTrailsRenderer(), render.PriorityTrails)
	a.orch.Register(a.players, render.PriorityEntities)
	a.orch.Register(renderers.NewBombRenderer(), render.PriorityObjective)
	a.orch.Register(renderers.NewStatusBarRenderer(), render.PriorityUI)

	a.session.OnMapChange(a.onMapChange)
	a.session.OnAdvisory(a.onAdvisory)
	return a
}

// handleFrame applies one inbound frame; bad frames are already logged and counted by the session
func (a *app) handleFrame(f network.Frame) {
	_ = a.session.HandleFrame(f.Data, f.Text)
}

func (a *app) onMapChange(name string) {
	a.players.Reset()
	if a.textureWarning != "" {
		a.session.ClearLocal(a.textureWarning)
		a.textureWarning = ""
	}
	if err := a.textures.Preload(name); err != nil {
		a.textureWarning = "Map texture missing for " + name
		a.session.RaiseLocal(a.textureWarning, "warning", 0)
	}
}

func (a *app) onAdvisory(adv effect.Advisory) {
	if cue, ok := audio.CueForAdvisory(adv.Kind); ok {
		a.sound.Play(cue)
	}
}

// tick renders one frame
func (a *app) tick() {
	connected := a.metrics.Flags.Get(status.Connected).Load()
	if connected && !a.wasConnected {
		a.sound.Play(audio.CueConnect)
	}
	a.wasConnected = connected

	a.frame++
	ctx := render.NewContext(a.session, a.settings, a.clk.Now(), a.frame, a.width, a.height)
	a.orch.RenderFrame(ctx)
}

// handleEvent processes one terminal event, returning false to quit
func (a *app) handleEvent(ev terminal.Event) bool {
	switch ev.Type {
	case terminal.EventResize:
		a.width, a.height = ev.Width, ev.Height
		a.orch.Resize(ev.Width, ev.Height)
		return true
	case terminal.EventKey:
	default:
		return true
	}

	if ev.IsQuit() {
		return false
	}
	switch ev.Key {
	case terminal.KeyCtrlL:
		a.term.Sync()
		return true
	case terminal.KeyLeft:
		a.rotate(-15)
		return true
	case terminal.KeyRight:
		a.rotate(15)
		return true
	case terminal.KeyRune:
	default:
		return true
	}

	s := &a.settings
	switch ev.Rune {
	case 't':
		s.ShowTrails = !s.ShowTrails
		a.session.SetTrails(s.ShowTrails)
	case 'i':
		a.session.SetSmoothing(!a.session.Options().EnableSmoothing)
	case 'g':
		a.grid.SetVisible(!a.grid.IsVisible())
	case 'v':
		s.ShowViewCones = !s.ShowViewCones
	case 'a':
		s.ShowAllyNames = !s.ShowAllyNames
	case 'e':
		s.ShowEnemyNames = !s.ShowEnemyNames
	case 'b':
		s.ShowBomb = !s.ShowBomb
	case 'f':
		s.TeamFilter = (s.TeamFilter + 1) % 3
	case 'r':
		a.rotate(90)
	case '0':
		s.ViewRotation = 0
	case '+', '=':
		s.DotSize = math.Min(s.DotSize+0.25, 3)
	case '-':
		s.DotSize = math.Max(s.DotSize-0.25, 0.5)
	case 'm':
		a.muted = !a.muted
		a.sound.SetPaused(a.muted)
	default:
		return true
	}
	log.Printf("[main] settings %+v", *s)
	return true
}

func (a *app) rotate(deg float64) {
	a.settings.ViewRotation = math.Mod(a.settings.ViewRotation+deg+360, 360)
}
