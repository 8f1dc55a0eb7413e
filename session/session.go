// Package session owns all client state derived from the inbound stream
// Each inbound frame is applied as one transaction; a frame that fails to decode changes nothing
package session

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/radarterm/clock"
	"github.com/lixenwraith/radarterm/effect"
	"github.com/lixenwraith/radarterm/interp"
	"github.com/lixenwraith/radarterm/projection"
	"github.com/lixenwraith/radarterm/protocol"
	"github.com/lixenwraith/radarterm/status"
	"github.com/lixenwraith/radarterm/trail"
)

// BoundsWarning is the local banner raised while the map config lacks bounds
const BoundsWarning = "Map bounds missing; projection may be inaccurate"

// Options toggles client-side processing
type Options struct {
	EnableTrails    bool
	EnableSmoothing bool
}

// Server mirrors the server's control-plane state
type Server struct {
	ClientID        string
	Version         string
	Mode            string
	SelectedDemo    string
	MapOverride     string
	MapsAvailable   []string
	Demos           []protocol.Demo
	RefreshInterval float64
	DemoValid       bool
	DemoLoading     bool
	BoundsSafe      bool
}

// Session is the single owned aggregate of client state
// It is driven by one goroutine; nothing here is safe for concurrent use
type Session struct {
	clk     clock.Clock
	metrics *status.Registry
	opts    Options

	cur  *protocol.Snapshot
	prev *protocol.Snapshot

	mapName   string
	mapConfig *protocol.MapConfig

	effects  *effect.Tracker
	trails   *trail.Tracker
	smoother *interp.Smoother

	perf        protocol.Perf
	lastReceive time.Time
	updates     int64

	server Server

	banner  banner // server status
	local   banner // client-raised status
	demoPct float64
	demoRef struct {
		demo, server float64
		ok           bool
	}

	onAdvisory func(effect.Advisory)
	onMap      func(name string)
}

// New creates a session reading time from clk and counting into metrics
func New(clk clock.Clock, metrics *status.Registry, opts Options) *Session {
	if metrics == nil {
		metrics = status.NewRegistry()
	}
	return &Session{
		clk:      clk,
		metrics:  metrics,
		opts:     opts,
		effects:  effect.NewTracker(),
		trails:   trail.NewTracker(),
		smoother: interp.NewSmoother(),
		server:   Server{BoundsSafe: true, MapOverride: "auto"},
	}
}

// OnAdvisory registers a callback for newly raised bomb advisories
func (s *Session) OnAdvisory(fn func(effect.Advisory)) {
	s.onAdvisory = fn
}

// OnMapChange registers a callback fired when the active map changes
func (s *Session) OnMapChange(fn func(name string)) {
	s.onMap = fn
}

// HandleFrame decodes one raw frame and applies it
// On any decode or parse failure the error is returned and no state is mutated
func (s *Session) HandleFrame(data []byte, text bool) error {
	start := time.Now()
	s.metrics.Counters.Get(status.FramesIn).Add(1)

	v, enc, err := protocol.DecodeFrame(data, text)
	if err != nil {
		s.metrics.Counters.Get(status.DecodeFailures).Add(1)
		log.Printf("[session] dropped %d-byte frame: %v", len(data), err)
		return err
	}
	if enc == protocol.EncodingJSON && !text {
		s.metrics.Counters.Get(status.JSONFallbacks).Add(1)
	}

	msg, err := protocol.Parse(v)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			s.metrics.Counters.Get(status.UnknownTypes).Add(1)
			log.Printf("[session] ignoring message: %v", err)
			return nil
		}
		s.metrics.Counters.Get(status.DecodeFailures).Add(1)
		log.Printf("[session] dropped frame: %v", err)
		return fmt.Errorf("parse frame: %w", err)
	}

	s.Apply(msg)
	s.metrics.Gauges.Get(status.DecodeMs).Smooth(clock.Millis(time.Since(start)), 0.2)
	return nil
}

// Apply folds a parsed message into session state
func (s *Session) Apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.PositionUpdate:
		s.applyPosition(m)
	case protocol.Connection:
		s.applyConnection(m)
	case protocol.DemoList:
		s.applyDemoList(m)
	case protocol.State:
		s.applyState(m)
	case protocol.Status:
		s.applyStatus(m)
	}
}

func (s *Session) applyPosition(m protocol.PositionUpdate) {
	now := s.clk.Now()

	s.reconcileMap(m)

	if m.MapConfig != nil && m.MapConfig.Bounds == nil {
		if s.local.text != BoundsWarning {
			s.local = banner{text: BoundsWarning, level: "warning", sticky: true}
			log.Printf("[session] map %q has no world bounds, using fallback projection", s.mapName)
		}
	} else if s.local.text == BoundsWarning {
		s.local = banner{}
	}

	data := m.Data
	s.prev = s.cur
	s.cur = &data

	s.perf = m.Perf
	s.updateDemoSpeed(m.Perf)

	for _, adv := range s.effects.Ingest(data.Events, now) {
		log.Printf("[session] advisory: %s", adv.Text)
		if s.onAdvisory != nil {
			s.onAdvisory(adv)
		}
	}

	s.smoother.Observe(now, m.Perf.PollInterval)
	s.lastReceive = now
	s.updates++

	if s.opts.EnableTrails {
		s.trails.Update(data.Players, now)
	}

	s.metrics.Gauges.Get(status.ServerParseMs).Store(m.Perf.ParseMs)
	s.metrics.Gauges.Get(status.DemoSpeed).Store(s.demoPct)
	s.metrics.Gauges.Get(status.UpdateRate).Store(s.smoother.Rate())
}

// reconcileMap swaps the map config on map change and keeps its name aligned with the active map
func (s *Session) reconcileMap(m protocol.PositionUpdate) {
	switch {
	case m.Map != "" && m.Map != s.mapName:
		old := s.mapName
		s.mapName = m.Map
		s.mapConfig = m.MapConfig
		s.effects.Reset()
		s.trails.Reset()
		s.prev, s.cur = nil, nil
		s.metrics.Labels.Get(status.MapName).Store(m.Map)
		log.Printf("[session] map change %q -> %q", old, m.Map)
		if s.onMap != nil {
			s.onMap(m.Map)
		}
	case m.MapConfig != nil && (s.mapConfig == nil || s.mapConfig.Bounds == nil && m.MapConfig.Bounds != nil):
		s.mapConfig = m.MapConfig
	}

	if s.mapConfig != nil && s.mapConfig.Name != s.mapName {
		cfg := *s.mapConfig
		cfg.Name = s.mapName
		s.mapConfig = &cfg
	}
}

// updateDemoSpeed derives playback speed from successive demo/server time pairs
func (s *Session) updateDemoSpeed(p protocol.Perf) {
	if !p.HasServerTS {
		return
	}
	if s.demoRef.ok {
		demoDelta := p.DemoTime - s.demoRef.demo
		wallDelta := p.ServerTS - s.demoRef.server
		if wallDelta > 0 {
			s.demoPct = max(0, min(400, demoDelta/wallDelta*100))
		}
	}
	s.demoRef.demo, s.demoRef.server, s.demoRef.ok = p.DemoTime, p.ServerTS, true
}

func (s *Session) applyConnection(m protocol.Connection) {
	log.Printf("[session] connected: %s (version %q, client %s)", m.Message, m.Version, m.ClientID)
	s.server.ClientID = m.ClientID
	s.server.Version = m.Version
	if len(m.MapsAvailable) > 0 {
		s.server.MapsAvailable = m.MapsAvailable
	}
	if m.Mode != "" {
		s.server.Mode = m.Mode
	}
	if m.MapOverride != nil {
		s.server.MapOverride = orAuto(*m.MapOverride)
	}
	setBool(&s.server.DemoValid, m.DemoValid)
	setBool(&s.server.DemoLoading, m.DemoLoading)
	setBool(&s.server.BoundsSafe, m.BoundsSafe)
	if m.RefreshInterval != nil {
		s.server.RefreshInterval = *m.RefreshInterval
	}
	if m.HasDemos {
		s.server.Demos = m.Demos
	}
	s.server.SelectedDemo = m.SelectedDemo
}

func (s *Session) applyDemoList(m protocol.DemoList) {
	if m.HasDemos {
		s.server.Demos = m.Demos
	}
	if m.Mode != "" {
		s.server.Mode = m.Mode
	}
	if m.SelectedDemo != nil {
		s.server.SelectedDemo = *m.SelectedDemo
	}
	setBool(&s.server.BoundsSafe, m.BoundsSafe)
}

func (s *Session) applyState(m protocol.State) {
	if m.Mode != "" {
		s.server.Mode = m.Mode
	}
	if m.SelectedDemo != nil {
		s.server.SelectedDemo = *m.SelectedDemo
	}
	if m.MapOverride != nil {
		s.server.MapOverride = orAuto(*m.MapOverride)
	}
	setBool(&s.server.DemoValid, m.DemoValid)
	setBool(&s.server.DemoLoading, m.DemoLoading)
	setBool(&s.server.BoundsSafe, m.BoundsSafe)
}

func (s *Session) applyStatus(m protocol.Status) {
	b := banner{text: m.Message, level: m.Level}
	if m.ExpiresIn > 0 {
		b.expires = s.clk.Now().Add(time.Duration(m.ExpiresIn * float64(time.Millisecond)))
	} else {
		b.sticky = true
	}
	s.banner = b
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func orAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}

// RaiseLocal sets the client-side banner; ttl 0 keeps it until cleared
func (s *Session) RaiseLocal(text, level string, ttl time.Duration) {
	b := banner{text: text, level: level}
	if ttl > 0 {
		b.expires = s.clk.Now().Add(ttl)
	} else {
		b.sticky = true
	}
	s.local = b
}

// ClearLocal drops the client-side banner if it still shows text
func (s *Session) ClearLocal(text string) {
	if s.local.text == text {
		s.local = banner{}
	}
}

// ===== SETTINGS =====

// SetTrails toggles trail recording; disabling drops existing trails
func (s *Session) SetTrails(on bool) {
	s.opts.EnableTrails = on
	if !on {
		s.trails.Reset()
	}
}

// SetSmoothing toggles interpolation
func (s *Session) SetSmoothing(on bool) {
	s.opts.EnableSmoothing = on
}

func (s *Session) Options() Options { return s.opts }

// ===== QUERIES =====

// Current returns the newest snapshot, nil before the first position update
func (s *Session) Current() *protocol.Snapshot { return s.cur }

// Previous returns the snapshot before Current
func (s *Session) Previous() *protocol.Snapshot { return s.prev }

func (s *Session) MapName() string                { return s.mapName }
func (s *Session) MapConfig() *protocol.MapConfig { return s.mapConfig }
func (s *Session) Effects() *effect.Tracker       { return s.effects }
func (s *Session) Trails() *trail.Tracker         { return s.trails }
func (s *Session) Smoother() *interp.Smoother     { return s.smoother }
func (s *Session) Perf() protocol.Perf            { return s.perf }
func (s *Session) LastReceive() time.Time         { return s.lastReceive }
func (s *Session) Updates() int64                 { return s.updates }
func (s *Session) Server() Server                 { return s.server }
func (s *Session) DemoSpeed() float64             { return s.demoPct }
func (s *Session) Metrics() *status.Registry      { return s.metrics }

// Degraded reports that projection is approximate, either locally detected or server-declared
func (s *Session) Degraded() bool {
	return projection.Degraded(s.mapConfig) || !s.server.BoundsSafe
}

// Positions returns interpolated display positions for the current snapshot at now
func (s *Session) Positions(now time.Time) []interp.Display {
	return interp.Positions(s.cur, s.prev, s.lastReceive, now, s.smoother.Interval(), s.opts.EnableSmoothing)
}
